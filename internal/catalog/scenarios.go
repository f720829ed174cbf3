package catalog

// Scenario identifiers shipped with the built-in catalogue.
const (
	ScenarioFabricModerate  = "fabric_moderate"
	ScenarioFabricDeep      = "fabric_deep"
	ScenarioGlazingAdvanced = "glazing_advanced"
	ScenarioPVSmall         = "pv_small"
	ScenarioPVLarge         = "pv_large"
	ScenarioNetZeroReady    = "netzero_ready"
)

// DefaultScenarios returns the master scenario library.
func DefaultScenarios() Scenarios {
	return Scenarios{
		ScenarioFabricModerate: {
			Description: "Moderate Fabric Upgrade",
			UWallFactor: 0.7, URoofFactor: 0.6, UGlazingFactor: 1.0,
			InfiltrationReduction: 0.1,
			InstallCost:           50000,
		},
		ScenarioFabricDeep: {
			Description: "Deep Fabric Retrofit",
			UWallFactor: 0.4, URoofFactor: 0.3, UGlazingFactor: 0.7,
			InfiltrationReduction: 0.3,
			SolarGainReduction:    0.1,
			InstallCost:           120000,
		},
		ScenarioGlazingAdvanced: {
			Description: "Advanced Glazing (Triple Pane)",
			UWallFactor: 1.0, URoofFactor: 1.0, UGlazingFactor: 0.5,
			InfiltrationReduction: 0.05,
			SolarGainReduction:    0.2,
			InstallCost:           40000,
		},
		ScenarioPVSmall: {
			Description: "Small Solar PV (10 kWp)",
			UWallFactor: 1.0, URoofFactor: 1.0, UGlazingFactor: 1.0,
			RenewableKWh: 10000,
			InstallCost:  15000,
		},
		ScenarioPVLarge: {
			Description: "Large Solar PV (50 kWp)",
			UWallFactor: 1.0, URoofFactor: 1.0, UGlazingFactor: 1.0,
			RenewableKWh: 50000,
			InstallCost:  60000,
		},
		ScenarioNetZeroReady: {
			Description: "Net Zero Ready Package",
			UWallFactor: 0.4, URoofFactor: 0.3, UGlazingFactor: 0.5,
			InfiltrationReduction: 0.4,
			SolarGainReduction:    0.2,
			RenewableKWh:          25000,
			InstallCost:           180000,
		},
	}
}
