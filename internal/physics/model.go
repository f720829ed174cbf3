// Package physics holds the steady-state heat-balance model used to price
// retrofit scenarios: the building and scenario records, the range validator
// and the Evaluate function.
package physics

// Building is one entry of a building registry. Values are immutable once a
// registry hands them out; callers receive copies.
type Building struct {
	FloorAreaM2       float64 `json:"floor_area_m2" yaml:"floor_area_m2"`
	HeightM           float64 `json:"height_m" yaml:"height_m"`
	GlazingRatio      float64 `json:"glazing_ratio" yaml:"glazing_ratio"`
	UValueWall        float64 `json:"u_value_wall" yaml:"u_value_wall"`
	UValueRoof        float64 `json:"u_value_roof" yaml:"u_value_roof"`
	UValueGlazing     float64 `json:"u_value_glazing" yaml:"u_value_glazing"`
	BaselineEnergyMWh float64 `json:"baseline_energy_mwh" yaml:"baseline_energy_mwh"`
	OccupancyHours    float64 `json:"occupancy_hours" yaml:"occupancy_hours"`

	// Descriptive only; not read by the engine.
	BuildingType string `json:"building_type,omitempty" yaml:"building_type,omitempty"`
	BuiltYear    int    `json:"built_year,omitempty" yaml:"built_year,omitempty"`
}

// Scenario is a bundle of fabric multipliers and a renewable offset
// describing one retrofit option.
type Scenario struct {
	UWallFactor           float64 `json:"u_wall_factor" yaml:"u_wall_factor"`
	URoofFactor           float64 `json:"u_roof_factor" yaml:"u_roof_factor"`
	UGlazingFactor        float64 `json:"u_glazing_factor" yaml:"u_glazing_factor"`
	SolarGainReduction    float64 `json:"solar_gain_reduction" yaml:"solar_gain_reduction"`
	InfiltrationReduction float64 `json:"infiltration_reduction" yaml:"infiltration_reduction"`
	RenewableKWh          float64 `json:"renewable_kwh" yaml:"renewable_kwh"`
	InstallCost           float64 `json:"install_cost_gbp" yaml:"install_cost_gbp"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Weather is a single outdoor condition sample.
type Weather struct {
	TemperatureC float64 `json:"temperature_c"`
}

// Result is the output of one evaluation. SimplePaybackYrs is nil when the
// scenario never pays back.
type Result struct {
	AnnualEnergyMWh  float64  `json:"annual_energy_mwh"`
	EnergySavingMWh  float64  `json:"energy_saving_mwh"`
	CarbonSavingTCO2 float64  `json:"carbon_saving_tco2"`
	CostSaving       float64  `json:"cost_saving_gbp"`
	SimplePaybackYrs *float64 `json:"simple_payback_yrs"`
	ROI10Yr          float64  `json:"roi_10yr_gbp"`
	PeakDemandKW     float64  `json:"peak_demand_kw"`
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	if r.SimplePaybackYrs != nil {
		p := *r.SimplePaybackYrs
		r.SimplePaybackYrs = &p
	}
	return r
}

// Constants are the model coefficients. They are plain values so a loaded
// configuration can be passed into an Engine without global state.
type Constants struct {
	HeatingSetpointC       float64 `json:"heatingSetpointC"`
	HeatingHoursPerYear    float64 `json:"heatingHoursPerYear"`
	AirChangesPerHour      float64 `json:"airChangesPerHour"`
	SolarIrradianceKWhM2Yr float64 `json:"solarIrradianceKwhM2Yr"`
	SolarUtilisation       float64 `json:"solarUtilisation"`
	InfiltrationFactor     float64 `json:"infiltrationFactor"`      // Wh/m³K
	CarbonIntensityTPerMWh float64 `json:"carbonIntensityTPerMwh"` // numerically kgCO2e/kWh
}

// DefaultConstants returns the UK reference coefficients.
func DefaultConstants() Constants {
	return Constants{
		HeatingSetpointC:       20.0,
		HeatingHoursPerYear:    2500,
		AirChangesPerHour:      0.5,
		SolarIrradianceKWhM2Yr: 1000,
		SolarUtilisation:       0.9,
		InfiltrationFactor:     0.33,
		CarbonIntensityTPerMWh: 0.20482,
	}
}
