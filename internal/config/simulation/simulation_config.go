package simulation

import "github.com/crowagent/crowagent/internal/physics"

// SimulationConfig holds the physics constants and evaluation defaults.
type SimulationConfig struct {
	Constants           physics.Constants `json:"constants"`
	DefaultTemperatureC float64           `json:"defaultTemperatureC"`
	DefaultTariff       float64           `json:"defaultTariff"` // per kWh
	CacheCapacity       int               `json:"cacheCapacity"`
	// CatalogFile is an optional YAML catalogue replacing the built-in one.
	CatalogFile string `json:"catalogFile,omitempty"`
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Constants:           physics.DefaultConstants(),
		DefaultTemperatureC: 10.5,
		DefaultTariff:       0.28,
		CacheCapacity:       512,
	}
}

// Engine returns an engine over the configured constants.
func (c SimulationConfig) Engine() physics.Engine {
	return physics.NewEngine(c.Constants)
}
