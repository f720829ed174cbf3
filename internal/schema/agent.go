package schema

import "time"

// AgentSettings are the per-turn limits the orchestrator runs with.
type AgentSettings struct {
	Model       string
	MaxIter     int
	Temperature float64
	MaxTokens   int
	// CallTimeout bounds each gateway round-trip.
	CallTimeout time.Duration
	// DefaultTemperatureC and DefaultTariff are used when a tool call omits them.
	DefaultTemperatureC float64
	DefaultTariff       float64
}

func NewAgentSettings(model string, maxIter int, temperature float64, maxTokens int, callTimeout time.Duration) AgentSettings {
	return AgentSettings{
		Model:               model,
		MaxIter:             maxIter,
		Temperature:         temperature,
		MaxTokens:           maxTokens,
		CallTimeout:         callTimeout,
		DefaultTemperatureC: 10.5,
		DefaultTariff:       0.28,
	}
}
