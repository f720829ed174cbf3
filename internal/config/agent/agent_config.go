package agent

// AgentDefaults are the model and loop settings used by every turn.
type AgentDefaults struct {
	// Provider forces a registry entry; empty means infer it from Model.
	Provider       string  `json:"provider,omitempty"`
	Model          string  `json:"model"`
	MaxTokens      int     `json:"maxTokens"`
	Temperature    float64 `json:"temperature"`
	MaxToolIter    int     `json:"maxToolIterations"`
	TimeoutSeconds int     `json:"timeoutSeconds"`
}

type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Model:          "gemini/gemini-1.5-flash",
		MaxTokens:      2000,
		Temperature:    0.3,
		MaxToolIter:    10,
		TimeoutSeconds: 30,
	}
}

func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{Defaults: defaultAgentDefaults()}
}
