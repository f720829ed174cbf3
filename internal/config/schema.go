// Package config defines the configuration schema for crowagent.
//
// JSON keys use camelCase. The file lives at ~/.crowagent/config.json and is
// loaded once at startup; everything downstream receives plain values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/crowagent/crowagent/internal/config/agent"
	"github.com/crowagent/crowagent/internal/config/provider"
	"github.com/crowagent/crowagent/internal/config/server"
	"github.com/crowagent/crowagent/internal/config/simulation"
	"github.com/crowagent/crowagent/internal/housekeeping"
	"github.com/crowagent/crowagent/internal/physics"
	"github.com/crowagent/crowagent/internal/schema"
)

// Config is the root configuration object.
type Config struct {
	Agents     agent.AgentsConfig          `json:"agents"`
	Providers  provider.ProvidersConfig    `json:"providers"`
	Simulation simulation.SimulationConfig `json:"simulation"`
	Server     server.ServerConfig         `json:"server"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agents:     agent.DefaultAgentsConfig(),
		Providers:  provider.DefaultProvidersConfig(),
		Simulation: simulation.DefaultSimulationConfig(),
		Server:     server.DefaultServerConfig(),
	}
}

// ProviderByName returns the credentials block for a registry name, or nil.
func (c *Config) ProviderByName(name string) *provider.ProviderConfig {
	return c.Providers.ByName(name)
}

// CallTimeout is the per-request gateway deadline.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Agents.Defaults.TimeoutSeconds) * time.Second
}

// AgentSettings converts the agent and simulation sections into the values
// the orchestrator runs with.
func (c *Config) AgentSettings() schema.AgentSettings {
	d := c.Agents.Defaults
	s := schema.NewAgentSettings(c.MatchProvider(d.Model).Model, d.MaxToolIter, d.Temperature, d.MaxTokens, c.CallTimeout())
	s.DefaultTemperatureC = c.Simulation.DefaultTemperatureC
	s.DefaultTariff = c.Simulation.DefaultTariff
	return s
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	d := c.Agents.Defaults
	if d.MaxToolIter <= 0 {
		errs = append(errs, fmt.Errorf("agents.defaults.maxToolIterations must be > 0, got %d", d.MaxToolIter))
	}
	if d.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("agents.defaults.timeoutSeconds must be > 0, got %d", d.TimeoutSeconds))
	}
	if d.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("agents.defaults.maxTokens must be > 0, got %d", d.MaxTokens))
	}
	if d.Temperature < 0 || d.Temperature > 2 {
		errs = append(errs, fmt.Errorf("agents.defaults.temperature must be in [0, 2], got %g", d.Temperature))
	}
	if err := physics.ValidateTariff(c.Simulation.DefaultTariff); err != nil {
		errs = append(errs, fmt.Errorf("simulation.defaultTariff: %w", err))
	}
	if c.Simulation.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("simulation.cacheCapacity must be > 0, got %d", c.Simulation.CacheCapacity))
	}
	if c.Simulation.Constants.CarbonIntensityTPerMWh <= 0 {
		errs = append(errs, errors.New("simulation.constants.carbonIntensityTPerMwh must be > 0"))
	}
	if p := c.Server.Port; p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", p))
	}
	schedules := []struct{ field, spec string }{
		{"server.housekeeping", c.Server.Housekeeping},
		{"server.cachePurge", c.Server.CachePurge},
	}
	for _, s := range schedules {
		if s.spec == "" {
			continue
		}
		if err := housekeeping.ValidateSpec(s.spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.field, err))
		}
	}
	return errors.Join(errs...)
}
