package config

import (
	"strings"

	"github.com/crowagent/crowagent/internal/config/provider"
	"github.com/crowagent/crowagent/internal/providers"
)

// MatchResult is the resolved provider config and registry name for a model.
type MatchResult struct {
	Provider *provider.ProviderConfig
	Name     string // e.g. "openrouter", "anthropic"
	// Model is the model to request. It differs from the configured one only
	// when a fallback provider was chosen that cannot serve it.
	Model string
}

// MatchProvider resolves which provider config and registry entry serve model.
// If model is empty, agents.defaults.model is used.
//
// Priority order:
//  1. agents.defaults.provider, when set
//  2. explicit "provider/" prefix or keyword match (providers.FindByModel)
//  3. the first gateway with an API key, then any provider with one
//  4. the scripted demo provider
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Agents.Defaults.Model
	}

	if name := strings.TrimSpace(c.Agents.Defaults.Provider); name != "" {
		if spec := providers.FindByName(name); spec != nil {
			return c.result(spec, model)
		}
	}

	if spec := providers.FindByModel(model); spec != nil {
		if !spec.NeedsKey() || c.hasKey(spec.Name) {
			return c.result(spec, model)
		}
	}

	for _, gatewaysOnly := range []bool{true, false} {
		for i := range providers.PROVIDERS {
			spec := &providers.PROVIDERS[i]
			if spec.IsGateway != gatewaysOnly || !spec.NeedsKey() {
				continue
			}
			if c.hasKey(spec.Name) {
				return c.fallback(spec, model)
			}
		}
	}

	return MatchResult{Name: providers.BackendScripted, Model: model}
}

func (c *Config) hasKey(name string) bool {
	p := c.ProviderByName(name)
	return p != nil && p.APIKey != ""
}

func (c *Config) result(spec *providers.ProviderSpec, model string) MatchResult {
	return MatchResult{Provider: c.ProviderByName(spec.Name), Name: spec.Name, Model: model}
}

// fallback switches to the provider's default model unless it is a gateway,
// which routes any "vendor/model" name.
func (c *Config) fallback(spec *providers.ProviderSpec, model string) MatchResult {
	r := c.result(spec, model)
	if !spec.IsGateway {
		r.Model = spec.DefaultModel
	}
	return r
}

// GetAPIKey returns the API key for model (or "").
func (c *Config) GetAPIKey(model string) string {
	if p := c.MatchProvider(model).Provider; p != nil {
		return p.APIKey
	}
	return ""
}

// GetAPIBase resolves the effective API base URL for model.
// Precedence: user-configured apiBase > the registry default.
func (c *Config) GetAPIBase(model string) string {
	result := c.MatchProvider(model)
	if result.Provider != nil && result.Provider.APIBase != "" {
		return result.Provider.APIBase
	}
	if spec := providers.FindByName(result.Name); spec != nil {
		return spec.DefaultAPIBase
	}
	return ""
}

// ProviderParams returns the constructor params and registry name for model.
func (c *Config) ProviderParams(model string) (string, providers.Params) {
	if model == "" {
		model = c.Agents.Defaults.Model
	}
	result := c.MatchProvider(model)
	params := providers.Params{
		APIBase:      c.GetAPIBase(model),
		DefaultModel: result.Model,
		ProviderName: result.Name,
	}
	if result.Provider != nil {
		params.ExtraHeaders = result.Provider.ExtraHeaders
	}
	return result.Name, params
}
