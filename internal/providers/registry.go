package providers

import "strings"

// Backend identifiers used by ProviderSpec.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
	BackendScripted  = "scripted"
)

// ProviderSpec is the metadata record for one model provider.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "openrouter"
	Keywords    []string // model-name keywords for matching (lowercase)
	DisplayName string   // shown in `crowagent status`
	Backend     string   // key into the backend factory map

	DefaultAPIBase string
	DefaultModel   string

	// IsGateway providers route any model and keep "vendor/model" names.
	IsGateway bool
	// IsLocal providers need no API key.
	IsLocal bool
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// NeedsKey reports whether the provider requires a credential.
func (s ProviderSpec) NeedsKey() bool {
	return !s.IsLocal && s.Backend != BackendScripted
}

// PROVIDERS is the registry. Order is match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:           "openrouter",
		Keywords:       []string{"openrouter"},
		DisplayName:    "OpenRouter",
		Backend:        BackendOpenAI,
		DefaultAPIBase: "https://openrouter.ai/api/v1",
		DefaultModel:   "openai/gpt-4o-mini",
		IsGateway:      true,
	},
	{
		Name:         "anthropic",
		Keywords:     []string{"anthropic", "claude"},
		DisplayName:  "Anthropic",
		Backend:      BackendAnthropic,
		DefaultModel: "claude-3-5-haiku-latest",
	},
	{
		Name:         "openai",
		Keywords:     []string{"openai", "gpt"},
		DisplayName:  "OpenAI",
		Backend:      BackendOpenAI,
		DefaultModel: "gpt-4o-mini",
	},
	{
		Name:         "gemini",
		Keywords:     []string{"gemini"},
		DisplayName:  "Gemini",
		Backend:      BackendGemini,
		DefaultModel: "gemini-1.5-flash",
	},
	{
		Name:           "deepseek",
		Keywords:       []string{"deepseek"},
		DisplayName:    "DeepSeek",
		Backend:        BackendOpenAI,
		DefaultAPIBase: "https://api.deepseek.com/v1",
		DefaultModel:   "deepseek-chat",
	},
	{
		Name:           "groq",
		Keywords:       []string{"groq"},
		DisplayName:    "Groq",
		Backend:        BackendOpenAI,
		DefaultAPIBase: "https://api.groq.com/openai/v1",
		DefaultModel:   "llama-3.1-8b-instant",
	},
	{
		Name:         "ollama",
		Keywords:     []string{"ollama", "llama", "qwen", "mistral"},
		DisplayName:  "Ollama/Local",
		Backend:      BackendOllama,
		DefaultModel: "llama3.1",
		IsLocal:      true,
	},
	{
		Name:        "vllm",
		Keywords:    []string{"vllm"},
		DisplayName: "vLLM/Local",
		Backend:     BackendOpenAI,
		IsLocal:     true,
	},
	{
		Name:        "scripted",
		DisplayName: "Offline demo",
		Backend:     BackendScripted,
		IsLocal:     true,
	},
}

// FindByModel matches a provider by an explicit "provider/" prefix, then by
// model-name keyword (case-insensitive). Gateways match by prefix only.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	if prefix, _, ok := strings.Cut(modelLower, "/"); ok {
		if s := FindByName(strings.ReplaceAll(prefix, "-", "_")); s != nil {
			return s
		}
	}
	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		if spec.IsGateway {
			continue
		}
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return spec
			}
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}
