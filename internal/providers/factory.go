package providers

import (
	"fmt"
	"sort"

	"github.com/crowagent/crowagent/internal/schema"
)

// Factory constructs a gateway from config-derived params.
type Factory func(p Params) (schema.LLMProvider, error)

// backends maps an implementation name to its constructor. Registry entries
// select one through ProviderSpec.Backend.
var backends = map[string]Factory{
	BackendOpenAI: func(p Params) (schema.LLMProvider, error) {
		return NewOpenAIProvider(p), nil
	},
	BackendAnthropic: func(p Params) (schema.LLMProvider, error) {
		return NewAnthropicProvider(p), nil
	},
	BackendGemini: func(p Params) (schema.LLMProvider, error) {
		return NewGeminiProvider(p), nil
	},
	BackendOllama: func(p Params) (schema.LLMProvider, error) {
		return NewOllamaProvider(p)
	},
	BackendScripted: func(Params) (schema.LLMProvider, error) {
		return Demo(), nil
	},
}

// New creates the gateway registered under name. Unknown names are an error;
// there is no fallback backend.
func New(name string, p Params) (schema.LLMProvider, error) {
	spec := FindByName(name)
	if spec == nil {
		return nil, fmt.Errorf("unknown provider %q (known: %v)", name, Names())
	}
	factory, ok := backends[spec.Backend]
	if !ok {
		return nil, fmt.Errorf("provider %q has no backend %q", name, spec.Backend)
	}
	p.ProviderName = spec.Name
	return factory(p)
}

// Names lists every registered provider name in sorted order.
func Names() []string {
	out := make([]string, 0, len(PROVIDERS))
	for _, s := range PROVIDERS {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}
