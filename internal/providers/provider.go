// Package providers implements schema.LLMProvider over the model SDKs and a
// scripted in-process gateway. Every gateway takes the credential per call
// and maps its SDK's failures onto the schema gateway error taxonomy.
package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crowagent/crowagent/internal/schema"
)

const (
	defaultMaxTokens   = 1024
	defaultHTTPTimeout = 60 * time.Second
)

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string
	// ProviderName is the registry name, e.g. "openrouter", "anthropic".
	ProviderName string
	// HTTPClient overrides the client used by SDKs that accept one.
	HTTPClient *http.Client
}

func (p Params) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func resolveModel(opts schema.ChatOptions, fallback string) string {
	if opts.Model != "" {
		return opts.Model
	}
	return fallback
}

func resolveMaxTokens(opts schema.ChatOptions) int {
	if opts.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return opts.MaxTokens
}

// splitSystem separates the leading system messages from the conversation.
func splitSystem(messages schema.Messages) (string, []schema.Message) {
	var system []string
	rest := make([]schema.Message, 0, len(messages.Messages))
	for _, m := range messages.Messages {
		if m.Role == schema.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// repairJSON decodes tool-call arguments, recovering from the truncated or
// trailing-garbage objects some models emit.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return out, nil
	}

	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return out, nil
		}
	}
	return map[string]any{}, fmt.Errorf("cannot repair JSON: %s", raw)
}

// toolResultObject wraps a tool result for gateways that require an object.
func toolResultObject(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	var v any
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		return map[string]any{"result": v}
	}
	return map[string]any{"result": content}
}
