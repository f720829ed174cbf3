package schema

import "context"

// ChatOptions configures a single model request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

func NewChatOptions(model string, maxTokens int, temperature float64) ChatOptions {
	return ChatOptions{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// LLMResponse is the normalised response from any gateway. A response with
// tool calls may still carry text.
type LLMResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        map[string]int // "input_tokens", "output_tokens"
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// LLMProvider is the contract every model gateway satisfies. The system
// instruction is the first message of messages when present. credential is
// supplied per call and never read from the environment by the gateway.
type LLMProvider interface {
	Chat(ctx context.Context, credential string, messages Messages, tools []ToolDefinition, opts ChatOptions) (LLMResponse, error)
	Name() string
	DefaultModel() string
}
