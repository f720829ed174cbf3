package providers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/crowagent/crowagent/internal/schema"
)

// OpenAIProvider talks to OpenAI and any OpenAI-compatible endpoint
// (OpenRouter, DeepSeek, Groq, vLLM) through go-openai.
type OpenAIProvider struct {
	name         string
	apiBase      string
	defaultModel string
	spec         *ProviderSpec
	params       Params
}

// NewOpenAIProvider resolves the API base from the registry when none is
// configured.
func NewOpenAIProvider(p Params) *OpenAIProvider {
	name := p.ProviderName
	if name == "" {
		name = "openai"
	}
	spec := FindByName(name)
	base := p.APIBase
	if base == "" && spec != nil {
		base = spec.DefaultAPIBase
	}
	model := p.DefaultModel
	if model == "" && spec != nil {
		model = spec.DefaultModel
	}
	return &OpenAIProvider{
		name:         name,
		apiBase:      strings.TrimRight(base, "/"),
		defaultModel: model,
		spec:         spec,
		params:       p,
	}
}

func (p *OpenAIProvider) Name() string         { return p.name }
func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

func (p *OpenAIProvider) client(credential string) *openai.Client {
	cfg := openai.DefaultConfig(credential)
	if p.apiBase != "" {
		cfg.BaseURL = p.apiBase
	}
	cfg.HTTPClient = withHeaders(p.params.httpClient(), p.params.ExtraHeaders)
	return openai.NewClientWithConfig(cfg)
}

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	credential string,
	messages schema.Messages,
	tools []schema.ToolDefinition,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.stripPrefix(resolveModel(opts, p.defaultModel)),
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   resolveMaxTokens(opts),
		Temperature: float32(opts.Temperature),
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := p.client(credential).CreateChatCompletion(ctx, req)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.name, openAIStatus(err), err)
	}
	if len(resp.Choices) == 0 {
		return schema.LLMResponse{}, schema.NewGatewayError(p.name, 0, errors.New("no choices in response"))
	}

	choice := resp.Choices[0]
	out := schema.LLMResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: map[string]int{
			"input_tokens":  resp.Usage.PromptTokens,
			"output_tokens": resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := repairJSON(tc.Function.Arguments)
		if err != nil {
			slog.Warn("Unparseable tool arguments", "provider", p.name, "tool", tc.Function.Name, "err", err)
		}
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

// stripPrefix removes a "provider/" prefix naming this provider, so
// "openai/gpt-4o-mini" reaches the API as "gpt-4o-mini". Gateways such as
// OpenRouter route on the full name and keep it.
func (p *OpenAIProvider) stripPrefix(model string) string {
	if p.spec != nil && p.spec.IsGateway {
		return model
	}
	prefix, rest, ok := strings.Cut(model, "/")
	if ok && strings.EqualFold(strings.ReplaceAll(prefix, "-", "_"), p.name) {
		return rest
	}
	return model
}

func toOpenAIMessages(messages schema.Messages) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, messages.Len())
	for _, m := range messages.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		if m.Role == schema.RoleTool {
			msg.Name = m.ToolName
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.ArgumentsJSON(),
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []schema.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// openAIStatus extracts the HTTP status from a go-openai error, or 0.
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
