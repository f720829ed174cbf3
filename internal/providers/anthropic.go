package providers

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/crowagent/crowagent/internal/schema"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	defaultModel string
	params       Params
}

func NewAnthropicProvider(p Params) *AnthropicProvider {
	model := p.DefaultModel
	if model == "" {
		model = FindByName("anthropic").DefaultModel
	}
	return &AnthropicProvider{defaultModel: model, params: p}
}

func (p *AnthropicProvider) Name() string         { return "anthropic" }
func (p *AnthropicProvider) DefaultModel() string { return p.defaultModel }

func (p *AnthropicProvider) client(credential string) anthropic.Client {
	opts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(credential),
		anthropicopt.WithHTTPClient(p.params.httpClient()),
		// Failures surface to the caller; the orchestrator never retries.
		anthropicopt.WithMaxRetries(0),
	}
	if p.params.APIBase != "" {
		opts = append(opts, anthropicopt.WithBaseURL(p.params.APIBase))
	}
	for k, v := range p.params.ExtraHeaders {
		opts = append(opts, anthropicopt.WithHeader(k, v))
	}
	return anthropic.NewClient(opts...)
}

// Chat implements schema.LLMProvider.
func (p *AnthropicProvider) Chat(
	ctx context.Context,
	credential string,
	messages schema.Messages,
	tools []schema.ToolDefinition,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	system, rest := splitSystem(messages)
	model := strings.TrimPrefix(resolveModel(opts, p.defaultModel), "anthropic/")

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(resolveMaxTokens(opts)),
		Messages:    toAnthropicMessages(rest),
		Temperature: anthropic.Float(opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	client := p.client(credential)
	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), anthropicStatus(err), err)
	}

	out := schema.LLMResponse{
		FinishReason: string(msg.StopReason),
		Usage: map[string]int{
			"input_tokens":  int(msg.Usage.InputTokens),
			"output_tokens": int(msg.Usage.OutputTokens),
		},
	}
	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args, _ := repairJSON(string(b.Input))
			out.ToolCalls = append(out.ToolCalls, schema.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	out.Content = text.String()
	return out, nil
}

// toAnthropicMessages groups consecutive tool results into one user turn, as
// the Messages API requires results to follow the assistant's tool_use turn.
func toAnthropicMessages(messages []schema.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	var pending []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(pending) > 0 {
			out = append(out, anthropic.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, m := range messages {
		switch m.Role {
		case schema.RoleTool:
			pending = append(pending, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, isErrorPayload(m.Content)))
		case schema.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()
	return out
}

func toAnthropicTools(tools []schema.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Properties(),
				Required:   t.Required(),
			},
		}})
	}
	return out
}

// isErrorPayload reports whether a tool result is an error object.
func isErrorPayload(content string) bool {
	_, ok := toolResultObject(content)["error"]
	return ok
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
