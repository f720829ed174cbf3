package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/crowagent/crowagent/internal/schema"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaProvider calls a local Ollama server. The credential is ignored.
type OllamaProvider struct {
	host         *url.URL
	defaultModel string
	params       Params
}

func NewOllamaProvider(p Params) (*OllamaProvider, error) {
	host := p.APIBase
	if host == "" {
		host = defaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	model := p.DefaultModel
	if model == "" {
		model = FindByName("ollama").DefaultModel
	}
	return &OllamaProvider{host: u, defaultModel: model, params: p}, nil
}

func (p *OllamaProvider) Name() string         { return "ollama" }
func (p *OllamaProvider) DefaultModel() string { return p.defaultModel }

// ollamaMessage mirrors the wire shape of api.Message so history can be
// converted with a JSON round trip.
type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

// Chat implements schema.LLMProvider with streaming disabled.
func (p *OllamaProvider) Chat(
	ctx context.Context,
	_ string,
	messages schema.Messages,
	tools []schema.ToolDefinition,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	req, err := p.request(messages, tools, opts)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), 0, err)
	}

	client := ollama.NewClient(p.host, p.params.httpClient())
	var last ollama.ChatResponse
	var text strings.Builder
	err = client.Chat(ctx, req, func(cr ollama.ChatResponse) error {
		text.WriteString(cr.Message.Content)
		if len(cr.Message.ToolCalls) > 0 {
			last.Message.ToolCalls = append(last.Message.ToolCalls, cr.Message.ToolCalls...)
		}
		last.Done, last.DoneReason, last.Metrics = cr.Done, cr.DoneReason, cr.Metrics
		return nil
	})
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), ollamaStatus(err), err)
	}

	out := schema.LLMResponse{
		Content:      text.String(),
		FinishReason: last.DoneReason,
		Usage: map[string]int{
			"input_tokens":  last.Metrics.PromptEvalCount,
			"output_tokens": last.Metrics.EvalCount,
		},
	}
	calls, err := fromOllamaToolCalls(last.Message.ToolCalls)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), 0, err)
	}
	out.ToolCalls = calls
	return out, nil
}

func (p *OllamaProvider) request(messages schema.Messages, tools []schema.ToolDefinition, opts schema.ChatOptions) (*ollama.ChatRequest, error) {
	wire := make([]ollamaMessage, 0, messages.Len())
	for _, m := range messages.Messages {
		om := ollamaMessage{Role: m.Role, Content: m.Content, ToolName: m.ToolName}
		for _, tc := range m.ToolCalls {
			var call ollamaToolCall
			call.Function.Name = tc.Name
			call.Function.Arguments = tc.Arguments
			om.ToolCalls = append(om.ToolCalls, call)
		}
		wire = append(wire, om)
	}

	var msgs []ollama.Message
	if err := roundTrip(wire, &msgs); err != nil {
		return nil, fmt.Errorf("convert messages: %w", err)
	}
	var ts ollama.Tools
	if len(tools) > 0 {
		defs := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			defs = append(defs, t.WireMap())
		}
		if err := roundTrip(defs, &ts); err != nil {
			return nil, fmt.Errorf("convert tools: %w", err)
		}
	}

	stream := false
	return &ollama.ChatRequest{
		Model:    strings.TrimPrefix(resolveModel(opts, p.defaultModel), "ollama/"),
		Messages: msgs,
		Tools:    ts,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": resolveMaxTokens(opts),
		},
	}, nil
}

func fromOllamaToolCalls(calls []ollama.ToolCall) ([]schema.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	var wire []ollamaToolCall
	if err := roundTrip(calls, &wire); err != nil {
		return nil, fmt.Errorf("decode tool calls: %w", err)
	}
	out := make([]schema.ToolCall, 0, len(wire))
	for _, c := range wire {
		out = append(out, schema.ToolCall{Name: c.Function.Name, Arguments: c.Function.Arguments})
	}
	return out, nil
}

func roundTrip(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func ollamaStatus(err error) int {
	var se ollama.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var sp *ollama.StatusError
	if errors.As(err, &sp) {
		return sp.StatusCode
	}
	return 0
}
