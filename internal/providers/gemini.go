package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/crowagent/crowagent/internal/schema"
)

// GeminiProvider calls Google Gemini through generative-ai-go.
type GeminiProvider struct {
	defaultModel string
	params       Params
}

func NewGeminiProvider(p Params) *GeminiProvider {
	model := p.DefaultModel
	if model == "" {
		model = FindByName("gemini").DefaultModel
	}
	return &GeminiProvider{defaultModel: model, params: p}
}

func (p *GeminiProvider) Name() string         { return "gemini" }
func (p *GeminiProvider) DefaultModel() string { return p.defaultModel }

// Chat implements schema.LLMProvider. All but the final message are replayed
// as chat history; the final message is sent.
func (p *GeminiProvider) Chat(
	ctx context.Context,
	credential string,
	messages schema.Messages,
	tools []schema.ToolDefinition,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(credential)}
	if p.params.APIBase != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(p.params.APIBase))
	}
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), 0, fmt.Errorf("gemini init: %w", err))
	}
	defer client.Close()

	model := client.GenerativeModel(strings.TrimPrefix(resolveModel(opts, p.defaultModel), "gemini/"))
	model.SetMaxOutputTokens(int32(resolveMaxTokens(opts)))
	model.SetTemperature(float32(opts.Temperature))

	system, rest := splitSystem(messages)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	if len(tools) > 0 {
		model.Tools = []*genai.Tool{toGeminiTool(tools)}
	}

	contents := toGeminiContents(rest)
	if len(contents) == 0 {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), 0, errors.New("no message to send"))
	}
	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), geminiStatus(err), err)
	}

	out := schema.LLMResponse{}
	if resp.UsageMetadata != nil {
		out.Usage = map[string]int{
			"input_tokens":  int(resp.UsageMetadata.PromptTokenCount),
			"output_tokens": int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, nil
	}
	cand := resp.Candidates[0]
	out.FinishReason = cand.FinishReason.String()

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, schema.ToolCall{Name: v.Name, Arguments: v.Args})
		}
	}
	out.Content = text.String()
	return out, nil
}

// toGeminiContents maps history onto Gemini's user/model roles. Tool results
// travel as FunctionResponse parts in a user turn; consecutive parts with the
// same role are merged.
func toGeminiContents(messages []schema.Message) []*genai.Content {
	var out []*genai.Content
	add := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range messages {
		switch m.Role {
		case schema.RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Arguments})
			}
			add("model", parts...)
		case schema.RoleTool:
			add("user", genai.FunctionResponse{Name: m.ToolName, Response: toolResultObject(m.Content)})
		default:
			add("user", genai.Text(m.Content))
		}
	}
	return out
}

func toGeminiTool(tools []schema.ToolDefinition) *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(t.Parameters),
		})
	}
	return &genai.Tool{FunctionDeclarations: decls}
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// toGeminiSchema converts a decoded JSON Schema into genai.Schema. Keywords
// Gemini does not model are dropped.
func toGeminiSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	typ, _ := s["type"].(string)
	out := &genai.Schema{Type: geminiTypes[typ]}
	out.Description, _ = s["description"].(string)
	if enum, ok := s["enum"].([]any); ok {
		for _, e := range enum {
			if v, ok := e.(string); ok {
				out.Enum = append(out.Enum, v)
			}
		}
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if ps, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(ps)
			}
		}
	}
	out.Required = schema.ToolDefinition{Parameters: s}.Required()
	return out
}

// geminiStatus extracts the HTTP status from a Gemini error. gRPC codes are
// translated to their HTTP equivalents.
func geminiStatus(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return code
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return grpcToHTTP[st.Code()]
		}
	}
	return 0
}

var grpcToHTTP = map[codes.Code]int{
	codes.Unauthenticated:   401,
	codes.PermissionDenied:  403,
	codes.ResourceExhausted: 429,
	codes.DeadlineExceeded:  504,
	codes.Unavailable:       503,
}
