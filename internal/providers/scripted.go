package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/crowagent/crowagent/internal/schema"
)

// ErrScriptExhausted is returned once a ScriptedProvider has no steps left.
var ErrScriptExhausted = errors.New("scripted provider has no more responses")

// ScriptStep is one canned gateway reply.
type ScriptStep struct {
	Response schema.LLMResponse
	Err      error
}

// ScriptedProvider replays canned responses in order. It backs offline demos
// and orchestrator tests. Requests are recorded for inspection.
type ScriptedProvider struct {
	mu       sync.Mutex
	steps    []ScriptStep
	repeat   bool
	requests []schema.Messages
	creds    []string
}

// NewScriptedProvider replays steps once each.
func NewScriptedProvider(steps ...ScriptStep) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// NewRepeatingProvider replays the final step forever once the others are used.
func NewRepeatingProvider(steps ...ScriptStep) *ScriptedProvider {
	return &ScriptedProvider{steps: steps, repeat: true}
}

func (p *ScriptedProvider) Name() string         { return "scripted" }
func (p *ScriptedProvider) DefaultModel() string { return "scripted" }

// Chat implements schema.LLMProvider.
func (p *ScriptedProvider) Chat(
	ctx context.Context,
	credential string,
	messages schema.Messages,
	_ []schema.ToolDefinition,
	_ schema.ChatOptions,
) (schema.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, messages.Clone())
	p.creds = append(p.creds, credential)

	if err := ctx.Err(); err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), 0, err)
	}
	if len(p.steps) == 0 {
		return schema.LLMResponse{}, schema.NewGatewayError(p.Name(), 0, ErrScriptExhausted)
	}
	step := p.steps[0]
	if len(p.steps) > 1 || !p.repeat {
		p.steps = p.steps[1:]
	}
	return step.Response, step.Err
}

// Calls returns the number of Chat calls made so far.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns copies of the message lists received, in call order.
func (p *ScriptedProvider) Requests() []schema.Messages {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]schema.Messages, len(p.requests))
	copy(out, p.requests)
	return out
}

// Credentials returns the credentials received, in call order.
func (p *ScriptedProvider) Credentials() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.creds...)
}

// Demo returns a provider that answers every request with a short note
// pointing at the simulate command, for running without a model.
func Demo() *ScriptedProvider {
	return NewRepeatingProvider(ScriptStep{Response: schema.LLMResponse{
		Content: "No model provider is configured. Run `crowagent onboard` and set an API key, " +
			"or use `crowagent simulate` to evaluate scenarios directly.",
		FinishReason: "stop",
	}})
}
