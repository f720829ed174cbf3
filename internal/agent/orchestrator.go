// Package agent runs one advisory turn: it alternates model calls and tool
// dispatch until the model answers in plain text or a limit is hit.
package agent

import (
	"context"
	"errors"

	"github.com/crowagent/crowagent/internal/cache"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
	"github.com/crowagent/crowagent/internal/schema"
	"github.com/crowagent/crowagent/internal/shared/llmutils"
	"github.com/crowagent/crowagent/internal/tools"
)

var (
	// ErrIterationCap means the model kept requesting tools past the cycle limit.
	ErrIterationCap = errors.New("tool iteration cap reached")
	// ErrEmptyResponse means the gateway returned neither text nor tool calls.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// ToolInvocation records one dispatched tool call.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	// Kind is empty on success, else the error payload kind.
	Kind string `json:"kind,omitempty"`
	Err  error  `json:"-"`
}

// Reply is the outcome of a turn.
type Reply struct {
	Text      string           `json:"text"`
	State     State            `json:"state"`
	Err       error            `json:"-"`
	Cycles    int              `json:"cycles"`
	ToolCalls []ToolInvocation `json:"toolCalls"`
}

// ToolNames returns the distinct tools run during the turn in call order.
func (r Reply) ToolNames() []string {
	names := make([]string, 0, len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		names = append(names, tc.Name)
	}
	return llmutils.UniqueNames(names)
}

// Observer receives turn events. internal/metrics implements it.
type Observer interface {
	ToolCalled(name string, failed bool)
	TurnFinished(state string, cycles int)
	GatewayFailed(provider string, kind string)
}

type noopObserver struct{}

func (noopObserver) ToolCalled(string, bool)      {}
func (noopObserver) TurnFinished(string, int)     {}
func (noopObserver) GatewayFailed(string, string) {}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver reports turn events to obs.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// Orchestrator holds what is shared between turns. Registries are not among
// them; each RunTurn receives its own.
type Orchestrator struct {
	provider schema.LLMProvider
	cache    *cache.ResultCache
	settings schema.AgentSettings
	obs      Observer
}

// New returns an Orchestrator. rc may be nil, in which case tools evaluate
// directly with default constants.
func New(provider schema.LLMProvider, rc *cache.ResultCache, settings schema.AgentSettings, opts ...Option) *Orchestrator {
	if settings.MaxIter <= 0 {
		settings.MaxIter = 10
	}
	o := &Orchestrator{provider: provider, cache: rc, settings: settings, obs: noopObserver{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Settings returns the settings the orchestrator runs with.
func (o *Orchestrator) Settings() schema.AgentSettings { return o.settings }

// RunTurn appends message to a copy of history, drives the model and tool
// loop, and returns the reply with the updated history. history is never
// modified. The system instruction is sent with every request but is not
// stored in the returned history.
func (o *Orchestrator) RunTurn(
	ctx context.Context,
	message string,
	history schema.Messages,
	credential string,
	buildings catalog.Buildings,
	scenarios catalog.Scenarios,
) (Reply, schema.Messages) {
	conversation := history.Clone()
	conversation.AddUser(message)

	env := tools.NewEnv(buildings, scenarios, o.cache)
	defaults := o.defaults()
	tls := tools.NewToolList(env, defaults)
	system := NewContextBuilder(buildings, scenarios, defaults, o.constants()).BuildSystemPrompt()

	runner := newLoopRunner(o.provider, o.settings, o.obs)
	reply := runner.run(ctx, system, credential, &conversation, tls)
	o.obs.TurnFinished(reply.State.String(), reply.Cycles)
	return reply, conversation
}

func (o *Orchestrator) defaults() tools.Defaults {
	d := tools.DefaultDefaults()
	d.TemperatureC = o.settings.DefaultTemperatureC
	if o.settings.DefaultTariff > 0 {
		d.Tariff = o.settings.DefaultTariff
	}
	return d
}

func (o *Orchestrator) constants() physics.Constants {
	if o.cache != nil {
		return o.cache.Engine().Constants()
	}
	return physics.DefaultConstants()
}
