package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/crowagent/crowagent/internal/schema"
	"github.com/crowagent/crowagent/internal/shared/llmutils"
	"github.com/crowagent/crowagent/internal/tools"
)

// loopRunner executes the model and tool iteration loop for one turn.
type loopRunner struct {
	provider schema.LLMProvider
	settings schema.AgentSettings
	obs      Observer
	state    State
}

func newLoopRunner(provider schema.LLMProvider, settings schema.AgentSettings, obs Observer) *loopRunner {
	return &loopRunner{provider: provider, settings: settings, obs: obs, state: Idle}
}

func (r *loopRunner) transition(to State) {
	if !canTransition(r.state, to) {
		slog.Error("Invalid turn transition", "from", r.state, "to", to)
	}
	slog.Debug("Turn state", "from", r.state, "to", to)
	r.state = to
}

// run mutates conversation in place and returns the reply.
func (r *loopRunner) run(
	ctx context.Context,
	system string,
	credential string,
	conversation *schema.Messages,
	tls *tools.ToolList,
) Reply {
	var reply Reply
	defs := tls.Definitions()
	opts := schema.NewChatOptions(r.settings.Model, r.settings.MaxTokens, r.settings.Temperature)

	for reply.Cycles < r.settings.MaxIter {
		reply.Cycles++
		r.transition(AwaitingModelResponse)

		resp, err := r.chat(ctx, credential, system, *conversation, defs, opts)
		if err != nil {
			return r.abortGateway(reply, err)
		}

		content := strings.TrimSpace(llmutils.StripThink(resp.Content))
		if !resp.HasToolCalls() {
			if content == "" {
				slog.Warn("Empty model response", "provider", r.provider.Name(), "cycle", reply.Cycles,
					"finish_reason", resp.FinishReason)
				return r.abort(reply, ErrEmptyResponse,
					"The model returned an empty response. Please rephrase your question and try again.")
			}
			conversation.AddAssistant(content, nil)
			r.transition(Done)
			reply.Text = content
			reply.State = Done
			return reply
		}

		calls := withIDs(resp.ToolCalls)
		slog.Debug("Tool batch", "cycle", reply.Cycles, "hint", llmutils.ToolHint(calls))
		conversation.AddAssistant(content, calls)

		r.transition(DispatchingTool)
		for _, tc := range calls {
			reply.ToolCalls = append(reply.ToolCalls, r.dispatch(ctx, conversation, tls, tc))
		}
	}

	slog.Warn("Tool iteration cap reached", "cycles", reply.Cycles, "tools", reply.ToolNames())
	return r.abort(reply, ErrIterationCap, capMessage(r.settings.MaxIter, reply.ToolNames()))
}

// chat sends one request with the system instruction prepended and a
// per-call deadline derived from ctx.
func (r *loopRunner) chat(
	ctx context.Context,
	credential string,
	system string,
	conversation schema.Messages,
	defs []schema.ToolDefinition,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	if r.settings.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.settings.CallTimeout)
		defer cancel()
	}
	req := schema.NewMessages(schema.NewSystemMessage(system))
	req.Append(conversation)

	resp, err := r.provider.Chat(ctx, credential, req, defs, opts)
	if err != nil {
		return schema.LLMResponse{}, schema.NewGatewayError(r.provider.Name(), 0, err)
	}
	return resp, nil
}

// dispatch runs one tool and appends its result, or an error payload, to
// the conversation.
func (r *loopRunner) dispatch(ctx context.Context, conversation *schema.Messages, tls *tools.ToolList, tc schema.ToolCall) ToolInvocation {
	slog.Info("Tool call", "name", tc.Name, "args", llmutils.Truncate(tc.ArgumentsJSON(), 200))

	inv := ToolInvocation{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}
	result, err := tls.Execute(ctx, tc.Name, tc.Arguments)
	if err != nil {
		inv.Err = err
		inv.Kind = tools.ErrorKind(err)
		result = tools.ErrorPayload(err)
		slog.Info("Tool failed", "name", tc.Name, "kind", inv.Kind, "err", err)
	}
	r.obs.ToolCalled(tc.Name, err != nil)
	conversation.AddToolResult(tc.ID, tc.Name, result)
	return inv
}

func (r *loopRunner) abort(reply Reply, err error, text string) Reply {
	r.transition(Aborted)
	reply.State = Aborted
	reply.Err = err
	reply.Text = text
	return reply
}

func (r *loopRunner) abortGateway(reply Reply, err error) Reply {
	var gwErr *schema.GatewayError
	kind := "unavailable"
	if errors.As(err, &gwErr) {
		kind = gatewayKind(gwErr)
	}
	slog.Warn("Gateway error", "provider", r.provider.Name(), "cycle", reply.Cycles, "kind", kind, "err", err)
	r.obs.GatewayFailed(r.provider.Name(), kind)
	return r.abort(reply, err, gatewayMessage(err))
}

// withIDs returns calls with a generated ID wherever the gateway sent none.
func withIDs(calls []schema.ToolCall) []schema.ToolCall {
	out := make([]schema.ToolCall, len(calls))
	for i, tc := range calls {
		if tc.ID == "" {
			tc.ID = uuid.NewString()
		}
		out[i] = tc
	}
	return out
}

func gatewayKind(err *schema.GatewayError) string {
	switch {
	case errors.Is(err, schema.ErrGatewayTimeout):
		return "timeout"
	case errors.Is(err, schema.ErrGatewayAuth):
		return "auth"
	case errors.Is(err, schema.ErrGatewayQuota):
		return "quota"
	default:
		return "unavailable"
	}
}

func gatewayMessage(err error) string {
	switch {
	case errors.Is(err, schema.ErrGatewayAuth):
		return "The model provider rejected the API key. Check the key in your settings and try again."
	case errors.Is(err, schema.ErrGatewayQuota):
		return "The model provider's rate limit or quota was reached. Wait a minute and try again."
	case errors.Is(err, schema.ErrGatewayTimeout):
		return "The model provider did not respond in time. Please try again in a moment."
	default:
		return "The model provider is unavailable right now. Please try again later."
	}
}

func capMessage(limit int, ran []string) string {
	msg := fmt.Sprintf("I reached the limit of %d reasoning steps before finishing.", limit)
	if len(ran) > 0 {
		msg += " Tools already run: " + strings.Join(ran, ", ") + "."
	}
	return msg + " Try a narrower question."
}
