package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crowagent/crowagent/internal/cache"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
	"github.com/crowagent/crowagent/internal/providers"
	"github.com/crowagent/crowagent/internal/schema"
	"github.com/crowagent/crowagent/internal/tools"
)

const testCredential = "sk-test"

func universitySegment(t *testing.T) catalog.Segment {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	seg, err := cat.Segment(catalog.SegmentUniversityHE)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	return seg
}

func testSettings() schema.AgentSettings {
	return schema.NewAgentSettings("scripted", 10, 0.2, 512, time.Second)
}

func toolStep(id, name string, args map[string]any) providers.ScriptStep {
	return providers.ScriptStep{Response: schema.LLMResponse{
		ToolCalls:    []schema.ToolCall{{ID: id, Name: name, Arguments: args}},
		FinishReason: "tool_calls",
	}}
}

func textStep(text string) providers.ScriptStep {
	return providers.ScriptStep{Response: schema.LLMResponse{Content: text, FinishReason: "stop"}}
}

func runScenarioArgs(building string) map[string]any {
	return map[string]any{"building_name": building, "scenario_name": catalog.ScenarioFabricDeep}
}

func newTestOrchestrator(p schema.LLMProvider, opts ...Option) *Orchestrator {
	rc := cache.New(physics.NewEngine(physics.DefaultConstants()), 64, nil)
	return New(p, rc, testSettings(), opts...)
}

func TestRunTurnDone(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewScriptedProvider(
		toolStep("call-1", string(tools.ToolRunScenario), runScenarioArgs("Greenfield Library")),
		textStep("<think>check</think>Deep fabric saves the most. "+Disclaimer),
	)
	o := newTestOrchestrator(p)

	history := schema.NewMessages(schema.NewUserMessage("hi"), schema.NewAssistantMessage("hello", nil))
	reply, out := o.RunTurn(context.Background(), "What should the library do?", history, testCredential, seg.Buildings, seg.Scenarios)

	if reply.State != Done || reply.Err != nil {
		t.Fatalf("reply = %+v, want Done without error", reply)
	}
	if strings.Contains(reply.Text, "<think>") || !strings.HasPrefix(reply.Text, "Deep fabric") {
		t.Errorf("Text = %q", reply.Text)
	}
	if reply.Cycles != 2 || len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Kind != "" {
		t.Errorf("Cycles = %d, ToolCalls = %+v", reply.Cycles, reply.ToolCalls)
	}
	if history.Len() != 2 {
		t.Errorf("input history modified: len %d", history.Len())
	}
	// user, assistant(tool call), tool result, assistant(text)
	if out.Len() != 6 {
		t.Fatalf("history len = %d, want 6", out.Len())
	}
	for _, m := range out.Messages {
		if m.Role == schema.RoleSystem {
			t.Error("system instruction stored in history")
		}
	}
	toolMsg := out.Messages[4]
	if toolMsg.Role != schema.RoleTool || toolMsg.ToolCallID != "call-1" || !strings.Contains(toolMsg.Content, "carbon_saving_tco2") {
		t.Errorf("tool message = %+v", toolMsg)
	}

	reqs := p.Requests()
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	first := reqs[0].Messages[0]
	if first.Role != schema.RoleSystem || !strings.Contains(first.Content, "Greenfield Science Block") {
		t.Errorf("first request message = %+v", first)
	}
}

func TestRunTurnIterationCap(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewRepeatingProvider(toolStep("", string(tools.ToolRunScenario), runScenarioArgs("Greenfield Library")))
	o := newTestOrchestrator(p)

	reply, out := o.RunTurn(context.Background(), "loop forever", schema.Messages{}, testCredential, seg.Buildings, seg.Scenarios)

	if p.Calls() != 10 {
		t.Fatalf("gateway calls = %d, want exactly 10", p.Calls())
	}
	if reply.State != Aborted || !errors.Is(reply.Err, ErrIterationCap) {
		t.Fatalf("reply = %+v, want Aborted with ErrIterationCap", reply)
	}
	if reply.Cycles != 10 || len(reply.ToolCalls) != 10 {
		t.Errorf("Cycles = %d, ToolCalls = %d", reply.Cycles, len(reply.ToolCalls))
	}
	if !strings.Contains(reply.Text, string(tools.ToolRunScenario)) {
		t.Errorf("degraded reply %q does not name the tools run", reply.Text)
	}
	// user + 10 × (assistant, tool)
	if out.Len() != 21 {
		t.Errorf("history len = %d, want 21", out.Len())
	}
}

func TestRunTurnUnknownBuilding(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewScriptedProvider(
		toolStep("call-1", string(tools.ToolRunScenario), runScenarioArgs("Atlantis Hall")),
		textStep("That building is not in your portfolio."),
	)
	o := newTestOrchestrator(p)

	reply, out := o.RunTurn(context.Background(), "Atlantis?", schema.Messages{}, testCredential, seg.Buildings, seg.Scenarios)

	if reply.State != Done {
		t.Fatalf("State = %v, want done", reply.State)
	}
	if got := reply.ToolCalls[0].Kind; got != tools.KindUnknownEntity {
		t.Errorf("Kind = %q, want %q", got, tools.KindUnknownEntity)
	}
	var unknown *catalog.UnknownEntityError
	if !errors.As(reply.ToolCalls[0].Err, &unknown) || unknown.Key != "Atlantis Hall" {
		t.Errorf("Err = %v", reply.ToolCalls[0].Err)
	}
	toolMsg := out.Messages[2]
	if !strings.Contains(toolMsg.Content, `"kind":"unknown_entity"`) {
		t.Errorf("tool payload = %s", toolMsg.Content)
	}
}

func TestRunTurnGatewayErrors(t *testing.T) {
	seg := universitySegment(t)
	cases := []struct {
		status int
		kind   error
	}{
		{401, schema.ErrGatewayAuth},
		{429, schema.ErrGatewayQuota},
		{504, schema.ErrGatewayTimeout},
		{500, schema.ErrGatewayUnavailable},
	}
	for _, tc := range cases {
		p := providers.NewScriptedProvider(providers.ScriptStep{
			Err: schema.NewGatewayError("scripted", tc.status, errors.New("upstream")),
		})
		o := newTestOrchestrator(p)
		reply, out := o.RunTurn(context.Background(), "hello", schema.Messages{}, testCredential, seg.Buildings, seg.Scenarios)

		if reply.State != Aborted || !errors.Is(reply.Err, tc.kind) {
			t.Errorf("status %d: reply = %+v, want Aborted wrapping %v", tc.status, reply, tc.kind)
		}
		if reply.Text == "" || strings.Contains(reply.Text, "upstream") {
			t.Errorf("status %d: Text = %q", tc.status, reply.Text)
		}
		last, ok := out.Last()
		if !ok || last.Role != schema.RoleUser || last.Content != "hello" {
			t.Errorf("status %d: history should end with the user message, got %+v", tc.status, last)
		}
	}
}

func TestRunTurnPlainErrorIsUnavailable(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewScriptedProvider(providers.ScriptStep{Err: errors.New("connection reset")})
	reply, _ := newTestOrchestrator(p).RunTurn(context.Background(), "hi", schema.Messages{}, "", seg.Buildings, seg.Scenarios)
	if !errors.Is(reply.Err, schema.ErrGatewayUnavailable) {
		t.Errorf("Err = %v, want unavailable", reply.Err)
	}
}

func TestRunTurnEmptyResponse(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewScriptedProvider(textStep("  "))
	reply, out := newTestOrchestrator(p).RunTurn(context.Background(), "hi", schema.Messages{}, testCredential, seg.Buildings, seg.Scenarios)

	if reply.State != Aborted || !errors.Is(reply.Err, ErrEmptyResponse) {
		t.Fatalf("reply = %+v, want Aborted with ErrEmptyResponse", reply)
	}
	if out.Len() != 1 {
		t.Errorf("history len = %d, want 1", out.Len())
	}
}

func TestRunTurnPassesCredential(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewScriptedProvider(
		toolStep("a", string(tools.ToolGetBuildingInfo), map[string]any{"building_name": "Greenfield Library"}),
		textStep("done"),
	)
	newTestOrchestrator(p).RunTurn(context.Background(), "info", schema.Messages{}, testCredential, seg.Buildings, seg.Scenarios)

	creds := p.Credentials()
	if len(creds) != 2 {
		t.Fatalf("credentials = %v", creds)
	}
	for _, c := range creds {
		if c != testCredential {
			t.Errorf("credential = %q, want %q", c, testCredential)
		}
	}
}

func TestRunTurnAssignsMissingToolCallIDs(t *testing.T) {
	seg := universitySegment(t)
	p := providers.NewScriptedProvider(
		toolStep("", string(tools.ToolGetBuildingInfo), map[string]any{"building_name": "Greenfield Library"}),
		textStep("done"),
	)
	_, out := newTestOrchestrator(p).RunTurn(context.Background(), "info", schema.Messages{}, "", seg.Buildings, seg.Scenarios)

	assistant, toolMsg := out.Messages[1], out.Messages[2]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID == "" {
		t.Fatalf("assistant tool calls = %+v", assistant.ToolCalls)
	}
	if toolMsg.ToolCallID != assistant.ToolCalls[0].ID {
		t.Errorf("tool result id %q does not match call id %q", toolMsg.ToolCallID, assistant.ToolCalls[0].ID)
	}
}

// blockingProvider waits for the request context to end.
type blockingProvider struct{}

func (blockingProvider) Name() string         { return "blocking" }
func (blockingProvider) DefaultModel() string { return "blocking" }
func (blockingProvider) Chat(ctx context.Context, _ string, _ schema.Messages, _ []schema.ToolDefinition, _ schema.ChatOptions) (schema.LLMResponse, error) {
	<-ctx.Done()
	return schema.LLMResponse{}, ctx.Err()
}

func TestRunTurnCallTimeout(t *testing.T) {
	seg := universitySegment(t)
	settings := testSettings()
	settings.CallTimeout = 20 * time.Millisecond
	o := New(blockingProvider{}, nil, settings)

	reply, _ := o.RunTurn(context.Background(), "hi", schema.Messages{}, "", seg.Buildings, seg.Scenarios)
	if !errors.Is(reply.Err, schema.ErrGatewayTimeout) {
		t.Errorf("Err = %v, want timeout", reply.Err)
	}
	if reply.Cycles != 1 {
		t.Errorf("Cycles = %d, want 1", reply.Cycles)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	tools    []string
	failed   int
	turns    []string
	gateways []string
}

func (r *recordingObserver) ToolCalled(name string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = append(r.tools, name)
	if failed {
		r.failed++
	}
}

func (r *recordingObserver) TurnFinished(state string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, state)
}

func (r *recordingObserver) GatewayFailed(_ string, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways = append(r.gateways, kind)
}

func TestRunTurnObserver(t *testing.T) {
	seg := universitySegment(t)
	obs := &recordingObserver{}
	p := providers.NewScriptedProvider(
		providers.ScriptStep{Response: schema.LLMResponse{ToolCalls: []schema.ToolCall{
			{ID: "1", Name: string(tools.ToolGetBuildingInfo), Arguments: map[string]any{"building_name": "Greenfield Library"}},
			{ID: "2", Name: "no_such_tool"},
		}}},
		providers.ScriptStep{Err: schema.NewGatewayError("scripted", 403, errors.New("denied"))},
	)
	newTestOrchestrator(p, WithObserver(obs)).RunTurn(context.Background(), "hi", schema.Messages{}, "", seg.Buildings, seg.Scenarios)

	if len(obs.tools) != 2 || obs.failed != 1 {
		t.Errorf("tools = %v, failed = %d", obs.tools, obs.failed)
	}
	if len(obs.turns) != 1 || obs.turns[0] != "aborted" {
		t.Errorf("turns = %v", obs.turns)
	}
	if len(obs.gateways) != 1 || obs.gateways[0] != "auth" {
		t.Errorf("gateways = %v", obs.gateways)
	}
}

func TestBuildSystemPromptListsCatalogue(t *testing.T) {
	seg := universitySegment(t)
	prompt := NewContextBuilder(seg.Buildings, seg.Scenarios, tools.DefaultDefaults(), physics.DefaultConstants()).BuildSystemPrompt()
	for _, want := range []string{"Greenfield Library", catalog.ScenarioPVLarge, "0.20482", "10.5 °C", "£0.28/kWh", Disclaimer} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, catalog.ScenarioPVSmall) {
		t.Errorf("system prompt lists a scenario outside the segment")
	}
}

func TestStarterQuestionsFor(t *testing.T) {
	for _, id := range catalog.SegmentIDs {
		if len(StarterQuestionsFor(id)) == 0 {
			t.Errorf("no starter questions for %s", id)
		}
	}
	got := StarterQuestionsFor("unknown")
	got[0] = "mutated"
	if StarterQuestions[catalog.SegmentUniversityHE][0] == "mutated" {
		t.Error("StarterQuestionsFor returned shared slice")
	}
}

func TestStateTransitions(t *testing.T) {
	if !canTransition(Idle, AwaitingModelResponse) || canTransition(Idle, Done) {
		t.Error("Idle transitions wrong")
	}
	if !canTransition(DispatchingTool, Aborted) || canTransition(Done, AwaitingModelResponse) {
		t.Error("terminal transitions wrong")
	}
	if !Done.Terminal() || AwaitingModelResponse.Terminal() {
		t.Error("Terminal wrong")
	}
	if Aborted.String() != "aborted" {
		t.Errorf("String = %q", Aborted.String())
	}
}

func TestOrchestratorKeepsZeroDefaultTemperature(t *testing.T) {
	settings := testSettings()
	settings.DefaultTemperatureC = 0
	o := New(providers.NewScriptedProvider(), nil, settings)
	if got := o.defaults().TemperatureC; got != 0 {
		t.Errorf("default temperature = %v, want 0", got)
	}
	if got := newTestOrchestrator(providers.NewScriptedProvider()).defaults().TemperatureC; got != 10.5 {
		t.Errorf("default temperature = %v, want 10.5", got)
	}
}
