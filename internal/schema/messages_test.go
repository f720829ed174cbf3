package schema

import (
	"encoding/json"
	"testing"
)

func TestMessages_CloneIsIndependent(t *testing.T) {
	var h Messages
	h.AddUser("hello")
	h.AddAssistant("", []ToolCall{{ID: "1", Name: "run_scenario"}})

	c := h.Clone()
	c.AddUser("more")
	c.Messages[1].ToolCalls[0].Name = "changed"

	if h.Len() != 2 {
		t.Errorf("original length changed: %d", h.Len())
	}
	if h.Messages[1].ToolCalls[0].Name != "run_scenario" {
		t.Error("tool call shared between clone and original")
	}
}

func TestMessages_JSONRoundTrip(t *testing.T) {
	var h Messages
	h.AddUser("which building?")
	h.AddAssistant("", []ToolCall{{ID: "c1", Name: "get_building_info", Arguments: map[string]any{"building_name": "Depot"}}})
	h.AddToolResult("c1", "get_building_info", `{"building":"Depot"}`)
	h.AddAssistant("The depot.", nil)

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Messages
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", back.Len())
	}
	if back.Messages[2].Role != RoleTool || back.Messages[2].ToolCallID != "c1" {
		t.Errorf("tool result lost fields: %+v", back.Messages[2])
	}
	if back.Messages[1].ToolCalls[0].Arguments["building_name"] != "Depot" {
		t.Errorf("arguments lost: %+v", back.Messages[1].ToolCalls[0])
	}
	last, _ := back.Last()
	if last.Content != "The depot." {
		t.Errorf("last message: %+v", last)
	}
}

func TestMessages_EmptyMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(Messages{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("got %s, want []", data)
	}
}

func TestToolCall_ArgumentsJSON(t *testing.T) {
	if got := (ToolCall{}).ArgumentsJSON(); got != "{}" {
		t.Errorf("nil arguments: got %s", got)
	}
	got := ToolCall{Arguments: map[string]any{"a": 1}}.ArgumentsJSON()
	if got != `{"a":1}` {
		t.Errorf("got %s", got)
	}
}
