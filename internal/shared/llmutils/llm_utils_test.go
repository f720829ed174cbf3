package llmutils

import (
	"testing"

	"github.com/crowagent/crowagent/internal/schema"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 3); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
}

func TestStripThink(t *testing.T) {
	in := "<think>\nplan\n</think>Answer"
	if got := StripThink(in); got != "Answer" {
		t.Errorf("StripThink = %q", got)
	}
}

func TestToolHint(t *testing.T) {
	calls := []schema.ToolCall{
		{Name: "run_scenario", Arguments: map[string]any{"scenario": "pv_small", "building": "Library"}},
		{Name: "compare_all_buildings"},
	}
	want := `run_scenario("Library"), compare_all_buildings`
	if got := ToolHint(calls); got != want {
		t.Errorf("ToolHint = %q, want %q", got, want)
	}
}

func TestUniqueNames(t *testing.T) {
	got := UniqueNames([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("UniqueNames = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UniqueNames = %v, want %v", got, want)
		}
	}
}
