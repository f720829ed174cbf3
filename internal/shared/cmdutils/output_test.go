package cmdutils

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	PrintResponse(&buf, "Deep retrofit.", []string{"run_scenario", "rank_all_scenarios"}, "")
	out := buf.String()
	if !strings.Contains(out, "Deep retrofit.") {
		t.Errorf("missing text in %q", out)
	}
	if !strings.Contains(out, "tools: run_scenario, rank_all_scenarios") {
		t.Errorf("missing tool trail in %q", out)
	}
	if strings.Contains(out, "⚠") {
		t.Errorf("unexpected warning in %q", out)
	}
}

func TestPrintResponse_EmptyTextPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	PrintResponse(&buf, "", []string{"run_scenario"}, "warn")
	if buf.Len() != 0 {
		t.Errorf("got %q", buf.String())
	}
}

func TestPrintResponse_Warning(t *testing.T) {
	var buf bytes.Buffer
	PrintResponse(&buf, "Stopped.", nil, "tool iteration cap reached")
	if !strings.Contains(buf.String(), "⚠ tool iteration cap reached") {
		t.Errorf("got %q", buf.String())
	}
}

func TestFormatPayback(t *testing.T) {
	if got := FormatPayback(nil); got != "never" {
		t.Errorf("nil = %q", got)
	}
	v := 12.345
	if got := FormatPayback(&v); got != "12.3" {
		t.Errorf("12.345 = %q", got)
	}
	if Mark(true) != "✓" || Mark(false) != "✗" {
		t.Error("Mark")
	}
}
