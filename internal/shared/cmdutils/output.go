package cmdutils

import (
	"fmt"
	"io"
	"strings"
)

// Logo prefixes every line the CLI prints on behalf of the advisor.
const Logo = "🌿"

// PrintResponse writes the advisor reply, the tools it ran and any warning.
func PrintResponse(w io.Writer, text string, tools []string, warning string) {
	if text == "" {
		return
	}
	fmt.Fprintf(w, "\n%s crowagent\n%s\n", Logo, text)
	if len(tools) > 0 {
		fmt.Fprintf(w, "  ↳ tools: %s\n", strings.Join(tools, ", "))
	}
	if warning != "" {
		fmt.Fprintf(w, "  ⚠ %s\n", warning)
	}
	fmt.Fprintln(w)
}

// Mark renders a boolean as a check or a cross.
func Mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// FormatPayback renders a payback period, or "never" when there is none.
func FormatPayback(years *float64) string {
	if years == nil {
		return "never"
	}
	return fmt.Sprintf("%.1f", *years)
}
