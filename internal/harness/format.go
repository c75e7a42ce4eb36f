package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ANSI colors for terminal output.
const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// Printer emits per-execution status lines as a run progresses.
// In verbose mode every execution gets a glyph plus its full command
// line; otherwise only failures are printed, as the golden file's path
// relative to the examples root.
type Printer struct {
	Out          io.Writer
	Verbose      bool
	Color        bool
	ExamplesRoot string
}

// Execution prints the status line for one completed execution.
func (p *Printer) Execution(e Execution) {
	if p.Verbose {
		line := strings.Join(e.Command, " ")
		if e.Passed {
			fmt.Fprintf(p.Out, "%s %s\n", p.glyph(true), line)
		} else {
			fmt.Fprintf(p.Out, "%s %s (%s)\n", p.glyph(false), line, e.Reason)
		}
		return
	}
	if !e.Passed {
		fmt.Fprintf(p.Out, "%s %s\n", p.glyph(false), p.relGolden(e))
	}
}

// Summary prints the final PASS/FAIL line.
func (p *Printer) Summary(s *Summary) {
	status := "PASS"
	if s.Failed > 0 {
		status = "FAIL"
	}
	if p.Color {
		color := colorGreen
		if s.Failed > 0 {
			color = colorRed
		}
		status = color + status + colorReset
	}
	fmt.Fprintf(p.Out, "%s: %d/%d\n", status, s.Passed, s.Total)
}

func (p *Printer) glyph(passed bool) string {
	glyph := "X"
	if passed {
		glyph = "."
	}
	if !p.Color {
		return glyph
	}
	if passed {
		return colorGreen + glyph + colorReset
	}
	return colorRed + glyph + colorReset
}

func (p *Printer) relGolden(e Execution) string {
	if p.ExamplesRoot == "" {
		return e.Golden
	}
	rel, err := filepath.Rel(p.ExamplesRoot, e.Golden)
	if err != nil {
		return e.Golden
	}
	return rel
}

// FormatJSON renders a run summary as indented JSON.
func FormatJSON(s *Summary) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data), nil
}
