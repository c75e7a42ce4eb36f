// Package harness executes discovered test cases against the compiler
// binary and aggregates pass/fail outcomes.
package harness

// Failure reasons attached to executions.
const (
	ReasonExit     = "non-zero exit"
	ReasonMismatch = "output differs"
	ReasonTimeout  = "timed out"
)

// Execution is the recorded outcome of one compiler invocation: one
// (case, format) pair. Stdout is held only long enough to compare or
// regenerate and is not retained here; stderr is kept for diagnostics.
type Execution struct {
	Dir         string   `json:"dir"`
	Format      string   `json:"format"`
	Command     []string `json:"command"`
	Golden      string   `json:"golden"`
	Passed      bool     `json:"passed"`
	Reason      string   `json:"reason,omitempty"`
	ExitCode    int      `json:"exit_code"`
	Stderr      string   `json:"stderr,omitempty"`
	Regenerated bool     `json:"regenerated,omitempty"`
}

// Summary aggregates a whole run.
type Summary struct {
	Binary     string      `json:"binary"`
	Regen      bool        `json:"regen,omitempty"`
	Total      int         `json:"total"`
	Passed     int         `json:"passed"`
	Failed     int         `json:"failed"`
	Executions []Execution `json:"executions"`
}

// record folds one execution into the counters.
func (s *Summary) record(e Execution) {
	s.Total++
	if e.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
	s.Executions = append(s.Executions, e)
}

// ExitCode maps a summary to the harness process exit status: the
// number of failed executions, so zero means success and the exit code
// doubles as the fail tally.
func (s *Summary) ExitCode() int {
	return s.Failed
}
