package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/mmoult/scenetest/internal/discover"
)

// defaultTimeout bounds each compiler invocation so a hung child
// becomes a failed execution instead of blocking the whole run.
const defaultTimeout = 30 * time.Second

// Runner invokes the compiler binary once per (case, format) pair,
// strictly sequentially, and compares captured stdout against the
// recorded golden bytes.
type Runner struct {
	// Bin is the resolved compiler executable path.
	Bin string
	// Timeout bounds each invocation; zero means defaultTimeout.
	Timeout time.Duration
	// Regen overwrites goldens with fresh output instead of comparing.
	// Regeneration only happens after a zero exit code; a failing
	// compiler run never touches the golden file.
	Regen bool
	// OnResult, when set, is called with each execution as it
	// completes, before the next case starts.
	OnResult func(Execution)
}

// RunAll executes every format of every case in order and returns the
// aggregated summary. Per-case problems (non-zero exit, mismatch,
// timeout, unreadable golden) are recorded as failures and the run
// continues; only ctx cancellation aborts early.
func (r *Runner) RunAll(ctx context.Context, cases []discover.Case) (*Summary, error) {
	summary := &Summary{Binary: r.Bin, Regen: r.Regen}

	for i := range cases {
		for _, format := range discover.Formats {
			golden, ok := cases[i].Goldens[format]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			e := r.runOne(ctx, &cases[i], format, golden)
			summary.record(e)
			if r.OnResult != nil {
				r.OnResult(e)
			}
		}
	}

	return summary, nil
}

// runOne performs a single compiler invocation and comparison.
// The command line is <bin> -f <format> [extra-args...] <scene>.
func (r *Runner) runOne(ctx context.Context, c *discover.Case, format discover.Format, golden string) Execution {
	args := []string{"-f", string(format)}
	args = append(args, c.ExtraArgs...)
	args = append(args, c.Scene)

	e := Execution{
		Dir:     c.Dir,
		Format:  string(format),
		Command: append([]string{r.Bin}, args...),
		Golden:  golden,
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	e.Stderr = stderr.String()

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			e.ExitCode = -1
			e.Reason = ReasonTimeout
			return e
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.ExitCode = 1
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				e.ExitCode = status.ExitStatus()
			}
			e.Reason = ReasonExit
			return e
		}
		// Start failure (binary vanished, permission lost). Recorded as
		// a per-case failure so the rest of the suite still runs.
		e.ExitCode = -1
		e.Reason = err.Error()
		return e
	}

	if r.Regen {
		if err := os.WriteFile(golden, stdout.Bytes(), 0644); err != nil {
			e.Reason = "write golden: " + err.Error()
			return e
		}
		e.Regenerated = true
		e.Passed = true
		return e
	}

	want, err := os.ReadFile(golden)
	if err != nil {
		e.Reason = "read golden: " + err.Error()
		return e
	}
	if !bytes.Equal(stdout.Bytes(), want) {
		e.Reason = ReasonMismatch
		return e
	}

	e.Passed = true
	return e
}
