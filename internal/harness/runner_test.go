package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mmoult/scenetest/internal/discover"
)

// fakeCompiler writes a shell script standing in for the scene-builder
// binary and returns its path.
func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "scene-builder")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// oneCase builds a single-directory case with an obj golden holding the
// given bytes.
func oneCase(t *testing.T, golden string) discover.Case {
	t.Helper()
	dir := t.TempDir()
	scene := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(scene, []byte("shapes: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	goldenPath := filepath.Join(dir, "out.mesh.obj")
	if err := os.WriteFile(goldenPath, []byte(golden), 0644); err != nil {
		t.Fatal(err)
	}
	return discover.Case{
		Dir:     filepath.Base(dir),
		Scene:   scene,
		Goldens: map[discover.Format]string{discover.FormatObj: goldenPath},
	}
}

func TestPassingCase(t *testing.T) {
	bin := fakeCompiler(t, `printf 'v 0 0 0\n'`)
	c := oneCase(t, "v 0 0 0\n")

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 1 || s.Passed != 1 || s.Failed != 0 {
		t.Errorf("expected 1/1 passed, got total=%d passed=%d failed=%d", s.Total, s.Passed, s.Failed)
	}
	if s.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", s.ExitCode())
	}
}

func TestOutputMismatch(t *testing.T) {
	bin := fakeCompiler(t, `printf 'v 0 0 1\n'`)
	c := oneCase(t, "v 0 0 0\n")

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", s.Failed)
	}
	if got := s.Executions[0].Reason; got != ReasonMismatch {
		t.Errorf("expected reason %q, got %q", ReasonMismatch, got)
	}
	if s.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", s.ExitCode())
	}
}

func TestNonZeroExitBeatsMatchingOutput(t *testing.T) {
	// Stdout matches the golden exactly, but the exit code is non-zero:
	// the run must still fail, with the exit reason.
	bin := fakeCompiler(t, "printf 'v 0 0 0\\n'\nexit 3")
	c := oneCase(t, "v 0 0 0\n")

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	e := s.Executions[0]
	if e.Passed {
		t.Fatal("expected failure")
	}
	if e.Reason != ReasonExit {
		t.Errorf("expected reason %q, got %q", ReasonExit, e.Reason)
	}
	if e.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", e.ExitCode)
	}
}

func TestFormatsRunIndependently(t *testing.T) {
	// obj output matches, bvh output does not; both must execute and be
	// counted separately.
	bin := fakeCompiler(t, `case "$2" in
obj) printf 'v 0 0 0\n' ;;
bvh) printf 'wrong\n' ;;
esac`)

	dir := t.TempDir()
	scene := filepath.Join(dir, "scene.yaml")
	objGolden := filepath.Join(dir, "out.mesh.obj")
	bvhGolden := filepath.Join(dir, "out.bvh.json")
	for path, content := range map[string]string{
		scene:     "shapes: []\n",
		objGolden: "v 0 0 0\n",
		bvhGolden: "{\"nodes\": []}\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	c := discover.Case{
		Dir:   "dual",
		Scene: scene,
		Goldens: map[discover.Format]string{
			discover.FormatObj: objGolden,
			discover.FormatBVH: bvhGolden,
		},
	}

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 2 || s.Passed != 1 || s.Failed != 1 {
		t.Errorf("expected total=2 passed=1 failed=1, got total=%d passed=%d failed=%d",
			s.Total, s.Passed, s.Failed)
	}
}

func TestExtraArgsPrecedeScene(t *testing.T) {
	bin := fakeCompiler(t, `echo "$@"`)
	c := oneCase(t, "")
	c.ExtraArgs = []string{"--flag", "value"}

	// The fake compiler echoes its argv; record it as the golden.
	want := "-f obj --flag value " + c.Scene + "\n"
	if err := os.WriteFile(c.Goldens[discover.FormatObj], []byte(want), 0644); err != nil {
		t.Fatal(err)
	}

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 0 {
		t.Fatalf("expected pass, got failure: %+v", s.Executions[0])
	}

	wantCmd := []string{bin, "-f", "obj", "--flag", "value", c.Scene}
	if diff := cmp.Diff(wantCmd, s.Executions[0].Command); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeoutFailsExecution(t *testing.T) {
	bin := fakeCompiler(t, "sleep 10")
	c := oneCase(t, "")

	r := &Runner{Bin: bin, Timeout: 100 * time.Millisecond}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", s.Failed)
	}
	if got := s.Executions[0].Reason; got != ReasonTimeout {
		t.Errorf("expected reason %q, got %q", ReasonTimeout, got)
	}
}

func TestRegenOverwritesGolden(t *testing.T) {
	bin := fakeCompiler(t, `printf 'v 1 2 3\n'`)
	c := oneCase(t, "stale\n")
	golden := c.Goldens[discover.FormatObj]

	r := &Runner{Bin: bin, Regen: true}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 0 {
		t.Fatalf("expected regen pass, got %+v", s.Executions[0])
	}
	if !s.Executions[0].Regenerated {
		t.Error("expected execution marked regenerated")
	}

	data, err := os.ReadFile(golden)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v 1 2 3\n" {
		t.Errorf("expected regenerated golden, got %q", data)
	}

	// Re-running without regen on the fresh golden must pass.
	r2 := &Runner{Bin: bin}
	s2, err := r2.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s2.Failed != 0 {
		t.Errorf("expected all-pass after regen, got %d failures", s2.Failed)
	}
}

func TestRegenSkippedOnNonZeroExit(t *testing.T) {
	bin := fakeCompiler(t, "printf 'junk\\n'\nexit 1")
	c := oneCase(t, "good\n")
	golden := c.Goldens[discover.FormatObj]

	r := &Runner{Bin: bin, Regen: true}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 1 {
		t.Fatalf("expected failure, got %d", s.Failed)
	}

	data, err := os.ReadFile(golden)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "good\n" {
		t.Errorf("golden must be untouched after failed regen, got %q", data)
	}
}

func TestUnreadableGoldenIsPerCaseFailure(t *testing.T) {
	bin := fakeCompiler(t, `printf 'v 0 0 0\n'`)
	c := oneCase(t, "")
	if err := os.Remove(c.Goldens[discover.FormatObj]); err != nil {
		t.Fatal(err)
	}
	// A directory at the golden path makes the read fail without
	// aborting the run.
	if err := os.Mkdir(c.Goldens[discover.FormatObj], 0755); err != nil {
		t.Fatal(err)
	}

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", s.Failed)
	}
	if !strings.HasPrefix(s.Executions[0].Reason, "read golden:") {
		t.Errorf("expected read golden reason, got %q", s.Executions[0].Reason)
	}
}

func TestStderrRetained(t *testing.T) {
	bin := fakeCompiler(t, "echo 'parse error' >&2\nexit 2")
	c := oneCase(t, "")

	r := &Runner{Bin: bin}
	s, err := r.RunAll(context.Background(), []discover.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Executions[0].Stderr; !strings.Contains(got, "parse error") {
		t.Errorf("expected stderr retained, got %q", got)
	}
}

func TestOnResultStreaming(t *testing.T) {
	bin := fakeCompiler(t, `printf 'v 0 0 0\n'`)
	cases := []discover.Case{oneCase(t, "v 0 0 0\n"), oneCase(t, "other\n")}

	var seen []bool
	r := &Runner{Bin: bin, OnResult: func(e Execution) { seen = append(seen, e.Passed) }}
	if _, err := r.RunAll(context.Background(), cases); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]bool{true, false}, seen); diff != "" {
		t.Errorf("callback order mismatch (-want +got):\n%s", diff)
	}
}

func TestDeterministicRerun(t *testing.T) {
	bin := fakeCompiler(t, `printf 'v 0 0 0\n'`)
	cases := []discover.Case{oneCase(t, "v 0 0 0\n"), oneCase(t, "other\n")}

	r := &Runner{Bin: bin}
	first, err := r.RunAll(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.RunAll(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}
	if first.Total != second.Total || first.Failed != second.Failed {
		t.Errorf("reruns disagree: %d/%d vs %d/%d",
			first.Passed, first.Total, second.Passed, second.Total)
	}
}
