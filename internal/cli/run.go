package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmoult/scenetest/internal/config"
	"github.com/mmoult/scenetest/internal/discover"
	"github.com/mmoult/scenetest/internal/harness"
	"github.com/mmoult/scenetest/internal/history"
	"github.com/mmoult/scenetest/internal/locate"
)

var (
	runRegen     bool
	runVerbose   bool
	runRoot      string
	runBin       string
	runTimeout   time.Duration
	runOutput    string
	runConfig    string
	runNoHistory bool
)

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&runRegen, "regen", "r", false, "Regenerate golden files from fresh compiler output")
	f.BoolVarP(&runVerbose, "verbose", "v", false, "Print full command lines and per-case pass lines")
	f.StringVar(&runRoot, "root", ".", "Compiler repository root")
	f.StringVar(&runBin, "bin", "", "Explicit compiler binary path (bypasses the release/debug lookup)")
	f.DurationVar(&runTimeout, "timeout", 0, "Per-execution timeout (default from config)")
	f.StringVarP(&runOutput, "output", "o", "text", "Report format (text|json)")
	f.StringVarP(&runConfig, "config", "c", "", "Config file path (default <root>/scenetest.yaml)")
	f.BoolVar(&runNoHistory, "no-history", false, "Skip recording this run in the history database")
}

// suiteOptions collects everything one suite run needs, so the watch
// command can re-run with the same settings.
type suiteOptions struct {
	root      string
	bin       string
	config    string
	output    string
	regen     bool
	verbose   bool
	noHistory bool
	timeout   time.Duration
}

func (o suiteOptions) configPath() string {
	if o.config != "" {
		return o.config
	}
	return filepath.Join(o.root, config.DefaultFileName)
}

func runSuite(cmd *cobra.Command, args []string) error {
	opts := suiteOptions{
		root:      runRoot,
		bin:       runBin,
		config:    runConfig,
		output:    runOutput,
		regen:     runRegen,
		verbose:   runVerbose,
		noHistory: runNoHistory,
		timeout:   runTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	summary, err := executeSuite(ctx, opts)
	if err != nil {
		var nf *locate.NotFoundError
		if errors.As(err, &nf) {
			fmt.Fprintln(os.Stderr, nf.Error())
			fmt.Fprintf(os.Stderr, "looked for: %s\n", nf.Release)
			fmt.Fprintf(os.Stderr, "        and %s\n", nf.Debug)
			os.Exit(1)
		}
		return err
	}

	if summary.Total == 0 {
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(summary.ExitCode())
	}
	return nil
}

// executeSuite performs one full locate-discover-run-report pass and
// returns the aggregated summary. All human output happens here; exit
// status mapping is left to the caller.
func executeSuite(ctx context.Context, opts suiteOptions) (*harness.Summary, error) {
	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return nil, err
	}

	bin := opts.bin
	if bin == "" {
		bin, err = locate.Binary(filepath.Join(opts.root, cfg.BuildDir), cfg.BinName)
		if err != nil {
			return nil, err
		}
	}

	verbose := opts.verbose || cfg.Verbose
	jsonOut := opts.output == "json"
	if verbose && !jsonOut {
		fmt.Printf("found %s at: %s\n", cfg.BinName, bin)
	}

	examples := filepath.Join(opts.root, cfg.ExamplesDir)
	cases, err := discover.Discover(examples)
	if err != nil {
		return nil, err
	}

	timeout := opts.timeout
	if timeout == 0 {
		timeout = cfg.Timeout()
	}

	runner := &harness.Runner{
		Bin:     bin,
		Timeout: timeout,
		Regen:   opts.regen,
	}

	var printer *harness.Printer
	if !jsonOut {
		printer = &harness.Printer{
			Out:          os.Stdout,
			Verbose:      verbose,
			Color:        term.IsTerminal(int(os.Stdout.Fd())),
			ExamplesRoot: examples,
		}
		runner.OnResult = printer.Execution
	}

	started := time.Now()
	summary, err := runner.RunAll(ctx, cases)
	if err != nil {
		return nil, err
	}
	finished := time.Now()

	if summary.Total == 0 {
		fmt.Printf("no tests found under %s\n", examples)
		return summary, nil
	}

	if jsonOut {
		out, err := harness.FormatJSON(summary)
		if err != nil {
			return nil, err
		}
		fmt.Println(out)
	} else {
		printer.Summary(summary)
	}

	if !opts.noHistory {
		recordHistory(opts.root, started, finished, summary)
	}

	return summary, nil
}

// recordHistory stores the run in the local history database. History
// is best-effort; a broken database must not fail the suite.
func recordHistory(root string, started, finished time.Time, summary *harness.Summary) {
	store, err := history.Open(filepath.Join(root, history.DefaultPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		return
	}
	defer func() { _ = store.Close() }()

	if _, err := store.Record(started, finished, summary); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run: %v\n", err)
	}
}
