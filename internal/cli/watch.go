package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmoult/scenetest/internal/config"
	"github.com/mmoult/scenetest/internal/watch"
)

var (
	watchRoot    string
	watchConfig  string
	watchVerbose bool
	watchTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchRoot, "root", ".", "Compiler repository root")
	watchCmd.Flags().StringVarP(&watchConfig, "config", "c", "", "Config file path (default <root>/scenetest.yaml)")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Print full command lines and per-case pass lines")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Per-execution timeout (default from config)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the suite whenever the examples or the binary change",
	Long: "Runs the suite once, then watches the example tree and the build\n" +
		"output directory, re-running on every change until interrupted.\n" +
		"Regeneration is not available in watch mode; goldens stay read-only\n" +
		"so a rebuild loop can never overwrite them.",
	RunE:         runWatch,
	SilenceUsage: true,
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts := suiteOptions{
		root:    watchRoot,
		config:  watchConfig,
		output:  "text",
		verbose: watchVerbose,
		timeout: watchTimeout,
	}

	cfg, err := config.Load(opts.configPath())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	rerun := func() {
		if _, err := executeSuite(ctx, opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Println("watching for changes...")
	}

	rerun()

	w := watch.New(rerun,
		filepath.Join(watchRoot, cfg.ExamplesDir),
		filepath.Join(watchRoot, cfg.BuildDir),
	)
	return w.Run(ctx)
}
