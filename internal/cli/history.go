package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmoult/scenetest/internal/history"
)

var (
	historyRoot    string
	historyLimit   int
	historyOutput  string
	historyVerbose bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyRoot, "root", ".", "Compiler repository root")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "text", "Output format (text|json)")
	historyCmd.Flags().BoolVarP(&historyVerbose, "verbose", "v", false, "Also list the failures of each failed run")
}

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "Show recent suite runs from the history database",
	RunE:         runHistory,
	SilenceUsage: true,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(filepath.Join(historyRoot, history.DefaultPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}

	if historyOutput == "json" {
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, r := range runs {
		status := "PASS"
		if r.Failed > 0 {
			status = "FAIL"
		}
		mode := ""
		if r.Regen {
			mode = " (regen)"
		}
		fmt.Printf("%s  %s  %s: %d/%d%s\n",
			r.ID, r.StartedAt.Local().Format(time.RFC3339), status, r.Passed, r.Total, mode)

		if historyVerbose && r.Failed > 0 {
			failures, err := store.Failures(r.ID)
			if err != nil {
				return err
			}
			for _, f := range failures {
				fmt.Printf("    X %s [%s]: %s\n", f.Dir, f.Format, f.Reason)
			}
		}
	}
	return nil
}
