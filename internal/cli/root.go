// Package cli wires the harness commands together under the scenetest
// binary.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scenetest",
	Short: "Golden-file test harness for the scene-builder compiler",
	Long: "Discovers example scenes, runs the scene-builder binary against each\n" +
		"recorded output format, and compares stdout byte-for-byte with the\n" +
		"golden files. The exit code is the number of failed executions;\n" +
		"1 also signals a missing binary or an empty example tree.",
	RunE: runSuite,
	// The run itself reports failures; cobra's usage text is only
	// useful for flag mistakes.
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
