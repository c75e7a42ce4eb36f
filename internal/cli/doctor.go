package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmoult/scenetest/internal/config"
	"github.com/mmoult/scenetest/internal/discover"
	"github.com/mmoult/scenetest/internal/locate"
)

var (
	doctorRoot   string
	doctorConfig string
)

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVar(&doctorRoot, "root", ".", "Compiler repository root")
	doctorCmd.Flags().StringVarP(&doctorConfig, "config", "c", "", "Config file path (default <root>/scenetest.yaml)")
}

var doctorCmd = &cobra.Command{
	Use:          "doctor",
	Short:        "Check harness readiness and diagnose setup issues",
	RunE:         runDoctor,
	SilenceUsage: true,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Config file.
	cfgPath := doctorConfig
	if cfgPath == "" {
		cfgPath = filepath.Join(doctorRoot, config.DefaultFileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		checks = append(checks, checkResult{
			label:  "config",
			ok:     false,
			detail: err.Error(),
			fix:    "fix or remove " + cfgPath,
		})
		cfg = config.Default()
	} else if _, statErr := os.Stat(cfgPath); statErr == nil {
		checks = append(checks, checkResult{label: "config", ok: true, detail: cfgPath})
	} else {
		checks = append(checks, checkResult{label: "config", ok: true, detail: "built-in defaults"})
	}

	// 2. Compiler binary.
	bin, err := locate.Binary(filepath.Join(doctorRoot, cfg.BuildDir), cfg.BinName)
	if err != nil {
		checks = append(checks, checkResult{
			label:  "compiler binary",
			ok:     false,
			detail: "not found under " + filepath.Join(doctorRoot, cfg.BuildDir),
			fix:    "build the compiler (release or debug)",
		})
	} else {
		checks = append(checks, checkResult{label: "compiler binary", ok: true, detail: bin})
	}

	// 3. Example tree.
	examples := filepath.Join(doctorRoot, cfg.ExamplesDir)
	if info, statErr := os.Stat(examples); statErr != nil || !info.IsDir() {
		checks = append(checks, checkResult{
			label:  "example tree",
			ok:     false,
			detail: examples + " missing",
		})
	} else if cases, discErr := discover.Discover(examples); discErr != nil {
		checks = append(checks, checkResult{
			label:  "example tree",
			ok:     false,
			detail: discErr.Error(),
		})
	} else {
		executions := 0
		for _, c := range cases {
			executions += c.Executions()
		}
		detail := fmt.Sprintf("%d case(s), %d execution(s)", len(cases), executions)
		checks = append(checks, checkResult{
			label:  "example tree",
			ok:     executions > 0,
			detail: detail,
			fix:    "record golden files with scenetest --regen",
		})
	}

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "✓" // ✓
		if !c.ok {
			mark = "✗" // ✗
			hasFailures = true
		}
		fmt.Printf("%s %-16s %s\n", mark, c.label, c.detail)
		if !c.ok && c.fix != "" {
			fmt.Printf("  fix: %s\n", c.fix)
		}
	}

	if hasFailures {
		os.Exit(1)
	}
	return nil
}
