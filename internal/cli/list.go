package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmoult/scenetest/internal/config"
	"github.com/mmoult/scenetest/internal/discover"
)

var (
	listRoot   string
	listConfig string
	listOutput string
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listRoot, "root", ".", "Compiler repository root")
	listCmd.Flags().StringVarP(&listConfig, "config", "c", "", "Config file path (default <root>/scenetest.yaml)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "Output format (text|json)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the discovered test cases without running them",
	Long: "Walks the example tree and prints each qualifying directory with its\n" +
		"scene file, recorded output formats, and extra arguments. Nothing is\n" +
		"executed; this exercises the discovery stage alone.",
	RunE:         runList,
	SilenceUsage: true,
}

func runList(cmd *cobra.Command, args []string) error {
	cfgPath := listConfig
	if cfgPath == "" {
		cfgPath = filepath.Join(listRoot, config.DefaultFileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	cases, err := discover.Discover(filepath.Join(listRoot, cfg.ExamplesDir))
	if err != nil {
		return err
	}

	if listOutput == "json" {
		out, err := json.MarshalIndent(cases, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	executions := 0
	for _, c := range cases {
		executions += c.Executions()
		fmt.Println(formatCase(&c))
	}
	fmt.Printf("%d case(s), %d execution(s)\n", len(cases), executions)
	return nil
}

func formatCase(c *discover.Case) string {
	var formats []string
	for f := range c.Goldens {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)

	line := fmt.Sprintf("%s: %s [%s]", c.Dir, filepath.Base(c.Scene), strings.Join(formats, " "))
	if len(c.ExtraArgs) > 0 {
		line += fmt.Sprintf(" (args: %s)", strings.Join(c.ExtraArgs, " "))
	}
	return line
}
