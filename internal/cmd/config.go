package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"collab-scorecard/backend/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect scorecard settings",
	}
	cmd.AddCommand(newConfigCheckCommand())
	return cmd
}

func newConfigCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <settings.yaml>",
		Short: "Validate a settings file",
		Long: `Check parses the settings file, validates the decision thresholds and
compiles every risk rule.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfig(args[0], cmd.OutOrStdout())
		},
	}
}

func checkConfig(path string, out io.Writer) error {
	red := color.New(color.FgRed)
	if _, err := os.Stat(path); err != nil {
		red.Fprintf(out, "✗ Failed to open %s\n", path)
		return fmt.Errorf("failed to access path: %w", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		red.Fprintf(out, "✗ Failed to parse %s\n", path)
		return err
	}
	if err := cfg.Validate(); err != nil {
		red.Fprintf(out, "✗ Validation failed: %v\n", err)
		return err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "✓ %s is valid\n", path)
	fmt.Fprintf(out, "  max score:      %s\n", formatNumber(cfg.Scoring.MaxScore))
	fmt.Fprintf(out, "  proceed at:     %s\n", formatNumber(cfg.Scoring.ProceedMin))
	fmt.Fprintf(out, "  safeguards at:  %s\n", formatNumber(cfg.Scoring.SafeguardsMin))
	fmt.Fprintf(out, "  risk rules:     %d\n", len(engine.Rules()))
	return nil
}
