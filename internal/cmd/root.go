package cmd

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"collab-scorecard/backend/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool

	settings *config.Config
}

// NewRootCommand creates the scorecard command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Collaboration scorecard tooling",
		Long: `Scorecard scores collaboration questionnaires offline, seeds the
reference questionnaire into a database and checks settings files.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("SCORECARD_CONFIG"), "settings file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log_level from the settings file")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewConfigCommand())

	return cmd
}

func (o *globalOptions) load() error {
	color.NoColor = o.noColor || !isatty.IsTerminal(os.Stdout.Fd())

	settings, err := config.LoadConfig(strings.TrimSpace(o.configPath))
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		settings.LogLevel = o.logLevel
	}
	if err := settings.ConfigureLogging(); err != nil {
		return err
	}
	o.settings = settings
	return nil
}
