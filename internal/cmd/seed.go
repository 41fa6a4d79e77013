package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"collab-scorecard/backend/internal/store"
)

type seedOptions struct {
	driver string
	dsn    string
	reset  bool
}

// NewSeedCommand creates the seed subcommand.
func NewSeedCommand(opts *globalOptions) *cobra.Command {
	so := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the reference questionnaire into the database",
		Long: `Seed replaces the stored sections and questions with the reference
five-section questionnaire. Question IDs are stable, so existing responses stay
attached. Pass --reset to also delete every assessment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(so, opts.settings != nil && strings.EqualFold(opts.settings.LogLevel, "debug"), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&so.driver, "db-driver", envOr("SCORECARD_DB_DRIVER", store.DriverSQLite), "database driver (sqlite or postgres)")
	cmd.Flags().StringVar(&so.dsn, "db", envOr("SCORECARD_DB_DSN", "data/scorecard.db"), "database DSN or sqlite file path")
	cmd.Flags().BoolVar(&so.reset, "reset", false, "delete all assessments before seeding")

	return cmd
}

func runSeed(so seedOptions, verbose bool, out io.Writer) error {
	// sqlite files are guarded against a concurrent seed from another process
	if so.driver == "" || so.driver == store.DriverSQLite {
		lock := flock.New(so.dsn + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", so.dsn, err)
		}
		if !locked {
			return fmt.Errorf("another seed is running against %s", so.dsn)
		}
		defer func() {
			_ = lock.Unlock()
			_ = os.Remove(so.dsn + ".lock")
		}()
	}

	db, err := store.Open(so.driver, so.dsn, !verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	if so.reset {
		if err := db.ClearAssessments(); err != nil {
			return fmt.Errorf("clear assessments: %w", err)
		}
		logrus.WithField("dsn", so.dsn).Warn("assessments cleared")
	}

	sections := store.ReferenceQuestionnaire()
	if err := db.ReplaceQuestionnaire(sections); err != nil {
		return fmt.Errorf("seed questionnaire: %w", err)
	}

	questions := 0
	total := 0.0
	for _, s := range sections {
		questions += len(s.Questions)
		total += s.MaxScore
	}
	color.New(color.FgGreen).Fprintf(out, "✓ Seeded %d sections, %d questions (%s points)\n", len(sections), questions, formatNumber(total))
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
