package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"collab-scorecard/backend/internal/scoring"
	"collab-scorecard/backend/internal/store"
)

type scoreInput struct {
	AssessmentID string                   `json:"assessment_id"`
	Sections     []sectionInput           `json:"sections"`
	Responses    map[string]scoring.Value `json:"responses"`
}

type sectionInput struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Order     int             `json:"order"`
	MaxScore  float64         `json:"max_score"`
	Questions []questionInput `json:"questions"`
}

type questionInput struct {
	ID               string         `json:"id"`
	Type             string         `json:"type"`
	Text             string         `json:"text"`
	Weight           float64        `json:"weight"`
	Required         bool           `json:"required"`
	Order            int            `json:"order"`
	MinValue         *float64       `json:"min_value"`
	MaxValue         *float64       `json:"max_value"`
	ShowIfQuestionID string         `json:"show_if_question_id"`
	ShowIfValue      *scoring.Value `json:"show_if_value"`
	Category         string         `json:"category"`
	DelegateType     string         `json:"delegate_type"`
}

// NewScoreCommand creates the score subcommand.
func NewScoreCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score <answers.json>",
		Short: "Score a questionnaire submission without a database",
		Long: `Score reads a JSON document with "responses" keyed by question ID and
prints the score breakdown, risk flags and decision band.

When the document has no "sections" the reference questionnaire is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.settings.Engine()
			if err != nil {
				return err
			}
			return runScore(args[0], engine, asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func runScore(path string, engine *scoring.Engine, asJSON bool, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read answers file: %w", err)
	}
	var in scoreInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse answers file: %w", err)
	}

	sections, questions := in.questionnaire()
	assessmentID := in.AssessmentID
	if assessmentID == "" {
		assessmentID = "local"
	}
	responses := in.responses(assessmentID)

	if err := scoring.ValidateInput(sections, questions, responses); err != nil {
		var verr *scoring.ValidationError
		if errors.As(err, &verr) {
			red := color.New(color.FgRed)
			for _, issue := range verr.Issues {
				red.Fprintf(out, "✗ %s: %s\n", issue.Field, issue.Message)
			}
		}
		return err
	}

	result := engine.Evaluate(assessmentID, sections, questions, responses)
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(out, result)
	return nil
}

func (in scoreInput) questionnaire() ([]scoring.Section, []scoring.Question) {
	if len(in.Sections) == 0 {
		return store.Questionnaire(store.ReferenceQuestionnaire())
	}
	sections := make([]scoring.Section, 0, len(in.Sections))
	var questions []scoring.Question
	for _, s := range in.Sections {
		sections = append(sections, scoring.Section{ID: s.ID, Title: s.Title, Order: s.Order, MaxScore: s.MaxScore})
		for _, q := range s.Questions {
			questions = append(questions, scoring.Question{
				ID:               q.ID,
				SectionID:        s.ID,
				Type:             scoring.QuestionType(strings.ToUpper(q.Type)),
				Text:             q.Text,
				Weight:           q.Weight,
				Required:         q.Required,
				Order:            q.Order,
				MinValue:         q.MinValue,
				MaxValue:         q.MaxValue,
				ShowIfQuestionID: q.ShowIfQuestionID,
				ShowIfValue:      q.ShowIfValue,
				Category:         scoring.Category(q.Category),
				DelegateType:     scoring.QuestionType(strings.ToUpper(q.DelegateType)),
			})
		}
	}
	return sections, questions
}

// responses are ordered by question ID so repeated runs print identically.
func (in scoreInput) responses(assessmentID string) []scoring.Response {
	ids := make([]string, 0, len(in.Responses))
	for id := range in.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]scoring.Response, 0, len(ids))
	for _, id := range ids {
		out = append(out, scoring.Response{
			ID:           "response-" + id,
			QuestionID:   id,
			AssessmentID: assessmentID,
			Value:        in.Responses[id],
		})
	}
	return out
}

func printResult(out io.Writer, result scoring.Result) {
	bold := color.New(color.Bold)
	bold.Fprintf(out, "Assessment %s\n", result.Score.AssessmentID)
	fmt.Fprintf(out, "Total score: %s / %s (%s%%)\n\n",
		formatNumber(result.Score.TotalScore), formatNumber(result.Score.MaxScore), formatNumber(result.Score.Percentage))

	for _, s := range result.Score.SectionScores {
		fmt.Fprintf(out, "  %-30s %6s / %-6s %s%%\n",
			s.SectionTitle, formatNumber(s.EarnedScore), formatNumber(s.MaxScore), formatNumber(s.Percentage))
	}
	fmt.Fprintln(out)

	if len(result.RiskFlags) == 0 {
		color.New(color.FgGreen).Fprintln(out, "No risk flags raised")
	} else {
		bold.Fprintf(out, "Risk flags (%d)\n", len(result.RiskFlags))
		for _, flag := range result.RiskFlags {
			flagColor(flag).Fprintf(out, "  • %s\n", flag)
		}
	}
	fmt.Fprintln(out)

	decisionColor(result.DecisionBand.Decision).Fprintf(out, "Decision: %s\n", result.DecisionBand.Decision)
	fmt.Fprintln(out, result.DecisionBand.Explanation)
}

func decisionColor(d scoring.Decision) *color.Color {
	switch d {
	case scoring.Proceed:
		return color.New(color.FgGreen, color.Bold)
	case scoring.ProceedWithSafeguards:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func flagColor(flag string) *color.Color {
	if scoring.HasCriticalFlags([]string{flag}) || scoring.HasNonNegotiableFlags([]string{flag}) {
		return color.New(color.FgRed)
	}
	return color.New(color.FgYellow)
}

func formatNumber(v float64) string {
	out := fmt.Sprintf("%.2f", v)
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, ".")
}
