package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"collab-scorecard/backend/internal/scoring"
)

// Input is everything a result summary shows.
type Input struct {
	AssessmentID      string
	Respondent        string
	Company           string
	CollaborationType string
	Status            string
	Score             scoring.Score
	DecisionBand      scoring.DecisionBand
}

// Renderer turns result summaries into Markdown or HTML.
type Renderer struct {
	markdown goldmark.Markdown
}

// NewRenderer builds a renderer with GitHub-flavoured tables enabled.
func NewRenderer() *Renderer {
	return &Renderer{markdown: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

// Markdown renders the summary document.
func (r *Renderer) Markdown(in Input) string {
	var b strings.Builder

	title := "Collaboration Assessment"
	if company := strings.TrimSpace(in.Company); company != "" {
		title += ": " + escapeInline(company)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if in.Respondent != "" {
		fmt.Fprintf(&b, "- **Respondent:** %s\n", escapeInline(in.Respondent))
	}
	if in.CollaborationType != "" {
		fmt.Fprintf(&b, "- **Collaboration type:** %s\n", humanize(in.CollaborationType))
	}
	if in.Status != "" {
		fmt.Fprintf(&b, "- **Status:** %s\n", humanize(in.Status))
	}
	if !in.Score.CalculatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Scored:** %s\n", in.Score.CalculatedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Decision: %s\n\n", humanize(string(in.DecisionBand.Decision)))
	if in.DecisionBand.Explanation != "" {
		fmt.Fprintf(&b, "%s\n\n", in.DecisionBand.Explanation)
	}
	fmt.Fprintf(&b, "**Total score:** %s / %s (%s%%)\n\n",
		formatNumber(in.Score.TotalScore), formatNumber(in.Score.MaxScore), formatNumber(in.Score.Percentage))

	if len(in.Score.SectionScores) > 0 {
		b.WriteString("## Sections\n\n")
		b.WriteString("| Section | Earned | Max | % |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, s := range in.Score.SectionScores {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escapeCell(s.SectionTitle), formatNumber(s.EarnedScore), formatNumber(s.MaxScore), formatNumber(s.Percentage))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Risk flags\n\n")
	if len(in.DecisionBand.RiskFlags) == 0 {
		b.WriteString("No risk flags raised.\n")
	} else {
		for _, flag := range in.DecisionBand.RiskFlags {
			fmt.Fprintf(&b, "- %s\n", escapeInline(flag))
		}
	}
	return b.String()
}

// HTML renders the summary through goldmark.
func (r *Renderer) HTML(in Input) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(r.Markdown(in)), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	out := fmt.Sprintf("%.2f", v)
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, ".")
}

func humanize(value string) string {
	if value == "" {
		return "Pending"
	}
	words := strings.Split(strings.ToLower(value), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"\n", " ",
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(strings.TrimSpace(s))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "|", `\|`)
}
