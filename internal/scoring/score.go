package scoring

import (
	"math"
	"sort"
	"strings"
)

// CalculateScore reduces a submission into per-section and total scores.
// Missing or mistyped answers contribute nothing; it never fails.
func (e *Engine) CalculateScore(assessmentID string, sections []Section, questions []Question, responses []Response) Score {
	answers := indexResponses(responses)

	ordered := make([]Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	sectionScores := make([]SectionScore, 0, len(ordered))
	total := 0.0
	for _, section := range ordered {
		ss := scoreSection(section, questions, answers)
		total += ss.EarnedScore
		sectionScores = append(sectionScores, ss)
	}

	total = round2(total)
	percentage := 0.0
	if e.cfg.MaxScore > 0 {
		percentage = total / e.cfg.MaxScore * 100
	}

	return Score{
		ID:            e.newID(),
		AssessmentID:  assessmentID,
		TotalScore:    total,
		MaxScore:      e.cfg.MaxScore,
		Percentage:    round2(percentage),
		SectionScores: sectionScores,
		CalculatedAt:  e.now(),
	}
}

func scoreSection(section Section, questions []Question, answers map[string]Response) SectionScore {
	earned := 0.0
	computedMax := 0.0
	for _, q := range questions {
		if q.SectionID != section.ID {
			continue
		}
		earned += QuestionContribution(q, lookup(answers, q.ID))
		computedMax += q.Weight
	}

	maxScore := computedMax
	if section.MaxScore > 0 {
		maxScore = section.MaxScore
	}
	percentage := 0.0
	if maxScore > 0 {
		percentage = earned / maxScore * 100
	}

	return SectionScore{
		SectionID:    section.ID,
		SectionTitle: section.Title,
		EarnedScore:  round2(earned),
		MaxScore:     maxScore,
		Percentage:   round2(percentage),
	}
}

// QuestionContribution returns the points a single answer earns. A nil response
// means the question was not answered.
func QuestionContribution(q Question, r *Response) float64 {
	if r == nil {
		return 0
	}
	switch q.Type {
	case NumericScale:
		return numericContribution(q, r.Value)
	case Checkbox:
		return checkboxContribution(q, r.Value)
	case TextQuestion:
		return textContribution(q, r.Value)
	case Conditional:
		if q.DelegateType.delegable() {
			delegate := q
			delegate.Type = q.DelegateType
			return QuestionContribution(delegate, r)
		}
		switch r.Value.Kind() {
		case KindNumber:
			return numericContribution(q, r.Value)
		case KindBool:
			return checkboxContribution(q, r.Value)
		}
		return 0
	default:
		return 0
	}
}

func numericContribution(q Question, v Value) float64 {
	n, ok := v.AsNumber()
	if !ok {
		return 0
	}
	if q.MaxValue != nil && *q.MaxValue > 0 {
		return n / *q.MaxValue * q.Weight
	}
	return math.Min(n, q.Weight)
}

func checkboxContribution(q Question, v Value) float64 {
	if b, ok := v.AsBool(); ok {
		if b {
			return q.Weight
		}
		return 0
	}
	if s, ok := v.AsText(); ok && strings.EqualFold(s, "true") {
		return q.Weight
	}
	return 0
}

func textContribution(q Question, v Value) float64 {
	if s, ok := v.AsText(); ok && strings.TrimSpace(s) != "" {
		return q.Weight
	}
	return 0
}

// indexResponses keeps the first response recorded per question.
func indexResponses(responses []Response) map[string]Response {
	out := make(map[string]Response, len(responses))
	for _, r := range responses {
		if _, exists := out[r.QuestionID]; exists {
			continue
		}
		out[r.QuestionID] = r
	}
	return out
}

func lookup(answers map[string]Response, questionID string) *Response {
	r, ok := answers[questionID]
	if !ok {
		return nil
	}
	return &r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
