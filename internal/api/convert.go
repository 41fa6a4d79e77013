package api

import (
	"collab-scorecard/backend/internal/scoring"
	"collab-scorecard/backend/internal/store"
)

// answers coerces stored text into typed values. Responses to questions no longer
// in the questionnaire are kept as text and ignored downstream.
func answers(rows []store.Response, questions []scoring.Question) []scoring.Response {
	byID := make(map[string]scoring.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]scoring.Response, 0, len(rows))
	for _, r := range rows {
		value := scoring.Text(r.Value)
		if q, ok := byID[r.QuestionID]; ok {
			value = scoring.CoerceValue(r.Value, q)
		}
		out = append(out, scoring.Response{
			ID:           r.ID,
			QuestionID:   r.QuestionID,
			AssessmentID: r.AssessmentID,
			Value:        value,
		})
	}
	return out
}

func toStoreScore(s scoring.Score) *store.Score {
	row := &store.Score{
		ID:           s.ID,
		AssessmentID: s.AssessmentID,
		TotalScore:   s.TotalScore,
		MaxScore:     s.MaxScore,
		Percentage:   s.Percentage,
		CalculatedAt: s.CalculatedAt,
	}
	row.SetSectionScores(s.SectionScores)
	return row
}

func toStoreBand(b scoring.DecisionBand) *store.DecisionBand {
	row := &store.DecisionBand{
		ID:           b.ID,
		AssessmentID: b.AssessmentID,
		ScoreID:      b.ScoreID,
		Decision:     string(b.Decision),
		Explanation:  b.Explanation,
		CreatedAt:    b.CreatedAt,
	}
	row.SetRiskFlags(b.RiskFlags)
	return row
}

func fromStoreScore(s store.Score) scoring.Score {
	return scoring.Score{
		ID:            s.ID,
		AssessmentID:  s.AssessmentID,
		TotalScore:    s.TotalScore,
		MaxScore:      s.MaxScore,
		Percentage:    s.Percentage,
		SectionScores: sectionScores(s),
		CalculatedAt:  s.CalculatedAt,
	}
}

func fromStoreBand(b store.DecisionBand) scoring.DecisionBand {
	return scoring.DecisionBand{
		ID:           b.ID,
		AssessmentID: b.AssessmentID,
		ScoreID:      b.ScoreID,
		Decision:     scoring.Decision(b.Decision),
		Explanation:  b.Explanation,
		RiskFlags:    b.RiskFlags(),
		CreatedAt:    b.CreatedAt,
	}
}
