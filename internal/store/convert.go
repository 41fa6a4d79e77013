package store

import "collab-scorecard/backend/internal/scoring"

// Questionnaire flattens stored sections into scoring inputs.
func Questionnaire(rows []Section) ([]scoring.Section, []scoring.Question) {
	sections := make([]scoring.Section, 0, len(rows))
	var questions []scoring.Question
	for _, s := range rows {
		sections = append(sections, scoring.Section{
			ID:       s.ID,
			Title:    s.Title,
			Order:    s.SortOrder,
			MaxScore: s.MaxScore,
		})
		for _, q := range s.Questions {
			questions = append(questions, toScoringQuestion(q))
		}
	}
	return sections, questions
}

func toScoringQuestion(q Question) scoring.Question {
	out := scoring.Question{
		ID:               q.ID,
		SectionID:        q.SectionID,
		Type:             scoring.QuestionType(q.Type),
		Text:             q.Text,
		Description:      q.Description,
		Weight:           q.Weight,
		Required:         q.Required,
		Order:            q.SortOrder,
		MinValue:         q.MinValue,
		MaxValue:         q.MaxValue,
		ShowIfQuestionID: q.ShowIfQuestionID,
		Category:         scoring.Category(q.Category),
		DelegateType:     scoring.QuestionType(q.DelegateType),
	}
	if q.ShowIfValue != nil {
		v := scoring.Text(*q.ShowIfValue)
		out.ShowIfValue = &v
	}
	return out
}
