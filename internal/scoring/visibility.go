package scoring

import "strings"

// VisibleQuestions filters questions down to the ones a respondent is shown given
// the answers recorded so far. A question gated on a hidden question is hidden.
func VisibleQuestions(questions []Question, responses []Response) []Question {
	v := newVisibility(questions, responses)
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if v.visible(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

// MissingRequired returns visible required questions that have no usable answer.
func MissingRequired(questions []Question, responses []Response) []Question {
	answers := indexResponses(responses)
	var out []Question
	for _, q := range VisibleQuestions(questions, responses) {
		if !q.Required {
			continue
		}
		r, ok := answers[q.ID]
		if !ok || blank(r.Value) {
			out = append(out, q)
		}
	}
	return out
}

// IsVisible reports whether q is shown given the answers keyed by question ID.
// The controlling answer and ShowIfValue are compared by their string forms.
func IsVisible(q Question, answers map[string]Value) bool {
	if q.ShowIfQuestionID == "" || q.ShowIfValue == nil {
		return true
	}
	current, ok := answers[q.ShowIfQuestionID]
	if !ok || !current.IsSet() {
		return false
	}
	return current.String() == q.ShowIfValue.String()
}

type visibility struct {
	byID    map[string]Question
	answers map[string]Value
	memo    map[string]bool
	walking map[string]bool
}

func newVisibility(questions []Question, responses []Response) *visibility {
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	answers := make(map[string]Value, len(responses))
	for id, r := range indexResponses(responses) {
		answers[id] = r.Value
	}
	return &visibility{
		byID:    byID,
		answers: answers,
		memo:    make(map[string]bool),
		walking: make(map[string]bool),
	}
}

func (v *visibility) visible(id string) bool {
	if shown, ok := v.memo[id]; ok {
		return shown
	}
	q, ok := v.byID[id]
	if !ok {
		return false
	}
	// cycles are an authoring error; treat the loop as hidden
	if v.walking[id] {
		return false
	}
	v.walking[id] = true
	shown := IsVisible(q, v.answers)
	if shown && q.ShowIfQuestionID != "" && q.ShowIfValue != nil {
		if _, known := v.byID[q.ShowIfQuestionID]; known {
			shown = v.visible(q.ShowIfQuestionID)
		}
	}
	delete(v.walking, id)
	v.memo[id] = shown
	return shown
}

func blank(v Value) bool {
	if !v.IsSet() {
		return true
	}
	if s, ok := v.AsText(); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
