package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Issue is a single boundary violation found before scoring.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed pipeline input. It is raised by ValidateInput
// and never by the scoring functions themselves.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "invalid scoring input"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "invalid scoring input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateInput checks the shape of a submission. Responses referencing unknown
// questions are ignored here just as they are by the calculator.
func ValidateInput(sections []Section, questions []Question, responses []Response) error {
	verr := &ValidationError{}

	sectionIDs := make(map[string]struct{}, len(sections))
	for i, s := range sections {
		field := fmt.Sprintf("sections[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			verr.add(field+".id", "is required")
			continue
		}
		if _, dup := sectionIDs[s.ID]; dup {
			verr.add(field+".id", "duplicate section %q", s.ID)
		}
		sectionIDs[s.ID] = struct{}{}
		if strings.TrimSpace(s.Title) == "" {
			verr.add(field+".title", "is required")
		}
		if s.MaxScore < 0 || !finite(s.MaxScore) {
			verr.add(field+".max_score", "must be a non-negative number")
		}
	}

	byID := make(map[string]Question, len(questions))
	for i, q := range questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.ID) == "" {
			verr.add(field+".id", "is required")
			continue
		}
		if _, dup := byID[q.ID]; dup {
			verr.add(field+".id", "duplicate question %q", q.ID)
		}
		byID[q.ID] = q
	}

	for i, q := range questions {
		field := fmt.Sprintf("questions[%d]", i)
		if !q.Type.Valid() {
			verr.add(field+".type", "unknown question type %q", q.Type)
		}
		if strings.TrimSpace(q.Text) == "" {
			verr.add(field+".text", "is required")
		}
		if q.Weight < 0 || !finite(q.Weight) {
			verr.add(field+".weight", "must be a non-negative number")
		}
		if len(sections) > 0 {
			if _, ok := sectionIDs[q.SectionID]; !ok {
				verr.add(field+".section_id", "references unknown section %q", q.SectionID)
			}
		}
		if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
			verr.add(field+".max_value", "must not be below min_value")
		}
		if q.ShowIfQuestionID != "" {
			if q.ShowIfQuestionID == q.ID {
				verr.add(field+".show_if_question_id", "must not reference itself")
			} else if _, ok := byID[q.ShowIfQuestionID]; !ok {
				verr.add(field+".show_if_question_id", "references unknown question %q", q.ShowIfQuestionID)
			}
		}
		if q.Type == Conditional && q.DelegateType != "" && !q.DelegateType.delegable() {
			verr.add(field+".delegate_type", "conditional questions cannot delegate to %q", q.DelegateType)
		}
	}

	for i, r := range responses {
		field := fmt.Sprintf("responses[%d]", i)
		if strings.TrimSpace(r.QuestionID) == "" {
			verr.add(field+".question_id", "is required")
			continue
		}
		q, ok := byID[r.QuestionID]
		if !ok {
			continue
		}
		if !r.Value.IsSet() {
			verr.add(field+".value", "is required")
			continue
		}
		if n, isNum := r.Value.AsNumber(); isNum && !finite(n) {
			verr.add(field+".value", "must be a finite number")
			continue
		}
		if !compatible(q, r.Value) {
			verr.add(field+".value", "%s value not accepted by %s question %q", r.Value.Kind(), q.Type, q.ID)
		}
	}

	if len(verr.Issues) > 0 {
		return verr
	}
	return nil
}

func compatible(q Question, v Value) bool {
	switch q.Type {
	case NumericScale:
		return v.Kind() == KindNumber
	case Checkbox:
		if v.Kind() == KindBool {
			return true
		}
		s, ok := v.AsText()
		return ok && (strings.EqualFold(s, "true") || strings.EqualFold(s, "false"))
	case TextQuestion:
		return v.Kind() == KindString
	case Conditional:
		if q.DelegateType.delegable() {
			delegate := q
			delegate.Type = q.DelegateType
			return compatible(delegate, v)
		}
		return v.IsSet()
	}
	return false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
