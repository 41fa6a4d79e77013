package scoring

import (
	"fmt"
	"time"
)

func ptr(v float64) *float64 { return &v }

func referenceSections() []Section {
	return []Section{
		{ID: "section-1", Title: "Experience & Track Record", Order: 1, MaxScore: 15},
		{ID: "section-2", Title: "Financial Readiness", Order: 2, MaxScore: 20},
		{ID: "section-3", Title: "Alignment & Values", Order: 3, MaxScore: 15},
		{ID: "section-4", Title: "Operational Capacity", Order: 4, MaxScore: 10},
		{ID: "section-5", Title: "Compliance & Legal", Order: 5, MaxScore: 10},
	}
}

func referenceQuestions() []Question {
	return []Question{
		{ID: "q1", SectionID: "section-1", Type: NumericScale, Text: "Years of experience", Weight: 5, Required: true, Order: 1, MaxValue: ptr(10)},
		{ID: "q2", SectionID: "section-1", Type: NumericScale, Text: "Track record rating", Weight: 5, Required: true, Order: 2, MaxValue: ptr(10)},
		{ID: "q3", SectionID: "section-1", Type: Checkbox, Text: "Verifiable references", Weight: 5, Order: 3},
		{ID: "q4", SectionID: "section-2", Type: NumericScale, Text: "Financial stability", Weight: 8, Required: true, Order: 1, MaxValue: ptr(10)},
		{ID: "q5", SectionID: "section-2", Type: NumericScale, Text: "Budget availability", Weight: 7, Required: true, Order: 2, MaxValue: ptr(10)},
		{ID: "q6", SectionID: "section-2", Type: Checkbox, Text: "Upfront investment ready", Weight: 5, Order: 3},
		{ID: "q7", SectionID: "section-3", Type: NumericScale, Text: "Goal alignment", Weight: 5, Required: true, Order: 1, MaxValue: ptr(10)},
		{ID: "q8", SectionID: "section-3", Type: NumericScale, Text: "Cultural fit", Weight: 5, Required: true, Order: 2, MaxValue: ptr(10)},
		{ID: "q9", SectionID: "section-3", Type: Checkbox, Text: "Ethical practices commitment", Weight: 5, Required: true, Order: 3},
		{ID: "q10", SectionID: "section-4", Type: NumericScale, Text: "Team capacity", Weight: 5, Required: true, Order: 1, MaxValue: ptr(10)},
		{ID: "q11", SectionID: "section-4", Type: Checkbox, Text: "Dedicated resources", Weight: 5, Order: 2},
		{ID: "q12", SectionID: "section-5", Type: Checkbox, Text: "Do you agree to compliance terms?", Weight: 5, Required: true, Order: 1},
		{ID: "q13", SectionID: "section-5", Type: Checkbox, Text: "Do you agree to legal requirements?", Weight: 5, Required: true, Order: 2},
	}
}

func resp(questionID string, v Value) Response {
	return Response{ID: "response-" + questionID, QuestionID: questionID, AssessmentID: "assessment-1", Value: v}
}

// uniformResponses answers every numeric question with scale and every checkbox
// with check, then applies overrides.
func uniformResponses(scale float64, check bool, overrides map[string]Value) []Response {
	var out []Response
	for _, q := range referenceQuestions() {
		v := Number(scale)
		if q.Type == Checkbox {
			v = Bool(check)
		}
		if o, ok := overrides[q.ID]; ok {
			v = o
		}
		out = append(out, resp(q.ID, v))
	}
	return out
}

func testEngine() *Engine {
	n := 0
	return NewEngine(DefaultConfig(),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
}
