package scoring

import (
	"strings"
	"testing"

	"collab-scorecard/backend/internal/match"
)

func TestDetectRiskFlagsDefaultRules(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		value    Value
		expected []string
	}{
		{"compliance false", Question{ID: "c", Type: Checkbox, Text: "Do you agree to compliance terms?"}, Bool(false), []string{"Non-negotiable: Compliance agreement not accepted"}},
		{"compliance string false", Question{ID: "c", Type: Checkbox, Text: "Legal review complete"}, Text("false"), []string{"Non-negotiable: Compliance agreement not accepted"}},
		{"compliance zero", Question{ID: "c", Type: NumericScale, Text: "Compliance readiness"}, Number(0), []string{"Non-negotiable: Compliance agreement not accepted"}},
		{"compliance accepted", Question{ID: "c", Type: Checkbox, Text: "Do you agree to compliance terms?"}, Bool(true), nil},
		{"exclusivity declined", Question{ID: "e", Type: Checkbox, Text: "Will you accept exclusivity?"}, Bool(false), []string{"Warning: Exclusivity concerns"}},
		{"payment low", Question{ID: "p", Type: NumericScale, Text: "Comfort with revenue share split"}, Number(2), []string{"Warning: Low confidence in payment terms"}},
		{"payment at threshold", Question{ID: "p", Type: NumericScale, Text: "Payment terms confidence"}, Number(3), nil},
		{"experience low", Question{ID: "x", Type: NumericScale, Text: "Years of experience"}, Number(2), []string{"Warning: Limited experience indicated"}},
		{"experience fine", Question{ID: "x", Type: NumericScale, Text: "Years of experience"}, Number(3), nil},
		{"timeline numeric", Question{ID: "t", Type: NumericScale, Text: "How flexible is the timeline?"}, Number(1), []string{"Warning: Rushed timeline concerns"}},
		{"timeline asap", Question{ID: "t", Type: TextQuestion, Text: "Expected deadline"}, Text("We need it ASAP"), []string{"Warning: Rushed timeline concerns"}},
		{"financial low", Question{ID: "f", Type: NumericScale, Text: "Financial stability"}, Number(1), []string{"Critical: Financial concerns identified"}},
		{"financial boolean", Question{ID: "f", Type: Checkbox, Text: "Is funding secured?"}, Bool(false), []string{"Critical: Financial concerns identified"}},
		{"financial string false ignored", Question{ID: "f", Type: TextQuestion, Text: "Budget notes"}, Text("false"), nil},
		{"unrelated question", Question{ID: "u", Type: NumericScale, Text: "Cultural fit"}, Number(0), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags := DetectRiskFlags([]Question{tc.question}, []Response{{QuestionID: tc.question.ID, Value: tc.value}}, nil)
			if len(flags) != len(tc.expected) {
				t.Fatalf("expected %v got %v", tc.expected, flags)
			}
			for i := range flags {
				if flags[i] != tc.expected[i] {
					t.Fatalf("expected %v got %v", tc.expected, flags)
				}
			}
		})
	}
}

func TestDetectRiskFlagsMultipleRulesPerQuestion(t *testing.T) {
	q := Question{ID: "m", Type: NumericScale, Text: "Financial track record and experience"}
	flags := DetectRiskFlags([]Question{q}, []Response{{QuestionID: "m", Value: Number(1)}}, nil)

	if len(flags) != 2 {
		t.Fatalf("expected two flags got %v", flags)
	}
	if flags[0] != "Warning: Limited experience indicated" || flags[1] != "Critical: Financial concerns identified" {
		t.Fatalf("unexpected rule order %v", flags)
	}
}

func TestDetectRiskFlagsDeduplicates(t *testing.T) {
	questions := []Question{
		{ID: "c1", Type: Checkbox, Text: "Do you agree to comply with compliance policy?"},
		{ID: "c2", Type: Checkbox, Text: "Do you agree to our standard terms and conditions?"},
	}
	responses := []Response{
		{QuestionID: "c1", Value: Bool(false)},
		{QuestionID: "c2", Value: Bool(false)},
	}
	flags := DetectRiskFlags(questions, responses, nil)

	count := 0
	for _, f := range flags {
		if strings.Contains(f, "Non-negotiable") {
			count++
		}
	}
	if count != 1 || len(flags) != 1 {
		t.Fatalf("expected a single compliance flag got %v", flags)
	}
}

func TestDetectRiskFlagsRequiredUnanswered(t *testing.T) {
	long := "How would you describe your relationship with previous collaboration partners over the years?"
	questions := []Question{
		{ID: "r1", Type: NumericScale, Text: "Financial stability", Required: true},
		{ID: "r2", Type: TextQuestion, Text: long, Required: true},
		{ID: "o", Type: Checkbox, Text: "Optional budget question"},
	}
	flags := DetectRiskFlags(questions, nil, nil)

	want := []string{
		`Warning: Required question unanswered - "Financial stability"...`,
		`Warning: Required question unanswered - "` + long[:50] + `"...`,
	}
	if len(flags) != len(want) {
		t.Fatalf("expected %v got %v", want, flags)
	}
	for i := range want {
		if flags[i] != want[i] {
			t.Fatalf("flag %d: expected %q got %q", i, want[i], flags[i])
		}
	}
}

func TestDetectRiskFlagsCustomRules(t *testing.T) {
	questions := []Question{{ID: "q", Type: TextQuestion, Text: "Preferred contract length"}}
	responses := []Response{{QuestionID: "q", Value: Text("month to month")}}
	rules := []RiskRule{{
		Pattern:    match.MustCompile("contract"),
		Conditions: []Condition{{Kind: WhenContains, Text: "month to month"}},
		Flag:       "Warning: Short commitment",
		Severity:   SeverityWarning,
	}}

	flags := DetectRiskFlags(questions, responses, rules)
	if len(flags) != 1 || flags[0] != "Warning: Short commitment" {
		t.Fatalf("unexpected flags %v", flags)
	}

	if flags := DetectRiskFlags(questions, responses, []RiskRule{}); len(flags) != 0 {
		t.Fatalf("empty rule set should raise nothing, got %v", flags)
	}
}

func TestDetectRiskFlagsByCategory(t *testing.T) {
	questions := []Question{
		{ID: "a", Type: Checkbox, Text: "Will you sign the partner charter?", Category: CategoryCompliance},
		{ID: "b", Type: Checkbox, Text: "Legal entity registered?", Category: CategoryExclusivity},
	}
	responses := []Response{
		{QuestionID: "a", Value: Bool(false)},
		{QuestionID: "b", Value: Bool(false)},
	}
	flags := DetectRiskFlags(questions, responses, nil)

	want := []string{
		"Non-negotiable: Compliance agreement not accepted",
		"Warning: Exclusivity concerns",
	}
	if len(flags) != 2 || flags[0] != want[0] || flags[1] != want[1] {
		t.Fatalf("expected %v got %v", want, flags)
	}
}

func TestRiskRulePredicate(t *testing.T) {
	rule := RiskRule{
		Pattern:   match.Literal("references"),
		Predicate: func(v Value) bool { s, ok := v.AsText(); return ok && s == "none" },
		Flag:      "Warning: No references",
	}
	q := Question{Text: "Verifiable references"}
	if !rule.Applies(q) || !rule.Triggered(Text("none")) {
		t.Fatalf("predicate rule should trigger")
	}
	if rule.Triggered(Text("two")) {
		t.Fatalf("predicate rule should not trigger")
	}
}

func TestFlagPredicates(t *testing.T) {
	tests := []struct {
		name          string
		flags         []string
		nonNegotiable bool
		critical      bool
	}{
		{"empty", nil, false, false},
		{"warning only", []string{"Warning: Exclusivity concerns"}, false, false},
		{"non-negotiable", []string{"Non-negotiable: Compliance agreement not accepted"}, true, false},
		{"critical", []string{"Critical: Financial concerns identified"}, false, true},
		{"both lowercase", []string{"critical: x", "NON-NEGOTIABLE: y"}, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasNonNegotiableFlags(tc.flags); got != tc.nonNegotiable {
				t.Fatalf("non-negotiable: expected %v got %v", tc.nonNegotiable, got)
			}
			if got := HasCriticalFlags(tc.flags); got != tc.critical {
				t.Fatalf("critical: expected %v got %v", tc.critical, got)
			}
		})
	}
}
