package scoring

import (
	"strings"

	"collab-scorecard/backend/internal/match"
)

// Severity is the weight a risk flag carries in the decision.
type Severity string

const (
	SeverityWarning       Severity = "warning"
	SeverityCritical      Severity = "critical"
	SeverityNonNegotiable Severity = "non-negotiable"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityWarning, SeverityCritical, SeverityNonNegotiable:
		return true
	}
	return false
}

// ConditionKind names a test applied to a raw response value.
type ConditionKind string

const (
	// WhenFalsy holds for boolean false, the string "false" and the number 0.
	WhenFalsy ConditionKind = "falsy"
	// WhenFalse holds for boolean false only.
	WhenFalse ConditionKind = "false"
	// WhenBelow holds for numbers strictly below Threshold.
	WhenBelow ConditionKind = "below"
	// WhenAtMost holds for numbers less than or equal to Threshold.
	WhenAtMost ConditionKind = "at_most"
	// WhenContains holds for strings containing Text, ignoring case.
	WhenContains ConditionKind = "contains"
)

// Condition is one trigger of a rule.
type Condition struct {
	Kind      ConditionKind `json:"kind" yaml:"kind"`
	Threshold float64       `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Text      string        `json:"text,omitempty" yaml:"text,omitempty"`
}

// Holds evaluates the condition against a response value. Values of the wrong
// shape never trigger.
func (c Condition) Holds(v Value) bool {
	switch c.Kind {
	case WhenFalsy:
		if b, ok := v.AsBool(); ok {
			return !b
		}
		if s, ok := v.AsText(); ok {
			return s == "false"
		}
		if n, ok := v.AsNumber(); ok {
			return n == 0
		}
	case WhenFalse:
		if b, ok := v.AsBool(); ok {
			return !b
		}
	case WhenBelow:
		if n, ok := v.AsNumber(); ok {
			return n < c.Threshold
		}
	case WhenAtMost:
		if n, ok := v.AsNumber(); ok {
			return n <= c.Threshold
		}
	case WhenContains:
		if s, ok := v.AsText(); ok && c.Text != "" {
			return match.ContainsFold(s, c.Text)
		}
	}
	return false
}

// RiskRule raises Flag when a question it applies to has an answer satisfying any
// of its Conditions.
type RiskRule struct {
	Pattern    match.Pattern
	Categories []Category
	Conditions []Condition
	// Predicate is an optional extra trigger for rules built in code.
	Predicate func(Value) bool
	Flag      string
	Severity  Severity
}

// Applies reports whether the rule targets q. Questions with a category are
// matched by category when the rule declares any; otherwise the question text is
// tested against the pattern.
func (r RiskRule) Applies(q Question) bool {
	if q.Category != "" && len(r.Categories) > 0 {
		for _, c := range r.Categories {
			if strings.EqualFold(string(c), string(q.Category)) {
				return true
			}
		}
		return false
	}
	return r.Pattern.Match(q.Text)
}

// Triggered reports whether v satisfies the rule.
func (r RiskRule) Triggered(v Value) bool {
	for _, c := range r.Conditions {
		if c.Holds(v) {
			return true
		}
	}
	return r.Predicate != nil && r.Predicate(v)
}

// DefaultRiskRules returns the reference rule set in evaluation order.
func DefaultRiskRules() []RiskRule {
	return []RiskRule{
		{
			Pattern:    match.MustCompile(`compliance|agree.*terms|legal`),
			Categories: []Category{CategoryCompliance},
			Conditions: []Condition{{Kind: WhenFalsy}},
			Flag:       "Non-negotiable: Compliance agreement not accepted",
			Severity:   SeverityNonNegotiable,
		},
		{
			Pattern:    match.MustCompile(`exclusive|exclusivity`),
			Categories: []Category{CategoryExclusivity},
			Conditions: []Condition{{Kind: WhenFalsy}},
			Flag:       "Warning: Exclusivity concerns",
			Severity:   SeverityWarning,
		},
		{
			Pattern:    match.MustCompile(`revenue.*share|payment.*terms`),
			Categories: []Category{CategoryPayment},
			Conditions: []Condition{{Kind: WhenBelow, Threshold: 3}},
			Flag:       "Warning: Low confidence in payment terms",
			Severity:   SeverityWarning,
		},
		{
			Pattern:    match.MustCompile(`experience|track.*record`),
			Categories: []Category{CategoryExperience},
			Conditions: []Condition{{Kind: WhenAtMost, Threshold: 2}},
			Flag:       "Warning: Limited experience indicated",
			Severity:   SeverityWarning,
		},
		{
			Pattern:    match.MustCompile(`timeline|deadline|urgent`),
			Categories: []Category{CategoryTimeline},
			Conditions: []Condition{
				{Kind: WhenAtMost, Threshold: 2},
				{Kind: WhenContains, Text: "asap"},
			},
			Flag:     "Warning: Rushed timeline concerns",
			Severity: SeverityWarning,
		},
		{
			Pattern:    match.MustCompile(`budget|funding|financial`),
			Categories: []Category{CategoryFinancial},
			Conditions: []Condition{
				{Kind: WhenAtMost, Threshold: 2},
				{Kind: WhenFalse},
			},
			Flag:     "Critical: Financial concerns identified",
			Severity: SeverityCritical,
		},
	}
}
