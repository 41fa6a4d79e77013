package scoring

import (
	"fmt"
	"strings"

	"collab-scorecard/backend/internal/match"
)

const unansweredPreviewRunes = 50

// DetectRiskFlags applies rules to every question and returns the distinct flags
// in order of first detection. A nil rules slice selects DefaultRiskRules; an empty
// non-nil slice disables rule matching.
func DetectRiskFlags(questions []Question, responses []Response, rules []RiskRule) []string {
	if rules == nil {
		rules = DefaultRiskRules()
	}
	return detect(questions, responses, rules)
}

// DetectRiskFlags runs the engine's rule set.
func (e *Engine) DetectRiskFlags(questions []Question, responses []Response) []string {
	return detect(questions, responses, e.rules)
}

func detect(questions []Question, responses []Response, rules []RiskRule) []string {
	answers := indexResponses(responses)
	flags := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(flag string) {
		if _, ok := seen[flag]; ok {
			return
		}
		seen[flag] = struct{}{}
		flags = append(flags, flag)
	}

	for _, q := range questions {
		r, answered := answers[q.ID]
		if !answered {
			if q.Required {
				add(UnansweredFlag(q))
			}
			continue
		}
		for _, rule := range rules {
			if rule.Applies(q) && rule.Triggered(r.Value) {
				add(rule.Flag)
			}
		}
	}
	return flags
}

// UnansweredFlag is the warning raised for a required question with no response.
func UnansweredFlag(q Question) string {
	return fmt.Sprintf("Warning: Required question unanswered - \"%s\"...", match.Truncate(q.Text, unansweredPreviewRunes))
}

// HasNonNegotiableFlags reports whether any flag is a deal breaker.
func HasNonNegotiableFlags(flags []string) bool {
	return anyFlagContains(flags, "non-negotiable")
}

// HasCriticalFlags reports whether any flag is critical.
func HasCriticalFlags(flags []string) bool {
	return anyFlagContains(flags, "critical")
}

func anyFlagContains(flags []string, marker string) bool {
	for _, flag := range flags {
		if strings.Contains(strings.ToLower(flag), marker) {
			return true
		}
	}
	return false
}
