package scoring

import (
	"strings"
	"time"
)

// QuestionType enumerates how a question is answered and scored.
type QuestionType string

const (
	NumericScale QuestionType = "NUMERIC_SCALE"
	Checkbox     QuestionType = "CHECKBOX"
	TextQuestion QuestionType = "TEXT"
	Conditional  QuestionType = "CONDITIONAL"
)

// ParseQuestionType maps a stored type name onto a QuestionType.
func ParseQuestionType(value string) (QuestionType, bool) {
	switch QuestionType(strings.ToUpper(strings.TrimSpace(value))) {
	case NumericScale:
		return NumericScale, true
	case Checkbox:
		return Checkbox, true
	case TextQuestion:
		return TextQuestion, true
	case Conditional:
		return Conditional, true
	}
	return "", false
}

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case NumericScale, Checkbox, TextQuestion, Conditional:
		return true
	}
	return false
}

// delegable reports whether a Conditional question may score as t.
func (t QuestionType) delegable() bool {
	return t == NumericScale || t == Checkbox || t == TextQuestion
}

// Category is the stable risk topic attached to a question at authoring time.
type Category string

const (
	CategoryCompliance  Category = "compliance"
	CategoryExclusivity Category = "exclusivity"
	CategoryPayment     Category = "payment"
	CategoryExperience  Category = "experience"
	CategoryTimeline    Category = "timeline"
	CategoryFinancial   Category = "financial"
)

// Question is a single questionnaire item.
type Question struct {
	ID          string
	SectionID   string
	Type        QuestionType
	Text        string
	Description string
	Weight      float64
	Required    bool
	Order       int
	MinValue    *float64
	MaxValue    *float64

	// ShowIfQuestionID links visibility to another question's answer.
	ShowIfQuestionID string
	ShowIfValue      *Value

	// Category keys risk rules without relying on the question wording.
	Category Category
	// DelegateType is the underlying type a Conditional question scores as.
	DelegateType QuestionType
}

// Response is one answer recorded for an assessment.
type Response struct {
	ID           string
	QuestionID   string
	AssessmentID string
	Value        Value
}

// Section groups questions under a point ceiling.
type Section struct {
	ID       string
	Title    string
	Order    int
	MaxScore float64
}

// SectionScore is the per-section breakdown of a Score.
type SectionScore struct {
	SectionID    string  `json:"section_id"`
	SectionTitle string  `json:"section_title"`
	EarnedScore  float64 `json:"earned_score"`
	MaxScore     float64 `json:"max_score"`
	Percentage   float64 `json:"percentage"`
}

// Score is the calculated result for one submission.
type Score struct {
	ID            string         `json:"id"`
	AssessmentID  string         `json:"assessment_id"`
	TotalScore    float64        `json:"total_score"`
	MaxScore      float64        `json:"max_score"`
	Percentage    float64        `json:"percentage"`
	SectionScores []SectionScore `json:"section_scores"`
	CalculatedAt  time.Time      `json:"calculated_at"`
}

// Decision is the recommendation band.
type Decision string

const (
	Proceed               Decision = "PROCEED"
	ProceedWithSafeguards Decision = "PROCEED_WITH_SAFEGUARDS"
	Pause                 Decision = "PAUSE"
)

// Valid reports whether d is a known decision value.
func (d Decision) Valid() bool {
	switch d {
	case Proceed, ProceedWithSafeguards, Pause:
		return true
	}
	return false
}

// Explanation returns the fixed narrative shown for the decision.
func (d Decision) Explanation() string {
	switch d {
	case Proceed:
		return "Strong alignment indicators. Recommended to proceed with collaboration."
	case ProceedWithSafeguards:
		return "Moderate alignment with some concerns. Consider proceeding with additional safeguards and monitoring."
	case Pause:
		return "Significant concerns identified. Recommend pausing to address issues before proceeding."
	}
	return ""
}

// DecisionBand is the final recommendation for a scored submission.
type DecisionBand struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	ScoreID      string    `json:"score_id"`
	Decision     Decision  `json:"decision"`
	Explanation  string    `json:"explanation"`
	RiskFlags    []string  `json:"risk_flags"`
	CreatedAt    time.Time `json:"created_at"`
}
