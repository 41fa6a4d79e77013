package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assessment lifecycle states.
const (
	StatusDraft      = "DRAFT"
	StatusInProgress = "IN_PROGRESS"
	StatusSubmitted  = "SUBMITTED"
	StatusReviewed   = "REVIEWED"
	StatusArchived   = "ARCHIVED"
)

// Collaboration types a partner can apply for.
const (
	CollaborationAffiliate        = "AFFILIATE"
	CollaborationRevenueShare     = "REVENUE_SHARE"
	CollaborationPerformanceBased = "PERFORMANCE_BASED"
	CollaborationJointVenture     = "JOINT_VENTURE"
)

// ValidStatus reports whether s is a known assessment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusSubmitted, StatusReviewed, StatusArchived:
		return true
	}
	return false
}

// Assessment is one partner's run through the questionnaire.
type Assessment struct {
	ID                string `gorm:"primaryKey;size:36"`
	Status            string `gorm:"size:32;index"`
	RespondentEmail   string `gorm:"size:255;index"`
	RespondentName    string `gorm:"size:255"`
	CompanyName       string `gorm:"size:255"`
	CollaborationType string `gorm:"size:32"`
	Notes             string `gorm:"type:text"`
	SubmittedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Section groups questions and carries the section maximum.
type Section struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"index"`
	MaxScore    float64
	Questions   []Question `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is a single prompt. ShowIfValue holds the string form of the
// controlling answer that reveals it.
type Question struct {
	ID               string `gorm:"primaryKey;size:36"`
	SectionID        string `gorm:"size:36;index"`
	Type             string `gorm:"size:32"`
	Text             string `gorm:"type:text"`
	Description      string `gorm:"type:text"`
	Weight           float64
	Required         bool
	SortOrder        int
	MinValue         *float64
	MaxValue         *float64
	ShowIfQuestionID string  `gorm:"size:36;index"`
	ShowIfValue      *string `gorm:"size:255"`
	Category         string  `gorm:"size:32"`
	DelegateType     string  `gorm:"size:32"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Response stores an answer as text; one row per question and assessment.
type Response struct {
	ID           string `gorm:"primaryKey;size:36"`
	AssessmentID string `gorm:"size:36;uniqueIndex:idx_responses_assessment_question"`
	QuestionID   string `gorm:"size:36;uniqueIndex:idx_responses_assessment_question"`
	Value        string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Score is a persisted calculator result.
type Score struct {
	ID                string `gorm:"primaryKey;size:36"`
	AssessmentID      string `gorm:"size:36;index"`
	TotalScore        float64
	MaxScore          float64
	Percentage        float64
	SectionScoresJSON string    `gorm:"type:text"`
	CalculatedAt      time.Time `gorm:"index"`
}

// DecisionBand is a persisted recommendation for a score.
type DecisionBand struct {
	ID            string `gorm:"primaryKey;size:36"`
	AssessmentID  string `gorm:"size:36;index"`
	ScoreID       string `gorm:"size:36;index"`
	Decision      string `gorm:"size:32;index"`
	Explanation   string `gorm:"type:text"`
	RiskFlagsJSON string `gorm:"type:text"`
	CreatedAt     time.Time
}

// AdminOverride is the audit row written whenever an admin replaces a score.
type AdminOverride struct {
	ID               string `gorm:"primaryKey;size:36"`
	AssessmentID     string `gorm:"size:36;index"`
	ScoreID          string `gorm:"size:36"`
	AdminEmail       string `gorm:"size:255"`
	PreviousScore    float64
	NewScore         float64
	PreviousDecision string `gorm:"size:32"`
	NewDecision      string `gorm:"size:32"`
	Reason           string `gorm:"type:text"`
	CreatedAt        time.Time
}

func (a *Assessment) BeforeCreate(*gorm.DB) error {
	a.ID = ensureID(a.ID)
	if a.Status == "" {
		a.Status = StatusDraft
	}
	return nil
}

func (s *Section) BeforeCreate(*gorm.DB) error {
	s.ID = ensureID(s.ID)
	return nil
}

func (q *Question) BeforeCreate(*gorm.DB) error {
	q.ID = ensureID(q.ID)
	return nil
}

func (r *Response) BeforeCreate(*gorm.DB) error {
	r.ID = ensureID(r.ID)
	return nil
}

func (s *Score) BeforeCreate(*gorm.DB) error {
	s.ID = ensureID(s.ID)
	if s.CalculatedAt.IsZero() {
		s.CalculatedAt = time.Now().UTC()
	}
	return nil
}

func (b *DecisionBand) BeforeCreate(*gorm.DB) error {
	b.ID = ensureID(b.ID)
	return nil
}

func (o *AdminOverride) BeforeCreate(*gorm.DB) error {
	o.ID = ensureID(o.ID)
	return nil
}

func ensureID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

// SetSectionScores persists the per-section breakdown as JSON.
func (s *Score) SetSectionScores(v any) {
	payload, err := json.Marshal(v)
	if err != nil || string(payload) == "null" {
		s.SectionScoresJSON = "[]"
		return
	}
	s.SectionScoresJSON = string(payload)
}

// DecodeSectionScores unmarshals the stored breakdown into out.
func (s *Score) DecodeSectionScores(out any) error {
	if strings.TrimSpace(s.SectionScoresJSON) == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.SectionScoresJSON), out)
}

// SetRiskFlags persists the flag list as JSON.
func (b *DecisionBand) SetRiskFlags(flags []string) {
	if flags == nil {
		b.RiskFlagsJSON = "[]"
		return
	}
	payload, _ := json.Marshal(flags)
	b.RiskFlagsJSON = string(payload)
}

// RiskFlags returns the decoded flag list.
func (b *DecisionBand) RiskFlags() []string {
	if strings.TrimSpace(b.RiskFlagsJSON) == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(b.RiskFlagsJSON), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
