package api

import (
	"time"

	"collab-scorecard/backend/internal/scoring"
	"collab-scorecard/backend/internal/store"
)

// CreateAssessmentRequest opens a new draft assessment.
type CreateAssessmentRequest struct {
	RespondentEmail   string `json:"respondent_email" binding:"required,email"`
	RespondentName    string `json:"respondent_name"`
	CompanyName       string `json:"company_name"`
	CollaborationType string `json:"collaboration_type" binding:"required,oneof=AFFILIATE REVENUE_SHARE PERFORMANCE_BASED JOINT_VENTURE"`
	Notes             string `json:"notes"`
}

// UpdateAssessmentRequest patches assessment metadata. Omitted fields are kept.
type UpdateAssessmentRequest struct {
	RespondentName    *string `json:"respondent_name"`
	CompanyName       *string `json:"company_name"`
	CollaborationType *string `json:"collaboration_type" binding:"omitempty,oneof=AFFILIATE REVENUE_SHARE PERFORMANCE_BASED JOINT_VENTURE"`
	Notes             *string `json:"notes"`
	Status            *string `json:"status" binding:"omitempty,oneof=DRAFT IN_PROGRESS SUBMITTED REVIEWED ARCHIVED"`
}

// ResponseInput is a single answer in a save request.
type ResponseInput struct {
	QuestionID string        `json:"question_id" binding:"required"`
	Value      scoring.Value `json:"value"`
}

// SaveResponsesRequest upserts answers for an assessment.
type SaveResponsesRequest struct {
	Responses []ResponseInput `json:"responses" binding:"required,dive"`
}

// OverrideRequest replaces the latest score of an assessment.
type OverrideRequest struct {
	NewScore   *float64 `json:"new_score" binding:"required,gte=0"`
	Reason     string   `json:"reason" binding:"required"`
	AdminEmail string   `json:"admin_email" binding:"omitempty,email"`
}

// AssessmentDTO is the API representation of an assessment.
type AssessmentDTO struct {
	ID                string     `json:"id"`
	Status            string     `json:"status"`
	RespondentEmail   string     `json:"respondent_email"`
	RespondentName    string     `json:"respondent_name,omitempty"`
	CompanyName       string     `json:"company_name,omitempty"`
	CollaborationType string     `json:"collaboration_type"`
	Notes             string     `json:"notes,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AssessmentsResponse holds a page of assessments.
type AssessmentsResponse struct {
	Items []AssessmentDTO `json:"items"`
	Total int64           `json:"total"`
}

// QuestionDTO is the API representation of a question.
type QuestionDTO struct {
	ID               string   `json:"id"`
	SectionID        string   `json:"section_id"`
	Type             string   `json:"type"`
	Text             string   `json:"text"`
	Description      string   `json:"description,omitempty"`
	Weight           float64  `json:"weight"`
	Required         bool     `json:"required"`
	Order            int      `json:"order"`
	MinValue         *float64 `json:"min_value,omitempty"`
	MaxValue         *float64 `json:"max_value,omitempty"`
	ShowIfQuestionID string   `json:"show_if_question_id,omitempty"`
	ShowIfValue      *string  `json:"show_if_value,omitempty"`
	Category         string   `json:"category,omitempty"`
	DelegateType     string   `json:"delegate_type,omitempty"`
}

// SectionDTO is a section with its ordered questions.
type SectionDTO struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Order       int           `json:"order"`
	MaxScore    float64       `json:"max_score"`
	Questions   []QuestionDTO `json:"questions"`
}

// ResponseDTO is a stored answer with its value decoded for the question type.
type ResponseDTO struct {
	ID           string        `json:"id"`
	QuestionID   string        `json:"question_id"`
	AssessmentID string        `json:"assessment_id"`
	Value        scoring.Value `json:"value"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ScoreDTO is a persisted score.
type ScoreDTO struct {
	ID            string                 `json:"id"`
	AssessmentID  string                 `json:"assessment_id"`
	TotalScore    float64                `json:"total_score"`
	MaxScore      float64                `json:"max_score"`
	Percentage    float64                `json:"percentage"`
	SectionScores []scoring.SectionScore `json:"section_scores"`
	CalculatedAt  time.Time              `json:"calculated_at"`
}

// DecisionBandDTO is a persisted recommendation.
type DecisionBandDTO struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	ScoreID      string    `json:"score_id"`
	Decision     string    `json:"decision"`
	Explanation  string    `json:"explanation"`
	RiskFlags    []string  `json:"risk_flags"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultResponse bundles an assessment with its latest outcome.
type ResultResponse struct {
	Assessment   AssessmentDTO   `json:"assessment"`
	Score        ScoreDTO        `json:"score"`
	DecisionBand DecisionBandDTO `json:"decision_band"`
}

// AdminOverrideDTO is an audit row.
type AdminOverrideDTO struct {
	ID               string    `json:"id"`
	AssessmentID     string    `json:"assessment_id"`
	ScoreID          string    `json:"score_id"`
	AdminEmail       string    `json:"admin_email"`
	PreviousScore    float64   `json:"previous_score"`
	NewScore         float64   `json:"new_score"`
	PreviousDecision string    `json:"previous_decision"`
	NewDecision      string    `json:"new_decision"`
	Reason           string    `json:"reason"`
	CreatedAt        time.Time `json:"created_at"`
}

// OverrideResponse reports the rows changed by an override.
type OverrideResponse struct {
	ResultResponse
	Override AdminOverrideDTO `json:"override"`
}

// MissingQuestionDTO names a visible required question without an answer.
type MissingQuestionDTO struct {
	ID        string `json:"id"`
	SectionID string `json:"section_id"`
	Text      string `json:"text"`
}

// ProgressResponse summarises how far a respondent is through the questionnaire.
type ProgressResponse struct {
	AssessmentID       string               `json:"assessment_id"`
	VisibleQuestionIDs []string             `json:"visible_question_ids"`
	VisibleCount       int                  `json:"visible_count"`
	AnsweredCount      int                  `json:"answered_count"`
	MissingRequired    []MissingQuestionDTO `json:"missing_required"`
	Complete           bool                 `json:"complete"`
}

// RuleDTO describes an active risk rule.
type RuleDTO struct {
	Flag       string   `json:"flag"`
	Severity   string   `json:"severity"`
	Pattern    string   `json:"pattern,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// ConfigResponse exposes the scoring constants and rule set.
type ConfigResponse struct {
	Scoring scoring.Config `json:"scoring"`
	Rules   []RuleDTO      `json:"rules"`
}

// ValidationErrorResponse carries field-level problems.
type ValidationErrorResponse struct {
	Error  string          `json:"error"`
	Issues []scoring.Issue `json:"issues"`
}

// AssessmentFromModel converts a store row into its DTO.
func AssessmentFromModel(a store.Assessment) AssessmentDTO {
	return AssessmentDTO{
		ID:                a.ID,
		Status:            a.Status,
		RespondentEmail:   a.RespondentEmail,
		RespondentName:    a.RespondentName,
		CompanyName:       a.CompanyName,
		CollaborationType: a.CollaborationType,
		Notes:             a.Notes,
		SubmittedAt:       a.SubmittedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// SectionFromModel converts a section and its questions.
func SectionFromModel(s store.Section) SectionDTO {
	questions := make([]QuestionDTO, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, QuestionDTO{
			ID:               q.ID,
			SectionID:        q.SectionID,
			Type:             q.Type,
			Text:             q.Text,
			Description:      q.Description,
			Weight:           q.Weight,
			Required:         q.Required,
			Order:            q.SortOrder,
			MinValue:         q.MinValue,
			MaxValue:         q.MaxValue,
			ShowIfQuestionID: q.ShowIfQuestionID,
			ShowIfValue:      q.ShowIfValue,
			Category:         q.Category,
			DelegateType:     q.DelegateType,
		})
	}
	return SectionDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Order:       s.SortOrder,
		MaxScore:    s.MaxScore,
		Questions:   questions,
	}
}

// ScoreFromModel converts a stored score, decoding its section breakdown.
func ScoreFromModel(s store.Score) ScoreDTO {
	return ScoreDTO{
		ID:            s.ID,
		AssessmentID:  s.AssessmentID,
		TotalScore:    s.TotalScore,
		MaxScore:      s.MaxScore,
		Percentage:    s.Percentage,
		SectionScores: sectionScores(s),
		CalculatedAt:  s.CalculatedAt,
	}
}

// DecisionBandFromModel converts a stored band.
func DecisionBandFromModel(b store.DecisionBand) DecisionBandDTO {
	return DecisionBandDTO{
		ID:           b.ID,
		AssessmentID: b.AssessmentID,
		ScoreID:      b.ScoreID,
		Decision:     b.Decision,
		Explanation:  b.Explanation,
		RiskFlags:    b.RiskFlags(),
		CreatedAt:    b.CreatedAt,
	}
}

// OverrideFromModel converts an audit row.
func OverrideFromModel(o store.AdminOverride) AdminOverrideDTO {
	return AdminOverrideDTO{
		ID:               o.ID,
		AssessmentID:     o.AssessmentID,
		ScoreID:          o.ScoreID,
		AdminEmail:       o.AdminEmail,
		PreviousScore:    o.PreviousScore,
		NewScore:         o.NewScore,
		PreviousDecision: o.PreviousDecision,
		NewDecision:      o.NewDecision,
		Reason:           o.Reason,
		CreatedAt:        o.CreatedAt,
	}
}

func sectionScores(s store.Score) []scoring.SectionScore {
	out := []scoring.SectionScore{}
	if err := s.DecodeSectionScores(&out); err != nil || out == nil {
		return []scoring.SectionScore{}
	}
	return out
}
