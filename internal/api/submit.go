package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collab-scorecard/backend/internal/report"
	"collab-scorecard/backend/internal/scoring"
	"collab-scorecard/backend/internal/store"
	"collab-scorecard/backend/internal/util"
)

func (s *Server) handleSubmit(c *gin.Context) {
	timer := util.StartTimer()
	id := c.Param("id")

	assessment, err := s.db.GetAssessment(id)
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	sectionRows, err := s.db.ListSections()
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	responseRows, err := s.db.ListResponses(id)
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}

	sections, questions := store.Questionnaire(sectionRows)
	responses := answers(responseRows, questions)
	if err := scoring.ValidateInput(sections, questions, responses); err != nil {
		if s.renderValidation(c, err) {
			return
		}
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	result := s.engine.Evaluate(id, sections, questions, responses)

	scoreRow := toStoreScore(result.Score)
	bandRow := toStoreBand(result.DecisionBand)
	updated, err := s.db.SaveSubmission(id, scoreRow, bandRow)
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}

	fields := logrus.Fields{
		"assessment_id": id,
		"total_score":   result.Score.TotalScore,
		"decision":      result.DecisionBand.Decision,
		"risk_flags":    len(result.RiskFlags),
		"elapsed_ms":    timer.ElapsedMs(),
	}
	if len(result.RiskFlags) > 0 {
		logrus.WithFields(fields).Warn("assessment submitted with risk flags")
	} else {
		logrus.WithFields(fields).Info("assessment submitted")
	}

	s.notifier.Broadcast(SubmissionEvent{
		Type:         EventSubmitted,
		AssessmentID: id,
		Respondent:   assessment.RespondentEmail,
		Company:      assessment.CompanyName,
		TotalScore:   result.Score.TotalScore,
		Percentage:   result.Score.Percentage,
		Decision:     string(result.DecisionBand.Decision),
		RiskFlags:    result.RiskFlags,
	})

	c.JSON(http.StatusOK, ResultResponse{
		Assessment:   AssessmentFromModel(*updated),
		Score:        ScoreFromModel(*scoreRow),
		DecisionBand: DecisionBandFromModel(*bandRow),
	})
}

func (s *Server) handleResult(c *gin.Context) {
	id := c.Param("id")
	assessment, err := s.db.GetAssessment(id)
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	score, band, err := s.db.LatestResult(id)
	if err != nil {
		s.renderStoreError(c, err, "Assessment has not been submitted")
		return
	}
	c.JSON(http.StatusOK, ResultResponse{
		Assessment:   AssessmentFromModel(*assessment),
		Score:        ScoreFromModel(*score),
		DecisionBand: DecisionBandFromModel(*band),
	})
}

func (s *Server) handleReport(c *gin.Context) {
	id := c.Param("id")
	assessment, err := s.db.GetAssessment(id)
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	score, band, err := s.db.LatestResult(id)
	if err != nil {
		s.renderStoreError(c, err, "Assessment has not been submitted")
		return
	}

	in := report.Input{
		AssessmentID:      assessment.ID,
		Respondent:        firstNonEmpty(assessment.RespondentName, assessment.RespondentEmail),
		Company:           assessment.CompanyName,
		CollaborationType: assessment.CollaborationType,
		Status:            assessment.Status,
		Score:             fromStoreScore(*score),
		DecisionBand:      fromStoreBand(*band),
	}

	switch strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "markdown"))) {
	case "html":
		html, err := s.reports.HTML(in)
		if err != nil {
			s.renderError(c, http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.reports.Markdown(in)))
	default:
		s.renderError(c, http.StatusBadRequest, errUnknownFormat)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
