package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collab-scorecard/backend/internal/scoring"
	"collab-scorecard/backend/internal/store"
)

const assessmentNotFound = "Assessment not found"

func (s *Server) handleCreateAssessment(c *gin.Context) {
	var req CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	a := &store.Assessment{
		RespondentEmail:   strings.TrimSpace(req.RespondentEmail),
		RespondentName:    strings.TrimSpace(req.RespondentName),
		CompanyName:       strings.TrimSpace(req.CompanyName),
		CollaborationType: req.CollaborationType,
		Notes:             req.Notes,
	}
	if err := s.db.CreateAssessment(a); err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	logrus.WithFields(logrus.Fields{
		"assessment_id":      a.ID,
		"collaboration_type": a.CollaborationType,
	}).Info("assessment created")
	c.JSON(http.StatusCreated, AssessmentFromModel(*a))
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	a, err := s.db.GetAssessment(c.Param("id"))
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	c.JSON(http.StatusOK, AssessmentFromModel(*a))
}

func (s *Server) handleUpdateAssessment(c *gin.Context) {
	var req UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	a, err := s.db.UpdateAssessment(c.Param("id"), store.AssessmentUpdate{
		RespondentName:    req.RespondentName,
		CompanyName:       req.CompanyName,
		CollaborationType: req.CollaborationType,
		Notes:             req.Notes,
		Status:            req.Status,
	})
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	c.JSON(http.StatusOK, AssessmentFromModel(*a))
}

func (s *Server) handleSections(c *gin.Context) {
	sections, err := s.db.ListSections()
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	dtos := make([]SectionDTO, 0, len(sections))
	for _, section := range sections {
		dtos = append(dtos, SectionFromModel(section))
	}
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) handleSaveResponses(c *gin.Context) {
	var req SaveResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	batch := make([]store.Answer, 0, len(req.Responses))
	for i, r := range req.Responses {
		if !r.Value.IsSet() {
			s.renderError(c, http.StatusBadRequest, fmt.Errorf("responses[%d].value is required", i))
			return
		}
		batch = append(batch, store.Answer{QuestionID: r.QuestionID, Value: r.Value.String()})
	}

	id := c.Param("id")
	saved, err := s.db.UpsertResponses(id, batch)
	if err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	dtos, err := s.responseDTOs(saved)
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	logrus.WithFields(logrus.Fields{
		"assessment_id": id,
		"responses":     len(saved),
	}).Debug("responses saved")
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) handleListResponses(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.db.GetAssessment(id); err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	rows, err := s.db.ListResponses(id)
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	dtos, err := s.responseDTOs(rows)
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) responseDTOs(rows []store.Response) ([]ResponseDTO, error) {
	sections, err := s.db.ListSections()
	if err != nil {
		return nil, err
	}
	_, questions := store.Questionnaire(sections)
	typed := answers(rows, questions)
	out := make([]ResponseDTO, 0, len(rows))
	for i, r := range rows {
		out = append(out, ResponseDTO{
			ID:           r.ID,
			QuestionID:   r.QuestionID,
			AssessmentID: r.AssessmentID,
			Value:        typed[i].Value,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Server) handleProgress(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.db.GetAssessment(id); err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	sections, err := s.db.ListSections()
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	rows, err := s.db.ListResponses(id)
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	_, questions := store.Questionnaire(sections)
	responses := answers(rows, questions)

	visible := scoring.VisibleQuestions(questions, responses)
	answered := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = struct{}{}
	}

	out := ProgressResponse{
		AssessmentID:       id,
		VisibleQuestionIDs: make([]string, 0, len(visible)),
		VisibleCount:       len(visible),
		MissingRequired:    []MissingQuestionDTO{},
	}
	for _, q := range visible {
		out.VisibleQuestionIDs = append(out.VisibleQuestionIDs, q.ID)
		if _, ok := answered[q.ID]; ok {
			out.AnsweredCount++
		}
	}
	for _, q := range scoring.MissingRequired(questions, responses) {
		out.MissingRequired = append(out.MissingRequired, MissingQuestionDTO{ID: q.ID, SectionID: q.SectionID, Text: q.Text})
	}
	out.Complete = len(out.MissingRequired) == 0
	c.JSON(http.StatusOK, out)
}
