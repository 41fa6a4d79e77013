package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collab-scorecard/backend/internal/store"
)

const defaultAdminEmail = "admin@system"

var errUnknownFormat = errors.New("format must be markdown or html")

func (s *Server) handleAdminAssessments(c *gin.Context) {
	offset, limit := pageParams(c, 50)
	rows, total, err := s.db.ListAssessments(store.AssessmentQuery{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	dtos := make([]AssessmentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, AssessmentFromModel(row))
	}
	c.JSON(http.StatusOK, AssessmentsResponse{Items: dtos, Total: total})
}

func (s *Server) handleOverride(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if maxScore := s.engine.Config().MaxScore; *req.NewScore > maxScore {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("new_score must not exceed %.2f", maxScore))
		return
	}
	adminEmail := strings.TrimSpace(req.AdminEmail)
	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}

	id := c.Param("id")
	result, err := s.db.ApplyOverride(store.OverrideRequest{
		AssessmentID: id,
		AdminEmail:   adminEmail,
		Reason:       strings.TrimSpace(req.Reason),
		Resolve: func(current store.Score) (store.Score, string, string) {
			updated, band := s.engine.Override(fromStoreScore(current), *req.NewScore)
			current.TotalScore = updated.TotalScore
			current.Percentage = updated.Percentage
			return current, string(band.Decision), band.Explanation
		},
	})
	if err != nil {
		s.renderStoreError(c, err, "No score found for assessment")
		return
	}

	logrus.WithFields(logrus.Fields{
		"assessment_id":  id,
		"admin":          adminEmail,
		"previous_score": result.Override.PreviousScore,
		"new_score":      result.Override.NewScore,
		"decision":       result.DecisionBand.Decision,
	}).Info("score overridden")

	s.notifier.Broadcast(SubmissionEvent{
		Type:         EventOverridden,
		AssessmentID: id,
		Respondent:   result.Assessment.RespondentEmail,
		Company:      result.Assessment.CompanyName,
		TotalScore:   result.Score.TotalScore,
		Percentage:   result.Score.Percentage,
		Decision:     result.DecisionBand.Decision,
		AdminEmail:   adminEmail,
	})

	c.JSON(http.StatusOK, OverrideResponse{
		ResultResponse: ResultResponse{
			Assessment:   AssessmentFromModel(result.Assessment),
			Score:        ScoreFromModel(result.Score),
			DecisionBand: DecisionBandFromModel(result.DecisionBand),
		},
		Override: OverrideFromModel(result.Override),
	})
}

func (s *Server) handleListOverrides(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.db.GetAssessment(id); err != nil {
		s.renderStoreError(c, err, assessmentNotFound)
		return
	}
	rows, err := s.db.ListOverrides(id)
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}
	dtos := make([]AdminOverrideDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, OverrideFromModel(row))
	}
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	rows, err := s.db.ListResults()
	if err != nil {
		s.renderStoreError(c, err, "")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=collaboration-scorecard-export.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"assessment_id", "respondent_email", "respondent_name", "company_name", "collaboration_type", "status", "total_score", "max_score", "percentage", "decision", "risk_flags", "submitted_at"}
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range rows {
		a := row.Assessment
		line := []string{a.ID, a.RespondentEmail, a.RespondentName, a.CompanyName, a.CollaborationType, a.Status, "", "", "", "", "", ""}
		if row.Score != nil {
			line[6] = strconv.FormatFloat(row.Score.TotalScore, 'f', 2, 64)
			line[7] = strconv.FormatFloat(row.Score.MaxScore, 'f', 2, 64)
			line[8] = strconv.FormatFloat(row.Score.Percentage, 'f', 2, 64)
		}
		if row.DecisionBand != nil {
			line[9] = row.DecisionBand.Decision
			line[10] = strings.Join(row.DecisionBand.RiskFlags(), "|")
		}
		if a.SubmittedAt != nil {
			line[11] = a.SubmittedAt.UTC().Format(time.RFC3339)
		}
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithFields(logrus.Fields{
		"remote":  conn.RemoteAddr().String(),
		"clients": s.notifier.ClientCount(),
	}).Info("admin stream connected")
	defer func() {
		s.notifier.Unregister(client)
		logrus.WithField("clients", s.notifier.ClientCount()).Debug("admin stream released")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("admin stream closed")
			} else {
				logrus.WithError(err).Warn("admin stream unexpected close")
			}
			break
		}
	}
}
