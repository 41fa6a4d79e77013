package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var topLevelAnswers = map[string]any{
	"q-experience-years":    9,
	"q-track-record":        9,
	"q-references":          true,
	"q-financial-stability": 9,
	"q-budget":              9,
	"q-upfront-investment":  true,
	"q-goal-alignment":      9,
	"q-cultural-fit":        9,
	"q-ethics":              true,
	"q-team-capacity":       9,
	"q-dedicated-resources": true,
	"q-law-compliance":      true,
	"q-standard-terms":      true,
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	server, err := NewServer(Config{
		DBDriver:    "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "scorecard.db"),
		SilentDB:    true,
		SeedIfEmpty: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	router, err := server.Router()
	require.NoError(t, err)
	return server, router
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createAssessment(t *testing.T, r http.Handler) AssessmentDTO {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/assessments", map[string]any{
		"respondent_email":   "partner@example.com",
		"respondent_name":    "Pat Partner",
		"company_name":       "Acme",
		"collaboration_type": "REVENUE_SHARE",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[AssessmentDTO](t, w)
}

func saveAnswers(t *testing.T, r http.Handler, id string, values map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	responses := make([]map[string]any, 0, len(values))
	for qid, v := range values {
		responses = append(responses, map[string]any{"question_id": qid, "value": v})
	}
	return doJSON(t, r, http.MethodPost, "/api/assessments/"+id+"/responses", map[string]any{"responses": responses})
}

func answersWith(overrides map[string]any) map[string]any {
	out := make(map[string]any, len(topLevelAnswers))
	for k, v := range topLevelAnswers {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func submit(t *testing.T, r http.Handler, id string) ResultResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/assessments/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[ResultResponse](t, w)
}

func TestHealthAndConfig(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode[ConfigResponse](t, w)
	assert.Equal(t, 70.0, cfg.Scoring.MaxScore)
	assert.Equal(t, 55.0, cfg.Scoring.ProceedMin)
	assert.Equal(t, 45.0, cfg.Scoring.SafeguardsMin)
	assert.Len(t, cfg.Rules, 6)
}

func TestCreateAssessmentValidation(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/assessments", map[string]any{
		"respondent_email":   "not-an-email",
		"collaboration_type": "AFFILIATE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/assessments", map[string]any{
		"respondent_email":   "partner@example.com",
		"collaboration_type": "FRANCHISE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	a := createAssessment(t, r)
	assert.Equal(t, "DRAFT", a.Status)

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/assessments/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAssessment(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)

	w := doJSON(t, r, http.MethodPatch, "/api/assessments/"+a.ID, map[string]any{"notes": "Follow up in March"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[AssessmentDTO](t, w)
	assert.Equal(t, "Follow up in March", updated.Notes)
	assert.Equal(t, "Acme", updated.CompanyName)

	w = doJSON(t, r, http.MethodPatch, "/api/assessments/"+a.ID, map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/assessments/missing", map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSections(t *testing.T) {
	_, r := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/api/sections", nil)
	require.Equal(t, http.StatusOK, w.Code)

	sections := decode[[]SectionDTO](t, w)
	require.Len(t, sections, 5)
	assert.Equal(t, "Experience & Track Record", sections[0].Title)
	assert.Equal(t, "Compliance & Legal", sections[4].Title)
	require.Len(t, sections[0].Questions, 7)
	assert.Equal(t, "q-experience-years", sections[0].Questions[0].ID)
	require.NotNil(t, sections[0].Questions[3].ShowIfValue)
	assert.Equal(t, "true", *sections[0].Questions[3].ShowIfValue)
}

func TestSaveResponses(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)

	w := saveAnswers(t, r, a.ID, map[string]any{"q-experience-years": 7, "q-references": true, "q-reference-name": "Jo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[[]ResponseDTO](t, w)
	assert.Len(t, saved, 3)

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/responses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]ResponseDTO](t, w)
	values := map[string]string{}
	for _, resp := range listed {
		values[resp.QuestionID] = resp.Value.String()
	}
	assert.Equal(t, "7", values["q-experience-years"])
	assert.Equal(t, "true", values["q-references"])
	assert.Equal(t, "Jo", values["q-reference-name"])
	assert.Contains(t, w.Body.String(), `"value":7`)
	assert.Contains(t, w.Body.String(), `"value":true`)

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID, nil)
	assert.Equal(t, "IN_PROGRESS", decode[AssessmentDTO](t, w).Status)

	w = saveAnswers(t, r, a.ID, map[string]any{"q-unknown": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = saveAnswers(t, r, a.ID, map[string]any{"q-experience-years": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = saveAnswers(t, r, "missing", map[string]any{"q-experience-years": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgress(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	progress := decode[ProgressResponse](t, w)
	assert.False(t, progress.Complete)
	assert.Len(t, progress.MissingRequired, 10)
	assert.NotContains(t, progress.VisibleQuestionIDs, "q-reference-name")

	require.Equal(t, http.StatusOK, saveAnswers(t, r, a.ID, answersWith(map[string]any{"q-law-compliance": false})).Code)
	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/progress", nil)
	progress = decode[ProgressResponse](t, w)
	assert.True(t, progress.Complete)
	assert.Contains(t, progress.VisibleQuestionIDs, "q-reference-name")
	assert.Contains(t, progress.VisibleQuestionIDs, "q-compliance-concerns")
	assert.Contains(t, progress.VisibleQuestionIDs, "q-team-members")
	assert.NotContains(t, progress.VisibleQuestionIDs, "q-team-size")
	assert.Equal(t, 13, progress.AnsweredCount)
}

func TestSubmitProceed(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)
	require.Equal(t, http.StatusOK, saveAnswers(t, r, a.ID, topLevelAnswers).Code)

	result := submit(t, r, a.ID)
	assert.Equal(t, "SUBMITTED", result.Assessment.Status)
	assert.Equal(t, 66.0, result.Score.TotalScore)
	assert.Equal(t, 70.0, result.Score.MaxScore)
	assert.Equal(t, 94.29, result.Score.Percentage)
	require.Len(t, result.Score.SectionScores, 5)
	assert.Equal(t, 18.5, result.Score.SectionScores[1].EarnedScore)
	assert.Equal(t, "PROCEED", result.DecisionBand.Decision)
	assert.Empty(t, result.DecisionBand.RiskFlags)
	assert.Equal(t, result.Score.ID, result.DecisionBand.ScoreID)

	w := doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode[ResultResponse](t, w)
	assert.Equal(t, result.Score.ID, stored.Score.ID)
	assert.Equal(t, result.Score.SectionScores, stored.Score.SectionScores)
}

func TestSubmitScenarios(t *testing.T) {
	tests := []struct {
		name      string
		answers   map[string]any
		decision  string
		total     float64
		wantFlag  string
		flagCount int
	}{
		{
			name:     "weak finances downgrade proceed",
			answers:  answersWith(map[string]any{"q-financial-stability": 1}),
			decision: "PROCEED_WITH_SAFEGUARDS",
			total:    59.6,
			wantFlag: "Critical: Financial concerns identified",
		},
		{
			name:     "declined compliance is non-negotiable",
			answers:  answersWith(map[string]any{"q-law-compliance": false}),
			decision: "PROCEED_WITH_SAFEGUARDS",
			total:    61,
			wantFlag: "Non-negotiable: Compliance agreement not accepted",
		},
		{
			name:     "limited experience is a warning only",
			answers:  answersWith(map[string]any{"q-experience-years": 2}),
			decision: "PROCEED",
			total:    62.5,
			wantFlag: "Warning: Limited experience indicated",
		},
		{
			name:      "nothing answered pauses",
			answers:   map[string]any{},
			decision:  "PAUSE",
			total:     0,
			wantFlag:  `Warning: Required question unanswered - "How many years of experience do you have in this i"...`,
			flagCount: 10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, r := newTestServer(t)
			a := createAssessment(t, r)
			if len(tc.answers) > 0 {
				require.Equal(t, http.StatusOK, saveAnswers(t, r, a.ID, tc.answers).Code)
			}
			result := submit(t, r, a.ID)
			assert.Equal(t, tc.decision, result.DecisionBand.Decision)
			assert.InDelta(t, tc.total, result.Score.TotalScore, 0.001)
			assert.Contains(t, result.DecisionBand.RiskFlags, tc.wantFlag)
			if tc.flagCount > 0 {
				assert.Len(t, result.DecisionBand.RiskFlags, tc.flagCount)
			}
		})
	}
}

func TestResultBeforeSubmit(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/result", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "has not been submitted")

	w = doJSON(t, r, http.MethodPost, "/api/assessments/missing/submit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverride(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/admin/assessments/"+a.ID+"/override", map[string]any{"new_score": 50, "reason": "manual"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, saveAnswers(t, r, a.ID, answersWith(map[string]any{"q-financial-stability": 1})).Code)
	submitted := submit(t, r, a.ID)
	require.NotEmpty(t, submitted.DecisionBand.RiskFlags)

	w = doJSON(t, r, http.MethodPost, "/api/admin/assessments/"+a.ID+"/override", map[string]any{"new_score": 80, "reason": "typo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/admin/assessments/"+a.ID+"/override", map[string]any{"new_score": 60})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/admin/assessments/"+a.ID+"/override", map[string]any{"new_score": -1, "reason": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/admin/assessments/"+a.ID+"/override", map[string]any{
		"new_score": 60,
		"reason":    "Financial statements verified",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	overridden := decode[OverrideResponse](t, w)

	assert.Equal(t, "REVIEWED", overridden.Assessment.Status)
	assert.Equal(t, 60.0, overridden.Score.TotalScore)
	assert.Equal(t, 85.71, overridden.Score.Percentage)
	assert.Equal(t, submitted.Score.ID, overridden.Score.ID)
	assert.Equal(t, "PROCEED", overridden.DecisionBand.Decision)
	assert.Equal(t, "Strong alignment indicators. Recommended to proceed with collaboration.", overridden.DecisionBand.Explanation)
	assert.Equal(t, submitted.DecisionBand.RiskFlags, overridden.DecisionBand.RiskFlags)
	assert.Equal(t, "admin@system", overridden.Override.AdminEmail)
	assert.Equal(t, 59.6, overridden.Override.PreviousScore)
	assert.Equal(t, "PROCEED_WITH_SAFEGUARDS", overridden.Override.PreviousDecision)

	w = doJSON(t, r, http.MethodGet, "/api/admin/assessments/"+a.ID+"/overrides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]AdminOverrideDTO](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/result", nil)
	assert.Equal(t, "PROCEED", decode[ResultResponse](t, w).DecisionBand.Decision)
}

func TestAdminListingAndExport(t *testing.T) {
	_, r := newTestServer(t)
	first := createAssessment(t, r)
	second := createAssessment(t, r)
	require.Equal(t, http.StatusOK, saveAnswers(t, r, second.ID, topLevelAnswers).Code)
	submit(t, r, second.ID)

	w := doJSON(t, r, http.MethodGet, "/api/admin/assessments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[AssessmentsResponse](t, w)
	assert.Equal(t, int64(2), list.Total)

	w = doJSON(t, r, http.MethodGet, "/api/admin/assessments?status=SUBMITTED", nil)
	list = decode[AssessmentsResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, second.ID, list.Items[0].ID)

	w = doJSON(t, r, http.MethodGet, "/api/admin/export.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "assessment_id,respondent_email"))
	assert.Contains(t, w.Body.String(), second.ID+",partner@example.com,Pat Partner,Acme,REVENUE_SHARE,SUBMITTED,66.00,70.00,94.29,PROCEED,,")
	assert.Contains(t, w.Body.String(), first.ID+",partner@example.com,Pat Partner,Acme,REVENUE_SHARE,DRAFT,,,,,,")
}

func TestReport(t *testing.T) {
	_, r := newTestServer(t)
	a := createAssessment(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, saveAnswers(t, r, a.ID, topLevelAnswers).Code)
	submit(t, r, a.ID)

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "## Decision: Proceed")
	assert.Contains(t, w.Body.String(), "**Total score:** 66 / 70 (94.29%)")

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/report?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<table>")

	w = doJSON(t, r, http.MethodGet, "/api/assessments/"+a.ID+"/report?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminStream(t *testing.T) {
	server, r := newTestServer(t)
	ts := httptest.NewServer(r)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/admin/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	a := createAssessment(t, r)
	require.Equal(t, http.StatusOK, saveAnswers(t, r, a.ID, topLevelAnswers).Code)
	submit(t, r, a.ID)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event SubmissionEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventSubmitted, event.Type)
	assert.Equal(t, a.ID, event.AssessmentID)
	assert.Equal(t, "PROCEED", event.Decision)
	assert.Equal(t, 66.0, event.TotalScore)

	assert.Equal(t, 1, server.Notifier().ClientCount())

	last := server.Notifier().Last()
	require.NotNil(t, last)
	assert.Equal(t, a.ID, last.AssessmentID)
}
