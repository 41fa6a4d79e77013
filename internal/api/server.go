package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"collab-scorecard/backend/internal/config"
	"collab-scorecard/backend/internal/report"
	"collab-scorecard/backend/internal/scoring"
	"collab-scorecard/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBDriver       string
	DBDSN          string
	SilentDB       bool
	AllowedOrigins []string
	// Settings carries scoring constants and risk rules; nil uses defaults.
	Settings *config.Config
	// SeedIfEmpty loads the reference questionnaire into an empty database.
	SeedIfEmpty bool
}

// Server wires HTTP handlers with persistence and scoring.
type Server struct {
	db             *store.Database
	engine         *scoring.Engine
	settings       *config.Config
	reports        *report.Renderer
	allowedOrigins []string
	notifier       *SubmissionNotifier
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBDSN) == "" {
		return nil, errors.New("database dsn required")
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	engine, err := settings.Engine()
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	if cfg.SeedIfEmpty {
		count, err := db.CountSections()
		if err != nil {
			return nil, fmt.Errorf("count sections: %w", err)
		}
		if count == 0 {
			if err := db.ReplaceQuestionnaire(store.ReferenceQuestionnaire()); err != nil {
				return nil, fmt.Errorf("seed questionnaire: %w", err)
			}
			logrus.Info("seeded reference questionnaire")
		}
	}

	logrus.WithFields(logrus.Fields{
		"driver":         db.Driver(),
		"max_score":      engine.Config().MaxScore,
		"proceed_min":    engine.Config().ProceedMin,
		"safeguards_min": engine.Config().SafeguardsMin,
		"risk_rules":     len(engine.Rules()),
	}).Info("scoring engine ready")

	return &Server{
		db:             db,
		engine:         engine,
		settings:       settings,
		reports:        report.NewRenderer(),
		allowedOrigins: cfg.AllowedOrigins,
		notifier:       NewSubmissionNotifier(),
	}, nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Notifier exposes the submission event fan-out.
func (s *Server) Notifier() *SubmissionNotifier {
	return s.notifier
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/assessments", s.handleCreateAssessment)
		api.GET("/assessments/:id", s.handleGetAssessment)
		api.PATCH("/assessments/:id", s.handleUpdateAssessment)
		api.GET("/sections", s.handleSections)
		api.POST("/assessments/:id/responses", s.handleSaveResponses)
		api.GET("/assessments/:id/responses", s.handleListResponses)
		api.GET("/assessments/:id/progress", s.handleProgress)
		api.POST("/assessments/:id/submit", s.handleSubmit)
		api.GET("/assessments/:id/result", s.handleResult)
		api.GET("/assessments/:id/report", s.handleReport)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/assessments", s.handleAdminAssessments)
		admin.POST("/assessments/:id/override", s.handleOverride)
		admin.GET("/assessments/:id/overrides", s.handleListOverrides)
		admin.GET("/export.csv", s.handleExportCSV)
		admin.GET("/stream", s.handleStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	rules := s.engine.Rules()
	dtos := make([]RuleDTO, 0, len(rules))
	for _, rule := range rules {
		dto := RuleDTO{Flag: rule.Flag, Severity: string(rule.Severity)}
		if !rule.Pattern.IsZero() {
			dto.Pattern = rule.Pattern.String()
		}
		for _, category := range rule.Categories {
			dto.Categories = append(dto.Categories, string(category))
		}
		dtos = append(dtos, dto)
	}
	c.JSON(http.StatusOK, ConfigResponse{Scoring: s.engine.Config(), Rules: dtos})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// renderStoreError maps persistence sentinels onto HTTP statuses.
func (s *Server) renderStoreError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, store.ErrNoResult):
		s.renderError(c, http.StatusNotFound, errors.New(notFound))
	case errors.Is(err, store.ErrUnknownQuestion):
		s.renderError(c, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrArchived):
		s.renderError(c, http.StatusConflict, err)
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		s.renderError(c, http.StatusInternalServerError, err)
	}
}

func (s *Server) renderValidation(c *gin.Context, err error) bool {
	var verr *scoring.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{Error: verr.Error(), Issues: verr.Issues})
	return true
}

func pageParams(c *gin.Context, defaultSize int) (offset, limit int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	return page * pageSize, pageSize
}
