package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrNoResult is returned when an assessment has never been scored.
	ErrNoResult = errors.New("assessment has not been submitted")
	// ErrUnknownQuestion is returned when a response references a missing question.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrArchived is returned when an archived assessment is modified.
	ErrArchived = errors.New("assessment is archived")
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm   *gorm.DB
	driver string
	mu     sync.Mutex
}

// Open connects to the configured database and migrates the schema. The sqlite
// driver takes a file path as DSN.
func Open(driver, dsn string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	driver = strings.ToLower(strings.TrimSpace(driver))
	var dialector gorm.Dialector
	switch driver {
	case "", DriverSQLite, "sqlite3":
		driver = DriverSQLite
		dialector = sqlite.Open(dsn)
	case DriverPostgres, "postgresql":
		driver = DriverPostgres
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			logrus.WithError(err).Warn("enable WAL mode")
		}
		if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
			logrus.WithError(err).Warn("enable foreign keys")
		}
	}
	if err := db.AutoMigrate(&Assessment{}, &Section{}, &Question{}, &Response{}, &Score{}, &DecisionBand{}, &AdminOverride{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Database{gorm: db, driver: driver}, nil
}

// Driver returns the normalised driver name.
func (d *Database) Driver() string {
	return d.driver
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateAssessment inserts a new draft assessment.
func (d *Database) CreateAssessment(a *Assessment) error {
	if a == nil {
		return errors.New("assessment is nil")
	}
	a.Status = StatusDraft
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(a).Error
}

// GetAssessment loads an assessment by ID. Missing rows yield gorm.ErrRecordNotFound.
func (d *Database) GetAssessment(id string) (*Assessment, error) {
	var a Assessment
	if err := d.gorm.First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// AssessmentUpdate lists the mutable assessment fields; nil fields are untouched.
type AssessmentUpdate struct {
	RespondentName    *string
	CompanyName       *string
	CollaborationType *string
	Notes             *string
	Status            *string
}

// UpdateAssessment applies a partial update and returns the fresh row.
func (d *Database) UpdateAssessment(id string, u AssessmentUpdate) (*Assessment, error) {
	updates := map[string]any{}
	if u.RespondentName != nil {
		updates["respondent_name"] = *u.RespondentName
	}
	if u.CompanyName != nil {
		updates["company_name"] = *u.CompanyName
	}
	if u.CollaborationType != nil {
		updates["collaboration_type"] = *u.CollaborationType
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	if u.Status != nil {
		if !ValidStatus(*u.Status) {
			return nil, fmt.Errorf("invalid status %q", *u.Status)
		}
		updates["status"] = *u.Status
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	var a Assessment
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&a).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&a, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AssessmentQuery filters and pages the admin listing.
type AssessmentQuery struct {
	Status string
	Query  string
	Offset int
	Limit  int
}

// ListAssessments returns assessments newest first with the total match count.
func (d *Database) ListAssessments(opts AssessmentQuery) ([]Assessment, int64, error) {
	base := d.gorm.Model(&Assessment{})
	if status := strings.ToUpper(strings.TrimSpace(opts.Status)); status != "" {
		base = base.Where("status = ?", status)
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(q))
		base = base.Where("LOWER(respondent_email) LIKE ? OR LOWER(company_name) LIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := base.Order("created_at DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var rows []Assessment
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListSections returns the questionnaire ordered by section and question order.
func (d *Database) ListSections() ([]Section, error) {
	var sections []Section
	err := d.gorm.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("sort_order ASC").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

// CountSections returns the number of stored sections.
func (d *Database) CountSections() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Section{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceQuestionnaire swaps the stored sections and questions for the provided set.
func (d *Database) ReplaceQuestionnaire(sections []Section) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Question{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Section{}).Error; err != nil {
			return err
		}
		for i := range sections {
			questions := sections[i].Questions
			section := sections[i]
			section.Questions = nil
			if err := tx.Create(&section).Error; err != nil {
				return fmt.Errorf("create section %q: %w", sections[i].Title, err)
			}
			sections[i].ID = section.ID
			for j := range questions {
				questions[j].SectionID = section.ID
			}
			if len(questions) > 0 {
				if err := tx.CreateInBatches(questions, 100).Error; err != nil {
					return fmt.Errorf("create questions for %q: %w", sections[i].Title, err)
				}
			}
		}
		return nil
	})
}

// ClearAssessments removes every assessment and its dependent rows.
func (d *Database) ClearAssessments() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&AdminOverride{}, &DecisionBand{}, &Score{}, &Response{}, &Assessment{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Answer is an incoming response value already rendered as text.
type Answer struct {
	QuestionID string
	Value      string
}

// UpsertResponses stores answers for an assessment, one row per question, and
// marks the assessment IN_PROGRESS. A later answer for the same question in the
// batch wins.
func (d *Database) UpsertResponses(assessmentID string, answers []Answer) ([]Response, error) {
	order := make([]string, 0, len(answers))
	latest := make(map[string]string, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(a.QuestionID)
		if _, seen := latest[id]; !seen {
			order = append(order, id)
		}
		latest[id] = a.Value
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	var saved []Response
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		var a Assessment
		if err := tx.First(&a, "id = ?", assessmentID).Error; err != nil {
			return err
		}
		if a.Status == StatusArchived {
			return ErrArchived
		}

		if len(order) > 0 {
			var known []string
			if err := tx.Model(&Question{}).Where("id IN ?", order).Pluck("id", &known).Error; err != nil {
				return err
			}
			if len(known) != len(order) {
				return fmt.Errorf("%w: %s", ErrUnknownQuestion, strings.Join(missing(order, known), ", "))
			}

			rows := make([]Response, 0, len(order))
			for _, id := range order {
				rows = append(rows, Response{AssessmentID: assessmentID, QuestionID: id, Value: latest[id]})
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&rows).Error
			if err != nil {
				return err
			}
			if err := tx.Where("assessment_id = ? AND question_id IN ?", assessmentID, order).Find(&saved).Error; err != nil {
				return err
			}
		}

		return tx.Model(&Assessment{}).Where("id = ?", assessmentID).Update("status", StatusInProgress).Error
	})
	if err != nil {
		return nil, err
	}
	if saved == nil {
		saved = []Response{}
	}
	return saved, nil
}

func missing(want, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, h := range have {
		present[h] = struct{}{}
	}
	var out []string
	for _, w := range want {
		if _, ok := present[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

// ListResponses returns all stored answers for an assessment.
func (d *Database) ListResponses(assessmentID string) ([]Response, error) {
	var rows []Response
	if err := d.gorm.Where("assessment_id = ?", assessmentID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveSubmission persists a score and its band and marks the assessment SUBMITTED
// in one transaction.
func (d *Database) SaveSubmission(assessmentID string, score *Score, band *DecisionBand) (*Assessment, error) {
	if score == nil || band == nil {
		return nil, errors.New("score and decision band are required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var a Assessment
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ?", assessmentID).Error; err != nil {
			return err
		}
		if a.Status == StatusArchived {
			return ErrArchived
		}
		score.AssessmentID = assessmentID
		if err := tx.Create(score).Error; err != nil {
			return fmt.Errorf("save score: %w", err)
		}
		band.AssessmentID = assessmentID
		band.ScoreID = score.ID
		if err := tx.Create(band).Error; err != nil {
			return fmt.Errorf("save decision band: %w", err)
		}
		now := time.Now().UTC()
		if err := tx.Model(&a).Updates(map[string]any{"status": StatusSubmitted, "submitted_at": &now}).Error; err != nil {
			return err
		}
		return tx.First(&a, "id = ?", assessmentID).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestResult returns the most recent score and the band stored for it.
func (d *Database) LatestResult(assessmentID string) (*Score, *DecisionBand, error) {
	return latestResult(d.gorm, assessmentID)
}

func latestResult(db *gorm.DB, assessmentID string) (*Score, *DecisionBand, error) {
	var score Score
	err := db.Where("assessment_id = ?", assessmentID).Order("calculated_at DESC").First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNoResult
	}
	if err != nil {
		return nil, nil, err
	}
	var band DecisionBand
	err = db.Where("score_id = ?", score.ID).Order("created_at DESC").First(&band).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNoResult
	}
	if err != nil {
		return nil, nil, err
	}
	return &score, &band, nil
}

// OverrideRequest describes an admin score replacement.
type OverrideRequest struct {
	AssessmentID string
	AdminEmail   string
	Reason       string
	// Resolve computes the replacement total, percentage and decision from the
	// current score.
	Resolve func(current Score) (updated Score, decision, explanation string)
}

// OverrideResult holds the rows touched by an override.
type OverrideResult struct {
	Assessment   Assessment
	Score        Score
	DecisionBand DecisionBand
	Override     AdminOverride
}

// ApplyOverride writes the audit row, replaces the latest score total, updates the
// decision and explanation of its band and marks the assessment REVIEWED. Stored
// risk flags are left untouched.
func (d *Database) ApplyOverride(req OverrideRequest) (*OverrideResult, error) {
	if req.Resolve == nil {
		return nil, errors.New("override resolver is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out OverrideResult
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out.Assessment, "id = ?", req.AssessmentID).Error; err != nil {
			return err
		}
		current, band, err := latestResult(tx, req.AssessmentID)
		if err != nil {
			return err
		}

		updated, decision, explanation := req.Resolve(*current)
		out.Override = AdminOverride{
			AssessmentID:     req.AssessmentID,
			ScoreID:          current.ID,
			AdminEmail:       req.AdminEmail,
			PreviousScore:    current.TotalScore,
			NewScore:         updated.TotalScore,
			PreviousDecision: band.Decision,
			NewDecision:      decision,
			Reason:           req.Reason,
		}
		if err := tx.Create(&out.Override).Error; err != nil {
			return fmt.Errorf("save override audit: %w", err)
		}
		if err := tx.Model(&Score{}).Where("id = ?", current.ID).Updates(map[string]any{
			"total_score": updated.TotalScore,
			"percentage":  updated.Percentage,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&DecisionBand{}).Where("score_id = ?", current.ID).Updates(map[string]any{
			"decision":    decision,
			"explanation": explanation,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&out.Assessment).Update("status", StatusReviewed).Error; err != nil {
			return err
		}

		if err := tx.First(&out.Score, "id = ?", current.ID).Error; err != nil {
			return err
		}
		if err := tx.First(&out.DecisionBand, "id = ?", band.ID).Error; err != nil {
			return err
		}
		return tx.First(&out.Assessment, "id = ?", req.AssessmentID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOverrides returns the audit trail for an assessment, newest first.
func (d *Database) ListOverrides(assessmentID string) ([]AdminOverride, error) {
	var rows []AdminOverride
	if err := d.gorm.Where("assessment_id = ?", assessmentID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ResultRow joins an assessment with its latest outcome for exporting.
type ResultRow struct {
	Assessment   Assessment
	Score        *Score
	DecisionBand *DecisionBand
}

// ListResults returns every assessment, newest first, with its latest result if any.
func (d *Database) ListResults() ([]ResultRow, error) {
	var assessments []Assessment
	if err := d.gorm.Order("created_at DESC").Find(&assessments).Error; err != nil {
		return nil, err
	}
	var scores []Score
	if err := d.gorm.Order("calculated_at DESC").Find(&scores).Error; err != nil {
		return nil, err
	}
	var bands []DecisionBand
	if err := d.gorm.Order("created_at DESC").Find(&bands).Error; err != nil {
		return nil, err
	}

	latestScore := make(map[string]*Score, len(scores))
	for i := range scores {
		if _, ok := latestScore[scores[i].AssessmentID]; !ok {
			latestScore[scores[i].AssessmentID] = &scores[i]
		}
	}
	bandByScore := make(map[string]*DecisionBand, len(bands))
	for i := range bands {
		if _, ok := bandByScore[bands[i].ScoreID]; !ok {
			bandByScore[bands[i].ScoreID] = &bands[i]
		}
	}

	rows := make([]ResultRow, 0, len(assessments))
	for _, a := range assessments {
		row := ResultRow{Assessment: a}
		if s, ok := latestScore[a.ID]; ok {
			row.Score = s
			row.DecisionBand = bandByScore[s.ID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
