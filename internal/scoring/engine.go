package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reference constants of the collaboration questionnaire.
const (
	DefaultMaxScore      = 70.0
	DefaultProceedMin    = 55.0
	DefaultSafeguardsMin = 45.0
)

// Config carries the domain constants the engine scores against. MaxScore is the
// denominator of Score.Percentage and does not depend on section maxima.
type Config struct {
	MaxScore      float64 `json:"max_score" yaml:"max_score"`
	ProceedMin    float64 `json:"proceed_min" yaml:"proceed_min"`
	SafeguardsMin float64 `json:"safeguards_min" yaml:"safeguards_min"`
}

// DefaultConfig returns the reference questionnaire constants.
func DefaultConfig() Config {
	return Config{
		MaxScore:      DefaultMaxScore,
		ProceedMin:    DefaultProceedMin,
		SafeguardsMin: DefaultSafeguardsMin,
	}
}

// Validate rejects configurations that cannot produce a meaningful band.
func (c Config) Validate() error {
	if c.MaxScore <= 0 {
		return errors.New("max score must be positive")
	}
	if c.SafeguardsMin < 0 {
		return errors.New("safeguards threshold must not be negative")
	}
	if c.ProceedMin < c.SafeguardsMin {
		return fmt.Errorf("proceed threshold %.2f below safeguards threshold %.2f", c.ProceedMin, c.SafeguardsMin)
	}
	if c.ProceedMin > c.MaxScore {
		return fmt.Errorf("proceed threshold %.2f above max score %.2f", c.ProceedMin, c.MaxScore)
	}
	return nil
}

// Engine runs the scoring pipeline with a fixed configuration and rule set.
// It holds no mutable state and may be shared between goroutines.
type Engine struct {
	cfg   Config
	rules []RiskRule
	newID func() string
	now   func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithRules replaces the default risk rules. A nil slice keeps the defaults.
func WithRules(rules []RiskRule) Option {
	return func(e *Engine) {
		if rules != nil {
			e.rules = rules
		}
	}
}

// WithIDGenerator overrides identity generation for scores and bands.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewEngine builds an engine. A zero MaxScore falls back to the reference constants.
func NewEngine(cfg Config, opts ...Option) *Engine {
	if cfg.MaxScore <= 0 {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:   cfg,
		rules: DefaultRiskRules(),
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the constants the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Rules returns a copy of the active rule set.
func (e *Engine) Rules() []RiskRule {
	out := make([]RiskRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Result bundles the three pipeline outputs for one submission.
type Result struct {
	Score        Score        `json:"score"`
	RiskFlags    []string     `json:"risk_flags"`
	DecisionBand DecisionBand `json:"decision_band"`
}

// Evaluate runs calculator, detector and resolver over one submission.
func (e *Engine) Evaluate(assessmentID string, sections []Section, questions []Question, responses []Response) Result {
	score := e.CalculateScore(assessmentID, sections, questions, responses)
	flags := e.DetectRiskFlags(questions, responses)
	return Result{
		Score:        score,
		RiskFlags:    flags,
		DecisionBand: e.DetermineDecisionBand(score, flags),
	}
}

var defaultEngine = NewEngine(DefaultConfig())

// CalculateScore scores a submission with the reference constants.
func CalculateScore(assessmentID string, sections []Section, questions []Question, responses []Response) Score {
	return defaultEngine.CalculateScore(assessmentID, sections, questions, responses)
}

// DetermineDecision maps a total onto a band with the reference thresholds.
func DetermineDecision(totalScore float64) Decision {
	return defaultEngine.DetermineDecision(totalScore)
}

// DetermineDecisionBand resolves the band for a score with the reference thresholds.
func DetermineDecisionBand(score Score, riskFlags []string) DecisionBand {
	return defaultEngine.DetermineDecisionBand(score, riskFlags)
}
