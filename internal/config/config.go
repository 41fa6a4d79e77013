package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"collab-scorecard/backend/internal/match"
	"collab-scorecard/backend/internal/scoring"
)

// RuleSpec is a risk rule as written in the config file.
type RuleSpec struct {
	// Pattern is tested against question text when the question has no category
	Pattern string `yaml:"pattern"`

	// Categories select questions by their declared category
	Categories []string `yaml:"categories"`

	// When lists the triggering conditions; any one raises the flag
	When []scoring.Condition `yaml:"when"`

	Flag     string `yaml:"flag"`
	Severity string `yaml:"severity"`
}

// Config holds scorecard settings loaded from YAML.
type Config struct {
	// LogLevel sets logrus verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format"`

	// Scoring carries the maximum score and decision thresholds
	Scoring scoring.Config `yaml:"scoring"`

	// Rules are appended to the built-in risk rules
	Rules []RuleSpec `yaml:"rules"`

	// ReplaceDefaultRules drops the built-in rules so only Rules apply
	ReplaceDefaultRules bool `yaml:"replace_default_rules"`
}

// DefaultConfig returns the reference questionnaire settings.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Scoring:   scoring.DefaultConfig(),
	}
}

// LoadConfig reads path and merges it over DefaultConfig. A missing file is not
// an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	type yamlScoring struct {
		MaxScore      *float64 `yaml:"max_score"`
		ProceedMin    *float64 `yaml:"proceed_min"`
		SafeguardsMin *float64 `yaml:"safeguards_min"`
	}
	type yamlConfig struct {
		LogLevel            string      `yaml:"log_level"`
		LogFormat           string      `yaml:"log_format"`
		Scoring             yamlScoring `yaml:"scoring"`
		Rules               []RuleSpec  `yaml:"rules"`
		ReplaceDefaultRules bool        `yaml:"replace_default_rules"`
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.LogFormat != "" {
		cfg.LogFormat = raw.LogFormat
	}
	if raw.Scoring.MaxScore != nil {
		cfg.Scoring.MaxScore = *raw.Scoring.MaxScore
	}
	if raw.Scoring.ProceedMin != nil {
		cfg.Scoring.ProceedMin = *raw.Scoring.ProceedMin
	}
	if raw.Scoring.SafeguardsMin != nil {
		cfg.Scoring.SafeguardsMin = *raw.Scoring.SafeguardsMin
	}
	cfg.Rules = raw.Rules
	cfg.ReplaceDefaultRules = raw.ReplaceDefaultRules

	return cfg, nil
}

// Validate checks thresholds and compiles every rule.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.ReplaceDefaultRules && len(c.Rules) == 0 {
		return errors.New("replace_default_rules set without any rules")
	}
	_, err := c.compileRules()
	return err
}

// RiskRules returns the rule set the engine should run. Nil means the built-in
// rules unchanged.
func (c *Config) RiskRules() ([]scoring.RiskRule, error) {
	custom, err := c.compileRules()
	if err != nil {
		return nil, err
	}
	if len(custom) == 0 && !c.ReplaceDefaultRules {
		return nil, nil
	}
	if c.ReplaceDefaultRules {
		return custom, nil
	}
	return append(scoring.DefaultRiskRules(), custom...), nil
}

// Engine builds a scoring engine from the configuration.
func (c *Config) Engine(opts ...scoring.Option) (*scoring.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rules, err := c.RiskRules()
	if err != nil {
		return nil, err
	}
	all := append([]scoring.Option{scoring.WithRules(rules)}, opts...)
	return scoring.NewEngine(c.Scoring, all...), nil
}

func (c *Config) compileRules() ([]scoring.RiskRule, error) {
	rules := make([]scoring.RiskRule, 0, len(c.Rules))
	for i, spec := range c.Rules {
		rule, err := spec.compile()
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s RuleSpec) compile() (scoring.RiskRule, error) {
	if strings.TrimSpace(s.Flag) == "" {
		return scoring.RiskRule{}, errors.New("flag is required")
	}
	if len(s.When) == 0 {
		return scoring.RiskRule{}, errors.New("at least one condition required")
	}

	severity := scoring.Severity(strings.ToLower(s.Severity))
	if severity == "" {
		severity = severityFromFlag(s.Flag)
	}
	if !severity.Valid() {
		return scoring.RiskRule{}, fmt.Errorf("unknown severity %q", s.Severity)
	}

	rule := scoring.RiskRule{Flag: s.Flag, Severity: severity, Conditions: s.When}
	if strings.TrimSpace(s.Pattern) != "" {
		p, err := match.Compile(s.Pattern)
		if err != nil {
			return scoring.RiskRule{}, fmt.Errorf("pattern %q: %w", s.Pattern, err)
		}
		rule.Pattern = p
	}
	for _, c := range s.Categories {
		if c = strings.TrimSpace(c); c != "" {
			rule.Categories = append(rule.Categories, scoring.Category(strings.ToLower(c)))
		}
	}
	if rule.Pattern.IsZero() && len(rule.Categories) == 0 {
		return scoring.RiskRule{}, errors.New("pattern or categories required")
	}
	for _, cond := range s.When {
		switch cond.Kind {
		case scoring.WhenFalsy, scoring.WhenFalse, scoring.WhenBelow, scoring.WhenAtMost:
		case scoring.WhenContains:
			if cond.Text == "" {
				return scoring.RiskRule{}, errors.New("contains condition needs text")
			}
		default:
			return scoring.RiskRule{}, fmt.Errorf("unknown condition %q", cond.Kind)
		}
	}
	return rule, nil
}

// severityFromFlag derives severity from the flag prefix, which is also what the
// decision resolver inspects.
func severityFromFlag(flag string) scoring.Severity {
	lower := strings.ToLower(flag)
	switch {
	case strings.Contains(lower, "non-negotiable"):
		return scoring.SeverityNonNegotiable
	case strings.Contains(lower, "critical"):
		return scoring.SeverityCritical
	default:
		return scoring.SeverityWarning
	}
}
