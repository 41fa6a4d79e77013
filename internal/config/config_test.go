package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-scorecard/backend/internal/scoring"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scorecard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultConfig(), cfg.Scoring)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `log_level: debug
scoring:
  proceed_min: 60
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 70.0, cfg.Scoring.MaxScore)
	assert.Equal(t, 60.0, cfg.Scoring.ProceedMin)
	assert.Equal(t, 45.0, cfg.Scoring.SafeguardsMin)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "scoring: [not, a, map")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.ProceedMin = 30
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring:")

	cfg = DefaultConfig()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())
}

func TestCustomRulesAppendToDefaults(t *testing.T) {
	path := writeConfig(t, `rules:
  - pattern: "territory|region"
    when:
      - kind: contains
        text: worldwide
    flag: "Warning: Territory scope unclear"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	rules, err := cfg.RiskRules()
	require.NoError(t, err)
	require.Len(t, rules, len(scoring.DefaultRiskRules())+1)

	custom := rules[len(rules)-1]
	assert.Equal(t, scoring.SeverityWarning, custom.Severity)
	assert.True(t, custom.Applies(scoring.Question{Text: "Which Region do you cover?"}))
	assert.True(t, custom.Triggered(scoring.Text("Worldwide, eventually")))
}

func TestReplaceDefaultRules(t *testing.T) {
	path := writeConfig(t, `replace_default_rules: true
rules:
  - categories: [financial]
    when:
      - kind: below
        threshold: 5
    flag: "Critical: Budget below policy"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	engine, err := cfg.Engine()
	require.NoError(t, err)
	rules := engine.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, scoring.SeverityCritical, rules[0].Severity)

	questions := []scoring.Question{{ID: "q", Type: scoring.NumericScale, Text: "Budget", Category: scoring.CategoryFinancial, Weight: 5, Required: true}}
	flags := engine.DetectRiskFlags(questions, []scoring.Response{{QuestionID: "q", Value: scoring.Number(4)}})
	assert.Equal(t, []string{"Critical: Budget below policy"}, flags)
}

func TestDefaultRulesWhenNoneConfigured(t *testing.T) {
	rules, err := DefaultConfig().RiskRules()
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestRuleSpecErrors(t *testing.T) {
	tests := []struct {
		name string
		spec RuleSpec
	}{
		{"missing flag", RuleSpec{Pattern: "x", When: []scoring.Condition{{Kind: scoring.WhenFalse}}}},
		{"missing target", RuleSpec{Flag: "Warning: x", When: []scoring.Condition{{Kind: scoring.WhenFalse}}}},
		{"blank categories", RuleSpec{Categories: []string{" "}, Flag: "Warning: x", When: []scoring.Condition{{Kind: scoring.WhenFalse}}}},
		{"missing conditions", RuleSpec{Pattern: "x", Flag: "Warning: x"}},
		{"bad regex", RuleSpec{Pattern: "(x", Flag: "Warning: x", When: []scoring.Condition{{Kind: scoring.WhenFalse}}}},
		{"bad severity", RuleSpec{Pattern: "x", Flag: "Warning: x", Severity: "fatal", When: []scoring.Condition{{Kind: scoring.WhenFalse}}}},
		{"bad condition", RuleSpec{Pattern: "x", Flag: "Warning: x", When: []scoring.Condition{{Kind: "equals"}}}},
		{"empty contains", RuleSpec{Pattern: "x", Flag: "Warning: x", When: []scoring.Condition{{Kind: scoring.WhenContains}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Rules = []RuleSpec{tc.spec}
			assert.Error(t, cfg.Validate())
		})
	}
}
