package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecart/curator/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CURATOR_DB_PATH", "/tmp/alt.db")
	t.Setenv("CURATOR_CACHE_TTL_HOURS", "6")
	t.Setenv("CURATOR_RELIABILITY_FLOOR", "0.7")
	t.Setenv("CURATOR_VISION_ENABLED", "false")
	t.Setenv("CURATOR_CONCURRENCY", "8")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/alt.db", cfg.DBPath)
	assert.Equal(t, 6, cfg.CacheTTLHours)
	assert.Equal(t, 0.7, cfg.ReliabilityFloor)
	assert.False(t, cfg.VisionEnabled)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("CURATOR_CACHE_TTL_HOURS", "not-a-number")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_OutOfRange(t *testing.T) {
	t.Setenv("CURATOR_RELIABILITY_FLOOR", "1.5")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestValidate_Ranges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTLHours = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Concurrency = 100
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RulesPath = "/no/such/file.yaml"
	assert.Error(t, cfg.Validate())
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: reject-low-reliability
    name: Reject low reliability
    category: reliability
    min_score: 0
    max_score: 40
    action: reject
    priority: 0
    enabled: true
    conditions:
      - field: completeness
        operator: lt
        value: 60
        logical_operator: AND
  - id: accept-strong
    name: Accept strong sessions
    category: overall
    min_score: 70
    max_score: 100
    action: accept
    priority: 10
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "reject-low-reliability", rules[0].ID)
	assert.Equal(t, types.CategoryReliability, rules[0].Category)
	assert.Equal(t, types.ActionReject, rules[0].Action)
	require.Len(t, rules[0].Conditions, 1)
	assert.Equal(t, types.OpLT, rules[0].Conditions[0].Operator)
	assert.Equal(t, 60.0, rules[0].Conditions[0].Value)
}

func TestLoadRules_Failures(t *testing.T) {
	_, err := LoadRules("/no/such/rules.yaml")
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("rules: []\n"), 0o644))
	_, err = LoadRules(empty)
	assert.Error(t, err)
}

func TestSaveRulesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	rules := []types.QualityThresholdRule{
		{ID: "r1", Name: "R1", Category: types.CategoryOverall,
			MinScore: 50, MaxScore: 70, Action: types.ActionWarn, Priority: 5, Enabled: true},
	}

	require.NoError(t, SaveRules(path, rules))
	loaded, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, rules[0], loaded[0])
}
