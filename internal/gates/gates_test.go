package gates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecart/curator/internal/types"
)

func newTestGate(t *testing.T, rules []types.QualityThresholdRule) (*Gate, *MemoryTrendLog) {
	t.Helper()
	registry, err := NewRegistryWithRules(rules)
	require.NoError(t, err)
	trends := NewMemoryTrendLog()
	gate, err := New(&Config{Registry: registry, Trends: trends})
	require.NoError(t, err)
	return gate, trends
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestAssess_RejectOverridesLowerPriority(t *testing.T) {
	// R1 rejects on low reliability at priority 1; R2 flags at priority 0.
	// Both trigger; reject must win despite the higher priority value.
	rules := []types.QualityThresholdRule{
		{ID: "r1", Name: "R1", Category: types.CategoryReliability,
			MinScore: 0, MaxScore: 50, Action: types.ActionReject, Priority: 1, Enabled: true},
		{ID: "r2", Name: "R2", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionFlag, Priority: 0, Enabled: true},
	}
	gate, _ := newTestGate(t, rules)

	assessment := gate.Assess(context.Background(), "sess-1", types.CategoryScores{
		"reliability": 30,
		"overall":     60,
	})

	require.Len(t, assessment.ThresholdResults, 2)
	assert.Equal(t, types.ActionReject, assessment.FinalAction)
	assert.False(t, assessment.TrainingEligible)
}

func TestAssess_LowestPriorityWinsWithoutReject(t *testing.T) {
	rules := []types.QualityThresholdRule{
		{ID: "warn", Name: "Warn", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionWarn, Priority: 5, Enabled: true},
		{ID: "flag", Name: "Flag", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionFlag, Priority: 10, Enabled: true},
	}
	gate, _ := newTestGate(t, rules)

	assessment := gate.Assess(context.Background(), "sess-1", types.CategoryScores{"overall": 60})

	assert.Equal(t, types.ActionWarn, assessment.FinalAction)
	assert.True(t, assessment.TrainingEligible)
}

func TestAssess_NoTriggeredRuleDefaultsToAccept(t *testing.T) {
	rules := []types.QualityThresholdRule{
		{ID: "r", Name: "Out of range", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 20, Action: types.ActionReject, Priority: 0, Enabled: true},
	}
	gate, _ := newTestGate(t, rules)

	assessment := gate.Assess(context.Background(), "sess-1", types.CategoryScores{"overall": 90})

	assert.Empty(t, assessment.ThresholdResults)
	assert.Equal(t, types.ActionAccept, assessment.FinalAction)
	assert.True(t, assessment.TrainingEligible)
}

func TestAssess_DisabledRulesSkipped(t *testing.T) {
	rules := []types.QualityThresholdRule{
		{ID: "r", Name: "Disabled reject", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionReject, Priority: 0, Enabled: false},
	}
	gate, _ := newTestGate(t, rules)

	assessment := gate.Assess(context.Background(), "sess-1", types.CategoryScores{"overall": 10})

	assert.Equal(t, types.ActionAccept, assessment.FinalAction)
}

func TestAssess_ConditionsGateRuleTrigger(t *testing.T) {
	rules := []types.QualityThresholdRule{
		{ID: "cond", Name: "Reject only when both weak", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionReject, Priority: 0, Enabled: true,
			Conditions: []types.RuleCondition{
				{Field: "reliability", Operator: types.OpLT, Value: 40, Logical: types.LogicalAND},
				{Field: "completeness", Operator: types.OpLT, Value: 40},
			}},
	}
	gate, _ := newTestGate(t, rules)
	ctx := context.Background()

	weak := gate.Assess(ctx, "s1", types.CategoryScores{"overall": 50, "reliability": 30, "completeness": 20})
	assert.Equal(t, types.ActionReject, weak.FinalAction)

	mixed := gate.Assess(ctx, "s2", types.CategoryScores{"overall": 50, "reliability": 30, "completeness": 80})
	assert.Equal(t, types.ActionAccept, mixed.FinalAction, "AND chain fails when one side fails")
}

func TestAssess_OrConditionChain(t *testing.T) {
	rules := []types.QualityThresholdRule{
		{ID: "cond", Name: "Flag when either weak", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionFlag, Priority: 0, Enabled: true,
			Conditions: []types.RuleCondition{
				{Field: "reliability", Operator: types.OpLT, Value: 40, Logical: types.LogicalOR},
				{Field: "completeness", Operator: types.OpLT, Value: 40},
			}},
	}
	gate, _ := newTestGate(t, rules)

	assessment := gate.Assess(context.Background(), "s1",
		types.CategoryScores{"overall": 50, "reliability": 90, "completeness": 20})

	assert.Equal(t, types.ActionFlag, assessment.FinalAction)
}

func TestAssess_MissingConditionFieldNeverTriggers(t *testing.T) {
	rules := []types.QualityThresholdRule{
		{ID: "cond", Name: "Depends on absent field", Category: types.CategoryOverall,
			MinScore: 0, MaxScore: 100, Action: types.ActionReject, Priority: 0, Enabled: true,
			Conditions: []types.RuleCondition{
				{Field: "no_such_field", Operator: types.OpGT, Value: 1},
			}},
	}
	gate, _ := newTestGate(t, rules)

	assessment := gate.Assess(context.Background(), "s1", types.CategoryScores{"overall": 50})

	assert.Equal(t, types.ActionAccept, assessment.FinalAction)
}

func TestAssess_OverallDerivedFromCategoryMean(t *testing.T) {
	gate, _ := newTestGate(t, nil)

	assessment := gate.Assess(context.Background(), "s1", types.CategoryScores{
		"reliability":  40,
		"completeness": 80,
	})

	assert.Equal(t, 60.0, assessment.OverallScore)
}

func TestAssess_TrendLogged(t *testing.T) {
	gate, trends := newTestGate(t, DefaultRules())

	gate.Assess(context.Background(), "sess-1", types.CategoryScores{
		"overall": 80, "reliability": 90, "completeness": 85,
		"consistency": 75, "training_readiness": 70,
	})

	logged, err := trends.TrendsBetween(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "sess-1", logged[0].SessionID)
	assert.NotEmpty(t, logged[0].ID)
}

// failingTrendLog always errors; assessment must not care.
type failingTrendLog struct{}

func (failingTrendLog) AppendTrend(context.Context, *types.QualityTrend) error {
	return errors.New("trend store down")
}
func (failingTrendLog) TrendsBetween(context.Context, time.Time, time.Time) ([]*types.QualityTrend, error) {
	return nil, errors.New("trend store down")
}

func TestAssess_TrendFailureDoesNotFailAssessment(t *testing.T) {
	registry, err := NewRegistryWithRules(DefaultRules())
	require.NoError(t, err)
	gate, err := New(&Config{Registry: registry, Trends: failingTrendLog{}})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assessment := gate.Assess(context.Background(), "s1", types.CategoryScores{"overall": 80})
		assert.NotNil(t, assessment)
	})
}

func TestAssess_Recommendations(t *testing.T) {
	gate, _ := newTestGate(t, DefaultRules())

	assessment := gate.Assess(context.Background(), "s1", types.CategoryScores{
		"overall": 40, "reliability": 60, "completeness": 90,
		"consistency": 80, "training_readiness": 75,
	})

	// Overall (40) sits below both the warn floor (50) and the accept
	// floor (70); the larger gap drives the recommendation.
	require.NotEmpty(t, assessment.Recommendations)
	assert.Contains(t, assessment.Recommendations[0], "overall")
	assert.Contains(t, assessment.Recommendations[0], "30 points below")
	assert.NotEmpty(t, assessment.ImprovementSuggestions)
}

func TestAssessMany_IndependentPerSession(t *testing.T) {
	gate, trends := newTestGate(t, DefaultRules())

	out := gate.AssessMany(context.Background(), map[string]types.CategoryScores{
		"good": {"overall": 90, "reliability": 95, "completeness": 90, "consistency": 90, "training_readiness": 85},
		"bad":  {"overall": 80, "reliability": 20, "completeness": 90, "consistency": 90, "training_readiness": 85},
	})

	require.Len(t, out, 2)
	assert.Equal(t, types.ActionAccept, out["good"].FinalAction)
	assert.Equal(t, types.ActionReject, out["bad"].FinalAction)

	logged, err := trends.TrendsBetween(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, logged, 2)
}

func TestMetrics_Aggregation(t *testing.T) {
	gate, _ := newTestGate(t, DefaultRules())
	ctx := context.Background()

	gate.AssessMany(ctx, map[string]types.CategoryScores{
		"a": {"overall": 90, "reliability": 95, "completeness": 90, "consistency": 90, "training_readiness": 85},
		"b": {"overall": 80, "reliability": 20, "completeness": 90, "consistency": 90, "training_readiness": 85},
		"c": {"overall": 60, "reliability": 70, "completeness": 80, "consistency": 75, "training_readiness": 65},
	})

	metrics, err := gate.Metrics(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.Sessions)
	assert.Equal(t, 1, metrics.ActionCounts[types.ActionReject])
	assert.Equal(t, 1, metrics.ActionCounts[types.ActionAccept])
	assert.Equal(t, 1, metrics.ActionCounts[types.ActionWarn])
	assert.InDelta(t, 2.0/3.0, metrics.EligibleRatio, 1e-9)
	assert.InDelta(t, (90.0+80.0+60.0)/3.0, metrics.AverageOverall, 1e-9)
}

func TestRegistry_Validation(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Add(types.QualityThresholdRule{
		Name: "inverted", Category: types.CategoryOverall,
		MinScore: 80, MaxScore: 20, Action: types.ActionFlag,
	})
	assert.Error(t, err, "min above max is rejected at registration")

	_, err = registry.Add(types.QualityThresholdRule{
		Name: "bad op", Category: types.CategoryOverall,
		MinScore: 0, MaxScore: 100, Action: types.ActionFlag,
		Conditions: []types.RuleCondition{{Field: "overall", Operator: "like"}},
	})
	assert.Error(t, err, "unknown operator is rejected at registration")

	_, err = registry.Add(types.QualityThresholdRule{
		Name: "bad category", Category: "vibes",
		MinScore: 0, MaxScore: 100, Action: types.ActionFlag,
	})
	assert.Error(t, err)

	rule, err := registry.Add(types.QualityThresholdRule{
		Name: "ok", Category: types.CategoryOverall,
		MinScore: 0, MaxScore: 100, Action: types.ActionFlag,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID, "empty ID gets a generated UUID")
}

func TestRegistry_SnapshotSortedByPriority(t *testing.T) {
	registry := NewRegistry()
	for _, r := range []types.QualityThresholdRule{
		{ID: "c", Name: "C", Category: types.CategoryOverall, MinScore: 0, MaxScore: 100, Action: types.ActionWarn, Priority: 20},
		{ID: "a", Name: "A", Category: types.CategoryOverall, MinScore: 0, MaxScore: 100, Action: types.ActionReject, Priority: 0},
		{ID: "b", Name: "B", Category: types.CategoryOverall, MinScore: 0, MaxScore: 100, Action: types.ActionFlag, Priority: 10},
	} {
		_, err := registry.Add(r)
		require.NoError(t, err)
	}

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{snapshot[0].ID, snapshot[1].ID, snapshot[2].ID})
}

func TestRegistry_UpdateAndRemove(t *testing.T) {
	registry := NewRegistry()
	rule, err := registry.Add(types.QualityThresholdRule{
		ID: "r", Name: "R", Category: types.CategoryOverall,
		MinScore: 0, MaxScore: 100, Action: types.ActionFlag,
	})
	require.NoError(t, err)

	rule.Action = types.ActionWarn
	require.NoError(t, registry.Update(rule))
	got, ok := registry.Get("r")
	require.True(t, ok)
	assert.Equal(t, types.ActionWarn, got.Action)

	require.NoError(t, registry.Remove("r"))
	_, ok = registry.Get("r")
	assert.False(t, ok)
	assert.Error(t, registry.Remove("r"))
}
