package gates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tracecart/curator/internal/types"
)

// TrendSink receives append-only trend records, one per assessment.
type TrendSink interface {
	AppendTrend(ctx context.Context, trend *types.QualityTrend) error
}

// TrendSource reads trend records back for aggregate reporting.
type TrendSource interface {
	TrendsBetween(ctx context.Context, since, until time.Time) ([]*types.QualityTrend, error)
}

// TrendLog combines both sides; the SQLite storage implements it.
type TrendLog interface {
	TrendSink
	TrendSource
}

// Gate evaluates category scores against the rule registry.
type Gate struct {
	registry *Registry
	trends   TrendLog
	now      func() time.Time
}

// Config holds gate configuration
type Config struct {
	Registry *Registry
	Trends   TrendLog         // Optional: trend logging is disabled when nil
	Now      func() time.Time // clock override, used in tests
}

// New creates a quality gate
func New(cfg *Config) (*Gate, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{registry: cfg.Registry, trends: cfg.Trends, now: now}, nil
}

// Assess evaluates one session's category scores and returns the gate's
// verdict. Pure except for the trend-log side effect, which never blocks
// or fails the assessment.
func (g *Gate) Assess(ctx context.Context, sessionID string, scores types.CategoryScores) *types.QualityAssessment {
	overall := overallScore(scores)
	rules := g.registry.Snapshot()

	var results []types.ThresholdResult
	var triggered []types.QualityThresholdRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		score, ok := scoreFor(rule.Category, scores, overall)
		if !ok {
			continue
		}
		if score < rule.MinScore || score > rule.MaxScore {
			continue
		}
		if !evaluateConditions(rule.Conditions, scores, overall) {
			continue
		}

		triggered = append(triggered, rule)
		results = append(results, types.ThresholdResult{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Category: rule.Category,
			Score:    score,
			Passed:   rule.Action == types.ActionAccept,
			Action:   rule.Action,
			Message: fmt.Sprintf("rule %q: %s score %.1f within [%.1f, %.1f], action %s",
				rule.Name, rule.Category, score, rule.MinScore, rule.MaxScore, rule.Action),
		})
	}

	final := finalAction(triggered)
	recommendations, suggestions := buildRecommendations(rules, scores, overall)

	assessment := &types.QualityAssessment{
		SessionID:              sessionID,
		OverallScore:           overall,
		CategoryScores:         scores,
		ThresholdResults:       results,
		FinalAction:            final,
		Recommendations:        recommendations,
		ImprovementSuggestions: suggestions,
		TrainingEligible:       final == types.ActionAccept || final == types.ActionWarn,
		AssessedAt:             g.now(),
	}

	g.logTrend(ctx, assessment)

	return assessment
}

// AssessMany applies Assess independently per session; there is no
// cross-session coupling.
func (g *Gate) AssessMany(ctx context.Context, sessions map[string]types.CategoryScores) map[string]*types.QualityAssessment {
	out := make(map[string]*types.QualityAssessment, len(sessions))
	for id, scores := range sessions {
		out[id] = g.Assess(ctx, id, scores)
	}
	return out
}

// finalAction picks the governing action: reject always wins regardless
// of priority, otherwise the lowest-priority-value triggered rule
// (triggered is already priority-ordered), otherwise accept.
func finalAction(triggered []types.QualityThresholdRule) types.RuleAction {
	for _, rule := range triggered {
		if rule.Action == types.ActionReject {
			return types.ActionReject
		}
	}
	if len(triggered) > 0 {
		return triggered[0].Action
	}
	return types.ActionAccept
}

// logTrend appends the assessment to the trend log, swallowing failures.
func (g *Gate) logTrend(ctx context.Context, a *types.QualityAssessment) {
	if g.trends == nil {
		return
	}
	trend := &types.QualityTrend{
		ID:             uuid.New().String(),
		SessionID:      a.SessionID,
		Timestamp:      a.AssessedAt,
		OverallScore:   a.OverallScore,
		CategoryScores: a.CategoryScores,
		Action:         a.FinalAction,
	}
	if err := g.trends.AppendTrend(ctx, trend); err != nil {
		slog.Warn("quality trend logging failed", "session", a.SessionID, "error", err)
	}
}

// overallScore uses an explicit "overall" entry when present, otherwise
// the mean of all category scores.
func overallScore(scores types.CategoryScores) float64 {
	if v, ok := scores[string(types.CategoryOverall)]; ok {
		return v
	}
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// scoreFor resolves the score a rule's category binds to.
func scoreFor(category types.QualityCategory, scores types.CategoryScores, overall float64) (float64, bool) {
	if category == types.CategoryOverall {
		return overall, true
	}
	v, ok := scores[string(category)]
	return v, ok
}
