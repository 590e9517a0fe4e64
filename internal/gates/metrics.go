package gates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tracecart/curator/internal/types"
)

// Metrics aggregates the trend log over [since, until). A zero until
// means "no upper bound".
func (g *Gate) Metrics(ctx context.Context, since, until time.Time) (*types.QualityMetrics, error) {
	if g.trends == nil {
		return nil, fmt.Errorf("no trend log configured")
	}
	trends, err := g.trends.TrendsBetween(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to read quality trends: %w", err)
	}

	metrics := &types.QualityMetrics{
		ActionCounts:     make(map[types.RuleAction]int),
		CategoryAverages: make(types.CategoryScores),
	}
	if len(trends) == 0 {
		return metrics, nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	eligible := 0
	overallSum := 0.0
	for _, tr := range trends {
		metrics.Sessions++
		metrics.ActionCounts[tr.Action]++
		overallSum += tr.OverallScore
		if tr.Action == types.ActionAccept || tr.Action == types.ActionWarn {
			eligible++
		}
		for category, score := range tr.CategoryScores {
			sums[category] += score
			counts[category]++
		}
	}

	metrics.AverageOverall = overallSum / float64(metrics.Sessions)
	metrics.EligibleRatio = float64(eligible) / float64(metrics.Sessions)
	for category, sum := range sums {
		metrics.CategoryAverages[category] = sum / float64(counts[category])
	}

	return metrics, nil
}

// MemoryTrendLog is an in-process TrendLog used in tests and when no
// database is configured.
type MemoryTrendLog struct {
	mu     sync.Mutex
	trends []*types.QualityTrend
}

// NewMemoryTrendLog creates an empty in-memory trend log
func NewMemoryTrendLog() *MemoryTrendLog {
	return &MemoryTrendLog{}
}

func (m *MemoryTrendLog) AppendTrend(_ context.Context, trend *types.QualityTrend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trend
	m.trends = append(m.trends, &cp)
	return nil
}

func (m *MemoryTrendLog) TrendsBetween(_ context.Context, since, until time.Time) ([]*types.QualityTrend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.QualityTrend
	for _, tr := range m.trends {
		if tr.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && !tr.Timestamp.Before(until) {
			continue
		}
		cp := *tr
		out = append(out, &cp)
	}
	return out, nil
}
