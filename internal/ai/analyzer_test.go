package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecart/curator/internal/cache"
	"github.com/tracecart/curator/internal/types"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(&cache.Config{Store: cache.NewMemoryStore()})
	require.NoError(t, err)
	return c
}

func TestNewAnalyzer_RequiresCache(t *testing.T) {
	_, err := NewAnalyzer(&Config{APIKey: "test-key"})
	assert.Error(t, err)
}

func TestNewAnalyzer_Defaults(t *testing.T) {
	a, err := NewAnalyzer(&Config{APIKey: "test-key", Cache: newTestCache(t)})
	require.NoError(t, err)

	assert.Equal(t, GetDefaultModel(), a.model)
	assert.NotNil(t, a.circuitBreaker)
	assert.NotNil(t, a.concurrencySem)
	assert.NotNil(t, a.limiter)
}

func TestAnalyzeScreenshot_CacheHitSkipsAPI(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	// Pre-populate the cache; a hit must return without touching the client.
	want := VisionAnalysis{
		Scores:     types.CategoryScores{"overall": 88},
		Insight:    "product listing fully rendered",
		Confidence: 0.9,
	}
	require.NoError(t, c.Put(ctx, screenshotKey("sess-1", 4), AnalysisTypeVision, &want, 88, 0))

	a, err := NewAnalyzer(&Config{APIKey: "test-key", Cache: c})
	require.NoError(t, err)

	got, err := a.AnalyzeScreenshot(ctx, "sess-1", types.Screenshot{EventSequence: 4})
	require.NoError(t, err)
	assert.Equal(t, want.Scores, got.Scores)
	assert.Equal(t, want.Insight, got.Insight)
}

func TestScreenshotKey(t *testing.T) {
	assert.Equal(t, "sess-1:event-4", screenshotKey("sess-1", 4))
	assert.NotEqual(t, screenshotKey("sess-1", 4), screenshotKey("sess-1", 5))
}

func TestModelOverrides(t *testing.T) {
	t.Setenv("CURATOR_MODEL_DEFAULT", "test-model-a")
	t.Setenv("CURATOR_MODEL_SIMPLE", "test-model-b")

	assert.Equal(t, "test-model-a", GetDefaultModel())
	assert.Equal(t, "test-model-b", GetSimpleTaskModel())
}
