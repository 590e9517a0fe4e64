package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecart/curator/internal/cache"
	"github.com/tracecart/curator/internal/types"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "curator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCacheStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	entry := &cache.Entry{
		SubjectKey:   "sess-1",
		AnalysisType: "vision",
		Payload:      []byte(`{"clarity":80}`),
		QualityScore: 80,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, store.Put(ctx, entry))

	got, err := store.Get(ctx, "sess-1", "vision")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Payload, got.Payload)
	assert.Equal(t, int64(0), got.HitCount)

	missing, err := store.Get(ctx, "sess-1", "insight")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCacheStore_PutOverwritesAndResetsHits(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now().UTC()

	e := &cache.Entry{SubjectKey: "k", AnalysisType: "t", Payload: []byte(`"v1"`),
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Put(ctx, e))
	require.NoError(t, store.IncrementHits(ctx, "k", "t"))

	e.Payload = []byte(`"v2"`)
	require.NoError(t, store.Put(ctx, e))

	got, err := store.Get(ctx, "k", "t")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v2"`), []byte(got.Payload))
	assert.Equal(t, int64(0), got.HitCount)
}

func TestCacheStore_PutIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now().UTC()

	e := &cache.Entry{SubjectKey: "k", AnalysisType: "t", Payload: []byte(`"v1"`),
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	inserted, err := store.PutIfAbsent(ctx, e)
	require.NoError(t, err)
	assert.True(t, inserted)

	e2 := &cache.Entry{SubjectKey: "k", AnalysisType: "t", Payload: []byte(`"v2"`),
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	inserted, err = store.PutIfAbsent(ctx, e2)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := store.Get(ctx, "k", "t")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v1"`), []byte(got.Payload))
}

func TestCacheStore_DeleteExpiredAndStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now().UTC()

	live := &cache.Entry{SubjectKey: "live", AnalysisType: "t", Payload: []byte(`1`),
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := &cache.Entry{SubjectKey: "dead", AnalysisType: "t", Payload: []byte(`2`),
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, store.Put(ctx, live))
	require.NoError(t, store.Put(ctx, dead))
	require.NoError(t, store.IncrementHits(ctx, "live", "t"))
	require.NoError(t, store.IncrementHits(ctx, "live", "t"))

	stats, err := store.Stats(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ActiveEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.Equal(t, int64(2), stats.TotalHits)
	require.NotEmpty(t, stats.TopKeys)
	assert.Equal(t, "live", stats.TopKeys[0].SubjectKey)

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err = store.Stats(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 0, stats.ExpiredEntries)
}

func TestCacheStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now().UTC()

	for _, typ := range []string{"vision", "insight"} {
		require.NoError(t, store.Put(ctx, &cache.Entry{
			SubjectKey: "k", AnalysisType: typ, Payload: []byte(`1`),
			CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
	}

	require.NoError(t, store.DeleteAll(ctx, "k"))

	for _, typ := range []string{"vision", "insight"} {
		got, err := store.Get(ctx, "k", typ)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestTrends_AppendAndQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, action := range []types.RuleAction{types.ActionAccept, types.ActionReject, types.ActionWarn} {
		require.NoError(t, store.AppendTrend(ctx, &types.QualityTrend{
			ID:             string(rune('a' + i)),
			SessionID:      "sess-1",
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			OverallScore:   float64(60 + 10*i),
			CategoryScores: types.CategoryScores{"reliability": 50},
			Action:         action,
		}))
	}

	all, err := store.TrendsBetween(ctx, base, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, types.ActionAccept, all[0].Action)
	assert.Equal(t, 50.0, all[0].CategoryScores["reliability"])

	windowed, err := store.TrendsBetween(ctx, base.Add(30*time.Minute), base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, types.ActionReject, windowed[0].Action)
}
