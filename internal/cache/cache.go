// Package cache provides a TTL-based store for expensive derived
// analyses, keyed by (subjectKey, analysisType).
//
// The cache is strictly an optimization: every backend failure on read
// degrades to a miss and every failure on write degrades to a no-op, so
// callers never fail because the cache is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTTL is applied when Put is called with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Entry is one cached analysis result. Entries are immutable except for
// HitCount, which the backend increments atomically on successful reads.
type Entry struct {
	SubjectKey   string
	AnalysisType string
	Payload      json.RawMessage
	QualityScore float64
	CreatedAt    time.Time
	ExpiresAt    time.Time
	HitCount     int64
}

// Expired reports whether the entry is past its TTL at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// KeyHits pairs a composite key with its hit count for stats reporting.
type KeyHits struct {
	SubjectKey   string `json:"subject_key"`
	AnalysisType string `json:"analysis_type"`
	HitCount     int64  `json:"hit_count"`
}

// Stats summarizes cache state at a point in time.
type Stats struct {
	TotalEntries   int       `json:"total_entries"`
	ActiveEntries  int       `json:"active_entries"`
	ExpiredEntries int       `json:"expired_entries"`
	TotalHits      int64     `json:"total_hits"`
	HitRatio       float64   `json:"hit_ratio"` // TotalHits / max(ActiveEntries, 1)
	TopKeys        []KeyHits `json:"top_keys"`
}

// Store is the persistence backend the cache delegates to. Implementations
// must make IncrementHits atomic (no lost updates under concurrent reads
// of the same key) and must tolerate Put racing EvictExpired on the same
// key with last-writer-wins semantics.
type Store interface {
	// Get returns the entry regardless of expiry, or nil if absent.
	Get(ctx context.Context, subjectKey, analysisType string) (*Entry, error)
	// Put creates or overwrites an entry.
	Put(ctx context.Context, e *Entry) error
	// PutIfAbsent inserts only when no entry exists for the composite key;
	// returns false when the key was already present.
	PutIfAbsent(ctx context.Context, e *Entry) (bool, error)
	// IncrementHits atomically adds one to the entry's hit count.
	IncrementHits(ctx context.Context, subjectKey, analysisType string) error
	// Delete removes one entry; DeleteAll removes every type for a key.
	Delete(ctx context.Context, subjectKey, analysisType string) error
	DeleteAll(ctx context.Context, subjectKey string) error
	// DeleteExpired removes entries expired at now, returning the count.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	// Stats aggregates entry counts and hit totals as of now.
	Stats(ctx context.Context, now time.Time, topN int) (*Stats, error)
}

// Cache is the TTL cache facade over a Store.
type Cache struct {
	store Store
	ttl   time.Duration
	topN  int

	// now is injectable for TTL tests.
	now func() time.Time
}

// Config holds cache configuration
type Config struct {
	Store Store
	TTL   time.Duration    // default TTL for Put (default: 24h)
	TopN  int              // number of top keys reported by Stats (default: 10)
	Now   func() time.Time // clock override, used in tests
}

// New creates a cache over the given store
func New(cfg *Config) (*Cache, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{store: cfg.Store, ttl: ttl, topN: topN, now: now}, nil
}

// Put stores payload under (subjectKey, analysisType), overwriting any
// existing entry and resetting its hit count. A non-positive ttl uses the
// cache default. Backend failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, subjectKey, analysisType string, payload any, qualityScore float64, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	entry := &Entry{
		SubjectKey:   subjectKey,
		AnalysisType: analysisType,
		Payload:      raw,
		QualityScore: qualityScore,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		slog.Warn("cache put failed, continuing without caching",
			"subject", subjectKey, "type", analysisType, "error", err)
	}
	return nil
}

// Get returns the cached payload for (subjectKey, analysisType), or false
// on a miss. Expired entries are misses but are not deleted here;
// eviction is a separate operation. A hit increments the entry's hit
// count exactly once.
func (c *Cache) Get(ctx context.Context, subjectKey, analysisType string) (json.RawMessage, bool) {
	entry, err := c.store.Get(ctx, subjectKey, analysisType)
	if err != nil {
		slog.Warn("cache get failed, treating as miss",
			"subject", subjectKey, "type", analysisType, "error", err)
		return nil, false
	}
	if entry == nil || entry.Expired(c.now()) {
		return nil, false
	}
	if err := c.store.IncrementHits(ctx, subjectKey, analysisType); err != nil {
		slog.Warn("cache hit-count update failed",
			"subject", subjectKey, "type", analysisType, "error", err)
	}
	return entry.Payload, true
}

// GetInto unmarshals a cached payload into out, returning false on a
// miss or decode failure.
func (c *Cache) GetInto(ctx context.Context, subjectKey, analysisType string, out any) bool {
	raw, ok := c.Get(ctx, subjectKey, analysisType)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Warn("cache payload decode failed, treating as miss",
			"subject", subjectKey, "type", analysisType, "error", err)
		return false
	}
	return true
}

// Invalidate deletes the entry for (subjectKey, analysisType); with an
// empty analysisType it deletes every entry for the subject.
func (c *Cache) Invalidate(ctx context.Context, subjectKey, analysisType string) error {
	if analysisType == "" {
		if err := c.store.DeleteAll(ctx, subjectKey); err != nil {
			return fmt.Errorf("failed to invalidate subject %s: %w", subjectKey, err)
		}
		return nil
	}
	if err := c.store.Delete(ctx, subjectKey, analysisType); err != nil {
		return fmt.Errorf("failed to invalidate %s/%s: %w", subjectKey, analysisType, err)
	}
	return nil
}

// EvictExpired deletes every entry past its TTL and returns the count.
func (c *Cache) EvictExpired(ctx context.Context) (int, error) {
	n, err := c.store.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, fmt.Errorf("failed to evict expired entries: %w", err)
	}
	return n, nil
}

// BatchEntry is one warm-up record for BatchPut.
type BatchEntry struct {
	SubjectKey   string
	AnalysisType string
	Payload      any
	QualityScore float64
	TTL          time.Duration
}

// BatchPut bulk-inserts entries, skipping any whose composite key already
// exists. Unlike single Put, batch mode never overwrites. Returns the
// number of entries inserted.
func (c *Cache) BatchPut(ctx context.Context, entries []BatchEntry) (int, error) {
	inserted := 0
	for _, be := range entries {
		raw, err := json.Marshal(be.Payload)
		if err != nil {
			return inserted, fmt.Errorf("failed to marshal batch payload for %s/%s: %w",
				be.SubjectKey, be.AnalysisType, err)
		}
		ttl := be.TTL
		if ttl <= 0 {
			ttl = c.ttl
		}
		now := c.now()
		ok, err := c.store.PutIfAbsent(ctx, &Entry{
			SubjectKey:   be.SubjectKey,
			AnalysisType: be.AnalysisType,
			Payload:      raw,
			QualityScore: be.QualityScore,
			CreatedAt:    now,
			ExpiresAt:    now.Add(ttl),
		})
		if err != nil {
			slog.Warn("cache batch insert failed, skipping entry",
				"subject", be.SubjectKey, "type", be.AnalysisType, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// Stats reports aggregate cache statistics.
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	stats, err := c.store.Stats(ctx, c.now(), c.topN)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cache stats: %w", err)
	}
	return stats, nil
}
