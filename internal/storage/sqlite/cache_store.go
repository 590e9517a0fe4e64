package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tracecart/curator/internal/cache"
)

// Compile-time check that Storage implements the cache backend
var _ cache.Store = (*Storage)(nil)

// Get returns the cached entry regardless of expiry, or nil if absent.
func (s *Storage) Get(ctx context.Context, subjectKey, analysisType string) (*cache.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT subject_key, analysis_type, payload, quality_score, created_at, expires_at, hit_count
		FROM analysis_cache
		WHERE subject_key = ? AND analysis_type = ?
	`, subjectKey, analysisType)

	var e cache.Entry
	var payload string
	err := row.Scan(&e.SubjectKey, &e.AnalysisType, &payload, &e.QualityScore,
		&e.CreatedAt, &e.ExpiresAt, &e.HitCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s/%s: %w", subjectKey, analysisType, err)
	}
	e.Payload = []byte(payload)
	return &e, nil
}

// Put creates or overwrites an entry, resetting its hit count.
func (s *Storage) Put(ctx context.Context, e *cache.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache
			(subject_key, analysis_type, payload, quality_score, created_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(subject_key, analysis_type) DO UPDATE SET
			payload = excluded.payload,
			quality_score = excluded.quality_score,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			hit_count = 0
	`, e.SubjectKey, e.AnalysisType, string(e.Payload), e.QualityScore, e.CreatedAt, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s/%s: %w", e.SubjectKey, e.AnalysisType, err)
	}
	return nil
}

// PutIfAbsent inserts only when the composite key is not present.
func (s *Storage) PutIfAbsent(ctx context.Context, e *cache.Entry) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache
			(subject_key, analysis_type, payload, quality_score, created_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(subject_key, analysis_type) DO NOTHING
	`, e.SubjectKey, e.AnalysisType, string(e.Payload), e.QualityScore, e.CreatedAt, e.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to batch-insert cache entry %s/%s: %w", e.SubjectKey, e.AnalysisType, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read batch-insert result: %w", err)
	}
	return n > 0, nil
}

// IncrementHits adds one to the entry's hit count. The single UPDATE is
// atomic at the database level, so concurrent readers never lose counts.
func (s *Storage) IncrementHits(ctx context.Context, subjectKey, analysisType string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_cache SET hit_count = hit_count + 1
		WHERE subject_key = ? AND analysis_type = ?
	`, subjectKey, analysisType)
	if err != nil {
		return fmt.Errorf("failed to increment hit count for %s/%s: %w", subjectKey, analysisType, err)
	}
	return nil
}

// Delete removes one entry.
func (s *Storage) Delete(ctx context.Context, subjectKey, analysisType string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM analysis_cache WHERE subject_key = ? AND analysis_type = ?
	`, subjectKey, analysisType)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry %s/%s: %w", subjectKey, analysisType, err)
	}
	return nil
}

// DeleteAll removes every analysis type for a subject.
func (s *Storage) DeleteAll(ctx context.Context, subjectKey string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM analysis_cache WHERE subject_key = ?
	`, subjectKey)
	if err != nil {
		return fmt.Errorf("failed to delete cache entries for %s: %w", subjectKey, err)
	}
	return nil
}

// DeleteExpired removes entries past their TTL and returns the count.
func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM analysis_cache WHERE expires_at < ?
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted cache entries: %w", err)
	}
	return int(n), nil
}

// Stats aggregates entry counts, hit totals, and the top keys by hits.
func (s *Storage) Stats(ctx context.Context, now time.Time, topN int) (*cache.Stats, error) {
	stats := &cache.Stats{}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(hit_count), 0)
		FROM analysis_cache
	`, now)
	if err := row.Scan(&stats.TotalEntries, &stats.ActiveEntries, &stats.TotalHits); err != nil {
		return nil, fmt.Errorf("failed to aggregate cache stats: %w", err)
	}
	stats.ExpiredEntries = stats.TotalEntries - stats.ActiveEntries

	active := stats.ActiveEntries
	if active < 1 {
		active = 1
	}
	stats.HitRatio = float64(stats.TotalHits) / float64(active)

	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_key, analysis_type, hit_count
		FROM analysis_cache
		ORDER BY hit_count DESC, subject_key ASC, analysis_type ASC
		LIMIT ?
	`, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to query top cache keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kh cache.KeyHits
		if err := rows.Scan(&kh.SubjectKey, &kh.AnalysisType, &kh.HitCount); err != nil {
			return nil, fmt.Errorf("failed to scan top cache key: %w", err)
		}
		stats.TopKeys = append(stats.TopKeys, kh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top cache keys: %w", err)
	}

	return stats, nil
}
