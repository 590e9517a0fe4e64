package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tracecart/curator/internal/types"
)

// AppendTrend writes one assessment record to the append-only trend log.
// Grounded on the agent event log: records are never updated or deleted
// by the pipeline.
func (s *Storage) AppendTrend(ctx context.Context, trend *types.QualityTrend) error {
	scoresJSON, err := json.Marshal(trend.CategoryScores)
	if err != nil {
		return fmt.Errorf("failed to marshal category scores: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quality_trends (id, session_id, timestamp, overall_score, category_scores, action)
		VALUES (?, ?, ?, ?, ?, ?)
	`, trend.ID, trend.SessionID, trend.Timestamp, trend.OverallScore, string(scoresJSON), string(trend.Action))
	if err != nil {
		return fmt.Errorf("failed to append quality trend for session %s: %w", trend.SessionID, err)
	}
	return nil
}

// TrendsBetween returns trend records in [since, until), oldest first.
// A zero until means "no upper bound".
func (s *Storage) TrendsBetween(ctx context.Context, since, until time.Time) ([]*types.QualityTrend, error) {
	query := `
		SELECT id, session_id, timestamp, overall_score, category_scores, action
		FROM quality_trends
		WHERE timestamp >= ?
	`
	args := []any{since}
	if !until.IsZero() {
		query += " AND timestamp < ?"
		args = append(args, until)
	}
	query += " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quality trends: %w", err)
	}
	defer rows.Close()

	var trends []*types.QualityTrend
	for rows.Next() {
		var tr types.QualityTrend
		var scoresJSON, action string
		if err := rows.Scan(&tr.ID, &tr.SessionID, &tr.Timestamp, &tr.OverallScore, &scoresJSON, &action); err != nil {
			return nil, fmt.Errorf("failed to scan quality trend: %w", err)
		}
		if err := json.Unmarshal([]byte(scoresJSON), &tr.CategoryScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category scores for trend %s: %w", tr.ID, err)
		}
		tr.Action = types.RuleAction(action)
		trends = append(trends, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quality trends: %w", err)
	}

	return trends, nil
}
