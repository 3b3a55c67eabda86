// Package postgres implements ports.RunHistoryRepository, an additive
// queryable history of completed runs alongside the primary JSON sink.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gohypo/internal/errors"
	"gohypo/ports"
)

// Repository persists run summaries to a bias_engine_runs table.
type Repository struct {
	db *sqlx.DB
}

// New creates a Repository over an already-connected database handle.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the bias_engine_runs table if it does not already exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bias_engine_runs (
			analysis_date     TEXT PRIMARY KEY,
			analysis_version  TEXT NOT NULL,
			execution_count   INTEGER NOT NULL,
			reliability_level TEXT NOT NULL,
			confidence_level  TEXT NOT NULL,
			recorded_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to migrate bias_engine_runs table")
	}
	return nil
}

func (r *Repository) RecordRun(ctx context.Context, summary ports.RunHistorySummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bias_engine_runs (analysis_date, analysis_version, execution_count, reliability_level, confidence_level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (analysis_date) DO UPDATE SET
			analysis_version = EXCLUDED.analysis_version,
			execution_count = EXCLUDED.execution_count,
			reliability_level = EXCLUDED.reliability_level,
			confidence_level = EXCLUDED.confidence_level,
			recorded_at = NOW()
	`, summary.AnalysisDate, summary.AnalysisVersion, summary.ExecutionCount, summary.ReliabilityLevel, summary.ConfidenceLevel)
	if err != nil {
		return errors.StorageWrite("failed to record run history", err)
	}
	return nil
}

func (r *Repository) GetRun(ctx context.Context, date string) (*ports.RunHistorySummary, error) {
	var summary ports.RunHistorySummary
	row := r.db.QueryRowxContext(ctx, `
		SELECT analysis_date, analysis_version, execution_count, reliability_level, confidence_level
		FROM bias_engine_runs WHERE analysis_date = $1
	`, date)
	if err := row.Scan(&summary.AnalysisDate, &summary.AnalysisVersion, &summary.ExecutionCount, &summary.ReliabilityLevel, &summary.ConfidenceLevel); err != nil {
		return nil, errors.StorageRead(fmt.Sprintf("no run history for %s", date), err)
	}
	return &summary, nil
}

func (r *Repository) ListRuns(ctx context.Context, limit int) ([]ports.RunHistorySummary, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT analysis_date, analysis_version, execution_count, reliability_level, confidence_level
		FROM bias_engine_runs ORDER BY analysis_date DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.StorageRead("failed to list run history", err)
	}
	defer rows.Close()

	var out []ports.RunHistorySummary
	for rows.Next() {
		var summary ports.RunHistorySummary
		if err := rows.Scan(&summary.AnalysisDate, &summary.AnalysisVersion, &summary.ExecutionCount, &summary.ReliabilityLevel, &summary.ConfidenceLevel); err != nil {
			return nil, errors.StorageRead("failed to scan run history row", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

var _ ports.RunHistoryRepository = (*Repository)(nil)
