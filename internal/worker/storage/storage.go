package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apidomain "github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetScrapedJob loads the full record behind a pipeline message.
func (s *Storage) GetScrapedJob(ctx context.Context, id string) (*model.ScrapedJob, error) {
	query := `
		SELECT id, external_id, source, typesense_id,
		       company, title, description, url, city, state, lat, lng,
		       pay_min, pay_max, pay_type, urgent, easy_apply, onet_code, posted_at,
		       transit_score, transit_distance_m, transit_bus, transit_rail,
		       shift_morning, shift_afternoon, shift_evening, shift_overnight, shift_weekend, shift_source,
		       second_chance_tier, second_chance_score, second_chance_confidence, second_chance_signals, second_chance_reasoning,
		       status, scraped_at, enriched_at, indexed_at, failure_reason, failure_stage
		FROM scraped_jobs
		WHERE id = $1
	`

	var job model.ScrapedJob
	err := s.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobGone
		}
		return nil, fmt.Errorf("failed to get scraped job: %w", err)
	}

	return &job, nil
}

// SaveEnrichment writes all computed signals in one update and moves the
// record to "enriched", clearing any earlier failure.
func (s *Storage) SaveEnrichment(ctx context.Context, id string, e *domain.Enrichment) error {
	query := `
		UPDATE scraped_jobs
		SET transit_score = $2,
		    transit_distance_m = $3,
		    transit_bus = $4,
		    transit_rail = $5,
		    shift_morning = $6,
		    shift_afternoon = $7,
		    shift_evening = $8,
		    shift_overnight = $9,
		    shift_weekend = $10,
		    shift_source = $11,
		    second_chance_tier = $12,
		    second_chance_score = $13,
		    second_chance_confidence = $14,
		    second_chance_signals = $15,
		    second_chance_reasoning = $16,
		    status = $17,
		    enriched_at = NOW(),
		    failure_reason = NULL,
		    failure_stage = NULL
		WHERE id = $1
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		id,
		e.TransitScore,
		e.TransitDistanceM,
		e.TransitBus,
		e.TransitRail,
		e.ShiftMorning,
		e.ShiftAfternoon,
		e.ShiftEvening,
		e.ShiftOvernight,
		e.ShiftWeekend,
		e.ShiftSource,
		e.SecondChanceTier,
		e.SecondChanceScore,
		e.SecondChanceConfidence,
		pq.Array(e.SecondChanceSignals),
		e.SecondChanceReasoning,
		apidomain.StatusEnriched,
	)
	if err != nil {
		return fmt.Errorf("failed to save enrichment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobGone
	}

	s.logger.Info("Enrichment saved",
		slog.String("job_id", id),
		slog.String("second_chance_tier", e.SecondChanceTier),
	)

	return nil
}

// MarkIndexed records the search document id and moves the record to
// "indexed". No status precondition: reindexing an already indexed record
// just refreshes the pointer.
func (s *Storage) MarkIndexed(ctx context.Context, id, typesenseID string) error {
	query := `
		UPDATE scraped_jobs
		SET status = $2,
		    typesense_id = $3,
		    indexed_at = NOW(),
		    failure_reason = NULL,
		    failure_stage = NULL
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, apidomain.StatusIndexed, typesenseID)
	if err != nil {
		return fmt.Errorf("failed to mark indexed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobGone
	}

	return nil
}

// MarkFailed records which pipeline stage broke and why.
func (s *Storage) MarkFailed(ctx context.Context, id, stage, reason string) error {
	query := `
		UPDATE scraped_jobs
		SET status = $2,
		    failure_stage = $3,
		    failure_reason = $4
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id, apidomain.StatusFailed, stage, reason)
	if err != nil {
		return fmt.Errorf("failed to mark failed: %w", err)
	}

	s.logger.Warn("Scraped job marked failed",
		slog.String("job_id", id),
		slog.String("stage", stage),
		slog.String("reason", reason),
	)

	return nil
}

// ListStuckEnriched returns ids of records that reached "enriched" before
// the cutoff but never made it into the index.
func (s *Storage) ListStuckEnriched(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM scraped_jobs
		WHERE status = $1 AND enriched_at < $2
		ORDER BY enriched_at ASC
		LIMIT $3
	`

	var ids []string
	err := s.db.SelectContext(ctx, &ids, query, apidomain.StatusEnriched, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck enriched jobs: %w", err)
	}

	return ids, nil
}

// ListRecentFailed returns ids of records that failed since the cutoff.
func (s *Storage) ListRecentFailed(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM scraped_jobs
		WHERE status = $1 AND scraped_at >= $2
		ORDER BY scraped_at DESC
		LIMIT $3
	`

	var ids []string
	err := s.db.SelectContext(ctx, &ids, query, apidomain.StatusFailed, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent failed jobs: %w", err)
	}

	return ids, nil
}
