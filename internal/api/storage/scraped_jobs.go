package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

// scrapedJobColumns is the full column list, kept in one place so every
// SELECT hydrates the same model.
const scrapedJobColumns = `
	id, external_id, source, typesense_id,
	company, title, description, url, city, state, lat, lng,
	pay_min, pay_max, pay_type, urgent, easy_apply, onet_code, posted_at,
	transit_score, transit_distance_m, transit_bus, transit_rail,
	shift_morning, shift_afternoon, shift_evening, shift_overnight, shift_weekend, shift_source,
	second_chance_tier, second_chance_score, second_chance_confidence, second_chance_signals, second_chance_reasoning,
	status, scraped_at, enriched_at, indexed_at, failure_reason, failure_stage
`

// Storage handles database operations for the API service.
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a new Storage instance
func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// NewStorageWithDB wraps an existing database handle.
func NewStorageWithDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// InsertScrapedJob creates a new record with status "scraped". The unique
// constraint on (external_id, source) backstops the caller's dedup check.
func (s *Storage) InsertScrapedJob(ctx context.Context, job *model.ScrapedJob) error {
	query := `
		INSERT INTO scraped_jobs (
			id, external_id, source,
			company, title, description, url, city, state, lat, lng,
			pay_min, pay_max, pay_type, urgent, easy_apply, onet_code, posted_at,
			status, scraped_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18,
			$19, $20
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.ExternalID,
		job.Source,
		job.Company,
		job.Title,
		job.Description,
		job.URL,
		job.City,
		job.State,
		job.Lat,
		job.Lng,
		job.PayMin,
		job.PayMax,
		job.PayType,
		job.Urgent,
		job.EasyApply,
		job.ONETCode,
		job.PostedAt,
		job.Status,
		job.ScrapedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateScrapedJob
		}
		return fmt.Errorf("failed to insert scraped job: %w", err)
	}

	return nil
}

// GetScrapedJobByID fetches one record by internal id.
func (s *Storage) GetScrapedJobByID(ctx context.Context, id string) (*model.ScrapedJob, error) {
	var job model.ScrapedJob
	query := `SELECT ` + scrapedJobColumns + ` FROM scraped_jobs WHERE id = $1`

	err := s.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScrapedJobNotFound
		}
		return nil, fmt.Errorf("failed to get scraped job: %w", err)
	}

	return &job, nil
}

// GetScrapedJobByExternalID is the dedup fallback: point lookup on the
// composite natural key, used when the dedup cache is unavailable.
func (s *Storage) GetScrapedJobByExternalID(ctx context.Context, externalID, source string) (*model.ScrapedJob, error) {
	var job model.ScrapedJob
	query := `SELECT ` + scrapedJobColumns + ` FROM scraped_jobs WHERE external_id = $1 AND source = $2`

	err := s.db.GetContext(ctx, &job, query, externalID, source)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScrapedJobNotFound
		}
		return nil, fmt.Errorf("failed to get scraped job by external id: %w", err)
	}

	return &job, nil
}

// GetScrapedJobByTypesenseID resolves a search document id back to its record.
func (s *Storage) GetScrapedJobByTypesenseID(ctx context.Context, typesenseID string) (*model.ScrapedJob, error) {
	var job model.ScrapedJob
	query := `SELECT ` + scrapedJobColumns + ` FROM scraped_jobs WHERE typesense_id = $1`

	err := s.db.GetContext(ctx, &job, query, typesenseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScrapedJobNotFound
		}
		return nil, fmt.Errorf("failed to get scraped job by typesense id: %w", err)
	}

	return &job, nil
}

// ScrapedJobFilter narrows the admin listing.
type ScrapedJobFilter struct {
	Status   string
	Source   string
	PageSize int
	Cursor   *ScrapedJobCursor
}

// ScrapedJobCursor is a keyset cursor over (scraped_at, id).
type ScrapedJobCursor struct {
	ScrapedAt time.Time
	ID        string
}

// ListScrapedJobs pages records for the admin listing, newest first.
func (s *Storage) ListScrapedJobs(ctx context.Context, filter ScrapedJobFilter) ([]model.ScrapedJob, error) {
	query := `SELECT ` + scrapedJobColumns + ` FROM scraped_jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argIdx)
		args = append(args, filter.Source)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (scraped_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.ScrapedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY scraped_at DESC, id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []model.ScrapedJob
	err := s.db.SelectContext(ctx, &jobs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scraped jobs: %w", err)
	}

	return jobs, nil
}

// GetRecentFailedScrapedJobs returns records that failed since the cutoff,
// for manual or scheduled retry tooling.
func (s *Storage) GetRecentFailedScrapedJobs(ctx context.Context, since time.Time, limit int) ([]model.ScrapedJob, error) {
	query := `
		SELECT ` + scrapedJobColumns + `
		FROM scraped_jobs
		WHERE status = $1 AND scraped_at >= $2
		ORDER BY scraped_at DESC
		LIMIT $3
	`

	var jobs []model.ScrapedJob
	err := s.db.SelectContext(ctx, &jobs, query, domain.StatusFailed, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent failed scraped jobs: %w", err)
	}

	return jobs, nil
}

// DeleteScrapedJob removes a record from the primary store.
func (s *Storage) DeleteScrapedJob(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scraped_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scraped job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrScrapedJobNotFound
	}

	return nil
}

// ListScrapedJobIDs pages all ids in fixed-size batches for bulk cleanup.
// Pass an empty afterID for the first page.
func (s *Storage) ListScrapedJobIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	query := `SELECT id FROM scraped_jobs WHERE id > $1 ORDER BY id LIMIT $2`

	var ids []string
	err := s.db.SelectContext(ctx, &ids, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scraped job ids: %w", err)
	}

	return ids, nil
}
