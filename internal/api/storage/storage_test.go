package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
)

func newTestStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &Storage{db: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func scrapedJobRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "external_id", "source", "typesense_id",
		"company", "title", "description", "url", "city", "state", "lat", "lng",
		"pay_min", "pay_max", "pay_type", "urgent", "easy_apply", "onet_code", "posted_at",
		"transit_score", "transit_distance_m", "transit_bus", "transit_rail",
		"shift_morning", "shift_afternoon", "shift_evening", "shift_overnight", "shift_weekend", "shift_source",
		"second_chance_tier", "second_chance_score", "second_chance_confidence", "second_chance_signals", "second_chance_reasoning",
		"status", "scraped_at", "enriched_at", "indexed_at", "failure_reason", "failure_stage",
	})
}

func addScrapedJobRow(rows *sqlmock.Rows, id, externalID, source, status string, typesenseID interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, externalID, source, typesenseID,
		"Acme Logistics", "Warehouse Associate", "Load and unload trucks", "https://example.com/j/1", "Portland", "OR", 45.52, -122.68,
		18.0, 22.0, "hourly", false, true, nil, now,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		status, now, nil, nil, nil, nil,
	)
}

func TestInsertScrapedJob(t *testing.T) {
	storage, mock := newTestStorage(t)

	job := &model.ScrapedJob{
		ID:         "sj-1",
		ExternalID: "ext-100",
		Source:     "snagajob",
		Company:    "Acme Logistics",
		Title:      "Warehouse Associate",
		URL:        "https://example.com/j/1",
		Status:     string(domain.StatusScraped),
		ScrapedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO scraped_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := storage.InsertScrapedJob(context.Background(), job)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertScrapedJobDuplicate(t *testing.T) {
	storage, mock := newTestStorage(t)

	job := &model.ScrapedJob{
		ID:         "sj-1",
		ExternalID: "ext-100",
		Source:     "snagajob",
		Status:     string(domain.StatusScraped),
		ScrapedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO scraped_jobs").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "scraped_jobs_external_id_source_key"})

	err := storage.InsertScrapedJob(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrDuplicateScrapedJob)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScrapedJobByExternalID(t *testing.T) {
	storage, mock := newTestStorage(t)

	rows := addScrapedJobRow(scrapedJobRows(), "sj-1", "ext-100", "snagajob", "scraped", nil)
	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE external_id").
		WithArgs("ext-100", "snagajob").
		WillReturnRows(rows)

	job, err := storage.GetScrapedJobByExternalID(context.Background(), "ext-100", "snagajob")
	require.NoError(t, err)
	assert.Equal(t, "sj-1", job.ID)
	assert.Equal(t, "scraped", job.Status)
}

func TestGetScrapedJobByExternalIDNotFound(t *testing.T) {
	storage, mock := newTestStorage(t)

	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE external_id").
		WithArgs("ext-missing", "snagajob").
		WillReturnRows(scrapedJobRows())

	_, err := storage.GetScrapedJobByExternalID(context.Background(), "ext-missing", "snagajob")
	assert.ErrorIs(t, err, domain.ErrScrapedJobNotFound)
}

func TestGetScrapedJobByTypesenseID(t *testing.T) {
	storage, mock := newTestStorage(t)

	tsID := "ts-abc"
	rows := addScrapedJobRow(scrapedJobRows(), "sj-1", "ext-100", "snagajob", "indexed", tsID)
	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE typesense_id").
		WithArgs("ts-abc").
		WillReturnRows(rows)

	job, err := storage.GetScrapedJobByTypesenseID(context.Background(), "ts-abc")
	require.NoError(t, err)
	require.NotNil(t, job.TypesenseID)
	assert.Equal(t, "ts-abc", *job.TypesenseID)
	assert.Equal(t, "indexed", job.Status)
}

func TestListScrapedJobsWithFilterAndCursor(t *testing.T) {
	storage, mock := newTestStorage(t)

	cursorAt := time.Now().Add(-time.Hour)
	rows := addScrapedJobRow(scrapedJobRows(), "sj-2", "ext-101", "snagajob", "failed", nil)

	mock.ExpectQuery(`SELECT (.+) FROM scraped_jobs WHERE 1=1 AND status = \$1 AND source = \$2 AND \(scraped_at, id\) < \(\$3, \$4\)`).
		WithArgs("failed", "snagajob", cursorAt, "sj-9", 26).
		WillReturnRows(rows)

	jobs, err := storage.ListScrapedJobs(context.Background(), ScrapedJobFilter{
		Status:   "failed",
		Source:   "snagajob",
		PageSize: 25,
		Cursor:   &ScrapedJobCursor{ScrapedAt: cursorAt, ID: "sj-9"},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "sj-2", jobs[0].ID)
}

func TestDeleteScrapedJobNotFound(t *testing.T) {
	storage, mock := newTestStorage(t)

	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := storage.DeleteScrapedJob(context.Background(), "sj-missing")
	assert.ErrorIs(t, err, domain.ErrScrapedJobNotFound)
}

func TestListScrapedJobIDs(t *testing.T) {
	storage, mock := newTestStorage(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("sj-1").AddRow("sj-2")
	mock.ExpectQuery("SELECT id FROM scraped_jobs WHERE id >").
		WithArgs("", 500).
		WillReturnRows(rows)

	ids, err := storage.ListScrapedJobIDs(context.Background(), "", 500)
	require.NoError(t, err)
	assert.Equal(t, []string{"sj-1", "sj-2"}, ids)
}

func TestCreateApplicationFirstApplicant(t *testing.T) {
	storage, mock := newTestStorage(t)

	app := &model.Application{
		ID:           "app-1",
		SubmissionID: "sub-1",
		SeekerID:     "user-1",
		Status:       domain.ApplicationPending,
		CreatedAt:    time.Now(),
	}

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM applications`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	first, err := storage.CreateApplication(context.Background(), app)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestCreateApplicationRepeatApply(t *testing.T) {
	storage, mock := newTestStorage(t)

	app := &model.Application{
		ID:           "app-2",
		SubmissionID: "sub-1",
		SeekerID:     "user-1",
		Status:       domain.ApplicationPending,
		CreatedAt:    time.Now(),
	}

	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_submission_id_seeker_id_key"})

	_, err := storage.CreateApplication(context.Background(), app)
	assert.ErrorIs(t, err, domain.ErrAlreadyApplied)
}

func TestMarkApplicationConnected(t *testing.T) {
	storage, mock := newTestStorage(t)

	at := time.Now()
	mock.ExpectExec(`UPDATE applications SET status = \$2, connected_at = COALESCE\(connected_at, \$3\)`).
		WithArgs("app-1", domain.ApplicationConnected, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := storage.MarkApplicationConnected(context.Background(), "app-1", at)
	assert.NoError(t, err)
}

func TestMarkApplicationPassedNotFound(t *testing.T) {
	storage, mock := newTestStorage(t)

	mock.ExpectExec(`UPDATE applications SET status = \$2, passed_at = COALESCE\(passed_at, \$3\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := storage.MarkApplicationPassed(context.Background(), "app-missing", time.Now())
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestReviewSubmissionIdempotent(t *testing.T) {
	storage, mock := newTestStorage(t)

	at := time.Now()

	// Approving twice matches the row both times; reviewed_at keeps its
	// first value via COALESCE.
	mock.ExpectExec(`UPDATE job_submissions SET status = \$2, reviewed_at = COALESCE\(reviewed_at, \$3\)`).
		WithArgs("sub-1", domain.SubmissionApproved, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE job_submissions SET status = \$2, reviewed_at = COALESCE\(reviewed_at, \$3\)`).
		WithArgs("sub-1", domain.SubmissionApproved, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, storage.ReviewSubmission(context.Background(), "sub-1", domain.SubmissionApproved, at))
	require.NoError(t, storage.ReviewSubmission(context.Background(), "sub-1", domain.SubmissionApproved, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProfile(t *testing.T) {
	storage, mock := newTestStorage(t)

	p := &model.Profile{
		ID:        "prof-1",
		UserID:    "user-1",
		FullName:  "Jordan Reyes",
		Phone:     "+15035550100",
		Email:     "jordan@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := storage.UpsertProfile(context.Background(), p)
	assert.NoError(t, err)
}

func TestUpsertEmployerByPhone(t *testing.T) {
	storage, mock := newTestStorage(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "phone", "name", "company", "created_at", "updated_at"}).
		AddRow("emp-existing", "+15035550111", "Pat", "Acme", now, now)

	mock.ExpectQuery("INSERT INTO employers").
		WillReturnRows(rows)

	stored, err := storage.UpsertEmployerByPhone(context.Background(), &model.Employer{
		ID:        "emp-new",
		Phone:     "+15035550111",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	// The conflict path keeps the original row's id.
	assert.Equal(t, "emp-existing", stored.ID)
}
