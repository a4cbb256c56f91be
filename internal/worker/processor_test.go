package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairchancejobs/jobboard-be/internal/search"
	"github.com/fairchancejobs/jobboard-be/internal/worker/domain"
	"github.com/fairchancejobs/jobboard-be/internal/worker/storage"
)

func newProcessorTest(t *testing.T) (*Worker, sqlmock.Sqlmock, *[]map[string]any) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	var upserted []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/jobs/documents" {
			var doc map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			upserted = append(upserted, doc)
			json.NewEncoder(w).Encode(map[string]any{"id": doc["id"]})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	searchClient, err := search.NewClient(&search.Config{URL: srv.URL, APIKey: "test-key", Collection: "jobs"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := &Worker{
		logger:       logger,
		storage:      storage.NewStorage(sqlx.NewDb(mockDB, "sqlmock"), logger),
		searchClient: searchClient,
		jobTimeout:   5 * time.Second,
	}

	return w, mock, &upserted
}

func processorJobRows() *sqlmock.Rows {
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

// A record that failed at the index stage already carries its enrichment;
// reprocessing must go straight back to indexing without a second
// enrichment write.
func TestProcessJobResumesFromIndexFailure(t *testing.T) {
	w, mock, upserted := newProcessorTest(t)

	now := time.Now()
	enrichedAt := now.Add(-time.Hour)
	rows := processorJobRows().AddRow(
		"sj-1", "ext-100", "snagajob", "ts-existing",
		"Acme Logistics", "Warehouse Associate", "Load and unload trucks", "https://example.com/j/1", "Portland", "OR", nil, nil,
		nil, nil, nil, false, false, nil, nil,
		nil, nil, nil, nil,
		true, nil, nil, nil, nil, "title_keywords",
		"high", 0.9, 0.8, "{}", "employer on fair-chance list",
		"failed", now, enrichedAt, nil, "search engine returned status 503", "index",
	)

	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs").
		WithArgs("sj-1").
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE scraped_jobs\s+SET status = \$2,\s+typesense_id = \$3`).
		WithArgs("sj-1", "indexed", "ts-existing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := w.processJob(context.Background(), &domain.JobMessage{JobID: "sj-1"})
	require.NoError(t, err)

	// No enrichment UPDATE was expected; a second write would fail the mock.
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, *upserted, 1)
	doc := (*upserted)[0]
	assert.Equal(t, "ts-existing", doc["id"])
	assert.Equal(t, "high", doc["second_chance_tier"])
	assert.Equal(t, true, doc["shift_morning"])
}

func TestProcessJobAlreadyIndexedIsNoOp(t *testing.T) {
	w, mock, upserted := newProcessorTest(t)

	now := time.Now()
	rows := processorJobRows().AddRow(
		"sj-2", "ext-200", "snagajob", "ts-done",
		"Acme Logistics", "Janitor", "", "https://example.com/j/2", nil, nil, nil, nil,
		nil, nil, nil, false, false, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		"indexed", now, now, now, nil, nil,
	)

	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs").
		WithArgs("sj-2").
		WillReturnRows(rows)

	err := w.processJob(context.Background(), &domain.JobMessage{JobID: "sj-2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, *upserted)
}

func TestProcessJobGoneDropsMessage(t *testing.T) {
	w, mock, _ := newProcessorTest(t)

	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs").
		WithArgs("sj-gone").
		WillReturnRows(processorJobRows())

	err := w.processJob(context.Background(), &domain.JobMessage{JobID: "sj-gone"})
	assert.ErrorIs(t, err, domain.ErrJobGone)
	assert.False(t, shouldRequeue(err))
}
