package cleanup

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

	"github.com/fairchancejobs/jobboard-be/internal/api/storage"
	"github.com/fairchancejobs/jobboard-be/internal/pipelineclient"
)

func newTestOrchestrator(t *testing.T, pipelineHandler http.HandlerFunc) (*Orchestrator, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	srv := httptest.NewServer(pipelineHandler)
	t.Cleanup(srv.Close)

	pipeline, err := pipelineclient.NewClient(srv.URL, "test-secret")
	require.NoError(t, err)

	st := storage.NewStorageWithDB(sqlx.NewDb(mockDB, "sqlmock"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewOrchestrator(logger, st, pipeline, nil), mock
}

func scrapedJobRow(id, externalID, source string, typesenseID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "external_id", "source", "typesense_id",
		"company", "title", "description", "url", "city", "state", "lat", "lng",
		"pay_min", "pay_max", "pay_type", "urgent", "easy_apply", "onet_code", "posted_at",
		"transit_score", "transit_distance_m", "transit_bus", "transit_rail",
		"shift_morning", "shift_afternoon", "shift_evening", "shift_overnight", "shift_weekend", "shift_source",
		"second_chance_tier", "second_chance_score", "second_chance_confidence", "second_chance_signals", "second_chance_reasoning",
		"status", "scraped_at", "enriched_at", "indexed_at", "failure_reason", "failure_stage",
	}).AddRow(
		id, externalID, source, typesenseID,
		"Acme", "Warehouse Associate", "", "https://example.com/j/1", nil, nil, nil, nil,
		nil, nil, nil, false, false, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		"indexed", now, nil, nil, nil, nil,
	)
}

func TestDeleteOneResolvesByTypesenseID(t *testing.T) {
	var deleteReq pipelineclient.DeleteDocumentsRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/typesense/delete" {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&deleteReq))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}

	o, mock := newTestOrchestrator(t, handler)

	// Not found by internal id, found by search document id.
	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE id =").
		WithArgs("ts-abc").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE typesense_id =").
		WithArgs("ts-abc").
		WillReturnRows(scrapedJobRow("sj-1", "ext-100", "snagajob", "ts-abc"))
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := o.DeleteOne(context.Background(), "ts-abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"ts-abc"}, deleteReq.TypesenseIDs)
	assert.Equal(t, []string{"ext-100"}, deleteReq.ExternalIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOneNeverIndexedForwardsExternalID(t *testing.T) {
	var deleteReq pipelineclient.DeleteDocumentsRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/typesense/delete" {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&deleteReq))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}

	o, mock := newTestOrchestrator(t, handler)

	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE id =").
		WithArgs("sj-1").
		WillReturnRows(scrapedJobRow("sj-1", "ext-100", "snagajob", nil))
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := o.DeleteOne(context.Background(), "sj-1")
	require.NoError(t, err)

	// Nothing was ever indexed, but the pipeline still learns the external
	// id so it can forget its own dedup state for the row.
	assert.Empty(t, deleteReq.TypesenseIDs)
	assert.Equal(t, []string{"ext-100"}, deleteReq.ExternalIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBulkReportsPerItem(t *testing.T) {
	var deleteReq pipelineclient.DeleteDocumentsRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/typesense/delete" {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&deleteReq))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}

	o, mock := newTestOrchestrator(t, handler)

	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE id =").
		WithArgs("sj-1").
		WillReturnRows(scrapedJobRow("sj-1", "ext-100", "snagajob", "ts-abc"))
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Second id resolves nowhere.
	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE id =").
		WithArgs("sj-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT (.+) FROM scraped_jobs WHERE typesense_id =").
		WithArgs("sj-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	results := o.DeleteBulk(context.Background(), []string{"sj-1", "sj-missing"})

	require.Len(t, results, 2)
	assert.Equal(t, "sj-1", results[0].ID)
	assert.True(t, results[0].Deleted)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "sj-missing", results[1].ID)
	assert.False(t, results[1].Deleted)
	assert.Equal(t, "not_found", results[1].Error)

	assert.Equal(t, []string{"ts-abc"}, deleteReq.TypesenseIDs)
	assert.Equal(t, []string{"ext-100"}, deleteReq.ExternalIDs)
}

func TestNukeAll(t *testing.T) {
	nukeCalled := false
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/nuke-all" {
			nukeCalled = true
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}

	o, mock := newTestOrchestrator(t, handler)

	mock.ExpectQuery("SELECT id FROM scraped_jobs WHERE id >").
		WithArgs("", 500).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sj-1").AddRow("sj-2"))
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id FROM scraped_jobs WHERE id >").
		WithArgs("sj-2", 500).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	total, err := o.NukeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.True(t, nukeCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNukeAllSkipsVanishedRows(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}

	o, mock := newTestOrchestrator(t, handler)

	mock.ExpectQuery("SELECT id FROM scraped_jobs WHERE id >").
		WithArgs("", 500).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sj-1").AddRow("sj-2"))
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// sj-2 was deleted by someone else between listing and deleting.
	mock.ExpectExec("DELETE FROM scraped_jobs").
		WithArgs("sj-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM scraped_jobs WHERE id >").
		WithArgs("sj-2", 500).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	total, err := o.NukeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
