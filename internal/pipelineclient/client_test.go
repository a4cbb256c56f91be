package pipelineclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient("", "secret")
	require.Error(t, err)

	_, err = NewClient("http://pipeline.local", "")
	require.Error(t, err)
}

func TestClient_GetCacheStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/admin/cache/stats", r.URL.Path)
		assert.Equal(t, "shh", r.Header.Get("X-Pipeline-Secret"))

		json.NewEncoder(w).Encode(CacheStats{
			TotalKeys:    42,
			KeysBySource: map[string]int{"snagajob": 40, "indeed": 2},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "shh")
	require.NoError(t, err)

	stats, err := client.GetCacheStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalKeys)
	assert.Equal(t, 40, stats.KeysBySource["snagajob"])
}

func TestClient_ClearCache(t *testing.T) {
	var received ClearCacheRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/cache/clear", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "shh")
	require.NoError(t, err)

	err = client.ClearCache(context.Background(), ClearCacheRequest{ClearAll: true})
	require.NoError(t, err)
	assert.True(t, received.ClearAll)
}

func TestClient_DeleteDocuments(t *testing.T) {
	var received DeleteDocumentsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/typesense/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "shh")
	require.NoError(t, err)

	err = client.DeleteDocuments(context.Background(), DeleteDocumentsRequest{
		TypesenseIDs: []string{"ts_1", "ts_2"},
		ExternalIDs:  []string{"abc", "def"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ts_1", "ts_2"}, received.TypesenseIDs)
	assert.Equal(t, []string{"abc", "def"}, received.ExternalIDs)
}

func TestClient_DeleteDocuments_EmptyIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "shh")
	require.NoError(t, err)

	require.NoError(t, client.DeleteDocuments(context.Background(), DeleteDocumentsRequest{}))
	assert.False(t, called)
}

func TestClient_ErrorIncludesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broke"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "shh")
	require.NoError(t, err)

	err = client.NukeAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream broke")
}
