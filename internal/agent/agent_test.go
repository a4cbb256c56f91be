package agent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairchancejobs/jobboard-be/internal/search"
)

func newTestSearchClient(t *testing.T, handler http.HandlerFunc) *search.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := search.NewClient(&search.Config{URL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(&Config{}, slog.Default(), nil)
	assert.Error(t, err)
}

func TestChatToolCallLoop(t *testing.T) {
	var searchFilter string
	searchClient := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		searchFilter = r.URL.Query().Get("filter_by")
		json.NewEncoder(w).Encode(map[string]any{
			"found": 1,
			"page":  1,
			"hits": []map[string]any{
				{"document": map[string]any{"title": "Warehouse Associate", "company": "Acme", "city": "Portland"}},
			},
		})
	})

	turn := 0
	groq := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer groq-key", r.Header.Get("Authorization"))

		turn++
		if turn == 1 {
			// First round: the model asks for a search.
			io.WriteString(w, `{
				"choices": [{"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "search_jobs", "arguments": "{\"query\":\"warehouse\",\"city\":\"Portland\",\"shifts\":[\"overnight\"]}"}
					}]
				}}]
			}`)
			return
		}

		// Second round: the tool result came back and the model answers.
		var req struct {
			Messages []struct {
				Role       string `json:"role"`
				Content    string `json:"content"`
				ToolCallID string `json:"tool_call_id"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		last := req.Messages[len(req.Messages)-1]
		assert.Equal(t, "tool", last.Role)
		assert.Equal(t, "call_1", last.ToolCallID)
		assert.Contains(t, last.Content, "Warehouse Associate")

		io.WriteString(w, `{"choices": [{"message": {"role": "assistant", "content": "Found one: Warehouse Associate at Acme in Portland."}}]}`)
	}))
	t.Cleanup(groq.Close)

	a, err := New(&Config{APIKey: "groq-key", BaseURL: groq.URL}, slog.Default(), searchClient)
	require.NoError(t, err)

	reply, err := a.Chat(context.Background(), "overnight warehouse work in Portland?")
	require.NoError(t, err)

	assert.Equal(t, "Found one: Warehouse Associate at Acme in Portland.", reply.Text)
	require.Len(t, reply.Jobs, 1)
	assert.Equal(t, "Warehouse Associate", reply.Jobs[0]["title"])

	assert.Contains(t, searchFilter, "city:=Portland")
	assert.Contains(t, searchFilter, "shift_overnight:=true")
}

func TestChatBoundedTurns(t *testing.T) {
	searchClient := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"found": 0, "page": 1, "hits": []any{}})
	})

	calls := 0
	groq := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// The model keeps asking for searches forever.
		io.WriteString(w, `{
			"choices": [{"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_n",
					"type": "function",
					"function": {"name": "search_jobs", "arguments": "{}"}
				}]
			}}]
		}`)
	}))
	t.Cleanup(groq.Close)

	a, err := New(&Config{APIKey: "groq-key", BaseURL: groq.URL, MaxTurns: 2}, slog.Default(), searchClient)
	require.NoError(t, err)

	reply, err := a.Chat(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotEmpty(t, reply.Text)
}
