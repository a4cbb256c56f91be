// Package agent implements the seeker-facing search assistant. It talks to
// Groq's OpenAI-compatible chat-completions API and exposes the job index
// to the model through a single search_jobs tool.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fairchancejobs/jobboard-be/internal/search"
)

const (
	defaultBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel    = "llama-3.3-70b-versatile"
	defaultMaxTurns = 4

	// maxToolResults caps how many hits go back to the model per tool call.
	maxToolResults = 5
)

const systemPrompt = `You help people find jobs, with a focus on fair-chance employment for people with criminal records. Use the search_jobs tool to look up real listings before answering. Be brief and concrete: name the jobs you found. If nothing matches, say so and suggest loosening one constraint.`

// Config holds the chat agent configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	MaxTurns int
}

// Agent drives the tool-call loop between the model and the job index.
type Agent struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTurns   int
	search     *search.Client
}

// New creates an agent. The API key is required.
func New(cfg *Config, logger *slog.Logger, searchClient *search.Client) (*Agent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("agent api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	return &Agent{
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTurns:   maxTurns,
		search:     searchClient,
	}, nil
}

// Reply is the agent's answer plus any jobs its searches surfaced.
type Reply struct {
	Text string
	Jobs []map[string]any
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []any         `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// searchJobsTool is the function schema advertised to the model.
var searchJobsTool = map[string]any{
	"type": "function",
	"function": map[string]any{
		"name":        "search_jobs",
		"description": "Search indexed job listings. All parameters are optional.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":              map[string]any{"type": "string", "description": "Free-text search over title, company, and description"},
				"city":               map[string]any{"type": "string"},
				"state":              map[string]any{"type": "string", "description": "Two-letter state code"},
				"shifts":             map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []string{"morning", "afternoon", "evening", "overnight", "weekend"}}},
				"transit_bus":        map[string]any{"type": "boolean", "description": "Only jobs reachable by bus"},
				"transit_rail":       map[string]any{"type": "boolean", "description": "Only jobs reachable by rail"},
				"easy_apply":         map[string]any{"type": "boolean"},
				"second_chance_tier": map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}, "description": "Minimum fair-chance employer tier"},
			},
		},
	},
}

type searchJobsArgs struct {
	Query            string   `json:"query"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Shifts           []string `json:"shifts"`
	TransitBus       *bool    `json:"transit_bus"`
	TransitRail      *bool    `json:"transit_rail"`
	EasyApply        *bool    `json:"easy_apply"`
	SecondChanceTier string   `json:"second_chance_tier"`
}

// Chat runs one user turn through the tool-call loop and returns the final
// model reply. The loop is bounded: once maxTurns is spent the last tool
// results are summarized without another model round trip.
func (a *Agent) Chat(ctx context.Context, userMessage string) (*Reply, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}

	var jobs []map[string]any

	for turn := 0; turn < a.maxTurns; turn++ {
		resp, err := a.complete(ctx, messages)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return &Reply{Text: msg.Content, Jobs: jobs}, nil
		}

		messages = append(messages, msg)

		for _, call := range msg.ToolCalls {
			result, found := a.runToolCall(ctx, call)
			jobs = append(jobs, found...)
			messages = append(messages, chatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return &Reply{
		Text: "I found some listings but ran out of time narrowing them down. Here is what I have so far.",
		Jobs: jobs,
	}, nil
}

func (a *Agent) runToolCall(ctx context.Context, call toolCall) (string, []map[string]any) {
	if call.Function.Name != "search_jobs" {
		return fmt.Sprintf(`{"error":"unknown tool %q"}`, call.Function.Name), nil
	}

	var args searchJobsArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return `{"error":"invalid tool arguments"}`, nil
	}

	result, err := a.search.Search(ctx, search.SearchRequest{
		Q:       args.Query,
		Filter:  search.BuildFilter(toFilterParams(args)),
		PerPage: maxToolResults,
	})
	if err != nil {
		a.logger.Warn("Agent search failed",
			slog.String("error", err.Error()),
		)
		return `{"error":"search unavailable"}`, nil
	}

	found := make([]map[string]any, 0, len(result.Hits))
	for _, hit := range result.Hits {
		found = append(found, hit.Document)
	}

	payload, err := json.Marshal(map[string]any{
		"found": result.Found,
		"jobs":  summarize(found),
	})
	if err != nil {
		return `{"error":"search unavailable"}`, nil
	}

	return string(payload), found
}

func toFilterParams(args searchJobsArgs) search.FilterParams {
	filters := map[string]any{}
	if args.City != "" {
		filters["city"] = args.City
	}
	if args.State != "" {
		filters["state"] = args.State
	}
	if args.SecondChanceTier != "" {
		filters["second_chance_tier"] = args.SecondChanceTier
	}
	if args.TransitBus != nil {
		filters["transit_bus"] = *args.TransitBus
	}
	if args.TransitRail != nil {
		filters["transit_rail"] = *args.TransitRail
	}
	if args.EasyApply != nil {
		filters["easy_apply"] = *args.EasyApply
	}

	return search.FilterParams{
		Filters:    filters,
		ShiftPrefs: args.Shifts,
	}
}

// summarize trims documents down to the fields the model needs to talk
// about a listing.
func summarize(docs []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		s := map[string]any{}
		for _, key := range []string{"title", "company", "city", "state", "pay_min", "pay_max", "pay_type", "url", "second_chance_tier"} {
			if v, ok := doc[key]; ok {
				s[key] = v
			}
		}
		out = append(out, s)
	}
	return out
}

func (a *Agent) complete(ctx context.Context, messages []chatMessage) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:    a.model,
		Messages: messages,
		Tools:    []any{searchJobsTool},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	return &parsed, nil
}
