package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReplaySummary is what the replay query engine knows about a session.
type ReplaySummary struct {
	SessionID  string     `json:"session_id"`
	DistinctID string     `json:"distinct_id"`
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
}

// ReplayQuerier is the replay summary query collaborator. The columnar event
// store behind it is opaque to this service.
type ReplayQuerier interface {
	// MatchSessions runs a stored filter against the event store and returns
	// matching session ids, capped at limit, plus whether more exist.
	MatchSessions(ctx context.Context, teamID string, filters json.RawMessage, limit int) ([]string, bool, error)
	// SummarizeSessions returns summaries for the given sessions. Sessions
	// unknown to the event stream are simply absent from the result.
	SummarizeSessions(ctx context.Context, teamID string, sessionIDs []string) ([]ReplaySummary, error)
}

// ReplayClient talks to the internal replay-query service over HTTP.
type ReplayClient struct {
	baseURL string
	client  *http.Client
}

func NewReplayClient(baseURL string) *ReplayClient {
	return &ReplayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ReplayClient) MatchSessions(ctx context.Context, teamID string, filters json.RawMessage, limit int) ([]string, bool, error) {
	body := map[string]any{
		"team_id": teamID,
		"filters": filters,
		"limit":   limit,
	}
	var res struct {
		SessionIDs []string `json:"session_ids"`
		HasMore    bool     `json:"has_more"`
	}
	if err := c.post(ctx, "/query/matches", body, &res); err != nil {
		return nil, false, err
	}
	return res.SessionIDs, res.HasMore, nil
}

func (c *ReplayClient) SummarizeSessions(ctx context.Context, teamID string, sessionIDs []string) ([]ReplaySummary, error) {
	body := map[string]any{
		"team_id":     teamID,
		"session_ids": sessionIDs,
	}
	var res struct {
		Results []ReplaySummary `json:"results"`
	}
	if err := c.post(ctx, "/query/summaries", body, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

func (c *ReplayClient) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &upstreamError{msg: fmt.Sprintf("replay query: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &upstreamError{msg: fmt.Sprintf("replay query returned %d", resp.StatusCode)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
