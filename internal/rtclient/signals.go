package rtclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"nutrihub/internal/presence"
)

// Signals is the HTTP side of the realtime client: outbound presence
// and typing signals plus the hydration/poll fetches. Every call is
// fire-and-observe; failures surface as errors for the caller to log,
// never as fatal conditions.
type Signals struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewSignals creates a signal sender against the API base URL
// (e.g. "https://host/api/v1")
func NewSignals(baseURL, token string) *Signals {
	return &Signals{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *Signals) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.do(req)
}

func (s *Signals) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.do(req)
}

func (s *Signals) do(req *http.Request) (json.RawMessage, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Code != 0 {
		return nil, fmt.Errorf("%s %s: %s (code=%d)", req.Method, req.URL.Path, parsed.Message, parsed.Code)
	}
	return parsed.Data, nil
}

// Online signals the online status, optionally carrying the socket id
func (s *Signals) Online(ctx context.Context, socketID string) error {
	body := map[string]any{"status": "online"}
	if socketID != "" {
		body["socketId"] = socketID
	}
	_, err := s.post(ctx, "/presence/status", body)
	return err
}

// Offline signals the offline status
func (s *Signals) Offline(ctx context.Context) error {
	_, err := s.post(ctx, "/presence/status", map[string]any{"status": "offline"})
	return err
}

// Away signals idleness
func (s *Signals) Away(ctx context.Context) error {
	_, err := s.post(ctx, "/presence/away", map[string]any{})
	return err
}

// Typing signals the typing state over HTTP, the fallback path when
// the socket is down
func (s *Signals) Typing(ctx context.Context, conversationID int, isTyping bool) error {
	_, err := s.post(ctx, "/presence/typing", map[string]any{
		"conversationId": conversationID,
		"isTyping":       isTyping,
	})
	return err
}

// FetchPresence batch-hydrates presence entries for the given users
func (s *Signals) FetchPresence(ctx context.Context, userIDs []int) (map[int]presence.Entry, error) {
	data, err := s.post(ctx, "/presence/get", map[string]any{"userIds": userIDs})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Entries map[string]presence.Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode presence entries: %w", err)
	}

	entries := make(map[int]presence.Entry, len(parsed.Entries))
	for key, entry := range parsed.Entries {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		entries[id] = entry
	}
	return entries, nil
}

// UnreadCount fetches the point-in-time unread notification count
func (s *Signals) UnreadCount(ctx context.Context) (int, error) {
	data, err := s.get(ctx, "/notifications/unread/count")
	if err != nil {
		return 0, err
	}
	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode unread count: %w", err)
	}
	return parsed.Count, nil
}
