// internal/upstream/client.go
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

// Client is the typed face of the external auction API. It does exactly one
// HTTP round trip per call: no retries, no caching, no timeout beyond the
// shared http.Client's.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// BaseURL exposes the configured upstream root for the gateway.
func (c *Client) BaseURL() string {
	return c.base
}

// do performs one call and decodes the body into out (when out != nil),
// applying the shared error taxonomy: transport failure, non-2xx with a
// best-effort message, malformed JSON, and domain-level failure envelopes.
func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		}
		return &APIError{StatusCode: resp.StatusCode}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Status != "" && env.Status != "success" {
		if strings.Contains(strings.ToLower(env.Message), "no posts") {
			return ErrNoNotes
		}
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}

// ============================================
// Auth
// ============================================

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				ID       int64  `json:"id"`
				RealName string `json:"real_name"`
				Position string `json:"position"`
			} `json:"user"`
		} `json:"data"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:    out.Data.Token,
		UserID:   out.Data.User.ID,
		RealName: out.Data.User.RealName,
		Position: out.Data.User.Position,
	}, nil
}

// ============================================
// User search
// ============================================

// SearchUsers pages through the remote search endpoint. Returns the page rows
// and the total match count the server reports.
func (c *Client) SearchUsers(ctx context.Context, token string, q SearchQuery) ([]models.User, int, error) {
	params := url.Values{}
	params.Set("search", q.Term)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.OrderBy != "" {
		params.Set("order_by", q.OrderBy)
		params.Set("order_direction", q.OrderDirection)
	}

	var out struct {
		Data struct {
			Users []models.User `json:"users"`
			Total int           `json:"total"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/search?"+params.Encode(), token, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Data.Users, out.Data.Total, nil
}

// MembersByID fetches the user rows for an id set. The payload shape
// varies by upstream version, so the raw body is returned for Normalize
// to sniff at the boundary.
func (c *Client) MembersByID(ctx context.Context, token string, ids []int64) (json.RawMessage, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("ids", strings.Join(parts, ","))

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/users/by-ids?"+params.Encode(), token, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ============================================
// Subscription toggles
// ============================================

func (c *Client) ToggleSubscription(ctx context.Context, token string, userID, managerID int64, note string) error {
	in := map[string]interface{}{"manager_id": managerID, "note": note}
	path := fmt.Sprintf("/api/users/toggle-subscription/%d", userID)
	return c.do(ctx, http.MethodPost, path, token, in, nil)
}

// BulkToggleSubscription flips the subscription flag for user_ids. Partial
// failure is an expected outcome, reported through the result, not an error.
func (c *Client) BulkToggleSubscription(ctx context.Context, token string, userIDs []int64, managerID int64, note string) (*BulkToggleResult, error) {
	in := map[string]interface{}{"user_ids": userIDs, "manager_id": managerID, "note": note}

	var out struct {
		Data struct {
			Results struct {
				Success []struct {
					UserID int64 `json:"user_id"`
				} `json:"success"`
				Failed []struct {
					UserID int64 `json:"user_id"`
				} `json:"failed"`
			} `json:"results"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users/bulk-toggle-subscription", token, in, &out); err != nil {
		return nil, err
	}

	result := &BulkToggleResult{}
	for _, s := range out.Data.Results.Success {
		result.Succeeded = append(result.Succeeded, s.UserID)
	}
	for _, f := range out.Data.Results.Failed {
		result.Failed = append(result.Failed, f.UserID)
	}
	return result, nil
}

// ============================================
// Manager notes
// ============================================

func (c *Client) GetNote(ctx context.Context, token string, id int64) (*NoteRecord, error) {
	var out struct {
		Data NoteRecord `json:"data"`
	}
	path := fmt.Sprintf("/api/manager-notes/get/%d", id)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// LatestOngoingNote fetches the creator's single latest ongoing note.
// ErrNoNotes means the creator has none yet.
func (c *Client) LatestOngoingNote(ctx context.Context, token string, creatorID int64) (*NoteRecord, error) {
	var out struct {
		Data NoteRecord `json:"data"`
	}
	path := fmt.Sprintf("/api/manager-notes/latest-ongoing?creator_id=%d", creatorID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) ListNotes(ctx context.Context, token string, creatorID int64) ([]NoteRecord, error) {
	var out struct {
		Data []NoteRecord `json:"data"`
	}
	path := fmt.Sprintf("/api/manager-notes/list?creator_id=%d", creatorID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CreateNote(ctx context.Context, token string, rec *NoteRecord) (*NoteRecord, error) {
	var out struct {
		Data NoteRecord `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/manager-notes/create", token, rec, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) UpdateNote(ctx context.Context, token string, id int64, upd *NoteUpdate) error {
	path := fmt.Sprintf("/api/manager-notes/update/%d", id)
	return c.do(ctx, http.MethodPut, path, token, upd, nil)
}

// ============================================
// SMS
// ============================================

func (c *Client) SendSMS(ctx context.Context, token string, phones []string, message string) (*SMSResult, error) {
	in := map[string]interface{}{"phones": phones, "message": message}

	var out struct {
		Data struct {
			Accepted int `json:"accepted"`
			Rejected int `json:"rejected"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sms/send", token, in, &out); err != nil {
		return nil, err
	}
	return &SMSResult{Accepted: out.Data.Accepted, Rejected: out.Data.Rejected}, nil
}
