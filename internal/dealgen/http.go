package dealgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
)

// Submission outcomes.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
)

// Client talks to the service API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// CurrentContest returns the selected contest, or nil when none is.
func (c *Client) CurrentContest(ctx context.Context) (*model.Contest, error) {
	var out struct {
		Contest *model.Contest `json:"contest"`
	}
	if err := c.do(ctx, http.MethodGet, "/contests/current", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Contest, nil
}

// Leaderboard fetches the full standings of contestID.
func (c *Client) Leaderboard(ctx context.Context, contestID string) (types.Board, error) {
	var board types.Board
	err := c.do(ctx, http.MethodGet, "/contests/"+url.PathEscape(contestID)+"/leaderboard", nil, http.StatusOK, &board)
	return board, err
}

// AgentDeals lists the deals of agentID in contestID.
func (c *Client) AgentDeals(ctx context.Context, contestID, agentID string) ([]model.Deal, error) {
	var deals []model.Deal
	path := "/contests/" + url.PathEscape(contestID) + "/agents/" + url.PathEscape(agentID) + "/deals"
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &deals)
	return deals, err
}

// Submit posts d and returns "accepted" or "duplicate".
func (c *Client) Submit(ctx context.Context, d Deal) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/deals", d)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return outcomeAccepted, nil
	case http.StatusOK:
		return outcomeDuplicate, nil
	default:
		return "", statusError(resp)
	}
}

// Approve marks deal id approved and reports whether the service knew it.
func (c *Client) Approve(ctx context.Context, id string) (bool, error) {
	var out struct {
		Updated bool `json:"updated"`
	}
	body := map[string]model.DealStatus{"status": model.DealApproved}
	if err := c.do(ctx, http.MethodPatch, "/deals/"+url.PathEscape(id), body, http.StatusOK, &out); err != nil {
		return false, err
	}
	return out.Updated, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s %s: HTTP %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
}
