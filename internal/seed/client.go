package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/ranking/internal/domain/model"
	"github.com/okian/ranking/internal/domain/types"
)

// client wraps http.Client for the ranking endpoints the seeder needs.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type registerBody struct {
	Player string          `json:"player"`
	Score  int             `json:"score"`
	Time   types.Timestamp `json:"time"`
}

// health checks GET /healthz answers 200.
func (c *client) health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// register posts one score and returns the stored record.
func (c *client) register(ctx context.Context, player string, e model.ScoreEntry) (model.ScoreRecord, error) {
	body, err := json.Marshal(registerBody{Player: player, Score: e.Score, Time: e.Time})
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("marshal register body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/ranking/register", body)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusCreated {
		return model.ScoreRecord{}, fmt.Errorf("%w: register returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	var rec model.ScoreRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("decode register response: %w", err)
	}
	return rec, nil
}

// history fetches GET /ranking/history for player.
func (c *client) history(ctx context.Context, player string) (model.PlayerHistory, error) {
	resp, err := c.do(ctx, http.MethodGet, "/ranking/history?player="+url.QueryEscape(player), nil)
	if err != nil {
		return model.PlayerHistory{}, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return model.PlayerHistory{}, fmt.Errorf("%w: history returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	var h model.PlayerHistory
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return model.PlayerHistory{}, fmt.Errorf("decode history response: %w", err)
	}
	return h, nil
}

func (c *client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
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

// drain reads and closes the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
