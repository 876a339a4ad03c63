// Package ctl implements the operator side of greenhorn: an HTTP client for
// the service API and a load simulation that checks crossing behaviour end
// to end.
package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 10 * time.Second

// Observation is the service's answer to a level change or login.
type Observation struct {
	Crossed  bool      `json:"crossed"`
	Crossing *Crossing `json:"crossing,omitempty"`
}

// Crossing mirrors the crossing payload returned by the service.
type Crossing struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Level     int       `json:"level"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}

// Warning mirrors a pending player message.
type Warning struct {
	ID       string    `json:"id"`
	PlayerID string    `json:"player_id"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

type thresholdBody struct {
	Threshold int `json:"threshold"`
}

type levelBody struct {
	Level int `json:"level"`
}

type messagesBody struct {
	Messages []Warning `json:"messages"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to a running greenhorn service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. A non-positive timeout selects
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// Threshold returns the threshold in effect.
func (c *Client) Threshold(ctx context.Context) (int, error) {
	var out thresholdBody
	err := c.do(ctx, http.MethodGet, "/v1/threshold", nil, http.StatusOK, &out)
	return out.Threshold, err
}

// SetThreshold replaces the threshold and returns the value now in effect.
func (c *Client) SetThreshold(ctx context.Context, t int) (int, error) {
	var out thresholdBody
	err := c.do(ctx, http.MethodPut, "/v1/threshold", thresholdBody{Threshold: t}, http.StatusOK, &out)
	return out.Threshold, err
}

// ResetThreshold restores the configured default.
func (c *Client) ResetThreshold(ctx context.Context) (int, error) {
	var out thresholdBody
	err := c.do(ctx, http.MethodPost, "/v1/threshold/default", nil, http.StatusOK, &out)
	return out.Threshold, err
}

// Reload asks the service to re-read its configuration file.
func (c *Client) Reload(ctx context.Context) (int, error) {
	var out thresholdBody
	err := c.do(ctx, http.MethodPost, "/v1/threshold/reload", nil, http.StatusOK, &out)
	return out.Threshold, err
}

// Login reports that player entered the world at level.
func (c *Client) Login(ctx context.Context, player string, level int) (Observation, error) {
	var out Observation
	err := c.do(ctx, http.MethodPost, playerPath(player, "login"), levelBody{Level: level}, http.StatusOK, &out)
	return out, err
}

// LevelChanged reports a new level for an online player.
func (c *Client) LevelChanged(ctx context.Context, player string, level int) (Observation, error) {
	var out Observation
	err := c.do(ctx, http.MethodPost, playerPath(player, "level"), levelBody{Level: level}, http.StatusOK, &out)
	return out, err
}

// Logout reports that player left the world.
func (c *Client) Logout(ctx context.Context, player string) error {
	return c.do(ctx, http.MethodPost, playerPath(player, "logout"), nil, http.StatusNoContent, nil)
}

// Messages drains pending warnings for player.
func (c *Client) Messages(ctx context.Context, player string) ([]Warning, error) {
	var out messagesBody
	err := c.do(ctx, http.MethodGet, playerPath(player, "messages"), nil, http.StatusOK, &out)
	return out.Messages, err
}

func playerPath(player, action string) string {
	return "/v1/players/" + url.PathEscape(player) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var e errorBody
		if json.Unmarshal(data, &e) == nil && e.Code != "" {
			return fmt.Errorf("%s %s: %w %d: %s: %s", method, path, ErrUnexpectedStatus, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%s %s: %w %d", method, path, ErrUnexpectedStatus, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
