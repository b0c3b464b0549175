package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grow-sync/internal/domain"
)

// Client is the device-side transport for the sync protocol: two POSTs with a
// bearer credential and a bounded timeout. Transport and HTTP-status failures
// come back as errors for the orchestrator's retry policy; a 401 maps to
// domain.ErrUnauthorized, which is never retried.
type Client struct {
	baseURL  string
	token    string
	deviceID string
	http     *http.Client
}

func New(baseURL, token, deviceID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		deviceID: deviceID,
		http:     &http.Client{Timeout: timeout},
	}
}

// Pull fetches every remote change strictly after the watermark.
func (c *Client) Pull(ctx context.Context, since string) (*domain.PullResponse, error) {
	var res domain.PullResponse
	if err := c.post(ctx, "/api/v1/sync/pull", &domain.PullRequest{Since: since}, &res); err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	return &res, nil
}

// Push sends local changes and tombstones to the remote store.
func (c *Client) Push(ctx context.Context, req *domain.PushRequest) (*domain.PushResponse, error) {
	var res domain.PushResponse
	if err := c.post(ctx, "/api/v1/sync/push", req, &res); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	if !res.OK {
		return nil, fmt.Errorf("push: server rejected changeset")
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Device-ID", c.deviceID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
