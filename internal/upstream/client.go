// Package upstream mirrors likes to the reader's Hacker News account
// through a vote relay service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ErrUnauthorized is returned once the relay rejects the token. The client
// then reports itself as signed out.
var ErrUnauthorized = errors.New("upstream: unauthorized")

// Direction of a vote.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Client is a minimal HTTP client for the vote relay.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	votePath string

	revoked atomic.Bool
}

// New creates a client. baseURL looks like "https://relay.example.com/api/hn"
// (no trailing slash). With an empty baseURL or token the client is
// permanently signed out.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: timeout},
		votePath: "/vote",
	}
}

// WithVotePath optionally overrides the vote endpoint path.
func (c *Client) WithVotePath(p string) *Client {
	c2 := &Client{baseURL: c.baseURL, token: c.token, http: c.http, votePath: c.votePath}
	c2.revoked.Store(c.revoked.Load())
	if strings.TrimSpace(p) != "" {
		c2.votePath = p
	}
	return c2
}

// Authenticated reports whether votes would be sent.
func (c *Client) Authenticated() bool {
	if c == nil {
		return false
	}
	return c.baseURL != "" && c.token != "" && !c.revoked.Load()
}

type voteRequest struct {
	ItemID    int64     `json:"itemId"`
	Direction Direction `json:"direction"`
}

type voteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Vote upvotes itemID.
func (c *Client) Vote(ctx context.Context, itemID int64) error {
	return c.VoteDirection(ctx, itemID, Up)
}

// VoteDirection casts a vote on itemID.
func (c *Client) VoteDirection(ctx context.Context, itemID int64, dir Direction) error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	body, err := json.Marshal(voteRequest{ItemID: itemID, Direction: dir})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.votePath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: vote %d: %w", itemID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.revoked.Store(true)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream: vote %d failed: status=%d body=%s", itemID, resp.StatusCode, string(b))
	}
	var out voteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("upstream: decode vote response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("upstream: vote %d rejected: %s", itemID, out.Error)
	}
	return nil
}
