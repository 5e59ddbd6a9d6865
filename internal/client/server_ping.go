package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pingTimeout bounds a /ping health check
const pingTimeout = 5 * time.Second

// PingResult is the relay's answer to a health check
type PingResult struct {
	Latency  time.Duration
	Status   string `json:"status"`
	Clients  int    `json:"clients"`
	Channels int    `json:"channels"`
}

// PingResultMsg is sent when a ping completes
type PingResultMsg struct {
	Result *PingResult
	Err    error
}

// HealthURL maps a relay address to its health endpoint
func HealthURL(addr string) (string, error) {
	endpoint, err := WebSocketURL(addr)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path = "/health"
	return u.String(), nil
}

// PingRelay fetches the relay's health endpoint and times the round trip
func PingRelay(ctx context.Context, addr string) (*PingResult, error) {
	healthURL, err := HealthURL(addr)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return nil, err
	}
	// One-off request, no idle connection left behind
	req.Close = true

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ping %s: %w", healthURL, err)
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ping %s: %s", healthURL, resp.Status)
	}

	var result PingResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ping %s: decode health: %w", healthURL, err)
	}
	result.Latency = latency
	return &result, nil
}

// PingRelayCmd creates a bubbletea command to ping the relay
func PingRelayCmd(addr string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		result, err := PingRelay(ctx, addr)
		return PingResultMsg{Result: result, Err: err}
	}
}
