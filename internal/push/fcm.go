// Package push delivers notifications to registered devices through the
// FCM HTTP API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Result summarizes one multicast send. InvalidTokens lists registrations
// the gateway reported as dead so callers can prune them.
type Result struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (*Result, error)
}

type Client struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewClient(endpoint, serverKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:  endpoint,
		serverKey: serverKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
	Priority        string            `json:"priority"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (c *Client) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (*Result, error) {
	if len(tokens) == 0 {
		return &Result{}, nil
	}

	payload, err := json.Marshal(fcmRequest{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: title, Body: body},
		Data:            data,
		Priority:        "high",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}

	var decoded fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}

	result := &Result{
		SuccessCount: decoded.Success,
		FailureCount: decoded.Failure,
	}
	for i, r := range decoded.Results {
		if i >= len(tokens) {
			break
		}
		if r.Error == "NotRegistered" || r.Error == "InvalidRegistration" {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		}
	}
	return result, nil
}
