// Package registry is the port to the client-registry service. Both calls
// are fallible remote calls: any transport or decode failure must abort the
// flow that triggered them, never partially commit.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type ClientRegistration struct {
	UserID  uint   `json:"userId"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

type Client interface {
	CreateClient(ctx context.Context, reg ClientRegistration) error
	IsBlacklisted(ctx context.Context, userID uint) (bool, error)
}

type genericResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse client registry url: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) CreateClient(ctx context.Context, reg ClientRegistration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode client registration: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client registry create: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("client registry create failed: %s", resp.Status)
	}
	var out genericResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode client registry response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("client registry rejected registration: %s", out.Message)
	}
	return nil
}

// IsBlacklisted asks the registry for the blacklist status of a client.
// The registry answers success=true when the client is flagged.
func (c *HTTPClient) IsBlacklisted(ctx context.Context, userID uint) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/is-blacklisted/%d", c.baseURL, userID), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("client registry blacklist check: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("client registry blacklist check failed: %s", resp.Status)
	}
	var out genericResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode blacklist response: %w", err)
	}
	return out.Success, nil
}
