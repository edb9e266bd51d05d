// Package database provides the typed gateway to the hosted backend's
// REST interface. All persistence and business logic live behind it; the
// client only translates intents into requests and raises typed failures.
package database

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/roastlabs/roastapp-client/internal/metrics"
)

// TokenSource supplies the bearer token for requests. An empty token
// means no user is signed in and the anon key is used instead, so
// row-level security sees an anonymous caller.
type TokenSource interface {
	AccessToken() string
}

// AnonOnly is a TokenSource that never has a user token.
type AnonOnly struct{}

func (AnonOnly) AccessToken() string { return "" }

// Config holds gateway configuration.
type Config struct {
	URL     string
	AnonKey string
}

// Client performs REST calls against the backend.
type Client struct {
	url        string
	anonKey    string
	tokens     TokenSource
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a new gateway client. metrics may be nil.
func NewClient(cfg Config, tokens TokenSource, m *metrics.Metrics) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("backend anon key is required")
	}
	if parsed, err := neturl.Parse(cfg.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend URL must be a valid URL")
	}
	if tokens == nil {
		tokens = AnonOnly{}
	}

	transport := http.DefaultTransport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		cloned := base.Clone()
		if cloned.TLSClientConfig == nil {
			cloned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		} else if cloned.TLSClientConfig.MinVersion < tls.VersionTLS12 {
			cloned.TLSClientConfig = cloned.TLSClientConfig.Clone()
			cloned.TLSClientConfig.MinVersion = tls.VersionTLS12
		}
		transport = cloned
	}

	return &Client{
		url:     strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		metrics: m,
	}, nil
}

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// request makes an HTTP request to a backend table.
func (c *Client) request(ctx context.Context, method, table string, body any, query string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.url, neturl.PathEscape(table))
	if query != "" {
		url += "?" + query
	}
	return c.do(ctx, method, url, body, method+" "+table)
}

// rpc invokes a named backend procedure.
func (c *Client) rpc(ctx context.Context, name string, params any) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/rpc/%s", c.url, neturl.PathEscape(name))
	return c.do(ctx, "POST", url, params, "rpc "+name)
}

func (c *Client) do(ctx context.Context, method, url string, body any, operation string) ([]byte, error) {
	if c.metrics != nil {
		c.metrics.RPCCalls.WithLabelValues(operation).Inc()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	key := c.anonKey
	bearer := key
	if token := c.tokens.AccessToken(); token != "" {
		bearer = token
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RPCFailures.WithLabelValues(operation).Inc()
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if c.metrics != nil {
			c.metrics.RPCFailures.WithLabelValues(operation).Inc()
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		msg := strings.TrimSpace(string(respBody))
		return nil, fmt.Errorf("backend error %d: %s", resp.StatusCode, msg)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(respBody) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return respBody, nil
}

// Repository exposes typed operations over the client, one file per
// application domain.
type Repository struct {
	client *Client
}

// NewRepository creates a repository over an existing client.
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}
