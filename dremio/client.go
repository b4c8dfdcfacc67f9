// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package dremio

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Executor runs one read-only SQL query against a tabular engine. Queries
// use ? placeholders; implementations are responsible for binding args
// safely, never interpolating raw strings.
type Executor interface {
	Execute(ctx context.Context, query string, args ...any) (*Result, error)
}

// Config holds the Dremio connection settings.
type Config struct {
	Username   string
	Password   string
	Server     string
	ServerAuth string
	SSL        bool
	Timeout    time.Duration
}

// ConfigFromEnv builds a Config from DREMIO_* environment variables.
// DREMIO_TIMEOUT is in milliseconds and defaults to 60s.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Username:   os.Getenv("DREMIO_USERNAME"),
		Password:   os.Getenv("DREMIO_PASSWORD"),
		Server:     os.Getenv("DREMIO_SERVER"),
		ServerAuth: os.Getenv("DREMIO_SERVER_AUTH"),
		Timeout:    60 * time.Second,
	}

	switch strings.ToLower(os.Getenv("DREMIO_SSL")) {
	case "true", "1", "yes", "on":
		cfg.SSL = true
	}

	if v := os.Getenv("DREMIO_TIMEOUT"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing DREMIO_TIMEOUT: %w", err)
		}

		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}

	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("dremio credentials are required: set DREMIO_USERNAME and DREMIO_PASSWORD")
	}

	if cfg.Server == "" || cfg.ServerAuth == "" {
		return nil, errors.New("dremio server URLs are required: set DREMIO_SERVER and DREMIO_SERVER_AUTH")
	}

	return cfg, nil
}

// Client talks to the Dremio SQL-over-HTTP API. It authenticates against
// /apiv2/login and submits queries to /apiv2/sql, re-authenticating once
// when the session token expires.
type Client struct {
	cfg    *Config
	client *http.Client

	mu    sync.Mutex
	token string
}

// NewClient creates a client; no network traffic happens until the first
// call to Authenticate or Execute.
func NewClient(cfg *Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	if !cfg.SSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 - mirrors DREMIO_SSL=false deployments behind a private network
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			// Queries get a longer budget than the auth handshake
			Timeout:   cfg.Timeout * 3,
			Transport: transport,
		},
	}
}

// Authenticate logs in and stores the session token. A failure here means
// the whole channel is unavailable, not a single query.
func (c *Client) Authenticate(ctx context.Context) error {
	authURL, err := url.JoinPath(c.cfg.ServerAuth, "/apiv2/login")
	if err != nil {
		return &QueryError{Type: ErrorTypeUnavailable, Message: "building auth URL", Err: err}
	}

	body, err := json.Marshal(map[string]string{
		"userName": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return &QueryError{Type: ErrorTypeUnavailable, Message: "encoding credentials", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, bytes.NewReader(body))
	if err != nil {
		return &QueryError{Type: ErrorTypeUnavailable, Message: "building auth request", Err: err}
	}

	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return &QueryError{Type: ErrorTypeUnavailable, Message: "authentication request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return &QueryError{
			Type:    ErrorTypeUnavailable,
			Message: fmt.Sprintf("authentication failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	var authResult struct {
		Token string `json:"token"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&authResult); err != nil {
		return &QueryError{Type: ErrorTypeUnavailable, Message: "decoding auth response", Err: err}
	}

	if authResult.Token == "" {
		return &QueryError{Type: ErrorTypeUnavailable, Message: "no token received from authentication"}
	}

	c.mu.Lock()
	c.token = authResult.Token
	c.mu.Unlock()

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "wisegate/1.0")
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", "_dremio"+c.token)
	}
	c.mu.Unlock()
}

func (c *Client) authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.token != ""
}

// Execute binds args into the query and submits it. The Dremio REST API has
// no server-side parameter binding, so placeholders are substituted with
// safely quoted literals in renderQuery; that function is the only place
// where values meet SQL text.
func (c *Client) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	sql, err := renderQuery(query, args...)
	if err != nil {
		return nil, &QueryError{Type: ErrorTypeQuery, Message: "binding query parameters", Err: err}
	}

	if !c.authenticated() {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	result, err := c.submit(ctx, sql)

	// Session tokens expire; retry once with a fresh login.
	var qErr *QueryError
	if errors.As(err, &qErr) && qErr.Type == ErrorTypeUnavailable && qErr.retryable {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}

		return c.submit(ctx, sql)
	}

	return result, err
}

func (c *Client) submit(ctx context.Context, sql string) (*Result, error) {
	queryURL, err := url.JoinPath(c.cfg.Server, "/apiv2/sql")
	if err != nil {
		return nil, &QueryError{Type: ErrorTypeUnavailable, Message: "building query URL", Err: err}
	}

	body, err := json.Marshal(map[string]string{"sql": sql})
	if err != nil {
		return nil, &QueryError{Type: ErrorTypeQuery, Message: "encoding query", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryURL, bytes.NewReader(body))
	if err != nil {
		return nil, &QueryError{Type: ErrorTypeQuery, Message: "building query request", Err: err}
	}

	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, &QueryError{Type: ErrorTypeTimeout, Message: "query execution timed out", Err: err}
		}

		return nil, &QueryError{Type: ErrorTypeNetwork, Message: "query request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		qErr := classifyResponse(resp.StatusCode, detail)
		if resp.StatusCode == http.StatusUnauthorized {
			qErr.retryable = true
		}

		return nil, qErr
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &QueryError{Type: ErrorTypeQuery, Message: "decoding query response", Err: err}
	}

	return &result, nil
}

// classifyResponse extracts Dremio's errorMessage payload when present.
func classifyResponse(statusCode int, body []byte) *QueryError {
	detail := strings.TrimSpace(string(body))

	var payload struct {
		ErrorMessage string `json:"errorMessage"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && payload.ErrorMessage != "" {
		detail = payload.ErrorMessage
	}

	return ClassifyHTTPStatus(statusCode, detail)
}

func isTimeout(err error) bool {
	type timeouter interface {
		Timeout() bool
	}

	var t timeouter

	return errors.As(err, &t) && t.Timeout()
}
