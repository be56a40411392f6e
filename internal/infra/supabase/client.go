// Package supabase is the Supabase (PostgREST) persistence backend. It uses
// the same tables as the postgres package.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// statusError is a non-2xx PostgREST answer.
type statusError struct {
	Method string
	Table  string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Table, e.Status, e.Body)
}

// get reads rows from table filtered by query and decodes them into out.
// Reads are retried.
func (c *Client) get(ctx context.Context, table string, query url.Values, out any) error {
	_, err := resilience.Call(ctx, c.cb, c.cfg, "supabase", func(ctx context.Context) (struct{}, error) {
		body, err := c.doRequest(ctx, http.MethodGet, table, query, nil)
		if err != nil {
			return struct{}{}, err
		}
		if len(body) == 0 {
			body = []byte("[]")
		}
		if err := json.Unmarshal(body, out); err != nil {
			return struct{}{}, resilience.Permanent(fmt.Errorf("decode %s: %w", table, err))
		}
		return struct{}{}, nil
	})
	return err
}

// insert posts rows to table. Inserts are not retried.
func (c *Client) insert(ctx context.Context, table string, rows any) ([]byte, error) {
	return resilience.Call(ctx, c.cb, resilience.Config{}, "supabase", func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, http.MethodPost, table, nil, rows)
	})
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, table string, query url.Values, payload any) ([]byte, error) {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("table", table),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("table", table),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		serr := &statusError{Method: method, Table: table, Status: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(serr)
		}
		return nil, serr
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("table", table),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

// Ping checks that PostgREST answers for the cards table.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "cards", url.Values{"select": {"id"}, "limit": {"1"}}, nil)
	return err
}

// Close is a no-op; the HTTP client is shared.
func (c *Client) Close() {}
