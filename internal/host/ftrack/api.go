package ftrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shothook/internal/config"
	"shothook/internal/logging"
	"shothook/internal/services"
)

// Well known location ids.
const (
	ServerLocationID    = "3a372bde-05bc-11e4-8908-20c9d081909b"
	UnmanagedLocationID = "cb268ecc-8809-11e3-a7e2-20c9d081909b"
)

const component = "ftrack"

// HTTPDoer describes the HTTP client used by the API client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the host JSON API at <server>/api.
type Client struct {
	baseURL string
	apiUser string
	apiKey  string
	http    HTTPDoer
	logger  *slog.Logger
	newID   func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP transport.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithIDGenerator overrides how client-side entity ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New constructs a Client for the given server.
func New(baseURL, apiUser, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiUser: strings.TrimSpace(apiUser),
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logging.NewComponentLogger(logger, component),
		newID:   newEntityID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig constructs a Client from the host section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return New(cfg.Host.ServerURL, cfg.Host.APIUser, cfg.Host.APIKey, logger,
		WithHTTPClient(&http.Client{Timeout: cfg.HostTimeout()}))
}

// operation is one entry in a batched API call.
type operation map[string]any

type apiError struct {
	Exception string `json:"exception"`
	Content   string `json:"content"`
}

func (c *Client) call(ctx context.Context, ops ...operation) ([]json.RawMessage, error) {
	body, err := json.Marshal(ops)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "encode request", "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ftrack-user", c.apiUser)
	req.Header.Set("ftrack-api-key", c.apiKey)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "call api", "", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, component, "read response", "", err)
	}
	c.logger.Debug("api call",
		logging.Int("operations", len(ops)),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr apiError
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && apiErr.Exception != "" {
			return nil, services.Wrap(services.ErrExternal, component, "call api", apiErr.Exception+": "+apiErr.Content, nil)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, services.Wrap(services.ErrExternal, component, "call api", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var results []json.RawMessage
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, services.Wrap(services.ErrExternal, component, "decode response", "", err)
	}
	if len(results) != len(ops) {
		return nil, services.Wrap(services.ErrExternal, component, "decode response",
			fmt.Sprintf("expected %d results, got %d", len(ops), len(results)), nil)
	}
	return results, nil
}

// query runs a single select expression and decodes the data rows into out,
// which must be a pointer to a slice.
func (c *Client) query(ctx context.Context, expression string, out any) error {
	results, err := c.call(ctx, operation{"action": "query", "expression": expression})
	if err != nil {
		return err
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(results[0], &envelope); err != nil {
		return services.Wrap(services.ErrExternal, component, "decode query", expression, err)
	}
	if len(envelope.Data) == 0 {
		envelope.Data = []byte("[]")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return services.Wrap(services.ErrExternal, component, "decode query", expression, err)
	}
	return nil
}

func (c *Client) create(ctx context.Context, entityType string, data map[string]any, out any) error {
	if _, ok := data["id"]; !ok {
		data["id"] = c.newID()
	}
	results, err := c.call(ctx, operation{"action": "create", "entity_type": entityType, "entity_data": data})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(results[0], &envelope); err != nil {
		return services.Wrap(services.ErrExternal, component, "decode create", entityType, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return services.Wrap(services.ErrExternal, component, "decode create", entityType, err)
	}
	return nil
}

func (c *Client) update(ctx context.Context, entityType, id string, data map[string]any) error {
	_, err := c.call(ctx, operation{
		"action":      "update",
		"entity_type": entityType,
		"entity_key":  []string{id},
		"entity_data": data,
	})
	return err
}

// quote renders a string literal for the query language.
func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
