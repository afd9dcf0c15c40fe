// Package classifier implements mapping.Classifier over a remote HTTP
// classification service. The mapper recovers from every error here by
// falling back to its heuristics, so the client reports failures and
// returns them without retrying.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tinta/mapping"
)

const defaultTimeout = 20 * time.Second

// Client posts prepared color facts to a classification endpoint and
// returns the service's token verdicts.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures the Client.
type Option func(*Client)

// New creates a classifier client for the given endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSuffix(strings.TrimSpace(endpoint), "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithModel selects the model the service should answer with.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout replaces the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// payload is the request wire format: the mapper's classification
// request plus the model selector.
type payload struct {
	Model        string            `json:"model,omitempty"`
	Kind         mapping.Kind      `json:"kind"`
	Context      string            `json:"context,omitempty"`
	Facts        []mapping.Fact    `json:"facts"`
	Instructions string            `json:"instructions,omitempty"`
	Examples     []mapping.Example `json:"examples,omitempty"`
}

type verdicts struct {
	Assignments []mapping.Assignment `json:"assignments"`
}

// Classify implements mapping.Classifier.
func (c *Client) Classify(ctx context.Context, req mapping.ClassifyRequest) ([]mapping.Assignment, error) {
	if c.endpoint == "" {
		return nil, errors.New("classifier: no endpoint configured")
	}
	body, err := json.Marshal(payload{
		Model:        c.model,
		Kind:         req.Kind,
		Context:      req.Context,
		Facts:        req.Facts,
		Instructions: req.Instructions,
		Examples:     req.Examples,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("classifier request failed", "kind", req.Kind, "err", err)
		return nil, fmt.Errorf("classify %s facts: %w", req.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readError(resp.Body)
		c.logger.Warn("classifier rejected request", "kind", req.Kind, "status", resp.Status, "msg", msg)
		return nil, fmt.Errorf("classify %s facts: %s: %s", req.Kind, resp.Status, msg)
	}

	var out verdicts
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	return out.Assignments, nil
}

// readError pulls a service error message out of a failed response.
func readError(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
