package hal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ryanbastic/gymdesk/internal/circuitbreaker"
)

// Client issues read and write operations against a hypermedia API.
// Collection paths are joined onto the base URL; entity links are absolute
// and used as-is. The client never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreaker routes every request through b.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CollectionURL joins a collection path onto the base URL.
func (c *Client) CollectionURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// List fetches a collection resource.
func (c *Client) List(ctx context.Context, path string) (*Collection, error) {
	var col Collection
	if err := c.do(ctx, http.MethodGet, c.CollectionURL(path), nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// Get dereferences a single resource link.
func (c *Client) Get(ctx context.Context, link string) (*Entity, error) {
	var e Entity
	if err := c.do(ctx, http.MethodGet, link, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create posts body to a collection and returns the created entity.
func (c *Client) Create(ctx context.Context, path string, body any) (*Entity, error) {
	var e Entity
	if err := c.do(ctx, http.MethodPost, c.CollectionURL(path), body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the resource at link with body.
func (c *Client) Update(ctx context.Context, link string, body any) (*Entity, error) {
	var e Entity
	if err := c.do(ctx, http.MethodPut, link, body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the resource at link.
func (c *Client) Delete(ctx context.Context, link string) error {
	return c.do(ctx, http.MethodDelete, link, nil, nil)
}

// Ping fetches the API root.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.baseURL, nil, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, target, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return &TransportError{Method: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/hal+json, application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	err = c.execute(func() error { return c.roundTrip(req, out) })
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		err = &TransportError{Method: method, URL: target, Err: err}
	}

	c.logger.Debug("hal request",
		"method", method,
		"url", target,
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

func (c *Client) execute(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}

func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &RequestFailed{
			Method:     req.Method,
			URL:        req.URL.String(),
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("read response: %w", err)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL, err)
	}
	return nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
