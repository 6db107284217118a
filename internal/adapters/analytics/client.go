// Package analytics is an HTTP client for a remote snaptrust analytics
// service. It lets one instance serve dashboards over another's data.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 8 << 20
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout of the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// Client reads entities, averages and details from a remote service.
type Client struct {
	base *url.URL
	http *http.Client
	log  logger.Logger
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Entities fetches up to limit entities sorted by trust score.
func (c *Client) Entities(ctx context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error) {
	if order == "" {
		order = model.OrderDesc
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort_order", string(order))

	body, err := c.get(ctx, "entities", q, kind.Plural())
	if err != nil {
		return nil, err
	}
	es, err := model.DecodeEntities(kind, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return es, nil
}

// Averages fetches the population averages. Values keep their JSON number
// form; non-numeric members are left for Averages.Lookup to reject.
func (c *Client) Averages(ctx context.Context, kind model.Kind) (model.Averages, error) {
	body, err := c.get(ctx, "averages", nil, kind.Plural(), "metrics", "averages")
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var avg model.Averages
	if err := dec.Decode(&avg); err != nil {
		return nil, fmt.Errorf("%w: decode averages: %w", ErrUpstream, err)
	}
	return avg, nil
}

// Detail fetches one entity detail record.
func (c *Client) Detail(ctx context.Context, kind model.Kind, id string) (model.Detail, error) {
	body, err := c.get(ctx, "detail", nil, kind.Plural(), id)
	if err != nil {
		return model.Detail{}, err
	}
	d, err := model.DecodeDetail(kind, body)
	if err != nil {
		return model.Detail{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, segments ...string) ([]byte, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.RecordRemoteRequest(endpoint, outcome, float64(time.Since(start).Milliseconds()))
	}()

	u := c.base.JoinPath(segments...)
	if q != nil {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "remote analytics request failed", logger.String("url", u.String()), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		outcome = "not_found"
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u.Path)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstream, u.Path, resp.StatusCode)
	}
	outcome = "ok"
	return body, nil
}
