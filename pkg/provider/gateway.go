package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/window-averager/pkg/metrics"
)

const (
	// maxPayloadBytes bounds how much of a provider response is read.
	maxPayloadBytes = 1 << 20
	// unknownCategory labels fetches against endpoints outside the table.
	unknownCategory = "unknown"
)

var (
	ErrInvalidConfig    = errors.New("invalid provider config")
	ErrTimeout          = errors.New("provider fetch timed out")
	ErrCanceled         = errors.New("provider fetch canceled")
	ErrTransport        = errors.New("provider transport error")
	ErrUnexpectedStatus = errors.New("unexpected provider status")
	ErrMalformedPayload = errors.New("malformed provider payload")
)

// Result is the outcome of a single provider call. Exactly one of Numbers or
// Err is meaningful: Err is nil on success.
type Result struct {
	Numbers []int64
	Err     error
}

// Reason returns a short label for the failure, or metrics.StatusSuccess.
func (r Result) Reason() string {
	switch {
	case r.Err == nil:
		return metrics.StatusSuccess
	case errors.Is(r.Err, ErrTimeout):
		return "timeout"
	case errors.Is(r.Err, ErrCanceled):
		return "canceled"
	case errors.Is(r.Err, ErrUnexpectedStatus):
		return "unexpected_status"
	case errors.Is(r.Err, ErrMalformedPayload):
		return "malformed_payload"
	default:
		return "transport"
	}
}

type payload struct {
	Numbers *[]int64 `json:"numbers"`
}

// Gateway resolves category tokens to provider endpoints and performs
// time-bounded fetches against them. It keeps no state between calls.
type Gateway struct {
	client     *http.Client
	timeout    time.Duration
	endpoints  map[Category]string
	categories map[string]Category
	log        *zap.SugaredLogger
	metrics    *metrics.Metrics
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.client = c
	}
}

// NewGateway builds the category table below cfg.BaseURL.
// m may be nil.
func NewGateway(cfg Config, log *zap.SugaredLogger, m *metrics.Metrics, opts ...Option) (*Gateway, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, cfg.Timeout)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrInvalidConfig, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: base url must be http or https, got %q", ErrInvalidConfig, cfg.BaseURL)
	}

	g := &Gateway{
		client:     &http.Client{},
		timeout:    cfg.Timeout,
		endpoints:  make(map[Category]string, len(paths)),
		categories: make(map[string]Category, len(paths)),
		log:        log,
		metrics:    m,
	}
	prefix := strings.TrimSuffix(base.String(), "/")
	for _, c := range Categories() {
		endpoint := prefix + "/" + c.Path()
		g.endpoints[c] = endpoint
		g.categories[endpoint] = c
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Timeout returns the per-fetch deadline.
func (g *Gateway) Timeout() time.Duration {
	return g.timeout
}

// Endpoints returns a copy of the category table.
func (g *Gateway) Endpoints() map[Category]string {
	out := make(map[Category]string, len(g.endpoints))
	for c, e := range g.endpoints {
		out[c] = e
	}
	return out
}

// Resolve maps a category token to its endpoint. It fails with
// ErrInvalidCategory for unknown tokens and never touches the network.
func (g *Gateway) Resolve(token string) (string, error) {
	c, err := ParseCategory(token)
	if err != nil {
		return "", err
	}
	return g.endpoints[c], nil
}

// Fetch performs a single bounded GET against endpoint and returns the
// numbers as-is. Every failure collapses to an empty, non-nil slice.
func (g *Gateway) Fetch(ctx context.Context, endpoint string) []int64 {
	res := g.Get(ctx, endpoint)
	if res.Err != nil {
		return []int64{}
	}
	return res.Numbers
}

// Get performs a single bounded GET against endpoint and reports the
// distinguished outcome. No retry is attempted.
func (g *Gateway) Get(ctx context.Context, endpoint string) Result {
	category := g.categoryLabel(endpoint)
	start := time.Now()

	g.metrics.IncFetchInFlight()
	defer g.metrics.DecFetchInFlight()

	res := g.get(ctx, endpoint)

	g.metrics.RecordFetch(category, res.Reason(), len(res.Numbers), time.Since(start).Seconds())
	if res.Err != nil {
		g.log.Warnw("provider fetch failed",
			"category", category,
			"endpoint", endpoint,
			"reason", res.Reason(),
			"error", res.Err,
		)
	} else {
		g.log.Debugw("provider fetch succeeded",
			"category", category,
			"endpoint", endpoint,
			"count", len(res.Numbers),
			"duration", time.Since(start),
		)
	}
	return res
}

func (g *Gateway) get(parent context.Context, endpoint string) Result {
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: build request: %w", ErrTransport, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{Err: classify(parent, ctx, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{Err: fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)}
	}

	var p payload
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes))
	err = dec.Decode(&p)
	if err == nil {
		err = expectEOF(dec)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Result{Err: classify(parent, ctx, err)}
		}
		return Result{Err: fmt.Errorf("%w: %w", ErrMalformedPayload, err)}
	}
	if p.Numbers == nil {
		return Result{Err: fmt.Errorf("%w: missing numbers field", ErrMalformedPayload)}
	}
	return Result{Numbers: *p.Numbers}
}

// expectEOF fails when anything other than whitespace follows the payload.
func expectEOF(dec *json.Decoder) error {
	_, err := dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return fmt.Errorf("trailing data after payload: %w", err)
	default:
		return errors.New("trailing data after payload")
	}
}

// classify maps a transport error onto the failure taxonomy. A cancelled
// parent context wins over the fetch deadline.
func classify(parent, ctx context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func (g *Gateway) categoryLabel(endpoint string) string {
	if c, ok := g.categories[endpoint]; ok {
		return c.String()
	}
	return unknownCategory
}
