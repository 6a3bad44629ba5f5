package averager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/window-averager/pkg/metrics"
	"github.com/ava-labs/window-averager/pkg/provider"
	"github.com/ava-labs/window-averager/pkg/window"
)

// ErrInvalidCategory is returned by Submit for tokens outside the category
// table. No fetch is attempted.
var ErrInvalidCategory = provider.ErrInvalidCategory

// Gateway resolves and fetches provider batches. *provider.Gateway implements it.
type Gateway interface {
	Resolve(token string) (string, error)
	Fetch(ctx context.Context, endpoint string) []int64
}

// Store merges batches into the window. *window.Store implements it.
type Store interface {
	Ingest(batch []int64) window.IngestResult
	State() (values []int64, average float64)
	Capacity() int
	Reset()
}

// Publisher receives every window update. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, category string, res window.IngestResult) error
}

var (
	_ Gateway = (*provider.Gateway)(nil)
	_ Store   = (*window.Store)(nil)
)

// Service runs one submission cycle: Resolve, Fetch, Ingest, then publish.
type Service struct {
	gateway   Gateway
	store     Store
	publisher Publisher
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics

	// publishTimeout bounds a single publish after the window was updated.
	publishTimeout time.Duration

	mu         sync.Mutex
	publishErr error
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher publishes every IngestResult through p.
func WithPublisher(p Publisher, timeout time.Duration) Option {
	return func(s *Service) {
		s.publisher = p
		s.publishTimeout = timeout
	}
}

// NewService wires a gateway and a store. m may be nil.
func NewService(g Gateway, st Store, log *zap.SugaredLogger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		gateway: g,
		store:   st,
		log:     log,
		metrics: m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit fetches the batch for token and merges it into the window.
//
// It returns ErrInvalidCategory for unknown tokens without fetching. A failed
// fetch is not an error: the empty batch is ingested, the window is left
// unchanged and IngestResult.FetchFailed reports it. If ctx is done before the
// fetch returns, the late batch is discarded, the window is not touched and
// ctx.Err() is returned.
func (s *Service) Submit(ctx context.Context, token string) (window.IngestResult, error) {
	endpoint, err := s.gateway.Resolve(token)
	if err != nil {
		s.metrics.IncError(metrics.ErrTypeInvalidCategory)
		// Unknown tokens share one label value to keep cardinality bounded.
		s.metrics.RecordSubmit("unknown", metrics.OutcomeInvalid)
		return window.IngestResult{}, err
	}

	batch := s.gateway.Fetch(ctx, endpoint)
	if err := ctx.Err(); err != nil {
		s.metrics.IncError(metrics.ErrTypeAbandoned)
		s.metrics.RecordSubmit(token, metrics.OutcomeAbandoned)
		s.log.Infow("submission abandoned, discarding batch",
			"category", token,
			"fetched", len(batch),
			"error", err,
		)
		return window.IngestResult{}, fmt.Errorf("submission for %q abandoned: %w", token, err)
	}

	res := s.store.Ingest(batch)

	if res.FetchFailed() {
		s.metrics.RecordSubmit(token, metrics.OutcomeFetchFailed)
		s.log.Warnw("failed to fetch numbers, window unchanged",
			"category", token,
			"window", res.Updated,
			"average", res.Average,
		)
	} else {
		s.metrics.RecordSubmit(token, metrics.OutcomeIngested)
		s.log.Infow("window updated",
			"category", token,
			"fetched", len(res.Fetched),
			"accepted", len(res.Accepted),
			"evicted", len(res.Evicted),
			"window", res.Updated,
			"average", res.Average,
		)
	}

	s.publish(ctx, token, res)
	return res, nil
}

// Window returns the current window, its mean and its capacity.
func (s *Service) Window() (values []int64, average float64, capacity int) {
	values, average = s.store.State()
	return values, average, s.store.Capacity()
}

// Reset empties the window.
func (s *Service) Reset() {
	s.store.Reset()
	s.log.Info("window reset")
}

// Health reports the last publish failure, if any. It clears once a
// publish succeeds again.
func (s *Service) Health() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishErr != nil {
		return fmt.Errorf("ingest event publishing failing: %w", s.publishErr)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, category string, res window.IngestResult) {
	if s.publisher == nil {
		return
	}
	// The window already moved; a caller going away must not drop the event.
	pctx := context.WithoutCancel(ctx)
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(pctx, s.publishTimeout)
		defer cancel()
	}

	start := time.Now()
	err := s.publisher.Publish(pctx, category, res)
	s.metrics.RecordPublish(err, time.Since(start).Seconds())

	s.mu.Lock()
	s.publishErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Errorw("failed to publish ingest event", "category", category, "error", err)
	}
}

// IsInvalidCategory reports whether err came from an unknown category token.
func IsInvalidCategory(err error) bool {
	return errors.Is(err, ErrInvalidCategory)
}
