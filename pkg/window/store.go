package window

import (
	"errors"
	"sync"

	"github.com/ava-labs/window-averager/pkg/metrics"
)

// DefaultCapacity is the window size of the reference deployment.
const DefaultCapacity = 10

var ErrInvalidCapacity = errors.New("invalid window capacity: must be at least 1")

// Store is a thread-safe owner of a single Window. Ingest is its only
// mutation entry point besides Reset.
type Store struct {
	mu       sync.Mutex
	capacity int
	window   *Window
	metrics  *metrics.Metrics
}

// NewStore creates an empty Store bounded to capacity values.
// m may be nil.
func NewStore(capacity int, m *metrics.Metrics) (*Store, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	m.SetWindowCapacity(capacity)
	m.UpdateWindowMetrics(0, 0)
	return &Store{
		capacity: capacity,
		window:   NewWindow(),
		metrics:  m,
	}, nil
}

// Capacity returns the maximum window length.
func (s *Store) Capacity() int {
	return s.capacity
}

// Ingest merges batch into the window, evicts the oldest values beyond
// capacity and returns the before/after state together with the new mean.
// An empty batch leaves the window unchanged.
func (s *Store) Ingest(batch []int64) IngestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.window.Values()

	var accepted []int64
	for _, v := range batch {
		if s.window.Add(v) {
			accepted = append(accepted, v)
		}
	}
	evicted := s.window.TrimTo(s.capacity)

	fetched := make([]int64, len(batch))
	copy(fetched, batch)

	res := IngestResult{
		Previous: previous,
		Fetched:  fetched,
		Updated:  s.window.Values(),
		Average:  s.window.Mean(),
		Accepted: accepted,
		Evicted:  evicted,
	}

	s.metrics.RecordIngest(len(accepted), len(evicted), res.Duplicates())
	s.metrics.UpdateWindowMetrics(len(res.Updated), res.Average)
	return res
}

// State returns an ordered copy of the window together with its mean, read
// under one lock so the two always agree.
func (s *Store) State() (values []int64, average float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.Values(), s.window.Mean()
}

// Reset empties the window.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Clear()
	s.metrics.UpdateWindowMetrics(0, 0)
}
