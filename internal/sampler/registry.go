package sampler

import (
	"context"
	"errors"
	"sync"

	"solana-dexpaid-bot/internal/observability"
)

// DefaultMaxConcurrent bounds simultaneous sampling jobs. Every detection
// spawns a job that lives for hours, so an unbounded spawn rate would pile
// up goroutines and API traffic during feed bursts.
const DefaultMaxConcurrent = 256

// Launch rejections. Neither is a failure of the detection itself.
var (
	// ErrDuplicateJob means a job for the token address is already running.
	ErrDuplicateJob = errors.New("sampler already running for token")

	// ErrAtCapacity means the concurrent-job limit is reached.
	ErrAtCapacity = errors.New("sampler registry at capacity")
)

// Registry tracks running sampling jobs keyed by token address, bounding
// their number and rejecting duplicates.
type Registry struct {
	mu      sync.Mutex
	active  map[string]struct{}
	limit   int
	wg      sync.WaitGroup
	metrics *observability.Metrics
}

// NewRegistry creates a Registry allowing at most limit concurrent jobs.
// Non-positive limit selects DefaultMaxConcurrent. metrics may be nil.
func NewRegistry(limit int, metrics *observability.Metrics) *Registry {
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	return &Registry{
		active:  make(map[string]struct{}),
		limit:   limit,
		metrics: metrics,
	}
}

// Launch starts s.Track for the token in a new goroutine. Returns
// ErrDuplicateJob or ErrAtCapacity without starting anything when the
// registry cannot take the job.
func (r *Registry) Launch(ctx context.Context, s *Sampler, tokenAddress, tokenName string) error {
	r.mu.Lock()
	if _, running := r.active[tokenAddress]; running {
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.SamplersRejected.WithLabelValues(observability.RejectDuplicate).Inc()
		}
		return ErrDuplicateJob
	}
	if len(r.active) >= r.limit {
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.SamplersRejected.WithLabelValues(observability.RejectCapacity).Inc()
		}
		return ErrAtCapacity
	}
	r.active[tokenAddress] = struct{}{}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SamplersLaunched.Inc()
		r.metrics.SamplersActive.Inc()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(tokenAddress)
		s.Track(ctx, tokenAddress, tokenName)
	}()
	return nil
}

// ActiveCount returns the number of currently running jobs.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Wait blocks until all running jobs finish. Jobs only stop early via their
// context, so callers cancel first.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) release(tokenAddress string) {
	r.mu.Lock()
	delete(r.active, tokenAddress)
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.SamplersActive.Dec()
	}
}
