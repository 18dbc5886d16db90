package resolve

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ryanbastic/gymdesk/internal/hal"
	"github.com/ryanbastic/gymdesk/internal/metrics"
)

// Fetcher dereferences a single resource link. *hal.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, link string) (*hal.Entity, error)
}

// Resolver dereferences the related-resource links of a batch of entities.
type Resolver struct {
	fetcher Fetcher
	limit   int
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency caps the number of in-flight fetches. Zero means no cap.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.limit = n }
}

// WithLogger sets the logger used to report failed resolutions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func New(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: f,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Unique returns the distinct non-empty links in first-seen order.
func Unique(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Resolve fetches every distinct link exactly once, concurrently, and
// returns the pass cache once all fetches have settled. A failed fetch is
// recorded as a Failed outcome and never aborts the pass.
//
// onUpdate, if non-nil, is called once per link as soon as it settles, in
// completion order. Calls are serialized, and each outcome is in the cache
// before onUpdate sees it.
func (r *Resolver) Resolve(ctx context.Context, links []string, onUpdate func(Update)) *Cache {
	urls := Unique(links)
	cache := NewCache(len(urls))

	var (
		g      errgroup.Group
		emitMu sync.Mutex
	)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	for _, url := range urls {
		g.Go(func() error {
			outcome := r.fetch(ctx, url)

			emitMu.Lock()
			defer emitMu.Unlock()
			cache.Store(url, outcome)
			if onUpdate != nil {
				onUpdate(Update{URL: url, Outcome: outcome})
			}
			return nil
		})
	}
	g.Wait()

	r.logger.Debug("resolution pass complete", "links", len(links), "unique", len(urls))
	return cache
}

func (r *Resolver) fetch(ctx context.Context, url string) Outcome {
	e, err := r.fetcher.Get(ctx, url)
	if err != nil {
		r.logger.Warn("link resolution failed", "url", url, "error", err)
		metrics.ObserveResolution(true)
		return Failed(err)
	}
	metrics.ObserveResolution(false)
	return Resolved(e)
}
