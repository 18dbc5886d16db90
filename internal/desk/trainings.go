package desk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ryanbastic/gymdesk/internal/export"
	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/resolve"
	"github.com/ryanbastic/gymdesk/internal/view"
)

// TrainingBoard is the training list joined with the owning customers.
// Each successful Load starts a resolution pass; customer names fill in as
// the pass progresses and results of superseded passes are dropped.
type TrainingBoard struct {
	client   Client
	resolver *resolve.Resolver
	location *time.Location
	logger   *slog.Logger

	mu        sync.RWMutex
	trainings []model.Training
	results   resolve.Results
	pass      uint64
	settled   chan struct{}
	term      string
	err       error
}

// NewTrainingBoard returns an empty board. Call Load to fill it.
func NewTrainingBoard(client Client, resolver *resolve.Resolver, opts ...Option) *TrainingBoard {
	s := newSettings(opts)
	settled := make(chan struct{})
	close(settled)
	return &TrainingBoard{
		client:   client,
		resolver: resolver,
		location: s.location,
		logger:   s.logger,
		results:  resolve.Results{},
		settled:  settled,
	}
}

// Load fetches the training collection and starts resolving the customers
// it references. On failure the previous state stays in place. The
// resolution pass outlives ctx.
func (b *TrainingBoard) Load(ctx context.Context) error {
	trainings, err := b.fetch(ctx)
	if err != nil {
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		return err
	}

	links := make([]string, len(trainings))
	for i, t := range trainings {
		links[i] = t.CustomerLink
	}

	b.mu.Lock()
	b.pass++
	pass := b.pass
	b.trainings = trainings
	b.results = resolve.Results{}
	b.err = nil
	done := make(chan struct{})
	b.settled = done
	b.mu.Unlock()

	b.logger.Debug("resolution pass started", "pass", pass, "trainings", len(trainings))

	go func() {
		defer close(done)
		b.resolver.Resolve(context.WithoutCancel(ctx), links, func(u resolve.Update) {
			b.apply(pass, u)
		})
	}()
	return nil
}

func (b *TrainingBoard) fetch(ctx context.Context) ([]model.Training, error) {
	col, err := b.client.List(ctx, TrainingsPath)
	if err != nil {
		return nil, fmt.Errorf("load trainings: %w", err)
	}
	trainings, skipped := model.TrainingsFromEntities(col.Items(relTrainings))
	for _, err := range skipped {
		b.logger.Warn("skipping training", "error", err)
	}
	return trainings, nil
}

func (b *TrainingBoard) apply(pass uint64, u resolve.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pass != b.pass {
		b.logger.Debug("dropping stale resolution", "pass", pass, "current", b.pass, "url", u.URL)
		return
	}
	b.results[u.URL] = u.Outcome
}

// Settled returns a channel closed once the current resolution pass has
// finished. It is already closed when no pass is running.
func (b *TrainingBoard) Settled() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settled
}

// Pass returns the number of the current resolution pass.
func (b *TrainingBoard) Pass() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pass
}

// Err returns the error from the last failed load, or nil.
func (b *TrainingBoard) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// SetFilter sets the search term applied by Rows and Export.
func (b *TrainingBoard) SetFilter(term string) {
	b.mu.Lock()
	b.term = term
	b.mu.Unlock()
}

// Filter returns the current search term.
func (b *TrainingBoard) Filter() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.term
}

// Rows returns the rows matching the current filter.
func (b *TrainingBoard) Rows() []view.TrainingRow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return view.Filter(view.TrainingRows(b.trainings, b.results, b.location), b.term)
}

// Search returns the rows matching term. The board's own filter is not
// touched.
func (b *TrainingBoard) Search(term string) []view.TrainingRow {
	b.mu.RLock()
	rows := view.TrainingRows(b.trainings, b.results, b.location)
	b.mu.RUnlock()
	return view.Filter(rows, term)
}

// Events returns every training as a calendar event, ignoring the filter.
func (b *TrainingBoard) Events() []view.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return view.CalendarEvents(b.trainings, b.results)
}

// Export renders the filtered rows as delimited text.
func (b *TrainingBoard) Export() string {
	return export.DelimitedText(b.Rows(), TrainingColumns)
}

// ExportMatching renders the rows matching term as delimited text.
func (b *TrainingBoard) ExportMatching(term string) string {
	return export.DelimitedText(b.Search(term), TrainingColumns)
}

// Delete removes the training with self-link id and reloads the board.
func (b *TrainingBoard) Delete(ctx context.Context, id string) error {
	if !b.has(id) {
		return ErrRowNotFound
	}
	if err := b.client.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete training: %w", err)
	}
	if err := b.Load(ctx); err != nil {
		b.logger.Warn("training reload failed", "error", err)
	}
	return nil
}

func (b *TrainingBoard) has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.trainings {
		if t.Self == id {
			return true
		}
	}
	return false
}
