package desk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ryanbastic/gymdesk/internal/edit"
	"github.com/ryanbastic/gymdesk/internal/export"
	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/view"
)

// CustomerBoard is the customer list. It owns the only row editor.
type CustomerBoard struct {
	client  Client
	editor  *edit.Editor
	columns []export.Column
	logger  *slog.Logger

	mu        sync.RWMutex
	customers []model.Customer
	term      string
	err       error
}

// NewCustomerBoard returns an empty board. Call Load to fill it.
func NewCustomerBoard(client Client, opts ...Option) *CustomerBoard {
	s := newSettings(opts)
	b := &CustomerBoard{
		client:  client,
		columns: s.customerColumns,
		logger:  s.logger,
	}
	b.editor = edit.New(edit.UpdaterFunc(b.update), model.CustomerFields, edit.WithRefresh(b.reload))
	return b
}

// Load fetches the customer collection. On failure the previous rows stay
// in place and the error is kept for Err.
func (b *CustomerBoard) Load(ctx context.Context) error {
	customers, err := b.fetch(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.err = err
		return err
	}
	b.customers = customers
	b.err = nil
	return nil
}

func (b *CustomerBoard) fetch(ctx context.Context) ([]model.Customer, error) {
	col, err := b.client.List(ctx, CustomersPath)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	customers, err := model.CustomersFromEntities(col.Items(relCustomers))
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	return customers, nil
}

// reload runs after a mutation has already succeeded, so its failure only
// lands in Err.
func (b *CustomerBoard) reload(ctx context.Context) {
	if err := b.Load(ctx); err != nil {
		b.logger.Warn("customer reload failed", "error", err)
	}
}

// Err returns the error from the last failed load, or nil.
func (b *CustomerBoard) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// SetFilter sets the search term applied by Rows and Export.
func (b *CustomerBoard) SetFilter(term string) {
	b.mu.Lock()
	b.term = term
	b.mu.Unlock()
}

// Filter returns the current search term.
func (b *CustomerBoard) Filter() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.term
}

// Rows returns the rows matching the current filter.
func (b *CustomerBoard) Rows() []view.CustomerRow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return view.Filter(view.CustomerRows(b.customers), b.term)
}

// Search returns the rows matching term. The board's own filter is not
// touched.
func (b *CustomerBoard) Search(term string) []view.CustomerRow {
	b.mu.RLock()
	rows := view.CustomerRows(b.customers)
	b.mu.RUnlock()
	return view.Filter(rows, term)
}

// Export renders the filtered rows as delimited text.
func (b *CustomerBoard) Export() string {
	return export.DelimitedText(b.Rows(), b.columns)
}

// ExportMatching renders the rows matching term as delimited text.
func (b *CustomerBoard) ExportMatching(term string) string {
	return export.DelimitedText(b.Search(term), b.columns)
}

// Create validates form, posts it and reloads the board.
func (b *CustomerBoard) Create(ctx context.Context, form model.CustomerForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if _, err := b.client.Create(ctx, CustomersPath, form); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	b.reload(ctx)
	return nil
}

// Delete removes the customer with self-link id and reloads the board. An
// overlay open on that customer is discarded.
func (b *CustomerBoard) Delete(ctx context.Context, id string) error {
	if _, ok := b.find(id); !ok {
		return ErrRowNotFound
	}
	if err := b.client.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if s := b.editor.State(); s.Editing() && s.RowID == id {
		_ = b.editor.Cancel(s.Token)
	}
	b.reload(ctx)
	return nil
}

// AddTraining validates form and creates a training owned by the customer
// with self-link id.
func (b *CustomerBoard) AddTraining(ctx context.Context, id string, form model.TrainingForm) error {
	if _, ok := b.find(id); !ok {
		return ErrRowNotFound
	}
	if err := form.Validate(); err != nil {
		return err
	}
	if _, err := b.client.Create(ctx, TrainingsPath, form.Body(id)); err != nil {
		return fmt.Errorf("add training: %w", err)
	}
	return nil
}

// BeginEdit opens the editor on the customer with self-link id.
func (b *CustomerBoard) BeginEdit(id string) (edit.Snapshot, error) {
	c, ok := b.find(id)
	if !ok {
		return edit.Snapshot{}, ErrRowNotFound
	}
	return b.editor.Begin(view.CustomerRows([]model.Customer{c})[0]), nil
}

// ChangeField sets one field of the open overlay.
func (b *CustomerBoard) ChangeField(token, field, value string) error {
	return b.editor.Change(token, field, value)
}

// CommitEdit saves the open overlay. The board reloads on success.
func (b *CustomerBoard) CommitEdit(ctx context.Context, token string) error {
	return b.editor.Commit(ctx, token)
}

// CancelEdit discards the open overlay.
func (b *CustomerBoard) CancelEdit(token string) error {
	return b.editor.Cancel(token)
}

// EditState returns a copy of the overlay.
func (b *CustomerBoard) EditState() edit.Snapshot {
	return b.editor.State()
}

func (b *CustomerBoard) update(ctx context.Context, id string, values map[string]string) error {
	if _, err := b.client.Update(ctx, id, model.CustomerFormFromFields(values)); err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

func (b *CustomerBoard) find(id string) (model.Customer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.customers {
		if c.Self == id {
			return c, true
		}
	}
	return model.Customer{}, false
}
