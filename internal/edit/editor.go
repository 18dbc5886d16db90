// Package edit holds the inline row editor: a single overlay carrying the
// working copy of one row until it is committed or cancelled.
package edit

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/ryanbastic/gymdesk/internal/model"
)

var (
	ErrNotEditing       = errors.New("no row is being edited")
	ErrUnknownField     = errors.New("unknown field")
	ErrCommitInProgress = errors.New("commit already in progress")
	ErrStaleOverlay     = errors.New("edit overlay was replaced")
)

// ValidationError and ValidationErrors are returned by Commit when the
// working copy has blank fields.
type (
	ValidationError  = model.ValidationError
	ValidationErrors = model.ValidationErrors
)

// Row is an editable row. RowID is the row's self-link.
type Row interface {
	RowID() string
	EditableFields() map[string]string
}

// Updater persists a committed working copy.
type Updater interface {
	Update(ctx context.Context, rowID string, values map[string]string) error
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(ctx context.Context, rowID string, values map[string]string) error

func (f UpdaterFunc) Update(ctx context.Context, rowID string, values map[string]string) error {
	return f(ctx, rowID, values)
}

// Phase is the editor's state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEditing    Phase = "editing"
	PhaseCommitting Phase = "committing"
)

// Snapshot is a copy of the overlay. Mutating it does not affect the editor.
type Snapshot struct {
	Phase     Phase             `json:"phase"`
	Token     string            `json:"token,omitempty"`
	RowID     string            `json:"rowId,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	SaveError string            `json:"saveError,omitempty"`
}

// Editing reports whether an overlay exists.
func (s Snapshot) Editing() bool {
	return s.Phase != PhaseIdle
}

// Option configures an Editor.
type Option func(*Editor)

// WithRefresh sets the callback run after a successful commit.
func WithRefresh(fn func(ctx context.Context)) Option {
	return func(e *Editor) { e.refresh = fn }
}

// Editor is safe for concurrent use. The lock is never held across the
// Updater call.
type Editor struct {
	updater Updater
	fields  []string
	refresh func(ctx context.Context)

	mu        sync.Mutex
	phase     Phase
	token     string
	gen       uint64
	rowID     string
	values    map[string]string
	errs      map[string]string
	saveError string
}

// New returns an idle editor over the given editable fields. Every field is
// required to be non-blank on commit.
func New(u Updater, fields []string, opts ...Option) *Editor {
	e := &Editor{
		updater: u,
		fields:  slices.Clone(fields),
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin opens a fresh overlay on row, discarding any previous one. Fields
// the row does not expose start out empty.
func (e *Editor) Begin(row Row) Snapshot {
	source := row.EditableFields()
	values := make(map[string]string, len(e.fields))
	for _, f := range e.fields {
		values[f] = source[f]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	e.phase = PhaseEditing
	e.token = uuid.NewString()
	e.rowID = row.RowID()
	e.values = values
	e.errs = nil
	e.saveError = ""
	return e.snapshotLocked()
}

// Change sets one field of the working copy. An empty token matches the
// current overlay.
func (e *Editor) Change(token, field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkLocked(token); err != nil {
		return err
	}
	if e.phase == PhaseCommitting {
		return ErrCommitInProgress
	}
	if _, ok := e.values[field]; !ok {
		return ErrUnknownField
	}
	e.values[field] = value
	return nil
}

// Commit validates the working copy and hands it to the Updater. Validation
// failures return ValidationErrors without any network call. On a save
// failure the overlay keeps its values and records the error. On success
// the editor goes idle and the refresh callback runs. If the overlay was
// replaced while saving, a successful save still refreshes but the new
// overlay is left untouched.
func (e *Editor) Commit(ctx context.Context, token string) error {
	e.mu.Lock()
	if err := e.checkLocked(token); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.phase == PhaseCommitting {
		e.mu.Unlock()
		return ErrCommitInProgress
	}

	if verrs := model.RequireFields(e.values, e.fields); len(verrs) > 0 {
		e.errs = verrs.ByField()
		e.mu.Unlock()
		return verrs
	}

	gen := e.gen
	rowID := e.rowID
	values := maps.Clone(e.values)
	e.phase = PhaseCommitting
	e.errs = nil
	e.saveError = ""
	e.mu.Unlock()

	err := e.updater.Update(ctx, rowID, values)

	e.mu.Lock()
	if e.gen != gen {
		// Replaced while saving; leave the new overlay alone. A save that
		// went through still refreshes the collection.
		e.mu.Unlock()
		if err != nil {
			return err
		}
		if e.refresh != nil {
			e.refresh(ctx)
		}
		return nil
	}
	if err != nil {
		e.phase = PhaseEditing
		e.saveError = err.Error()
		e.mu.Unlock()
		return err
	}
	e.resetLocked()
	e.mu.Unlock()

	if e.refresh != nil {
		e.refresh(ctx)
	}
	return nil
}

// Cancel discards the overlay. An empty token matches the current overlay.
func (e *Editor) Cancel(token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkLocked(token); err != nil {
		return err
	}
	e.resetLocked()
	return nil
}

// State returns a copy of the overlay.
func (e *Editor) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Fields returns the editable field names.
func (e *Editor) Fields() []string {
	return slices.Clone(e.fields)
}

func (e *Editor) checkLocked(token string) error {
	if e.phase == PhaseIdle {
		return ErrNotEditing
	}
	if token != "" && token != e.token {
		return ErrStaleOverlay
	}
	return nil
}

func (e *Editor) resetLocked() {
	e.gen++
	e.phase = PhaseIdle
	e.token = ""
	e.rowID = ""
	e.values = nil
	e.errs = nil
	e.saveError = ""
}

func (e *Editor) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:     e.phase,
		Token:     e.token,
		RowID:     e.rowID,
		Values:    maps.Clone(e.values),
		Errors:    maps.Clone(e.errs),
		SaveError: e.saveError,
	}
}
