package edit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id     string
	fields map[string]string
}

func (r row) RowID() string                     { return r.id }
func (r row) EditableFields() map[string]string { return map[string]string{"name": r.fields["name"], "city": r.fields["city"]} }

var fields = []string{"name", "city"}

func annRow() row {
	return row{id: "http://api/customers/1", fields: map[string]string{"name": "Ann", "city": "Helsinki"}}
}

type recordingUpdater struct {
	mu    sync.Mutex
	calls []map[string]string
	ids   []string
	err   error
	gate  chan struct{}
	enter chan struct{}
}

func (u *recordingUpdater) Update(ctx context.Context, rowID string, values map[string]string) error {
	if u.enter != nil {
		u.enter <- struct{}{}
	}
	if u.gate != nil {
		<-u.gate
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, values)
	u.ids = append(u.ids, rowID)
	return u.err
}

func (u *recordingUpdater) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

func TestEditor_StartsIdle(t *testing.T) {
	e := New(&recordingUpdater{}, fields)
	s := e.State()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.Editing())
	assert.ErrorIs(t, e.Change("", "name", "x"), ErrNotEditing)
	assert.ErrorIs(t, e.Commit(context.Background(), ""), ErrNotEditing)
	assert.ErrorIs(t, e.Cancel(""), ErrNotEditing)
}

func TestEditor_BeginCopiesFields(t *testing.T) {
	e := New(&recordingUpdater{}, fields)
	r := annRow()

	s := e.Begin(r)
	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Equal(t, r.id, s.RowID)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, map[string]string{"name": "Ann", "city": "Helsinki"}, s.Values)

	require.NoError(t, e.Change(s.Token, "city", "Espoo"))
	assert.Equal(t, "Helsinki", r.fields["city"], "source row must not change")

	s.Values["name"] = "mutated"
	assert.Equal(t, "Ann", e.State().Values["name"], "snapshot must be a copy")
}

func TestEditor_BeginOnAnotherRowDiscards(t *testing.T) {
	e := New(&recordingUpdater{}, fields)
	first := e.Begin(annRow())
	require.NoError(t, e.Change("", "city", "Espoo"))

	second := e.Begin(row{id: "http://api/customers/2", fields: map[string]string{"name": "Bob", "city": "Turku"}})
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, "Turku", second.Values["city"])
	assert.ErrorIs(t, e.Change(first.Token, "city", "Oulu"), ErrStaleOverlay)
}

func TestEditor_ChangeUnknownField(t *testing.T) {
	e := New(&recordingUpdater{}, fields)
	e.Begin(annRow())
	assert.ErrorIs(t, e.Change("", "shoe_size", "42"), ErrUnknownField)
}

func TestEditor_CommitValidationBlocksNetwork(t *testing.T) {
	u := &recordingUpdater{}
	e := New(u, fields)
	e.Begin(annRow())
	require.NoError(t, e.Change("", "name", "   "))

	err := e.Commit(context.Background(), "")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "name", verrs[0].Field)

	assert.Equal(t, 0, u.count())
	s := e.State()
	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Contains(t, s.Errors, "name")
	assert.Equal(t, "   ", s.Values["name"])
}

func TestEditor_CommitSuccess(t *testing.T) {
	u := &recordingUpdater{}
	refreshed := 0
	e := New(u, fields, WithRefresh(func(context.Context) { refreshed++ }))
	s := e.Begin(annRow())
	require.NoError(t, e.Change(s.Token, "city", "Espoo"))

	require.NoError(t, e.Commit(context.Background(), s.Token))

	require.Equal(t, 1, u.count())
	assert.Equal(t, "http://api/customers/1", u.ids[0])
	assert.Equal(t, map[string]string{"name": "Ann", "city": "Espoo"}, u.calls[0])
	assert.Equal(t, PhaseIdle, e.State().Phase)
	assert.Equal(t, 1, refreshed)
}

func TestEditor_CommitFailureKeepsWorkingCopy(t *testing.T) {
	u := &recordingUpdater{err: errors.New("500 Internal Server Error")}
	refreshed := 0
	e := New(u, fields, WithRefresh(func(context.Context) { refreshed++ }))
	s := e.Begin(annRow())
	require.NoError(t, e.Change("", "city", "Espoo"))

	err := e.Commit(context.Background(), "")
	require.Error(t, err)

	after := e.State()
	assert.Equal(t, PhaseEditing, after.Phase)
	assert.Equal(t, s.Token, after.Token)
	assert.Equal(t, "Espoo", after.Values["city"])
	assert.Equal(t, "500 Internal Server Error", after.SaveError)
	assert.Equal(t, 0, refreshed)

	// The user can retry once the upstream recovers.
	u.err = nil
	require.NoError(t, e.Commit(context.Background(), ""))
	assert.Equal(t, PhaseIdle, e.State().Phase)
}

func TestEditor_SecondCommitWhileInFlight(t *testing.T) {
	u := &recordingUpdater{gate: make(chan struct{}), enter: make(chan struct{})}
	e := New(u, fields)
	e.Begin(annRow())

	done := make(chan error, 1)
	go func() { done <- e.Commit(context.Background(), "") }()
	<-u.enter

	assert.Equal(t, PhaseCommitting, e.State().Phase)
	assert.ErrorIs(t, e.Commit(context.Background(), ""), ErrCommitInProgress)
	assert.ErrorIs(t, e.Change("", "city", "x"), ErrCommitInProgress)

	close(u.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, u.count())
}

func TestEditor_ReplacedWhileSaving(t *testing.T) {
	u := &recordingUpdater{gate: make(chan struct{}), enter: make(chan struct{})}
	var refreshed atomic.Int32
	e := New(u, fields, WithRefresh(func(context.Context) { refreshed.Add(1) }))
	e.Begin(annRow())

	done := make(chan error, 1)
	go func() { done <- e.Commit(context.Background(), "") }()
	<-u.enter

	next := e.Begin(row{id: "http://api/customers/2", fields: map[string]string{"name": "Bob", "city": "Turku"}})
	close(u.gate)

	require.NoError(t, <-done)
	assert.Equal(t, 1, u.count())
	assert.Equal(t, int32(1), refreshed.Load())
	s := e.State()
	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Equal(t, next.Token, s.Token)
	assert.Equal(t, "Turku", s.Values["city"])
}

func TestEditor_CancelledWhileSavingFails(t *testing.T) {
	u := &recordingUpdater{gate: make(chan struct{}), enter: make(chan struct{}), err: errors.New("boom")}
	var refreshed atomic.Int32
	e := New(u, fields, WithRefresh(func(context.Context) { refreshed.Add(1) }))
	e.Begin(annRow())

	done := make(chan error, 1)
	go func() { done <- e.Commit(context.Background(), "") }()
	<-u.enter

	require.NoError(t, e.Cancel(""))
	close(u.gate)

	assert.EqualError(t, <-done, "boom")
	assert.Equal(t, int32(0), refreshed.Load())
	assert.Equal(t, PhaseIdle, e.State().Phase)
}

func TestEditor_Cancel(t *testing.T) {
	u := &recordingUpdater{}
	e := New(u, fields)
	s := e.Begin(annRow())
	require.NoError(t, e.Change("", "city", "Espoo"))

	assert.ErrorIs(t, e.Cancel("not-the-token"), ErrStaleOverlay)
	require.NoError(t, e.Cancel(s.Token))
	assert.Equal(t, PhaseIdle, e.State().Phase)
	assert.Equal(t, 0, u.count())
}
