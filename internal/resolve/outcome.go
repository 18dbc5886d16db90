package resolve

import (
	"maps"
	"sync"

	"github.com/ryanbastic/gymdesk/internal/hal"
)

// Outcome is the settled result of dereferencing one link: either the
// resolved entity or the error that prevented it. The zero value is not a
// valid outcome.
type Outcome struct {
	entity *hal.Entity
	err    error
}

// Resolved wraps a successfully fetched entity.
func Resolved(e *hal.Entity) Outcome {
	return Outcome{entity: e}
}

// Failed wraps a resolution failure.
func Failed(err error) Outcome {
	return Outcome{err: err}
}

// Entity returns the resolved entity and true, or nil and false on failure.
func (o Outcome) Entity() (*hal.Entity, bool) {
	if o.err != nil || o.entity == nil {
		return nil, false
	}
	return o.entity, true
}

// Failed reports whether the link could not be resolved.
func (o Outcome) Failed() bool {
	_, ok := o.Entity()
	return !ok
}

// Err returns the resolution error, if any.
func (o Outcome) Err() error {
	return o.err
}

// Update is one settled (url, outcome) pair.
type Update struct {
	URL     string
	Outcome Outcome
}

// Results is an immutable snapshot of a resolution pass.
type Results map[string]Outcome

// Cache collects the outcomes of a single resolution pass. It is safe for
// concurrent use and is never shared between passes.
type Cache struct {
	mu       sync.RWMutex
	outcomes map[string]Outcome
}

func NewCache(size int) *Cache {
	return &Cache{outcomes: make(map[string]Outcome, size)}
}

// Lookup returns the outcome stored for url, if it has settled.
func (c *Cache) Lookup(url string) (Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.outcomes[url]
	return o, ok
}

// Store records the outcome for url. The last write wins.
func (c *Cache) Store(url string, o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[url] = o
}

// Len returns the number of settled urls.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outcomes)
}

// Snapshot copies the current outcomes.
func (c *Cache) Snapshot() Results {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Results(maps.Clone(c.outcomes))
}
