package reconcile

import (
	"context"
	"sync"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/selection"
)

// State is the controller state for one quote.
type State int

const (
	Idle State = iota
	Reconciling
)

func (s State) String() string {
	if s == Reconciling {
		return "reconciling"
	}
	return "idle"
}

// Snapshot is the (catalog, configuration, selection) triple a pass runs against.
// Version orders snapshots of the same key; zero asks the controller to assign one.
type Snapshot struct {
	Key       string
	Version   uint64
	Catalog   *catalog.Catalog
	Rules     rules.RuleSet
	Values    fields.Values
	Selection selection.Selection
}

// Change is published whenever a pass produced a different selection.
type Change struct {
	Key       string
	Version   uint64
	Selection selection.Selection
	Added     []string
	Removed   []string
}

// Publisher receives reconciled selections.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, change Change) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, change Change) error { return f(ctx, change) }

// Result reports what a pass did with a snapshot.
type Result struct {
	Outcome
	Key     string
	Version uint64
	// Stale is set when a newer snapshot was committed first; the outcome was discarded.
	Stale      bool
	Published  bool
	PublishErr error
}

// Controller runs reconciliation passes and publishes their results with
// last-write-wins semantics per key.
type Controller struct {
	publisher Publisher

	mu        sync.Mutex
	inflight  map[string]int
	issued    map[string]uint64
	published map[string]uint64
}

// NewController constructs a Controller. publisher may be nil.
func NewController(publisher Publisher) *Controller {
	return &Controller{
		publisher: publisher,
		inflight:  make(map[string]int),
		issued:    make(map[string]uint64),
		published: make(map[string]uint64),
	}
}

// State reports whether a pass is running for key.
func (c *Controller) State(key string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] > 0 {
		return Reconciling
	}
	return Idle
}

// LastPublished returns the newest version whose pass completed for key.
func (c *Controller) LastPublished(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published[key]
}

// Forget drops all bookkeeping for key.
func (c *Controller) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.issued, key)
	delete(c.published, key)
	delete(c.inflight, key)
}

// Submit runs one pass for snap and commits it straight away. Callers that
// persist the outcome should use Run and Commit instead.
func (c *Controller) Submit(ctx context.Context, snap Snapshot) Result {
	res := c.Run(snap)
	if res.Stale {
		return res
	}
	return c.Commit(ctx, res)
}

// Run computes one pass for snap without recording it. The result is stale
// when a version at least as new was already committed for the key.
func (c *Controller) Run(snap Snapshot) Result {
	c.mu.Lock()
	version := snap.Version
	if version == 0 {
		version = c.issued[snap.Key] + 1
	}
	if version > c.issued[snap.Key] {
		c.issued[snap.Key] = version
	}
	c.inflight[snap.Key]++
	c.mu.Unlock()

	outcome := Reconcile(snap.Selection, snap.Values, snap.Catalog, snap.Rules)
	res := Result{Outcome: outcome, Key: snap.Key, Version: version}

	c.mu.Lock()
	res.Stale = c.isStaleLocked(snap.Key, version)
	c.doneLocked(snap.Key)
	c.mu.Unlock()
	return res
}

// Commit marks res as the latest completed pass for its key and publishes the
// selection when it changed. The pass never re-triggers itself: its output is
// published at most once and is not fed back into another pass.
func (c *Controller) Commit(ctx context.Context, res Result) Result {
	c.mu.Lock()
	if c.isStaleLocked(res.Key, res.Version) {
		c.mu.Unlock()
		res.Stale = true
		res.Published = false
		return res
	}
	res.Stale = false
	c.published[res.Key] = res.Version
	res.Published = res.Changed
	c.inflight[res.Key]++
	c.mu.Unlock()

	if res.Published && c.publisher != nil {
		res.PublishErr = c.publisher.Publish(ctx, Change{
			Key:       res.Key,
			Version:   res.Version,
			Selection: res.Selection,
			Added:     res.Added,
			Removed:   res.Removed,
		})
	}

	c.mu.Lock()
	c.doneLocked(res.Key)
	c.mu.Unlock()
	return res
}

func (c *Controller) isStaleLocked(key string, version uint64) bool {
	last := c.published[key]
	return last != 0 && last >= version
}

func (c *Controller) doneLocked(key string) {
	c.inflight[key]--
	if c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
}
