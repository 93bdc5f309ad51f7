// Package controller implements the generic resource controller that backs
// every list page: it owns the in-memory copy of one REST collection, the
// create/edit form state, and the local filters.
//
// Network calls are made outside the state lock. Two overlapping requests
// for the same collection therefore race, and whichever response lands last
// wins; Load replaces the whole list rather than merging.
package controller

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"
)

// Entity is a server-owned record of editable fields I.
type Entity[I any] interface {
	Key() string
	Input() I
}

type keyed interface {
	Key() string
}

// Backend performs the four REST verbs for one collection.
type Backend[E any, I any] interface {
	List(ctx context.Context) ([]E, error)
	Create(ctx context.Context, in I) (E, error)
	Update(ctx context.Context, id string, in I) (E, error)
	Delete(ctx context.Context, id string) error
}

// Placement decides where a newly created entity enters the list.
type Placement int

const (
	Append Placement = iota
	Prepend
)

// Filter is a named predicate over entities. Match is only consulted for
// non-empty values.
type Filter[E any] struct {
	Key   string
	Match func(item E, value string) bool
}

// Phase is the request state of a controller.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
)

// Operation names used in failures and notifications.
const (
	OpLoad   = "load"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Notifier is told about every successful operation.
type Notifier interface {
	Notify(resource, op, id string)
}

// Config describes one resource.
type Config[E any, I any] struct {
	// Resource names the collection in logs and notifications ("clients").
	Resource string
	// Placement of created entities.
	Placement Placement
	Filters   []Filter[E]
	// Blank returns the input a new form starts from.
	Blank func() I

	Confirmer     Confirmer
	ConfirmPrompt string
	Reporter      Reporter
	Notifier      Notifier
}

// Controller owns the local state of one resource page.
type Controller[E Entity[I], I any] struct {
	backend Backend[E, I]
	cfg     Config[E, I]

	mu          sync.RWMutex
	items       []E
	editing     *E
	draft       *I
	formVisible bool
	filters     map[string]string
	inflight    int
	lastErr     error
}

// New creates a controller for backend. A nil Confirmer declines every
// delete; a nil Reporter discards failures.
func New[E Entity[I], I any](backend Backend[E, I], cfg Config[E, I]) *Controller[E, I] {
	if cfg.Confirmer == nil {
		cfg.Confirmer = Decline
	}
	if cfg.Reporter == nil {
		cfg.Reporter = Discard
	}
	if cfg.Blank == nil {
		cfg.Blank = func() I {
			var zero I
			return zero
		}
	}
	if cfg.ConfirmPrompt == "" {
		cfg.ConfirmPrompt = "Delete this item?"
	}
	return &Controller[E, I]{
		backend: backend,
		cfg:     cfg,
		items:   []E{},
		filters: map[string]string{},
	}
}

// Resource returns the collection name.
func (c *Controller[E, I]) Resource() string {
	return c.cfg.Resource
}

// Load fetches the full collection and replaces the local list. Failures are
// reported, never returned; the list is left as it was.
func (c *Controller[E, I]) Load(ctx context.Context) {
	c.begin()
	items, err := c.backend.List(ctx)
	if err != nil {
		c.fail(ctx, OpLoad, "", err)
		return
	}
	if items == nil {
		items = []E{}
	}

	c.mu.Lock()
	c.items = items
	c.inflight--
	c.mu.Unlock()

	c.notify(OpLoad, "")
}

// BeginCreate opens an empty form.
func (c *Controller[E, I]) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.draft = nil
	c.formVisible = true
	c.lastErr = nil
}

// BeginEdit opens the form pre-populated from item.
func (c *Controller[E, I]) BeginEdit(item E) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = &item
	c.draft = nil
	c.formVisible = true
	c.lastErr = nil
}

// Cancel closes the form without saving.
func (c *Controller[E, I]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.draft = nil
	c.formVisible = false
	c.lastErr = nil
}

// Submit saves in. With an item being edited it issues an update keyed by
// that item's ID; otherwise it creates. The server's representation is
// adopted on success and the form closes. On failure the form stays open
// with in kept as the draft, and false is returned.
func (c *Controller[E, I]) Submit(ctx context.Context, in I) bool {
	c.mu.Lock()
	editing := c.editing
	c.inflight++
	c.lastErr = nil
	c.mu.Unlock()

	if editing != nil {
		id := (*editing).Key()
		updated, err := c.backend.Update(ctx, id, in)
		if err != nil {
			c.failSubmit(ctx, OpUpdate, id, in, err)
			return false
		}
		c.mu.Lock()
		c.items = replace(c.items, id, updated)
		c.closeForm()
		c.mu.Unlock()
		c.notify(OpUpdate, updated.Key())
		return true
	}

	created, err := c.backend.Create(ctx, in)
	if err != nil {
		c.failSubmit(ctx, OpCreate, "", in, err)
		return false
	}
	c.mu.Lock()
	c.items = insert(c.items, created, c.cfg.Placement)
	c.closeForm()
	c.mu.Unlock()
	c.notify(OpCreate, created.Key())
	return true
}

// Remove deletes the entity with id once the Confirmer agrees. A declined
// confirmation sends no request. It reports whether the entity was removed.
func (c *Controller[E, I]) Remove(ctx context.Context, id string) bool {
	ok, err := c.cfg.Confirmer.Confirm(ctx, c.cfg.ConfirmPrompt)
	if err != nil {
		c.cfg.Reporter.Report(ctx, Failure{
			Resource: c.cfg.Resource, Op: OpDelete, ID: id,
			Err: errors.Join(ErrNotConfirmed, err), At: time.Now(),
		})
		return false
	}
	if !ok {
		return false
	}

	c.begin()
	if err := c.backend.Delete(ctx, id); err != nil {
		c.fail(ctx, OpDelete, id, err)
		return false
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(e E) bool { return e.Key() == id })
	c.inflight--
	c.mu.Unlock()

	c.notify(OpDelete, id)
	return true
}

// SetFilter sets a local filter. An empty value clears it. Unknown keys are
// ignored.
func (c *Controller[E, I]) SetFilter(key, value string) {
	if !slices.ContainsFunc(c.cfg.Filters, func(f Filter[E]) bool { return f.Key == key }) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
}

// Filter returns the current value of a filter.
func (c *Controller[E, I]) Filter(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters[key]
}

// Items returns a copy of the full local list.
func (c *Controller[E, I]) Items() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Find returns the local entity with id.
func (c *Controller[E, I]) Find(id string) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.items {
		if e.Key() == id {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// Visible returns the items passing every active filter.
func (c *Controller[E, I]) Visible() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible()
}

// Err returns the failure of the most recent operation, if any.
func (c *Controller[E, I]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Snapshot is a read-only view of the controller for rendering.
type Snapshot[E any, I any] struct {
	Resource    string            `json:"resource"`
	Items       []E               `json:"items"`
	Total       int               `json:"total"`
	Filters     map[string]string `json:"filters"`
	FormVisible bool              `json:"form_visible"`
	Editing     *E                `json:"editing"`
	Form        I                 `json:"form"`
	Phase       Phase             `json:"phase"`
}

// Snapshot captures the current state.
func (c *Controller[E, I]) Snapshot() Snapshot[E, I] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var editing *E
	if c.editing != nil {
		e := *c.editing
		editing = &e
	}
	return Snapshot[E, I]{
		Resource:    c.cfg.Resource,
		Items:       c.visible(),
		Total:       len(c.items),
		Filters:     maps.Clone(c.filters),
		FormVisible: c.formVisible,
		Editing:     editing,
		Form:        c.form(),
		Phase:       c.phase(),
	}
}

func (c *Controller[E, I]) visible() []E {
	out := make([]E, 0, len(c.items))
	for _, e := range c.items {
		if c.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Controller[E, I]) matches(e E) bool {
	for _, f := range c.cfg.Filters {
		v := c.filters[f.Key]
		if v != "" && !f.Match(e, v) {
			return false
		}
	}
	return true
}

func (c *Controller[E, I]) form() I {
	switch {
	case c.draft != nil:
		return *c.draft
	case c.editing != nil:
		return (*c.editing).Input()
	default:
		return c.cfg.Blank()
	}
}

func (c *Controller[E, I]) phase() Phase {
	switch {
	case c.inflight > 0:
		return PhaseLoading
	case c.lastErr != nil:
		return PhaseError
	default:
		return PhaseIdle
	}
}

func (c *Controller[E, I]) begin() {
	c.mu.Lock()
	c.inflight++
	c.lastErr = nil
	c.mu.Unlock()
}

// closeForm must be called with mu held.
func (c *Controller[E, I]) closeForm() {
	c.editing = nil
	c.draft = nil
	c.formVisible = false
	c.inflight--
}

func (c *Controller[E, I]) fail(ctx context.Context, op, id string, err error) {
	c.mu.Lock()
	c.inflight--
	c.lastErr = err
	c.mu.Unlock()
	c.report(ctx, op, id, err)
}

func (c *Controller[E, I]) failSubmit(ctx context.Context, op, id string, in I, err error) {
	c.mu.Lock()
	c.inflight--
	c.lastErr = err
	if c.formVisible {
		c.draft = &in
	}
	c.mu.Unlock()
	c.report(ctx, op, id, err)
}

func (c *Controller[E, I]) report(ctx context.Context, op, id string, err error) {
	c.cfg.Reporter.Report(ctx, Failure{
		Resource: c.cfg.Resource,
		Op:       op,
		ID:       id,
		Err:      err,
		At:       time.Now(),
	})
}

func (c *Controller[E, I]) notify(op, id string) {
	if c.cfg.Notifier != nil {
		c.cfg.Notifier.Notify(c.cfg.Resource, op, id)
	}
}

// replace swaps the element keyed id for e, leaving the rest in order.
func replace[E keyed](items []E, id string, e E) []E {
	out := slices.Clone(items)
	for i := range out {
		if out[i].Key() == id {
			out[i] = e
		}
	}
	return out
}

// insert adds e at the placement end. An entity whose ID is already present
// is replaced in position instead, so IDs stay unique.
func insert[E keyed](items []E, e E, p Placement) []E {
	if slices.ContainsFunc(items, func(x E) bool { return x.Key() == e.Key() }) {
		return replace(items, e.Key(), e)
	}
	out := make([]E, 0, len(items)+1)
	if p == Prepend {
		out = append(out, e)
		return append(out, items...)
	}
	out = append(out, items...)
	return append(out, e)
}
