package controller

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Lister fetches a whole collection.
type Lister[E any] interface {
	List(ctx context.Context) ([]E, error)
}

// OptionSet is a page-owned, read-only copy of another collection used to
// populate filter and form dropdowns (the clients on the projects page, the
// projects on the tasks page).
type OptionSet[E any] struct {
	source   Lister[E]
	resource string
	reporter Reporter

	mu    sync.RWMutex
	items []E
}

// NewOptionSet creates an empty option set fed by source.
func NewOptionSet[E any](source Lister[E], resource string, reporter Reporter) *OptionSet[E] {
	if reporter == nil {
		reporter = Discard
	}
	return &OptionSet[E]{source: source, resource: resource, reporter: reporter, items: []E{}}
}

// Load replaces the options on success and reports failures.
func (o *OptionSet[E]) Load(ctx context.Context) {
	items, err := o.source.List(ctx)
	if err != nil {
		o.reporter.Report(ctx, Failure{Resource: o.resource, Op: OpLoad, Err: err, At: time.Now()})
		return
	}
	if items == nil {
		items = []E{}
	}
	o.mu.Lock()
	o.items = items
	o.mu.Unlock()
}

// Items returns a copy of the options.
func (o *OptionSet[E]) Items() []E {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.items)
}
