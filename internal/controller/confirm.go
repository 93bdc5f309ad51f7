package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/atrium/internal/apperr"
)

// ErrNotConfirmed marks a delete abandoned because confirmation failed.
var ErrNotConfirmed = errors.New("not confirmed")

// Confirmer guards destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

var (
	// Accept confirms everything.
	Accept Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	// Decline confirms nothing.
	Decline Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
)

type decisionKey struct{}

// WithDecision attaches a confirmation answer to ctx for ContextConfirmer.
func WithDecision(ctx context.Context, yes bool) context.Context {
	return context.WithValue(ctx, decisionKey{}, yes)
}

// ContextConfirmer answers with the decision stored by WithDecision, and
// declines when none is present. Request-driven renderers use it: the
// answer arrives with the request rather than from a dialog.
var ContextConfirmer Confirmer = ConfirmFunc(func(ctx context.Context, _ string) (bool, error) {
	yes, _ := ctx.Value(decisionKey{}).(bool)
	return yes, nil
})

// Failure describes an operation that did not complete.
type Failure struct {
	Resource string
	Op       string
	ID       string
	Err      error
	At       time.Time
}

// Reporter is the observability sink for failures.
type Reporter interface {
	Report(ctx context.Context, f Failure)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, f Failure)

// Report implements Reporter.
func (fn ReporterFunc) Report(ctx context.Context, f Failure) { fn(ctx, f) }

// Discard drops every failure.
var Discard Reporter = ReporterFunc(func(context.Context, Failure) {})

// SlogReporter logs failures.
type SlogReporter struct {
	Logger *slog.Logger
}

// Report implements Reporter.
func (r SlogReporter) Report(ctx context.Context, f Failure) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, slog.LevelError, "operation failed",
		slog.String("resource", f.Resource),
		slog.String("op", f.Op),
		slog.String("id", f.ID),
		slog.String("kind", apperr.Kind(f.Err)),
		slog.String("error", f.Err.Error()))
}

// MultiReporter fans failures out to every reporter.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(ctx context.Context, f Failure) {
	for _, r := range m {
		r.Report(ctx, f)
	}
}
