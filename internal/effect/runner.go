// Package effect implements the bounded-concurrency side-effect runner
// spec.md §5/§9 describes: composition itself never suspends, so
// "background work is modeled as side-effectful tasks launched from
// composable on_attach callbacks... their outputs flow back as state
// writes" (spec.md §9). Runner is the supervised task group those
// callbacks launch into; Launch ties a task's lifetime to a composable
// call site's key, the way Jetpack Compose's LaunchedEffect(key) does.
//
// Grounded in the teacher's internal/infrastructure/processmgr, which
// supervises one goroutine per managed process with its own
// cancellation, generalized here from raw `go` statements plus manual
// bookkeeping to golang.org/x/sync/errgroup's supervised, cancelable
// group (the teacher predates errgroup's use; this package is where the
// rest of the pack's concurrency idiom — x/sync — gets its home).
package effect

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner owns a bounded-concurrency errgroup.Group and the context
// every launched task derives from. Cancel tears down every
// outstanding task; Wait blocks for them to finish (test and shutdown
// use only — composition itself never waits on effect tasks).
type Runner struct {
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// NewRunner constructs a Runner bounded to limit concurrent tasks (0 or
// negative means unbounded: SetLimit is then not called at all).
func NewRunner(parent context.Context, limit int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &Runner{g: g, ctx: gctx, cancel: cancel, log: log.Named("effect")}
}

// LaunchWithCancel starts task in the group, deriving its own
// cancelable context from the runner's. The returned CancelFunc lets a
// caller tear down just this one task (e.g. because its composable
// call site's key changed) without affecting siblings.
func (r *Runner) LaunchWithCancel(task func(ctx context.Context) error) context.CancelFunc {
	ctx, cancel := context.WithCancel(r.ctx)
	r.g.Go(func() error {
		err := task(ctx)
		if err == nil || ctx.Err() != nil {
			// A task ending because it was canceled is not a group
			// failure: returning nil keeps errgroup from canceling
			// its siblings.
			return nil
		}
		r.log.Error("effect task failed", zap.Error(err))
		return err
	})
	return cancel
}

// Launch starts task with no independent cancellation beyond the
// runner's own; for fire-and-forget tasks that don't need Launch's
// per-call-site lifetime tracking.
func (r *Runner) Launch(task func(ctx context.Context) error) {
	r.LaunchWithCancel(task)
}

// Cancel tears down every task the runner has launched.
func (r *Runner) Cancel() { r.cancel() }

// Wait blocks until every launched task has returned, returning the
// first non-nil error (if any), per errgroup.Group.Wait's own
// contract. Intended for tests and graceful shutdown, never called
// from inside composition.
func (r *Runner) Wait() error { return r.g.Wait() }
