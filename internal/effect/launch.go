package effect

import (
	"context"

	"github.com/samoylenkodmitry/compose-runtime/internal/composer"
)

// box is the per-call-site remembered state Launch keeps: the key the
// currently running task was launched against, and that task's cancel
// function.
type box[K any] struct {
	key    K
	cancel context.CancelFunc
}

// Launch implements a LaunchedEffect(key): on first composition at
// this call site, and again whenever key differs from the value last
// seen here, the previous task (if any) is canceled and task is
// launched fresh into r. Recomposing with an unchanged key leaves the
// running task alone, matching spec.md §9's "side-effectful tasks
// launched from composable on_attach callbacks" — attach is "key
// changed," detach is "key changed again." A call site that gaps out
// does not cancel its task; only a key change or the Runner's own
// Cancel does.
//
// K is a parameter of the function, not a method, for the same reason
// composer.RememberKeyed is a free function: a method cannot carry a
// type parameter independent of its receiver's.
func Launch[K comparable](c *composer.Composer, r *Runner, key K, task func(ctx context.Context) error) {
	slot := composer.Remember(c, func() *box[K] { return &box[K]{} })
	b := *slot

	first := b.cancel == nil
	if first || b.key != key {
		if b.cancel != nil {
			b.cancel()
		}
		b.key = key
		b.cancel = r.LaunchWithCancel(task)
	}
}
