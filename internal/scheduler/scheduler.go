// Package scheduler implements the Recomposer: the per-frame loop
// spec.md §4.7 describes, driving dirty-scope recomposition, modifier
// chain reconciliation, snapshot apply, and bounded retry on conflict.
//
// Grounded in the teacher's internal/infrastructure/processmgr, which
// runs its own scheduling loop (events due now get processed; a
// process that fails to start is rescheduled with a cooldown rather
// than retried inline forever) — RunFrame's retry-with-bound on
// ApplyFailure mirrors that shape, generalized from a time-based
// cooldown to a frame-bounded retry count since spec.md §4.7 doesn't
// call for backoff, only a retry ceiling.
package scheduler

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/samoylenkodmitry/compose-runtime/internal/composer"
	"github.com/samoylenkodmitry/compose-runtime/internal/coreerr"
	"github.com/samoylenkodmitry/compose-runtime/internal/hostapi"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifiernode"
	"github.com/samoylenkodmitry/compose-runtime/internal/observation"
	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshot"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

// ReplaySink receives each frame's write set for out-of-process
// debugging tooling, per internal/diag/replay. Defined here, at the
// point of use, rather than imported from diag: a replay sink is a
// diagnostics concern, and the scheduler must not know diag exists.
type ReplaySink interface {
	Record(ctx context.Context, objectIDs []uint64)
}

// Recomposer owns the dirty-scope queue and drives one composition
// tree's frame loop against a snapshot.Registry and composer.Composer.
type Recomposer struct {
	cfg  runtime.Config
	log  *zap.Logger
	reg  *snapshot.Registry
	comp *composer.Composer
	obs  *observation.Registry
	sink hostapi.InvalidationSink

	replay ReplaySink

	chains      map[uint64]*modifiernode.Chain
	dirtyScopes map[observation.ScopeID]struct{}
}

// SetReplaySink wires an optional replay recorder; nil (the default)
// disables replay recording entirely.
func (r *Recomposer) SetReplaySink(s ReplaySink) { r.replay = s }

// New constructs a Recomposer. sink receives per-node invalidations
// after each frame's modifier chain reconciliation; it may be nil if
// the caller only cares about composition, not host dispatch (e.g. in
// tests).
func New(cfg runtime.Config, log *zap.Logger, reg *snapshot.Registry, comp *composer.Composer, obs *observation.Registry, sink hostapi.InvalidationSink) *Recomposer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recomposer{
		cfg:         cfg,
		log:         log.Named("scheduler"),
		reg:         reg,
		comp:        comp,
		obs:         obs,
		sink:        sink,
		chains:      make(map[uint64]*modifiernode.Chain),
		dirtyScopes: make(map[observation.ScopeID]struct{}),
	}
}

// Invalidate enqueues scope for recomposition on the next frame. Called
// directly for the initial composition's root scope, and internally
// after a successful apply for every scope the observation registry
// says read a changed object.
func (r *Recomposer) Invalidate(scope observation.ScopeID) {
	r.dirtyScopes[scope] = struct{}{}
}

// sortedScopes returns the scopes in set in ascending ScopeID
// order. ScopeIDs are allocated in composition (depth-first, parents
// before children) order, so this approximates spec.md §4.7's
// "depth-ordered, parents before children" requirement without needing
// a separate tree walk.
func sortedScopes(set map[observation.ScopeID]struct{}) []observation.ScopeID {
	out := make([]observation.ScopeID, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RunFrame executes one frame of spec.md §4.7's five-step algorithm.
// It returns the node ids whose modifier chains were reconciled this
// frame (for tests and diagnostics) and an error only for a
// non-retryable failure (ApplyFailure is retried internally, up to
// cfg.MaxApplyRetries, and only returned once that bound is
// exhausted).
func (r *Recomposer) RunFrame() ([]uint64, error) {
	pending := sortedScopes(r.dirtyScopes)
	r.dirtyScopes = make(map[observation.ScopeID]struct{})

	if len(pending) == 0 {
		return nil, nil
	}

	var touched []uint64
	var writtenObjects map[uint64]state.Object

	for attempt := 0; ; attempt++ {
		writtenObjects = make(map[uint64]state.Object)
		writeObs := func(obj state.Object) {
			writtenObjects[obj.ObjectID()] = obj
			r.comp.WriteObserver(obj)
		}

		snap := r.reg.TakeMutableSnapshot(nil, r.comp.ReadObserver, writeObs)
		r.comp.SetSnapshot(snap)
		r.comp.ResetTouched()

		for _, scope := range pending {
			if !r.comp.RecomposeScope(scope) {
				r.log.Debug("dropping dirty scope with no resolvable anchor", zap.Uint64("scope", uint64(scope)))
			}
		}
		touched = append(touched, r.comp.TouchedNodes()...)

		err := r.reg.Apply(snap)
		if err == nil {
			break
		}

		var af *coreerr.ApplyFailure
		if !errors.As(err, &af) {
			return nil, err
		}
		if attempt+1 >= r.cfg.MaxApplyRetries {
			return nil, err
		}
		r.log.Warn("apply failed, retrying affected scopes",
			zap.Int("attempt", attempt+1), zap.Int("conflicts", len(af.Conflicts)))

		seen := make(map[observation.ScopeID]struct{})
		pending = pending[:0]
		for _, objID := range af.Conflicts {
			for _, s := range r.obs.ScopesObserving(objID) {
				if _, ok := seen[s]; !ok {
					seen[s] = struct{}{}
					pending = append(pending, s)
				}
			}
		}
		sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
	}

	reuseLimit := r.reg.Global().ReuseLimit()
	writtenIDs := make([]uint64, 0, len(writtenObjects))
	for objID, obj := range writtenObjects {
		writtenIDs = append(writtenIDs, objID)
		for _, scope := range r.obs.ScopesObserving(objID) {
			r.Invalidate(scope)
		}
		// Step 5: overwrite_unused_records(lowest_pinned_snapshot). Swept
		// over this frame's write set rather than every live state
		// object process-wide — nothing in this module keeps a central
		// registry of every MutableState ever constructed (each is owned
		// by whichever composable created it), so reclaiming unused
		// history for cells nobody wrote this frame waits until they are
		// next written.
		obj.Chain().OverwriteUnusedRecords(reuseLimit)
	}
	if r.replay != nil && len(writtenIDs) > 0 {
		sort.Slice(writtenIDs, func(i, j int) bool { return writtenIDs[i] < writtenIDs[j] })
		r.replay.Record(context.Background(), writtenIDs)
	}

	r.reconcileTouchedNodes(touched)

	return touched, nil
}

// reconcileTouchedNodes implements spec.md §4.7 step 3: every node
// touched this pass gets its chain diffed against the composable's
// freshly built Modifier, and whatever invalidations that reconcile
// drains get forwarded to the host.
func (r *Recomposer) reconcileTouchedNodes(touched []uint64) {
	for _, nodeID := range touched {
		mod, ok := r.comp.NodeModifier(nodeID)
		if !ok {
			continue
		}
		chain, ok := r.chains[nodeID]
		if !ok {
			chain = modifiernode.NewChain()
			r.chains[nodeID] = chain
		}
		chain.UpdateFromSlice(mod.Elements())

		kinds := chain.DrainInvalidations()
		if len(kinds) == 0 || r.sink == nil {
			continue
		}
		r.sink.Invalidate(nodeID, kinds)
	}
}

// ChainFor returns the reconciled modifier chain for nodeID, if any
// node was ever touched with that id, for hosts and tests that need to
// read back layout/draw/pointer state.
func (r *Recomposer) ChainFor(nodeID uint64) (*modifiernode.Chain, bool) {
	c, ok := r.chains[nodeID]
	return c, ok
}
