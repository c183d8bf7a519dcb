package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/composer"
	"github.com/samoylenkodmitry/compose-runtime/internal/hostapi"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
	"github.com/samoylenkodmitry/compose-runtime/internal/observation"
	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
	"github.com/samoylenkodmitry/compose-runtime/internal/scheduler"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshot"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

type harness struct {
	cfg   runtime.Config
	reg   *snapshot.Registry
	obs   *observation.Registry
	comp  *composer.Composer
	host  *hostapi.FakeHost
	sched *scheduler.Recomposer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := runtime.DefaultConfig()
	reg := snapshot.NewRegistry(cfg, nil)
	t.Cleanup(reg.Dispose)
	obs := observation.NewRegistry()
	comp := composer.New(cfg, nil, obs)
	host := hostapi.NewFakeHost()
	sched := scheduler.New(cfg, nil, reg, comp, obs, host)
	return &harness{cfg: cfg, reg: reg, obs: obs, comp: comp, host: host, sched: sched}
}

// TestRunFrameRecomposesDirtyScopeAndDrainsNodeInvalidation exercises
// the full loop: a root scope owns a counter and a UI node whose
// background color depends on it; writing the counter from outside,
// applying, and running a frame must re-run only the dirty scope,
// update the node's modifier, and forward a Draw invalidation to the
// host.
func TestRunFrameRecomposesDirtyScopeAndDrainsNodeInvalidation(t *testing.T) {
	h := newHarness(t)

	var counter *state.MutableState[int]
	var runs int

	rootBody := func() {
		runs++
		counter = composer.RememberState(h.comp, 0, state.Structural[int]())
		v := composer.ReadState(h.comp, counter)
		color := uint32(0x000000FF)
		if v > 0 {
			color = 0xFF0000FF
		}
		h.comp.UseNodeSlot(1)
		h.comp.SetNodeModifier(1, modifier.Padding(8).Then(modifier.Background(color)))
	}

	snap0 := h.reg.TakeMutableSnapshot(nil, h.comp.ReadObserver, nil)
	h.comp.SetSnapshot(snap0)
	root := h.comp.Compose(1, rootBody)
	require.NoError(t, h.reg.Apply(snap0))
	h.comp.SetSnapshot(h.reg.Global())

	chain, ok := h.sched.ChainFor(1)
	require.False(t, ok, "no frame has run yet")
	_ = chain

	h.sched.Invalidate(root)
	touched, err := h.sched.RunFrame()
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, touched)
	require.Equal(t, 2, runs, "initial compose plus one recompose")
	require.Empty(t, h.host.Invalidations, "first reconcile of a node has nothing to compare against, so nothing to invalidate")

	mut := h.reg.TakeMutableSnapshot(nil, nil, nil)
	counter.Write(mut, 1)
	require.NoError(t, h.reg.Apply(mut))

	for _, scope := range h.obs.ScopesObserving(counter.ObjectID()) {
		h.sched.Invalidate(scope)
	}

	touched2, err := h.sched.RunFrame()
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, touched2)
	require.Equal(t, 3, runs)

	require.Len(t, h.host.Invalidations, 1)
	require.Equal(t, uint64(1), h.host.Invalidations[0].NodeID)
	require.Equal(t, []modifier.InvalidationKind{modifier.InvalidateDraw}, h.host.Invalidations[0].Kinds)
}

// recordingReplaySink implements scheduler.ReplaySink for
// TestRunFrameForwardsWriteSetToReplaySink.
type recordingReplaySink struct {
	calls [][]uint64
}

func (s *recordingReplaySink) Record(_ context.Context, objectIDs []uint64) {
	cp := append([]uint64(nil), objectIDs...)
	s.calls = append(s.calls, cp)
}

// TestRunFrameForwardsWriteSetToReplaySink checks that a successful
// frame with writes reports its write set to an optional replay sink,
// and that a frame with no writes reports nothing.
func TestRunFrameForwardsWriteSetToReplaySink(t *testing.T) {
	h := newHarness(t)
	sink := &recordingReplaySink{}
	h.sched.SetReplaySink(sink)

	var cell *state.MutableState[int]
	snap0 := h.reg.TakeMutableSnapshot(nil, h.comp.ReadObserver, nil)
	h.comp.SetSnapshot(snap0)
	root := h.comp.Compose(1, func() {
		cell = composer.RememberState(h.comp, 0, state.Structural[int]())
		composer.WriteState(h.comp, cell, 1)
	})
	require.NoError(t, h.reg.Apply(snap0))
	h.comp.SetSnapshot(h.reg.Global())

	h.sched.Invalidate(root)
	_, err := h.sched.RunFrame()
	require.NoError(t, err)

	require.Len(t, sink.calls, 1)
	require.Equal(t, []uint64{cell.ObjectID()}, sink.calls[0])
}

// TestRunFrameWithNoDirtyScopesIsNoop checks the empty-queue fast path.
func TestRunFrameWithNoDirtyScopesIsNoop(t *testing.T) {
	h := newHarness(t)
	touched, err := h.sched.RunFrame()
	require.NoError(t, err)
	require.Empty(t, touched)
}

// TestRunFrameRetriesConflictingScopeAndGivesUpAfterMaxRetries covers
// spec.md §4.7 step 4's retry bound. The dirty scope's body commits an
// independent, unmergeable write to the same cell (simulating a
// concurrent external writer) immediately before writing the cell
// itself through the composer's ambient snapshot, so every attempt's
// apply is guaranteed to conflict; RunFrame must make exactly
// cfg.MaxApplyRetries attempts (the first one included) and then
// surface the ApplyFailure. The race is switched on only after the
// initial composition, which must apply cleanly.
func TestRunFrameRetriesConflictingScopeAndGivesUpAfterMaxRetries(t *testing.T) {
	h := newHarness(t)
	h.cfg.MaxApplyRetries = 2
	h.sched = scheduler.New(h.cfg, nil, h.reg, h.comp, h.obs, h.host)

	cell := state.New(h.reg.Global().ID(), 0, state.NeverEqual[int]())

	snap0 := h.reg.TakeMutableSnapshot(nil, h.comp.ReadObserver, nil)
	h.comp.SetSnapshot(snap0)
	var attempts int
	racing := false
	root := h.comp.Compose(1, func() {
		attempts++
		composer.ReadState(h.comp, cell)
		if racing {
			side := h.reg.TakeMutableSnapshot(nil, nil, nil)
			cell.Write(side, -attempts)
			require.NoError(t, h.reg.Apply(side))
		}
		composer.WriteState(h.comp, cell, attempts)
	})
	require.NoError(t, h.reg.Apply(snap0))
	h.comp.SetSnapshot(h.reg.Global())
	attempts = 0
	racing = true

	h.sched.Invalidate(root)
	_, err := h.sched.RunFrame()

	require.Error(t, err)
	require.Equal(t, h.cfg.MaxApplyRetries, attempts, "one compose per retry attempt, none more")
}
