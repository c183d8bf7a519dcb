package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/coreerr"
	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshot"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

func newRegistry(t *testing.T) *snapshot.Registry {
	t.Helper()
	r := snapshot.NewRegistry(runtime.DefaultConfig(), nil)
	t.Cleanup(r.Dispose)
	return r
}

// TestReadThroughGlobalSeesInitialValue covers the base case: a fresh
// cell read through the global snapshot sees its seed value.
func TestReadThroughGlobalSeesInitialValue(t *testing.T) {
	r := newRegistry(t)
	cell := state.New(r.Global().ID(), 7, state.Structural[int]())
	require.Equal(t, 7, cell.Read(r.Global()))
}

// TestMutableSnapshotWriteIsIsolatedUntilApply is scenario S1/S2: a
// write inside a mutable snapshot is invisible through the global
// snapshot until Apply commits it.
func TestMutableSnapshotWriteIsIsolatedUntilApply(t *testing.T) {
	r := newRegistry(t)
	cell := state.New(r.Global().ID(), 1, state.Structural[int]())

	snap := r.TakeMutableSnapshot(nil, nil, nil)
	cell.Write(snap, 2)

	require.Equal(t, 1, cell.Read(r.Global()), "global must not see an unapplied write")
	require.Equal(t, 2, cell.Read(snap), "the writer sees its own write")

	require.NoError(t, r.Apply(snap))
	require.Equal(t, 2, cell.Read(r.Global()), "global sees the committed value after apply")
}

// TestConcurrentApplyConflictWithoutMergeFails is scenario S3: two
// mutable snapshots both write a Structural-policy cell from the same
// base; the second apply must fail with ApplyFailure naming the cell.
func TestConcurrentApplyConflictWithoutMergeFails(t *testing.T) {
	r := newRegistry(t)
	cell := state.New(r.Global().ID(), "a", state.Structural[string]())

	s1 := r.TakeMutableSnapshot(nil, nil, nil)
	s2 := r.TakeMutableSnapshot(nil, nil, nil)

	cell.Write(s1, "b")
	cell.Write(s2, "c")

	require.NoError(t, r.Apply(s1))

	err := r.Apply(s2)
	require.Error(t, err)
	var af *coreerr.ApplyFailure
	require.ErrorAs(t, err, &af)
	require.Contains(t, af.Conflicts, cell.ObjectID())

	require.Equal(t, "b", cell.Read(r.Global()), "the losing apply must not have committed")
}

// TestAdditiveSetMergeReconciles is scenario S4: two snapshots add
// different members to a SetUnion-policy cell; the second apply
// reconciles via Merge instead of failing.
func TestAdditiveSetMergeReconciles(t *testing.T) {
	r := newRegistry(t)
	base := map[string]struct{}{"x": {}}
	cell := state.New(r.Global().ID(), base, state.SetUnion[string]())

	s1 := r.TakeMutableSnapshot(nil, nil, nil)
	s2 := r.TakeMutableSnapshot(nil, nil, nil)

	cell.Write(s1, map[string]struct{}{"x": {}, "y": {}})
	cell.Write(s2, map[string]struct{}{"x": {}, "z": {}})

	require.NoError(t, r.Apply(s1))
	require.NoError(t, r.Apply(s2), "additive writes to distinct keys must merge, not conflict")

	got := cell.Read(r.Global())
	require.Equal(t, map[string]struct{}{"x": {}, "y": {}, "z": {}}, got)
}

// TestNestedSnapshotAppliesIntoParentThenOuterApply is scenario S6: a
// snapshot taken as a child of another mutable (not-yet-applied)
// snapshot applies into the parent's modified set; the parent's own
// later apply is what makes the write globally visible.
func TestNestedSnapshotAppliesIntoParentThenOuterApply(t *testing.T) {
	r := newRegistry(t)
	cell := state.New(r.Global().ID(), 0, state.Structural[int]())

	outer := r.TakeMutableSnapshot(nil, nil, nil)
	cell.Write(outer, 1)

	inner := r.TakeMutableSnapshot(outer, nil, nil)
	cell.Write(inner, 2)

	require.NoError(t, r.Apply(inner))
	require.Equal(t, 0, cell.Read(r.Global()), "nested apply must not leak past the outer snapshot")
	require.Equal(t, 2, cell.Read(outer), "outer now sees the inner's merged write")

	require.NoError(t, r.Apply(outer))
	require.Equal(t, 2, cell.Read(r.Global()), "outer apply commits the absorbed nested write")
}

// TestApplyObserverFiresOnlyOnSuccessfulCommit covers the
// apply_observers hook (spec.md §4.3): it must fire with the merged
// value exactly once per successful apply, never on a failed one.
func TestApplyObserverFiresOnlyOnSuccessfulCommit(t *testing.T) {
	r := newRegistry(t)
	cell := state.New(r.Global().ID(), 0, state.Structural[int]())

	var seen []int
	cell.AddApplyObserver(func(v int) { seen = append(seen, v) })

	s1 := r.TakeMutableSnapshot(nil, nil, nil)
	s2 := r.TakeMutableSnapshot(nil, nil, nil)
	cell.Write(s1, 10)
	cell.Write(s2, 20)

	require.NoError(t, r.Apply(s1))
	require.Error(t, r.Apply(s2))

	require.Equal(t, []int{10}, seen)
}

// TestDisposeDoesNotCommit ensures disposing a mutable snapshot never
// affects global state, even if it wrote to cells.
func TestDisposeDoesNotCommit(t *testing.T) {
	r := newRegistry(t)
	cell := state.New(r.Global().ID(), 5, state.Structural[int]())

	s := r.TakeMutableSnapshot(nil, nil, nil)
	cell.Write(s, 99)
	s.Dispose()

	require.Equal(t, 5, cell.Read(r.Global()))
}
