package state

import (
	"sync"
	"sync/atomic"

	"github.com/samoylenkodmitry/compose-runtime/internal/record"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
)

// Object identifies a state cell participating in a snapshot's modified
// set. MutableState[T] implements this for any T. The snapshot
// package's apply step drives conflict detection and merge purely
// through this type-erased surface, so it never needs to know T.
type Object interface {
	ObjectID() uint64
	Chain() *record.Chain
	Policy() Mergeable
}

// Mergeable is the type-erased view of a Policy[T] used by the apply
// step.
type Mergeable interface {
	Equivalent(a, b any) bool
	Merge(previous, current, applied any) (merged any, ok bool)
}

// Snapshot is the view of the ambient snapshot that a state cell's
// Read/Write need. internal/snapshot.Snapshot implements this; it is
// declared here (rather than imported) so this package never depends
// on the snapshot package, which instead depends on this one.
type Snapshot interface {
	ID() snapshotid.ID
	Invalid() snapshotid.Set
	ReuseLimit() snapshotid.ID
	IsMutable() bool
	NotifyRead(obj Object)
	NotifyWrite(obj Object)
	RecordModified(obj Object)
}

var objectIDs atomic.Uint64

func nextObjectID() uint64 { return objectIDs.Add(1) }

// MutableState is SnapshotMutableState<T>: the observable cell owning a
// head record chain and a mutation policy.
type MutableState[T any] struct {
	chain          *record.Chain
	policy         Policy[T]
	objectID       uint64
	mu             sync.Mutex
	applyObservers []func(T)
}

// New constructs a MutableState seeded with initial, written by the
// given snapshot id (typically the current global id at construction
// time).
func New[T any](writerID snapshotid.ID, initial T, policy Policy[T]) *MutableState[T] {
	return &MutableState[T]{
		chain:    record.NewChain(writerID, initial),
		policy:   policy,
		objectID: nextObjectID(),
	}
}

func (s *MutableState[T]) ObjectID() uint64    { return s.objectID }
func (s *MutableState[T]) Chain() *record.Chain { return s.chain }

func (s *MutableState[T]) Policy() Mergeable { return typedMerge[T]{s.policy} }

type typedMerge[T any] struct{ policy Policy[T] }

func (m typedMerge[T]) Equivalent(a, b any) bool {
	return m.policy.Equivalent(a.(T), b.(T))
}

func (m typedMerge[T]) Merge(previous, current, applied any) (any, bool) {
	if m.policy.Merge == nil {
		return nil, false
	}
	merged, ok := m.policy.Merge(previous.(T), current.(T), applied.(T))
	return merged, ok
}

// Read returns the value visible to snap, registering the read with
// the snapshot's observer (and, transitively, the observation
// registry).
func (s *MutableState[T]) Read(snap Snapshot) T {
	snap.NotifyRead(s)
	rec := s.chain.Readable(snap.ID(), snap.Invalid())
	return rec.Value().(T)
}

// AddApplyObserver registers f to run whenever this cell's value is
// committed by a successful snapshot apply (spec.md §4.3's
// apply_observers). Each observer receives the committed value.
func (s *MutableState[T]) AddApplyObserver(f func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyObservers = append(s.applyObservers, f)
}

// NotifyApplied is invoked by the snapshot package after a successful
// apply with the newly committed value, type-erased. It satisfies the
// apply-notifier interface the snapshot package type-asserts against,
// without that package needing to know T.
func (s *MutableState[T]) NotifyApplied(value any) {
	s.mu.Lock()
	observers := append([]func(T){}, s.applyObservers...)
	s.mu.Unlock()

	v := value.(T)
	for _, f := range observers {
		f(v)
	}
}

// Write stores value as visible to snap. Outside of a mutable snapshot
// (e.g. a transparent snapshot forwarding to the global), the write is
// still observed so the scheduler's dirty queue can react.
func (s *MutableState[T]) Write(snap Snapshot, value T) {
	snap.NotifyWrite(s)
	rec := s.chain.Writable(snap.ID(), snap.ReuseLimit())
	rec.SetValue(value)
	if snap.IsMutable() {
		snap.RecordModified(s)
	}
}
