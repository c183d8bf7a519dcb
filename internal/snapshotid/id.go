// Package snapshotid provides the monotonic SnapshotId space and the
// immutable SnapshotIdSet bitset used throughout the snapshot system.
package snapshotid

import "sync/atomic"

// ID is a monotonically increasing snapshot identifier.
type ID = uint64

// Invalid is the reserved sentinel marking a record as reusable; it is
// never allocated by Allocator.
const Invalid ID = ^ID(0)

// Allocator hands out process-wide monotonic snapshot ids via
// fetch-and-add, mirroring the teacher's PIDAllocator in spirit
// (internal/infrastructure/processmgr/pid_allocator.go) but without
// wraparound or reuse: snapshot ids are never recycled, only their
// records are.
type Allocator struct {
	next atomic.Uint64
}

// NewAllocator returns an allocator whose first Next() call returns 1;
// id 0 is reserved to mean "no snapshot" / "the initial global state".
func NewAllocator() *Allocator {
	a := &Allocator{}
	a.next.Store(1)
	return a
}

// Next allocates and returns the next snapshot id.
func (a *Allocator) Next() ID {
	return a.next.Add(1) - 1
}

// Peek returns the id that the next Next() call would return, without
// allocating it. Used by the runtime to size the global invalid set.
func (a *Allocator) Peek() ID {
	return a.next.Load()
}
