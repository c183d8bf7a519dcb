// Package snapshot implements the MVCC snapshot system: mutable,
// read-only, nested, global, and transparent snapshot views over
// state.MutableState cells, with optimistic three-way merge on apply
// (spec.md §3, §4.3).
package snapshot

import (
	"sync"

	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

// Kind distinguishes the snapshot variants spec.md §3 names.
type Kind int

const (
	KindGlobal Kind = iota
	KindMutable
	KindReadOnly
)

// Observer functions mirror spec.md §3's read_observer/write_observer.
type Observer func(obj state.Object)

type modifiedEntry struct {
	obj      state.Object
	writerID snapshotid.ID
}

// Snapshot is an MVCC view with an id, an invalid-set, an observer
// pair, a modified-set, and pinning, per spec.md §3.
type Snapshot struct {
	registry *Registry
	kind     Kind

	id      snapshotid.ID
	invalid snapshotid.Set

	readObserver  Observer
	writeObserver Observer

	mu              sync.Mutex
	disposed        bool
	applied         bool
	baseParentID    snapshotid.ID
	parent          *Snapshot
	nestedCount     int
	pendingChildren map[snapshotid.ID]struct{}
	modified        map[uint64]modifiedEntry
}

// ID returns the snapshot's identifier. The global snapshot's id
// tracks the registry's currentGlobalID dynamically, since every
// successful apply against it advances what "current" means; every
// other kind has a fixed id allocated at creation time.
func (s *Snapshot) ID() snapshotid.ID {
	if s.kind == KindGlobal {
		return s.registry.currentGlobalIDLocked()
	}
	return s.id
}

// Invalid returns the snapshot's invalid-set, frozen at creation time.
func (s *Snapshot) Invalid() snapshotid.Set { return s.invalid }

// ReuseLimit is the lowest pinned snapshot id, below which records may
// be reclaimed. Writes acquire a writable record using this as the
// reuse threshold (spec.md §4.2).
func (s *Snapshot) ReuseLimit() snapshotid.ID {
	return s.registry.reuseLimit()
}

// IsMutable reports whether writes against this snapshot accumulate in
// a modified-set for a future apply.
func (s *Snapshot) IsMutable() bool { return s.kind == KindMutable }

// NotifyRead invokes the read observer, if set.
func (s *Snapshot) NotifyRead(obj state.Object) {
	if s.readObserver != nil {
		s.readObserver(obj)
	}
}

// NotifyWrite invokes the write observer, if set.
func (s *Snapshot) NotifyWrite(obj state.Object) {
	if s.writeObserver != nil {
		s.writeObserver(obj)
	}
}

// RecordModified adds obj to this snapshot's modified set, keyed by
// object id, recording that this snapshot is the writer.
func (s *Snapshot) RecordModified(obj state.Object) {
	if s.kind != KindMutable {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modified[obj.ObjectID()] = modifiedEntry{obj: obj, writerID: s.id}
}

// Dispose discards a snapshot without applying it. Pending writes are
// abandoned; the records remain in their chains and are reclaimed once
// their writer id falls below the pinning limit.
func (s *Snapshot) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.modified = nil
	s.mu.Unlock()

	s.registry.closeSnapshot(s)
}
