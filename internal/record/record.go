// Package record implements the per-state StateRecord chain and its
// reuse/reclamation rules (spec.md §4.2). A chain is owned by exactly
// one SnapshotMutableState; all mutation goes through a mutex the way
// the teacher's internal/infrastructure/objectstore.ObjectStore guards
// its index with a single RWMutex rather than lock-free atomics.
package record

import (
	"sync"

	"github.com/samoylenkodmitry/compose-runtime/internal/coreerr"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
)

// Record is one versioned value in a state object's chain. next links
// toward older records; the chain is acyclic and owned by its Chain.
type Record struct {
	writerID  snapshotid.ID
	tombstone bool
	next      *Record
	value     any
}

// WriterID returns the snapshot id that wrote this record.
func (r *Record) WriterID() snapshotid.ID { return r.writerID }

// Value returns the record's boxed value.
func (r *Record) Value() any { return r.value }

// SetValue overwrites the record's boxed value in place.
func (r *Record) SetValue(v any) { r.value = v }

// Chain is the linked list of StateRecords for one state object, newest
// (head) to oldest.
type Chain struct {
	mu   sync.Mutex
	head *Record
}

// NewChain constructs a chain with a single head record, written by the
// given snapshot id and holding the given initial value. A chain is
// never empty: construction always allocates the head.
func NewChain(writerID snapshotid.ID, initial any) *Chain {
	return &Chain{head: &Record{writerID: writerID, value: initial}}
}

// Readable returns the record with the largest writerID <= snapshotID
// such that it is not in invalid and is not tombstoned. Panics with
// StateRecordLookupFailure if the chain is structurally corrupt (no
// such record exists) — this can only happen if a caller violates the
// pinning discipline that keeps a readable record alive for every
// still-open snapshot.
func (c *Chain) Readable(snapshotID snapshotid.ID, invalid snapshotid.Set) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *Record
	for r := c.head; r != nil; r = r.next {
		if r.tombstone {
			continue
		}
		if r.writerID == snapshotid.Invalid {
			continue
		}
		if r.writerID > snapshotID {
			continue
		}
		if invalid.Get(r.writerID) {
			continue
		}
		if best == nil || r.writerID > best.writerID {
			best = r
		}
	}
	if best == nil {
		panic(&coreerr.StateRecordLookupFailure{})
	}
	return best
}

// Writable returns a record this write may mutate in place, per
// spec.md §4.2:
//  1. if head is already owned by snapshotID, reuse it (fast path).
//  2. else reuse the first record that is tombstoned, Invalid, or has
//     writerID < reuseLimit, rewriting its writerID and clearing its
//     tombstone. The newest live record below reuseLimit is never
//     reused: it is the value every pinned snapshot still reads.
//  3. else allocate a new head.
func (c *Chain) Writable(snapshotID, reuseLimit snapshotid.ID) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.head.writerID == snapshotID {
		return c.head
	}

	var keep *Record
	for r := c.head; r != nil; r = r.next {
		if r.tombstone || r.writerID == snapshotid.Invalid || r.writerID >= reuseLimit {
			continue
		}
		if keep == nil || r.writerID > keep.writerID {
			keep = r
		}
	}

	for r := c.head; r != nil; r = r.next {
		if r == keep {
			continue
		}
		if r.tombstone || r.writerID == snapshotid.Invalid || r.writerID < reuseLimit {
			r.writerID = snapshotID
			r.tombstone = false
			return r
		}
	}

	fresh := &Record{writerID: snapshotID, next: c.head}
	c.head = fresh
	return fresh
}

// CommitWrite re-homes the record written by oldWriterID (the
// snapshot that produced it) onto newWriterID (the global id it
// commits as) and overwrites its value with the merge result. Used by
// a successful Apply to promote a mutable snapshot's tentative write
// into the globally visible history.
func (c *Chain) CommitWrite(oldWriterID, newWriterID snapshotid.ID, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for r := c.head; r != nil; r = r.next {
		if r.writerID == oldWriterID {
			r.writerID = newWriterID
			r.value = value
			return
		}
	}
}

// RecordWrittenBy returns the record whose writerID exactly equals id,
// ignoring tombstones and the invalid set, or nil if none exists. Used
// during apply to recover the value a mutable snapshot actually wrote,
// as distinct from Readable's visibility-based lookup.
func (c *Chain) RecordWrittenBy(id snapshotid.ID) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	for r := c.head; r != nil; r = r.next {
		if r.writerID == id {
			return r
		}
	}
	return nil
}

// Head returns the current head record (read-only peek, e.g. for
// diagnostics dumps).
func (c *Chain) Head() *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// OverwriteUnusedRecords reclaims history: among records with
// writerID < reuseLimit and writerID != Invalid, the one with the
// largest such writerID is kept as the sole historical record; every
// other such record is marked Invalid and its value replaced with the
// kept record's value, so its storage can be reused in place by a
// future Writable call without reallocation.
func (c *Chain) OverwriteUnusedRecords(reuseLimit snapshotid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keep *Record
	for r := c.head; r != nil; r = r.next {
		if r.writerID == snapshotid.Invalid || r.writerID >= reuseLimit {
			continue
		}
		if keep == nil || r.writerID > keep.writerID {
			keep = r
		}
	}
	if keep == nil {
		return
	}
	for r := c.head; r != nil; r = r.next {
		if r == keep {
			continue
		}
		if r.writerID == snapshotid.Invalid || r.writerID >= reuseLimit {
			continue
		}
		r.writerID = snapshotid.Invalid
		r.tombstone = false
		r.value = keep.value
	}
}

// Tombstone marks a record as logically deleted without removing it
// from the chain; it is skipped by Readable and is reuse-eligible by
// Writable regardless of its writerID.
func (r *Record) Tombstone() { r.tombstone = true }
