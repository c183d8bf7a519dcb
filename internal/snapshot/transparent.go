package snapshot

import (
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

// Transparent is a read/write observer overlay with no identity of its
// own: it borrows id, invalid set, reuse limit, mutability and commit
// target entirely from parent, only adding its own observer pair on
// top of the parent's. Used where a composable wants to see its own
// reads without opening a snapshot that would need a separate apply,
// e.g. a derived-state recomputation running inside the enclosing
// frame's mutable snapshot.
type Transparent struct {
	parent        *Snapshot
	readObserver  Observer
	writeObserver Observer
}

// NewTransparent wraps parent with an additional observer pair.
func NewTransparent(parent *Snapshot, readObs, writeObs Observer) *Transparent {
	return &Transparent{parent: parent, readObserver: readObs, writeObserver: writeObs}
}

func (t *Transparent) ID() snapshotid.ID         { return t.parent.ID() }
func (t *Transparent) Invalid() snapshotid.Set   { return t.parent.Invalid() }
func (t *Transparent) ReuseLimit() snapshotid.ID { return t.parent.ReuseLimit() }
func (t *Transparent) IsMutable() bool           { return t.parent.IsMutable() }

func (t *Transparent) NotifyRead(obj state.Object) {
	if t.readObserver != nil {
		t.readObserver(obj)
	}
	t.parent.NotifyRead(obj)
}

func (t *Transparent) NotifyWrite(obj state.Object) {
	if t.writeObserver != nil {
		t.writeObserver(obj)
	}
	t.parent.NotifyWrite(obj)
}

func (t *Transparent) RecordModified(obj state.Object) {
	t.parent.RecordModified(obj)
}
