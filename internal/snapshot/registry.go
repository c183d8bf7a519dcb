package snapshot

import (
	"sync"

	"go.uber.org/zap"

	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
)

// Registry is the process-wide snapshot authority: it allocates ids,
// tracks which ids are open (uncommitted), pins the oldest one against
// reclamation, and owns the global snapshot. Grounded in the teacher's
// internal/infrastructure/processmgr.ProcessManager, which plays the
// same role for pid allocation and slot bookkeeping.
type Registry struct {
	cfg   runtime.Config
	log   *zap.Logger
	alloc *snapshotid.Allocator
	pins  *pinning

	mu              sync.Mutex
	open            snapshotid.Set
	currentGlobalID snapshotid.ID
	global          *Snapshot
	lastWriter      map[uint64]snapshotid.ID
}

// NewRegistry constructs a Registry and its initial global snapshot.
func NewRegistry(cfg runtime.Config, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		cfg:   cfg,
		log:   log.Named("snapshot"),
		alloc:      snapshotid.NewAllocator(),
		pins:       newPinning(),
		lastWriter: make(map[uint64]snapshotid.ID),
	}

	globalID := r.alloc.Next()
	r.currentGlobalID = globalID
	// The global id is pinned (protected from reclamation) but
	// deliberately never added to open: it must never appear in any
	// snapshot's invalid set, or the root record of every state cell
	// would become unreadable.
	r.pins.pin(globalID)
	r.global = &Snapshot{
		registry: r,
		kind:     KindGlobal,
		id:       globalID,
		invalid:  snapshotid.Empty,
	}
	return r
}

// Global returns the singleton global snapshot. State reads outside of
// any explicit snapshot go through this.
func (r *Registry) Global() *Snapshot { return r.global }

// Dispose tears down the registry's bookkeeping, for test isolation
// between independently constructed registries.
func (r *Registry) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pins.unpin(r.global.id)
	r.open = snapshotid.Empty
}

// TakeMutableSnapshot opens a new mutable snapshot as a child of parent
// (the global snapshot if parent is nil), per spec.md §3. The snapshot
// is pinned immediately so in-flight writes it may later apply are
// never reclaimed out from under it.
func (r *Registry) TakeMutableSnapshot(parent *Snapshot, readObs, writeObs Observer) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parent == nil {
		parent = r.global
	}

	id := r.alloc.Next()
	invalid := excludeAncestors(r.open, parent)

	var baseParentID snapshotid.ID
	if parent.kind == KindGlobal {
		baseParentID = r.currentGlobalID
	} else {
		baseParentID = parent.id
	}

	s := &Snapshot{
		registry:      r,
		kind:          KindMutable,
		id:            id,
		invalid:       invalid,
		readObserver:  readObs,
		writeObserver: writeObs,
		baseParentID:  baseParentID,
		parent:        parent,
		modified:      make(map[uint64]modifiedEntry),
	}

	r.open = r.open.Set(id)
	r.pins.pin(id)
	return s
}

// excludeAncestors removes parent's id and every id above it in the
// snapshot lineage from open, so a nested snapshot can always see its
// ancestors' own uncommitted writes. Stops at the global snapshot,
// whose id is never a member of open in the first place.
func excludeAncestors(open snapshotid.Set, parent *Snapshot) snapshotid.Set {
	for p := parent; p != nil && p.kind != KindGlobal; p = p.parent {
		open = open.Clear(p.id)
	}
	return open
}

// TakeReadOnlySnapshot opens a read-only, never-applied view of state
// as of the current moment. Its invalid set excludes every snapshot
// still open (in-flight, uncommitted writers), so it sees only fully
// committed history.
func (r *Registry) TakeReadOnlySnapshot(readObs Observer) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.alloc.Next()
	invalid := r.open

	s := &Snapshot{
		registry:     r,
		kind:         KindReadOnly,
		id:           id,
		invalid:      invalid,
		readObserver: readObs,
		baseParentID: r.currentGlobalID,
		parent:       r.global,
	}

	r.open = r.open.Set(id)
	r.pins.pin(id)
	return s
}

// closeSnapshot releases id from the open set and unpins it, making its
// records eligible for future reclamation once no older snapshot needs
// them.
func (r *Registry) closeSnapshot(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = r.open.Clear(s.id)
	r.pins.unpin(s.id)
}

// currentGlobalIDLocked returns the id the global snapshot should
// currently read as, under the registry lock.
func (r *Registry) currentGlobalIDLocked() snapshotid.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentGlobalID
}

func (r *Registry) reuseLimit() snapshotid.ID {
	lo, ok := r.pins.lowest()
	if !ok {
		return snapshotid.Invalid
	}
	return lo
}
