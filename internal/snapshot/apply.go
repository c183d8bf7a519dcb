package snapshot

import (
	"github.com/samoylenkodmitry/compose-runtime/internal/coreerr"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

// applyNotifier is satisfied by state.MutableState[T] via its
// NotifyApplied method; the apply step type-asserts against it so it
// never needs to know T.
type applyNotifier interface {
	NotifyApplied(value any)
}

type decision struct {
	obj    state.Object
	merged any
}

// Apply commits s's modified set against its parent (the global
// snapshot, or — for a nested snapshot — the still-open parent, whose
// own modified set absorbs the merge result for a later Apply), per
// spec.md §4.3:
//
//  1. applied is the value s wrote.
//  2. current is the value visible to the parent right now.
//  3. previous is the value visible to s at the moment it was taken.
//  4. if last_writer[object] == s.baseParentID, or no apply has ever
//     committed the object, nobody else has written since s's base:
//     no real conflict, applied wins outright.
//  5. otherwise, three-way merge: equivalent(current, previous) also
//     means no real conflict (applied wins); equivalent(applied,
//     current) means the write is already reflected (keep current);
//     otherwise try policy.Merge, accepting it unless it degenerates
//     back to current; failing all of that is a real conflict.
//
// Every object is decided before anything commits: a conflict on any
// one of them fails the whole apply, and nothing is written.
func (r *Registry) Apply(s *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.kind != KindMutable || s.applied || s.disposed {
		return nil
	}

	target := s.parent
	isGlobalTarget := target == nil || target.kind == KindGlobal

	var targetReadID snapshotid.ID
	var targetInvalid snapshotid.Set
	if isGlobalTarget {
		targetReadID = r.currentGlobalID
		targetInvalid = snapshotid.Empty
	} else {
		targetReadID = target.id
		targetInvalid = target.invalid
	}

	s.mu.Lock()
	modified := make(map[uint64]modifiedEntry, len(s.modified))
	for k, v := range s.modified {
		modified[k] = v
	}
	s.mu.Unlock()

	decisions := make([]decision, 0, len(modified))
	var conflicts []uint64

	for objID, entry := range modified {
		chain := entry.obj.Chain()

		appliedRec := chain.RecordWrittenBy(s.id)
		if appliedRec == nil {
			continue
		}
		applied := appliedRec.Value()
		current := chain.Readable(targetReadID, targetInvalid).Value()
		previous := chain.Readable(s.baseParentID, s.invalid).Value()
		policy := entry.obj.Policy()

		if lw, ok := r.lastWriter[objID]; !ok || lw == s.baseParentID {
			decisions = append(decisions, decision{entry.obj, applied})
			continue
		}

		switch {
		case policy.Equivalent(current, previous):
			decisions = append(decisions, decision{entry.obj, applied})
		case policy.Equivalent(applied, current):
			decisions = append(decisions, decision{entry.obj, current})
		default:
			merged, ok := policy.Merge(previous, current, applied)
			switch {
			case ok && !policy.Equivalent(merged, current):
				decisions = append(decisions, decision{entry.obj, merged})
			case ok:
				decisions = append(decisions, decision{entry.obj, current})
			default:
				conflicts = append(conflicts, objID)
			}
		}
	}

	if len(conflicts) > 0 {
		return &coreerr.ApplyFailure{Conflicts: conflicts}
	}

	if isGlobalTarget {
		newGlobalID := r.alloc.Next()
		for _, d := range decisions {
			d.obj.Chain().CommitWrite(s.id, newGlobalID, d.merged)
			r.lastWriter[d.obj.ObjectID()] = newGlobalID
			if notifier, ok := d.obj.(applyNotifier); ok {
				notifier.NotifyApplied(d.merged)
			}
		}
		r.currentGlobalID = newGlobalID
	} else {
		for _, d := range decisions {
			d.obj.Chain().CommitWrite(s.id, target.id, d.merged)
			r.lastWriter[d.obj.ObjectID()] = target.id
			target.mu.Lock()
			target.modified[d.obj.ObjectID()] = modifiedEntry{obj: d.obj, writerID: target.id}
			target.mu.Unlock()
		}
	}

	s.applied = true
	r.open = r.open.Clear(s.id)
	r.pins.unpin(s.id)
	return nil
}
