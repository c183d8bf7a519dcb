package slottable

// allocateAnchor binds a fresh (or recycled) anchor id to pos.
func (t *Table) allocateAnchor(pos int) AnchorID {
	if n := len(t.freeAnchors); n > 0 {
		id := t.freeAnchors[n-1]
		t.freeAnchors = t.freeAnchors[:n-1]
		t.anchors[id] = pos
		return id
	}
	id := AnchorID(len(t.anchors))
	t.anchors = append(t.anchors, pos)
	return id
}

// freeAnchor releases id back to the free list; a later
// allocateAnchor may reuse it for an unrelated slot.
func (t *Table) freeAnchor(id AnchorID) {
	if id == NoAnchor {
		return
	}
	t.anchors[id] = -1
	t.freeAnchors = append(t.freeAnchors, id)
}

// shiftAnchorPositionsFrom adds delta to the resolved position of
// every anchored slot at or after from, for an insertion or deletion
// that only displaced that tail.
func (t *Table) shiftAnchorPositionsFrom(from, delta int) {
	for i := from; i < len(t.slots); i++ {
		if a := t.slots[i].Anchor; a != NoAnchor {
			t.anchors[a] += delta
		}
	}
}

// rebuildAllAnchorPositions recomputes every anchor's position from
// scratch, for rotations wide enough that incremental shifting isn't
// worth tracking precisely (spec.md §4.4's RotateWindow budget) and
// for CompactGaps, which removes slots outright.
func (t *Table) rebuildAllAnchorPositions() {
	for i := range t.slots {
		if a := t.slots[i].Anchor; a != NoAnchor {
			t.anchors[a] = i
		}
	}
}

func (t *Table) spanLength(pos int) int {
	s := t.slots[pos]
	switch s.Kind {
	case KindGroup:
		return s.Len
	case KindGap:
		if s.GapGroupKey != NoGroupKey {
			return s.GapGroupLen
		}
		return 1
	default:
		return 1
	}
}

// rotateTo moves the extent starting at from (a Group or a gapped
// Group of from's span length) to position to, where to <= from, per
// spec.md §4.4's group rescue. Anchors within the affected range are
// updated directly if the range fits the configured RotateWindow;
// otherwise every anchor in the table is recomputed.
func (t *Table) rotateTo(from, to int) {
	length := t.spanLength(from)

	moved := append([]Slot(nil), t.slots[from:from+length]...)
	remainder := append(t.slots[:from:from], t.slots[from+length:]...)

	newSlots := make([]Slot, 0, len(t.slots))
	newSlots = append(newSlots, remainder[:to]...)
	newSlots = append(newSlots, moved...)
	newSlots = append(newSlots, remainder[to:]...)
	t.slots = newSlots

	affected := from + length - to
	if affected > t.cfg.RotateWindow {
		t.rebuildAllAnchorPositions()
		return
	}
	for i := to; i < from+length; i++ {
		if a := t.slots[i].Anchor; a != NoAnchor {
			t.anchors[a] = i
		}
	}
}

// MarkRangeAsGaps converts every slot in [start, end) to a Gap, per
// spec.md §4.4: a Group's header becomes a Gap preserving its key,
// scope, length and anchor (with its children recursively converted but
// kept physically in place, so re-entry with the same key can rotate
// the whole subtree back); a Value or Node slot becomes an anchor-less
// Gap that keeps its old payload (its own anchor is released for
// reuse, since nothing addresses a leaf slot by anchor — only same-key
// re-entry's positional walk finds it again), so UseValueSlot/
// UseNodeSlot's own KindGap branch restores it losslessly instead of
// reinitializing it (spec.md §8 property 6); an existing Gap is
// untouched.
//
// When start is the current cursor — the usual case, marking the
// remainder of an omitted conditional branch — the cursor advances to
// end, so the enclosing End()'s length bookkeeping still accounts for
// every slot physically spanned by the group, gapped or not.
func (t *Table) MarkRangeAsGaps(start, end int) {
	if end > len(t.slots) {
		end = len(t.slots)
	}
	advanceCursor := start == t.cursor
	i := start
	for i < end {
		s := t.slots[i]
		switch s.Kind {
		case KindGroup:
			childEnd := i + s.Len
			if childEnd > end {
				childEnd = end
			}
			t.MarkRangeAsGaps(i+1, childEnd)
			t.slots[i] = asGap(t.slots[i])
			i += s.Len
		case KindValue, KindNode:
			t.freeAnchor(s.Anchor)
			gap := asGap(s)
			gap.Anchor = NoAnchor
			t.slots[i] = gap
			i++
		default:
			i++
		}
	}
	if advanceCursor {
		t.cursor = end
		if f := t.topFrame(); f != nil {
			t.slots[f.start].HasGapChildren = true
		}
	}
}

// CompactGaps drops every anchor-less Gap (one with no preserved
// group identity) and rebuilds anchor positions from scratch. Must
// only run between compositions, with no open start()/end() frames.
func (t *Table) CompactGaps() {
	if len(t.frames) != 0 {
		invariantViolation("CompactGaps called with open start()/end() frames")
	}
	out := t.slots[:0]
	for _, s := range t.slots {
		if s.Kind == KindGap && s.GapGroupKey == NoGroupKey {
			continue
		}
		out = append(out, s)
	}
	t.slots = out
	t.rebuildAllAnchorPositions()
}
