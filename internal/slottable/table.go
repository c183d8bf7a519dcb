package slottable

import (
	"go.uber.org/zap"

	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
)

// frame is a pushed start(key)/end() activation. start mirrors
// spec.md §4.4's literal field name: the cursor position of the
// group's own header slot, from which end() computes new_len.
type frame struct {
	key                    uint64
	start                  int
	forceChildrenRecompose bool
}

// Table is the persistent composition buffer: a linear slice of Slots
// addressed by cursor, plus a dense anchor-position index. Grounded
// in the teacher's objectstore.ObjectStore (dense ids/vals/pos arrays
// under one lock) generalized from id-keyed storage to cursor-keyed
// storage, since the slot table's "index" is position, not an id.
type Table struct {
	cfg runtime.Config
	log *zap.Logger

	slots  []Slot
	cursor int
	frames []frame

	anchors     []int
	freeAnchors []AnchorID
}

// NewTable constructs an empty slot table.
func NewTable(cfg runtime.Config, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{cfg: cfg, log: log.Named("slottable")}
}

// Cursor returns the current cursor position.
func (t *Table) Cursor() int { return t.cursor }

// Len returns the number of slots in the table.
func (t *Table) Len() int { return len(t.slots) }

// SlotAt returns the slot at position p, for diagnostics and tests.
func (t *Table) SlotAt(p int) Slot { return t.slots[p] }

// Reset rewinds the cursor to the start of the table for a fresh
// composition pass, without discarding stored slots.
func (t *Table) Reset() {
	if len(t.frames) != 0 {
		invariantViolation("Reset called with open start()/end() frames")
	}
	t.cursor = 0
}

func (t *Table) topFrame() *frame {
	if len(t.frames) == 0 {
		return nil
	}
	return &t.frames[len(t.frames)-1]
}

func (t *Table) pushFrame(key uint64, start int, force bool) {
	t.frames = append(t.frames, frame{key: key, start: start, forceChildrenRecompose: force})
}

// Start begins (or re-enters) the group identified by key at the
// cursor, per spec.md §4.4. The fast path matches the slot already at
// the cursor; otherwise a bounded forward scan looks for the group
// (or its gap form) within the search budget, widening to a full scan
// as the fallback the spec describes for enclosing nested gaps. A
// group found away from the cursor is rotated into place.
func (t *Table) Start(key uint64) {
	top := t.topFrame()
	force := top != nil && top.forceChildrenRecompose

	if t.cursor < len(t.slots) {
		s := t.slots[t.cursor]
		if s.Kind == KindGroup && s.Key == key && !s.HasGapChildren {
			t.pushFrame(key, t.cursor, force)
			t.cursor++
			return
		}
	}

	pos, found := t.findKeyForward(key, t.cursor, t.cfg.SearchBudget)
	if !found {
		pos, found = t.findKeyForward(key, t.cursor, len(t.slots)-t.cursor)
	}

	if !found {
		t.insertGroup(key)
		t.pushFrame(key, t.cursor, force)
		t.cursor++
		return
	}

	if pos != t.cursor {
		t.rotateTo(pos, t.cursor)
	}
	if t.slots[t.cursor].Kind == KindGap {
		t.promoteGap(t.cursor)
	}
	t.pushFrame(key, t.cursor, force)
	t.cursor++
}

// End closes the innermost open group, updating its length (subject
// to the shrink-churn threshold) and has_gap_children flag.
func (t *Table) End() {
	f := t.topFrame()
	if f == nil {
		invariantViolation("end() without matching start()")
	}
	newLen := t.cursor - f.start
	header := &t.slots[f.start]
	oldLen := header.Len

	switch {
	case newLen > oldLen:
		header.Len = newLen
	case newLen < oldLen:
		// The children in [f.start+newLen, f.start+oldLen) occupy the
		// same physical slots as before (nothing shifts here); they
		// were simply never revisited this pass, the way an omitted
		// conditional branch leaves its old subtree behind. Converting
		// them to gaps in place is what lets the fast path miss cleanly
		// on re-entry and what reclaims Value/Node anchors; leaving
		// them tagged as live Group/Value slots would corrupt both.
		//
		// Done with the frame still on the stack so MarkRangeAsGaps'
		// own topFrame() lookup (it flags the enclosing group's
		// HasGapChildren when it advances the cursor) resolves to this
		// group, not whichever frame encloses it.
		t.MarkRangeAsGaps(t.cursor, f.start+oldLen)
		if shrinkBy := oldLen - newLen; shrinkBy*100 >= oldLen*t.cfg.ShrinkUpdateThresholdPct {
			header.Len = newLen
		}
		header.HasGapChildren = true
	}

	t.frames = t.frames[:len(t.frames)-1]
}

func (t *Table) findKeyForward(key uint64, from, window int) (int, bool) {
	limit := from + window
	if limit > len(t.slots) {
		limit = len(t.slots)
	}
	for i := from; i < limit; i++ {
		if matchesKey(t.slots[i], key) {
			return i, true
		}
	}
	return -1, false
}

func matchesKey(s Slot, key uint64) bool {
	switch s.Kind {
	case KindGroup:
		return s.Key == key
	case KindGap:
		return s.GapGroupKey == key
	default:
		return false
	}
}

func (t *Table) insertGroup(key uint64) {
	anchor := t.allocateAnchor(t.cursor)
	t.insertAt(t.cursor, groupSlot(key, anchor, 1))
}

func (t *Table) promoteGap(pos int) {
	g := t.slots[pos]
	t.slots[pos] = Slot{Kind: KindGroup, Key: g.GapGroupKey, Anchor: g.Anchor, Len: g.GapGroupLen, Scope: g.GapGroupScope}
}

// insertAt shifts slots[pos:] right by one and stores s at pos,
// allocating or reassigning anchors as needed for the shifted tail.
func (t *Table) insertAt(pos int, s Slot) {
	t.slots = append(t.slots, Slot{})
	copy(t.slots[pos+1:], t.slots[pos:])
	t.slots[pos] = s
	t.shiftAnchorPositionsFrom(pos+1, 1)
}

// CurrentGroupAnchor returns the anchor of the innermost open group.
func (t *Table) CurrentGroupAnchor() AnchorID {
	f := t.topFrame()
	if f == nil {
		return NoAnchor
	}
	return t.slots[f.start].Anchor
}

// SetCurrentGroupScope stamps a ScopeId onto the innermost open
// group, so the scheduler can later ask PositionOfAnchor for where to
// resume recomposition.
func (t *Table) SetCurrentGroupScope(scope uint64) {
	f := t.topFrame()
	if f == nil {
		invariantViolation("SetCurrentGroupScope called outside any open group")
	}
	t.slots[f.start].Scope = scope
}

// CurrentGroupScope reads back the innermost open group's ScopeId.
func (t *Table) CurrentGroupScope() uint64 {
	f := t.topFrame()
	if f == nil {
		return NoScope
	}
	return t.slots[f.start].Scope
}

// SeekToAnchor repositions the cursor to the position held by id, for
// the scheduler to resume recomposition at a specific scope.
func (t *Table) SeekToAnchor(id AnchorID) bool {
	pos, ok := t.PositionOfAnchor(id)
	if !ok {
		return false
	}
	t.cursor = pos
	return true
}

// PositionOfAnchor resolves id to its current slot position.
func (t *Table) PositionOfAnchor(id AnchorID) (int, bool) {
	if id == NoAnchor || int(id) >= len(t.anchors) {
		return 0, false
	}
	pos := t.anchors[id]
	if pos < 0 {
		return 0, false
	}
	return pos, true
}
