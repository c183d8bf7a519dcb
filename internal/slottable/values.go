package slottable

// UseValueSlot implements spec.md §4.4's use_value_slot<T>(): it
// returns a stable pointer into the table that survives across
// recompositions, so a remembered value can be read and written in
// place. init is called only the first time the slot is populated; on
// later passes, the cursor's existing Value, or a Gap's preserved
// payload being restored, is returned without re-running it — a
// same-key re-entry after an omitted branch recovers the remembered
// cell exactly as it was (spec.md §8 property 6), not reinitialized.
//
// A free function, not a method, because Go methods cannot carry
// their own type parameters independent of the receiver's.
func UseValueSlot[T any](t *Table, init func() T) *T {
	if t.cursor < len(t.slots) {
		s := t.slots[t.cursor]
		switch s.Kind {
		case KindValue:
			if v, ok := s.Value.(*T); ok {
				t.cursor++
				return v
			}
		case KindGap:
			anchor := t.allocateAnchor(t.cursor)
			var ptr *T
			if v, ok := s.GapValue.(*T); ok {
				ptr = v
			} else {
				v := init()
				ptr = &v
			}
			t.slots[t.cursor] = valueSlot(anchor, ptr)
			t.cursor++
			return ptr
		}
	}

	anchor := t.allocateAnchor(t.cursor)
	v := init()
	ptr := &v
	t.insertAt(t.cursor, valueSlot(anchor, ptr))
	t.cursor++
	return ptr
}

// UseNodeSlot implements use_node_slot: it binds nodeID to the
// cursor's position, inserting, restoring from a gap, or overwriting
// an existing Node slot as needed.
func (t *Table) UseNodeSlot(nodeID uint64) {
	if t.cursor < len(t.slots) {
		s := t.slots[t.cursor]
		switch s.Kind {
		case KindNode:
			t.slots[t.cursor].NodeID = nodeID
			t.cursor++
			return
		case KindGap:
			anchor := t.allocateAnchor(t.cursor)
			t.slots[t.cursor] = nodeSlot(anchor, nodeID)
			t.cursor++
			return
		}
	}

	anchor := t.allocateAnchor(t.cursor)
	t.insertAt(t.cursor, nodeSlot(anchor, nodeID))
	t.cursor++
}
