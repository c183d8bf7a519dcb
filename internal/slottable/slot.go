// Package slottable implements the persistent, cursor-driven slot
// table that stores composition structure across recompositions
// (spec.md §4.4): a linear buffer of Group/Value/Node/Gap slots, a
// dense anchor-position index, and the start/end frame stack that
// composable re-entry drives.
//
// Grounded in the teacher's internal/infrastructure/objectstore,
// which keeps a dense id/value/position index under one lock rather
// than a map-of-pointers; the slot table generalizes that shape to a
// single growable slice addressed by cursor position instead of by id.
package slottable

import "github.com/samoylenkodmitry/compose-runtime/internal/coreerr"

// Kind tags which case a Slot currently holds.
type Kind int

const (
	KindGroup Kind = iota
	KindValue
	KindNode
	KindGap
)

// AnchorID is a dense, opaque reference to a slot's position, stable
// across insertions and rotations that update the anchors table.
type AnchorID int

// NoAnchor marks a slot with no allocated anchor.
const NoAnchor AnchorID = -1

// NoScope marks a group with no associated composition scope.
const NoScope uint64 = ^uint64(0)

// NoGroupKey marks a Gap that did not originate from a Group (so has
// no group_key/group_scope/group_len to preserve).
const NoGroupKey uint64 = ^uint64(0)

// Slot is the tagged union spec.md §3 describes. Only the fields
// relevant to Kind are meaningful; the others are zero.
type Slot struct {
	Kind Kind

	// Group
	Key            uint64
	Anchor         AnchorID
	Len            int
	Scope          uint64
	HasGapChildren bool

	// Value
	Value any

	// Node
	NodeID uint64

	// Gap: preserves whatever the replaced slot held, so a same-key
	// re-entry restores it losslessly instead of re-initializing it.
	// GapGroupKey/Scope/Len are meaningful for a converted Group (and
	// NoGroupKey for a Value/Node-origin gap); GapValue is the
	// converted Value slot's payload (nil iff this gap is not
	// Value-origin, since UseValueSlot never stores a nil pointer);
	// GapNodeID/GapHadNode preserve a converted Node slot's id.
	GapGroupKey   uint64
	GapGroupScope uint64
	GapGroupLen   int
	GapValue      any
	GapNodeID     uint64
	GapHadNode    bool
}

func groupSlot(key uint64, anchor AnchorID, length int) Slot {
	return Slot{Kind: KindGroup, Key: key, Anchor: anchor, Len: length, Scope: NoScope}
}

func valueSlot(anchor AnchorID, value any) Slot {
	return Slot{Kind: KindValue, Anchor: anchor, Value: value}
}

func nodeSlot(anchor AnchorID, nodeID uint64) Slot {
	return Slot{Kind: KindNode, Anchor: anchor, NodeID: nodeID}
}

// asGap converts s into a Gap, preserving whatever s held so a later
// same-key re-entry restores it losslessly (spec.md §3 Slot invariant
// (iii), §8 property 6): a Group's key/scope/len/anchor, a Value's
// payload, or a Node's id. promoteGap and UseValueSlot/UseNodeSlot's
// own KindGap branches are this function's counterpart on the way back
// in.
func asGap(s Slot) Slot {
	switch s.Kind {
	case KindGroup:
		return Slot{
			Kind:          KindGap,
			Anchor:        s.Anchor,
			GapGroupKey:   s.Key,
			GapGroupScope: s.Scope,
			GapGroupLen:   s.Len,
		}
	case KindValue:
		return Slot{Kind: KindGap, GapGroupKey: NoGroupKey, GapValue: s.Value}
	case KindNode:
		return Slot{Kind: KindGap, GapGroupKey: NoGroupKey, GapNodeID: s.NodeID, GapHadNode: true}
	default:
		return Slot{Kind: KindGap, GapGroupKey: NoGroupKey}
	}
}

func invariantViolation(msg string) {
	(&coreerr.SlotTableInvariantViolation{Msg: msg}).Panic()
}
