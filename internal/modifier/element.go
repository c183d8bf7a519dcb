package modifier

import "reflect"

// Node is the runtime counterpart of an Element: the long-lived,
// interior-mutable object a reconciled chain entry wraps. Per spec.md
// §9's design note, capability-specific behavior (layout, draw,
// pointer, focus, semantics, parent-data) is modeled as optional
// downcast-style interfaces below rather than a god-interface or
// runtime inheritance; internal/modifiernode type-asserts a Node
// against whichever of these it needs.
type Node interface {
	Capabilities() Capability
	Attach(ctx AttachContext)
	Detach()
	Reset()
}

// Element is the persistent, API-level description of one modifier
// link: padding(8), background(RED), clickable(handler), and so on.
// Elements are compared during chain reconciliation (spec.md §4.6) by
// (TypeID, Key) first, falling back to (TypeID, Hash) when no element
// in the comparison carries an explicit key, and then to TypeID alone.
type Element interface {
	// TypeID identifies the element's Go type for reuse-index bucketing.
	TypeID() reflect.Type

	// Key is an explicit identity hint (e.g. a stable per-item key in a
	// list), or nil if the element relies on hash-based matching.
	Key() any

	// Hash is consulted when Key is nil: a keyless node of the same
	// TypeID with equal Hash is preferred for reuse, and failing that
	// any unreused keyless node of the same TypeID is reused (either
	// way the reconciler calls Update, which detects what changed and
	// mutates the node).
	Hash() uint64

	// Create builds a fresh Node from this element's data.
	Create() Node

	// Update applies this element's data onto an existing, reused
	// node. Implementations should compare against the node's current
	// state and skip work (and invalidation) when nothing changed.
	Update(node Node)
}

// Measurer is the optional capability for layout participation: a
// layout node consumes one child measurable and returns its own
// placement.
type Measurer interface {
	Measure(child Measurable) Placement
}

// Measurable is what a layout node measures: a single child in the
// layout tree, already reduced to its own measurement contract.
type Measurable interface {
	Measure(constraints Constraints) Size
}

// Constraints bounds a layout pass, mirroring the host's box model.
type Constraints struct {
	MinWidth, MaxWidth   float64
	MinHeight, MaxHeight float64
}

// Size is a measured width/height pair.
type Size struct{ Width, Height float64 }

// Placement is a measured size plus the offset a layout node places
// its child at.
type Placement struct {
	Size           Size
	PlacementX     float64
	PlacementY     float64
}

// Drawer is the optional capability for draw participation.
type Drawer interface {
	Draw(scope DrawScope)
}

// DrawScope is the abstract canvas spec.md §6 describes; the host
// implements it.
type DrawScope interface {
	FillRect(x, y, w, h float64, cornerRadius float64)
	StrokeRect(x, y, w, h float64, cornerRadius float64)
	GlyphRun(x, y float64, glyphs []byte)
	PushClip(x, y, w, h float64)
	PopClip()
	PushTransform(a, b, c, d, e, f float64)
	PopTransform()
}

// PointerPhase is one stage of a pointer event, per spec.md §6.
type PointerPhase int

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
	PointerScroll
)

// PointerEvent is the host-delivered pointer sample.
type PointerEvent struct {
	ID        uint64
	X, Y      float64
	Phase     PointerPhase
	Buttons   uint8
	Timestamp int64
}

// PointerHandler is the optional capability for pointer participation.
// Dispatch is a three-pass traversal (initial outer->inner, main
// inner->outer, final outer->inner); HandlePointer returning true
// ends dispatch of this event: no further handler, in this pass or a
// later one, sees it.
type PointerHandler interface {
	HandlePointer(pass PointerPass, ev PointerEvent) (consumed bool)
}

// PointerPass names which of the three dispatch passes is running.
type PointerPass int

const (
	PointerPassInitial PointerPass = iota
	PointerPassMain
	PointerPassFinal
)

// FocusTarget is the optional capability for focus participation.
type FocusTarget interface {
	RequestFocus() bool
	HasFocus() bool
}

// SemanticsConfiguration accumulates the merged semantics properties
// for one UI node.
type SemanticsConfiguration struct {
	Role        string
	Label       string
	Actions     []string
	MergeChild  bool
}

// SemanticsContributor is the optional capability for semantics
// participation.
type SemanticsContributor interface {
	ContributeSemantics(cfg *SemanticsConfiguration)
}

// ParentDataProvider is the optional capability for parent-data
// participation (e.g. a child's layout weight, read back by the
// parent's layout policy).
type ParentDataProvider interface {
	ParentData() any
}
