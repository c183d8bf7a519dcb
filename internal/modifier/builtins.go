package modifier

import (
	"hash/fnv"
	"math"
	"reflect"
)

// Built-in factory methods are Modifier.then(Modifier.from_element(...))
// per spec.md §4.6, written here as free functions returning a
// one-link Modifier the caller chains with Then.

func hashFloats(fs ...float64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, f := range fs {
		bits := math.Float64bits(f)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf)
	}
	return h.Sum64()
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Padding applies uniform padding on all sides.
func Padding(all float64) Modifier { return FromElement(PaddingElement{All: all}) }

type PaddingElement struct{ All float64 }

func (e PaddingElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e PaddingElement) Key() any             { return nil }
func (e PaddingElement) Hash() uint64         { return hashFloats(e.All) }
func (e PaddingElement) Create() Node         { return &paddingNode{all: e.All} }
func (e PaddingElement) Update(n Node) {
	pn := n.(*paddingNode)
	if pn.all == e.All {
		return
	}
	pn.all = e.All
	if pn.ctx != nil {
		pn.ctx.Invalidate(InvalidateLayout)
	}
}

type paddingNode struct {
	all float64
	ctx AttachContext
}

func (n *paddingNode) Capabilities() Capability { return CapLayout }
func (n *paddingNode) Attach(ctx AttachContext) { n.ctx = ctx }
func (n *paddingNode) Detach()                  { n.ctx = nil }
func (n *paddingNode) Reset()                   { n.ctx = nil }
func (n *paddingNode) Measure(child Measurable) Placement {
	c := Constraints{
		MinWidth: 0, MaxWidth: math.Inf(1),
		MinHeight: 0, MaxHeight: math.Inf(1),
	}
	size := child.Measure(c)
	return Placement{
		Size:       Size{Width: size.Width + 2*n.all, Height: size.Height + 2*n.all},
		PlacementX: n.all,
		PlacementY: n.all,
	}
}

// Background fills the node's bounds with color, an RGBA8888 packed value.
func Background(color uint32) Modifier { return FromElement(BackgroundElement{Color: color}) }

type BackgroundElement struct{ Color uint32 }

func (e BackgroundElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e BackgroundElement) Key() any             { return nil }
func (e BackgroundElement) Hash() uint64         { return uint64(e.Color) }
func (e BackgroundElement) Create() Node         { return &backgroundNode{color: e.Color} }
func (e BackgroundElement) Update(n Node) {
	bn := n.(*backgroundNode)
	if bn.color == e.Color {
		return
	}
	bn.color = e.Color
	if bn.ctx != nil {
		bn.ctx.Invalidate(InvalidateDraw)
	}
}

type backgroundNode struct {
	color uint32
	ctx   AttachContext
}

func (n *backgroundNode) Capabilities() Capability { return CapDraw }
func (n *backgroundNode) Attach(ctx AttachContext) { n.ctx = ctx }
func (n *backgroundNode) Detach()                  { n.ctx = nil }
func (n *backgroundNode) Reset()                   { n.ctx = nil }
func (n *backgroundNode) Draw(scope DrawScope)     { scope.FillRect(0, 0, 0, 0, 0) }

// Clickable installs a pointer handler. key, if non-nil, identifies
// the handler explicitly for reconciliation (per spec.md §4.6's
// explicit-key tie-break); otherwise handler identity (its func
// pointer) stands in as the hash, so an unchanged closure reference
// across recompositions reuses the node.
func Clickable(key any, handler func()) Modifier {
	return FromElement(ClickableElement{ExplicitKey: key, Handler: handler})
}

type ClickableElement struct {
	ExplicitKey any
	Handler     func()
}

func (e ClickableElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e ClickableElement) Key() any              { return e.ExplicitKey }
func (e ClickableElement) Hash() uint64          { return uint64(reflect.ValueOf(e.Handler).Pointer()) }
func (e ClickableElement) Create() Node          { return &clickableNode{handler: e.Handler} }
func (e ClickableElement) Update(n Node) {
	n.(*clickableNode).handler = e.Handler
}

type clickableNode struct{ handler func() }

func (n *clickableNode) Capabilities() Capability { return CapPointerInput }
func (n *clickableNode) Attach(ctx AttachContext) {}
func (n *clickableNode) Detach()                  {}
func (n *clickableNode) Reset()                   {}
func (n *clickableNode) HandlePointer(pass PointerPass, ev PointerEvent) bool {
	if pass == PointerPassMain && ev.Phase == PointerUp {
		if n.handler != nil {
			n.handler()
		}
		return true
	}
	return false
}

// FixedSize fixes a node's layout size, ignoring its child's measured
// size (named FixedSize, not Size, since Size is already the
// measured-width/height struct this element's node hands back from
// Measure).
func FixedSize(width, height float64) Modifier {
	return FromElement(SizeElement{Width: width, Height: height})
}

type SizeElement struct{ Width, Height float64 }

func (e SizeElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e SizeElement) Key() any             { return nil }
func (e SizeElement) Hash() uint64         { return hashFloats(e.Width, e.Height) }
func (e SizeElement) Create() Node         { return &sizeNode{width: e.Width, height: e.Height} }
func (e SizeElement) Update(n Node) {
	sn := n.(*sizeNode)
	if sn.width == e.Width && sn.height == e.Height {
		return
	}
	sn.width, sn.height = e.Width, e.Height
	if sn.ctx != nil {
		sn.ctx.Invalidate(InvalidateLayout)
	}
}

type sizeNode struct {
	width, height float64
	ctx           AttachContext
}

func (n *sizeNode) Capabilities() Capability { return CapLayout }
func (n *sizeNode) Attach(ctx AttachContext) { n.ctx = ctx }
func (n *sizeNode) Detach()                  { n.ctx = nil }
func (n *sizeNode) Reset()                   { n.ctx = nil }
func (n *sizeNode) Measure(child Measurable) Placement {
	return Placement{Size: Size{Width: n.width, Height: n.height}}
}

// Offset shifts a node's placement without affecting its measured size.
func Offset(dx, dy float64) Modifier { return FromElement(OffsetElement{DX: dx, DY: dy}) }

type OffsetElement struct{ DX, DY float64 }

func (e OffsetElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e OffsetElement) Key() any             { return nil }
func (e OffsetElement) Hash() uint64         { return hashFloats(e.DX, e.DY) }
func (e OffsetElement) Create() Node         { return &offsetNode{dx: e.DX, dy: e.DY} }
func (e OffsetElement) Update(n Node) {
	on := n.(*offsetNode)
	if on.dx == e.DX && on.dy == e.DY {
		return
	}
	on.dx, on.dy = e.DX, e.DY
	if on.ctx != nil {
		on.ctx.Invalidate(InvalidateLayout)
	}
}

type offsetNode struct {
	dx, dy float64
	ctx    AttachContext
}

func (n *offsetNode) Capabilities() Capability { return CapLayout }
func (n *offsetNode) Attach(ctx AttachContext) { n.ctx = ctx }
func (n *offsetNode) Detach()                  { n.ctx = nil }
func (n *offsetNode) Reset()                   { n.ctx = nil }
func (n *offsetNode) Measure(child Measurable) Placement {
	p := child.Measure(Constraints{MaxWidth: math.Inf(1), MaxHeight: math.Inf(1)})
	return Placement{Size: p, PlacementX: n.dx, PlacementY: n.dy}
}

// FocusTargetModifier marks a node as a focus target, identified by name.
func FocusTargetModifier(name string) Modifier {
	return FromElement(FocusTargetElement{Name: name})
}

type FocusTargetElement struct{ Name string }

func (e FocusTargetElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e FocusTargetElement) Key() any             { return e.Name }
func (e FocusTargetElement) Hash() uint64         { return hashString(e.Name) }
func (e FocusTargetElement) Create() Node         { return &focusNode{name: e.Name} }
func (e FocusTargetElement) Update(n Node) {
	n.(*focusNode).name = e.Name
}

type focusNode struct {
	name    string
	focused bool
}

func (n *focusNode) Capabilities() Capability { return CapFocus }
func (n *focusNode) Attach(ctx AttachContext) {}
func (n *focusNode) Detach()                  { n.focused = false }
func (n *focusNode) Reset()                   { n.focused = false }
func (n *focusNode) RequestFocus() bool       { n.focused = true; return true }
func (n *focusNode) HasFocus() bool           { return n.focused }

// Semantics merges a role/label into the owning node's semantics tree.
func Semantics(role, label string) Modifier {
	return FromElement(SemanticsElement{Role: role, Label: label})
}

type SemanticsElement struct{ Role, Label string }

func (e SemanticsElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e SemanticsElement) Key() any             { return nil }
func (e SemanticsElement) Hash() uint64         { return hashString(e.Role + "\x00" + e.Label) }
func (e SemanticsElement) Create() Node {
	return &semanticsNode{role: e.Role, label: e.Label}
}
func (e SemanticsElement) Update(n Node) {
	sn := n.(*semanticsNode)
	sn.role, sn.label = e.Role, e.Label
}

type semanticsNode struct{ role, label string }

func (n *semanticsNode) Capabilities() Capability { return CapSemantics }
func (n *semanticsNode) Attach(ctx AttachContext) {}
func (n *semanticsNode) Detach()                  {}
func (n *semanticsNode) Reset()                   {}
func (n *semanticsNode) ContributeSemantics(cfg *SemanticsConfiguration) {
	cfg.Role = n.role
	cfg.Label = n.label
}

// ParentWeight exposes a per-child layout weight for a parent's layout
// policy to read via chain lookup (spec.md §4.6's parent-data example).
func ParentWeight(weight float64) Modifier {
	return FromElement(ParentWeightElement{Weight: weight})
}

type ParentWeightElement struct{ Weight float64 }

func (e ParentWeightElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e ParentWeightElement) Key() any             { return nil }
func (e ParentWeightElement) Hash() uint64         { return hashFloats(e.Weight) }
func (e ParentWeightElement) Create() Node {
	return &parentWeightNode{weight: e.Weight}
}
func (e ParentWeightElement) Update(n Node) {
	n.(*parentWeightNode).weight = e.Weight
}

type parentWeightNode struct{ weight float64 }

func (n *parentWeightNode) Capabilities() Capability { return CapParentData }
func (n *parentWeightNode) Attach(ctx AttachContext) {}
func (n *parentWeightNode) Detach()                  {}
func (n *parentWeightNode) Reset()                   {}
func (n *parentWeightNode) ParentData() any          { return n.weight }
