// Package hostapi declares the host/backend surface spec.md §6 names:
// the interfaces a host implements and the core consumes (draw scope,
// pointer/keyboard event sources, text shaping, surface geometry, and
// the invalidation sink), plus an in-memory fake of each for tests and
// the demo host to exercise the core without a real windowing/graphics
// backend.
//
// Grounded on the teacher's own interfaces-at-the-seam style (services
// depend on small interfaces like systemdctl.Client, never concrete
// backends directly), generalized from one infrastructure seam to the
// handful spec.md §6 lists.
package hostapi

import "github.com/samoylenkodmitry/compose-runtime/internal/modifier"

// InvalidationSink is the host-facing drain target for a reconciled
// modifier node chain's accumulated invalidations (spec.md §6: "An
// invalidation sink: accepts { node_id, kinds: bitset(...) }").
type InvalidationSink interface {
	Invalidate(nodeID uint64, kinds []modifier.InvalidationKind)
}

// KeyPhase is a keyboard event's phase.
type KeyPhase int

const (
	KeyDown KeyPhase = iota
	KeyUp
)

// KeyEvent is a host-delivered keyboard/focus event.
type KeyEvent struct {
	Key       string
	Modifiers uint8
	Phase     KeyPhase
}

// KeyboardFocusEventSource delivers keyboard/focus events to the core's
// focus manager.
type KeyboardFocusEventSource interface {
	NextKeyEvent() (KeyEvent, bool)
}

// PointerEventSource delivers pointer samples to the core's pointer
// dispatch.
type PointerEventSource interface {
	NextPointerEvent() (modifier.PointerEvent, bool)
}

// LineBox is one shaped line's bounds and glyph run, as returned by a
// TextShapingService call.
type LineBox struct {
	X, Y, Width, Height float64
	Glyphs              []byte
}

// TextShapingService shapes a text fragment against style and an
// available width into line boxes and glyph positions, for the core's
// text modifier to consume.
type TextShapingService interface {
	ShapeText(text string, style TextStyle, maxWidth float64) []LineBox
}

// TextStyle is the minimal style surface the demo host's shaper needs;
// a real host will carry far more (font family, weight, spacing).
type TextStyle struct {
	FontSize float64
	Color    uint32
}

// SurfaceDescriptor is the host's current rendering surface geometry,
// recomputed on resize.
type SurfaceDescriptor struct {
	LogicalWidth  float64
	LogicalHeight float64
	ScaleFactor   float64
}

// SurfaceSource exposes the current surface descriptor. It offers no
// resize notification; callers read Surface() again to see a change.
type SurfaceSource interface {
	Surface() SurfaceDescriptor
}
