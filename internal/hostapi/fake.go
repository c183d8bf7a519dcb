package hostapi

import (
	"sync"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
)

// FakeHost is an in-memory implementation of every hostapi interface,
// for tests and cmd/composedemo: a draw scope that records calls
// instead of rasterizing, queued pointer/key events, and a captured
// invalidation log instead of a real dispatch to layout/draw/pointer
// subsystems.
type FakeHost struct {
	mu sync.Mutex

	DrawCalls    []string
	Invalidations []FakeInvalidation

	pointerQueue []modifier.PointerEvent
	keyQueue     []KeyEvent

	surface SurfaceDescriptor
}

// FakeInvalidation is one recorded Invalidate call.
type FakeInvalidation struct {
	NodeID uint64
	Kinds  []modifier.InvalidationKind
}

// NewFakeHost constructs a FakeHost with a default 800x600@1x surface.
func NewFakeHost() *FakeHost {
	return &FakeHost{surface: SurfaceDescriptor{LogicalWidth: 800, LogicalHeight: 600, ScaleFactor: 1}}
}

func (h *FakeHost) Invalidate(nodeID uint64, kinds []modifier.InvalidationKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Invalidations = append(h.Invalidations, FakeInvalidation{NodeID: nodeID, Kinds: kinds})
}

func (h *FakeHost) Surface() SurfaceDescriptor { return h.surface }

// SetSurface updates the fake's surface geometry, simulating a resize.
func (h *FakeHost) SetSurface(s SurfaceDescriptor) { h.surface = s }

// QueuePointerEvent appends ev for a future NextPointerEvent to drain.
func (h *FakeHost) QueuePointerEvent(ev modifier.PointerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pointerQueue = append(h.pointerQueue, ev)
}

func (h *FakeHost) NextPointerEvent() (modifier.PointerEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pointerQueue) == 0 {
		return modifier.PointerEvent{}, false
	}
	ev := h.pointerQueue[0]
	h.pointerQueue = h.pointerQueue[1:]
	return ev, true
}

// QueueKeyEvent appends ev for a future NextKeyEvent to drain.
func (h *FakeHost) QueueKeyEvent(ev KeyEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keyQueue = append(h.keyQueue, ev)
}

func (h *FakeHost) NextKeyEvent() (KeyEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.keyQueue) == 0 {
		return KeyEvent{}, false
	}
	ev := h.keyQueue[0]
	h.keyQueue = h.keyQueue[1:]
	return ev, true
}

func (h *FakeHost) ShapeText(text string, style TextStyle, maxWidth float64) []LineBox {
	return []LineBox{{X: 0, Y: 0, Width: float64(len(text)) * style.FontSize * 0.6, Height: style.FontSize}}
}

// FakeDrawScope records every primitive call instead of rasterizing,
// for tests asserting on draw order/content.
type FakeDrawScope struct {
	mu    sync.Mutex
	Calls []string
}

func NewFakeDrawScope() *FakeDrawScope { return &FakeDrawScope{} }

func (d *FakeDrawScope) record(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, s)
}

func (d *FakeDrawScope) FillRect(x, y, w, h, cornerRadius float64)   { d.record("fill") }
func (d *FakeDrawScope) StrokeRect(x, y, w, h, cornerRadius float64) { d.record("stroke") }
func (d *FakeDrawScope) GlyphRun(x, y float64, glyphs []byte)        { d.record("glyphs") }
func (d *FakeDrawScope) PushClip(x, y, w, h float64)                 { d.record("pushClip") }
func (d *FakeDrawScope) PopClip()                                    { d.record("popClip") }
func (d *FakeDrawScope) PushTransform(a, b, c, d2, e, f float64)     { d.record("pushTransform") }
func (d *FakeDrawScope) PopTransform()                               { d.record("popTransform") }
