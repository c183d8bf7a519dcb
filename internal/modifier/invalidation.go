package modifier

// InvalidationKind names a subsystem a node can ask to be re-run over,
// per spec.md §4.6's targeted invalidation.
type InvalidationKind int

const (
	InvalidateLayout InvalidationKind = iota
	InvalidateDraw
	InvalidatePointerInput
	InvalidateSemantics
	InvalidateFocus
)

// AttachContext is handed to Node.Attach (and, indirectly, Update via
// the node itself if it retains its context) so a node can request
// invalidations without the modifier package depending on the host or
// the scheduler. internal/modifiernode implements this.
type AttachContext interface {
	Invalidate(kind InvalidationKind)
}
