// Package composer implements spec.md §4.5's composition context: the
// object a composable function is handed on entry, wrapping start/end
// group bracketing, remember/remember_state, state reads, and scope
// identity.
//
// Grounded on the teacher's request-scoped handler pattern (every
// gin.HandlerFunc receives one *gin.Context threading config, logger
// and request state through a call) generalized to a longer-lived,
// reused-across-passes context rather than a per-request one; the
// underlying bracketing itself is slottable.Table's Start/End.
package composer

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/samoylenkodmitry/compose-runtime/internal/coreerr"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
	"github.com/samoylenkodmitry/compose-runtime/internal/observation"
	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
	"github.com/samoylenkodmitry/compose-runtime/internal/slottable"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"
)

var scopeIDs atomic.Uint64

func nextScopeID() observation.ScopeID {
	return observation.ScopeID(scopeIDs.Add(1))
}

// Composer is the composition context threaded through composable
// calls. It owns the slot table for one composition tree and the
// ambient snapshot reads/writes go through; the scheduler swaps the
// snapshot in before each frame's recomposition pass.
type Composer struct {
	cfg   runtime.Config
	log   *zap.Logger
	table *slottable.Table
	obs   *observation.Registry

	snap       state.Snapshot
	scopeStack []observation.ScopeID
	onWrite    func(objectID uint64)

	scopeKeys    map[observation.ScopeID]uint64
	scopeAnchors map[observation.ScopeID]slottable.AnchorID
	scopeBodies  map[observation.ScopeID]func()

	nodeModifiers map[uint64]modifier.Modifier
	touched       []uint64
}

// New constructs a composer over a fresh slot table.
func New(cfg runtime.Config, log *zap.Logger, obs *observation.Registry) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{
		cfg:           cfg,
		log:           log.Named("composer"),
		table:         slottable.NewTable(cfg, log),
		obs:           obs,
		scopeKeys:     make(map[observation.ScopeID]uint64),
		scopeAnchors:  make(map[observation.ScopeID]slottable.AnchorID),
		scopeBodies:   make(map[observation.ScopeID]func()),
		nodeModifiers: make(map[uint64]modifier.Modifier),
	}
}

// Table exposes the underlying slot table, for the scheduler to seek
// anchors and for modifier-chain/UI-node code to call UseNodeSlot.
func (c *Composer) Table() *slottable.Table { return c.table }

// SetSnapshot installs the ambient snapshot state reads/writes go
// through for the remainder of this recomposition pass. Called by the
// scheduler once per frame before composing any scope.
func (c *Composer) SetSnapshot(snap state.Snapshot) { c.snap = snap }

// OnWrite registers the hook invoked whenever a state cell is written
// while this composer's snapshot is the ambient one. No hook is
// registered by default; the scheduler collects its write set through
// its own write observer instead.
func (c *Composer) OnWrite(f func(objectID uint64)) { c.onWrite = f }

// ReadObserver is installed as the ambient snapshot's read observer
// (see snapshot.Observer); it records that the composer's currently
// open scope read obj.
func (c *Composer) ReadObserver(obj state.Object) {
	scope := c.CurrentScope()
	if scope == 0 {
		return
	}
	c.obs.RecordRead(scope, obj.ObjectID())
}

// WriteObserver is installed as the ambient snapshot's write observer;
// it forwards the written object's id to the hook registered with
// OnWrite (if any), regardless of whether the write happened inside or
// outside composition.
func (c *Composer) WriteObserver(obj state.Object) {
	if c.onWrite != nil {
		c.onWrite(obj.ObjectID())
	}
}

// CurrentScope returns the scope of the innermost open group, or 0 if
// none is open.
func (c *Composer) CurrentScope() observation.ScopeID {
	if len(c.scopeStack) == 0 {
		return 0
	}
	return c.scopeStack[len(c.scopeStack)-1]
}

// Start begins (or re-enters) the composable call at key, assigning it
// a ScopeId on first composition (per spec.md §4.5) and reusing the
// one already stored in the group slot on recomposition. Returns the
// scope so the caller (typically scheduler bookkeeping, not the
// composable itself) can resume recomposition precisely at it later.
func (c *Composer) Start(key uint64) observation.ScopeID {
	c.table.Start(key)

	raw := c.table.CurrentGroupScope()
	var scope observation.ScopeID
	if raw == slottable.NoScope {
		scope = nextScopeID()
		c.table.SetCurrentGroupScope(uint64(scope))
	} else {
		scope = observation.ScopeID(raw)
	}
	c.obs.BeginScope(scope)
	c.scopeStack = append(c.scopeStack, scope)
	return scope
}

// End closes the innermost open composable call.
func (c *Composer) End() {
	if len(c.scopeStack) == 0 {
		panic(&coreerr.SlotTableInvariantViolation{Msg: "composer End() without matching Start()"})
	}
	c.scopeStack = c.scopeStack[:len(c.scopeStack)-1]
	c.table.End()
}

// Remember implements `remember { init }`: a value whose identity
// survives recomposition, initialized only the first time this call
// site is composed; a value whose slot round-trips a gap is restored,
// not reinitialized.
//
// A free function, not a method, for the same reason
// slottable.UseValueSlot is one: Go forbids a method from carrying its
// own type parameter independent of the receiver's.
func Remember[T any](c *Composer, init func() T) *T {
	return slottable.UseValueSlot(c.table, init)
}

// rememberedKeyed is the backing storage for RememberKeyed: the key a
// keyed remember was last computed against, alongside the value.
type rememberedKeyed[K comparable, T any] struct {
	key   K
	value T
}

// RememberKeyed implements Jetpack Compose's keyed `remember(key) {
// init }`: init reruns only when key changes from the last composition
// that visited this call site, unlike the unconditional Remember,
// which never reruns after its first call. This is what lets a
// composable recompute a derived remembered value (spec.md §8
// scenario S1's decimal-string label) when the state it depends on
// changes, while still being a `remember`, not a fresh computation on
// every recomposition.
func RememberKeyed[K comparable, T any](c *Composer, key K, init func() T) *T {
	box := slottable.UseValueSlot(c.table, func() *rememberedKeyed[K, T] {
		return &rememberedKeyed[K, T]{key: key, value: init()}
	})
	if (*box).key != key {
		(*box).key = key
		(*box).value = init()
	}
	return &(*box).value
}

// RememberState implements `remember_state(initial)`: a remembered
// SnapshotMutableState<T>, created once with policy and thereafter
// returning the same cell across recompositions. The initial record is
// written by id 0 (the initial global state), so it is readable from
// every snapshot, including the parent the ambient snapshot applies
// into.
func RememberState[T any](c *Composer, initial T, policy state.Policy[T]) *state.MutableState[T] {
	cellPtr := slottable.UseValueSlot(c.table, func() *state.MutableState[T] {
		return state.New(0, initial, policy)
	})
	return *cellPtr
}

// ReadState implements `read_state`: reads cell as visible to the
// composer's ambient snapshot, registering the read with the current
// scope.
func ReadState[T any](c *Composer, cell *state.MutableState[T]) T {
	return cell.Read(c.snap)
}

// WriteState writes value to cell through the composer's ambient
// snapshot. Not one of spec.md §6's named Composer API entries (writes
// there go through SnapshotMutableState::write directly against a
// snapshot handle), but composables only ever hold the composer, never
// a raw snapshot, so this is the symmetric counterpart ReadState needs
// to actually be useful from inside a composable body.
func WriteState[T any](c *Composer, cell *state.MutableState[T], value T) {
	cell.Write(c.snap, value)
}

// UseNodeSlot implements `use_node_slot`, binding a UI node id to the
// cursor and recording it as touched for this composition pass, so the
// scheduler knows which nodes need their modifier chain reconciled
// once composition finishes.
func (c *Composer) UseNodeSlot(nodeID uint64) {
	c.table.UseNodeSlot(nodeID)
	c.touched = append(c.touched, nodeID)
}

// SetNodeModifier records the Modifier a composable built for nodeID
// this pass, for the scheduler to diff against the node's existing
// ModifierNodeChain after composition.
func (c *Composer) SetNodeModifier(nodeID uint64, m modifier.Modifier) {
	c.nodeModifiers[nodeID] = m
}

// NodeModifier returns the Modifier most recently recorded for nodeID.
func (c *Composer) NodeModifier(nodeID uint64) (modifier.Modifier, bool) {
	m, ok := c.nodeModifiers[nodeID]
	return m, ok
}

// TouchedNodes returns every node id touched since the last
// ResetTouched, in the order UseNodeSlot saw them.
func (c *Composer) TouchedNodes() []uint64 { return c.touched }

// ResetTouched clears the touched-node list; the scheduler calls this
// at the start of each frame.
func (c *Composer) ResetTouched() { c.touched = nil }

// Compose begins a composable call at key, remembering body as the
// directly re-enterable recomposition unit for its scope (spec.md
// §4.7 step 2: "begin recomposition there... execute the composable
// attached to that scope"), runs body between Start and End, and
// returns the scope.
//
// Unlike a raw Start/End pair, Compose is what lets the scheduler
// later call RecomposeScope and rerun exactly this subtree without
// replaying its ancestors or siblings.
func (c *Composer) Compose(key uint64, body func()) observation.ScopeID {
	scope := c.Start(key)
	c.scopeKeys[scope] = key
	c.scopeAnchors[scope] = c.table.CurrentGroupAnchor()
	c.scopeBodies[scope] = body
	body()
	c.End()
	return scope
}

// RecomposeScope reenters scope directly at its slot-table anchor and
// reruns the composable body Compose last registered for it, without
// visiting any ancestor or sibling scope. Returns false if the scope's
// anchor no longer resolves (its group was dropped by a structural
// change since it was last composed) — the caller should discard it
// from the dirty queue rather than retry.
func (c *Composer) RecomposeScope(scope observation.ScopeID) bool {
	anchor, ok := c.scopeAnchors[scope]
	if !ok {
		return false
	}
	if !c.table.SeekToAnchor(anchor) {
		delete(c.scopeAnchors, scope)
		delete(c.scopeKeys, scope)
		delete(c.scopeBodies, scope)
		return false
	}
	body := c.scopeBodies[scope]
	c.Start(c.scopeKeys[scope])
	if body != nil {
		body()
	}
	c.End()
	return true
}
