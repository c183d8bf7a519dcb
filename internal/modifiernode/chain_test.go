package modifiernode_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifiernode"
)

// countingElement is a minimal modifier.Element whose Create/Update/Detach
// calls are counted by the test, independent of any built-in node's own
// update-skipping logic, to check the reconciler's own behavior in
// isolation (spec.md §8 property 7).
type countingElement struct {
	kind    string
	key     any
	payload int
	counts  *callCounts
}

type callCounts struct {
	creates, updates, detaches int
}

func (e countingElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e countingElement) Key() any             { return e.key }
func (e countingElement) Hash() uint64         { return uint64(len(e.kind)) }
func (e countingElement) Create() modifier.Node {
	e.counts.creates++
	return &countingNode{payload: e.payload, counts: e.counts, caps: modifier.CapLayout}
}
func (e countingElement) Update(n modifier.Node) {
	e.counts.updates++
	n.(*countingNode).payload = e.payload
}

type countingNode struct {
	payload int
	counts  *callCounts
	caps    modifier.Capability
}

func (n *countingNode) Capabilities() modifier.Capability { return n.caps }
func (n *countingNode) Attach(ctx modifier.AttachContext) {}
func (n *countingNode) Detach()                           { n.counts.detaches++ }
func (n *countingNode) Reset()                             {}

func TestUpdateFromSliceReusesUnchangedListWithZeroCreatesOrDetaches(t *testing.T) {
	counts := &callCounts{}
	chain := modifiernode.NewChain()

	elems := []modifier.Element{
		countingElement{kind: "a", key: "k1", payload: 1, counts: counts},
		countingElement{kind: "a", key: "k2", payload: 2, counts: counts},
		countingElement{kind: "a", key: "k3", payload: 3, counts: counts},
	}
	chain.UpdateFromSlice(elems)
	require.Equal(t, 3, counts.creates)
	require.Equal(t, 0, counts.detaches)

	counts.creates, counts.updates, counts.detaches = 0, 0, 0
	chain.UpdateFromSlice(elems)

	require.Equal(t, 0, counts.creates, "unchanged list must not create")
	require.Equal(t, 0, counts.detaches, "unchanged list must not detach")
	require.Equal(t, 3, counts.updates)
}

func TestUpdateFromSliceReordersByKeyWithoutRecreating(t *testing.T) {
	counts := &callCounts{}
	chain := modifiernode.NewChain()

	chain.UpdateFromSlice([]modifier.Element{
		countingElement{kind: "a", key: "k1", payload: 1, counts: counts},
		countingElement{kind: "a", key: "k2", payload: 2, counts: counts},
	})
	n1 := chain.NodeAt(0)
	n2 := chain.NodeAt(1)

	counts.creates, counts.detaches = 0, 0
	chain.UpdateFromSlice([]modifier.Element{
		countingElement{kind: "a", key: "k2", payload: 20, counts: counts},
		countingElement{kind: "a", key: "k1", payload: 10, counts: counts},
	})

	require.Equal(t, 0, counts.creates)
	require.Equal(t, 0, counts.detaches)
	require.Same(t, n2, chain.NodeAt(0))
	require.Same(t, n1, chain.NodeAt(1))
}

func TestUpdateFromSliceDetachesDroppedEntries(t *testing.T) {
	counts := &callCounts{}
	chain := modifiernode.NewChain()

	chain.UpdateFromSlice([]modifier.Element{
		countingElement{kind: "a", key: "k1", payload: 1, counts: counts},
		countingElement{kind: "a", key: "k2", payload: 2, counts: counts},
	})

	counts.creates, counts.detaches = 0, 0
	chain.UpdateFromSlice([]modifier.Element{
		countingElement{kind: "a", key: "k1", payload: 1, counts: counts},
	})

	require.Equal(t, 0, counts.creates)
	require.Equal(t, 1, counts.detaches)
	require.Equal(t, 1, chain.Len())
}

func TestAggregatedCapabilitiesIsBitwiseOrOfEntries(t *testing.T) {
	chain := modifiernode.NewChain()
	chain.UpdateFromSlice([]modifier.Element{
		modifier.PaddingElement{All: 4},
		modifier.BackgroundElement{Color: 0xFF00FF00},
		modifier.ClickableElement{Handler: func() {}},
	})

	got := chain.AggregatedCapabilities()
	require.True(t, got.Has(modifier.CapLayout))
	require.True(t, got.Has(modifier.CapDraw))
	require.True(t, got.Has(modifier.CapPointerInput))
	require.False(t, got.Has(modifier.CapFocus))
}

// TestOnlyBackgroundUpdateProducesDrawOnlyInvalidation is spec.md §8
// scenario S5: a padding+background+clickable chain is rebuilt with only
// the background color changed. Padding and clickable must be reused
// without their Update touching anything observable, and the only drained
// invalidation must be Draw.
func TestOnlyBackgroundUpdateProducesDrawOnlyInvalidation(t *testing.T) {
	chain := modifiernode.NewChain()
	handler := func() {}

	build := func(color uint32) []modifier.Element {
		return []modifier.Element{
			modifier.PaddingElement{All: 8},
			modifier.BackgroundElement{Color: color},
			modifier.ClickableElement{Handler: handler},
		}
	}

	chain.UpdateFromSlice(build(0xFF0000FF))
	padding := chain.NodeAt(0)
	clickable := chain.NodeAt(2)
	chain.DrainInvalidations()

	chain.UpdateFromSlice(build(0x00FF00FF))

	require.Same(t, padding, chain.NodeAt(0), "padding node must be reused unchanged")
	require.Same(t, clickable, chain.NodeAt(2), "clickable node must be reused unchanged")

	kinds := chain.DrainInvalidations()
	require.Equal(t, []modifier.InvalidationKind{modifier.InvalidateDraw}, kinds)
}

func TestDrainInvalidationsClearsPendingSet(t *testing.T) {
	chain := modifiernode.NewChain()
	chain.UpdateFromSlice([]modifier.Element{modifier.BackgroundElement{Color: 1}})
	chain.UpdateFromSlice([]modifier.Element{modifier.BackgroundElement{Color: 2}})

	first := chain.DrainInvalidations()
	require.NotEmpty(t, first)

	second := chain.DrainInvalidations()
	require.Empty(t, second)
}
