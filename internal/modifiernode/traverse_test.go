package modifiernode_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifiernode"
)

func TestMeasureComposesNestedLayoutNodesInnermostFirst(t *testing.T) {
	chain := modifiernode.NewChain()
	chain.UpdateFromSlice([]modifier.Element{
		modifier.PaddingElement{All: 4},
		modifier.SizeElement{Width: 10, Height: 10},
	})

	leaf := constLeaf{modifier.Size{Width: 1, Height: 1}}
	p := chain.Measure(leaf)

	require.Equal(t, modifier.Size{Width: 18, Height: 18}, p.Size)
}

type constLeaf struct{ size modifier.Size }

func (c constLeaf) Measure(modifier.Constraints) modifier.Size { return c.size }

// testElement/testNode are a minimal pointer-capable element/node pair for
// exercising DispatchPointer's pass ordering independent of the built-in
// Clickable's own semantics.
type testElement struct {
	name      string
	log       *[]string
	consumeOn modifier.PointerPass
}

func (e testElement) TypeID() reflect.Type { return reflect.TypeOf(e) }
func (e testElement) Key() any             { return e.name }
func (e testElement) Hash() uint64         { return 0 }
func (e testElement) Create() modifier.Node {
	return &testNode{name: e.name, log: e.log, consumeOn: e.consumeOn}
}
func (e testElement) Update(n modifier.Node) {
	tn := n.(*testNode)
	tn.log, tn.consumeOn = e.log, e.consumeOn
}

type testNode struct {
	name      string
	log       *[]string
	consumeOn modifier.PointerPass
}

func (n *testNode) Capabilities() modifier.Capability { return modifier.CapPointerInput }
func (n *testNode) Attach(modifier.AttachContext)     {}
func (n *testNode) Detach()                           {}
func (n *testNode) Reset()                            {}
func (n *testNode) HandlePointer(pass modifier.PointerPass, ev modifier.PointerEvent) bool {
	label := map[modifier.PointerPass]string{
		modifier.PointerPassInitial: "initial",
		modifier.PointerPassMain:    "main",
		modifier.PointerPassFinal:   "final",
	}[pass]
	*n.log = append(*n.log, label+":"+n.name)
	return pass == n.consumeOn
}

func TestDispatchPointerRunsThreePassesAndShortCircuitsOnConsumption(t *testing.T) {
	var log []string
	chain := modifiernode.NewChain()

	outer := testElement{name: "outer", log: &log, consumeOn: modifier.PointerPassMain}
	inner := testElement{name: "inner", log: &log, consumeOn: -1}

	chain.UpdateFromSlice([]modifier.Element{outer, inner})

	consumed := chain.DispatchPointer(modifier.PointerEvent{Phase: modifier.PointerUp})
	require.True(t, consumed)

	require.Equal(t, []string{
		"initial:outer", "initial:inner",
		"main:inner", "main:outer",
	}, log, "main pass stops at outer once outer consumes, after running inner first (inner-to-outer order)")
}

func TestDispatchPointerReturnsFalseWhenNoHandlerConsumes(t *testing.T) {
	var log []string
	chain := modifiernode.NewChain()
	chain.UpdateFromSlice([]modifier.Element{
		testElement{name: "a", log: &log, consumeOn: -1},
		testElement{name: "b", log: &log, consumeOn: -1},
	})

	consumed := chain.DispatchPointer(modifier.PointerEvent{Phase: modifier.PointerUp})
	require.False(t, consumed)
	require.Len(t, log, 6)
}
