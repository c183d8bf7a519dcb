package modifier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
)

func TestThenWithEmptyReturnsOtherSide(t *testing.T) {
	m := modifier.Padding(8)
	require.Equal(t, 1, len(m.Then(modifier.Empty).Elements()))
	require.Equal(t, 1, len(modifier.Empty.Then(m).Elements()))
}

func TestThenOrdersElementsLeftToRight(t *testing.T) {
	m := modifier.Padding(8).Then(modifier.Background(0xFF0000FF)).Then(modifier.FixedSize(10, 10))

	var kinds []string
	for _, e := range m.Elements() {
		switch e.(type) {
		case modifier.PaddingElement:
			kinds = append(kinds, "padding")
		case modifier.BackgroundElement:
			kinds = append(kinds, "background")
		case modifier.SizeElement:
			kinds = append(kinds, "size")
		}
	}
	require.Equal(t, []string{"padding", "background", "size"}, kinds)
}

func TestFoldOutVisitsRightToLeft(t *testing.T) {
	m := modifier.Padding(1).Then(modifier.Padding(2)).Then(modifier.Padding(3))

	var order []float64
	modifier.FoldOut(m, struct{}{}, func(e modifier.Element, acc struct{}) struct{} {
		order = append(order, e.(modifier.PaddingElement).All)
		return acc
	})
	require.Equal(t, []float64{3, 2, 1}, order)
}

func TestAnyAllShortCircuit(t *testing.T) {
	m := modifier.Padding(8).Then(modifier.Clickable(nil, func() {}))

	require.True(t, m.Any(func(e modifier.Element) bool {
		_, ok := e.(modifier.ClickableElement)
		return ok
	}))
	require.False(t, m.All(func(e modifier.Element) bool {
		_, ok := e.(modifier.ClickableElement)
		return ok
	}))
}

type recordingAttachContext struct{ kinds []modifier.InvalidationKind }

func (c *recordingAttachContext) Invalidate(kind modifier.InvalidationKind) {
	c.kinds = append(c.kinds, kind)
}

func TestLayoutElementsInvalidateLayoutOnChange(t *testing.T) {
	cases := []struct {
		name   string
		create modifier.Element
		update modifier.Element
	}{
		{"padding", modifier.PaddingElement{All: 8}, modifier.PaddingElement{All: 16}},
		{"size", modifier.SizeElement{Width: 10, Height: 10}, modifier.SizeElement{Width: 20, Height: 10}},
		{"offset", modifier.OffsetElement{DX: 1, DY: 1}, modifier.OffsetElement{DX: 2, DY: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := &recordingAttachContext{}
			n := tc.create.Create()
			n.Attach(ctx)

			tc.create.Update(n)
			require.Empty(t, ctx.kinds, "no change yet, no invalidation")

			tc.update.Update(n)
			require.Equal(t, []modifier.InvalidationKind{modifier.InvalidateLayout}, ctx.kinds)
		})
	}
}

func TestBackgroundElementInvalidatesDrawOnChange(t *testing.T) {
	ctx := &recordingAttachContext{}
	n := modifier.BackgroundElement{Color: 0xFF0000FF}.Create()
	n.Attach(ctx)

	modifier.BackgroundElement{Color: 0xFF0000FF}.Update(n)
	require.Empty(t, ctx.kinds, "no change yet, no invalidation")

	modifier.BackgroundElement{Color: 0x00FF00FF}.Update(n)
	require.Equal(t, []modifier.InvalidationKind{modifier.InvalidateDraw}, ctx.kinds)
}
