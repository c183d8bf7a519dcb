package snapshotid

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSetGetReflectsLastMutator(t *testing.T) {
	s := Empty
	s = s.Set(5)
	require.True(t, s.Get(5))
	s = s.Clear(5)
	require.False(t, s.Get(5))
	s = s.Set(5).Set(5) // idempotent
	require.True(t, s.Get(5))
}

func TestSetWindowAdvanceAndTailFlush(t *testing.T) {
	s := Empty
	for i := uint64(0); i < 300; i++ {
		s = s.Set(i)
	}
	for i := uint64(0); i < 300; i++ {
		assert.True(t, s.Get(i), "expected %d set", i)
	}
	assert.False(t, s.Get(300))
}

func TestLowestMatchesMinimum(t *testing.T) {
	s := Of(40, 5, 200, 3)
	lo, ok := s.Lowest()
	require.True(t, ok)
	require.EqualValues(t, 3, lo)
}

func TestForEachAscending(t *testing.T) {
	s := Of(90, 1, 500, 2, 130)
	var got []uint64
	s.ForEach(func(id ID) { got = append(got, id) })
	require.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i] < got[j] }))
}

func TestCanonicalEquality(t *testing.T) {
	a := Empty.Set(1).Set(200).Set(5).Clear(200)
	b := Empty.Set(5).Set(1)
	require.True(t, a.Equal(b))
}

// naiveSet is the reference model for the rapid property checks below.
type naiveSet map[ID]struct{}

func (n naiveSet) clone() naiveSet {
	out := make(naiveSet, len(n))
	for k := range n {
		out[k] = struct{}{}
	}
	return out
}

func genID(t *rapid.T, label string) ID {
	return ID(rapid.IntRange(0, 2000).Draw(t, label))
}

func TestRapidSetClearMatchNaiveModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.SliceOfN(rapid.IntRange(0, 1), 0, 200).Draw(t, "ops")
		s := Empty
		model := naiveSet{}
		for i, op := range ops {
			id := genID(t, "id")
			if op == 0 {
				s = s.Set(id)
				model = model.clone()
				model[id] = struct{}{}
			} else {
				s = s.Clear(id)
				model = model.clone()
				delete(model, id)
			}
			_ = i
		}
		for id := ID(0); id < 2001; id++ {
			_, want := model[id]
			if got := s.Get(id); got != want {
				t.Fatalf("id %d: got %v want %v", id, got, want)
			}
		}
	})
}

func TestRapidOrAndNotMatchNaiveSemantics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idsA := rapid.SliceOfN(rapid.IntRange(0, 500), 0, 50).Draw(t, "a")
		idsB := rapid.SliceOfN(rapid.IntRange(0, 500), 0, 50).Draw(t, "b")

		a, b := Empty, Empty
		ma, mb := naiveSet{}, naiveSet{}
		for _, v := range idsA {
			a = a.Set(ID(v))
			ma[ID(v)] = struct{}{}
		}
		for _, v := range idsB {
			b = b.Set(ID(v))
			mb[ID(v)] = struct{}{}
		}

		or := a.Or(b)
		andNot := a.AndNot(b)

		for id := ID(0); id < 501; id++ {
			_, inA := ma[id]
			_, inB := mb[id]
			if got, want := or.Get(id), inA || inB; got != want {
				t.Fatalf("Or id %d: got %v want %v", id, got, want)
			}
			if got, want := andNot.Get(id), inA && !inB; got != want {
				t.Fatalf("AndNot id %d: got %v want %v", id, got, want)
			}
		}
	})
}

func TestRapidCanonicalRepresentation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfN(rapid.IntRange(0, 400), 1, 40).Draw(t, "ids")
		forward := Empty
		for _, v := range ids {
			forward = forward.Set(ID(v))
		}
		reversed := Empty
		for i := len(ids) - 1; i >= 0; i-- {
			reversed = reversed.Set(ID(ids[i]))
		}
		if !forward.Equal(reversed) {
			t.Fatalf("sets built in different orders are not equal")
		}
	})
}
