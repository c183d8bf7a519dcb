// Package modifier implements the persistent Modifier tree of spec.md
// §4.6: Empty as identity, Then combining two modifiers, and
// fold_in/fold_out/any/all traversal, plus the built-in element
// factories (padding, background, clickable, size, ...).
//
// Grounded on the teacher's gin middleware chain (router.Use(a, b, c)
// builds an ordered, composable pipeline of independent handlers) —
// Then plays the same role as chaining two middleware, generalized
// from a flat slice to a persistent binary tree so sharing sub-chains
// between composables is cheap (no copying).
package modifier

type kind int

const (
	kindEmpty kind = iota
	kindSingle
	kindCombined
)

// Modifier is the immutable, persistent chain of modifier elements.
// Empty is its zero value.
type Modifier struct {
	kind    kind
	element Element
	outer   *Modifier
	inner   *Modifier
}

// Empty is the identity modifier: then(Empty, m) == m for any m.
var Empty = Modifier{kind: kindEmpty}

// FromElement wraps a single element as a one-link modifier.
func FromElement(e Element) Modifier {
	return Modifier{kind: kindSingle, element: e}
}

// Then combines m (applied first, "outer") with other (applied
// second, "inner"), per spec.md §4.6: either side being Empty returns
// the other unchanged, so Empty never grows the tree.
func (m Modifier) Then(other Modifier) Modifier {
	if m.kind == kindEmpty {
		return other
	}
	if other.kind == kindEmpty {
		return m
	}
	outer, inner := m, other
	return Modifier{kind: kindCombined, outer: &outer, inner: &inner}
}

// IsEmpty reports whether m carries no elements.
func (m Modifier) IsEmpty() bool { return m.kind == kindEmpty }

// FoldIn visits elements left-to-right (outer before inner at every
// Combined node), threading an accumulator through op. A free function
// because Go methods cannot carry their own type parameter.
func FoldIn[A any](m Modifier, initial A, op func(acc A, e Element) A) A {
	switch m.kind {
	case kindEmpty:
		return initial
	case kindSingle:
		return op(initial, m.element)
	default:
		acc := FoldIn(*m.outer, initial, op)
		return FoldIn(*m.inner, acc, op)
	}
}

// FoldOut visits elements right-to-left (inner before outer at every
// Combined node).
func FoldOut[A any](m Modifier, initial A, op func(e Element, acc A) A) A {
	switch m.kind {
	case kindEmpty:
		return initial
	case kindSingle:
		return op(m.element, initial)
	default:
		acc := FoldOut(*m.inner, initial, op)
		return FoldOut(*m.outer, acc, op)
	}
}

// Any reports whether pred holds for at least one element, short-
// circuiting on the first match.
func (m Modifier) Any(pred func(Element) bool) bool {
	switch m.kind {
	case kindEmpty:
		return false
	case kindSingle:
		return pred(m.element)
	default:
		return m.outer.Any(pred) || m.inner.Any(pred)
	}
}

// All reports whether pred holds for every element, short-circuiting
// on the first miss.
func (m Modifier) All(pred func(Element) bool) bool {
	switch m.kind {
	case kindEmpty:
		return true
	case kindSingle:
		return pred(m.element)
	default:
		return m.outer.All(pred) && m.inner.All(pred)
	}
}

// Elements flattens the persistent tree into the ordered element list
// spec.md §4.6 requires reconciliation to observe. Implementations may
// optimize the walk; only the observable order is a contract.
func (m Modifier) Elements() []Element {
	return FoldIn(m, make([]Element, 0), func(acc []Element, e Element) []Element {
		return append(acc, e)
	})
}
