// Package state implements SnapshotMutableState[T] — the observable
// state cell — and the standard mutation policies over it.
package state

// Policy is a MutationPolicy<T>: the per-cell rule for value equality
// and optional three-way merge, consulted by the snapshot system's
// apply step (spec.md §4.3).
type Policy[T any] struct {
	// Equivalent reports whether a and b should be treated as the same
	// value for conflict detection purposes.
	Equivalent func(a, b T) bool

	// Merge attempts a three-way merge of a conflicting write. previous
	// is the value visible when the snapshot was taken, current is the
	// value now visible to the parent, applied is the child's write.
	// A nil Merge means "no merge strategy" — conflicts always fail.
	Merge func(previous, current, applied T) (merged T, ok bool)
}

// Structural returns a policy that treats values as equivalent when ==
// holds, with no merge strategy. This is the default for comparable
// value types (ints, strings, small structs of comparable fields).
func Structural[T comparable]() Policy[T] {
	return Policy[T]{
		Equivalent: func(a, b T) bool { return a == b },
	}
}

// Referential returns a policy that treats values as equivalent only
// when they are identical (pointer/interface identity), with no merge
// strategy. Intended for pointer-typed or interface-typed state.
func Referential[T any]() Policy[T] {
	return Policy[T]{
		Equivalent: func(a, b T) bool {
			return any(a) == any(b)
		},
	}
}

// NeverEqual returns a policy under which no two values are ever
// equivalent, forcing every concurrent write to go through merge (or
// fail). Useful for state whose identity is meaningful even when its
// fields coincide.
func NeverEqual[T any]() Policy[T] {
	return Policy[T]{
		Equivalent: func(a, b T) bool { return false },
	}
}

// SetUnion returns a policy over map[K]struct{}-shaped additive sets:
// values are equivalent when they contain the same elements, and
// conflicting writes merge by unioning the current and applied sets;
// the previous set is not consulted (spec.md §8 scenario S4).
func SetUnion[K comparable]() Policy[map[K]struct{}] {
	return Policy[map[K]struct{}]{
		Equivalent: func(a, b map[K]struct{}) bool {
			if len(a) != len(b) {
				return false
			}
			for k := range a {
				if _, ok := b[k]; !ok {
					return false
				}
			}
			return true
		},
		Merge: func(previous, current, applied map[K]struct{}) (map[K]struct{}, bool) {
			merged := make(map[K]struct{}, len(current)+len(applied))
			for k := range current {
				merged[k] = struct{}{}
			}
			for k := range applied {
				merged[k] = struct{}{}
			}
			return merged, true
		},
	}
}
