package snapshotid

import "sort"

// Set is an immutable bitset over snapshot ids.
//
// Representation: a 128-id sliding window (two uint64 words,
// lowerWord covering [lowerBound, lowerBound+64) and upperWord covering
// [lowerBound+64, lowerBound+128)) plus a sorted tail slice holding ids
// strictly below lowerBound. Membership and mutation of an id inside the
// window is O(1); mutation below the window is O(log N) via binary
// search into the tail. Every mutator (Set, Clear, Or, AndNot) returns a
// new Set and never modifies the receiver — the tail slice is only
// reallocated when its contents actually change, so unrelated Sets
// sharing a tail share the same backing array.
//
// Equal compares by membership, not by internal layout: two Sets built
// by different histories of operations but holding the same ids always
// compare equal, per spec.md §8 property 1(e).
type Set struct {
	lowerBound uint64
	lowerWord  uint64
	upperWord  uint64
	tail       []uint64 // sorted ascending, every element < lowerBound
}

// Empty is the Set containing no ids.
var Empty = Set{}

// Get reports whether id is a member of the set.
func (s Set) Get(id ID) bool {
	if id >= s.lowerBound && id < s.lowerBound+128 {
		off := id - s.lowerBound
		if off < 64 {
			return s.lowerWord&(uint64(1)<<off) != 0
		}
		return s.upperWord&(uint64(1)<<(off-64)) != 0
	}
	if id < s.lowerBound {
		i := s.searchTail(id)
		return i < len(s.tail) && s.tail[i] == id
	}
	return false
}

func (s Set) searchTail(id ID) int {
	return sort.Search(len(s.tail), func(i int) bool { return s.tail[i] >= id })
}

// Set returns a new Set with id added.
func (s Set) Set(id ID) Set {
	if id >= s.lowerBound && id < s.lowerBound+128 {
		off := id - s.lowerBound
		out := s
		if off < 64 {
			out.lowerWord |= uint64(1) << off
		} else {
			out.upperWord |= uint64(1) << (off - 64)
		}
		return out
	}
	if id < s.lowerBound {
		i := s.searchTail(id)
		if i < len(s.tail) && s.tail[i] == id {
			return s
		}
		tail := make([]uint64, len(s.tail)+1)
		copy(tail, s.tail[:i])
		tail[i] = id
		copy(tail[i+1:], s.tail[i:])
		out := s
		out.tail = tail
		return out
	}
	return s.advanceWindowTo(id)
}

// advanceWindowTo slides the window so id becomes its top member,
// flushing any window ids that fall out the bottom into the tail.
func (s Set) advanceWindowTo(id ID) Set {
	newLowerBound := id - 127

	var flushed []uint64
	if newLowerBound > s.lowerBound {
		// Everything in the old window below newLowerBound must move to tail.
		s.forEachWindowID(func(wid ID) {
			if wid < newLowerBound {
				flushed = append(flushed, wid)
			}
		})
	}

	tail := make([]uint64, 0, len(s.tail)+len(flushed))
	tail = append(tail, s.tail...)
	tail = append(tail, flushed...)

	out := Set{lowerBound: newLowerBound, tail: tail}
	// Carry over surviving window bits.
	s.forEachWindowID(func(wid ID) {
		if wid >= newLowerBound && wid < newLowerBound+128 {
			out = out.setWindowBit(wid)
		}
	})
	out = out.setWindowBit(id)
	return out
}

func (s Set) setWindowBit(id ID) Set {
	off := id - s.lowerBound
	out := s
	if off < 64 {
		out.lowerWord |= uint64(1) << off
	} else {
		out.upperWord |= uint64(1) << (off - 64)
	}
	return out
}

func (s Set) forEachWindowID(f func(ID)) {
	for i := 0; i < 64; i++ {
		if s.lowerWord&(uint64(1)<<i) != 0 {
			f(s.lowerBound + uint64(i))
		}
	}
	for i := 0; i < 64; i++ {
		if s.upperWord&(uint64(1)<<i) != 0 {
			f(s.lowerBound + 64 + uint64(i))
		}
	}
}

// Clear returns a new Set with id removed.
func (s Set) Clear(id ID) Set {
	if id >= s.lowerBound && id < s.lowerBound+128 {
		off := id - s.lowerBound
		out := s
		if off < 64 {
			out.lowerWord &^= uint64(1) << off
		} else {
			out.upperWord &^= uint64(1) << (off - 64)
		}
		return out
	}
	if id < s.lowerBound {
		i := s.searchTail(id)
		if i >= len(s.tail) || s.tail[i] != id {
			return s
		}
		tail := make([]uint64, len(s.tail)-1)
		copy(tail, s.tail[:i])
		copy(tail[i:], s.tail[i+1:])
		out := s
		out.tail = tail
		return out
	}
	return s
}

// Or returns the union of s and other.
func (s Set) Or(other Set) Set {
	result := s
	other.ForEach(func(id ID) {
		result = result.Set(id)
	})
	return result
}

// AndNot returns s with every member of other removed.
func (s Set) AndNot(other Set) Set {
	result := s
	other.ForEach(func(id ID) {
		result = result.Clear(id)
	})
	return result
}

// Lowest returns the smallest member of the set, if any.
func (s Set) Lowest() (ID, bool) {
	if len(s.tail) > 0 {
		return s.tail[0], true
	}
	var lowest ID
	found := false
	s.forEachWindowID(func(id ID) {
		if !found || id < lowest {
			lowest = id
			found = true
		}
	})
	return lowest, found
}

// ForEach visits every member id in ascending order.
func (s Set) ForEach(f func(ID)) {
	for _, id := range s.tail {
		f(id)
	}
	s.forEachWindowID(f)
}

// Equal reports whether s and other contain exactly the same ids,
// independent of internal window placement.
func (s Set) Equal(other Set) bool {
	a := s.members()
	b := other.members()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s Set) members() []uint64 {
	out := make([]uint64, 0, len(s.tail)+8)
	s.ForEach(func(id ID) { out = append(out, id) })
	return out
}

// Of builds a Set containing exactly the given ids.
func Of(ids ...ID) Set {
	out := Empty
	for _, id := range ids {
		out = out.Set(id)
	}
	return out
}
