// Package modifiernode implements ModifierNodeChain: the reconciled,
// stateful runtime counterpart of a modifier.Modifier tree (spec.md
// §4.6). UpdateFromSlice diffs an incoming element list against the
// chain's existing entries, reusing nodes whose type and key (or, for
// keyless elements, type and hash, then type alone) still match and
// creating/attaching only the rest —
// the same shape as the teacher's ChannelService.reconcile, which
// diffs a freshly loaded id list against its in-memory object store,
// upserting matches and starting/stopping only what actually changed.
package modifiernode

import (
	"reflect"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
)

type entry struct {
	element modifier.Element
	node    modifier.Node
}

// Chain is one UI node's reconciled modifier node chain.
type Chain struct {
	entries    []entry
	aggregated modifier.Capability
	ctx        *invalidationContext
}

// NewChain constructs an empty chain.
func NewChain() *Chain {
	return &Chain{ctx: newInvalidationContext()}
}

type keyBucketKey struct {
	typ reflect.Type
	key any
}

type hashBucketKey struct {
	typ  reflect.Type
	hash uint64
}

// UpdateFromSlice reconciles the chain against elements, per spec.md
// §4.6's four-step algorithm: build a reuse index, match each new
// element (by explicit key first, then by type+hash, then — for a
// keyless element — by type alone, so a changed field such as a
// background color updates the existing node in place), detach+reset
// whatever wasn't reused, and rebuild aggregated capabilities.
func (c *Chain) UpdateFromSlice(elements []modifier.Element) {
	byKey := make(map[keyBucketKey][]int)
	byHash := make(map[hashBucketKey][]int)
	byType := make(map[reflect.Type][]int)
	for i, e := range c.entries {
		if k := e.element.Key(); k != nil {
			bk := keyBucketKey{e.element.TypeID(), k}
			byKey[bk] = append(byKey[bk], i)
		} else {
			bk := hashBucketKey{e.element.TypeID(), e.element.Hash()}
			byHash[bk] = append(byHash[bk], i)
			byType[e.element.TypeID()] = append(byType[e.element.TypeID()], i)
		}
	}

	reused := make([]bool, len(c.entries))
	next := make([]entry, 0, len(elements))

	for newIdx, el := range elements {
		matched := -1
		if k := el.Key(); k != nil {
			matched = pickClosest(byKey[keyBucketKey{el.TypeID(), k}], newIdx, reused)
		}
		if matched == -1 {
			matched = pickClosest(byHash[hashBucketKey{el.TypeID(), el.Hash()}], newIdx, reused)
		}
		if matched == -1 && el.Key() == nil {
			matched = pickClosest(byType[el.TypeID()], newIdx, reused)
		}

		if matched == -1 {
			node := el.Create()
			node.Attach(c.ctx)
			next = append(next, entry{element: el, node: node})
			continue
		}

		reused[matched] = true
		old := c.entries[matched]
		el.Update(old.node)
		next = append(next, entry{element: el, node: old.node})
	}

	for i, e := range c.entries {
		if !reused[i] {
			e.node.Detach()
			e.node.Reset()
		}
	}

	c.entries = next

	var agg modifier.Capability
	for _, e := range c.entries {
		agg |= e.node.Capabilities()
	}
	c.aggregated = agg
}

// pickClosest returns the not-yet-reused index in idxs whose old
// position is nearest newIdx (minimizing reordering churn), per
// spec.md §4.6's tie-break; -1 if every candidate is already reused or
// idxs is empty.
func pickClosest(idxs []int, newIdx int, reused []bool) int {
	best, bestDist := -1, 0
	for _, idx := range idxs {
		if reused[idx] {
			continue
		}
		dist := idx - newIdx
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist {
			best, bestDist = idx, dist
		}
	}
	return best
}

// AggregatedCapabilities is the bitwise OR of every entry's
// capabilities, rebuilt after each UpdateFromSlice.
func (c *Chain) AggregatedCapabilities() modifier.Capability { return c.aggregated }

// Len returns the number of reconciled entries.
func (c *Chain) Len() int { return len(c.entries) }

// NodeAt returns the node at chain position i, for tests and
// diagnostics.
func (c *Chain) NodeAt(i int) modifier.Node { return c.entries[i].node }

// DrainInvalidations returns every invalidation kind requested by a
// node since the last drain, clearing the pending set. The host is
// expected to dispatch only the subsystems named here (spec.md §4.6:
// "draw-only invalidations must not force remeasurement").
func (c *Chain) DrainInvalidations() []modifier.InvalidationKind {
	return c.ctx.drain()
}
