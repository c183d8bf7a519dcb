package modifiernode

import "github.com/samoylenkodmitry/compose-runtime/internal/modifier"

// ForEachMatching implements spec.md §4.6's capability-filtered
// traversal: it returns immediately, visiting nothing, if mask shares
// no bit with the chain's aggregated capabilities; otherwise it
// iterates in chain order, calling f only on entries whose own
// capabilities intersect mask.
func (c *Chain) ForEachMatching(mask modifier.Capability, f func(modifier.Node)) {
	if c.aggregated&mask == 0 {
		return
	}
	for _, e := range c.entries {
		if e.node.Capabilities()&mask != 0 {
			f(e.node)
		}
	}
}

// Measure composes the chain's layout nodes in chain order, each
// wrapping the next as its child measurable, terminating at leaf.
func (c *Chain) Measure(leaf modifier.Measurable) modifier.Placement {
	chained := leaf
	var placements []modifier.Measurer
	c.ForEachMatching(modifier.CapLayout, func(n modifier.Node) {
		if m, ok := n.(modifier.Measurer); ok {
			placements = append(placements, m)
		}
	})
	var last modifier.Placement
	for i := len(placements) - 1; i >= 0; i-- {
		last = placements[i].Measure(chained)
		chained = constMeasurable{last.Size}
	}
	return last
}

// constMeasurable adapts an already-computed Size back into a
// Measurable, for composing layout nodes outer-to-inner without
// allocating a full measurement-proxy type per spec.md §4.6's
// proxy note (this package's nodes don't alias mutable state across
// nested measurement passes, so a plain value capture suffices).
type constMeasurable struct{ size modifier.Size }

func (c constMeasurable) Measure(modifier.Constraints) modifier.Size { return c.size }

// Draw invokes every draw node in chain order over scope.
func (c *Chain) Draw(scope modifier.DrawScope) {
	c.ForEachMatching(modifier.CapDraw, func(n modifier.Node) {
		if d, ok := n.(modifier.Drawer); ok {
			d.Draw(scope)
		}
	})
}

// DispatchPointer runs the three-pass pointer dispatch spec.md §4.6
// describes: initial (outer->inner), main (inner->outer), final
// (outer->inner). The first handler to report consumption ends the
// whole dispatch: the remaining handlers of that pass and every later
// pass are skipped, and DispatchPointer returns true.
func (c *Chain) DispatchPointer(ev modifier.PointerEvent) bool {
	if c.aggregated&modifier.CapPointerInput == 0 {
		return false
	}

	handlers := make([]modifier.PointerHandler, 0, len(c.entries))
	for _, e := range c.entries {
		if h, ok := e.node.(modifier.PointerHandler); ok {
			handlers = append(handlers, h)
		}
	}

	for _, h := range handlers {
		if h.HandlePointer(modifier.PointerPassInitial, ev) {
			return true
		}
	}
	for i := len(handlers) - 1; i >= 0; i-- {
		if handlers[i].HandlePointer(modifier.PointerPassMain, ev) {
			return true
		}
	}
	for _, h := range handlers {
		if h.HandlePointer(modifier.PointerPassFinal, ev) {
			return true
		}
	}
	return false
}

// Semantics merges every semantics node's contribution into one
// configuration for the owning UI node.
func (c *Chain) Semantics() modifier.SemanticsConfiguration {
	var cfg modifier.SemanticsConfiguration
	c.ForEachMatching(modifier.CapSemantics, func(n modifier.Node) {
		if s, ok := n.(modifier.SemanticsContributor); ok {
			s.ContributeSemantics(&cfg)
		}
	})
	return cfg
}

// ParentData returns the first parent-data value in the chain, or nil
// if none, for the parent's layout policy to read by chain lookup.
func (c *Chain) ParentData() any {
	var data any
	c.ForEachMatching(modifier.CapParentData, func(n modifier.Node) {
		if data != nil {
			return
		}
		if p, ok := n.(modifier.ParentDataProvider); ok {
			data = p.ParentData()
		}
	})
	return data
}

// FocusTargets returns every focus-capable node in the chain, for the
// focus manager to overlay onto its focus tree.
func (c *Chain) FocusTargets() []modifier.FocusTarget {
	var out []modifier.FocusTarget
	c.ForEachMatching(modifier.CapFocus, func(n modifier.Node) {
		if f, ok := n.(modifier.FocusTarget); ok {
			out = append(out, f)
		}
	})
	return out
}
