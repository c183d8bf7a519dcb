package modifiernode

import (
	"sync"

	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
)

// invalidationContext implements modifier.AttachContext, accumulating
// the invalidation kinds nodes request during attach/update until the
// chain drains them after reconciliation.
type invalidationContext struct {
	mu      sync.Mutex
	pending map[modifier.InvalidationKind]struct{}
}

func newInvalidationContext() *invalidationContext {
	return &invalidationContext{pending: make(map[modifier.InvalidationKind]struct{})}
}

func (c *invalidationContext) Invalidate(kind modifier.InvalidationKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[kind] = struct{}{}
}

func (c *invalidationContext) drain() []modifier.InvalidationKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]modifier.InvalidationKind, 0, len(c.pending))
	for k := range c.pending {
		out = append(out, k)
	}
	c.pending = make(map[modifier.InvalidationKind]struct{})
	return out
}
