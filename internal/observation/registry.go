// Package observation implements spec.md §9's bidirectional scope<->state
// registry: which scopes read which state objects, and which scopes must
// be marked dirty when an object's write is applied.
//
// Grounded on the teacher's service.B2BClientService, which keeps the
// same shape of dual index (channelB2BClientID / b2bClientChannelIDs)
// under a single RWMutex for an unrelated one-to-many relationship;
// here the relationship is many-to-many (a scope reads many objects, an
// object is read by many scopes) so both sides hold sets.
package observation

import "sync"

// ScopeID identifies a recomposition scope, per spec.md §4.5 — assigned
// by the composer (composer.Start) on first composition at a group and
// stored in the group's slot.
type ScopeID uint64

// Registry tracks, bidirectionally, which scopes have read which state
// objects during their last composition. Scope -> state is the strong
// direction (drives invalidation on dispose); state -> scope is a
// lookup index refreshed on every read.
type Registry struct {
	mu           sync.Mutex
	scopeObjects map[ScopeID]map[uint64]struct{}
	objectScopes map[uint64]map[ScopeID]struct{}
}

// NewRegistry constructs an empty observation registry.
func NewRegistry() *Registry {
	return &Registry{
		scopeObjects: make(map[ScopeID]map[uint64]struct{}),
		objectScopes: make(map[uint64]map[ScopeID]struct{}),
	}
}

// RecordRead registers that scope read objectID during its current
// composition pass.
func (r *Registry) RecordRead(scope ScopeID, objectID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	objs, ok := r.scopeObjects[scope]
	if !ok {
		objs = make(map[uint64]struct{})
		r.scopeObjects[scope] = objs
	}
	objs[objectID] = struct{}{}

	scopes, ok := r.objectScopes[objectID]
	if !ok {
		scopes = make(map[ScopeID]struct{})
		r.objectScopes[objectID] = scopes
	}
	scopes[scope] = struct{}{}
}

// BeginScope clears scope's previously recorded reads, ahead of a
// recomposition that will re-record whatever it actually reads this
// pass. A scope that stops reading a cell (e.g. a branch that used to
// read it is no longer taken) must not keep being invalidated by it.
func (r *Registry) BeginScope(scope ScopeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearScopeLocked(scope)
}

// DisposeScope removes scope from the registry entirely, for a group
// permanently removed from composition (gapped out and never restored,
// or the composition torn down).
func (r *Registry) DisposeScope(scope ScopeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearScopeLocked(scope)
	delete(r.scopeObjects, scope)
}

func (r *Registry) clearScopeLocked(scope ScopeID) {
	for objID := range r.scopeObjects[scope] {
		if scopes := r.objectScopes[objID]; scopes != nil {
			delete(scopes, scope)
			if len(scopes) == 0 {
				delete(r.objectScopes, objID)
			}
		}
	}
	r.scopeObjects[scope] = make(map[uint64]struct{})
}

// ScopesObserving returns every scope currently registered as having
// read objectID, for the scheduler to enqueue into the next frame's
// dirty queue after a successful apply.
func (r *Registry) ScopesObserving(objectID uint64) []ScopeID {
	r.mu.Lock()
	defer r.mu.Unlock()

	scopes := r.objectScopes[objectID]
	out := make([]ScopeID, 0, len(scopes))
	for s := range scopes {
		out = append(out, s)
	}
	return out
}
