package snapshot

import (
	"container/heap"
	"sync"

	"github.com/samoylenkodmitry/compose-runtime/internal/snapshotid"
)

// pinning is a min-tracker over the set of currently live snapshot ids.
// Its lowest pinned id bounds how old a StateRecord may be before it is
// eligible for reclamation (record.Chain.OverwriteUnusedRecords).
//
// Implemented as a binary min-heap with O(log n) pin/unpin and O(1)
// peek, grounded in the teacher's event scheduler
// (internal/infrastructure/processmgr/scheduler.go), which tracks the
// soonest-due event the same way this tracks the oldest-live snapshot.
type pinning struct {
	mu      sync.Mutex
	h       pinHeap
	entries map[snapshotid.ID]*pinEntry
}

func newPinning() *pinning {
	h := pinHeap{}
	heap.Init(&h)
	return &pinning{h: h, entries: make(map[snapshotid.ID]*pinEntry)}
}

// pin registers id as live. Idempotent.
func (p *pinning) pin(id snapshotid.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[id]; ok {
		return
	}
	e := &pinEntry{id: id}
	heap.Push(&p.h, e)
	p.entries[id] = e
}

// unpin releases id. No-op if not pinned.
func (p *pinning) unpin(id snapshotid.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok {
		return
	}
	heap.Remove(&p.h, e.index)
	delete(p.entries, id)
}

// lowest returns the smallest currently-pinned id.
func (p *pinning) lowest() (snapshotid.ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.h) == 0 {
		return 0, false
	}
	return p.h[0].id, true
}

type pinEntry struct {
	id    snapshotid.ID
	index int
}

type pinHeap []*pinEntry

func (h pinHeap) Len() int            { return len(h) }
func (h pinHeap) Less(i, j int) bool   { return h[i].id < h[j].id }
func (h pinHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *pinHeap) Push(x any) {
	e := x.(*pinEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *pinHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	e.index = -1
	*h = old[:n-1]
	return e
}
