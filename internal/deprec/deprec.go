// Package deprec implements Component H: the depreciation engine. It
// reduces a member catalogue to the minimal set whose expansion still
// covers every signature, via a heap-ordered burst-retry algorithm, per
// spec §4.H.
package deprec

import (
	"container/heap"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/ternlab/qntf/internal/imprint"
)

// MemberID identifies a catalogued member. 0 is reserved (no member).
type MemberID uint32

// Member is one catalogued expansion of a signature: up to three
// subtree references and five head references to other members, all of
// which must remain non-depreciated for this member to stay usable.
type Member struct {
	ID       MemberID
	Sig      imprint.SID
	Subtrees [3]MemberID
	Heads    [5]MemberID
}

func (m Member) refs() []MemberID {
	out := make([]MemberID, 0, 8)
	for _, r := range m.Subtrees {
		if r != 0 {
			out = append(out, r)
		}
	}
	for _, r := range m.Heads {
		if r != 0 {
			out = append(out, r)
		}
	}
	return out
}

// pqItem is one heap entry: ascending refcount, id as tiebreak, per §4.H.
type pqItem struct {
	id       MemberID
	refcount int32
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].refcount != pq[j].refcount {
		return pq[i].refcount < pq[j].refcount
	}
	return pq[i].id < pq[j].id
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Engine owns the member catalogue, the refcount vector, the
// depreciated/locked bitmaps, and the per-signature coverage index.
type Engine struct {
	members  map[MemberID]Member
	refcount map[MemberID]int32

	depreciated *roaring.Bitmap
	locked      *bitset.BitSet

	bySig map[imprint.SID][]MemberID

	pq *priorityQueue

	// InitialBurst is the burst size a fresh retry round starts at;
	// BurstFloor is the smallest burst tried before a member is locked.
	InitialBurst int
	BurstFloor   int
}

// NewEngine builds an engine over members, computing the initial
// refcount vector from every member's subtree and head references and
// grouping members by the signature they expand.
func NewEngine(members []Member) *Engine {
	e := &Engine{
		members:      make(map[MemberID]Member, len(members)),
		refcount:     make(map[MemberID]int32, len(members)),
		depreciated:  roaring.New(),
		locked:       bitset.New(uint(len(members))),
		bySig:        make(map[imprint.SID][]MemberID),
		pq:           &priorityQueue{},
		InitialBurst: 8,
		BurstFloor:   1,
	}

	for _, m := range members {
		e.members[m.ID] = m
		e.bySig[m.Sig] = append(e.bySig[m.Sig], m.ID)
		if _, ok := e.refcount[m.ID]; !ok {
			e.refcount[m.ID] = 0
		}
	}
	for _, m := range members {
		for _, r := range m.refs() {
			e.refcount[r]++
		}
	}

	heap.Init(e.pq)
	for _, m := range members {
		heap.Push(e.pq, pqItem{id: m.ID, refcount: e.refcount[m.ID]})
	}

	return e
}

func (e *Engine) live(id MemberID) bool {
	return !e.depreciated.Contains(uint32(id))
}

// covers reports whether every signature still has at least one live
// member after tentatively depreciating the ids in tentative.
func (e *Engine) covers(tentative map[MemberID]bool) bool {
	for _, ids := range e.bySig {
		found := false
		for _, id := range ids {
			if e.live(id) && !tentative[id] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Locked reports whether id is pinned: its removal would empty some
// signature's live member list, so Run will never depreciate it.
// Locked only reports members Run actually drove down to a one-member
// burst and confirmed pinned; a member that's simply never offered for
// depreciation because something else still structurally depends on it
// (refcount > 0) stays live without ever being marked Locked, since
// that's a separate invariant (§4.H's reference-liveness rule) from the
// coverage one Locked names.
func (e *Engine) Locked(id MemberID) bool {
	return e.locked.Test(uint(id))
}

// Depreciated reports whether id has been committed as depreciated.
func (e *Engine) Depreciated(id MemberID) bool {
	return e.depreciated.Contains(uint32(id))
}

// Run drives the engine to completion: repeatedly takes a burst of
// lowest-refcount live members, tentatively depreciates them, and
// commits the burst if every signature is still covered; otherwise
// halves the burst and retries, eventually locking a single member that
// cannot be removed. Terminates when the heap is empty.
func (e *Engine) Run() {
	burst := e.InitialBurst
	if burst < e.BurstFloor {
		burst = e.BurstFloor
	}

	for e.pq.Len() > 0 {
		batch := e.popBatch(burst)
		if len(batch) == 0 {
			continue
		}

		tentative := make(map[MemberID]bool, len(batch))
		for _, it := range batch {
			tentative[it.id] = true
		}

		if e.covers(tentative) {
			e.commit(batch)
			burst = e.InitialBurst
			continue
		}

		if len(batch) <= e.BurstFloor {
			e.lock(batch[0].id)
			continue
		}

		half := len(batch) / 2
		e.requeue(batch[half:])
		e.requeue(batch[:half])
		burst = half
	}
}

// popBatch pops up to n candidates for depreciation, skipping anything
// already depreciated, locked, or still structurally required: a
// positive refcount means some live member reaches it through a
// subtree or head reference, so removing it now would violate §4.H's
// "every non-depreciated member's references are themselves
// non-depreciated" invariant. Skipped-but-referenced members are not
// re-pushed; commit's cascade re-pushes them once their refcount drops
// to zero.
func (e *Engine) popBatch(n int) []pqItem {
	batch := make([]pqItem, 0, n)
	for len(batch) < n && e.pq.Len() > 0 {
		it := heap.Pop(e.pq).(pqItem)
		if !e.live(it.id) || e.Locked(it.id) || e.refcount[it.id] > 0 {
			continue
		}
		batch = append(batch, it)
	}
	return batch
}

func (e *Engine) requeue(batch []pqItem) {
	for _, it := range batch {
		heap.Push(e.pq, it)
	}
}

func (e *Engine) commit(batch []pqItem) {
	for _, it := range batch {
		e.depreciated.Add(uint32(it.id))
	}
	// Cascade: a depreciated member no longer holds its own references
	// live, so the members it pointed to may now be eligible sooner.
	// Each of them is pushed again under its lowered refcount; older
	// heap entries for the same member stay behind and popBatch skips
	// them once they no longer qualify.
	for _, it := range batch {
		m, ok := e.members[it.id]
		if !ok {
			continue
		}
		for _, r := range m.refs() {
			e.refcount[r]--
			heap.Push(e.pq, pqItem{id: r, refcount: e.refcount[r]})
		}
	}
}

func (e *Engine) lock(id MemberID) {
	e.locked.Set(uint(id))
}
