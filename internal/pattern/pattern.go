// Package pattern implements Component G: the sid-based pattern
// compiler, an alternative to package rewrite that looks up a (Q, T, F)
// combination of already-catalogued signatures (rather than raw leaf
// triplets) through two chained hash probes, per §4.G.
//
// Simplification (recorded in DESIGN.md): §4.G describes each child
// signature as carrying its own compacted canonical variable numbering,
// with "tidT-relative"/"tidF-relative" composing that numbering onto
// Q's. This implementation keeps package imprint's existing convention
// of always evaluating a footprint over the catalog's full declared
// slot count, so every signature already shares one coordinate frame;
// TidT/TidF below are exactly the tid values imprint.Catalog.Lookup (or
// Add) returns for T and F, with no further relative composition
// needed. BuildSlotPlan is kept as a standalone utility computing the
// discovery-order merged numbering §4.G names, usable by a future
// slot-compaction pass, but the Table lookups do not depend on it.
package pattern

import (
	"github.com/ternlab/qntf/internal/imprint"
	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

// FirstKey is the first-level lookup key: Q and T's signatures, T's
// transform (as returned by the catalog), and T's invert flag.
type FirstKey struct {
	SidQ imprint.SID
	SidT imprint.SID
	TidT xform.ID
	Ti   bool
}

func (k FirstKey) hash() uint64 {
	var buf [17]byte
	putUint32(buf[0:4], uint32(k.SidQ))
	putUint32(buf[4:8], uint32(k.SidT))
	putUint64(buf[8:16], uint64(k.TidT))
	if k.Ti {
		buf[16] = 1
	}
	return hashBytes(buf[:])
}

// SecondKey is the second-level lookup key: the first-level match plus
// F's signature and F's transform.
type SecondKey struct {
	FirstID uint32
	SidF    imprint.SID
	TidF    xform.ID
}

func (k SecondKey) hash() uint64 {
	var buf [16]byte
	putUint32(buf[0:4], k.FirstID)
	putUint32(buf[4:8], uint32(k.SidF))
	putUint64(buf[8:16], uint64(k.TidF))
	return hashBytes(buf[:])
}

// SecondRecord is what a second-level hit resolves to: the whole
// triplet's signature, the transform that maps the caller's slot
// assignment onto the record's orientation, and the node count saved.
type SecondRecord struct {
	SidR       imprint.SID
	TidExtract xform.ID
	Power      int
}

// Table owns both lookup levels plus the first-id allocator.
type Table struct {
	first       *firstTable
	second      *secondTable
	nextFirstID uint32
}

// NewTable builds an empty pattern table.
func NewTable() *Table {
	return &Table{first: newFirstTable(), second: newSecondTable()}
}

// InternFirst returns the firstId for key, allocating a fresh one (in
// discovery order, per §5's ordering guarantee) if key hasn't been seen.
func (tb *Table) InternFirst(key FirstKey) uint32 {
	if id, ok := tb.first.lookup(key); ok {
		return id
	}
	id := tb.nextFirstID
	tb.nextFirstID++
	tb.first.add(key, id)
	return id
}

// LookupFirst reports the firstId for key without allocating one.
func (tb *Table) LookupFirst(key FirstKey) (uint32, bool) {
	return tb.first.lookup(key)
}

// PutSecond records rec for key; an existing record is left untouched so
// the first triplet to reach a given second-level state keeps it, per
// §5's ordering guarantee.
func (tb *Table) PutSecond(key SecondKey, rec SecondRecord) {
	if _, ok := tb.second.lookup(key); ok {
		return
	}
	tb.second.add(key, rec)
}

// LookupSecond resolves a full (Q, T, F) triplet given its first-level id.
func (tb *Table) LookupSecond(key SecondKey) (SecondRecord, bool) {
	return tb.second.lookup(key)
}

// Lookup runs both probes for a (Q, T, F) combination already reduced to
// catalogued signatures, returning the resolved record if both levels
// hit.
func (tb *Table) Lookup(sidQ, sidT, sidF imprint.SID, tidT, tidF xform.ID, ti bool) (SecondRecord, bool) {
	firstID, ok := tb.LookupFirst(FirstKey{SidQ: sidQ, SidT: sidT, TidT: tidT, Ti: ti})
	if !ok {
		return SecondRecord{}, false
	}
	return tb.LookupSecond(SecondKey{FirstID: firstID, SidF: sidF, TidF: tidF})
}

// Put interns the first-level key (allocating a fresh firstId if this is
// the first time Q, T have been paired this way) and records the
// resulting second-level verdict.
func (tb *Table) Put(sidQ, sidT, sidF imprint.SID, tidT, tidF xform.ID, ti bool, rec SecondRecord) {
	firstID := tb.InternFirst(FirstKey{SidQ: sidQ, SidT: sidT, TidT: tidT, Ti: ti})
	tb.PutSecond(SecondKey{FirstID: firstID, SidF: sidF, TidF: tidF}, rec)
}

// SlotPlan is the fresh-output-slot assignment produced by scanning Q's
// placeholders, then T's, then F's (§4.G "slot construction"): slotsR is
// the merged variable count, and SlotsR2{Q,T,F}[i] names the tree
// variable that merged slot i maps to for that child (0 if the child
// doesn't read that slot).
type SlotPlan struct {
	SlotsR   int
	SlotsR2Q []int
	SlotsR2T []int
	SlotsR2F []int
}

// collectVars walks ref's subtree and appends every placeholder
// variable reachable from it, in first-encounter depth-first order.
// Grounded on package gen's pool/discoveredVar walk, generalised from
// "enumerate the pool available at a cursor" to "enumerate the
// variables a subtree actually reads".
func collectVars(tr *tiny.Tree, ref tiny.Ref, seen map[int]bool, order *[]int) {
	r := int(ref &^ tiny.IBIT)
	if r == 0 {
		return
	}
	if r <= tr.Slots {
		if !seen[r] {
			seen[r] = true
			*order = append(*order, r)
		}
		return
	}
	n := tr.Nodes[r]
	collectVars(tr, n.Q, seen, order)
	collectVars(tr, n.T, seen, order)
	collectVars(tr, n.F, seen, order)
}

// BuildSlotPlan scans q, then t, then f (in that order, per §4.G) and
// assigns each distinct tree variable encountered a fresh merged slot on
// first discovery.
func BuildSlotPlan(tr *tiny.Tree, q, t, f tiny.Ref) SlotPlan {
	seen := make(map[int]bool, tr.Slots)
	var order []int
	collectVars(tr, q, seen, &order)
	collectVars(tr, t, seen, &order)
	collectVars(tr, f, seen, &order)

	rank := make(map[int]int, len(order))
	for i, v := range order {
		rank[v] = i + 1
	}

	mapFor := func(ref tiny.Ref) []int {
		var vars []int
		collectVars(tr, ref, make(map[int]bool), &vars)
		out := make([]int, len(order)+1)
		for _, v := range vars {
			out[rank[v]] = v
		}
		return out
	}

	return SlotPlan{
		SlotsR:   len(order),
		SlotsR2Q: mapFor(q),
		SlotsR2T: mapFor(t),
		SlotsR2F: mapFor(f),
	}
}
