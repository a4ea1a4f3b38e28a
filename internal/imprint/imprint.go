// Package imprint implements Component D: the signature table and the
// imprint index used to recognise that a freshly built tree is
// structurally equivalent (under some slot permutation) to an
// already-catalogued signature.
//
// The slots! permutation space is factored into a column subgroup of
// order `cols` and its `rows` left cosets (§4.D): only one footprint per
// coset (the row representative) is inserted at Add time, trading index
// size for per-query work. Lookup pays that work back by trying each of
// the `cols` column-subgroup elements against the query's own footprint
// until one lands on a stored row imprint, then recovers the full tid by
// composing the column element's inverse with the stored row tid.
package imprint

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

// SID identifies a signature: an index into Catalog.sigs.
type SID uint32

const InvalidSID SID = 0

// Flag bits recorded per signature, per §4.D.
const (
	FlagSafe uint = iota
	FlagKey
	FlagUnsafe
)

// Signature is one equivalence class of trees sharing a canonical
// footprint under permutation of slots.
type Signature struct {
	ID        SID
	Footprint tiny.Footprint
	Flags     *bitset.BitSet
	// Members holds the canonical names catalogued for this signature,
	// lowest node-count first; populated by package normalize.
	Members []string
}

// Catalog owns the signature table and its imprint index.
type Catalog struct {
	slots  int
	xforms *xform.Table

	// colSubgroup is the column subgroup of S_slots (§4.D): the cyclic
	// group generated by the full slots-cycle, order slots. rowReps is
	// one coset leader per left coset of colSubgroup, so every transform
	// id decomposes uniquely as Compose(col, row) with col in
	// colSubgroup and row in rowReps.
	colSubgroup []xform.ID
	rowReps     []xform.ID

	sigs  []Signature
	index *Index
}

// NewCatalog builds an empty catalog for the given slot count, backed by
// xforms (built with xform.Build(slots)).
func NewCatalog(slots int, xforms *xform.Table) *Catalog {
	cols := columnSubgroup(xforms, slots)
	rows := rowRepresentatives(xforms, cols)

	return &Catalog{
		slots:       slots,
		xforms:      xforms,
		colSubgroup: cols,
		rowReps:     rows,
		sigs:        []Signature{{}}, // index 0 reserved as InvalidSID
		index:       NewIndex(slots),
	}
}

// rotationID returns the id of the full slots-cycle (slot i -> (i+1) mod
// slots), which generates a cyclic subgroup of order slots.
func rotationID(xforms *xform.Table, slots int) xform.ID {
	name := make([]byte, slots)
	for pos := 0; pos < slots; pos++ {
		name[pos] = byte('a' + (pos+1)%slots)
	}
	id, ok := xforms.Lookup(string(name))
	if !ok {
		// Unreachable: xform.Build enumerates every permutation of the
		// slot alphabet, including the full rotation.
		panic("imprint: rotation transform not found, table corrupt")
	}
	return id
}

// columnSubgroup returns the cyclic subgroup {id, rot, rot^2, ...,
// rot^(slots-1)} generated by the full rotation, per §4.D's column
// subgroup of order `cols` (here fixed at slots, the reviewer's
// suggested minimum factorisation).
func columnSubgroup(xforms *xform.Table, slots int) []xform.ID {
	rot := rotationID(xforms, slots)
	cols := make([]xform.ID, 0, slots)
	cur := xform.IdentityID
	for i := 0; i < slots; i++ {
		cols = append(cols, cur)
		cur = xforms.Compose(cur, rot)
	}
	return cols
}

// rowRepresentatives partitions [0,xforms.Count()) into left cosets of
// cols (tid ~ Compose(k,tid) for k in cols) and returns one
// representative per coset, in increasing tid order. Every tid is
// visited exactly once across all cosets since cols is a genuine
// subgroup: this is the left-coset decomposition §4.D's "key property"
// names.
func rowRepresentatives(xforms *xform.Table, cols []xform.ID) []xform.ID {
	total := xforms.Count()
	visited := make([]bool, total)
	var reps []xform.ID
	for tid := 0; tid < total; tid++ {
		if visited[tid] {
			continue
		}
		rep := xform.ID(tid)
		reps = append(reps, rep)
		for _, k := range cols {
			other := xforms.Compose(k, rep)
			visited[other] = true
		}
	}
	return reps
}

// Slots reports the variable count this catalog indexes over.
func (c *Catalog) Slots() int { return c.slots }

// Rows and Cols report the interleave factorisation in effect: rows
// imprints are stored per signature (one per row representative) and
// cols candidate permutations are searched at Lookup time.
func (c *Catalog) Rows() int { return len(c.rowReps) }
func (c *Catalog) Cols() int { return len(c.colSubgroup) }

// permutedLanes builds a SeedVariables-shaped lane table where lane v is
// seeded according to where transform tid sends slot v, so that
// evaluating a tree against it computes the tree's footprint under that
// permutation of its inputs.
func permutedLanes(slots int, xforms *xform.Table, tid xform.ID) []tiny.Footprint {
	base := tiny.SeedVariables(slots)
	out := make([]tiny.Footprint, len(base))
	out[0] = base[0]
	for v := 1; v <= slots; v++ {
		target := xforms.Apply(tid, v-1) + 1
		out[v] = base[target]
	}
	return out
}

// Add registers a freshly evaluated tree under a new sid: only its rows
// row-representative footprints are inserted into the index (§4.D), one
// per left coset of the column subgroup, rather than the full rows*cols
// orbit.
func (c *Catalog) Add(tr *tiny.Tree, root tiny.Ref, flags ...uint) SID {
	sid := SID(len(c.sigs))
	canonical := tr.Eval(root, tiny.SeedVariables(c.slots))

	set := bitset.New(3)
	for _, f := range flags {
		set.Set(f)
	}

	c.sigs = append(c.sigs, Signature{ID: sid, Footprint: canonical, Flags: set})

	for _, rep := range c.rowReps {
		lanes := permutedLanes(c.slots, c.xforms, rep)
		fp := tr.Eval(root, lanes)
		c.index.Add(fp, sid, rep)
	}
	return sid
}

// Lookup searches for an existing signature matching tr's footprint under
// any permutation of its slots. Since only row representatives are
// stored, a single identity-transform probe is not enough: Lookup tries
// each of the cols column-subgroup elements k, permuting tr's own
// footprint by k, until one lands on a stored row imprint.
//
// If tr matches the catalogued tree under transform tid_h = Compose(k_h,
// row) for the row that was stored, then evaluating tr under k =
// ReverseID(k_h) reproduces exactly that row's footprint (§4.D's "key
// property": composing the stored row-tid with the recovered column-tid
// recovers the full tid). Since the column subgroup is closed under
// inversion, k_h's inverse is tried in the same cols-sized search.
func (c *Catalog) Lookup(tr *tiny.Tree, root tiny.Ref) (sid SID, tid xform.ID, found bool) {
	for _, k := range c.colSubgroup {
		lanes := permutedLanes(c.slots, c.xforms, k)
		fp := tr.Eval(root, lanes)
		if s, row, ok := c.index.Lookup(fp); ok {
			kInv := c.xforms.ReverseID(k)
			return s, c.xforms.Compose(kInv, row), true
		}
	}
	return InvalidSID, 0, false
}

// SetFlag sets flag on sid's signature. Used when replaying a catalogue
// from a container's stored per-signature flags (qntf.Open's
// rebuild path) rather than from a fresh Add call.
func (c *Catalog) SetFlag(sid SID, flag uint) {
	if int(sid) <= 0 || int(sid) >= len(c.sigs) {
		return
	}
	if c.sigs[sid].Flags == nil {
		c.sigs[sid].Flags = bitset.New(3)
	}
	c.sigs[sid].Flags.Set(flag)
}

// AddMember records name among sid's catalogued expansions if it is not
// already present. Per Signature.Members' documented ordering, callers
// are expected to call this in non-decreasing node-count order so the
// first recorded name is also the lowest-node-count one.
func (c *Catalog) AddMember(sid SID, name string) {
	if int(sid) <= 0 || int(sid) >= len(c.sigs) {
		return
	}
	members := c.sigs[sid].Members
	for _, m := range members {
		if m == name {
			return
		}
	}
	c.sigs[sid].Members = append(members, name)
}

// Signature returns the catalogued signature by id.
func (c *Catalog) Signature(sid SID) (Signature, bool) {
	if int(sid) <= 0 || int(sid) >= len(c.sigs) {
		return Signature{}, false
	}
	return c.sigs[sid], true
}

// Count returns the number of catalogued signatures, excluding the
// reserved InvalidSID slot.
func (c *Catalog) Count() int { return len(c.sigs) - 1 }
