// Package xform implements Component A: the transform table. It enumerates
// every permutation of a slot alphabet, encodes each permutation as a
// packed integer (forward and reverse) and as a fixed-width string, and
// answers name-to-id lookups through a block-table automaton.
package xform

import (
	"fmt"
	"sort"
)

// nibbleBits is the width of one slot's encoding inside the packed
// integer representation (4 bits holds slot indices 0..15).
const nibbleBits = 4

// ID identifies a transform: a permutation of the slot alphabet. The
// identity transform always has ID 0.
type ID int

// Transform is one permutation of the slot alphabet, stored both as a
// packed integer (nibble k holds the image of position k) and as a
// fixed-width string over the alphabet "a".."a"+slots-1.
type Transform struct {
	Forward uint64 // nibble k = image of slot k
	Reverse uint64 // nibble k = preimage of slot k
	Name    string
}

// Table owns every permutation of slots letters plus the automaton that
// maps a (possibly abbreviated) name back to its ID.
type Table struct {
	slots int
	list  []Transform

	// automaton is a flat array of blocks, each slots+1 cells wide, per
	// §4.A: cell k (k < slots) is "after reading letter k, go to this
	// block"; cell[slots] is the terminal ID reached by automatically
	// completing via the first used outgoing edge, tagged with
	// terminalFlag to distinguish a real terminal from "no terminal here
	// yet".
	automaton []int32
}

const (
	noEdge       int32 = -1
	terminalFlag int32 = 1 << 30
)

// Build enumerates all slots! permutations and compiles the lookup
// automaton. slots must be in [1, 9]; 9 matches the reference value from
// §3 ("Slot count... the reference value is 9").
func Build(slots int) (*Table, error) {
	if slots < 1 || slots > 9 {
		return nil, fmt.Errorf("xform: slots out of range: %d", slots)
	}

	t := &Table{slots: slots}
	perm := make([]int, slots)
	for i := range perm {
		perm[i] = i
	}

	var list []Transform
	permute(perm, 0, func(p []int) {
		list = append(list, newTransform(p))
	})

	// Canonical ordering: identity is ID 0, and the remaining transforms
	// are indexed in lexicographic order of their name so that ID
	// assignment is deterministic and reproducible across runs (§5
	// "Ordering guarantees").
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	t.list = list

	t.buildAutomaton()
	return t, nil
}

func newTransform(perm []int) Transform {
	var fwd, rev uint64
	name := make([]byte, len(perm))
	for pos, img := range perm {
		fwd |= uint64(img) << (nibbleBits * pos)
		rev |= uint64(pos) << (nibbleBits * img)
		name[pos] = byte('a' + img)
	}
	return Transform{Forward: fwd, Reverse: rev, Name: string(name)}
}

// permute calls cb once per permutation of the initial slice p (modified
// in place by recursive swapping), including the identity permutation.
func permute(p []int, k int, cb func([]int)) {
	if k == len(p) {
		cp := make([]int, len(p))
		copy(cp, p)
		cb(cp)
		return
	}
	for i := k; i < len(p); i++ {
		p[k], p[i] = p[i], p[k]
		permute(p, k+1, cb)
		p[k], p[i] = p[i], p[k]
	}
}

// Slots reports the slot count this table was built for.
func (t *Table) Slots() int { return t.slots }

// Count reports slots!, the number of transforms in the table.
func (t *Table) Count() int { return len(t.list) }

// ByID returns the transform with the given id. Panics on an out-of-range
// id, mirroring the teacher's "asserts invariants, never silently
// tolerates a broken index" style (see node.go's insert-time asserts).
func (t *Table) ByID(id ID) Transform {
	return t.list[id]
}

// IdentityID is always 0: "the empty string resolves to tid 0" and the
// enumeration order places identity first since its name is
// lexicographically smallest ("abc...").
const IdentityID ID = 0

// ReverseID returns the id of the transform that is this transform's
// group inverse. ∀ σ, lookup(print(σ⁻¹)) ∘ σ = identity (§8).
func (t *Table) ReverseID(id ID) ID {
	rev := t.list[id].Reverse
	for i, tr := range t.list {
		if tr.Forward == rev {
			return ID(i)
		}
	}
	// Unreachable: the permutation group is closed under inversion and
	// every permutation's reverse encoding is itself a valid forward
	// encoding present in the enumerated list.
	panic("xform: reverse transform not found, table corrupt")
}

// Compose returns the id of the transform equal to applying a then b
// (function composition: result(x) = b(a(x))).
func (t *Table) Compose(a, b ID) ID {
	pa := t.list[a]
	pb := t.list[b]
	perm := make([]int, t.slots)
	for i := 0; i < t.slots; i++ {
		ai := int((pa.Forward >> (nibbleBits * i)) & 0xF)
		bi := int((pb.Forward >> (nibbleBits * ai)) & 0xF)
		perm[i] = bi
	}
	target := newTransform(perm).Forward
	for i, tr := range t.list {
		if tr.Forward == target {
			return ID(i)
		}
	}
	panic("xform: composed transform not found, table corrupt")
}

// Apply returns the image of slot index under the given transform's
// forward permutation.
func (t *Table) Apply(id ID, slot int) int {
	return int((t.list[id].Forward >> (nibbleBits * slot)) & 0xF)
}

// buildAutomaton constructs the block-table trie over all transform
// names, then fills each block's terminal cell by following the first
// used outgoing edge recursively (automatic short-name completion).
func (t *Table) buildAutomaton() {
	width := t.slots + 1
	// block 0 is the root.
	blocks := [][]int32{newBlock(width)}

	for id, tr := range t.list {
		block := 0
		for _, ch := range tr.Name {
			letter := int(ch - 'a')
			next := blocks[block][letter]
			if next == noEdge {
				blocks = append(blocks, newBlock(width))
				next = int32(len(blocks) - 1)
				blocks[block][letter] = next
			}
			block = int(next)
		}
		blocks[block][t.slots] = int32(id) | terminalFlag
	}

	// Fill in automatic completion: for any block whose terminal cell is
	// still empty, recursively follow the first used outgoing edge.
	var complete func(b int) int32
	seen := make([]int32, len(blocks))
	for i := range seen {
		seen[i] = noEdge
	}
	complete = func(b int) int32 {
		if seen[b] != noEdge {
			return seen[b]
		}
		if blocks[b][t.slots] != noEdge {
			seen[b] = blocks[b][t.slots]
			return seen[b]
		}
		for letter := 0; letter < t.slots; letter++ {
			if blocks[b][letter] != noEdge {
				v := complete(int(blocks[b][letter]))
				blocks[b][t.slots] = v
				seen[b] = v
				return v
			}
		}
		return noEdge
	}
	for b := range blocks {
		complete(b)
	}

	flat := make([]int32, 0, len(blocks)*width)
	for _, b := range blocks {
		flat = append(flat, b...)
	}
	t.automaton = flat
}

func newBlock(width int) []int32 {
	b := make([]int32, width)
	for i := range b {
		b[i] = noEdge
	}
	return b
}

// Lookup resolves a (possibly abbreviated) name to a transform id by
// walking the automaton one letter at a time; cost is one step per input
// letter. The empty string resolves to IdentityID.
func (t *Table) Lookup(name string) (ID, bool) {
	width := t.slots + 1
	block := 0
	for _, ch := range name {
		letter := int(ch - 'a')
		if letter < 0 || letter >= t.slots {
			return 0, false
		}
		next := t.automaton[block*width+letter]
		if next == noEdge {
			return 0, false
		}
		block = int(next)
	}
	terminal := t.automaton[block*width+t.slots]
	if terminal == noEdge {
		return 0, false
	}
	return ID(terminal &^ terminalFlag), true
}
