// Package tiny implements Component B: the tiny tree. A Tree is a
// fixed-capacity expression graph of K = 2*slots entries, of which the
// first slots+1 are the constant and the variables, so it holds at most
// K-slots-1 internal nodes, built from the single Q?T:F primitive. It provides level-1/level-2
// algebraic normalisation (AddNormalised), raw and re-normalising postfix
// parsing, canonical printing, a deep structural comparator, and a
// 512-lane bitwise evaluator.
//
// Level-3 (dyadic cascade ordering) and signature-catalogue lookup are
// layered on top by package normalize; they are deliberately not part of
// this package, mirroring the component split in SPEC_FULL.md §2.
package tiny

import (
	"fmt"
	"strings"
)

// IBIT is the top bit of a 32-bit node reference: "negate the result of
// the referenced node". No other bits carry semantics.
const IBIT uint32 = 1 << 31

// Ref is a node reference: an index into a Tree's Nodes array, optionally
// OR'd with IBIT.
type Ref = uint32

// Node stores one internal (Q, T, F) triplet. Q and F are never inverted;
// only T may carry IBIT.
type Node struct {
	Q, T, F Ref
}

// Tree is a fixed-capacity expression graph. Index 0 is the constant
// false; indices 1..Slots are the placeholder variables in canonical
// order; indices Slots+1..K-1 are internal nodes, per §3.
type Tree struct {
	Slots int
	K     int
	Pure  bool // forbid the QTF primitive; see §3 "pure mode"

	Nodes []Node
	Count int // next free internal-node index
	Root  Ref
}

// New builds an empty tree with capacity K = 2*slots, the reference
// value from §3.
func New(slots int, pure bool) *Tree {
	k := 2 * slots
	t := &Tree{
		Slots: slots,
		K:     k,
		Pure:  pure,
		Nodes: make([]Node, k),
		Count: slots + 1,
	}
	return t
}

// Reset clears the tree back to its empty state, reusing the backing
// array (no allocation), matching the teacher's pool-reuse idiom
// (pool.go's Put resets before storage).
func (t *Tree) Reset() {
	for i := range t.Nodes {
		t.Nodes[i] = Node{}
	}
	t.Count = t.Slots + 1
	t.Root = 0
}

// IsEndpoint reports whether ref (with its invert bit stripped) names a
// leaf: the constant false or a placeholder variable.
func (t *Tree) IsEndpoint(ref Ref) bool {
	return int(ref&^IBIT) <= t.Slots
}

// basicNode scans the node array for an existing identical triplet; if
// none exists, appends a new one after asserting the §3 invariants. It
// never reorders a dyadic cascade — that is level 3's job, in package
// normalize.
func (t *Tree) basicNode(q, tt, f Ref) (Ref, error) {
	if q == 0 {
		panic("tiny: basicNode called with Q == 0")
	}
	if q&IBIT != 0 {
		panic("tiny: basicNode called with inverted Q")
	}
	if f&IBIT != 0 {
		panic("tiny: basicNode called with inverted F")
	}
	if q == tt&^IBIT {
		panic("tiny: basicNode called with Q == T")
	}
	if q == f {
		panic("tiny: basicNode called with Q == F")
	}
	if tt == f {
		panic("tiny: basicNode called with T == F")
	}
	if tt == 0 {
		panic("tiny: basicNode called with T == 0")
	}
	if tt == IBIT && f == 0 {
		panic("tiny: basicNode called with T == ~0 and F == 0")
	}

	for i := t.Slots + 1; i < t.Count; i++ {
		n := t.Nodes[i]
		if n.Q == q && n.T == tt && n.F == f {
			return Ref(i), nil
		}
	}

	if t.Count >= t.K {
		return 0, fmt.Errorf("tiny: section overflow, capacity %d exhausted", t.K)
	}

	idx := t.Count
	t.Nodes[idx] = Node{Q: q, T: tt, F: f}
	t.Count++
	return Ref(idx), nil
}

// AddNormalised is the external entry point for constructing a node: it
// performs level-1 (invert propagation) and level-2 (function grouping)
// rewrites described in §4.C, then calls basicNode.
func (t *Tree) AddNormalised(q, tt, f Ref) (Ref, error) {
	// Level 1: ~Q ? T : F -> Q ? F : T
	if q&IBIT != 0 {
		return t.AddNormalised(q&^IBIT, f, tt)
	}
	// Level 1: 0 ? T : F -> F
	if q == 0 {
		return f, nil
	}
	// Level 1: Q ? T : ~F -> ~(Q ? ~T : F)
	if f&IBIT != 0 {
		inner, err := t.AddNormalised(q, tt^IBIT, f&^IBIT)
		if err != nil {
			return 0, err
		}
		return inner ^ IBIT, nil
	}

	tu := tt &^ IBIT
	ti := tt&IBIT != 0

	switch {
	case tu == 0 && !ti:
		// T == 0 is forbidden; rewritten to F ? ~Q : 0.
		return t.AddNormalised(f, q|IBIT, 0)

	case q == tu:
		if !ti {
			// Q ? Q : F == Q ? ~0 : F -> OR
			return t.AddNormalised(q, IBIT, f)
		}
		// Q ? ~Q : F == F ? ~Q : 0 -> GT with swapped operands
		return t.AddNormalised(f, q|IBIT, 0)

	case tu == 0 && f == 0: // ti == true here: T == ~0, F == 0 -> Q ? ~0 : 0
		return q, nil

	case tu == f:
		if ti {
			// Q ? ~T : T -> XOR, already canonical
			return t.basicNode(q, tt, f)
		}
		// T == F, not inverted: collapses to T regardless of Q
		return tt, nil

	case q == f:
		if tt == IBIT {
			// Q ? ~0 : Q == Q
			return q, nil
		}
		// Q ? T : Q -> AND (T not inverted) or GT (T inverted)
		return t.basicNode(q, tt, 0)

	case tu == 0: // ti == true here: T == IBIT exactly ("constant true"), F != 0
		return t.basicNode(q, tt, f) // OR, already canonical

	case f == 0:
		return t.basicNode(q, tt, 0) // AND or GT, already canonical

	default:
		if ti {
			return t.basicNode(q, tt, f) // QnTF, general inverted-T
		}
		if t.Pure {
			// Pure mode forbids QTF: Q?T:F -> Q?~(Q?~T:F):F
			inner, err := t.basicNode(q, tt^IBIT, f)
			if err != nil {
				return 0, err
			}
			return t.basicNode(q, inner^IBIT, f)
		}
		return t.basicNode(q, tt, f) // QTF, general
	}
}
