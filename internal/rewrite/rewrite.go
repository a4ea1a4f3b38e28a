// Package rewrite implements Component F: the rewrite DFA compiler. It
// enumerates every legal (Q, T, F) triplet over a small input alphabet —
// false, a slot variable, or one of three opaque "subtree" placeholders
// standing in for an already-rewritten operand — and records, for each,
// the verdict tiny.AddNormalised already computes: collapse to one
// operand, collapse to a constant, re-expression as a different (Q,T,F)
// ordering of the same three inputs, or "already canonical".
//
// The verdict table is a single dense block of 32-bit cells addressed by
// the packed input key, mirroring the teacher's flat block-table
// automaton in xform.go but collapsed to one block rather than a chained
// multi-level walk, since the full input domain (13 * 26 * 13 keys at
// the reference 9-slot alphabet) is small enough to address directly.
package rewrite

import (
	"fmt"

	"github.com/ternlab/qntf/internal/tiny"
)

// Symbol is one operand's position in the rewrite input alphabet.
type Symbol uint8

const (
	SymFalse Symbol = 0
	// Symbols 1..MaxVarSymbol name slot variables 1..MaxVarSymbol.
	MaxVarSymbol = 9
	SymSubtree0  Symbol = 10
	SymSubtree1  Symbol = 11
	SymSubtree2  Symbol = 12

	// NumSymbols is the alphabet size: false, nine variables, three
	// subtree placeholders.
	NumSymbols = 13
)

func varSymbol(slot int) (Symbol, error) {
	if slot < 1 || slot > MaxVarSymbol {
		return 0, fmt.Errorf("rewrite: slot %d out of range [1,%d]", slot, MaxVarSymbol)
	}
	return Symbol(slot), nil
}

// Input is one (Q, T, F) triplet expressed over the rewrite alphabet.
type Input struct {
	Q    Symbol
	T    Symbol
	TInv bool
	F    Symbol
}

// key packs Input into the table's addressing scheme: Q selects one of
// NumSymbols outer slots, (TInv,T) selects one of 2*NumSymbols middle
// slots, F selects one of NumSymbols inner slots.
func (in Input) key() int {
	tSlot := int(in.T)
	if in.TInv {
		tSlot += NumSymbols
	}
	return (int(in.Q)*2*NumSymbols+tSlot)*NumSymbols + int(in.F)
}

// collapseTarget names where a triplet collapses to, when it does.
type collapseTarget uint8

const (
	targetNone collapseTarget = iota
	targetConstFalse
	targetConstTrue
	targetQ
	targetT
	targetF
)

// cell bit layout, within a uint32:
//
//	bit 31       found:    already canonical, no rewrite saves anything
//	bit 30       collapse: result is a single operand or constant
//	bit 29       invert:   the collapse target (or side-table result) is negated
//	bits 28..26  collapse target (collapseTarget)
//	bits 23..16  power: nodes saved versus a naive 3-leaf encoding
//	bits 15..0   side table index, valid when !found && !collapse
const (
	cellFound    uint32 = 1 << 31
	cellCollapse uint32 = 1 << 30
	cellInvert   uint32 = 1 << 29
	targetShift         = 26
	targetMask   uint32 = 0x7
	powerShift          = 16
	powerMask    uint32 = 0xff
	sideMask     uint32 = 0xffff
)

// Verdict is the decoded form of one table cell.
type Verdict struct {
	Found    bool
	Collapse bool
	Target   collapseTarget
	Invert   bool
	Power    int
	SideIdx  int
}

func decodeCell(c uint32) Verdict {
	v := Verdict{
		Found:    c&cellFound != 0,
		Collapse: c&cellCollapse != 0,
		Invert:   c&cellInvert != 0,
		Target:   collapseTarget((c >> targetShift) & targetMask),
		Power:    int((c >> powerShift) & powerMask),
		SideIdx:  int(c & sideMask),
	}
	return v
}

func encodeCell(v Verdict) uint32 {
	var c uint32
	if v.Found {
		c |= cellFound
	}
	if v.Collapse {
		c |= cellCollapse
	}
	if v.Invert {
		c |= cellInvert
	}
	c |= (uint32(v.Target) & targetMask) << targetShift
	c |= (uint32(v.Power) & powerMask) << powerShift
	c |= uint32(v.SideIdx) & sideMask
	return c
}

// ReplacementTree is a side-table entry: the actual (Q, T, F) triplet
// tiny.AddNormalised stored when a rewrite reorders or reinverts the
// caller's three operands into a different single-node encoding of the
// same function (e.g. a GT/QnTF swap), rather than collapsing to one of
// them outright.
type ReplacementTree struct {
	Q, T, F Symbol
	TInv    bool
}

// Pack encodes a ReplacementTree into 64 bits: one byte per field, plenty
// of headroom under the alphabet's 13 symbols.
func (r ReplacementTree) Pack() uint64 {
	var inv uint64
	if r.TInv {
		inv = 1
	}
	return uint64(r.Q) | uint64(r.T)<<8 | uint64(r.F)<<16 | inv<<24
}

func unpackReplacement(w uint64) ReplacementTree {
	return ReplacementTree{
		Q:    Symbol(w & 0xff),
		T:    Symbol((w >> 8) & 0xff),
		F:    Symbol((w >> 16) & 0xff),
		TInv: (w>>24)&1 != 0,
	}
}

// Table is the compiled rewrite verdict table: one dense block of cells
// labelled for debugging, plus the side table of multi-field
// replacements the block's cells index into.
type Table struct {
	Label string
	Cells []uint32
	Side  []uint64

	owners []int32 // compile-time only: which pass wrote each cell, for the collision assertion
}

// NewTable allocates an empty table sized for the full input domain.
func NewTable(label string) *Table {
	size := NumSymbols * 2 * NumSymbols * NumSymbols
	return &Table{
		Label:  label,
		Cells:  make([]uint32, size),
		owners: make([]int32, size),
	}
}

// Lookup decodes the verdict recorded for in.
func (tb *Table) Lookup(in Input) Verdict {
	return decodeCell(tb.Cells[in.key()])
}

// Replacement resolves a verdict's side-table reference.
func (tb *Table) Replacement(idx int) ReplacementTree {
	return unpackReplacement(tb.Side[idx])
}

func refToSymbol(slots int, ref tiny.Ref, subtreeOf func(tiny.Ref) (Symbol, bool)) (Symbol, error) {
	if sym, ok := subtreeOf(ref); ok {
		return sym, nil
	}
	r := int(ref &^ tiny.IBIT)
	if r == 0 {
		return SymFalse, nil
	}
	if r <= slots {
		return varSymbol(r)
	}
	return 0, fmt.Errorf("rewrite: ref %d is not a leaf over %d slots", ref, slots)
}

// Compile enumerates every legal Input over the given slot count (an
// opaque third "subtree" operand is assigned to each of variables
// slots+1, slots+2, slots+3 in a scratch tree so tiny.AddNormalised's
// ordinary collapse logic decides every verdict) and records the result.
// Compilation order is lexicographic over (Q, TInv, T, F), matching §4.F's
// "adjacent-slot-ordering" requirement.
func Compile(slots int, owner int32) (*Table, error) {
	if slots < 1 || slots > MaxVarSymbol-3 {
		return nil, fmt.Errorf("rewrite: slots %d leaves no room for subtree placeholders", slots)
	}
	extSlots := slots + 3
	subtreeBase := slots // placeholders occupy extSlots variables slots+1..slots+3

	subtreeOf := func(ref tiny.Ref) (Symbol, bool) {
		r := int(ref &^ tiny.IBIT)
		switch r {
		case subtreeBase + 1:
			return SymSubtree0, true
		case subtreeBase + 2:
			return SymSubtree1, true
		case subtreeBase + 3:
			return SymSubtree2, true
		default:
			return 0, false
		}
	}

	symbolToRef := func(sym Symbol) (tiny.Ref, error) {
		switch sym {
		case SymFalse:
			return 0, nil
		case SymSubtree0:
			return tiny.Ref(subtreeBase + 1), nil
		case SymSubtree1:
			return tiny.Ref(subtreeBase + 2), nil
		case SymSubtree2:
			return tiny.Ref(subtreeBase + 3), nil
		default:
			if int(sym) < 1 || int(sym) > slots {
				return 0, fmt.Errorf("rewrite: symbol %d not usable at slot count %d", sym, slots)
			}
			return tiny.Ref(sym), nil
		}
	}

	tb := NewTable(fmt.Sprintf("rewrite/slots=%d", slots))
	sideIndex := make(map[uint64]int)

	symbols := append([]Symbol{SymFalse}, SymSubtree0, SymSubtree1, SymSubtree2)
	for v := 1; v <= slots; v++ {
		symbols = append(symbols, Symbol(v))
	}

	for _, qs := range symbols {
		if qs == SymFalse {
			continue // Q == 0 is never legal: AddNormalised always rewrites it away
		}
		qRef, err := symbolToRef(qs)
		if err != nil {
			return nil, err
		}
		for _, tInv := range [2]bool{false, true} {
			for _, ts := range symbols {
				tRef, err := symbolToRef(ts)
				if err != nil {
					return nil, err
				}
				if tInv {
					tRef |= tiny.IBIT
				}
				for _, fs := range symbols {
					fRef, err := symbolToRef(fs)
					if err != nil {
						return nil, err
					}

					in := Input{Q: qs, T: ts, TInv: tInv, F: fs}
					v, rep, err := compileOne(extSlots, qRef, tRef, fRef, tInv, subtreeOf)
					if err != nil {
						return nil, fmt.Errorf("rewrite: compiling %+v: %w", in, err)
					}
					if rep != nil {
						packed := rep.Pack()
						idx, ok := sideIndex[packed]
						if !ok {
							idx = len(tb.Side)
							tb.Side = append(tb.Side, packed)
							sideIndex[packed] = idx
						}
						v.SideIdx = idx
					}

					idx := in.key()
					if tb.owners[idx] != 0 && tb.owners[idx] != owner {
						existing := decodeCell(tb.Cells[idx])
						if existing != v {
							return nil, fmt.Errorf("rewrite: colliding verdicts at %+v: %+v vs %+v", in, existing, v)
						}
					}
					tb.owners[idx] = owner
					tb.Cells[idx] = encodeCell(v)
				}
			}
		}
	}

	return tb, nil
}

func compileOne(extSlots int, qRef, tRef, fRef tiny.Ref, tInv bool, subtreeOf func(tiny.Ref) (Symbol, bool)) (Verdict, *ReplacementTree, error) {
	tr := tiny.New(extSlots, false)
	result, err := tr.AddNormalised(qRef, tRef, fRef)
	if err != nil {
		// Overflow never happens for a single node over a fresh tree;
		// any error here is a genuine input-domain bug.
		return Verdict{}, nil, err
	}

	inv := result&tiny.IBIT != 0
	bare := result &^ tiny.IBIT

	switch {
	case bare == 0 && !inv:
		return Verdict{Found: true, Collapse: true, Target: targetConstFalse}, nil, nil
	case bare == 0 && inv:
		return Verdict{Found: true, Collapse: true, Target: targetConstTrue}, nil, nil
	case bare == qRef&^tiny.IBIT:
		return Verdict{Found: true, Collapse: true, Target: targetQ, Invert: inv}, nil, nil
	case bare == tRef&^tiny.IBIT:
		return Verdict{Found: true, Collapse: true, Target: targetT, Invert: inv != tInv}, nil, nil
	case bare == fRef&^tiny.IBIT:
		return Verdict{Found: true, Collapse: true, Target: targetF, Invert: inv}, nil, nil
	default:
		// A genuinely new node was built. If it stores the caller's own
		// literal (Q,T,F) ordering, the input was already canonical; any
		// other ordering is a dyadic re-expression recorded in Side.
		node := tr.Nodes[bare]
		if node.Q == qRef&^tiny.IBIT && node.T == tRef && node.F == fRef {
			return Verdict{Found: true, Power: 0}, nil, nil
		}
		slots := extSlots - 3
		nq, err := refToSymbol(slots, node.Q, subtreeOf)
		if err != nil {
			return Verdict{}, nil, err
		}
		nt, err := refToSymbol(slots, node.T&^tiny.IBIT, subtreeOf)
		if err != nil {
			return Verdict{}, nil, err
		}
		nf, err := refToSymbol(slots, node.F, subtreeOf)
		if err != nil {
			return Verdict{}, nil, err
		}
		rep := ReplacementTree{Q: nq, T: nt, TInv: node.T&tiny.IBIT != 0, F: nf}
		return Verdict{Power: 0, Invert: inv}, &rep, nil
	}
}
