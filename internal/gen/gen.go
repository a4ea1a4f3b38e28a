// Package gen implements Component E: the generator. It enumerates
// canonical trees of a fixed internal-node count over a fixed slot count
// by backtracking over (Q,T,F) operand choices at each node position,
// accepting only choices that tiny.AddNormalised turns into a genuinely
// new node (anything that collapses or merges into an existing one is
// pruned rather than counted).
//
// The search cursor is packed into a single uint64 (§4.E, §9's "keep the
// stack-in-a-64-bit-word representation"): 5 bits per node position hold
// that position's operand-combination index, so a caller can persist
// StackWord and later resume the same depth-first walk from exactly
// where it left off.
package gen

import (
	"github.com/ternlab/qntf/internal/tiny"
)

const (
	framesBits = 5
	frameMask  = 1<<framesBits - 1
	maxFrames  = 64 / framesBits
)

// StackWord is a packed generator cursor: frame d (5 bits wide) holds the
// operand-combination index chosen at node position d.
type StackWord uint64

// Frame returns the combination index recorded at depth d.
func (w StackWord) Frame(d int) int {
	if d >= maxFrames {
		return 0
	}
	return int((uint64(w) >> (framesBits * d)) & frameMask)
}

// WithFrame returns w with depth d's frame set to v (v is truncated to 5
// bits, per the generator's documented resume-granularity limit).
func (w StackWord) WithFrame(d, v int) StackWord {
	if d >= maxFrames {
		return w
	}
	shift := uint(framesBits * d)
	cleared := uint64(w) &^ (uint64(frameMask) << shift)
	return StackWord(cleared | (uint64(v&frameMask) << shift))
}

// combo is one candidate (Q,T,F) operand assignment for a node position.
type combo struct {
	q, f tiny.Ref
	t    tiny.Ref
	tInv bool
}

// pool lists every ref usable as an operand at the current point in the
// walk: the constant false, every variable discovered so far, the next
// undiscovered variable (if any remain), and every internal node already
// built.
func pool(tr *tiny.Tree, activeVars, slots int) []tiny.Ref {
	refs := make([]tiny.Ref, 0, activeVars+2+(tr.Count-slots-1))
	refs = append(refs, 0)
	for v := 1; v <= activeVars; v++ {
		refs = append(refs, tiny.Ref(v))
	}
	if activeVars < slots {
		refs = append(refs, tiny.Ref(activeVars+1))
	}
	for i := slots + 1; i < tr.Count; i++ {
		refs = append(refs, tiny.Ref(i))
	}
	return refs
}

// commutativePair reports the two operand fields a combo's eventual
// operator class treats as interchangeable (Q/T for AND, Q/F for OR and
// XOR), mirroring tiny's own class switch (compare.go's classify) but
// applied to the raw (q,t,f) fields before any node is built. GT, QnTF
// and QTF are not commutative and report ok=false.
func commutativePair(c combo) (a, b tiny.Ref, ok bool) {
	switch {
	case c.tInv && c.t == 0:
		return c.q, c.f, true // OR
	case c.tInv && c.f == 0:
		return 0, 0, false // GT
	case c.tInv && c.t == c.f:
		return c.q, c.f, true // XOR
	case c.tInv:
		return 0, 0, false // QnTF
	case c.f == 0:
		return c.q, c.t, true // AND
	default:
		return 0, 0, false // QTF
	}
}

// combos enumerates every (Q,T,F) operand assignment over p, dropping
// the half of the cross-product that only swaps a commutative node's two
// interchangeable operands (§3's dyadic ordering: Q<T for AND, Q<F for
// OR/XOR). q and f/t here always name refs already built in tr, so
// tr.Compare can decide the order without constructing anything; without
// this filter, combos for e.g. AND(a,b) and AND(b,a) both pass the
// "genuinely new node" check in Run's walk and the same canonical
// function gets emitted twice.
func combos(tr *tiny.Tree, p []tiny.Ref) []combo {
	out := make([]combo, 0, len(p)*len(p)*2)
	for _, q := range p {
		for _, t := range p {
			for _, inv := range [2]bool{false, true} {
				for _, f := range p {
					c := combo{q: q, t: t, tInv: inv, f: f}
					if a, b, ok := commutativePair(c); ok && tr.Compare(a, tr, b) > 0 {
						continue
					}
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func discoveredVar(slots, activeVars int, ref tiny.Ref) int {
	v := int(ref)
	if v > activeVars && v <= slots {
		return v
	}
	return 0
}

// Generator enumerates every canonical tree built from exactly numNodes
// internal nodes over slots variables.
type Generator struct {
	Slots    int
	NumNodes int
}

// New builds a Generator for the given slot and node-count budget.
func New(slots, numNodes int) *Generator {
	return &Generator{Slots: slots, NumNodes: numNodes}
}

// EmitFunc is called once per enumerated canonical tree. Returning false
// stops the walk early; Run then returns a resumable cursor.
type EmitFunc func(tr *tiny.Tree, root tiny.Ref, pos StackWord) bool

// Run walks the search space depth-first, honouring resumeFrom (nil to
// start from the beginning). It returns the next position to resume from
// and whether the walk ran to completion.
func (g *Generator) Run(resumeFrom *StackWord, emit EmitFunc) (next StackWord, completed bool) {
	tr := tiny.New(g.Slots, false)

	stopped := false
	var lastPos StackWord
	combosTaken := make([]int, g.NumNodes)

	var walk func(depth, activeVars int, onResumePath bool)
	walk = func(depth, activeVars int, onResumePath bool) {
		if stopped {
			return
		}
		if depth == g.NumNodes {
			root := tiny.Ref(tr.Count - 1)
			pos := StackWord(0)
			for d := 0; d < depth; d++ {
				pos = pos.WithFrame(d, combosTaken[d])
			}
			lastPos = pos
			if !emit(tr, root, pos) {
				stopped = true
			}
			return
		}

		p := pool(tr, activeVars, g.Slots)
		all := combos(tr, p)

		start := 0
		if onResumePath && resumeFrom != nil {
			start = resumeFrom.Frame(depth)
		}

		for i := start; i < len(all); i++ {
			if stopped {
				return
			}
			c := all[i]
			if c.q == 0 {
				continue // Q == 0 is never a legal basicNode operand
			}

			savedCount := tr.Count
			tt := c.t
			if c.tInv {
				tt |= tiny.IBIT
			}

			result, err := tr.AddNormalised(c.q, tt, c.f)
			if err != nil || int(result&^tiny.IBIT) != savedCount {
				// Overflowed, or collapsed into an existing/endpoint
				// value rather than creating a new node: prune.
				tr.Count = savedCount
				continue
			}

			newActive := activeVars
			if v := discoveredVar(g.Slots, activeVars, c.q); v > newActive {
				newActive = v
			}
			if v := discoveredVar(g.Slots, activeVars, c.t); v > newActive {
				newActive = v
			}
			if v := discoveredVar(g.Slots, activeVars, c.f); v > newActive {
				newActive = v
			}

			combosTaken[depth] = i
			walk(depth+1, newActive, onResumePath && i == start)

			tr.Count = savedCount
			if stopped {
				return
			}
		}
	}

	walk(0, 0, resumeFrom != nil)

	if stopped && g.NumNodes > 0 {
		return lastPos.WithFrame(g.NumNodes-1, lastPos.Frame(g.NumNodes-1)+1), false
	}
	return 0, true
}
