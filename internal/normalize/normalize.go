// Package normalize implements Component C on top of packages tiny and
// imprint: level 3 (dyadic cascade ordering) and the signature lookup
// that decides whether a freshly built tree names an already-catalogued
// equivalence class or introduces a new one.
//
// Level 1 (invert propagation) and level 2 (operator-class grouping) are
// tiny.AddNormalised's job; every node this package touches has already
// passed through them by construction.
package normalize

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ternlab/qntf/internal/imprint"
	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

// compareCache memoises tr.Compare outcomes by the two operands' saved
// names rather than by tiny.Ref, since a Ref is only meaningful within
// the tree that produced it while enumeration rebuilds many structurally
// identical small subtrees (endpoints and low node-count shapes recur
// constantly) across different trees. Sized well above the number of
// distinct small-tree names a typical build encounters; eviction under
// that bound only costs a re-comparison, never correctness.
var compareCache, _ = lru.New[[2]string, int](1 << 16)

const (
	classOR = iota
	classGT
	classXOR
	classQnTF
	classAND
	classQTF
)

func classify(n tiny.Node) int {
	tu := n.T &^ tiny.IBIT
	ti := n.T&tiny.IBIT != 0

	switch {
	case ti && tu == 0:
		return classOR
	case ti && n.F == 0:
		return classGT
	case ti && tu == n.F:
		return classXOR
	case ti:
		return classQnTF
	case n.F == 0:
		return classAND
	default:
		return classQTF
	}
}

// Cascade rewrites every AND/OR/XOR cascade reachable from root into the
// canonical smallest-leftmost-at-every-level shape §4.C describes: rather
// than swapping just a single node's two immediate operands, it flattens
// whole chains of nested same-operator nodes (whichever of the four
// shapes applies: both children are same-operator cascades, only the
// left, only the right, or neither), sorts every leaf pairwise via
// tr.Compare, and rebuilds the chain right-nested (a op (b op c)) with
// the smallest leaf outermost. Because every rebuilt pair is fed back through
// AddNormalised, any redundancy the reordering happens to expose (e.g.
// two leaves turning out equal) collapses too.
//
// GT and the ternary classes are not commutative in their operand roles
// and are left as built, save for cascading their children.
func Cascade(tr *tiny.Tree, root tiny.Ref) (tiny.Ref, error) {
	memo := make(map[tiny.Ref]tiny.Ref)
	return cascadeRef(tr, root, memo)
}

func cascadeRef(tr *tiny.Tree, ref tiny.Ref, memo map[tiny.Ref]tiny.Ref) (tiny.Ref, error) {
	idx := ref &^ tiny.IBIT
	sign := ref & tiny.IBIT

	if tr.IsEndpoint(idx) {
		return ref, nil
	}
	if cached, ok := memo[idx]; ok {
		return cached ^ sign, nil
	}

	n := tr.Nodes[idx]
	qc, err := cascadeRef(tr, n.Q, memo)
	if err != nil {
		return 0, err
	}
	tc, err := cascadeRef(tr, n.T, memo)
	if err != nil {
		return 0, err
	}
	fc, err := cascadeRef(tr, n.F, memo)
	if err != nil {
		return 0, err
	}

	var result tiny.Ref
	switch class := classify(n); class {
	case classAND:
		result, err = rebuildChain(tr, class, qc, tc)
	case classOR, classXOR:
		result, err = rebuildChain(tr, class, qc, fc)
	default:
		result, err = tr.AddNormalised(qc, tc, fc)
	}
	if err != nil {
		return 0, err
	}

	memo[idx] = result
	return result ^ sign, nil
}

// rebuildChain implements §4.C's four-shape cascade flatten: it gathers
// every leaf reachable from a and b through nested nodes of the same
// class (stopping at endpoints and at operands of a different class, so
// a foreign-class subtree is carried along as one opaque leaf rather
// than being torn apart), sorts the combined list smallest-first, and
// folds it back into a chain from the largest leaf inward so that each
// fold step's smaller side (always the next-smallest leaf, by
// construction) lands in Q — matching "the smallest must sit leftmost at
// every level".
func rebuildChain(tr *tiny.Tree, class int, a, b tiny.Ref) (tiny.Ref, error) {
	leaves := append(flattenChain(tr, a, class), flattenChain(tr, b, class)...)
	sort.Slice(leaves, func(i, j int) bool { return cmp(tr, leaves[i], leaves[j]) < 0 })

	acc := leaves[len(leaves)-1]
	for i := len(leaves) - 2; i >= 0; i-- {
		lo, hi := order(tr, leaves[i], acc)

		var err error
		switch class {
		case classAND:
			acc, err = tr.AddNormalised(lo, hi, 0)
		case classOR:
			acc, err = tr.AddNormalised(lo, tiny.IBIT, hi)
		default: // classXOR
			acc, err = tr.AddNormalised(lo, hi|tiny.IBIT, hi)
		}
		if err != nil {
			return 0, err
		}
	}
	return acc, nil
}

// flattenChain returns ref's flattened chain-operand leaves when ref is
// itself built from the same class (recursing into its own Q/T or Q/F
// chain operands), or []tiny.Ref{ref} when ref is an endpoint or belongs
// to a different class — the "only the left/right is a cascade" and
// "neither is" shapes fall out of this check naturally, since a
// non-matching operand is simply carried as a single leaf.
func flattenChain(tr *tiny.Tree, ref tiny.Ref, class int) []tiny.Ref {
	idx := ref &^ tiny.IBIT
	if tr.IsEndpoint(idx) {
		return []tiny.Ref{ref}
	}

	n := tr.Nodes[idx]
	if classify(n) != class {
		return []tiny.Ref{ref}
	}

	switch class {
	case classAND:
		return append(flattenChain(tr, n.Q, class), flattenChain(tr, n.T, class)...)
	default: // classOR, classXOR
		return append(flattenChain(tr, n.Q, class), flattenChain(tr, n.F, class)...)
	}
}

// order returns (a,b) swapped if necessary so that tr.Compare(a,b) <= 0.
func order(tr *tiny.Tree, a, b tiny.Ref) (tiny.Ref, tiny.Ref) {
	if cmp(tr, a, b) > 0 {
		return b, a
	}
	return a, b
}

// cmp wraps tr.Compare through compareCache, keyed by each operand's
// saved name so the cache stays useful across the many distinct *tiny.Tree
// instances a build walks through.
func cmp(tr *tiny.Tree, a, b tiny.Ref) int {
	na, errA := tr.SaveString(a, nil)
	nb, errB := tr.SaveString(b, nil)
	if errA != nil || errB != nil {
		return tr.Compare(a, tr, b)
	}

	key := [2]string{na, nb}
	if v, ok := compareCache.Get(key); ok {
		return v
	}

	result := tr.Compare(a, tr, b)
	compareCache.Add(key, result)
	return result
}

// Result is the outcome of normalising and cataloguing one tree.
type Result struct {
	SID   imprint.SID
	TID   xform.ID
	Root  tiny.Ref
	IsNew bool
}

// Normalize runs level 3 over root, then looks the result up in cat,
// adding it as a new signature if no equivalent member is already
// catalogued (§4.C's signature lookup / "expectId" outcome). Either way,
// the canonical name this call produced is recorded among the
// signature's Members.
//
// Signature.Members is documented as "lowest node-count first"; this
// relies on callers driving Normalize in non-decreasing node-count order
// (as the generator's build pipeline does, by construction: it enumerates
// node counts 0, 1, 2, ... in sequence) rather than tracking an explicit
// node-count field per member.
func Normalize(cat *imprint.Catalog, tr *tiny.Tree, root tiny.Ref, flags ...uint) (Result, error) {
	canonical, err := Cascade(tr, root)
	if err != nil {
		return Result{}, err
	}

	name, err := tr.SaveString(canonical, nil)
	if err != nil {
		return Result{}, err
	}

	if sid, tid, found := cat.Lookup(tr, canonical); found {
		cat.AddMember(sid, name)
		return Result{SID: sid, TID: tid, Root: canonical, IsNew: false}, nil
	}

	sid := cat.Add(tr, canonical, flags...)
	cat.AddMember(sid, name)
	return Result{SID: sid, TID: xform.IdentityID, Root: canonical, IsNew: true}, nil
}
