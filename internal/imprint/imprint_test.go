package imprint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

func buildTree(t *testing.T, q, tt, f tiny.Ref) (*tiny.Tree, tiny.Ref) {
	t.Helper()
	tr := tiny.New(4, false)
	root, err := tr.AddNormalised(q, tt, f)
	require.NoError(t, err)
	return tr, root
}

func TestRowColCosetCoverage(t *testing.T) {
	xforms, err := xform.Build(4)
	require.NoError(t, err)

	cat := NewCatalog(4, xforms)
	require.Equal(t, 4, cat.Cols(), "column subgroup order must equal slots")
	require.Equal(t, xforms.Count(), cat.Rows()*cat.Cols(), "rows*cols must cover the full permutation group exactly")

	seen := make(map[xform.ID]bool, xforms.Count())
	for _, row := range cat.rowReps {
		for _, k := range cat.colSubgroup {
			tid := xforms.Compose(k, row)
			require.False(t, seen[tid], "tid %d produced by more than one (row,col) pair", tid)
			seen[tid] = true
		}
	}
	require.Len(t, seen, xforms.Count(), "every transform id must be covered by exactly one (row,col) pair")
}

func TestLookupFindsPermutedEquivalentUnderRotation(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)

	// a AND b
	tr1, root1 := buildTree(t, tiny.Ref(1), tiny.Ref(2), 0)
	sid := cat.Add(tr1, root1)

	// b AND c: a 3-cycle away from a AND b (a->b, b->c, c->a), not just a
	// transposition, exercising more than one column-subgroup element.
	tr2, root2 := buildTree(t, tiny.Ref(2), tiny.Ref(3), 0)
	got, _, found := cat.Lookup(tr2, root2)
	require.True(t, found)
	require.Equal(t, sid, got)

	// c AND a: the other direction of the same 3-cycle.
	tr3, root3 := buildTree(t, tiny.Ref(3), tiny.Ref(1), 0)
	got3, _, found3 := cat.Lookup(tr3, root3)
	require.True(t, found3)
	require.Equal(t, sid, got3)
}

func TestLookupFindsPermutedEquivalent(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)

	// a AND b
	tr1, root1 := buildTree(t, tiny.Ref(1), tiny.Ref(2), 0)
	sid := cat.Add(tr1, root1)
	require.NotEqual(t, InvalidSID, sid)

	// a AND c: equivalent to a AND b under swapping b<->c
	tr2, root2 := buildTree(t, tiny.Ref(1), tiny.Ref(3), 0)
	got, _, found := cat.Lookup(tr2, root2)
	require.True(t, found)
	require.Equal(t, sid, got)
}

func TestLookupMissForDistinctFunction(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)

	tr1, root1 := buildTree(t, tiny.Ref(1), tiny.Ref(2), 0) // AND
	cat.Add(tr1, root1)

	tr2, root2 := buildTree(t, tiny.Ref(1), tiny.Ref(2)|tiny.IBIT, tiny.Ref(2)) // XOR, not an AND orbit member
	_, _, found := cat.Lookup(tr2, root2)
	require.False(t, found)
}

func TestCatalogSignatureRoundTrip(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)
	tr, root := buildTree(t, tiny.Ref(1), tiny.Ref(2), 0)
	sid := cat.Add(tr, root, FlagSafe)

	sig, ok := cat.Signature(sid)
	require.True(t, ok)
	require.True(t, sig.Flags.Test(FlagSafe))
	require.False(t, sig.Flags.Test(FlagUnsafe))
	require.Equal(t, cat.Count(), 1)
}

func TestAddMemberDedupsAndPreservesOrder(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)
	tr, root := buildTree(t, tiny.Ref(1), tiny.Ref(2), 0)
	sid := cat.Add(tr, root)

	cat.AddMember(sid, "ab&")
	cat.AddMember(sid, "ba&")
	cat.AddMember(sid, "ab&") // duplicate, must not double up

	sig, ok := cat.Signature(sid)
	require.True(t, ok)
	require.Equal(t, []string{"ab&", "ba&"}, sig.Members)
}

func TestAddMemberIgnoresInvalidSID(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)
	cat.AddMember(InvalidSID, "a") // must not panic
	cat.AddMember(SID(99), "a")    // out of range, must not panic
}

func TestSetFlagMarksExistingSignature(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)

	cat := NewCatalog(3, xforms)
	tr, root := buildTree(t, tiny.Ref(1), tiny.Ref(2), 0)
	sid := cat.Add(tr, root)

	cat.SetFlag(sid, FlagKey)

	sig, ok := cat.Signature(sid)
	require.True(t, ok)
	require.True(t, sig.Flags.Test(FlagKey))
}

func TestIndexInvalidate(t *testing.T) {
	ix := NewIndex(2)
	fp := tiny.NewFootprint(2)
	fp[0] = 0xABCD

	require.True(t, ix.Add(fp, 7, 3))
	got, tid, ok := ix.Lookup(fp)
	require.True(t, ok)
	require.Equal(t, SID(7), got)
	require.Equal(t, xform.ID(3), tid)

	ix.Invalidate()
	_, _, ok = ix.Lookup(fp)
	require.False(t, ok)
}
