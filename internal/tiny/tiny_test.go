package tiny

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRawRoundTrip is boundary scenario 3 from §8: print(parse(name)) ==
// name for an already-canonical raw postfix name.
func TestRawRoundTrip(t *testing.T) {
	const name = "ab+cd>efg&?hi^!"

	tr := New(9, false)
	root, err := tr.DecodeFast(name, "")
	require.NoError(t, err)

	got, err := tr.SaveString(root, nil)
	require.NoError(t, err)
	require.Equal(t, name, got)
}

// TestSkinEvalEquivalence is boundary scenario 2 from §8: decoding a name
// under a non-identity skin yields the same footprint as manually
// substituting the remapped letters into the unmapped name.
func TestSkinEvalEquivalence(t *testing.T) {
	const name = "abc!defg!!hi!"
	const skinned = "bca!defg!!hi!" // a->b, b->c, c->a, rest identity

	t1 := New(9, false)
	root1, err := t1.DecodeSafe(name, Skin("bcadefghi"))
	require.NoError(t, err)

	t2 := New(9, false)
	root2, err := t2.DecodeSafe(skinned, "")
	require.NoError(t, err)

	lanes1 := SeedVariables(9)
	lanes2 := SeedVariables(9)

	fp1 := t1.Eval(root1, lanes1)
	fp2 := t2.Eval(root2, lanes2)

	require.True(t, fp1.Equal(fp2), "footprints diverge under skin remap")
}

func TestAddNormalisedCollapses(t *testing.T) {
	tr := New(4, false)

	a := Ref(1)
	// a AND a -> a
	r, err := tr.AddNormalised(a, a, 0)
	require.NoError(t, err)
	require.Equal(t, a, r)

	// a XOR a -> 0
	r, err = tr.AddNormalised(a, a^IBIT, a)
	require.NoError(t, err)
	require.Equal(t, Ref(0), r)

	// 0 ? a : b -> b
	b := Ref(2)
	r, err = tr.AddNormalised(0, a, b)
	require.NoError(t, err)
	require.Equal(t, b, r)
}

func TestAddNormalisedOrConstruction(t *testing.T) {
	tr := New(4, false)
	a, b := Ref(1), Ref(2)

	r, err := tr.AddNormalised(a, IBIT, b)
	require.NoError(t, err)
	require.False(t, tr.IsEndpoint(r&^IBIT))

	class, q, _, f := classify(tr, r&^IBIT)
	require.Equal(t, classOR, class)
	require.Equal(t, a, q)
	require.Equal(t, b, f)
}

func TestCompareEndpointsBeforeReferences(t *testing.T) {
	tr := New(4, false)
	a, b := Ref(1), Ref(2)

	ref, err := tr.AddNormalised(a, IBIT, b) // OR(a,b), a reference
	require.NoError(t, err)

	require.Equal(t, -1, tr.Compare(a, tr, ref))
	require.Equal(t, 1, tr.Compare(ref, tr, a))
	require.Equal(t, 0, tr.Compare(a, tr, a))
}

func TestDecodeSafeRejectsMalformed(t *testing.T) {
	tr := New(4, false)
	_, err := tr.DecodeSafe("a+", "") // '+' with only one operand
	require.Error(t, err)
}

func TestBackreferenceRoundTrip(t *testing.T) {
	tr := New(4, false)
	a, b, c := Ref(1), Ref(2), Ref(3)

	n1, err := tr.AddNormalised(a, IBIT, b) // OR(a,b)
	require.NoError(t, err)
	tr.Root, err = tr.AddNormalised(n1, c, 0) // AND(n1, c)
	require.NoError(t, err)

	name, err := tr.SaveString(tr.Root, nil)
	require.NoError(t, err)

	tr2 := New(4, false)
	root2, err := tr2.DecodeFast(name, "")
	require.NoError(t, err)

	require.Equal(t, 0, tr.Compare(tr.Root, tr2, root2))
}
