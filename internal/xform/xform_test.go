package xform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCount(t *testing.T) {
	for slots, want := range map[int]int{1: 1, 2: 2, 3: 6, 4: 24} {
		tab, err := Build(slots)
		require.NoError(t, err)
		require.Equal(t, want, tab.Count())
	}
}

func TestIdentityIsZero(t *testing.T) {
	tab, err := Build(4)
	require.NoError(t, err)

	id, ok := tab.Lookup("")
	require.True(t, ok)
	require.Equal(t, IdentityID, id)

	tr := tab.ByID(IdentityID)
	require.Equal(t, "abcd", tr.Name)
}

func TestLookupRoundTrip(t *testing.T) {
	tab, err := Build(4)
	require.NoError(t, err)

	for id := 0; id < tab.Count(); id++ {
		tr := tab.ByID(ID(id))
		got, ok := tab.Lookup(tr.Name)
		require.True(t, ok, "lookup of %q failed", tr.Name)
		require.Equal(t, ID(id), got)
	}
}

// TestReverseIsInverse checks ∀ transform σ, lookup(print(σ⁻¹)) ∘ σ =
// identity, per §8.
func TestReverseIsInverse(t *testing.T) {
	tab, err := Build(4)
	require.NoError(t, err)

	for id := 0; id < tab.Count(); id++ {
		rev := tab.ReverseID(ID(id))
		composed := tab.Compose(ID(id), rev)
		require.Equal(t, IdentityID, composed, "transform %q did not invert to identity", tab.ByID(ID(id)).Name)
	}
}

func TestApplyMatchesName(t *testing.T) {
	tab, err := Build(4)
	require.NoError(t, err)

	id, ok := tab.Lookup("bdac")
	require.True(t, ok)

	for slot := 0; slot < 4; slot++ {
		want := int("bdac"[slot] - 'a')
		require.Equal(t, want, tab.Apply(id, slot))
	}
}

func TestLookupUnknownLetterFails(t *testing.T) {
	tab, err := Build(3)
	require.NoError(t, err)

	_, ok := tab.Lookup("z")
	require.False(t, ok)
}
