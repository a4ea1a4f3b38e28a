package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileAlreadyCanonicalAND(t *testing.T) {
	tb, err := Compile(2, 1)
	require.NoError(t, err)

	v := tb.Lookup(Input{Q: 1, T: 2, TInv: false, F: SymFalse})
	require.True(t, v.Found)
	require.False(t, v.Collapse)
	require.Equal(t, 0, v.Power)
}

func TestCompileAlreadyCanonicalOR(t *testing.T) {
	tb, err := Compile(2, 1)
	require.NoError(t, err)

	v := tb.Lookup(Input{Q: 1, T: SymFalse, TInv: true, F: 2})
	require.True(t, v.Found)
	require.False(t, v.Collapse)
}

func TestCompileCollapsesSelfAND(t *testing.T) {
	tb, err := Compile(2, 1)
	require.NoError(t, err)

	v := tb.Lookup(Input{Q: 1, T: 1, TInv: false, F: SymFalse})
	require.True(t, v.Found)
	require.True(t, v.Collapse)
	require.Equal(t, targetQ, v.Target)
	require.False(t, v.Invert)
}

func TestCompileRecordsGTSideTableReplacement(t *testing.T) {
	tb, err := Compile(2, 1)
	require.NoError(t, err)

	v := tb.Lookup(Input{Q: 1, T: 2, TInv: true, F: 1})
	require.False(t, v.Found)
	require.False(t, v.Collapse)

	rep := tb.Replacement(v.SideIdx)
	require.Equal(t, ReplacementTree{Q: 1, T: 2, F: SymFalse, TInv: true}, rep)
}

func TestCompileRejectsTooFewRoomForSubtrees(t *testing.T) {
	_, err := Compile(MaxVarSymbol, 1)
	require.Error(t, err)
}

func TestReplacementPackRoundTrip(t *testing.T) {
	rep := ReplacementTree{Q: SymSubtree1, T: 4, F: SymFalse, TInv: true}
	require.Equal(t, rep, unpackReplacement(rep.Pack()))
}
