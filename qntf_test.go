package qntf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeSlots(t *testing.T) {
	_, err := New(Config{Slots: 0}, nil)
	require.Error(t, err)

	_, err = New(Config{Slots: 10}, nil)
	require.Error(t, err)
}

func TestQueryCataloguesNewSignature(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	res, err := cat.Query("a")
	require.NoError(t, err)
	require.True(t, res.IsNew)
	require.Equal(t, 1, cat.Count())
}

func TestQueryIsIdempotentOnCanonicalName(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	first, err := cat.Query("a")
	require.NoError(t, err)

	second, err := cat.Query(first.Name)
	require.NoError(t, err)

	require.Equal(t, first.SID, second.SID)
	require.Equal(t, first.Name, second.Name)
	require.False(t, second.IsNew)
	require.Equal(t, 1, cat.Count())
}

func TestGenerateWalksEveryNodeCount(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	seen := 0
	_, completed, err := cat.Generate(1, nil, 0, func(GeneratedTree) bool {
		seen++
		return true
	})
	require.NoError(t, err)
	require.True(t, completed)
	require.Greater(t, seen, 0)
	require.Equal(t, seen, cat.Count())
}

func TestGenerateRespectsEmitStop(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	seen := 0
	_, completed, err := cat.Generate(1, nil, 0, func(GeneratedTree) bool {
		seen++
		return seen < 1
	})
	require.NoError(t, err)
	require.False(t, completed)
	require.Equal(t, 1, seen)
}

func TestRowsColsMatchTransformCount(t *testing.T) {
	cat, err := New(Config{Slots: 4}, nil)
	require.NoError(t, err)

	require.Equal(t, cat.XformCount(), cat.Rows()*cat.Cols())
}

func TestDepreciateReducesDuplicateMembers(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	// "ab&" and "bc&" are both "two-variable AND" shapes, permutations
	// of the same signature over different variable pairs: the second
	// query catalogues a second member name against the signature the
	// first query created.
	first, err := cat.Query("ab&")
	require.NoError(t, err)
	require.True(t, first.IsNew)

	second, err := cat.Query("bc&")
	require.NoError(t, err)
	require.Equal(t, first.SID, second.SID)
	require.False(t, second.IsNew)

	sig, ok := cat.Signature(first.SID)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(sig.Members), 1)

	eng, names, err := cat.Depreciate()
	require.NoError(t, err)
	require.Len(t, names, len(sig.Members))

	live := 0
	for id := range names {
		if !eng.Depreciated(id) {
			live++
		}
	}
	require.Equal(t, 1, live)
}

func TestCompileRewriteProducesNonEmptyTable(t *testing.T) {
	cat, err := New(Config{Slots: 4}, nil)
	require.NoError(t, err)

	tbl, err := cat.CompileRewrite()
	require.NoError(t, err)
	require.NotEmpty(t, tbl.Cells)
}
