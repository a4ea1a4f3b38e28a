package qntf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlab/qntf/internal/imprint"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	_, completed, err := cat.Generate(1, nil, 0, func(GeneratedTree) bool { return true })
	require.NoError(t, err)
	require.True(t, completed)

	want := cat.Count()
	require.Greater(t, want, 0)

	path := filepath.Join(t.TempDir(), "catalog.qntf")
	require.NoError(t, cat.Save(path, false))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	require.Equal(t, want, reopened.Count())
	require.Equal(t, cat.Config(), reopened.Config())

	for i := 1; i <= want; i++ {
		sid := imprint.SID(i)
		orig, ok := cat.Signature(sid)
		require.True(t, ok)
		got, ok := reopened.Signature(sid)
		require.True(t, ok)
		require.Equal(t, orig.Footprint, got.Footprint)
		require.NotEmpty(t, got.Members)
	}
}

func TestSaveWithoutForceRefusesExistingFile(t *testing.T) {
	cat, err := New(Config{Slots: 2}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.qntf")
	require.NoError(t, cat.Save(path, false))
	require.Error(t, cat.Save(path, false))
	require.NoError(t, cat.Save(path, true))
}

func TestOpenPreservesSignatureFlags(t *testing.T) {
	cat, err := New(Config{Slots: 3}, nil)
	require.NoError(t, err)

	res, err := cat.Query("ab&")
	require.NoError(t, err)

	const flagKey = 1
	cat.cat.SetFlag(res.SID, flagKey)

	path := filepath.Join(t.TempDir(), "catalog.qntf")
	require.NoError(t, cat.Save(path, false))

	reopened, err := Open(path, nil)
	require.NoError(t, err)

	sig, ok := reopened.Signature(res.SID)
	require.True(t, ok)
	require.NotNil(t, sig.Flags)
	require.True(t, sig.Flags.Test(flagKey))
}
