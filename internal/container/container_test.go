package container

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "catalog.qntf")
}

func u64Section(vals ...uint64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

func TestWriteThenOpenRoundTrip(t *testing.T) {
	path := tempPath(t)

	w, err := Create(path, 9, 4, false)
	require.NoError(t, err)

	sigData := u64Section(10, 20, 30)
	require.NoError(t, w.PutSection(SecSignatures, 8, sigData))
	require.NoError(t, w.Close())

	c, err := Open(path, 9)
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, 9, c.Slots())
	require.Equal(t, 4, c.Interleave())

	data, elemSize, found := c.Section(SecSignatures)
	require.True(t, found)
	require.Equal(t, 8, elemSize)
	require.Equal(t, sigData, data)

	_, _, found = c.Section(SecMembers)
	require.False(t, found, "absent section must report found=false")
}

func TestOpenRejectsSlotsMismatch(t *testing.T) {
	path := tempPath(t)
	w, err := Create(path, 9, 1, false)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Open(path, 5)
	require.Error(t, err)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, headerSize+16), 0o644))

	_, err := Open(path, 0)
	require.Error(t, err)
}

func TestOpenRejectsTruncatedSection(t *testing.T) {
	path := tempPath(t)
	w, err := Create(path, 9, 1, false)
	require.NoError(t, err)
	require.NoError(t, w.PutSection(SecMembers, 8, u64Section(1, 2, 3, 4)))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-8], 0o644))

	_, err = Open(path, 9)
	require.Error(t, err)
}

func TestCreateWithoutForceRefusesExistingFile(t *testing.T) {
	path := tempPath(t)
	w, err := Create(path, 9, 1, false)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Create(path, 9, 1, false)
	require.Error(t, err)

	w2, err := Create(path, 9, 1, true)
	require.NoError(t, err)
	require.NoError(t, w2.Close())
}

func TestPutSectionRejectsMisalignedData(t *testing.T) {
	path := tempPath(t)
	w, err := Create(path, 9, 1, false)
	require.NoError(t, err)

	err = w.PutSection(SecMembers, 8, make([]byte, 5))
	require.Error(t, err)
}
