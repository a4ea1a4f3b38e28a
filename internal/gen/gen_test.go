package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlab/qntf/internal/tiny"
)

func TestGenerateOneNodeOverTwoSlots(t *testing.T) {
	g := New(2, 1)

	var roots []string
	_, completed := g.Run(nil, func(tr *tiny.Tree, root tiny.Ref, pos StackWord) bool {
		name, err := tr.SaveString(root, nil)
		require.NoError(t, err)
		roots = append(roots, name)
		return true
	})

	require.True(t, completed)
	require.NotEmpty(t, roots)
	for _, name := range roots {
		require.NotEmpty(t, name)
	}
}

func TestGenerateEarlyStopIsResumable(t *testing.T) {
	g := New(2, 1)

	var firstPassCount int
	var stopAfter StackWord
	_, completed := g.Run(nil, func(tr *tiny.Tree, root tiny.Ref, pos StackWord) bool {
		firstPassCount++
		stopAfter = pos
		return firstPassCount < 2
	})
	require.False(t, completed)

	resumeFrom := stopAfter.WithFrame(0, stopAfter.Frame(0)+1)
	var secondPassCount int
	_, completed2 := g.Run(&resumeFrom, func(tr *tiny.Tree, root tiny.Ref, pos StackWord) bool {
		secondPassCount++
		return true
	})
	require.True(t, completed2)
	require.Greater(t, secondPassCount, 0)
}

func TestGenerateNeverRepeatsACanonicalShape(t *testing.T) {
	g := New(3, 2)

	seen := make(map[string]bool)
	_, completed := g.Run(nil, func(tr *tiny.Tree, root tiny.Ref, pos StackWord) bool {
		name, err := tr.SaveString(root, nil)
		require.NoError(t, err)
		require.False(t, seen[name], "duplicate shape %q emitted", name)
		seen[name] = true
		return true
	})

	require.True(t, completed)
	require.NotEmpty(t, seen)
}

func TestGenerateOneNodeSkipsCommutativeSwap(t *testing.T) {
	// Over 2 slots, a single AND/OR/XOR node only has one pair of
	// variables to draw operands from; without the dyadic-ordering
	// filter in combos, both (a,b) and (b,a) orderings would each pass
	// the "genuinely new node" check and be emitted separately.
	g := New(2, 1)

	seen := make(map[string]bool)
	count := 0
	_, completed := g.Run(nil, func(tr *tiny.Tree, root tiny.Ref, pos StackWord) bool {
		name, err := tr.SaveString(root, nil)
		require.NoError(t, err)
		require.False(t, seen[name], "duplicate shape %q emitted", name)
		seen[name] = true
		count++
		return true
	})

	require.True(t, completed)
	require.Greater(t, count, 0)
}

func TestRestartIndexRoundTrip(t *testing.T) {
	r := NewRestartIndex()
	seq0 := r.Checkpoint(StackWord(5))
	seq1 := r.Checkpoint(StackWord(9))

	require.True(t, r.Duplicate(seq0))
	require.True(t, r.Duplicate(seq1))
	require.False(t, r.Duplicate(seq1+1))

	word, ok := r.Nearest(seq1)
	require.True(t, ok)
	require.Equal(t, StackWord(9), word)
}
