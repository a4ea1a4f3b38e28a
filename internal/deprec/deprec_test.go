package deprec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlab/qntf/internal/imprint"
)

const (
	sigA imprint.SID = 1
	sigB imprint.SID = 2
)

func TestRunLocksSoleCoverageAndDepreciatesRedundant(t *testing.T) {
	members := []Member{
		{ID: 1, Sig: sigA},
		{ID: 2, Sig: sigA}, // redundant alternate expansion of sigA
		{ID: 3, Sig: sigB, Subtrees: [3]MemberID{1, 0, 0}},
	}

	e := NewEngine(members)
	e.Run()

	require.True(t, e.Depreciated(2), "the redundant sigA expansion should be depreciated")
	require.False(t, e.Depreciated(1), "member1 is still referenced by live member3")
	require.False(t, e.Depreciated(3), "member3 is sigB's sole surviving member")
	require.True(t, e.Locked(3), "member3's removal would empty sigB's member list")
}

func TestRunCoversEverySignatureAfterCompletion(t *testing.T) {
	members := []Member{
		{ID: 1, Sig: sigA},
		{ID: 2, Sig: sigA},
		{ID: 3, Sig: sigB},
	}
	e := NewEngine(members)
	e.Run()

	sigACovered := e.live(1) || e.live(2)
	sigBCovered := e.live(3)
	require.True(t, sigACovered)
	require.True(t, sigBCovered)
}

func TestReferencedMemberNeverDepreciatedWhileReferrerLives(t *testing.T) {
	members := []Member{
		{ID: 1, Sig: sigA},
		{ID: 2, Sig: sigB, Heads: [5]MemberID{1, 0, 0, 0, 0}},
	}
	e := NewEngine(members)
	require.Equal(t, int32(1), e.refcount[1])

	e.Run()
	require.False(t, e.Depreciated(1))
}
