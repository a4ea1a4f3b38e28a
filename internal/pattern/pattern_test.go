package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlab/qntf/internal/imprint"
	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

func TestTablePutThenLookupHits(t *testing.T) {
	tb := NewTable()

	rec := SecondRecord{SidR: 7, TidExtract: xform.IdentityID, Power: 1}
	tb.Put(imprint.SID(1), imprint.SID(2), imprint.SID(3), xform.IdentityID, xform.IdentityID, false, rec)

	got, ok := tb.Lookup(imprint.SID(1), imprint.SID(2), imprint.SID(3), xform.IdentityID, xform.IdentityID, false)
	require.True(t, ok)
	require.Equal(t, rec, got)
}

func TestTableLookupMissForDistinctTi(t *testing.T) {
	tb := NewTable()
	rec := SecondRecord{SidR: 7, TidExtract: xform.IdentityID, Power: 1}
	tb.Put(imprint.SID(1), imprint.SID(2), imprint.SID(3), xform.IdentityID, xform.IdentityID, false, rec)

	_, ok := tb.Lookup(imprint.SID(1), imprint.SID(2), imprint.SID(3), xform.IdentityID, xform.IdentityID, true)
	require.False(t, ok)
}

func TestInternFirstReusesExistingID(t *testing.T) {
	tb := NewTable()
	key := FirstKey{SidQ: 1, SidT: 2, TidT: xform.IdentityID, Ti: false}

	id1 := tb.InternFirst(key)
	id2 := tb.InternFirst(key)
	require.Equal(t, id1, id2)

	other := tb.InternFirst(FirstKey{SidQ: 1, SidT: 2, TidT: xform.IdentityID, Ti: true})
	require.NotEqual(t, id1, other)
}

func TestBuildSlotPlanOrdersByFirstDiscovery(t *testing.T) {
	tr := tiny.New(3, false)
	a, b, c := tiny.Ref(1), tiny.Ref(2), tiny.Ref(3)

	tNode, err := tr.AddNormalised(b, c, 0) // T = b AND c
	require.NoError(t, err)

	plan := BuildSlotPlan(tr, a, tNode, 0)
	require.Equal(t, 3, plan.SlotsR)
	// Q = a contributes slot 1; T = (b AND c) contributes slots 2,3.
	require.Equal(t, []int{0, 1, 0, 0}, plan.SlotsR2Q)
	require.Equal(t, []int{0, 0, 2, 3}, plan.SlotsR2T)
	require.Equal(t, []int{0, 0, 0, 0}, plan.SlotsR2F)
}

func TestManyFirstKeysGrowTableWithoutCollision(t *testing.T) {
	tb := NewTable()
	ids := make(map[uint32]FirstKey)
	for i := 0; i < 200; i++ {
		key := FirstKey{SidQ: imprint.SID(i), SidT: imprint.SID(i * 7), TidT: xform.ID(i % 5), Ti: i%2 == 0}
		id := tb.InternFirst(key)
		ids[id] = key
	}
	for id, key := range ids {
		got, ok := tb.LookupFirst(key)
		require.True(t, ok)
		require.Equal(t, id, got)
	}
}
