package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlab/qntf/internal/imprint"
	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

func TestCascadeOrdersCommutativeOperands(t *testing.T) {
	tr := tiny.New(4, false)
	a, b := tiny.Ref(1), tiny.Ref(2)

	// Build AND(b,a) directly via basicNode-level construction by forcing
	// the "wrong" operand order through AddNormalised's raw path: since
	// AddNormalised itself doesn't reorder, this exercises level 3.
	wrong, err := tr.AddNormalised(b, a, 0)
	require.NoError(t, err)

	right, err := tr.AddNormalised(a, b, 0)
	require.NoError(t, err)

	cascadedWrong, err := Cascade(tr, wrong)
	require.NoError(t, err)
	cascadedRight, err := Cascade(tr, right)
	require.NoError(t, err)

	require.Equal(t, cascadedRight, cascadedWrong)
}

func TestCascadeFlattensNestedChainsRegardlessOfAssociation(t *testing.T) {
	tr := tiny.New(9, false)
	a, b, c := tiny.Ref(1), tiny.Ref(2), tiny.Ref(3)

	// AND(AND(a,b), c)
	ab, err := tr.AddNormalised(a, b, 0)
	require.NoError(t, err)
	leftNested, err := tr.AddNormalised(ab, c, 0)
	require.NoError(t, err)

	// AND(a, AND(b,c))
	bc, err := tr.AddNormalised(b, c, 0)
	require.NoError(t, err)
	rightNested, err := tr.AddNormalised(a, bc, 0)
	require.NoError(t, err)

	cascadedLeft, err := Cascade(tr, leftNested)
	require.NoError(t, err)
	cascadedRight, err := Cascade(tr, rightNested)
	require.NoError(t, err)

	require.Equal(t, cascadedLeft, cascadedRight)

	name, err := tr.SaveString(cascadedLeft, nil)
	require.NoError(t, err)
	require.Equal(t, "abc&&", name)
}

func TestCascadeFlattensThreeTermOrChain(t *testing.T) {
	tr := tiny.New(9, false)
	a, b, c := tiny.Ref(1), tiny.Ref(2), tiny.Ref(3)

	// c OR (b OR a): deliberately built with the largest leaf outermost
	// and the inner pair in the "wrong" order, to exercise both the
	// left/right cascade shapes and the per-leaf ordering together.
	ba, err := tr.AddNormalised(b, tiny.IBIT, a)
	require.NoError(t, err)
	cNestedBA, err := tr.AddNormalised(c, tiny.IBIT, ba)
	require.NoError(t, err)

	// a OR (b OR c), built in already-ascending order.
	bc, err := tr.AddNormalised(b, tiny.IBIT, c)
	require.NoError(t, err)
	aNestedBC, err := tr.AddNormalised(a, tiny.IBIT, bc)
	require.NoError(t, err)

	cascaded1, err := Cascade(tr, cNestedBA)
	require.NoError(t, err)
	cascaded2, err := Cascade(tr, aNestedBC)
	require.NoError(t, err)

	require.Equal(t, cascaded2, cascaded1)
}

func TestNormalizeReusesSignatureAcrossOperandOrder(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)
	cat := imprint.NewCatalog(3, xforms)

	tr1 := tiny.New(3, false)
	a, b := tiny.Ref(1), tiny.Ref(2)
	root1, err := tr1.AddNormalised(a, b, 0) // a AND b
	require.NoError(t, err)
	res1, err := Normalize(cat, tr1, root1)
	require.NoError(t, err)
	require.True(t, res1.IsNew)

	tr2 := tiny.New(3, false)
	root2, err := tr2.AddNormalised(b, a, 0) // b AND a, same function
	require.NoError(t, err)
	res2, err := Normalize(cat, tr2, root2)
	require.NoError(t, err)
	require.False(t, res2.IsNew)
	require.Equal(t, res1.SID, res2.SID)
}

func TestNormalizeIntroducesNewSignature(t *testing.T) {
	xforms, err := xform.Build(3)
	require.NoError(t, err)
	cat := imprint.NewCatalog(3, xforms)

	tr1 := tiny.New(3, false)
	a, b := tiny.Ref(1), tiny.Ref(2)
	root1, err := tr1.AddNormalised(a, b, 0) // AND
	require.NoError(t, err)
	res1, err := Normalize(cat, tr1, root1)
	require.NoError(t, err)

	tr2 := tiny.New(3, false)
	root2, err := tr2.AddNormalised(a, b|tiny.IBIT, b) // XOR
	require.NoError(t, err)
	res2, err := Normalize(cat, tr2, root2)
	require.NoError(t, err)

	require.True(t, res2.IsNew)
	require.NotEqual(t, res1.SID, res2.SID)
}
