package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_ZeroValueIsEmpty(t *testing.T) {
	var d Descriptor
	assert.True(t, d.IsEmpty())
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.Steps())
}

func TestDescriptor_StepsRootFirst(t *testing.T) {
	d := Descriptor{}.
		Where(StartsWith("Symbol", "A")).
		OrderByDesc("Price").
		Skip(5).
		Take(10)

	steps := d.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, StepWhere, steps[0].Kind)
	assert.Equal(t, StepOrderBy, steps[1].Kind)
	assert.True(t, steps[1].Descending)
	assert.Equal(t, "Price", steps[1].Member)
	assert.Equal(t, Step{Kind: StepSkip, N: 5}, steps[2])
	assert.Equal(t, Step{Kind: StepTake, N: 10}, steps[3])
}

func TestDescriptor_SharesParents(t *testing.T) {
	base := Descriptor{}.Where(Gt("Price", 10))
	a := base.OrderBy("Symbol")
	b := base.Take(3)

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())
	assert.Same(t, base.last, a.last.parent)
	assert.Same(t, base.last, b.last.parent)
	assert.Equal(t, StepOrderBy, a.Steps()[1].Kind)
	assert.Equal(t, StepTake, b.Steps()[1].Kind)
}

func TestDescriptor_BindingsLaterWins(t *testing.T) {
	d := Descriptor{}.Bind("min", 1).Where(Ge("Price", Param("min"))).Bind("min", 2)
	assert.Equal(t, map[string]any{"min": 2}, d.Bindings())
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, Compare{Op: OpEq, Left: Member{Name: "Id"}, Right: Const{Value: 1}}, Eq("Id", 1))
	assert.Equal(t, Compare{Op: OpLt, Left: Member{Name: "Id"}, Right: Bound{Name: "x"}}, Lt("Id", Param("x")))
	assert.Equal(t, Like{Kind: EndsWithKind, Member: "Name", Value: Const{Value: "z"}}, EndsWith("Name", "z"))
	assert.Equal(t, IsNull{Operand: Member{Name: "Note"}, Negate: true}, NotNull("Note"))

	call := Invoke(Field("Symbol"), "StartsWith", "A")
	assert.Equal(t, "StartsWith", call.Method)
	assert.Equal(t, []Expr{Const{Value: "A"}}, call.Args)
}

func TestCompareOp_Swap(t *testing.T) {
	assert.Equal(t, OpGt, OpLt.Swap())
	assert.Equal(t, OpGe, OpLe.Swap())
	assert.Equal(t, OpLt, OpGt.Swap())
	assert.Equal(t, OpLe, OpGe.Swap())
	assert.Equal(t, OpEq, OpEq.Swap())
	assert.Equal(t, OpNe, OpNe.Swap())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Member{Name: "A"}, Normalize(&Member{Name: "A"}))
	assert.Equal(t, Eq("A", 1), Normalize(&Compare{Op: OpEq, Left: Member{Name: "A"}, Right: Const{Value: 1}}))

	var nilCompare *Compare
	assert.Nil(t, Normalize(nilCompare))
}

func TestDescribe(t *testing.T) {
	e := OrOf(AndOf(Eq("A", 1), Null("B")), NotOf(StartsWith("C", Param("p"))))
	assert.Equal(t, "((A = const(int) && B == nil) || !C.StartsWith(@p))", Describe(e))
	assert.Equal(t, "Name.ToUpper()", Describe(Invoke(Field("Name"), "ToUpper")))
}
