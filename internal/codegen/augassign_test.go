package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/config"
	"github.com/p8c/p8c/internal/diag"
	"github.com/p8c/p8c/internal/types"
)

// newVar builds a scoped byte/word variable declaration with its scoped
// name already set, the shape the name resolver leaves behind.
func newVar(arena *ast.Arena, name string, t types.Type) *ast.VarDecl {
	vd := &ast.VarDecl{Name: name, Type: t}
	arena.Register(vd, ast.NoParent)
	vd.SetScopedName(name)
	return vd
}

func newIdent(arena *ast.Arena, vd *ast.VarDecl) *ast.IdentifierRef {
	id := &ast.IdentifierRef{Path: []string{vd.Name}, Target: vd, T: vd.Type}
	arena.Register(id, ast.NoParent)
	return id
}

func newLit(arena *ast.Arena, k types.Kind, v int64) *ast.NumericLiteral {
	n := &ast.NumericLiteral{T: k, IVal: v}
	arena.Register(n, ast.NoParent)
	return n
}

func newBinary(arena *ast.Arena, left ast.Expression, op string, right ast.Expression) *ast.BinaryExpression {
	b := &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	arena.Register(b, ast.NoParent)
	return b
}

func newAssign(arena *ast.Arena, target ast.Expression, value ast.Expression) *ast.AssignStatement {
	a := &ast.AssignStatement{Target: target, Value: value}
	arena.Register(a, ast.NoParent)
	return a
}

func newEmitter() (*Emitter, *AsmWriter, *diag.Bag) {
	w := NewAsmWriter()
	bag := diag.NewBag()
	return NewEmitter(config.Default(), bag, w), w, bag
}

// S3: ubyte x; x <<= 9 — shift by >=8 on a byte clears it instead of looping.
func TestShiftByteByNineClears(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	x := newVar(arena, "x", types.UBYTE)
	target := newIdent(arena, x)
	nine := newLit(arena, types.Ubyte, 9)
	rhs := newBinary(arena, target, "<<", nine)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	lines := w.Lines()
	for _, l := range lines {
		assert.NotContains(t, l, "asl")
	}
	found := false
	for _, l := range lines {
		if l == "\tlda #0" {
			found = true
		}
	}
	assert.True(t, found, "expected a zero-load clearing x, got: %v", lines)
}

// S4: uword w; w += 0x0200 — only the high byte moves, twice.
func TestWordAddZeroLowByteIdiom(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	wv := newVar(arena, "w", types.UWORD)
	target := newIdent(arena, wv)
	lit := newLit(arena, types.Uword, 0x0200)
	rhs := newBinary(arena, target, "+", lit)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Uword)

	require.Empty(t, bag.All())
	lines := w.Lines()
	incCount := 0
	for _, l := range lines {
		if l == "\tinc w+1" {
			incCount++
		}
		assert.NotEqual(t, "\tsta w", l)
	}
	assert.Equal(t, 2, incCount)
}

// S5's RHS is reassociated upstream by the constant folder to `a + 8`
// before codegen ever sees it; this exercises the resulting shape directly.
func TestByteAddFoldedConstant(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	eight := newLit(arena, types.Ubyte, 8)
	rhs := newBinary(arena, target, "+", eight)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	assert.Equal(t, []string{
		"\tclc",
		"\tlda a",
		"\tadc #8",
		"\tsta a",
	}, w.Lines())
}

// Associative reordering: `a = 5 + a` is augmentable via the commuted form
// even though the target sits on the right.
func TestByteAddCommutedOperand(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	five := newLit(arena, types.Ubyte, 5)
	rhs := newBinary(arena, five, "+", target)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	assert.Contains(t, w.Lines(), "\tadc #5")
}

func TestByteMulUsesSmallMultiplierTable(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	ten := newLit(arena, types.Ubyte, 10)
	rhs := newBinary(arena, target, "*", ten)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	found := false
	for _, l := range w.Lines() {
		if l == "\tjsr math.mul_byte_10" {
			found = true
		}
	}
	assert.True(t, found, "expected a call into the small-multiplier table, got: %v", w.Lines())
}

func TestByteMulFallsBackToGeneralRoutine(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	seventeen := newLit(arena, types.Ubyte, 17)
	rhs := newBinary(arena, target, "*", seventeen)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	assert.Contains(t, w.Lines(), "\tjsr "+RuntimeMultiplyBytes)
}

func TestByteDivByLiteralZeroIsFatal(t *testing.T) {
	arena := ast.NewArena()
	e, _, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	zero := newLit(arena, types.Ubyte, 0)
	rhs := newBinary(arena, target, "/", zero)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Len(t, bag.All(), 1)
	assert.Contains(t, bag.All()[0].Message, "division by zero")
}

func TestByteRemainderOfSignedIsFatal(t *testing.T) {
	arena := ast.NewArena()
	e, _, bag := newEmitter()

	a := newVar(arena, "a", types.BYTE)
	target := newIdent(arena, a)
	three := newLit(arena, types.Byte, 3)
	rhs := newBinary(arena, target, "%", three)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Byte)

	require.Len(t, bag.All(), 1)
	assert.Contains(t, bag.All()[0].Message, "remainder of signed integers")
}

func TestWordShiftByAtLeastSixteenClearsBothBytes(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	wv := newVar(arena, "w", types.UWORD)
	target := newIdent(arena, wv)
	sixteen := newLit(arena, types.Ubyte, 16)
	rhs := newBinary(arena, target, ">>", sixteen)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Uword)

	require.Empty(t, bag.All())
	assert.Contains(t, w.Lines(), "\tlda #0")
	assert.Contains(t, w.Lines(), "\tsta w")
	assert.Contains(t, w.Lines(), "\tsta w+1")
}

func TestWordShiftByWordQuantityIsFatal(t *testing.T) {
	arena := ast.NewArena()
	e, _, bag := newEmitter()

	wv := newVar(arena, "w", types.UWORD)
	target := newIdent(arena, wv)
	amount := newLit(arena, types.Uword, 2)
	rhs := newBinary(arena, target, "<<", amount)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Uword)

	require.Len(t, bag.All(), 1)
	assert.Contains(t, bag.All()[0].Message, "shift by a word quantity")
}

func TestBitwiseNotEmitsEorFF(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	not := &ast.PrefixExpression{Operator: "~", Right: target}
	arena.Register(not, ast.NoParent)
	assign := newAssign(arena, target, not)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	assert.Equal(t, []string{
		"\tlda a",
		"\teor #$ff",
		"\tsta a",
	}, w.Lines())
}

func TestNegationOnWordPropagatesBorrow(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	wv := newVar(arena, "w", types.WORD)
	target := newIdent(arena, wv)
	neg := &ast.PrefixExpression{Operator: "-", Right: target}
	arena.Register(neg, ast.NoParent)
	assign := newAssign(arena, target, neg)

	e.EmitAugmentedAssign(assign, types.Word)

	require.Empty(t, bag.All())
	assert.Equal(t, []string{
		"\tsec",
		"\tlda #0",
		"\tsbc w",
		"\tsta w",
		"\tlda #0",
		"\tsbc w+1",
		"\tsta w+1",
	}, w.Lines())
}

func TestStzIdiomUsedOn65C02Target(t *testing.T) {
	arena := ast.NewArena()
	w := NewAsmWriter()
	bag := diag.NewBag()
	cfg := config.Default()
	cfg.CPU = config.CPU65C02
	e := NewEmitter(cfg, bag, w)

	x := newVar(arena, "x", types.UBYTE)
	target := newIdent(arena, x)
	nine := newLit(arena, types.Ubyte, 9)
	rhs := newBinary(arena, target, "<<", nine)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	assert.Contains(t, w.Lines(), "\tstz x")
	for _, l := range w.Lines() {
		assert.NotEqual(t, "\tlda #0", l)
	}
}

func TestRedundantCastStripped(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	wv := newVar(arena, "w", types.UWORD)
	target := newIdent(arena, wv)
	b := newVar(arena, "b", types.UBYTE)
	bIdent := newIdent(arena, b)
	cast := &ast.TypecastExpression{Target: nil, T: types.UWORD, Value: bIdent}
	arena.Register(cast, ast.NoParent)
	rhs := newBinary(arena, target, "+", cast)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Uword)

	require.Empty(t, bag.All())
	assert.Contains(t, w.Lines(), "\tadc b")
}

// Boolean NOT of a zero-valued target must produce 1, not 0 (the
// `lda #1; eor #1` miscompile this regression guards against always yields
// 0 regardless of the branch taken).
func TestBoolNotOfZeroYieldsOne(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	a := newVar(arena, "a", types.UBYTE)
	target := newIdent(arena, a)
	not := &ast.PrefixExpression{Operator: "not", Right: target}
	arena.Register(not, ast.NoParent)
	assign := newAssign(arena, target, not)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	lines := w.Lines()
	for _, l := range lines {
		assert.NotEqual(t, "\teor #1", l, "boolnot must not XOR against a constant 1, it always yields 0")
	}
	assert.Contains(t, lines, "\tlda #1")
	assert.Contains(t, lines, "\tlda #0")
	assert.Contains(t, lines, "\tsta a")
}

// A non-literal array index must be evaluated into Y, never left as the
// "$IDX" placeholder.
func TestGeneralArrayByteOpEvaluatesIndexIntoY(t *testing.T) {
	arena := ast.NewArena()
	e, w, bag := newEmitter()

	arr := newVar(arena, "arr", types.UBYTE)
	idxVar := newVar(arena, "i", types.UBYTE)
	idxIdent := newIdent(arena, idxVar)
	target := &ast.IndexExpression{Array: newIdent(arena, arr), Index: idxIdent}
	arena.Register(target, ast.NoParent)
	five := newLit(arena, types.Ubyte, 5)
	rhs := newBinary(arena, target, "+", five)
	assign := newAssign(arena, target, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Empty(t, bag.All())
	lines := w.Lines()
	for _, l := range lines {
		assert.NotContains(t, l, "$IDX")
	}
	assert.Contains(t, lines, "\tldy i")
	assert.Contains(t, lines, "\tlda arr,y")
	assert.Contains(t, lines, "\tsta arr,y")
}

func TestLiteralTargetIsUnsupported(t *testing.T) {
	arena := ast.NewArena()
	e, _, bag := newEmitter()

	lit := newLit(arena, types.Ubyte, 1)
	one := newLit(arena, types.Ubyte, 1)
	rhs := newBinary(arena, lit, "+", one)
	assign := newAssign(arena, lit, rhs)

	e.EmitAugmentedAssign(assign, types.Ubyte)

	require.Len(t, bag.All(), 1)
}
