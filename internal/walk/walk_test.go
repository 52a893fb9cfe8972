package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/types"
)

func registerBlock(arena *ast.Arena, name string, stmts []ast.Statement, parent ast.NodeID) *ast.Block {
	b := &ast.Block{Name: name, Stmts: stmts}
	arena.Register(b, parent)
	arena.Adopt(b, toNodes(stmts)...)
	return b
}

func toNodes(stmts []ast.Statement) []ast.Node {
	out := make([]ast.Node, len(stmts))
	for i, s := range stmts {
		out[i] = s
	}
	return out
}

func numLit(arena *ast.Arena, v int64) *ast.NumericLiteral {
	n := &ast.NumericLiteral{T: types.Ubyte, IVal: v}
	arena.Register(n, ast.NoParent)
	return n
}

func varDecl(arena *ast.Arena, name string, init ast.Expression) *ast.VarDecl {
	v := &ast.VarDecl{Name: name, Init: init}
	arena.Register(v, ast.NoParent)
	if init != nil {
		arena.Adopt(v, init)
	}
	return v
}

func TestWalkVisitsEveryNodeInOrder(t *testing.T) {
	arena := ast.NewArena()
	a := numLit(arena, 1)
	decl := varDecl(arena, "x", a)
	block := registerBlock(arena, "blk", []ast.Statement{decl}, ast.NoParent)

	var seen []ast.Node
	Walk(block, func(n ast.Node) bool {
		seen = append(seen, n)
		return true
	})

	require.Len(t, seen, 3)
	assert.Same(t, ast.Node(block), seen[0])
	assert.Same(t, ast.Node(decl), seen[1])
	assert.Same(t, ast.Node(a), seen[2])
}

func TestWalkSkipsChildrenWhenFnReturnsFalse(t *testing.T) {
	arena := ast.NewArena()
	a := numLit(arena, 1)
	decl := varDecl(arena, "x", a)
	block := registerBlock(arena, "blk", []ast.Statement{decl}, ast.NoParent)

	var seen []ast.Node
	Walk(block, func(n ast.Node) bool {
		seen = append(seen, n)
		return n != ast.Node(decl)
	})

	require.Len(t, seen, 2)
	assert.Same(t, ast.Node(decl), seen[1])
}

func TestRunOnceAppliesQueuedStatementRemoval(t *testing.T) {
	arena := ast.NewArena()
	first := varDecl(arena, "a", numLit(arena, 1))
	second := varDecl(arena, "b", numLit(arena, 2))
	block := registerBlock(arena, "blk", []ast.Statement{first, second}, ast.NoParent)

	applied := RunOnce(block, arena, func(n ast.Node, q *Queue) {
		vd, ok := n.(*ast.VarDecl)
		if !ok || vd.Name != "a" {
			return
		}
		q.Enqueue(RemoveStmt(&block.Stmts, vd))
	})

	assert.Equal(t, 1, applied)
	require.Len(t, block.Stmts, 1)
	assert.Same(t, ast.Statement(second), block.Stmts[0])
}

func TestRunOnceAppliesQueuedInsertAfter(t *testing.T) {
	arena := ast.NewArena()
	first := varDecl(arena, "a", numLit(arena, 1))
	block := registerBlock(arena, "blk", []ast.Statement{first}, ast.NoParent)
	inserted := varDecl(arena, "b", numLit(arena, 2))

	applied := RunOnce(block, arena, func(n ast.Node, q *Queue) {
		vd, ok := n.(*ast.VarDecl)
		if !ok || vd.Name != "a" {
			return
		}
		q.Enqueue(InsertAfterStmt(&block.Stmts, vd, inserted, block))
	})

	assert.Equal(t, 1, applied)
	require.Len(t, block.Stmts, 2)
	assert.Same(t, ast.Statement(inserted), block.Stmts[1])
	assert.Equal(t, block.ID(), arena.Parent(inserted.ID()))
}

// TestRunToFixpointFoldsNestedLiterals exercises ReplaceExpr through a
// hand-rolled mutating pass that keeps folding an addition of two numeric
// literals into a single literal until nothing more can be folded, the
// same two-phase discipline the constant folder's fixpoint loop relies on.
func TestRunToFixpointFoldsNestedLiterals(t *testing.T) {
	arena := ast.NewArena()
	one := numLit(arena, 1)
	two := numLit(arena, 2)
	sumLeft := &ast.BinaryExpression{Left: one, Operator: "+", Right: two}
	arena.Register(sumLeft, ast.NoParent)
	arena.Adopt(sumLeft, one, two)

	three := numLit(arena, 3)
	sumOuter := &ast.BinaryExpression{Left: sumLeft, Operator: "+", Right: three}
	arena.Register(sumOuter, ast.NoParent)
	arena.Adopt(sumOuter, sumLeft, three)

	decl := varDecl(arena, "total", sumOuter)
	block := registerBlock(arena, "blk", []ast.Statement{decl}, ast.NoParent)

	applied := RunToFixpoint(block, arena, func(n ast.Node, q *Queue) {
		bin, ok := n.(*ast.BinaryExpression)
		if !ok || bin.Operator != "+" {
			return
		}
		l, lok := bin.Left.(*ast.NumericLiteral)
		r, rok := bin.Right.(*ast.NumericLiteral)
		if !lok || !rok {
			return
		}
		folded := &ast.NumericLiteral{T: types.Ubyte, IVal: l.IVal + r.IVal}
		arena.Register(folded, ast.NoParent)
		parent := arena.Get(arena.Parent(bin.ID()))
		if parent == nil {
			return
		}
		q.Enqueue(ReplaceExpr(parent, bin, folded))
	})

	require.Greater(t, applied, 0)
	final, ok := decl.Init.(*ast.NumericLiteral)
	require.True(t, ok, "expected Init to fold down to a single literal, got %T", decl.Init)
	assert.Equal(t, int64(6), final.IVal)
}

func TestQueueLenReflectsEnqueuedMods(t *testing.T) {
	arena := ast.NewArena()
	decl := varDecl(arena, "a", numLit(arena, 1))
	block := registerBlock(arena, "blk", []ast.Statement{decl}, ast.NoParent)

	q := &Queue{}
	assert.Equal(t, 0, q.Len())
	q.Enqueue(RemoveStmt(&block.Stmts, decl))
	assert.Equal(t, 1, q.Len())
}
