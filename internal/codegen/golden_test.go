package codegen

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/config"
	"github.com/p8c/p8c/internal/types"
)

// buildDemoProgram assembles a tiny hand-built program exercising a
// cross-section of the driver's statement set (augmented assignment, postfix, an if,
// a call, and a ROM-stub subroutine with no lowered body) the way a real
// front end would leave it after resolve/typecheck/reorder/fold.
func buildDemoProgram() *ast.Program {
	program := ast.NewProgram()
	arena := program.Arena

	counter := newVar(arena, "counter", types.UBYTE)
	counterRef := newIdent(arena, counter)
	one := newLit(arena, types.Ubyte, 1)
	incr := newAssign(arena, counterRef, newBinary(arena, counterRef, "+", one))

	postfix := &ast.PostfixStatement{Target: newIdent(arena, counter), Operator: "++"}
	arena.Register(postfix, ast.NoParent)

	cond := newIdent(arena, counter)
	thenCall := &ast.CallExpression{Callee: newSubRef(arena, "blink")}
	arena.Register(thenCall, ast.NoParent)
	thenStmt := &ast.CallStatement{Call: thenCall}
	arena.Register(thenStmt, ast.NoParent)
	ifStmt := &ast.IfStatement{Condition: cond, Then: []ast.Statement{thenStmt}}
	arena.Register(ifStmt, ast.NoParent)

	ret := &ast.ReturnStatement{}
	arena.Register(ret, ast.NoParent)

	start := &ast.SubroutineDecl{
		Name:      "start",
		BodyStmts: []ast.Statement{incr, postfix, ifStmt, ret},
	}
	arena.Register(start, ast.NoParent)

	addr := uint64(0xFFD2)
	blink := &ast.SubroutineDecl{Name: "blink", Address: &addr}
	arena.Register(blink, ast.NoParent)

	module := &ast.Module{Name: "demo", Stmts: []ast.Statement{start, blink}}
	arena.Register(module, program.ID())
	program.Modules = append(program.Modules, module)
	return program
}

// newSubRef builds an unresolved call-target reference by name; the demo
// program deliberately leaves it unresolved so the driver's best-effort
// `id.String()` fallback (no *ast.SubroutineDecl in Target) is exercised
// alongside the resolved path used elsewhere.
func newSubRef(arena *ast.Arena, name string) *ast.IdentifierRef {
	id := &ast.IdentifierRef{Path: []string{name}}
	arena.Register(id, ast.NoParent)
	return id
}

// TestEmitProgramGoldenAssembly snapshots the assembly listing for a small
// demo program, guarding the driver's statement dispatch (internal/codegen's
// driver.go) against accidental regressions the same way the teacher's
// internal/interp fixture suite snapshots interpreter output.
func TestEmitProgramGoldenAssembly(t *testing.T) {
	program := buildDemoProgram()
	asm, diags := EmitProgram(program, config.Default())

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.Error())
	}
	snaps.MatchSnapshot(t, asm)
}
