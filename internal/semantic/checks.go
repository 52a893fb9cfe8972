package semantic

import (
	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// ProgramChecksPass is Program-Level Checks (spec.md §4.8): a final sweep
// enforcing the global invariants the rest of the pipeline doesn't already
// surface as part of resolving, typing, or folding a single declaration in
// isolation.
//
// Grounded on the teacher's internal/semantic program-wide validation pass
// (run last, after every per-declaration analysis, to catch invariants that
// only make sense once the whole unit is visible — duplicate unit names,
// cross-unit reference validity) generalized from DWScript's unit-level
// checks to P8's module/struct/string/literal invariants.
type ProgramChecksPass struct{}

func NewProgramChecksPass() *ProgramChecksPass { return &ProgramChecksPass{} }

func (p *ProgramChecksPass) Name() string { return "Program-Level Checks" }

func (p *ProgramChecksPass) Run(program *ast.Program, ctx *Context) error {
	c := &checksRunner{ctx: ctx}
	c.checkDuplicateModuleNames(program)
	for _, m := range program.Modules {
		c.checkStmts(m.Stmts)
	}
	return nil
}

type checksRunner struct {
	ctx *Context
}

// checkDuplicateModuleNames reports two modules sharing one name (spec.md
// §4.8).
func (c *checksRunner) checkDuplicateModuleNames(program *ast.Program) {
	seen := make(map[string]*ast.Module)
	for _, m := range program.Modules {
		if prior, ok := seen[m.Name]; ok {
			c.ctx.Diags.Report(m.Pos(), "duplicate module name %q (also declared at %s)", m.Name, prior.Pos())
			continue
		}
		seen[m.Name] = m
	}
}

func (c *checksRunner) checkStmts(stmts []ast.Statement) {
	for _, stmt := range stmts {
		c.checkStmt(stmt)
	}
}

func (c *checksRunner) checkStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		c.checkVarDecl(s)
	case *ast.StructDecl:
		c.checkStructDecl(s)
	case *ast.SubroutineDecl:
		c.checkStmts(s.BodyStmts)
	case *ast.Block:
		c.checkStmts(s.Stmts)
	case *ast.AnonScopeStatement:
		c.checkStmts(s.BodyStmts)
	case *ast.AssignStatement:
		c.checkExpr(s.Value)
	case *ast.IfStatement:
		c.checkExpr(s.Condition)
		c.checkStmts(s.Then)
		c.checkStmts(s.Else)
	case *ast.BranchStatement:
		c.checkStmts(s.Body)
	case *ast.ForInStatement:
		c.checkExpr(s.Iterable)
		c.checkStmts(s.Body)
	case *ast.WhileStatement:
		c.checkExpr(s.Condition)
		c.checkStmts(s.Body)
	case *ast.UntilStatement:
		c.checkStmts(s.Body)
		c.checkExpr(s.Condition)
	case *ast.RepeatStatement:
		c.checkExpr(s.Count)
		c.checkStmts(s.Body)
	case *ast.WhenStatement:
		c.checkExpr(s.Subject)
		for _, arm := range s.Arms {
			for _, v := range arm.Values {
				c.checkExpr(v)
			}
			c.checkStmts(arm.Body)
		}
	case *ast.ReturnStatement:
		for _, v := range s.Values {
			c.checkExpr(v)
		}
	}
}

// checkVarDecl enforces the self-referential-initializer and
// numeric-literal-overflow rules (spec.md §4.8).
func (c *checksRunner) checkVarDecl(vd *ast.VarDecl) {
	c.checkUnknownStruct(vd.DeclaredT, vd.Pos())
	if vd.Init != nil {
		if refersToSelf(vd.Init, vd) {
			c.ctx.Diags.Report(vd.Pos(), "initializer of %q refers to itself", vd.Name)
		}
		c.checkExpr(vd.Init)
	}
	if lit, ok := vd.Init.(*ast.NumericLiteral); ok {
		c.checkOverflow(vd, lit)
	}
	if st, ok := vd.Type.(*types.Struct); ok {
		if lit, ok := vd.Init.(*ast.ArrayLiteral); ok && len(lit.Elements) != len(st.Members) {
			c.ctx.Diags.Report(vd.Pos(), "struct literal has %d elements, struct %q has %d members",
				len(lit.Elements), st.Name, len(st.Members))
		}
	}
}

// refersToSelf reports whether expr contains an IdentifierRef resolving
// back to vd itself — a recursive self-referential initializer (spec.md
// §4.8), which has no well-defined value since vd isn't assigned yet.
func refersToSelf(expr ast.Expression, vd *ast.VarDecl) bool {
	switch e := expr.(type) {
	case *ast.IdentifierRef:
		return e.Target == ast.Node(vd)
	case *ast.BinaryExpression:
		return refersToSelf(e.Left, vd) || refersToSelf(e.Right, vd)
	case *ast.PrefixExpression:
		return refersToSelf(e.Right, vd)
	case *ast.TypecastExpression:
		return refersToSelf(e.Value, vd)
	case *ast.IndexExpression:
		return refersToSelf(e.Array, vd) || refersToSelf(e.Index, vd)
	case *ast.CallExpression:
		for _, a := range e.Args {
			if refersToSelf(a, vd) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// checkOverflow reports a numeric literal initializer that does not fit the
// variable's declared type (spec.md §4.8).
func (c *checksRunner) checkOverflow(vd *ast.VarDecl, lit *ast.NumericLiteral) {
	scalar, ok := vd.Type.(types.Scalar)
	if !ok || scalar.Kind() == types.Float || lit.T == types.Float {
		return
	}
	if !types.FitsInByte(lit.IVal, scalar.Kind()) {
		c.ctx.Diags.Report(vd.Pos(), "numeric literal %d overflows declared type %s", lit.IVal, scalar)
	}
}

func (c *checksRunner) checkStructDecl(sd *ast.StructDecl) {
	for _, m := range sd.Members {
		c.checkStmt(m)
	}
}

func (c *checksRunner) checkExpr(expr ast.Expression) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.StringLiteral:
		if len(e.Value) < 1 || len(e.Value) > 255 {
			c.ctx.Diags.Report(e.Pos(), "string literal length %d is outside the allowed 1..255 bytes", len(e.Value))
		}
	case *ast.BinaryExpression:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ast.PrefixExpression:
		c.checkExpr(e.Right)
	case *ast.TypecastExpression:
		c.checkExpr(e.Value)
		c.checkUnknownStruct(e.Target, e.Pos())
	case *ast.CallExpression:
		for _, a := range e.Args {
			c.checkExpr(a)
		}
	case *ast.MemReadExpression:
		c.checkExpr(e.Address)
	case *ast.AddressOfExpression:
		c.checkExpr(e.Value)
	case *ast.RangeExpression:
		c.checkExpr(e.Start)
		c.checkExpr(e.End)
		if e.Step != nil {
			c.checkExpr(e.Step)
		}
	case *ast.IndexExpression:
		c.checkExpr(e.Array)
		c.checkExpr(e.Index)
		c.checkArrayBounds(e)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			c.checkExpr(el)
		}
	}
}

// checkUnknownStruct reports a typecast or type reference naming a struct
// that the resolver never attached (spec.md §4.8: "references into unknown
// structs"). pos is the enclosing expression's position, since TypeRef
// itself carries none.
func (c *checksRunner) checkUnknownStruct(t *ast.TypeRef, pos token.Position) {
	if t == nil {
		return
	}
	if t.StructName != "" && t.ResolvedStruct == nil {
		c.ctx.Diags.Report(pos, "reference to unknown struct %q", t.StructName)
	}
}

// checkArrayBounds reports a literal index that is provably out of range
// against a statically-sized array target.
func (c *checksRunner) checkArrayBounds(idx *ast.IndexExpression) {
	id, ok := idx.Array.(*ast.IdentifierRef)
	if !ok {
		return
	}
	vd, ok := id.Target.(*ast.VarDecl)
	if !ok || vd.DeclaredT == nil || vd.DeclaredT.ArraySize == nil {
		return
	}
	sizeLit, ok := vd.DeclaredT.ArraySize.(*ast.NumericLiteral)
	if !ok {
		return
	}
	indexLit, ok := idx.Index.(*ast.NumericLiteral)
	if !ok {
		return
	}
	if indexLit.IVal < 0 || indexLit.IVal >= sizeLit.IVal {
		c.ctx.Diags.Report(idx.Pos(), "array index %d out of bounds for %q[%d]", indexLit.IVal, vd.Name, sizeLit.IVal)
	}
}
