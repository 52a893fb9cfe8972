package semantic

import (
	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// TypeCheckPass is the Type System pass (spec.md §4.3): structural, local
// type inference plus promotion/widening/narrowing checks.
type TypeCheckPass struct{}

func NewTypeCheckPass() *TypeCheckPass { return &TypeCheckPass{} }

func (p *TypeCheckPass) Name() string { return "Type Inference" }

func (p *TypeCheckPass) Run(program *ast.Program, ctx *Context) error {
	c := &checker{ctx: ctx}
	for _, m := range program.Modules {
		c.resolveDeclaredTypes(m.Stmts)
		c.checkStmts(m.Stmts)
	}
	return nil
}

type checker struct {
	ctx *Context
}

// resolveDeclaredTypes fills in VarDecl.Type/StructDecl.T/Parameter.Type
// from the syntactic TypeRef every declaration carries, recursing into
// nested scopes.
func (c *checker) resolveDeclaredTypes(stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch d := stmt.(type) {
		case *ast.VarDecl:
			d.Type = c.typeFromRef(d.DeclaredT)
		case *ast.StructDecl:
			fields := make([]types.Field, 0, len(d.Members))
			for _, m := range d.Members {
				m.Type = c.typeFromRef(m.DeclaredT)
				if sc, ok := m.Type.(types.Scalar); ok {
					fields = append(fields, types.Field{Name: m.Name, Type: sc})
				}
			}
			d.T = &types.Struct{Name: d.Name, Members: fields}
		case *ast.SubroutineDecl:
			for _, param := range d.Params {
				param.Type = c.typeFromRef(param.T)
			}
			c.resolveDeclaredTypes(d.BodyStmts)
		case *ast.Block:
			c.resolveDeclaredTypes(d.Stmts)
		case *ast.AnonScopeStatement:
			c.resolveDeclaredTypes(d.BodyStmts)
		case *ast.IfStatement:
			c.resolveDeclaredTypes(d.Then)
			c.resolveDeclaredTypes(d.Else)
		case *ast.BranchStatement:
			c.resolveDeclaredTypes(d.Body)
		case *ast.ForInStatement:
			c.resolveDeclaredTypes(d.Body)
		case *ast.WhileStatement:
			c.resolveDeclaredTypes(d.Body)
		case *ast.UntilStatement:
			c.resolveDeclaredTypes(d.Body)
		case *ast.RepeatStatement:
			c.resolveDeclaredTypes(d.Body)
		case *ast.WhenStatement:
			for _, arm := range d.Arms {
				c.resolveDeclaredTypes(arm.Body)
			}
		}
	}
}

func (c *checker) typeFromRef(t *ast.TypeRef) types.Type {
	if t == nil {
		return types.Scalar{}
	}
	if t.Scalar == types.StructKind {
		if t.ResolvedStruct != nil && t.ResolvedStruct.T != nil {
			return t.ResolvedStruct.T
		}
		return &types.Struct{Name: t.StructName}
	}
	scalar := kindToScalar(t.Scalar)
	if t.IsArray {
		return types.Array{Elem: scalar, Len: -1}
	}
	return scalar
}

func kindToScalar(k types.Kind) types.Scalar {
	switch k {
	case types.Ubyte:
		return types.UBYTE
	case types.Byte:
		return types.BYTE
	case types.Uword:
		return types.UWORD
	case types.Word:
		return types.WORD
	case types.Float:
		return types.FLOAT
	case types.Str:
		return types.STR
	default:
		return types.Scalar{}
	}
}

// checkStmts infers and checks types through every statement (spec.md
// §4.3); it is intentionally independent of resolveDeclaredTypes's
// recursion so a later reorder/desugar pass rerun needn't repeat both.
func (c *checker) checkStmts(stmts []ast.Statement) {
	for _, stmt := range stmts {
		c.checkStmt(stmt)
	}
}

func (c *checker) checkStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Init != nil {
			initT := c.inferExpr(s.Init)
			c.checkAssignable(s.Pos(), s.Type, initT, s.Init)
		}
	case *ast.SubroutineDecl:
		c.checkStmts(s.BodyStmts)
	case *ast.Block:
		c.checkStmts(s.Stmts)
	case *ast.AnonScopeStatement:
		c.checkStmts(s.BodyStmts)
	case *ast.AssignStatement:
		targetT := c.inferExpr(s.Target)
		valueT := c.inferExpr(s.Value)
		c.checkAssignable(s.Pos(), targetT, valueT, s.Value)
	case *ast.PostfixStatement:
		c.inferExpr(s.Target)
	case *ast.CallStatement:
		c.inferExpr(s.Call)
	case *ast.ReturnStatement:
		for _, v := range s.Values {
			c.inferExpr(v)
		}
	case *ast.JumpStatement:
		if s.Address != nil {
			c.inferExpr(s.Address)
		}
	case *ast.IfStatement:
		c.inferExpr(s.Condition)
		c.checkStmts(s.Then)
		c.checkStmts(s.Else)
	case *ast.BranchStatement:
		c.checkStmts(s.Body)
	case *ast.ForInStatement:
		c.inferExpr(s.Iterable)
		c.checkStmts(s.Body)
	case *ast.WhileStatement:
		c.inferExpr(s.Condition)
		c.checkStmts(s.Body)
	case *ast.UntilStatement:
		c.checkStmts(s.Body)
		c.inferExpr(s.Condition)
	case *ast.RepeatStatement:
		c.inferExpr(s.Count)
		c.checkStmts(s.Body)
	case *ast.WhenStatement:
		c.inferExpr(s.Subject)
		for _, arm := range s.Arms {
			for _, v := range arm.Values {
				c.inferExpr(v)
			}
			c.checkStmts(arm.Body)
		}
	}
}

// inferExpr assigns and returns expr's inferred type (spec.md §4.3).
func (c *checker) inferExpr(expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.NumericLiteral:
		return kindToScalar(e.T)
	case *ast.StringLiteral:
		return types.STR
	case *ast.ArrayLiteral:
		elemT := e.ElemT
		for _, el := range e.Elements {
			c.inferExpr(el)
		}
		return types.Array{Elem: kindToScalar(elemT), Len: len(e.Elements)}
	case *ast.IdentifierRef:
		t := c.declType(e.Target)
		e.T = t
		return t
	case *ast.BinaryExpression:
		lt := c.inferExpr(e.Left)
		rt := c.inferExpr(e.Right)
		t := c.promoteTypes(lt, rt)
		e.T = t
		return t
	case *ast.PrefixExpression:
		t := c.inferExpr(e.Right)
		e.T = t
		return t
	case *ast.TypecastExpression:
		c.inferExpr(e.Value)
		t := c.typeFromRef(e.Target)
		e.T = t
		return t
	case *ast.CallExpression:
		for _, a := range e.Args {
			c.inferExpr(a)
		}
		if e.Resolved != nil && len(e.Resolved.ReturnTypes) > 0 {
			t := c.typeFromRef(e.Resolved.ReturnTypes[0])
			e.T = t
			return t
		}
		return types.Scalar{}
	case *ast.MemReadExpression:
		c.inferExpr(e.Address)
		return types.UBYTE
	case *ast.AddressOfExpression:
		c.inferExpr(e.Value)
		return types.UWORD
	case *ast.RangeExpression:
		c.inferExpr(e.Start)
		c.inferExpr(e.End)
		if e.Step != nil {
			c.inferExpr(e.Step)
		}
		return kindToScalar(e.ElemT)
	case *ast.IndexExpression:
		arrT := c.inferExpr(e.Array)
		c.inferExpr(e.Index)
		if arr, ok := arrT.(types.Array); ok {
			e.T = arr.Elem
			return arr.Elem
		}
		return types.Scalar{}
	}
	return types.Scalar{}
}

func (c *checker) declType(target ast.Node) types.Type {
	switch d := target.(type) {
	case *ast.VarDecl:
		return d.Type
	case *ast.Parameter:
		return d.Type
	case *ast.StructDecl:
		return d.T
	default:
		return types.Scalar{}
	}
}

// promoteTypes applies the scalar promotion lattice (spec.md §4.3); a
// non-scalar operand (array/struct) simply propagates as-is, since P8 has
// no arithmetic defined over compound types.
func (c *checker) promoteTypes(a, b types.Type) types.Type {
	as, aok := a.(types.Scalar)
	bs, bok := b.(types.Scalar)
	if aok && bok {
		return kindToScalar(types.Promote(as.Kind(), bs.Kind()))
	}
	if aok {
		return b
	}
	return a
}

// checkAssignable enforces spec.md §4.3's assignment rule: widen if
// allowed, accept a literal that provably narrows, else require an
// explicit cast.
func (c *checker) checkAssignable(pos token.Position, target, value types.Type, valueExpr ast.Expression) {
	ts, tok := target.(types.Scalar)
	vs, vok := value.(types.Scalar)
	if !tok || !vok {
		return // array/struct compatibility is enforced by reorder/desugar and program checks
	}
	if ts.Kind() == vs.Kind() || types.Widens(vs.Kind(), ts.Kind()) {
		return
	}
	if lit, ok := valueExpr.(*ast.NumericLiteral); ok && types.FitsInByte(lit.IVal, ts.Kind()) {
		return
	}
	c.ctx.Diags.Report(pos, "cannot assign %s to %s without an explicit cast", vs, ts)
}

// IsAugmentable is the structural predicate of spec.md §4.3 gating the
// augmented-assignment codegen path: true when assign's RHS can be
// reshaped into an in-place update of its own target.
func IsAugmentable(assign *ast.AssignStatement) bool {
	return isAugmentableRHS(assign.Target, assign.Value)
}

func isAugmentableRHS(target ast.Expression, rhs ast.Expression) bool {
	switch e := rhs.(type) {
	case *ast.BinaryExpression:
		if sameTarget(target, e.Left) {
			return true // RHS = A op X (direct)
		}
		if isAssociative(e.Operator) && sameTarget(target, e.Right) {
			return true // op associative and RHS = X op A
		}
		// Two-level tree with the same operator at both levels, A appears
		// exactly once as a leaf.
		if lb, ok := e.Left.(*ast.BinaryExpression); ok && lb.Operator == e.Operator {
			if countLeaf(target, lb) == 1 && countLeaf(target, e.Right) == 0 {
				return true
			}
		}
		if rb, ok := e.Right.(*ast.BinaryExpression); ok && rb.Operator == e.Operator {
			if countLeaf(target, rb) == 1 && countLeaf(target, e.Left) == 0 {
				return true
			}
		}
		return false
	case *ast.PrefixExpression:
		return sameTarget(target, e.Right)
	case *ast.TypecastExpression:
		if sameTarget(target, e.Value) {
			return true
		}
		if inner, ok := e.Value.(*ast.TypecastExpression); ok {
			return sameTarget(target, inner.Value) // through one nested cast
		}
		return false
	default:
		return false
	}
}

func isAssociative(op string) bool {
	switch op {
	case "+", "*", "&", "|", "^":
		return true
	default:
		return false
	}
}

// sameTarget compares two expressions structurally for the same storage
// location (spec.md §4.3: "A appears exactly once as a leaf").
func sameTarget(a, b ast.Expression) bool {
	ai, aok := a.(*ast.IdentifierRef)
	bi, bok := b.(*ast.IdentifierRef)
	if aok && bok {
		return ai.String() == bi.String()
	}
	aix, aixok := a.(*ast.IndexExpression)
	bix, bixok := b.(*ast.IndexExpression)
	if aixok && bixok {
		return sameTarget(aix.Array, bix.Array) && aix.Index.String() == bix.Index.String()
	}
	return false
}

func countLeaf(target, expr ast.Expression) int {
	if sameTarget(target, expr) {
		return 1
	}
	if b, ok := expr.(*ast.BinaryExpression); ok {
		return countLeaf(target, b.Left) + countLeaf(target, b.Right)
	}
	return 0
}
