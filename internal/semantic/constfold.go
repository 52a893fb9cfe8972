package semantic

import (
	"math"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// ConstFoldPass is the Constant Folder (spec.md §4.5): literal evaluation,
// const-identifier inlining, algebraic re-association, range desugaring,
// for-loop iterable retyping and literal promotion on assignment, run
// together to a fixpoint.
//
// Expressions here are rewritten by direct field splice rather than through
// internal/walk's Queue, so the nodes this pass creates are not registered
// in the Arena and no parent link is re-linked, although internal/parser
// registers every node it builds there. The fixpoint discipline itself —
// collect what changed during one full pass, only stop when a pass changes
// nothing — is kept regardless (spec.md §4.1/§4.5); see DESIGN.md.
type ConstFoldPass struct{}

func NewConstFoldPass() *ConstFoldPass { return &ConstFoldPass{} }

func (p *ConstFoldPass) Name() string { return "Constant Folding" }

func (p *ConstFoldPass) Run(program *ast.Program, ctx *Context) error {
	f := &folder{ctx: ctx}
	for _, m := range program.Modules {
		for {
			changed := f.foldStmts(m.Stmts)
			ctx.FoldCount += changed
			if changed == 0 {
				break
			}
		}
	}
	return nil
}

type folder struct {
	ctx *Context
}

func (f *folder) foldStmts(stmts []ast.Statement) int {
	n := 0
	for _, stmt := range stmts {
		n += f.foldStmt(stmt)
	}
	return n
}

func (f *folder) foldStmt(stmt ast.Statement) int {
	n := 0
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Init != nil {
			var new ast.Expression
			new, n = f.fold(s.Init)
			s.Init = new
			if s.IsConst {
				if lit, ok := s.Init.(*ast.NumericLiteral); ok {
					if lit.T == types.Float {
						s.ConstValue = lit.FVal
					} else {
						s.ConstValue = lit.IVal
					}
				}
			}
		}
		n += f.foldArrayRange(s)
	case *ast.SubroutineDecl:
		n += f.foldStmts(s.BodyStmts)
	case *ast.Block:
		n += f.foldStmts(s.Stmts)
	case *ast.AnonScopeStatement:
		n += f.foldStmts(s.BodyStmts)
	case *ast.AssignStatement:
		var new ast.Expression
		new, n = f.fold(s.Value)
		s.Value = new
		n += f.promoteLiteral(s)
	case *ast.PostfixStatement:
		var nn int
		s.Target, nn = f.fold(s.Target)
		n += nn
	case *ast.CallStatement:
		for i, a := range s.Call.Args {
			var nn int
			s.Call.Args[i], nn = f.fold(a)
			n += nn
		}
	case *ast.ReturnStatement:
		for i, v := range s.Values {
			var nn int
			s.Values[i], nn = f.fold(v)
			n += nn
		}
	case *ast.IfStatement:
		var nn int
		s.Condition, nn = f.fold(s.Condition)
		n += nn
		n += f.foldStmts(s.Then)
		n += f.foldStmts(s.Else)
	case *ast.BranchStatement:
		n += f.foldStmts(s.Body)
	case *ast.ForInStatement:
		var nn int
		s.Iterable, nn = f.fold(s.Iterable)
		n += nn
		n += f.retypeForIterable(s)
		n += f.foldStmts(s.Body)
	case *ast.WhileStatement:
		var nn int
		s.Condition, nn = f.fold(s.Condition)
		n += nn
		n += f.foldStmts(s.Body)
	case *ast.UntilStatement:
		n += f.foldStmts(s.Body)
		var nn int
		s.Condition, nn = f.fold(s.Condition)
		n += nn
	case *ast.RepeatStatement:
		var nn int
		s.Count, nn = f.fold(s.Count)
		n += nn
		n += f.foldStmts(s.Body)
	case *ast.WhenStatement:
		var nn int
		s.Subject, nn = f.fold(s.Subject)
		n += nn
		for _, arm := range s.Arms {
			for i, v := range arm.Values {
				var m int
				arm.Values[i], m = f.fold(v)
				n += m
			}
			n += f.foldStmts(arm.Body)
		}
	}
	return n
}

// fold returns a possibly-rewritten expr and how many rewrites were applied
// directly to it (children are folded bottom-up first).
func (f *folder) fold(expr ast.Expression) (ast.Expression, int) {
	if expr == nil {
		return nil, 0
	}
	n := 0
	switch e := expr.(type) {
	case *ast.IdentifierRef:
		if inlined, ok := f.inlineConst(e); ok {
			return inlined, 1
		}
		return e, 0
	case *ast.PrefixExpression:
		var nn int
		e.Right, nn = f.fold(e.Right)
		n += nn
		if lit, ok := e.Right.(*ast.NumericLiteral); ok {
			if folded, ok := evalPrefix(e.Operator, lit, f.ctx); ok {
				return folded, n + 1
			}
		}
		return e, n
	case *ast.BinaryExpression:
		var ln, rn int
		e.Left, ln = f.fold(e.Left)
		e.Right, rn = f.fold(e.Right)
		n += ln + rn
		lLit, lok := e.Left.(*ast.NumericLiteral)
		rLit, rok := e.Right.(*ast.NumericLiteral)
		if lok && rok {
			if folded, ok := evalBinary(e.Operator, lLit, rLit, f.ctx, e.Pos()); ok {
				return folded, n + 1
			}
			return e, n
		}
		if reassoc, ok := reassociate(e); ok {
			return reassoc, n + 1
		}
		return e, n
	case *ast.TypecastExpression:
		var nn int
		e.Value, nn = f.fold(e.Value)
		n += nn
		if lit, ok := e.Value.(*ast.NumericLiteral); ok {
			if folded, ok := castLiteral(lit, e.Target.Scalar); ok {
				return folded, n + 1
			}
		}
		return e, n
	case *ast.CallExpression:
		for i, a := range e.Args {
			var nn int
			e.Args[i], nn = f.fold(a)
			n += nn
		}
		return e, n
	case *ast.MemReadExpression:
		var nn int
		e.Address, nn = f.fold(e.Address)
		n += nn
		return e, n
	case *ast.AddressOfExpression:
		var nn int
		e.Value, nn = f.fold(e.Value)
		n += nn
		return e, n
	case *ast.IndexExpression:
		var an, in int
		e.Array, an = f.fold(e.Array)
		e.Index, in = f.fold(e.Index)
		n += an + in
		return e, n
	case *ast.RangeExpression:
		var sn, en, tn int
		e.Start, sn = f.fold(e.Start)
		e.End, en = f.fold(e.End)
		n += sn + en
		if e.Step != nil {
			e.Step, tn = f.fold(e.Step)
			n += tn
		}
		return e, n
	case *ast.ArrayLiteral:
		for i, el := range e.Elements {
			var nn int
			e.Elements[i], nn = f.fold(el)
			n += nn
		}
		return e, n
	default:
		return expr, 0
	}
}

// inlineConst replaces a reference to a const declaration with simple
// numeric value with a copy of that literal (spec.md §4.5).
func (f *folder) inlineConst(ref *ast.IdentifierRef) (ast.Expression, bool) {
	vd, ok := ref.Target.(*ast.VarDecl)
	if !ok || !vd.IsConst {
		return nil, false
	}
	lit, ok := vd.Init.(*ast.NumericLiteral)
	if !ok {
		return nil, false
	}
	copyLit := *lit
	return &copyLit, true
}

func litFloat(l *ast.NumericLiteral) float64 {
	if l.T == types.Float {
		return l.FVal
	}
	return float64(l.IVal)
}

func newFloatLiteral(v float64) *ast.NumericLiteral {
	return &ast.NumericLiteral{T: types.Float, FVal: v}
}

// evalBinary evaluates a binary op over two constant operands (spec.md
// §4.5 "Literal evaluation"): division by zero and domain errors are
// diagnosed, not silently evaluated; float overflow is diagnosed.
func evalBinary(op string, l, r *ast.NumericLiteral, ctx *Context, pos token.Position) (ast.Expression, bool) {
	if l.T == types.Float || r.T == types.Float {
		a, b := litFloat(l), litFloat(r)
		v, ok := evalFloatOp(op, a, b, ctx, pos)
		if !ok {
			return nil, false
		}
		if math.IsInf(v, 0) || math.Abs(v) > floatMax {
			ctx.Diags.Report(pos, "float result overflows the 5-byte float range")
			return nil, false
		}
		return newFloatLiteral(v), true
	}
	resultKind := types.Promote(l.T, r.T)
	a, b := l.IVal, r.IVal
	switch op {
	case "+":
		return &ast.NumericLiteral{T: resultKind, IVal: a + b}, true
	case "-":
		return &ast.NumericLiteral{T: resultKind, IVal: a - b}, true
	case "*":
		return &ast.NumericLiteral{T: resultKind, IVal: a * b}, true
	case "/":
		if b == 0 {
			ctx.Diags.ReportFatal(pos, "division by a literal zero")
			return nil, false
		}
		return &ast.NumericLiteral{T: resultKind, IVal: a / b}, true
	case "%":
		if b == 0 {
			ctx.Diags.ReportFatal(pos, "division by a literal zero")
			return nil, false
		}
		if types.IsSigned(resultKind) {
			ctx.Diags.ReportFatal(pos, "remainder of signed integers is not defined")
			return nil, false
		}
		return &ast.NumericLiteral{T: resultKind, IVal: a % b}, true
	case "&":
		return &ast.NumericLiteral{T: resultKind, IVal: a & b}, true
	case "|":
		return &ast.NumericLiteral{T: resultKind, IVal: a | b}, true
	case "^":
		return &ast.NumericLiteral{T: resultKind, IVal: a ^ b}, true
	case "<<":
		if b >= 64 {
			ctx.Diags.ReportFatal(pos, "shift by a word quantity is not supported")
			return nil, false
		}
		return &ast.NumericLiteral{T: resultKind, IVal: a << uint(b)}, true
	case ">>":
		if b >= 64 {
			ctx.Diags.ReportFatal(pos, "shift by a word quantity is not supported")
			return nil, false
		}
		return &ast.NumericLiteral{T: resultKind, IVal: a >> uint(b)}, true
	case "==":
		return boolLiteral(a == b), true
	case "!=":
		return boolLiteral(a != b), true
	case "<":
		return boolLiteral(a < b), true
	case "<=":
		return boolLiteral(a <= b), true
	case ">":
		return boolLiteral(a > b), true
	case ">=":
		return boolLiteral(a >= b), true
	case "and":
		return boolLiteral(a != 0 && b != 0), true
	case "or":
		return boolLiteral(a != 0 || b != 0), true
	default:
		return nil, false
	}
}

// floatMax is the largest magnitude representable by the 5-byte Commodore
// float format (spec.md §4.5 "5-byte float range").
const floatMax = 1.7014118346e+38

func evalFloatOp(op string, a, b float64, ctx *Context, pos token.Position) (float64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			ctx.Diags.ReportFatal(pos, "division by a literal zero")
			return 0, false
		}
		return a / b, true
	default:
		return 0, false
	}
}

func boolLiteral(v bool) *ast.NumericLiteral {
	if v {
		return &ast.NumericLiteral{T: types.Ubyte, IVal: 1}
	}
	return &ast.NumericLiteral{T: types.Ubyte, IVal: 0}
}

// evalPrefix evaluates a prefix operator over a constant operand.
func evalPrefix(op string, v *ast.NumericLiteral, ctx *Context) (ast.Expression, bool) {
	switch op {
	case "-":
		if v.T == types.Float {
			return newFloatLiteral(-v.FVal), true
		}
		return &ast.NumericLiteral{T: v.T, IVal: -v.IVal}, true
	case "+":
		return v, true
	case "~":
		if v.T == types.Float {
			return nil, false
		}
		return &ast.NumericLiteral{T: v.T, IVal: ^v.IVal}, true
	case "not":
		return boolLiteral(v.IVal == 0), true
	default:
		return nil, false
	}
}

// castLiteral folds a typecast of a constant literal to a concrete numeric
// kind, for range-bound/loop-retyping and for-loop folding.
func castLiteral(v *ast.NumericLiteral, target types.Kind) (ast.Expression, bool) {
	switch target {
	case types.Float:
		return newFloatLiteral(litFloat(v)), true
	case types.Ubyte, types.Byte, types.Uword, types.Word:
		if v.T == types.Float {
			return &ast.NumericLiteral{T: target, IVal: int64(v.FVal)}, true
		}
		return &ast.NumericLiteral{T: target, IVal: v.IVal}, true
	default:
		return nil, false
	}
}

// reassociate implements spec.md §4.5's "group two constants" table: for
// `X op1 (Y op2 Z)` where exactly one of {X, Y, Z} is non-constant and the
// other two are constants, rewrite to bring the two constants adjacent,
// preserving value. Only over a single consistent integer-or-float type.
func reassociate(e *ast.BinaryExpression) (ast.Expression, bool) {
	// Left-nested: (c1 op1 T) op2 c2, or (T op1 c1) op2 c2
	if lb, ok := e.Left.(*ast.BinaryExpression); ok {
		if c1, okc1 := lb.Left.(*ast.NumericLiteral); okc1 {
			if t, okt := asNonConst(lb.Right); okt {
				if c2, okc2 := e.Right.(*ast.NumericLiteral); okc2 && sameNumericType(c1, c2) {
					return reassocRewrite(lb.Operator, e.Operator, c1, t, c2, true)
				}
			}
		}
		if c1, okc1 := lb.Right.(*ast.NumericLiteral); okc1 {
			if t, okt := asNonConst(lb.Left); okt {
				if c2, okc2 := e.Right.(*ast.NumericLiteral); okc2 && sameNumericType(c1, c2) {
					return reassocRewrite(lb.Operator, e.Operator, c1, t, c2, false)
				}
			}
		}
	}
	// Right-nested: c1 op1 (c2 op2 T), or c1 op1 (T op2 c2)
	if c1, ok := e.Left.(*ast.NumericLiteral); ok {
		if rb, okb := e.Right.(*ast.BinaryExpression); okb {
			if c2, okc2 := rb.Left.(*ast.NumericLiteral); okc2 {
				if t, okt := asNonConst(rb.Right); okt && sameNumericType(c1, c2) {
					return reassocRightRewrite(e.Operator, rb.Operator, c1, c2, t)
				}
			}
			if c2, okc2 := rb.Right.(*ast.NumericLiteral); okc2 {
				if t, okt := asNonConst(rb.Left); okt && sameNumericType(c1, c2) {
					switch {
					case e.Operator == "+" && rb.Operator == "-":
						// c1 + (T-c2) -> T + (c1-c2)
						return &ast.BinaryExpression{Left: t, Operator: "+", Right: combine("-", c1, c2)}, true
					case e.Operator == "*" && rb.Operator == "/":
						// c1 * (T/c2) -> (c1/c2) * T
						return &ast.BinaryExpression{Left: combine("/", c1, c2), Operator: "*", Right: t}, true
					}
					return reassocRightRewrite(e.Operator, rb.Operator, c1, c2, t)
				}
			}
		}
	}
	return nil, false
}

func asNonConst(e ast.Expression) (ast.Expression, bool) {
	if _, ok := e.(*ast.NumericLiteral); ok {
		return nil, false
	}
	return e, true
}

func sameNumericType(a, b *ast.NumericLiteral) bool {
	isFloat := func(k types.Kind) bool { return k == types.Float }
	return isFloat(a.T) == isFloat(b.T)
}

// reassocRewrite handles the left-nested forms `(c1 + T) - c2` etc.
// leftIsConst reports whether lb's constant leaf was on the left (c1 op T)
// as opposed to the right (T op c1).
func reassocRewrite(innerOp, outerOp string, c1 *ast.NumericLiteral, t ast.Expression, c2 *ast.NumericLiteral, leftIsConst bool) (ast.Expression, bool) {
	_ = leftIsConst
	switch {
	case innerOp == "+" && outerOp == "+":
		// (c1+T)+c2 or (T+c1)+c2 -> T + (c1+c2)
		return &ast.BinaryExpression{Left: t, Operator: "+", Right: combine("+", c1, c2)}, true
	case innerOp == "+" && outerOp == "-":
		// (c1+T)-c2 or (T+c1)-c2 -> T + (c1-c2)
		return &ast.BinaryExpression{Left: t, Operator: "+", Right: combine("-", c1, c2)}, true
	case innerOp == "-" && outerOp == "+" && !leftIsConst:
		// (T-c1)+c2 -> T + (c2-c1) ... not enumerated; skip
		return nil, false
	case innerOp == "-" && outerOp == "+" && leftIsConst:
		// (c1-T)+c2 -> (c1+c2)-T
		return &ast.BinaryExpression{Left: combine("+", c1, c2), Operator: "-", Right: t}, true
	case innerOp == "*" && outerOp == "*":
		return &ast.BinaryExpression{Left: t, Operator: "*", Right: combine("*", c1, c2)}, true
	case innerOp == "*" && outerOp == "/" && !leftIsConst:
		// (T*c1)/c2 -> T * (c1/c2)
		return &ast.BinaryExpression{Left: t, Operator: "*", Right: combine("/", c1, c2)}, true
	case innerOp == "*" && outerOp == "/" && leftIsConst:
		// (c1*T)/c2 -> (c1/c2)*T
		return &ast.BinaryExpression{Left: combine("/", c1, c2), Operator: "*", Right: t}, true
	case innerOp == "/" && outerOp == "*" && leftIsConst:
		// (c1/T)*c2 -> (c1*c2)/T
		return &ast.BinaryExpression{Left: combine("*", c1, c2), Operator: "/", Right: t}, true
	case innerOp == "/" && outerOp == "*" && !leftIsConst:
		// (T/c1)*c2 -> (c2/c1)*T
		return &ast.BinaryExpression{Left: combine("/", c2, c1), Operator: "*", Right: t}, true
	default:
		return nil, false
	}
}

// reassocRightRewrite handles the right-nested forms `c1 + (c2 + T)` etc.
func reassocRightRewrite(outerOp, innerOp string, c1, c2 *ast.NumericLiteral, t ast.Expression) (ast.Expression, bool) {
	switch {
	case outerOp == "+" && innerOp == "+":
		// c1 + (c2+T) or c1 + (T+c2) -> T + (c1+c2)
		return &ast.BinaryExpression{Left: t, Operator: "+", Right: combine("+", c1, c2)}, true
	case outerOp == "*" && innerOp == "*":
		return &ast.BinaryExpression{Left: t, Operator: "*", Right: combine("*", c1, c2)}, true
	case outerOp == "-" && innerOp == "+":
		// c1 - (c2+T) or c1 - (T+c2) -> (c1-c2) - T
		return &ast.BinaryExpression{Left: combine("-", c1, c2), Operator: "-", Right: t}, true
	case outerOp == "+" && innerOp == "-":
		// c1 + (c2-T) -> (c1+c2) - T
		return &ast.BinaryExpression{Left: combine("+", c1, c2), Operator: "-", Right: t}, true
	case outerOp == "/" && innerOp == "*":
		// c1 / (c2*T) or c1 / (T*c2) -> (c1/c2) / T
		return &ast.BinaryExpression{Left: combine("/", c1, c2), Operator: "/", Right: t}, true
	case outerOp == "*" && innerOp == "/":
		// c1 * (c2/T) -> (c1*c2) / T
		return &ast.BinaryExpression{Left: combine("*", c1, c2), Operator: "/", Right: t}, true
	default:
		return nil, false
	}
}

// combine evaluates op over two constant literals at fold time (the two
// constants the re-association table brings together).
func combine(op string, a, b *ast.NumericLiteral) *ast.NumericLiteral {
	if a.T == types.Float || b.T == types.Float {
		av, bv := litFloat(a), litFloat(b)
		switch op {
		case "+":
			return newFloatLiteral(av + bv)
		case "-":
			return newFloatLiteral(av - bv)
		case "*":
			return newFloatLiteral(av * bv)
		case "/":
			return newFloatLiteral(av / bv)
		}
	}
	resultKind := types.Promote(a.T, b.T)
	switch op {
	case "+":
		return &ast.NumericLiteral{T: resultKind, IVal: a.IVal + b.IVal}
	case "-":
		return &ast.NumericLiteral{T: resultKind, IVal: a.IVal - b.IVal}
	case "*":
		return &ast.NumericLiteral{T: resultKind, IVal: a.IVal * b.IVal}
	case "/":
		return &ast.NumericLiteral{T: resultKind, IVal: a.IVal / b.IVal}
	}
	return a
}

// foldArrayRange desugars a range-initialized integer array declaration
// into a literal array when bounds and step are constant (spec.md §4.5
// "Range desugaring"), and checks its size against a declared array size.
func (f *folder) foldArrayRange(vd *ast.VarDecl) int {
	rng, ok := vd.Init.(*ast.RangeExpression)
	if !ok || vd.DeclaredT == nil || !vd.DeclaredT.IsArray {
		return 0
	}
	start, ok1 := rng.Start.(*ast.NumericLiteral)
	end, ok2 := rng.End.(*ast.NumericLiteral)
	if !ok1 || !ok2 {
		return 0
	}
	step := int64(1)
	if rng.Step != nil {
		stepLit, ok3 := rng.Step.(*ast.NumericLiteral)
		if !ok3 {
			return 0
		}
		step = stepLit.IVal
	}
	if step == 0 {
		f.ctx.Diags.ReportFatal(vd.Pos(), "range step must not be zero")
		return 0
	}
	var elems []ast.Expression
	if step > 0 {
		for v := start.IVal; v <= end.IVal; v += step {
			elems = append(elems, &ast.NumericLiteral{T: rng.ElemT, IVal: v})
		}
	} else {
		for v := start.IVal; v >= end.IVal; v += step {
			elems = append(elems, &ast.NumericLiteral{T: rng.ElemT, IVal: v})
		}
	}
	if vd.DeclaredT.ArraySize != nil {
		if szLit, ok := vd.DeclaredT.ArraySize.(*ast.NumericLiteral); ok {
			if int(szLit.IVal) != len(elems) {
				f.ctx.Diags.Report(vd.Pos(), "range produces %d elements, declared array size is %d", len(elems), szLit.IVal)
			}
		}
	}
	vd.Init = &ast.ArrayLiteral{Elements: elems, ElemT: rng.ElemT}
	return 1
}

// retypeForIterable casts a for-loop's range bounds to the loop variable's
// type when they differ and constant casting is available (spec.md §4.5
// "For-loop iterable retyping").
func (f *folder) retypeForIterable(fs *ast.ForInStatement) int {
	rng, ok := fs.Iterable.(*ast.RangeExpression)
	if !ok || fs.VarType == nil {
		return 0
	}
	target := fs.VarType.Scalar
	if target == rng.ElemT {
		return 0
	}
	n := 0
	if lit, ok := rng.Start.(*ast.NumericLiteral); ok {
		if casted, ok := castLiteral(lit, target); ok {
			rng.Start = casted
			n++
		}
	}
	if lit, ok := rng.End.(*ast.NumericLiteral); ok {
		if casted, ok := castLiteral(lit, target); ok {
			rng.End = casted
			n++
		}
	}
	if rng.Step != nil {
		if lit, ok := rng.Step.(*ast.NumericLiteral); ok {
			if casted, ok := castLiteral(lit, target); ok {
				rng.Step = casted
				n++
			}
		}
	}
	if n > 0 {
		rng.ElemT = target
	}
	return n
}

// promoteLiteral retypes an assignment's RHS literal in place to match a
// wider (or provably-fitting narrower) target type (spec.md §4.5 "Literal
// promotion on assignment").
func (f *folder) promoteLiteral(assign *ast.AssignStatement) int {
	lit, ok := assign.Value.(*ast.NumericLiteral)
	if !ok {
		return 0
	}
	targetRef, ok := assign.Target.(*ast.IdentifierRef)
	if !ok {
		return 0
	}
	vd, ok := targetRef.Target.(*ast.VarDecl)
	if !ok {
		return 0
	}
	scalar, ok := vd.Type.(types.Scalar)
	if !ok || scalar.Kind() == lit.T {
		return 0
	}
	if types.Widens(lit.T, scalar.Kind()) || types.FitsInByte(lit.IVal, scalar.Kind()) {
		lit.T = scalar.Kind()
		return 1
	}
	return 0
}
