package semantic

import "github.com/p8c/p8c/internal/ast"

// DeadCodePass is the Dead-Code Remover (spec.md §4.6): it runs after name
// resolution and call-graph construction, so callers(sub) is meaningful.
//
// Grounded on the teacher's analyze_unused.go-shaped "collect candidates,
// then drop them in one pass" style (internal/semantic), generalized from
// DWScript's unused-class/method pruning to P8's subroutine/block/module
// granularity, plus the trivial-assignment dedup and post-terminator warning
// spec.md §4.6 adds that the teacher has no analogue for.
type DeadCodePass struct{}

func NewDeadCodePass() *DeadCodePass { return &DeadCodePass{} }

func (p *DeadCodePass) Name() string { return "Dead-Code Removal" }

func (p *DeadCodePass) Run(program *ast.Program, ctx *Context) error {
	if ctx.EntryPoint == nil {
		ctx.EntryPoint = findEntryPoint(program)
	}
	d := &deadCoder{ctx: ctx}

	for _, m := range program.Modules {
		d.removeDeadSubroutines(m)
		d.removeEmptyBlocks(m)
		m.Stmts = d.dedupeAssignments(m.Stmts)
		d.warnUnreachable(m.Stmts)
	}
	d.removeDeadModules(program)
	return nil
}

// findEntryPoint locates the subroutine named "start" (spec.md §3: the
// program entry point), searched across every module's top-level blocks.
func findEntryPoint(program *ast.Program) *ast.SubroutineDecl {
	for _, m := range program.Modules {
		for _, stmt := range m.Stmts {
			b, ok := stmt.(*ast.Block)
			if !ok {
				continue
			}
			for _, s := range b.Stmts {
				if sub, ok := s.(*ast.SubroutineDecl); ok && sub.Name == "start" {
					return sub
				}
			}
		}
	}
	return nil
}

type deadCoder struct {
	ctx *Context
}

// --- subroutine removal ---

func (d *deadCoder) removeDeadSubroutines(m *ast.Module) {
	for _, stmt := range m.Stmts {
		b, ok := stmt.(*ast.Block)
		if !ok {
			continue
		}
		b.Stmts = d.filterSubroutines(b, b.Stmts)
	}
}

func (d *deadCoder) filterSubroutines(block *ast.Block, stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		sub, ok := stmt.(*ast.SubroutineDecl)
		if !ok {
			out = append(out, stmt)
			continue
		}
		if d.keepSubroutine(block, sub) {
			out = append(out, stmt)
		}
	}
	return out
}

func (d *deadCoder) keepSubroutine(block *ast.Block, sub *ast.SubroutineDecl) bool {
	if sub == d.ctx.EntryPoint || sub.IsAsm || block.ForceOutput {
		return true
	}
	noCallers := d.ctx.Calls == nil || len(d.ctx.Calls.Callers(sub)) == 0
	if noCallers || isEmptyBody(sub.BodyStmts) {
		return false
	}
	return true
}

// --- block removal ---

func (d *deadCoder) removeEmptyBlocks(m *ast.Module) {
	out := make([]ast.Statement, 0, len(m.Stmts))
	for _, stmt := range m.Stmts {
		b, ok := stmt.(*ast.Block)
		if ok && !b.ForceOutput && isEmptyBody(b.Stmts) {
			continue
		}
		out = append(out, stmt)
	}
	m.Stmts = out
}

// isEmptyBody reports whether stmts contains neither executable code nor
// variable declarations (spec.md §4.6: the shared test for a dead
// subroutine body and a dead block).
func isEmptyBody(stmts []ast.Statement) bool {
	for _, stmt := range stmts {
		switch stmt.(type) {
		case *ast.VarDecl:
			return false
		case *ast.Directive, *ast.LabelDecl, *ast.StructDecl, *ast.SubroutineDecl:
			// declarative, not executable; keep scanning
		default:
			return false // executable statement present
		}
	}
	return true
}

// --- module removal ---

func (d *deadCoder) removeDeadModules(program *ast.Program) {
	importedBy := make(map[string]bool)
	for _, m := range program.Modules {
		for _, name := range m.ImportNames {
			importedBy[name] = true
		}
	}
	out := make([]*ast.Module, 0, len(program.Modules))
	for _, m := range program.Modules {
		if !m.IsLibrary && !importedBy[m.Name] {
			continue
		}
		if len(m.Stmts) == 0 {
			continue
		}
		out = append(out, m)
	}
	program.Modules = out
}

// --- unreachable-code warning ---

// warnUnreachable recurses through every nested statement list, warning on
// the first statement following an unconditional terminator when that
// statement is not itself a declaration the spec exempts (spec.md §4.6).
func (d *deadCoder) warnUnreachable(stmts []ast.Statement) {
	for i, stmt := range stmts {
		if i > 0 && isTerminator(stmts[i-1]) && !isExemptFollower(stmt) {
			d.ctx.Diags.Report(stmt.Pos(), "unreachable code")
		}
		d.recurseInto(stmt)
	}
}

func (d *deadCoder) recurseInto(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		d.warnUnreachable(s.Stmts)
	case *ast.SubroutineDecl:
		d.warnUnreachable(s.BodyStmts)
	case *ast.AnonScopeStatement:
		d.warnUnreachable(s.BodyStmts)
	case *ast.IfStatement:
		d.warnUnreachable(s.Then)
		d.warnUnreachable(s.Else)
	case *ast.BranchStatement:
		d.warnUnreachable(s.Body)
	case *ast.ForInStatement:
		d.warnUnreachable(s.Body)
	case *ast.WhileStatement:
		d.warnUnreachable(s.Body)
	case *ast.UntilStatement:
		d.warnUnreachable(s.Body)
	case *ast.RepeatStatement:
		d.warnUnreachable(s.Body)
	case *ast.WhenStatement:
		for _, arm := range s.Arms {
			d.warnUnreachable(arm.Body)
		}
	}
}

func isTerminator(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.BreakStatement, *ast.ReturnStatement, *ast.JumpStatement:
		return true
	case *ast.CallStatement:
		return isExitCall(s.Call)
	default:
		return false
	}
}

func isExitCall(call *ast.CallExpression) bool {
	id, ok := call.Callee.(*ast.IdentifierRef)
	if !ok || len(id.Path) == 0 {
		return false
	}
	return id.Path[len(id.Path)-1] == "exit"
}

func isExemptFollower(stmt ast.Statement) bool {
	switch stmt.(type) {
	case *ast.LabelDecl, *ast.Directive, *ast.VarDecl, *ast.InlineAsmStatement, *ast.SubroutineDecl, *ast.StructDecl:
		return true
	default:
		return false
	}
}

// --- trivial consecutive-assignment dedup ---

// dedupeAssignments recurses through stmts, removing A1 from any A1;A2 pair
// of plain assignments to the same RAM-resident target where A2's RHS is a
// trivial expression not mentioning the target (spec.md §4.6).
func (d *deadCoder) dedupeAssignments(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		d.dedupeNested(stmt)
		if len(out) > 0 && shadowsPriorAssign(out[len(out)-1], stmt) {
			out[len(out)-1] = stmt
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func (d *deadCoder) dedupeNested(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		s.Stmts = d.dedupeAssignments(s.Stmts)
	case *ast.SubroutineDecl:
		s.BodyStmts = d.dedupeAssignments(s.BodyStmts)
	case *ast.AnonScopeStatement:
		s.BodyStmts = d.dedupeAssignments(s.BodyStmts)
	case *ast.IfStatement:
		s.Then = d.dedupeAssignments(s.Then)
		s.Else = d.dedupeAssignments(s.Else)
	case *ast.BranchStatement:
		s.Body = d.dedupeAssignments(s.Body)
	case *ast.ForInStatement:
		s.Body = d.dedupeAssignments(s.Body)
	case *ast.WhileStatement:
		s.Body = d.dedupeAssignments(s.Body)
	case *ast.UntilStatement:
		s.Body = d.dedupeAssignments(s.Body)
	case *ast.RepeatStatement:
		s.Body = d.dedupeAssignments(s.Body)
	case *ast.WhenStatement:
		for _, arm := range s.Arms {
			arm.Body = d.dedupeAssignments(arm.Body)
		}
	}
}

// shadowsPriorAssign reports whether next renders prior dead: both plain
// assignments to the structurally-same RAM target, next's RHS trivial and
// silent about the target.
func shadowsPriorAssign(prior, next ast.Statement) bool {
	a1, ok := prior.(*ast.AssignStatement)
	if !ok || a1.AugOp != "" {
		return false
	}
	a2, ok := next.(*ast.AssignStatement)
	if !ok || a2.AugOp != "" {
		return false
	}
	if !sameTarget(a1.Target, a2.Target) {
		return false
	}
	if !isRAMTarget(a1.Target) {
		return false
	}
	if !isTrivialRHS(a2.Value) {
		return false
	}
	return !mentionsTarget(a2.Value, a1.Target)
}

// isRAMTarget reports whether target addresses a plain variable in regular
// RAM — a named scalar VarDecl that isn't array- or struct-typed, as
// opposed to memory-mapped, register, or stack storage.
func isRAMTarget(target ast.Expression) bool {
	id, ok := target.(*ast.IdentifierRef)
	if !ok {
		return false
	}
	vd, ok := id.Target.(*ast.VarDecl)
	if !ok {
		return false
	}
	if vd.DeclaredT != nil && vd.DeclaredT.IsArray {
		return false // indexed RAM storage is handled by the array codegen path, not here
	}
	return true
}

// isTrivialRHS reports whether e is a literal or a bare identifier read —
// never a prefix, binary, typecast, or call (spec.md §4.6).
func isTrivialRHS(e ast.Expression) bool {
	switch e.(type) {
	case *ast.NumericLiteral, *ast.StringLiteral, *ast.IdentifierRef:
		return true
	default:
		return false
	}
}

func mentionsTarget(e ast.Expression, target ast.Expression) bool {
	if sameTarget(e, target) {
		return true
	}
	switch v := e.(type) {
	case *ast.BinaryExpression:
		return mentionsTarget(v.Left, target) || mentionsTarget(v.Right, target)
	case *ast.PrefixExpression:
		return mentionsTarget(v.Right, target)
	case *ast.TypecastExpression:
		return mentionsTarget(v.Value, target)
	case *ast.IndexExpression:
		return mentionsTarget(v.Array, target) || mentionsTarget(v.Index, target)
	default:
		return false
	}
}
