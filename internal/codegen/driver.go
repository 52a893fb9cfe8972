package codegen

import (
	"fmt"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/config"
	"github.com/p8c/p8c/internal/diag"
	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// EmitProgram is the codegen driver's entry point: it walks every module's
// subroutines and emits what the augmented-assignment emitter and this
// file's small statement dispatcher know how to lower, in program order.
// Unlike EmitAugmentedAssign (spec.md §4.9, the component this package
// started from), there is no general-purpose expression/control-flow
// backend here yet; unsupported statement shapes are reported as Fatal
// diagnostics (spec.md §7: "fatal for the current function") rather than
// silently dropped, so a compile command built on this driver never
// produces output it cannot account for.
func EmitProgram(program *ast.Program, cfg config.Options) (string, *diag.Bag) {
	diags := diag.NewBag()
	w := NewAsmWriter()
	e := NewEmitter(cfg, diags, w)

	for _, mod := range program.Modules {
		w.Comment(fmt.Sprintf("module %s", mod.Name))
		for _, stmt := range mod.Stmts {
			e.emitTopLevel(stmt)
		}
	}
	return w.String(), diags
}

func (e *Emitter) emitTopLevel(stmt ast.Statement) {
	sub, ok := stmt.(*ast.SubroutineDecl)
	if !ok {
		// Struct/variable declarations describe storage, not instructions;
		// the memory-layout pass that would reserve space for them is a
		// separate, not-yet-built component (spec.md §4.2's ScopedName
		// plumbing exists for it, but no allocator consumes it here).
		return
	}
	e.emitSubroutine(sub)
}

func (e *Emitter) emitSubroutine(sub *ast.SubroutineDecl) {
	label := sub.Name
	if sn, valid := sub.ScopedName(); valid {
		label = sn
	}
	e.w.Label(label)

	if sub.Address != nil {
		e.w.Comment(fmt.Sprintf("ROM stub at $%04X, no lowered body", *sub.Address))
		return
	}
	for _, st := range sub.BodyStmts {
		e.EmitStatement(st)
	}
	if n := len(sub.BodyStmts); n == 0 || !endsInReturn(sub.BodyStmts[n-1]) {
		e.w.Instr("rts")
	}
}

func endsInReturn(stmt ast.Statement) bool {
	_, ok := stmt.(*ast.ReturnStatement)
	return ok
}

// EmitStatement lowers one subroutine-body statement, or reports a Fatal
// diagnostic naming the unsupported construct.
func (e *Emitter) EmitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		e.EmitAssignment(s)
	case *ast.PostfixStatement:
		e.EmitPostfix(s)
	case *ast.CallStatement:
		e.emitCallStatement(s)
	case *ast.ReturnStatement:
		e.w.Instr("rts")
	case *ast.NopStatement:
		e.w.Instr("nop")
	case *ast.InlineAsmStatement:
		// Passthrough: the parser reconstructs the block's tokens
		// space-joined (internal/parser's InlineAsmStatement doc), which
		// is faithful enough to emit verbatim but not byte-identical to
		// the original source formatting.
		e.w.Instr(s.Text)
	case *ast.BranchStatement:
		e.emitBranchStatement(s)
	case *ast.IfStatement:
		e.emitIfStatement(s)
	case *ast.WhileStatement:
		e.emitWhileStatement(s)
	default:
		e.diags.ReportFatal(stmt.Pos(), "statement form %T is not yet supported by this codegen pass", stmt)
	}
}

// EmitAssignment routes a (possibly already-desugared) assignment to the
// tuned augmented-assignment path when its RHS is in an augmentable shape
// (spec.md §4.9), and to the general-expression fallback otherwise.
func (e *Emitter) EmitAssignment(assign *ast.AssignStatement) {
	target := e.classifyTarget(assign.Target)
	if target.Storage == StorageUnsupported {
		e.diags.ReportFatal(assign.Pos(), "assignment target storage is not supported by this codegen pass")
		return
	}
	if _, _, _, ok := decompose(assign.Target, assign.Value); ok {
		e.EmitAugmentedAssign(assign, target.ElemT)
		return
	}
	e.emitPlainAssign(target, assign.Value, assign.Pos())
}

// emitPlainAssign handles `target = expr` where expr does not reference
// target itself (decompose's augmentable shape), reusing each scalar
// family's existing general-expression fallback.
func (e *Emitter) emitPlainAssign(target Target, value ast.Expression, pos token.Position) {
	switch {
	case types.ByteDatatypes[target.ElemT]:
		e.emitGeneralExpr(e.operandLabel(target), value, pos)
	case types.WordDatatypes[target.ElemT]:
		// "cast" is the existing pseudo-op augmented-assignment emitters
		// use for an unrecognized RHS shape (emitWordOp's default general
		// path); a plain assignment is exactly that shape with no operator.
		e.emitWordOp(target, target.ElemT, "cast", value, pos)
	case target.ElemT == types.Float:
		e.emitFloatAssign(target, value, pos)
	default:
		e.diags.ReportFatal(pos, "general assignment to %s is not supported by this codegen pass", target.ElemT)
	}
}

func (e *Emitter) emitFloatAssign(target Target, value ast.Expression, pos token.Position) {
	label := e.operandLabel(target)
	switch v := value.(type) {
	case *ast.NumericLiteral:
		e.w.Instrf("lda", "#<%g", v.FVal)
		e.w.Call(RuntimeFloatCONUPK)
		e.w.Call(RuntimeFloatMOVMF)
		e.w.Instr("sta", label+"+0")
	case *ast.IdentifierRef:
		e.w.Instr("lda", identLabel(v)+"+0")
		e.w.Call(RuntimeFloatMOVFM)
		e.w.Call(RuntimeFloatMOVMF)
		e.w.Instr("sta", label+"+0")
	default:
		e.diags.ReportFatal(pos, "float assignment expression too complex for this codegen pass")
	}
}

// EmitPostfix lowers `target++` / `target--` (spec.md §3) using the 6502's
// direct inc/dec addressing modes for a byte target, or an inc-with-carry
// idiom for a word target.
func (e *Emitter) EmitPostfix(s *ast.PostfixStatement) {
	target := e.classifyTarget(s.Target)
	isLiteralArray := target.Storage == StorageArray && target.ArrayIndexLit != nil
	if target.Storage != StorageVariable && !isLiteralArray {
		e.diags.ReportFatal(s.Pos(), "++/-- target storage is not supported by this codegen pass")
		return
	}
	label := e.operandLabel(target)
	mnemonic := "inc"
	if s.Operator == "--" {
		mnemonic = "dec"
	}

	switch {
	case types.ByteDatatypes[target.ElemT]:
		e.w.Instr(mnemonic, label)
	case types.WordDatatypes[target.ElemT]:
		if s.Operator == "++" {
			skip := uniqueLocalLabel("incw_skip")
			e.w.Instr("inc", label)
			e.w.Instr("bne", skip)
			e.w.Instrf("inc", "%s+1", label)
			e.w.Label(skip)
		} else {
			skip := uniqueLocalLabel("decw_skip")
			e.w.Instr("lda", label)
			e.w.Instr("bne", skip)
			e.w.Instrf("dec", "%s+1", label)
			e.w.Label(skip)
			e.w.Instr("dec", label)
		}
	default:
		e.diags.ReportFatal(s.Pos(), "++/-- on %s is not supported by this codegen pass", target.ElemT)
	}
}

// emitCallStatement lowers a bare subroutine call to a jsr, which is all
// spec.md §3's call statement requires (any return values are discarded).
func (e *Emitter) emitCallStatement(s *ast.CallStatement) {
	id, ok := s.Call.Callee.(*ast.IdentifierRef)
	if !ok {
		e.diags.ReportFatal(s.Pos(), "call target is too complex for this codegen pass")
		return
	}
	name := id.String()
	if sub, ok := id.Target.(*ast.SubroutineDecl); ok {
		if sn, valid := sub.ScopedName(); valid {
			name = sn
		}
	}
	e.w.Call(name)
}

// branchFlags maps a status-flag name (spec.md §3's `if_<flag>` branch
// statement) to its "branch if set" and "branch if clear" mnemonics.
var branchFlags = map[string][2]string{
	"cs": {"bcs", "bcc"},
	"cc": {"bcc", "bcs"},
	"eq": {"beq", "bne"},
	"ne": {"bne", "beq"},
	"mi": {"bmi", "bpl"},
	"pl": {"bpl", "bmi"},
	"vs": {"bvs", "bvc"},
	"vc": {"bvc", "bvs"},
}

func (e *Emitter) emitBranchStatement(s *ast.BranchStatement) {
	pair, ok := branchFlags[s.Flag]
	if !ok {
		e.diags.ReportFatal(s.Pos(), "unknown status flag %q in if_%s", s.Flag, s.Flag)
		return
	}
	after := uniqueLocalLabel("ifflag_end")
	e.w.Instr(pair[1], after)
	for _, st := range s.Body {
		e.EmitStatement(st)
	}
	e.w.Label(after)
}

func (e *Emitter) emitIfStatement(s *ast.IfStatement) {
	if !e.evalToAccumulator(s.Condition, s.Pos()) {
		e.diags.ReportFatal(s.Pos(), "if condition too complex for this codegen pass")
		return
	}
	e.w.Instr("cmp", "#0")
	if len(s.Else) == 0 {
		after := uniqueLocalLabel("if_end")
		e.w.Instr("beq", after)
		for _, st := range s.Then {
			e.EmitStatement(st)
		}
		e.w.Label(after)
		return
	}
	elseLabel := uniqueLocalLabel("if_else")
	after := uniqueLocalLabel("if_end")
	e.w.Instr("beq", elseLabel)
	for _, st := range s.Then {
		e.EmitStatement(st)
	}
	e.w.Instr("jmp", after)
	e.w.Label(elseLabel)
	for _, st := range s.Else {
		e.EmitStatement(st)
	}
	e.w.Label(after)
}

func (e *Emitter) emitWhileStatement(s *ast.WhileStatement) {
	top := uniqueLocalLabel("while_top")
	after := uniqueLocalLabel("while_end")
	e.w.Label(top)
	if !e.evalToAccumulator(s.Condition, s.Pos()) {
		e.diags.ReportFatal(s.Pos(), "while condition too complex for this codegen pass")
		return
	}
	e.w.Instr("cmp", "#0")
	e.w.Instr("beq", after)
	for _, st := range s.Body {
		e.EmitStatement(st)
	}
	e.w.Instr("jmp", top)
	e.w.Label(after)
}
