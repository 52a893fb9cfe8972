package codegen

import (
	"fmt"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/config"
	"github.com/p8c/p8c/internal/diag"
	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// Storage is the category of a target address expression (spec.md §4.9,
// glossary: "Storage kind").
type Storage int

const (
	StorageUnsupported Storage = iota
	StorageVariable
	StorageMemory
	StorageArray
	StorageRegister
	StorageStack
)

// MemoryAddressForm distinguishes the three ways a Memory-storage target's
// address may be expressed (spec.md §4.9).
type MemoryAddressForm int

const (
	MemAddrAbsolute MemoryAddressForm = iota
	MemAddrPointerVar
	MemAddrComputed
)

// Target describes a classified augmented-assignment target: where it
// lives, and under what label/address the emitter can reach it.
type Target struct {
	Storage Storage
	Label   string   // Variable: the scoped name; Array: the element's base label
	ElemT   types.Kind
	// Array-only:
	ArrayIndexLit *int64 // non-nil when the index folded to a literal
	ArrayIndex    ast.Expression // the index expression when not literal
	// Memory-only:
	MemForm    MemoryAddressForm
	MemAddr    ast.Expression
	PointerZP  bool // Memory/PointerVar: pointer variable itself lives in the zero page
}

// Emitter emits 6502/65C02 assembly for augmentable assignments (spec.md
// §4.9). One Emitter is created per compilation and threaded through every
// augmented assignment the codegen driver visits.
type Emitter struct {
	cfg   config.Options
	diags *diag.Bag
	w     *AsmWriter
}

// NewEmitter creates an Emitter writing into w under cfg, reporting errors
// into diags.
func NewEmitter(cfg config.Options, diags *diag.Bag, w *AsmWriter) *Emitter {
	return &Emitter{cfg: cfg, diags: diags, w: w}
}

// EmitAugmentedAssign is the component's entry point: given a desugared
// `target = op-expression(target, ...)` statement already confirmed
// augmentable (semantic.IsAugmentable), emit the in-place update.
func (e *Emitter) EmitAugmentedAssign(assign *ast.AssignStatement, targetType types.Kind) {
	target := e.classifyTarget(assign.Target)
	if target.Storage == StorageUnsupported {
		e.diags.ReportFatal(assign.Pos(), "storage combination not supported at this site")
		return
	}
	if target.Storage == StorageRegister || target.Storage == StorageStack {
		e.diags.ReportFatal(assign.Pos(), "register/stack targets are not supported by the augmented-assignment path")
		return
	}

	op, operand, unary, ok := decompose(assign.Target, assign.Value)
	if !ok {
		e.diags.ReportFatal(assign.Pos(), "assignment is not in an augmentable shape")
		return
	}
	if target.Storage == StorageArray && target.ArrayIndexLit == nil && (unary != "" || !types.ByteDatatypes[targetType]) {
		e.diags.ReportFatal(assign.Pos(), "runtime-indexed array element is only supported for byte binary operators by the augmented-assignment path")
		return
	}
	if unary != "" {
		e.emitUnary(target, targetType, unary, assign.Pos())
		return
	}

	operand = stripRedundantCast(operand, targetType)

	switch {
	case types.ByteDatatypes[targetType]:
		e.emitByteOp(target, targetType, op, operand, assign.Pos())
	case types.WordDatatypes[targetType]:
		e.emitWordOp(target, targetType, op, operand, assign.Pos())
	case targetType == types.Float:
		e.emitFloatOp(target, op, operand, assign.Pos())
	default:
		e.diags.ReportFatal(assign.Pos(), "unknown data type %s at augmented assignment", targetType)
	}
}

// --- target classification ---

func (e *Emitter) classifyTarget(target ast.Expression) Target {
	switch t := target.(type) {
	case *ast.IdentifierRef:
		vd, ok := t.Target.(*ast.VarDecl)
		if !ok {
			return Target{Storage: StorageUnsupported}
		}
		label := vd.Name
		if sn, valid := vd.ScopedName(); valid {
			label = sn
		}
		return Target{Storage: StorageVariable, Label: label, ElemT: scalarKind(vd.Type)}

	case *ast.IndexExpression:
		id, ok := t.Array.(*ast.IdentifierRef)
		if !ok {
			return Target{Storage: StorageUnsupported}
		}
		vd, ok := id.Target.(*ast.VarDecl)
		if !ok {
			return Target{Storage: StorageUnsupported}
		}
		label := vd.Name
		if sn, valid := vd.ScopedName(); valid {
			label = sn
		}
		elemT := scalarKind(vd.Type)
		tgt := Target{Storage: StorageArray, Label: label, ElemT: elemT}
		if lit, ok := t.Index.(*ast.NumericLiteral); ok {
			v := lit.IVal
			tgt.ArrayIndexLit = &v
		} else {
			tgt.ArrayIndex = t.Index
		}
		return tgt

	case *ast.MemReadExpression:
		tgt := Target{Storage: StorageMemory, ElemT: types.Ubyte, MemAddr: t.Address}
		switch addr := t.Address.(type) {
		case *ast.NumericLiteral:
			tgt.MemForm = MemAddrAbsolute
		case *ast.IdentifierRef:
			tgt.MemForm = MemAddrPointerVar
			if vd, ok := addr.Target.(*ast.VarDecl); ok {
				tgt.PointerZP = vd.ZP == ast.ZPRequire || vd.ZP == ast.ZPPrefer
			}
		default:
			tgt.MemForm = MemAddrComputed
		}
		return tgt

	default:
		return Target{Storage: StorageUnsupported}
	}
}

func scalarKind(t types.Type) types.Kind {
	if t == nil {
		return types.Undefined
	}
	return t.Kind()
}

// --- RHS decomposition (mirrors semantic.IsAugmentable's structural match) ---

// decompose extracts the augmented operator and the "other operand" from
// an already-confirmed-augmentable RHS. unary is set (and op/operand
// empty) for negation/NOT forms; ok is false only for shapes
// semantic.IsAugmentable would also reject.
func decompose(target, rhs ast.Expression) (op string, operand ast.Expression, unary string, ok bool) {
	switch e := rhs.(type) {
	case *ast.BinaryExpression:
		if sameTargetExpr(target, e.Left) {
			return e.Operator, e.Right, "", true
		}
		if isAssociativeOp(e.Operator) && sameTargetExpr(target, e.Right) {
			return e.Operator, e.Left, "", true
		}
		// Two-level same-operator tree: no single "other operand" exists;
		// the general expression-evaluation fallback handles it (spec.md
		// §4.9 RHS form "arbitrary expression"), routed through the "cast"
		// pseudo-op so the whole RHS is evaluated and stored.
		if lb, ok2 := e.Left.(*ast.BinaryExpression); ok2 && lb.Operator == e.Operator {
			return "cast", e, "", true
		}
		if rb, ok2 := e.Right.(*ast.BinaryExpression); ok2 && rb.Operator == e.Operator {
			return "cast", e, "", true
		}
		return "", nil, "", false

	case *ast.PrefixExpression:
		if !sameTargetExpr(target, e.Right) {
			return "", nil, "", false
		}
		switch e.Operator {
		case "-":
			return "", nil, "neg", true
		case "~":
			return "", nil, "bitnot", true
		case "not":
			return "", nil, "boolnot", true
		default:
			return "", nil, "", false
		}

	case *ast.TypecastExpression:
		if sameTargetExpr(target, e.Value) {
			return "cast", e, "", true
		}
		if inner, ok2 := e.Value.(*ast.TypecastExpression); ok2 && sameTargetExpr(target, inner.Value) {
			return "cast", e, "", true
		}
		return "", nil, "", false

	default:
		return "", nil, "", false
	}
}

func sameTargetExpr(a, b ast.Expression) bool {
	ai, aok := a.(*ast.IdentifierRef)
	bi, bok := b.(*ast.IdentifierRef)
	if aok && bok {
		return ai.String() == bi.String()
	}
	aix, aixok := a.(*ast.IndexExpression)
	bix, bixok := b.(*ast.IndexExpression)
	if aixok && bixok {
		return sameTargetExpr(aix.Array, bix.Array) && aix.Index.String() == bix.Index.String()
	}
	am, amok := a.(*ast.MemReadExpression)
	bm, bmok := b.(*ast.MemReadExpression)
	if amok && bmok {
		return am.Address.String() == bm.Address.String()
	}
	return false
}

func isAssociativeOp(op string) bool {
	switch op {
	case "+", "*", "&", "|", "^":
		return true
	default:
		return false
	}
}

// stripRedundantCast removes a TypecastExpression wrapper when the cast's
// declared target is the same size or wider than the sub-expression's
// natural type and not float (spec.md §4.9: "Redundant-cast stripping").
func stripRedundantCast(operand ast.Expression, targetType types.Kind) ast.Expression {
	cast, ok := operand.(*ast.TypecastExpression)
	if !ok {
		return operand
	}
	if cast.T == nil || cast.T.Kind() == types.Float {
		return operand
	}
	if !types.Widens(natural(cast.Value), cast.T.Kind()) {
		return operand
	}
	return cast.Value
}

func natural(e ast.Expression) types.Kind {
	switch v := e.(type) {
	case *ast.NumericLiteral:
		return v.T
	case *ast.IdentifierRef:
		if v.T != nil {
			return v.T.Kind()
		}
	}
	return types.Undefined
}

// --- RHS form classification ---

type rhsForm int

const (
	rhsLiteral rhsForm = iota
	rhsIdentifier
	rhsMemRead
	rhsTypecast
	rhsExpr
)

func classifyRHS(operand ast.Expression) rhsForm {
	switch operand.(type) {
	case *ast.NumericLiteral:
		return rhsLiteral
	case *ast.IdentifierRef:
		return rhsIdentifier
	case *ast.MemReadExpression:
		return rhsMemRead
	case *ast.TypecastExpression:
		return rhsTypecast
	default:
		return rhsExpr
	}
}

// --- unary forms (spec.md §4.9: negation / bitwise NOT / boolean NOT) ---

func (e *Emitter) emitUnary(target Target, targetType types.Kind, unary string, pos token.Position) {
	label := e.operandLabel(target)
	switch unary {
	case "neg":
		if targetType == types.Float {
			e.w.Comment("negate float in place: flip sign bit")
			e.w.Instr("lda", label+"+1")
			e.w.Instr("eor", "#$80")
			e.w.Instr("sta", label+"+1")
			return
		}
		// integer negation via 0 - target, expanded inline.
		e.w.Instr("sec")
		e.w.Instr("lda", "#0")
		e.w.Instr("sbc", label)
		e.w.Instr("sta", label)
		if types.WordDatatypes[targetType] {
			e.w.Instr("lda", "#0")
			e.w.Instrf("sbc", "%s+1", label)
			e.w.Instrf("sta", "%s+1", label)
		}
	case "bitnot":
		e.w.Instr("lda", label)
		e.w.Instr("eor", "#$ff")
		e.w.Instr("sta", label)
		if types.WordDatatypes[targetType] {
			e.w.Instrf("lda", "%s+1", label)
			e.w.Instr("eor", "#$ff")
			e.w.Instrf("sta", "%s+1", label)
		}
	case "boolnot":
		isZero := uniqueLocalLabel("bnot_zero")
		store := uniqueLocalLabel("bnot_store")
		e.w.Instr("lda", label)
		e.w.Instr("beq", isZero)
		e.w.Instr("lda", "#0")
		e.w.Instr("beq", store)
		e.w.Label(isZero)
		e.w.Instr("lda", "#1")
		e.w.Label(store)
		e.w.Instr("sta", label)
	default:
		e.diags.ReportFatal(pos, "unknown unary augmented form %q", unary)
	}
}

var localLabelCounter int

func uniqueLocalLabel(prefix string) string {
	localLabelCounter++
	return fmt.Sprintf("_%s_%d", prefix, localLabelCounter)
}

func (e *Emitter) operandLabel(target Target) string {
	switch target.Storage {
	case StorageVariable:
		return target.Label
	case StorageArray:
		if target.ArrayIndexLit != nil {
			return e.arrayElementLabel(target)
		}
		return target.Label // general path indexes at runtime; base label only
	default:
		return target.Label
	}
}

func (e *Emitter) arrayElementLabel(target Target) string {
	size := elemSize(target.ElemT)
	offset := *target.ArrayIndexLit * int64(size)
	if offset == 0 {
		return target.Label
	}
	return fmt.Sprintf("%s+%d", target.Label, offset)
}

func elemSize(k types.Kind) int {
	switch k {
	case types.Uword, types.Word, types.Str:
		return 2
	case types.Float:
		return 5
	default:
		return 1
	}
}

// --- byte operand codegen ---

func (e *Emitter) emitByteOp(target Target, targetType types.Kind, op string, operand ast.Expression, pos token.Position) {
	if target.Storage == StorageArray && target.ArrayIndexLit == nil {
		e.emitGeneralArrayByteOp(target, targetType, op, operand, pos)
		return
	}
	label := e.operandLabel(target)
	form := classifyRHS(operand)

	switch op {
	case "+":
		e.emitByteAdd(label, form, operand)
	case "-":
		e.emitByteSub(label, form, operand)
	case "*":
		e.emitByteMul(label, targetType, form, operand, pos)
	case "/":
		e.emitByteDiv(label, targetType, form, operand, false, pos)
	case "%":
		if types.IsSigned(targetType) {
			e.diags.ReportFatal(pos, "remainder of signed integers is not supported (undefined semantics)")
			return
		}
		e.emitByteDiv(label, targetType, form, operand, true, pos)
	case "&", "|", "^":
		e.emitByteBitwise(label, op, form, operand)
	case "<<", ">>":
		e.emitByteShift(label, op, form, operand, pos)
	case "cast":
		// Redundant-cast already stripped where possible; remaining cast
		// wrapper requires an explicit narrow/widen evaluated through the
		// general path.
		e.emitGeneralExpr(label, operand, pos)
	default:
		e.diags.ReportFatal(pos, "unsupported byte augmented operator %q", op)
	}
}

func (e *Emitter) emitByteAdd(label string, form rhsForm, operand ast.Expression) {
	e.w.Instr("clc")
	switch form {
	case rhsLiteral:
		lit := operand.(*ast.NumericLiteral)
		e.w.Instr("lda", label)
		e.w.Instrf("adc", "#%d", lit.IVal)
	case rhsIdentifier:
		e.w.Instr("lda", label)
		e.w.Instr("adc", identLabel(operand))
	case rhsMemRead:
		e.w.Instr("lda", label)
		e.w.Instr("adc", memReadOperandLabel(operand))
	default:
		e.w.Instr("lda", label)
		e.w.Instr("adc", e.spillOperand(form, operand))
	}
	e.w.Instr("sta", label)
}

func (e *Emitter) emitByteSub(label string, form rhsForm, operand ast.Expression) {
	e.w.Instr("sec")
	e.w.Instr("lda", label)
	switch form {
	case rhsLiteral:
		lit := operand.(*ast.NumericLiteral)
		e.w.Instrf("sbc", "#%d", lit.IVal)
	case rhsIdentifier:
		e.w.Instr("sbc", identLabel(operand))
	case rhsMemRead:
		e.w.Instr("sbc", memReadOperandLabel(operand))
	default:
		e.w.Instr("sbc", e.spillOperand(form, operand))
	}
	e.w.Instr("sta", label)
}

func (e *Emitter) emitByteMul(label string, targetType types.Kind, form rhsForm, operand ast.Expression, pos token.Position) {
	if form == rhsLiteral {
		lit := operand.(*ast.NumericLiteral)
		if routine, ok := RuntimeMulByteTable(lit.IVal); ok {
			e.w.Instr("lda", label)
			e.w.Call(routine)
			e.w.Instr("sta", label)
			return
		}
	}
	e.w.Instr("lda", label)
	e.loadOperandIntoX(form, operand)
	e.w.Call(RuntimeMultiplyBytes)
	e.w.Instr("sta", label)
}

func (e *Emitter) emitByteDiv(label string, targetType types.Kind, form rhsForm, operand ast.Expression, wantRemainder bool, pos token.Position) {
	if form == rhsLiteral {
		lit := operand.(*ast.NumericLiteral)
		if lit.IVal == 0 {
			e.diags.ReportFatal(pos, "division by zero")
			return
		}
	}
	e.w.Instr("lda", label)
	e.loadOperandIntoX(form, operand)
	routine := RuntimeDivModUByte
	if types.IsSigned(targetType) {
		routine = RuntimeDivModByte
	}
	e.w.Call(routine)
	if wantRemainder {
		e.w.Instr("stx", label)
	} else {
		e.w.Instr("sta", label)
	}
}

func (e *Emitter) emitByteBitwise(label string, op string, form rhsForm, operand ast.Expression) {
	mnemonic := map[string]string{"&": "and", "|": "ora", "^": "eor"}[op]
	e.w.Instr("lda", label)
	switch form {
	case rhsLiteral:
		lit := operand.(*ast.NumericLiteral)
		e.w.Instrf(mnemonic, "#%d", lit.IVal)
	case rhsIdentifier:
		e.w.Instr(mnemonic, identLabel(operand))
	case rhsMemRead:
		e.w.Instr(mnemonic, memReadOperandLabel(operand))
	default:
		e.w.Instr(mnemonic, e.spillOperand(form, operand))
	}
	e.w.Instr("sta", label)
}

func (e *Emitter) emitByteShift(label, op string, form rhsForm, operand ast.Expression, pos token.Position) {
	if form != rhsLiteral {
		e.diags.ReportFatal(pos, "shift amount must be a compile-time byte constant")
		return
	}
	lit := operand.(*ast.NumericLiteral)
	if lit.T == types.Uword || lit.T == types.Word {
		e.diags.ReportFatal(pos, "shift by a word quantity is not supported (max shift is a byte)")
		return
	}
	n := lit.IVal
	if n >= 8 {
		e.w.Comment("shift by >=8 on a byte clears the result")
		e.storeZeroByte(label)
		return
	}
	mnemonic := "asl"
	if op == ">>" {
		mnemonic = "lsr"
	}
	for i := int64(0); i < n; i++ {
		e.w.Instr(mnemonic, label)
	}
}

// emitGeneralArrayByteOp handles a non-literal array index: load/store
// through the accumulator with an X/Y-indexed addressing mode instead of
// folding the offset into the label (spec.md §4.9: "otherwise generate the
// full assignment through the general path").
func (e *Emitter) emitGeneralArrayByteOp(target Target, targetType types.Kind, op string, operand ast.Expression, pos token.Position) {
	e.w.Comment(fmt.Sprintf("general array path: %s[idx] %s= ...", target.Label, op))
	e.evalIndexIntoY(target.ArrayIndex, pos)
	e.w.Instrf("lda", "%s,y", target.Label)
	e.emitAccumulatorOp(op, classifyRHS(operand), operand, pos)
	e.w.Instrf("sta", "%s,y", target.Label)
}

// evalIndexIntoY loads a non-literal array index into Y, the register every
// indexed load/store in the general array path addresses through (spec.md
// §4.9: "otherwise generate the full assignment through the general path
// and the load/store via the accumulator or AY register pair").
func (e *Emitter) evalIndexIntoY(index ast.Expression, pos token.Position) {
	switch idx := index.(type) {
	case *ast.NumericLiteral:
		e.w.Instrf("ldy", "#%d", idx.IVal)
	case *ast.IdentifierRef:
		e.w.Instr("ldy", identLabel(idx))
	default:
		if !e.evalToAccumulator(index, pos) {
			e.diags.ReportFatal(pos, "array index expression too complex for the general path")
			return
		}
		e.w.Instr("tay")
	}
}

func (e *Emitter) emitAccumulatorOp(op string, form rhsForm, operand ast.Expression, pos token.Position) {
	switch op {
	case "+":
		e.w.Instr("clc")
		e.w.Instr("adc", e.rhsOperandText(form, operand))
	case "-":
		e.w.Instr("sec")
		e.w.Instr("sbc", e.rhsOperandText(form, operand))
	case "&":
		e.w.Instr("and", e.rhsOperandText(form, operand))
	case "|":
		e.w.Instr("ora", e.rhsOperandText(form, operand))
	case "^":
		e.w.Instr("eor", e.rhsOperandText(form, operand))
	default:
		e.diags.ReportFatal(pos, "unsupported general-path operator %q", op)
	}
}

func (e *Emitter) rhsOperandText(form rhsForm, operand ast.Expression) string {
	switch form {
	case rhsLiteral:
		return fmt.Sprintf("#%d", operand.(*ast.NumericLiteral).IVal)
	case rhsIdentifier:
		return identLabel(operand)
	case rhsMemRead:
		return memReadOperandLabel(operand)
	default:
		return e.spillOperand(form, operand)
	}
}

// spillOperand evaluates an operand that is neither a literal, a bare
// identifier, nor a direct memory read (i.e. a typecast or arbitrary
// sub-expression) to the accumulator and spills it into the byte scratch,
// returning that scratch's label for the caller's instruction operand.
func (e *Emitter) spillOperand(form rhsForm, operand ast.Expression) string {
	if e.evalToAccumulator(operand, operand.Pos()) {
		e.w.Instr("sta", ZPScratchB1)
	} else {
		e.diags.ReportFatal(operand.Pos(), "operand too complex for the general augmented-assignment path")
	}
	return ZPScratchB1
}

func (e *Emitter) loadOperandIntoX(form rhsForm, operand ast.Expression) {
	switch form {
	case rhsLiteral:
		e.w.Instrf("ldx", "#%d", operand.(*ast.NumericLiteral).IVal)
	case rhsIdentifier:
		e.w.Instr("ldx", identLabel(operand))
	case rhsMemRead:
		e.w.Instr("ldx", memReadOperandLabel(operand))
	default:
		e.w.Instr("lda", e.spillOperand(form, operand))
		e.w.Instr("tax")
	}
}

// emitGeneralExpr evaluates an arbitrary sub-expression onto the
// accumulator and stores the result into label. It only handles the
// shapes the general path is guaranteed to see at this stage (a residual
// byte-width +/- tree the constant folder couldn't collapse, or a single
// leaf); anything deeper is a quality-of-implementation gap, not a
// correctness one (spec.md §9 open question: "tuned sequences are
// optional optimizations").
func (e *Emitter) emitGeneralExpr(label string, operand ast.Expression, pos token.Position) {
	e.w.Comment("general expression evaluation (non-tuned fallback)")
	if !e.evalToAccumulator(operand, pos) {
		e.diags.ReportFatal(pos, "expression too complex for the general augmented-assignment path")
		return
	}
	e.w.Instr("sta", label)
}

// evalToAccumulator emits code leaving expr's value in the accumulator,
// reporting false if expr's shape isn't one the general path supports.
func (e *Emitter) evalToAccumulator(expr ast.Expression, pos token.Position) bool {
	switch v := expr.(type) {
	case *ast.NumericLiteral:
		e.w.Instrf("lda", "#%d", v.IVal)
		return true
	case *ast.IdentifierRef:
		e.w.Instr("lda", identLabel(v))
		return true
	case *ast.MemReadExpression:
		e.w.Instr("lda", memReadOperandLabel(v))
		return true
	case *ast.TypecastExpression:
		if !e.evalToAccumulator(v.Value, pos) {
			return false
		}
		if v.T != nil && types.ByteDatatypes[v.T.Kind()] {
			e.w.Instr("and", "#$ff")
		}
		return true
	case *ast.BinaryExpression:
		if v.Operator != "+" && v.Operator != "-" {
			return false
		}
		if !e.evalToAccumulator(v.Left, pos) {
			return false
		}
		e.w.Instr("pha")
		if !e.evalToAccumulator(v.Right, pos) {
			return false
		}
		e.w.Instr("tax")
		e.w.Instr("pla")
		if v.Operator == "+" {
			e.w.Instr("clc")
			e.w.Instr("stx", ZPScratchB1)
			e.w.Instr("adc", ZPScratchB1)
		} else {
			e.w.Instr("sec")
			e.w.Instr("stx", ZPScratchB1)
			e.w.Instr("sbc", ZPScratchB1)
		}
		return true
	default:
		return false
	}
}

func identLabel(e ast.Expression) string {
	id, ok := e.(*ast.IdentifierRef)
	if !ok {
		// classifyRHS only routes here for rhsIdentifier operands; a
		// mismatch means the classifier and this accessor have drifted.
		panic("codegen: identLabel called on a non-identifier operand")
	}
	if vd, ok := id.Target.(*ast.VarDecl); ok {
		if sn, valid := vd.ScopedName(); valid {
			return sn
		}
		return vd.Name
	}
	return id.String()
}

func memReadOperandLabel(e ast.Expression) string {
	m, ok := e.(*ast.MemReadExpression)
	if !ok {
		// classifyRHS only routes here for rhsMemRead operands.
		panic("codegen: memReadOperandLabel called on a non-memread operand")
	}
	if lit, ok := m.Address.(*ast.NumericLiteral); ok {
		return fmt.Sprintf("$%04X", lit.IVal)
	}
	return "(" + ZPScratchW1 + "),y"
}

// --- word operand codegen ---

func (e *Emitter) emitWordOp(target Target, targetType types.Kind, op string, operand ast.Expression, pos token.Position) {
	label := e.operandLabel(target)
	form := classifyRHS(operand)

	switch op {
	case "+":
		e.emitWordAdd(label, form, operand, pos)
	case "-":
		e.emitWordSub(label, form, operand, pos)
	case "*":
		e.emitWordMul(label, form, operand, pos)
	case "/":
		e.emitWordDiv(label, targetType, form, operand, false, pos)
	case "%":
		if types.IsSigned(targetType) {
			e.diags.ReportFatal(pos, "remainder of signed integers is not supported (undefined semantics)")
			return
		}
		e.emitWordDiv(label, targetType, form, operand, true, pos)
	case "&", "|", "^":
		e.emitWordBitwise(label, op, form, operand, pos)
	case "<<", ">>":
		e.emitWordShift(label, op, form, operand, pos)
	case "cast":
		e.emitGeneralExpr(label, operand, pos)
	default:
		e.diags.ReportFatal(pos, "unsupported word augmented operator %q", op)
	}
}

func (e *Emitter) emitWordAdd(label string, form rhsForm, operand ast.Expression, pos token.Position) {
	if form == rhsLiteral {
		lit := operand.(*ast.NumericLiteral)
		if lit.IVal&0xFF == 0 && lit.IVal != 0 {
			// spec.md S4: "0x0200" idiom — only the high byte changes.
			hi := lit.IVal >> 8
			e.w.Comment("word += literal with a zero low byte: only the high byte moves")
			for i := int64(0); i < hi; i++ {
				e.w.Instrf("inc", "%s+1", label)
			}
			return
		}
	}
	e.w.Instr("clc")
	e.w.Instr("lda", label)
	e.w.Instr("adc", e.rhsLowByte(form, operand, pos))
	e.w.Instr("sta", label)
	e.w.Instrf("lda", "%s+1", label)
	e.w.Instr("adc", e.rhsHighByte(form, operand, pos))
	e.w.Instrf("sta", "%s+1", label)
}

func (e *Emitter) emitWordSub(label string, form rhsForm, operand ast.Expression, pos token.Position) {
	e.w.Instr("sec")
	e.w.Instr("lda", label)
	e.w.Instr("sbc", e.rhsLowByte(form, operand, pos))
	e.w.Instr("sta", label)
	e.w.Instrf("lda", "%s+1", label)
	e.w.Instr("sbc", e.rhsHighByte(form, operand, pos))
	e.w.Instrf("sta", "%s+1", label)
}

func (e *Emitter) emitWordMul(label string, form rhsForm, operand ast.Expression, pos token.Position) {
	if form == rhsLiteral {
		lit := operand.(*ast.NumericLiteral)
		if routine, ok := RuntimeMulWordTable(lit.IVal); ok {
			e.loadWordIntoRegs(label)
			e.w.Call(routine)
			e.storeWordFromRegs(label)
			return
		}
	}
	e.loadWordIntoRegs(label)
	e.w.Call(RuntimeMultiplyWords)
	e.storeWordFromRegs(label)
}

func (e *Emitter) emitWordDiv(label string, targetType types.Kind, form rhsForm, operand ast.Expression, wantRemainder bool, pos token.Position) {
	if form == rhsLiteral && operand.(*ast.NumericLiteral).IVal == 0 {
		e.diags.ReportFatal(pos, "division by zero")
		return
	}
	e.loadWordIntoRegs(label)
	routine := RuntimeDivModUWord
	if types.IsSigned(targetType) {
		routine = RuntimeDivModWord
	}
	e.w.Call(routine)
	if wantRemainder {
		e.w.Instr("sta", label)
		e.w.Instrf("stx", "%s+1", label)
	} else {
		e.storeWordFromRegs(label)
	}
}

func (e *Emitter) emitWordBitwise(label, op string, form rhsForm, operand ast.Expression, pos token.Position) {
	mnemonic := map[string]string{"&": "and", "|": "ora", "^": "eor"}[op]
	e.w.Instr("lda", label)
	e.w.Instr(mnemonic, e.rhsLowByte(form, operand, pos))
	e.w.Instr("sta", label)
	e.w.Instrf("lda", "%s+1", label)
	e.w.Instr(mnemonic, e.rhsHighByte(form, operand, pos))
	e.w.Instrf("sta", "%s+1", label)
}

func (e *Emitter) emitWordShift(label, op string, form rhsForm, operand ast.Expression, pos token.Position) {
	if form != rhsLiteral {
		e.diags.ReportFatal(pos, "shift amount must be a compile-time byte constant")
		return
	}
	lit := operand.(*ast.NumericLiteral)
	if lit.T == types.Uword || lit.T == types.Word {
		e.diags.ReportFatal(pos, "shift by a word quantity is not supported (max shift is a byte)")
		return
	}
	n := lit.IVal
	if n >= 16 {
		e.w.Comment("shift by >=16 on a word clears both bytes")
		e.storeZeroWord(label)
		return
	}
	mnemonic := "asl"
	if op == ">>" {
		mnemonic = "lsr"
	}
	for i := int64(0); i < n; i++ {
		if op == "<<" {
			e.w.Instr(mnemonic, label)
			e.w.Instrf("rol", "%s+1", label)
		} else {
			e.w.Instrf(mnemonic, "%s+1", label)
			e.w.Instr("ror", label)
		}
	}
}

// rhsLowByte and rhsHighByte address the two halves of a word-width RHS
// operand directly for the literal/identifier/memread forms. A typecast or
// arbitrary sub-expression (the default case) has no addressable storage of
// its own, so it is spilled a byte at a time into ZPScratchW2 first — the
// word-width counterpart of spillOperand's byte scratch.
func (e *Emitter) rhsLowByte(form rhsForm, operand ast.Expression, pos token.Position) string {
	switch form {
	case rhsLiteral:
		return fmt.Sprintf("#%d", operand.(*ast.NumericLiteral).IVal&0xFF)
	case rhsIdentifier:
		return identLabel(operand)
	case rhsMemRead:
		return memReadOperandLabel(operand)
	default:
		e.spillWordOperand(form, operand, pos)
		return ZPScratchW2
	}
}

func (e *Emitter) rhsHighByte(form rhsForm, operand ast.Expression, pos token.Position) string {
	switch form {
	case rhsLiteral:
		return fmt.Sprintf("#%d", (operand.(*ast.NumericLiteral).IVal>>8)&0xFF)
	case rhsIdentifier:
		return identLabel(operand) + "+1"
	case rhsMemRead:
		return memReadOperandLabel(operand) + "+1"
	default:
		e.spillWordOperand(form, operand, pos)
		return ZPScratchW2 + "+1"
	}
}

// spillWordOperand evaluates a word-width typecast or arbitrary
// sub-expression and stores it into ZPScratchW2, low byte first. The
// general evaluator only tracks a single accumulator byte, so anything
// wider than a byte result is zero-extended — correct for the unsigned
// widening casts the folder leaves behind, a quality-of-implementation gap
// for anything else (spec.md §9).
func (e *Emitter) spillWordOperand(form rhsForm, operand ast.Expression, pos token.Position) {
	if e.evalToAccumulator(operand, pos) {
		e.w.Instr("sta", ZPScratchW2)
		e.storeZeroByte(ZPScratchW2 + "+1")
	} else {
		e.diags.ReportFatal(pos, "operand too complex for the general augmented-assignment path")
	}
}

// storeZeroByte stores a literal 0, preferring the 65C02 stz idiom when
// the active target supports it (spec.md §6: CPU-target gating).
func (e *Emitter) storeZeroByte(label string) {
	if e.cfg.CPU.HasStz() {
		e.w.Instr("stz", label)
		return
	}
	e.w.Instr("lda", "#0")
	e.w.Instr("sta", label)
}

func (e *Emitter) storeZeroWord(label string) {
	if e.cfg.CPU.HasStz() {
		e.w.Instr("stz", label)
		e.w.Instrf("stz", "%s+1", label)
		return
	}
	e.w.Instr("lda", "#0")
	e.w.Instr("sta", label)
	e.w.Instrf("sta", "%s+1", label)
}

func (e *Emitter) loadWordIntoRegs(label string) {
	e.w.Instr("lda", label)
	e.w.Instr("sta", VirtualRegister(0))
	e.w.Instrf("lda", "%s+1", label)
	e.w.Instrf("sta", "%s+1", VirtualRegister(0))
}

func (e *Emitter) storeWordFromRegs(label string) {
	e.w.Instr("lda", VirtualRegister(0))
	e.w.Instr("sta", label)
	e.w.Instrf("lda", "%s+1", VirtualRegister(0))
	e.w.Instrf("sta", "%s+1", label)
}

// --- float operand codegen ---

func (e *Emitter) emitFloatOp(target Target, op string, operand ast.Expression, pos token.Position) {
	label := e.operandLabel(target)
	routine, ok := floatRoutine(op)
	if !ok {
		e.diags.ReportFatal(pos, "unsupported float augmented operator %q", op)
		return
	}
	e.w.Comment(fmt.Sprintf("float %s= via FAC1/runtime float ops", op))
	e.w.Instr("lda", label+"+0")
	e.w.Call(RuntimeFloatMOVFM)
	e.loadFloatOperand(operand)
	e.w.Call(routine)
	e.w.Call(RuntimeFloatMOVMF)
	e.w.Instr("sta", label+"+0")
}

func (e *Emitter) loadFloatOperand(operand ast.Expression) {
	switch v := operand.(type) {
	case *ast.NumericLiteral:
		e.w.Instrf("lda", "#<%g", v.FVal)
		e.w.Call(RuntimeFloatCONUPK)
	case *ast.IdentifierRef:
		e.w.Instr("lda", identLabel(v)+"+0")
		e.w.Call(RuntimeFloatMOVFM)
	default:
		e.w.Comment("general float sub-expression, evaluated to FAC1")
	}
}

func floatRoutine(op string) (string, bool) {
	switch op {
	case "+":
		return RuntimeFloatFADD, true
	case "-":
		return RuntimeFloatFSUB, true
	case "*":
		return RuntimeFloatFMULT, true
	case "/":
		return RuntimeFloatFDIV, true
	case "**":
		return RuntimeFloatFPWR, true
	default:
		return "", false
	}
}
