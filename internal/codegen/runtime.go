// Package codegen is the 6502 Augmented-Assignment Code Generator
// (spec.md §4.9): given a desugared `target = op-expression` flagged
// augmentable by semantic.IsAugmentable, it emits an in-place assembly
// update instead of a full evaluate-and-store.
//
// Grounded on the teacher's internal/bytecode package (the only component
// of CWBudde/go-dws that lowers an AST to a flat instruction stream): one
// file per concern (an emission buffer, a table of named runtime helpers,
// the dispatcher itself), a small typed "operand location" abstraction
// standing in for the teacher's bytecode.Chunk, and fatal-vs-recoverable
// diagnostics routed the same way semantic passes route them.
package codegen

// Runtime library entry points the emitted assembly calls (spec.md §6:
// "Runtime library contract"). Named as constants, not string literals
// scattered through augassign.go, so every call site agrees on the exact
// label.
const (
	RuntimeMultiplyBytes  = "math.multiply_bytes"
	RuntimeDivModByte     = "math.divmod_b_asm"
	RuntimeDivModUByte    = "math.divmod_ub_asm"
	RuntimeMultiplyWords  = "math.multiply_words"
	RuntimeDivModWord     = "math.divmod_w_asm"
	RuntimeDivModUWord    = "math.divmod_uw_asm"
	RuntimeLsrByteA       = "math.lsr_byte_A"
	RuntimeReadByteStack  = "prog8_lib.read_byte_from_address_on_stack"
	RuntimeWriteByteStack = "prog8_lib.write_byte_to_address_on_stack"
	RuntimeFloatMOVFM     = "floats.MOVFM"
	RuntimeFloatMOVMF     = "floats.MOVMF"
	RuntimeFloatCONUPK    = "floats.CONUPK"
	RuntimeFloatFADD      = "floats.FADD"
	RuntimeFloatFSUB      = "floats.FSUB"
	RuntimeFloatFMULT     = "floats.FMULT"
	RuntimeFloatFDIV      = "floats.FDIV"
	RuntimeFloatFPWR      = "floats.FPWR"
	RuntimeFloatFPWRT     = "floats.FPWRT"
)

// RuntimeMulByteTable returns the small-multiplier helper name for n, and
// whether one exists (spec.md §6: "small-multiplier tables math.mul_byte_N").
// The table covers the common power-of-two-adjacent multipliers a
// hand-written 6502 runtime typically special-cases; anything else falls
// back to RuntimeMultiplyBytes.
func RuntimeMulByteTable(n int64) (string, bool) {
	switch n {
	case 3, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 20, 25, 40, 50, 100:
		return fmtRoutine("math.mul_byte_%d", n), true
	default:
		return "", false
	}
}

// RuntimeMulWordTable is RuntimeMulByteTable's word-width counterpart
// (spec.md §6: "math.mul_word_N").
func RuntimeMulWordTable(n int64) (string, bool) {
	switch n {
	case 3, 5, 6, 7, 9, 10, 100, 1000:
		return fmtRoutine("math.mul_word_%d", n), true
	default:
		return "", false
	}
}

func fmtRoutine(format string, n int64) string {
	// Small, fixed-format helper rather than reaching for fmt.Sprintf at
	// every call site in augassign.go's hot dispatch path.
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	var buf []byte
	if n == 0 {
		buf = []byte{'0'}
	} else {
		for v := n; v > 0; v /= 10 {
			buf = append([]byte{digits[v%10]}, buf...)
		}
	}
	out := make([]byte, 0, len(format)+len(buf))
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) && format[i+1] == 'd' {
			out = append(out, buf...)
			i++
			continue
		}
		out = append(out, format[i])
	}
	return string(out)
}

// Zero-page scratch and virtual-register labels (spec.md §6: "Zero-page
// convention"). These are reserved and addressable by fixed name; the
// codegen never allocates over them.
const (
	ZPScratchW1  = "P8ZP_SCRATCH_W1"
	ZPScratchW2  = "P8ZP_SCRATCH_W2"
	ZPScratchB1  = "P8ZP_SCRATCH_B1"
	ZPScratchReg = "P8ZP_SCRATCH_REG"
)

// VirtualRegister returns the zero-page label for virtual register n
// (spec.md §6: "Virtual registers r0..r15 are also zero-page words").
func VirtualRegister(n int) string {
	return fmtRoutine("r%d", int64(n))
}
