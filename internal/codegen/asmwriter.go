package codegen

import (
	"fmt"
	"strings"
)

// AsmWriter is a tiny append-only assembly emission buffer, filling the
// role the teacher's bytecode.Chunk plays for the bytecode back end
// (accumulate one compiled unit's output, expose it as a single listing)
// but for text instructions instead of opcode/operand pairs.
type AsmWriter struct {
	lines []string
}

// NewAsmWriter creates an empty writer.
func NewAsmWriter() *AsmWriter { return &AsmWriter{} }

// Label emits a bare label line, e.g. "loop:".
func (w *AsmWriter) Label(name string) {
	w.lines = append(w.lines, name+":")
}

// Instr emits one mnemonic with optional operands, indented like ordinary
// 6502 assembler source.
func (w *AsmWriter) Instr(mnemonic string, operands ...string) {
	if len(operands) == 0 {
		w.lines = append(w.lines, "\t"+mnemonic)
		return
	}
	w.lines = append(w.lines, "\t"+mnemonic+" "+strings.Join(operands, ", "))
}

// Instrf emits one instruction with a formatted operand string.
func (w *AsmWriter) Instrf(mnemonic, format string, args ...any) {
	w.Instr(mnemonic, fmt.Sprintf(format, args...))
}

// Comment emits a trailing comment line.
func (w *AsmWriter) Comment(text string) {
	w.lines = append(w.lines, "\t; "+text)
}

// Call emits a jsr to a named runtime routine.
func (w *AsmWriter) Call(routine string) {
	w.Instr("jsr", routine)
}

// Len returns the number of emitted lines, used by tests asserting an
// emitter produced (or didn't produce) any output.
func (w *AsmWriter) Len() int { return len(w.lines) }

// String renders the buffer as a single assembly listing, newline-joined
// with a trailing newline.
func (w *AsmWriter) String() string {
	if len(w.lines) == 0 {
		return ""
	}
	return strings.Join(w.lines, "\n") + "\n"
}

// Lines returns the raw emitted lines, for tests that want to assert on
// individual instructions rather than the whole listing text.
func (w *AsmWriter) Lines() []string {
	out := make([]string, len(w.lines))
	copy(out, w.lines)
	return out
}
