package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeMulByteTable(t *testing.T) {
	routine, ok := RuntimeMulByteTable(10)
	assert.True(t, ok)
	assert.Equal(t, "math.mul_byte_10", routine)

	_, ok = RuntimeMulByteTable(17)
	assert.False(t, ok)
}

func TestRuntimeMulWordTable(t *testing.T) {
	routine, ok := RuntimeMulWordTable(1000)
	assert.True(t, ok)
	assert.Equal(t, "math.mul_word_1000", routine)

	_, ok = RuntimeMulWordTable(4)
	assert.False(t, ok)
}

func TestVirtualRegister(t *testing.T) {
	assert.Equal(t, "r0", VirtualRegister(0))
	assert.Equal(t, "r15", VirtualRegister(15))
}

func TestAsmWriter(t *testing.T) {
	w := NewAsmWriter()
	w.Label("loop")
	w.Instr("lda", "#0")
	w.Instrf("sta", "%s+1", "w")
	w.Comment("done")
	w.Call("math.multiply_bytes")

	assert.Equal(t, 5, w.Len())
	assert.Equal(t, []string{
		"loop:",
		"\tlda #0",
		"\tsta w+1",
		"\t; done",
		"\tjsr math.multiply_bytes",
	}, w.Lines())
	assert.Contains(t, w.String(), "loop:\n\tlda #0\n")
}

func TestAsmWriterEmptyString(t *testing.T) {
	w := NewAsmWriter()
	assert.Equal(t, "", w.String())
	assert.Equal(t, 0, w.Len())
}
