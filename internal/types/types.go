// Package types implements the P8 Data Model (spec.md §3): scalar data
// types, array and struct compound types, the promotion lattice, and the
// type-classification predicate sets the rest of the compiler dispatches on.
//
// The teacher's own internal/types package contained no surviving
// implementation file in the retrieval pack (only *_test.go remained after
// filtering), so this package is written fresh; its API shape (a Type
// interface with String()/TypeKind(), singleton values for primitive kinds)
// follows the convention visible in the teacher's internal/types/types_test.go
// and in internal/semantic/symbol_table.go's use of types.Type as symbol
// payload.
package types

import "fmt"

// Kind enumerates the scalar kinds plus the two compound kinds.
type Kind int

const (
	Undefined Kind = iota
	Ubyte
	Byte
	Uword
	Word
	Float
	Str
	ArrayKind
	StructKind
)

func (k Kind) String() string {
	switch k {
	case Ubyte:
		return "ubyte"
	case Byte:
		return "byte"
	case Uword:
		return "uword"
	case Word:
		return "word"
	case Float:
		return "float"
	case Str:
		return "str"
	case ArrayKind:
		return "array"
	case StructKind:
		return "struct"
	default:
		return "undefined"
	}
}

// Type is the closed sum of P8 data types.
type Type interface {
	Kind() Kind
	String() string
	// Size is the storage size in bytes on the target, used by the codegen
	// to decide byte/word/float dispatch.
	Size() int
}

// Scalar is a primitive data type (spec.md §3: ubyte, byte, uword, word,
// float, str).
type Scalar struct{ kind Kind }

func (s Scalar) Kind() Kind { return s.kind }
func (s Scalar) String() string {
	return s.kind.String()
}
func (s Scalar) Size() int {
	switch s.kind {
	case Ubyte, Byte:
		return 1
	case Uword, Word, Str:
		return 2
	case Float:
		return 5
	default:
		return 0
	}
}

var (
	UBYTE = Scalar{Ubyte}
	BYTE  = Scalar{Byte}
	UWORD = Scalar{Uword}
	WORD  = Scalar{Word}
	FLOAT = Scalar{Float}
	STR   = Scalar{Str}
)

// Array is an array-of-scalar type; Len is the element count (-1 if not
// yet known, e.g. before a range initializer is const-folded).
type Array struct {
	Elem Scalar
	Len  int
}

func (a Array) Kind() Kind     { return ArrayKind }
func (a Array) String() string { return fmt.Sprintf("array-of-%s[%d]", a.Elem, a.Len) }
func (a Array) Size() int {
	if a.Len < 0 {
		return 0
	}
	return a.Elem.Size() * a.Len
}

// Field is one member of a struct type, in declaration order.
type Field struct {
	Name string
	Type Scalar
}

// Struct is a heterogeneous record whose members are flattened into
// individually-named variables before codegen (spec.md §3, §4.4.6).
type Struct struct {
	Name    string
	Members []Field
}

func (s *Struct) Kind() Kind     { return StructKind }
func (s *Struct) String() string { return "struct " + s.Name }
func (s *Struct) Size() int {
	total := 0
	for _, f := range s.Members {
		total += f.Type.Size()
	}
	return total
}

// MemberIndex returns the index of name in s.Members, or -1.
func (s *Struct) MemberIndex(name string) int {
	for i, f := range s.Members {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FlattenedName returns the codegen member name "s$m" used once a
// struct-typed variable/assignment has been flattened (spec.md glossary:
// Flattening).
func FlattenedName(structVar, member string) string {
	return structVar + "$" + member
}

// --- classification predicate sets (spec.md §3) ---

// ByteDatatypes / WordDatatypes / NumericDatatypes / IterableDatatypes are
// membership tables rather than type switches, following the teacher's
// preference (internal/types, internal/semantic) for lookup-table
// classification over repeated switch statements scattered across callers.
var ByteDatatypes = map[Kind]bool{Ubyte: true, Byte: true}
var WordDatatypes = map[Kind]bool{Uword: true, Word: true}
var NumericDatatypes = map[Kind]bool{Ubyte: true, Byte: true, Uword: true, Word: true, Float: true}
var IterableDatatypes = map[Kind]bool{
	Ubyte: true, Byte: true, Uword: true, Word: true, ArrayKind: true, Str: true,
}

// IsSigned reports whether k is a signed integer kind.
func IsSigned(k Kind) bool { return k == Byte || k == Word }

// IsInteger reports whether k is any integer kind (byte or word width).
func IsInteger(k Kind) bool { return ByteDatatypes[k] || WordDatatypes[k] }

// promotion lattice rank: ubyte(0) < byte(1) < uword(2) < word(3) < float(4)
// spec.md §4.3: "ubyte↑byte↑uword↑word↑float"
var rank = map[Kind]int{Ubyte: 0, Byte: 1, Uword: 2, Word: 3, Float: 4}

// Promote returns the common type two numeric operand kinds promote to.
func Promote(a, b Kind) Kind {
	if rank[a] >= rank[b] {
		return a
	}
	return b
}

// Widens reports whether a value of kind `from` may be implicitly widened
// to kind `to` (spec.md §4.3: ubyte->uword, byte->word, integer->float).
func Widens(from, to Kind) bool {
	if from == to {
		return true
	}
	switch {
	case from == Ubyte && to == Uword:
		return true
	case from == Byte && to == Word:
		return true
	case IsInteger(from) && to == Float:
		return true
	}
	return false
}

// FitsInByte reports whether an integer literal value fits in the given
// integer kind, byte or word (used for narrowing-literal checks, spec.md
// §4.3/§4.5).
func FitsInByte(value int64, k Kind) bool {
	switch k {
	case Ubyte:
		return value >= 0 && value <= 0xFF
	case Byte:
		return value >= -128 && value <= 127
	case Uword:
		return value >= 0 && value <= 0xFFFF
	case Word:
		return value >= -32768 && value <= 32767
	default:
		return false
	}
}
