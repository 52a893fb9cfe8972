package ast

import "github.com/p8c/p8c/internal/types"

// Scope is implemented by every node that introduces a named environment
// (spec.md §3: "A node is a scope if it introduces a named environment:
// Module, Block, Subroutine, StructDecl, AnonymousScope"). The scope chain
// composes Scopes outward to the Program root (spec.md §4.2); the actual
// symbol tables are owned by internal/semantic (symtab.go), not by this
// package, to keep the AST core free of mutable lookup state that only the
// resolver pass needs.
type Scope interface {
	Node
	scopeNode()
}

// BodyHolder is implemented by scopes that contain an ordered statement
// list the reorderer/desugarer and dead-code remover operate on (every
// Scope except StructDecl, which holds typed fields instead).
type BodyHolder interface {
	Scope
	Body() []Statement
	SetBody([]Statement)
}

// ZPWish is a variable's zero-page placement wish (spec.md §3).
type ZPWish int

const (
	ZPDontCare ZPWish = iota
	ZPRequire
	ZPPrefer
	ZPForbid
)

func (w ZPWish) String() string {
	switch w {
	case ZPRequire:
		return "require"
	case ZPPrefer:
		return "prefer"
	case ZPForbid:
		return "forbid"
	default:
		return "dontcare"
	}
}

// TypeRef is the syntactic type annotation attached to a declaration,
// before resolution fills in ResolvedStruct for named struct types.
type TypeRef struct {
	Scalar         types.Kind // Ubyte/Byte/Uword/Word/Float/Str, or StructKind for a named struct
	IsArray        bool
	ArraySize      Expression // nil if size is inferred from an initializer
	StructName     string     // set when Scalar == types.StructKind
	ResolvedStruct *StructDecl
}

func (t *TypeRef) String() string {
	s := t.Scalar.String()
	if t.Scalar == types.StructKind {
		s = t.StructName
	}
	if t.IsArray {
		return s + "[]"
	}
	return s
}
