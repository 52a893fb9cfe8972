package ast

import (
	"fmt"
	"strings"

	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// VarDecl is a variable (or constant) declaration (spec.md §3).
type VarDecl struct {
	Base
	Token       token.Token
	Name        string
	DeclaredT   *TypeRef
	Type        types.Type // filled by the type checker
	Init        Expression // nil for a bare declaration
	ZP          ZPWish
	IsConst     bool
	ConstValue  any // compile-time value once the const-folder resolves Init

	scopedName      string
	scopedNameValid bool
}

func (v *VarDecl) statementNode()  {}
func (v *VarDecl) TokenLiteral() string { return v.Token.Literal }
func (v *VarDecl) String() string {
	kw := "var"
	if v.IsConst {
		kw = "const"
	}
	if v.Init != nil {
		return fmt.Sprintf("%s %s: %s = %s", kw, v.Name, v.DeclaredT, v.Init)
	}
	return fmt.Sprintf("%s %s: %s", kw, v.Name, v.DeclaredT)
}
func (v *VarDecl) Children() []Node {
	if v.Init != nil {
		return []Node{v.Init}
	}
	return nil
}
func (v *VarDecl) ReplaceChild(old, new Node) bool {
	if v.Init == old {
		v.Init = new.(Expression)
		return true
	}
	return false
}

// ScopedName returns the canonical dotted path from the Program root used
// for assembly-label emission (spec.md §4.2). It is memoized; any pass that
// moves the declaration across scopes must call Invalidate.
func (v *VarDecl) ScopedName() (string, bool) { return v.scopedName, v.scopedNameValid }
func (v *VarDecl) SetScopedName(name string) {
	v.scopedName = name
	v.scopedNameValid = true
}
func (v *VarDecl) Invalidate() { v.scopedNameValid = false }

// Parameter is one entry of a subroutine's parameter list. It embeds Base
// so it can stand as a Symbol's Decl in the scope chain like any other
// declaration (spec.md §4.2: a parameter is visible under its own name
// throughout its subroutine's body).
type Parameter struct {
	Base
	Name string
	T    *TypeRef
	Type types.Type
}

func (p *Parameter) TokenLiteral() string { return p.Name }
func (p *Parameter) String() string       { return p.Name + ": " + p.T.String() }

// SubroutineDecl is a subroutine declaration (spec.md §3). A subroutine
// with Address set is a ROM stub with no lowered body; one with IsAsm true
// is a hand-written-asm routine whose body, as internal/parser builds it,
// is a single InlineAsmStatement.
type SubroutineDecl struct {
	Base
	Token       token.Token
	Name        string
	Params      []*Parameter
	ReturnTypes []*TypeRef
	RegisterAsm map[string]string // explicit asm register/status-flag bindings
	Clobbers    []string          // clobber set, if declared
	Address     *uint64           // absolute address for ROM stubs
	Inline      bool
	IsAsm       bool // hand-written asm subroutine body; dead-code-immune
	ForceOutput bool
	BodyStmts   []Statement

	scopedName      string
	scopedNameValid bool
}

func (s *SubroutineDecl) statementNode()  {}
func (s *SubroutineDecl) scopeNode()      {}
func (s *SubroutineDecl) TokenLiteral() string { return s.Token.Literal }
func (s *SubroutineDecl) String() string {
	var params []string
	for _, p := range s.Params {
		params = append(params, p.Name+": "+p.T.String())
	}
	return fmt.Sprintf("sub %s(%s)", s.Name, strings.Join(params, ", "))
}
func (s *SubroutineDecl) Body() []Statement     { return s.BodyStmts }
func (s *SubroutineDecl) SetBody(b []Statement) { s.BodyStmts = b }
func (s *SubroutineDecl) Children() []Node {
	out := make([]Node, 0, len(s.BodyStmts))
	for _, st := range s.BodyStmts {
		out = append(out, st)
	}
	return out
}
func (s *SubroutineDecl) ReplaceChild(old, new Node) bool {
	for i, st := range s.BodyStmts {
		if st == old {
			s.BodyStmts[i] = new.(Statement)
			return true
		}
	}
	return false
}
func (s *SubroutineDecl) ScopedName() (string, bool) { return s.scopedName, s.scopedNameValid }
func (s *SubroutineDecl) SetScopedName(name string) {
	s.scopedName = name
	s.scopedNameValid = true
}
func (s *SubroutineDecl) Invalidate() { s.scopedNameValid = false }

// LabelDecl is a jump-target label (spec.md §3).
type LabelDecl struct {
	Base
	Token token.Token
	Name  string

	scopedName      string
	scopedNameValid bool
}

func (l *LabelDecl) statementNode()  {}
func (l *LabelDecl) TokenLiteral() string { return l.Token.Literal }
func (l *LabelDecl) String() string       { return l.Name + ":" }
func (l *LabelDecl) Children() []Node     { return nil }
func (l *LabelDecl) ReplaceChild(Node, Node) bool { return false }
func (l *LabelDecl) ScopedName() (string, bool) { return l.scopedName, l.scopedNameValid }
func (l *LabelDecl) SetScopedName(name string) {
	l.scopedName = name
	l.scopedNameValid = true
}
func (l *LabelDecl) Invalidate() { l.scopedNameValid = false }

// StructDecl is a homogeneous-declaration-sequence struct type (spec.md
// §3): "a homogeneous sequence of variable declarations".
type StructDecl struct {
	Base
	Token   token.Token
	Name    string
	Members []*VarDecl
	T       *types.Struct // filled by the type checker
}

func (s *StructDecl) statementNode()  {}
func (s *StructDecl) scopeNode()      {}
func (s *StructDecl) TokenLiteral() string { return s.Token.Literal }
func (s *StructDecl) String() string       { return "struct " + s.Name }
func (s *StructDecl) Children() []Node {
	out := make([]Node, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m)
	}
	return out
}
func (s *StructDecl) ReplaceChild(old, new Node) bool {
	for i, m := range s.Members {
		if m == old {
			s.Members[i] = new.(*VarDecl)
			return true
		}
	}
	return false
}
