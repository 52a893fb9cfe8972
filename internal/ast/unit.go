package ast

import (
	"fmt"

	"github.com/p8c/p8c/internal/token"
)

// Directive is a block/scope-level directive (spec.md §4.4.2: `output,
// launcher, zeropage, zpreserved, address, option`) hoisted above variable
// declarations during reordering.
type Directive struct {
	Base
	Token token.Token
	Name  string
	Args  []string
}

func (d *Directive) statementNode()  {}
func (d *Directive) TokenLiteral() string      { return d.Token.Literal }
func (d *Directive) String() string            { return "%" + d.Name }
func (d *Directive) Children() []Node           { return nil }
func (d *Directive) ReplaceChild(Node, Node) bool { return false }

// Block is a named, optionally addressed collection of declarations and
// subroutines (spec.md §3 invariants: main-first, library-last, address
// ordering).
type Block struct {
	Base
	Token       token.Token
	Name        string
	Address     *uint64
	IsLibrary   bool
	ForceOutput bool
	Stmts       []Statement
}

func (b *Block) statementNode()  {}
func (b *Block) scopeNode()      {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) String() string       { return fmt.Sprintf("%s {...}", b.Name) }
func (b *Block) Body() []Statement     { return b.Stmts }
func (b *Block) SetBody(s []Statement) { b.Stmts = s }
func (b *Block) Children() []Node {
	out := make([]Node, len(b.Stmts))
	for i, s := range b.Stmts {
		out[i] = s
	}
	return out
}
func (b *Block) ReplaceChild(old, new Node) bool {
	for i, s := range b.Stmts {
		if s == old {
			b.Stmts[i] = new.(Statement)
			return true
		}
	}
	return false
}

// HasAddress reports whether the block declared an explicit load address,
// used by the reorderer's address-ordering invariant (spec.md §3).
func (b *Block) HasAddress() bool { return b.Address != nil }

// Module is a compilation unit: a named group of top-level statements
// (spec.md §3). ImportNames records cross-module imports consulted by the
// name resolver (spec.md §4.2).
type Module struct {
	Base
	Name        string
	ImportNames []string
	Stmts       []Statement
	IsLibrary   bool
}

func (m *Module) statementNode()  {}
func (m *Module) scopeNode()      {}
func (m *Module) TokenLiteral() string { return "module" }
func (m *Module) String() string       { return "module " + m.Name }
func (m *Module) Body() []Statement     { return m.Stmts }
func (m *Module) SetBody(s []Statement) { m.Stmts = s }
func (m *Module) Children() []Node {
	out := make([]Node, len(m.Stmts))
	for i, s := range m.Stmts {
		out[i] = s
	}
	return out
}
func (m *Module) ReplaceChild(old, new Node) bool {
	for i, s := range m.Stmts {
		if s == old {
			m.Stmts[i] = new.(Statement)
			return true
		}
	}
	return false
}

// Program is the root of the tree (spec.md §3).
type Program struct {
	Base
	Modules []*Module
	Arena   *Arena
}

func (p *Program) TokenLiteral() string { return "program" }
func (p *Program) String() string       { return "program" }
func (p *Program) Children() []Node {
	out := make([]Node, len(p.Modules))
	for i, m := range p.Modules {
		out[i] = m
	}
	return out
}
func (p *Program) ReplaceChild(old, new Node) bool {
	for i, m := range p.Modules {
		if m == old {
			p.Modules[i] = new.(*Module)
			return true
		}
	}
	return false
}

// NewProgram creates an empty Program registered as the arena root.
func NewProgram() *Program {
	a := NewArena()
	p := &Program{Arena: a}
	a.Register(p, NoParent)
	return p
}
