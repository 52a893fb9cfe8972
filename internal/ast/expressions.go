package ast

import (
	"fmt"
	"strings"

	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// NumericLiteral is a numeric literal tagged with its data type and value
// (spec.md §3). Integer values are stored as int64; float values as
// float64, selected by T.Kind().
type NumericLiteral struct {
	Base
	Token token.Token
	T     types.Kind
	IVal  int64
	FVal  float64
}

func (n *NumericLiteral) expressionNode() {}
func (n *NumericLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumericLiteral) String() string {
	if n.T == types.Float {
		return fmt.Sprintf("%g", n.FVal)
	}
	return fmt.Sprintf("%d", n.IVal)
}
func (n *NumericLiteral) Children() []Node          { return nil }
func (n *NumericLiteral) ReplaceChild(Node, Node) bool { return false }

// StringLiteral is a string literal (spec.md §3; 1..255 bytes, checked in
// §4.8 Program-Level Checks).
type StringLiteral struct {
	Base
	Token token.Token
	Value string
}

func (s *StringLiteral) expressionNode() {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) String() string       { return fmt.Sprintf("%q", s.Value) }
func (s *StringLiteral) Children() []Node            { return nil }
func (s *StringLiteral) ReplaceChild(Node, Node) bool { return false }

// ArrayLiteral is an array literal, e.g. `{ v1, ..., vN }` (spec.md §3/§4.4.6).
type ArrayLiteral struct {
	Base
	Token    token.Token
	Elements []Expression
	ElemT    types.Kind
}

func (a *ArrayLiteral) expressionNode() {}
func (a *ArrayLiteral) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLiteral) String() string {
	var parts []string
	for _, e := range a.Elements {
		parts = append(parts, e.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (a *ArrayLiteral) Children() []Node {
	out := make([]Node, len(a.Elements))
	for i, e := range a.Elements {
		out[i] = e
	}
	return out
}
func (a *ArrayLiteral) ReplaceChild(old, new Node) bool {
	for i, e := range a.Elements {
		if e == old {
			a.Elements[i] = new.(Expression)
			return true
		}
	}
	return false
}

// IdentifierRef is an identifier reference (spec.md §3/§4.2). Path holds
// the dotted name-path as written ("a.b.c" -> ["a","b","c"]); Target is
// filled by the name resolver.
type IdentifierRef struct {
	Base
	Token  token.Token
	Path   []string
	Target Node // the resolved declaration (VarDecl, SubroutineDecl, LabelDecl, ...)
	T      types.Type
}

func (i *IdentifierRef) expressionNode() {}
func (i *IdentifierRef) TokenLiteral() string { return i.Token.Literal }
func (i *IdentifierRef) String() string       { return strings.Join(i.Path, ".") }
func (i *IdentifierRef) Children() []Node            { return nil }
func (i *IdentifierRef) ReplaceChild(Node, Node) bool { return false }

// BinaryExpression is a binary operation (spec.md §3).
type BinaryExpression struct {
	Base
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
	T        types.Type
}

func (b *BinaryExpression) expressionNode() {}
func (b *BinaryExpression) TokenLiteral() string { return b.Token.Literal }
func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}
func (b *BinaryExpression) Children() []Node { return []Node{b.Left, b.Right} }
func (b *BinaryExpression) ReplaceChild(old, new Node) bool {
	if b.Left == old {
		b.Left = new.(Expression)
		return true
	}
	if b.Right == old {
		b.Right = new.(Expression)
		return true
	}
	return false
}

// PrefixExpression is a prefix operation: +, -, ~, not (spec.md §3).
type PrefixExpression struct {
	Base
	Token    token.Token
	Operator string
	Right    Expression
	T        types.Type
}

func (p *PrefixExpression) expressionNode() {}
func (p *PrefixExpression) TokenLiteral() string { return p.Token.Literal }
func (p *PrefixExpression) String() string        { return fmt.Sprintf("(%s%s)", p.Operator, p.Right) }
func (p *PrefixExpression) Children() []Node       { return []Node{p.Right} }
func (p *PrefixExpression) ReplaceChild(old, new Node) bool {
	if p.Right == old {
		p.Right = new.(Expression)
		return true
	}
	return false
}

// TypecastExpression is an explicit (or compiler-inserted) typecast
// (spec.md §3/§4.9 "redundant-cast stripping").
type TypecastExpression struct {
	Base
	Token  token.Token
	Target *TypeRef
	T      types.Type
	Value  Expression
}

func (c *TypecastExpression) expressionNode() {}
func (c *TypecastExpression) TokenLiteral() string { return c.Token.Literal }
func (c *TypecastExpression) String() string       { return fmt.Sprintf("%s(%s)", c.Target, c.Value) }
func (c *TypecastExpression) Children() []Node      { return []Node{c.Value} }
func (c *TypecastExpression) ReplaceChild(old, new Node) bool {
	if c.Value == old {
		c.Value = new.(Expression)
		return true
	}
	return false
}

// CallExpression is a function-call expression (spec.md §3).
type CallExpression struct {
	Base
	Token    token.Token
	Callee   Expression
	Args     []Expression
	T        types.Type
	Resolved *SubroutineDecl // filled by the name resolver
}

func (c *CallExpression) expressionNode() {}
func (c *CallExpression) TokenLiteral() string { return c.Token.Literal }
func (c *CallExpression) String() string {
	var args []string
	for _, a := range c.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}
func (c *CallExpression) Children() []Node {
	out := []Node{c.Callee}
	for _, a := range c.Args {
		out = append(out, a)
	}
	return out
}
func (c *CallExpression) ReplaceChild(old, new Node) bool {
	if c.Callee == old {
		c.Callee = new.(Expression)
		return true
	}
	for i, a := range c.Args {
		if a == old {
			c.Args[i] = new.(Expression)
			return true
		}
	}
	return false
}

// MemReadExpression is a direct memory read `@(addr)` (spec.md §3; always
// ubyte-typed).
type MemReadExpression struct {
	Base
	Token   token.Token
	Address Expression
}

func (m *MemReadExpression) expressionNode() {}
func (m *MemReadExpression) TokenLiteral() string { return m.Token.Literal }
func (m *MemReadExpression) String() string        { return fmt.Sprintf("@(%s)", m.Address) }
func (m *MemReadExpression) Children() []Node       { return []Node{m.Address} }
func (m *MemReadExpression) ReplaceChild(old, new Node) bool {
	if m.Address == old {
		m.Address = new.(Expression)
		return true
	}
	return false
}

// AddressOfExpression is `&expr` (spec.md §3; always uword-typed).
type AddressOfExpression struct {
	Base
	Token token.Token
	Value Expression
}

func (a *AddressOfExpression) expressionNode() {}
func (a *AddressOfExpression) TokenLiteral() string { return a.Token.Literal }
func (a *AddressOfExpression) String() string        { return "&" + a.Value.String() }
func (a *AddressOfExpression) Children() []Node       { return []Node{a.Value} }
func (a *AddressOfExpression) ReplaceChild(old, new Node) bool {
	if a.Value == old {
		a.Value = new.(Expression)
		return true
	}
	return false
}

// RangeExpression is `start..end step k` (spec.md §3).
type RangeExpression struct {
	Base
	Token token.Token
	Start Expression
	End   Expression
	Step  Expression // nil means step 1
	ElemT types.Kind
}

func (r *RangeExpression) expressionNode() {}
func (r *RangeExpression) TokenLiteral() string { return r.Token.Literal }
func (r *RangeExpression) String() string {
	if r.Step != nil {
		return fmt.Sprintf("%s..%s step %s", r.Start, r.End, r.Step)
	}
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}
func (r *RangeExpression) Children() []Node {
	out := []Node{r.Start, r.End}
	if r.Step != nil {
		out = append(out, r.Step)
	}
	return out
}
func (r *RangeExpression) ReplaceChild(old, new Node) bool {
	if r.Start == old {
		r.Start = new.(Expression)
		return true
	}
	if r.End == old {
		r.End = new.(Expression)
		return true
	}
	if r.Step == old {
		r.Step = new.(Expression)
		return true
	}
	return false
}

// IndexExpression is an array-indexed reference (spec.md §3).
type IndexExpression struct {
	Base
	Token token.Token
	Array Expression
	Index Expression
	T     types.Type
}

func (i *IndexExpression) expressionNode() {}
func (i *IndexExpression) TokenLiteral() string { return i.Token.Literal }
func (i *IndexExpression) String() string        { return fmt.Sprintf("%s[%s]", i.Array, i.Index) }
func (i *IndexExpression) Children() []Node       { return []Node{i.Array, i.Index} }
func (i *IndexExpression) ReplaceChild(old, new Node) bool {
	if i.Array == old {
		i.Array = new.(Expression)
		return true
	}
	if i.Index == old {
		i.Index = new.(Expression)
		return true
	}
	return false
}
