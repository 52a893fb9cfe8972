package ast

import (
	"fmt"
	"strings"

	"github.com/p8c/p8c/internal/token"
)

// AssignStatement is an assignment; AugOp is non-empty before desugaring
// rewrites `x op= e` to a plain assignment whose RHS is a binary expression
// referencing the target (spec.md §3 invariant, §4.4.5).
type AssignStatement struct {
	Base
	Token  token.Token
	Target Expression
	AugOp  string // "" once desugared
	Value  Expression
}

func (a *AssignStatement) statementNode()  {}
func (a *AssignStatement) TokenLiteral() string { return a.Token.Literal }
func (a *AssignStatement) String() string {
	op := "="
	if a.AugOp != "" {
		op = a.AugOp + "="
	}
	return fmt.Sprintf("%s %s %s", a.Target, op, a.Value)
}
func (a *AssignStatement) Children() []Node { return []Node{a.Target, a.Value} }
func (a *AssignStatement) ReplaceChild(old, new Node) bool {
	if a.Target == old {
		a.Target = new.(Expression)
		return true
	}
	if a.Value == old {
		a.Value = new.(Expression)
		return true
	}
	return false
}

// PostfixStatement is `x++` / `x--` (spec.md §3).
type PostfixStatement struct {
	Base
	Token    token.Token
	Target   Expression
	Operator string // "++" or "--"
}

func (p *PostfixStatement) statementNode()  {}
func (p *PostfixStatement) TokenLiteral() string { return p.Token.Literal }
func (p *PostfixStatement) String() string        { return p.Target.String() + p.Operator }
func (p *PostfixStatement) Children() []Node       { return []Node{p.Target} }
func (p *PostfixStatement) ReplaceChild(old, new Node) bool {
	if p.Target == old {
		p.Target = new.(Expression)
		return true
	}
	return false
}

// CallStatement is a function call used as a statement (spec.md §3).
type CallStatement struct {
	Base
	Token token.Token
	Call  *CallExpression
}

func (c *CallStatement) statementNode()  {}
func (c *CallStatement) TokenLiteral() string { return c.Token.Literal }
func (c *CallStatement) String() string        { return c.Call.String() }
func (c *CallStatement) Children() []Node       { return []Node{c.Call} }
func (c *CallStatement) ReplaceChild(old, new Node) bool {
	if c.Call == old {
		c.Call = new.(*CallExpression)
		return true
	}
	return false
}

// ReturnStatement is `return` with an optional value list (spec.md §3).
type ReturnStatement struct {
	Base
	Token  token.Token
	Values []Expression
}

func (r *ReturnStatement) statementNode()  {}
func (r *ReturnStatement) TokenLiteral() string { return r.Token.Literal }
func (r *ReturnStatement) String() string {
	var parts []string
	for _, v := range r.Values {
		parts = append(parts, v.String())
	}
	return "return " + strings.Join(parts, ", ")
}
func (r *ReturnStatement) Children() []Node {
	out := make([]Node, len(r.Values))
	for i, v := range r.Values {
		out[i] = v
	}
	return out
}
func (r *ReturnStatement) ReplaceChild(old, new Node) bool {
	for i, v := range r.Values {
		if v == old {
			r.Values[i] = new.(Expression)
			return true
		}
	}
	return false
}

// BreakStatement is `break` (spec.md §3).
type BreakStatement struct {
	Base
	Token token.Token
}

func (b *BreakStatement) statementNode()  {}
func (b *BreakStatement) TokenLiteral() string      { return b.Token.Literal }
func (b *BreakStatement) String() string            { return "break" }
func (b *BreakStatement) Children() []Node           { return nil }
func (b *BreakStatement) ReplaceChild(Node, Node) bool { return false }

// JumpStatement is `goto` to an absolute address or a label (spec.md §3).
type JumpStatement struct {
	Base
	Token   token.Token
	Label   string // set when jumping to a label
	Address Expression // set when jumping to an absolute address
}

func (j *JumpStatement) statementNode()  {}
func (j *JumpStatement) TokenLiteral() string { return j.Token.Literal }
func (j *JumpStatement) String() string {
	if j.Address != nil {
		return "goto " + j.Address.String()
	}
	return "goto " + j.Label
}
func (j *JumpStatement) Children() []Node {
	if j.Address != nil {
		return []Node{j.Address}
	}
	return nil
}
func (j *JumpStatement) ReplaceChild(old, new Node) bool {
	if j.Address == old {
		j.Address = new.(Expression)
		return true
	}
	return false
}

// IfStatement is `if cond { then } else { else }` (spec.md §3).
type IfStatement struct {
	Base
	Token     token.Token
	Condition Expression
	Then      []Statement
	Else      []Statement
}

func (s *IfStatement) statementNode()  {}
func (s *IfStatement) TokenLiteral() string { return s.Token.Literal }
func (s *IfStatement) String() string       { return "if " + s.Condition.String() }
func (s *IfStatement) Children() []Node {
	out := []Node{s.Condition}
	for _, st := range s.Then {
		out = append(out, st)
	}
	for _, st := range s.Else {
		out = append(out, st)
	}
	return out
}
func (s *IfStatement) ReplaceChild(old, new Node) bool {
	if s.Condition == old {
		s.Condition = new.(Expression)
		return true
	}
	for i, st := range s.Then {
		if st == old {
			s.Then[i] = new.(Statement)
			return true
		}
	}
	for i, st := range s.Else {
		if st == old {
			s.Else[i] = new.(Statement)
			return true
		}
	}
	return false
}

// BranchStatement branches on a named CPU status flag (spec.md §3), e.g.
// `if_cs { ... }`.
type BranchStatement struct {
	Base
	Token token.Token
	Flag  string
	Body  []Statement
}

func (b *BranchStatement) statementNode()  {}
func (b *BranchStatement) TokenLiteral() string { return b.Token.Literal }
func (b *BranchStatement) String() string        { return "if_" + b.Flag }
func (b *BranchStatement) Children() []Node {
	out := make([]Node, len(b.Body))
	for i, s := range b.Body {
		out[i] = s
	}
	return out
}
func (b *BranchStatement) ReplaceChild(old, new Node) bool {
	for i, s := range b.Body {
		if s == old {
			b.Body[i] = new.(Statement)
			return true
		}
	}
	return false
}

// ForInStatement iterates a loop variable over an iterable (spec.md §3).
type ForInStatement struct {
	Base
	Token    token.Token
	VarName  string
	VarType  *TypeRef
	Iterable Expression
	Body     []Statement
}

func (f *ForInStatement) statementNode()  {}
func (f *ForInStatement) TokenLiteral() string { return f.Token.Literal }
func (f *ForInStatement) String() string {
	return fmt.Sprintf("for %s in %s", f.VarName, f.Iterable)
}
func (f *ForInStatement) Children() []Node {
	out := []Node{f.Iterable}
	for _, s := range f.Body {
		out = append(out, s)
	}
	return out
}
func (f *ForInStatement) ReplaceChild(old, new Node) bool {
	if f.Iterable == old {
		f.Iterable = new.(Expression)
		return true
	}
	for i, s := range f.Body {
		if s == old {
			f.Body[i] = new.(Statement)
			return true
		}
	}
	return false
}

// WhileStatement is `while cond { body }` (spec.md §3).
type WhileStatement struct {
	Base
	Token     token.Token
	Condition Expression
	Body      []Statement
}

func (w *WhileStatement) statementNode()  {}
func (w *WhileStatement) TokenLiteral() string { return w.Token.Literal }
func (w *WhileStatement) String() string        { return "while " + w.Condition.String() }
func (w *WhileStatement) Children() []Node {
	out := []Node{w.Condition}
	for _, s := range w.Body {
		out = append(out, s)
	}
	return out
}
func (w *WhileStatement) ReplaceChild(old, new Node) bool {
	if w.Condition == old {
		w.Condition = new.(Expression)
		return true
	}
	for i, s := range w.Body {
		if s == old {
			w.Body[i] = new.(Statement)
			return true
		}
	}
	return false
}

// UntilStatement is `repeat { body } until cond` shorthand body-first loop
// (spec.md §3: "until").
type UntilStatement struct {
	Base
	Token     token.Token
	Body      []Statement
	Condition Expression
}

func (u *UntilStatement) statementNode()  {}
func (u *UntilStatement) TokenLiteral() string { return u.Token.Literal }
func (u *UntilStatement) String() string        { return "until " + u.Condition.String() }
func (u *UntilStatement) Children() []Node {
	out := make([]Node, 0, len(u.Body)+1)
	for _, s := range u.Body {
		out = append(out, s)
	}
	out = append(out, u.Condition)
	return out
}
func (u *UntilStatement) ReplaceChild(old, new Node) bool {
	if u.Condition == old {
		u.Condition = new.(Expression)
		return true
	}
	for i, s := range u.Body {
		if s == old {
			u.Body[i] = new.(Statement)
			return true
		}
	}
	return false
}

// RepeatStatement is `repeat N { body }`, a fixed-count loop (spec.md §3).
type RepeatStatement struct {
	Base
	Token token.Token
	Count Expression
	Body  []Statement
}

func (r *RepeatStatement) statementNode()  {}
func (r *RepeatStatement) TokenLiteral() string { return r.Token.Literal }
func (r *RepeatStatement) String() string        { return "repeat " + r.Count.String() }
func (r *RepeatStatement) Children() []Node {
	out := []Node{r.Count}
	for _, s := range r.Body {
		out = append(out, s)
	}
	return out
}
func (r *RepeatStatement) ReplaceChild(old, new Node) bool {
	if r.Count == old {
		r.Count = new.(Expression)
		return true
	}
	for i, s := range r.Body {
		if s == old {
			r.Body[i] = new.(Statement)
			return true
		}
	}
	return false
}

// WhenArm is one `value-list -> body` choice of a WhenStatement, or the
// default (Else=true) arm.
type WhenArm struct {
	Values []Expression // empty when Else
	Else   bool
	Body   []Statement
}

// WhenStatement is a multichoice statement (spec.md §3/§4.4.7: arms sort by
// smallest constant value, default sorts last).
type WhenStatement struct {
	Base
	Token   token.Token
	Subject Expression
	Arms    []*WhenArm
}

func (w *WhenStatement) statementNode()  {}
func (w *WhenStatement) TokenLiteral() string { return w.Token.Literal }
func (w *WhenStatement) String() string        { return "when " + w.Subject.String() }
func (w *WhenStatement) Children() []Node {
	out := []Node{w.Subject}
	for _, arm := range w.Arms {
		for _, v := range arm.Values {
			out = append(out, v)
		}
		for _, s := range arm.Body {
			out = append(out, s)
		}
	}
	return out
}
func (w *WhenStatement) ReplaceChild(old, new Node) bool {
	if w.Subject == old {
		w.Subject = new.(Expression)
		return true
	}
	for _, arm := range w.Arms {
		for i, v := range arm.Values {
			if v == old {
				arm.Values[i] = new.(Expression)
				return true
			}
		}
		for i, s := range arm.Body {
			if s == old {
				arm.Body[i] = new.(Statement)
				return true
			}
		}
	}
	return false
}

// InlineAsmStatement carries the raw text of an inline assembly block
// (spec.md §6: "the raw text of any inline assembly blocks").
type InlineAsmStatement struct {
	Base
	Token token.Token
	Text  string
}

func (i *InlineAsmStatement) statementNode()  {}
func (i *InlineAsmStatement) TokenLiteral() string      { return i.Token.Literal }
func (i *InlineAsmStatement) String() string            { return "asm { ... }" }
func (i *InlineAsmStatement) Children() []Node           { return nil }
func (i *InlineAsmStatement) ReplaceChild(Node, Node) bool { return false }

// NopStatement is an explicit no-op (spec.md §3).
type NopStatement struct {
	Base
	Token token.Token
}

func (n *NopStatement) statementNode()  {}
func (n *NopStatement) TokenLiteral() string      { return n.Token.Literal }
func (n *NopStatement) String() string            { return "nop" }
func (n *NopStatement) Children() []Node           { return nil }
func (n *NopStatement) ReplaceChild(Node, Node) bool { return false }

// AnonScopeStatement is an anonymous nested scope (spec.md §3).
type AnonScopeStatement struct {
	Base
	Token     token.Token
	Name      string // empty as built by internal/parser; nothing assigns one
	BodyStmts []Statement
}

func (a *AnonScopeStatement) statementNode()  {}
func (a *AnonScopeStatement) scopeNode()      {}
func (a *AnonScopeStatement) TokenLiteral() string { return a.Token.Literal }
func (a *AnonScopeStatement) String() string        { return "{ ... }" }
func (a *AnonScopeStatement) Body() []Statement      { return a.BodyStmts }
func (a *AnonScopeStatement) SetBody(b []Statement)  { a.BodyStmts = b }
func (a *AnonScopeStatement) Children() []Node {
	out := make([]Node, len(a.BodyStmts))
	for i, s := range a.BodyStmts {
		out[i] = s
	}
	return out
}
func (a *AnonScopeStatement) ReplaceChild(old, new Node) bool {
	for i, s := range a.BodyStmts {
		if s == old {
			a.BodyStmts[i] = new.(Statement)
			return true
		}
	}
	return false
}
