package parser

import (
	"strconv"
	"strings"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/token"
	"github.com/p8c/p8c/internal/types"
)

// parseExpression is the Pratt-parser core: parse one prefix term, then
// keep folding in infix/postfix operators bound tighter than precedence.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		p.errorf("no prefix parse function for %s %q", p.cur.Kind, p.cur.Literal)
		return nil
	}
	left := prefix()

	for !p.curIs(token.SEMICOLON) && precedence < p.curPrecedenceForInfix() {
		infix, ok := p.infixFns[p.cur.Kind]
		if !ok {
			return left
		}
		left = infix(left)
	}
	return left
}

// curPrecedenceForInfix looks at the *current* token because infix parse
// functions are entered with p.cur already sitting on the operator (unlike
// the prefix loop, which advances past its token before returning).
func (p *Parser) curPrecedenceForInfix() int {
	return p.curPrecedence()
}

func (p *Parser) parseIntLiteral() ast.Expression {
	tok := p.cur
	v, err := parseIntLiteralText(tok.Literal)
	if err != nil {
		p.errorf("invalid integer literal %q: %s", tok.Literal, err)
	}
	kind := types.Ubyte
	if v > 0xFF || v < 0 {
		kind = types.Uword
	}
	n := &ast.NumericLiteral{Token: tok, T: kind, IVal: v}
	p.reg(n)
	p.next()
	return n
}

func parseIntLiteralText(lit string) (int64, error) {
	switch {
	case strings.HasPrefix(lit, "$"):
		return strconv.ParseInt(lit[1:], 16, 64)
	case strings.HasPrefix(lit, "%"):
		return strconv.ParseInt(lit[1:], 2, 64)
	default:
		return strconv.ParseInt(lit, 10, 64)
	}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	tok := p.cur
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf("invalid float literal %q: %s", tok.Literal, err)
	}
	n := &ast.NumericLiteral{Token: tok, T: types.Float, FVal: v}
	p.reg(n)
	p.next()
	return n
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	tok := p.cur
	v := int64(0)
	if tok.Kind == token.TRUE {
		v = 1
	}
	n := &ast.NumericLiteral{Token: tok, T: types.Ubyte, IVal: v}
	p.reg(n)
	p.next()
	return n
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cur
	s := &ast.StringLiteral{Token: tok, Value: tok.Literal}
	p.reg(s)
	p.next()
	return s
}

// parseIdentifierOrCast handles a bare identifier, a dotted path
// (a.b.c), and a typecast `<typename>(expr)` — all three start with IDENT.
func (p *Parser) parseIdentifierOrCast() ast.Expression {
	tok := p.cur
	if typeNames[tok.Literal] && p.peekIs(token.LPAREN) {
		return p.parseTypecast()
	}

	path := []string{tok.Literal}
	p.next()
	for p.curIs(token.DOT) {
		p.next()
		if !p.curIs(token.IDENT) {
			p.errorf("expected identifier after '.', got %s", p.cur.Kind)
			break
		}
		path = append(path, p.cur.Literal)
		p.next()
	}
	id := &ast.IdentifierRef{Token: tok, Path: path}
	p.reg(id)
	return id
}

func (p *Parser) parseTypecast() ast.Expression {
	tok := p.cur
	scalar := scalarKindFromName(tok.Literal)
	p.next() // type name
	p.expect(token.LPAREN)
	value := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	c := &ast.TypecastExpression{Token: tok, Target: &ast.TypeRef{Scalar: scalar}, Value: value}
	p.reg(c)
	p.adopt(c, value)
	return c
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.cur
	op := tok.Literal
	if tok.Kind == token.NOT {
		op = "not"
	}
	p.next()
	if tok.Kind == token.PLUS {
		// Unary plus is a no-op; just parse through to the operand.
		return p.parseExpression(PREFIX_PREC)
	}
	right := p.parseExpression(PREFIX_PREC)
	e := &ast.PrefixExpression{Token: tok, Operator: op, Right: right}
	p.reg(e)
	p.adopt(e, right)
	return e
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.next() // consume '('
	expr := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	return expr
}

func (p *Parser) parseMemRead() ast.Expression {
	tok := p.cur
	p.next() // consume '@'
	p.expect(token.LPAREN)
	addr := p.parseExpression(LOWEST)
	p.expect(token.RPAREN)
	m := &ast.MemReadExpression{Token: tok, Address: addr}
	p.reg(m)
	p.adopt(m, addr)
	return m
}

func (p *Parser) parseAddressOf() ast.Expression {
	tok := p.cur
	p.next() // consume '&'
	value := p.parseExpression(PREFIX_PREC)
	a := &ast.AddressOfExpression{Token: tok, Value: value}
	p.reg(a)
	p.adopt(a, value)
	return a
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.cur
	p.next() // consume '{'
	var elems []ast.Expression
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpression(LOWEST))
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	a := &ast.ArrayLiteral{Token: tok, Elements: elems}
	p.reg(a)
	for _, e := range elems {
		p.adopt(a, e)
	}
	return a
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	op := tok.Literal
	prec := p.curPrecedence()
	p.next()
	right := p.parseExpression(prec)
	b := &ast.BinaryExpression{Token: tok, Left: left, Operator: op, Right: right}
	p.reg(b)
	p.adopt(b, left, right)
	return b
}

// parseRangeExpression handles `start..end [step k]` (spec.md §3), entered
// with p.cur on the ".." token and left already holding `start`.
func (p *Parser) parseRangeExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // consume '..'
	end := p.parseExpression(SUM)
	var step ast.Expression
	if p.curIs(token.STEP) {
		p.next()
		step = p.parseExpression(SUM)
	}
	r := &ast.RangeExpression{Token: tok, Start: left, End: end, Step: step}
	p.reg(r)
	p.adopt(r, left, end, step)
	return r
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // consume '('
	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(LOWEST))
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	c := &ast.CallExpression{Token: tok, Callee: callee, Args: args}
	p.reg(c)
	p.adopt(c, callee)
	for _, a := range args {
		p.adopt(c, a)
	}
	return c
}

func (p *Parser) parseIndexExpression(arr ast.Expression) ast.Expression {
	tok := p.cur
	p.next() // consume '['
	idx := p.parseExpression(LOWEST)
	p.expect(token.RBRACKET)
	i := &ast.IndexExpression{Token: tok, Array: arr, Index: idx}
	p.reg(i)
	p.adopt(i, arr, idx)
	return i
}

func scalarKindFromName(name string) types.Kind {
	switch name {
	case "ubyte":
		return types.Ubyte
	case "byte":
		return types.Byte
	case "uword":
		return types.Uword
	case "word":
		return types.Word
	case "float":
		return types.Float
	case "str":
		return types.Str
	default:
		return types.StructKind
	}
}

// parseTypeRef parses a type annotation: one of the six primitive type
// names or a struct name, optionally followed by an array suffix
// (spec.md §3: "ArraySize Expression // nil if size is inferred").
func (p *Parser) parseTypeRef() *ast.TypeRef {
	if !p.curIs(token.IDENT) {
		p.errorf("expected a type name, got %s %q", p.cur.Kind, p.cur.Literal)
		return &ast.TypeRef{}
	}
	name := p.cur.Literal
	ref := &ast.TypeRef{Scalar: scalarKindFromName(name)}
	if ref.Scalar == types.StructKind {
		ref.StructName = name
	}
	p.next()

	if p.accept(token.LBRACKET) {
		ref.IsArray = true
		if !p.curIs(token.RBRACKET) {
			ref.ArraySize = p.parseExpression(LOWEST)
		}
		p.expect(token.RBRACKET)
	}
	return ref
}
