// Package parser implements a compact recursive-descent/Pratt parser that
// turns a token.Kind stream from internal/lexer into an internal/ast tree.
//
// The front end (this package and internal/lexer) is external glue per
// spec.md §1/§6: the core only requires that whatever produces an AST
// deliver fully-attributed positions, pre-typed literals, and the raw text
// of inline assembly blocks. This parser is one concrete way to get there,
// written in the teacher's Pratt-parsing idiom (github.com/cwbudde/go-dws's
// internal/parser/parser.go: prefix/infix parse-function tables keyed by
// token kind, one precedence-climbing parseExpression loop, one parse
// method per statement construct), generalized to P8's much smaller
// grammar. It does not attempt to reproduce DWScript's OOP/exception/
// lambda/property grammar, which P8 has no analogue for.
package parser

import (
	"fmt"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/lexer"
	"github.com/p8c/p8c/internal/token"
)

// Precedence levels, lowest to highest (spec.md §3 operator set).
const (
	_ int = iota
	LOWEST
	OR_PREC
	AND_PREC
	EQUALITY
	RELATIONAL
	RANGE_PREC
	SUM
	SHIFT
	PRODUCT
	PREFIX_PREC
	CALL_INDEX
)

var precedences = map[token.Kind]int{
	token.OR:  OR_PREC,
	token.XOR: OR_PREC,
	token.AND: AND_PREC,
	token.EQ:  EQUALITY, token.NOT_EQ: EQUALITY,
	token.LESS: RELATIONAL, token.GREATER: RELATIONAL,
	token.LESS_EQ: RELATIONAL, token.GREATER_EQ: RELATIONAL,
	token.DOTDOT: RANGE_PREC,
	token.PLUS:   SUM, token.MINUS: SUM,
	token.SHL: SHIFT, token.SHR: SHIFT,
	token.STAR: PRODUCT, token.SLASH: PRODUCT, token.PERCENT: PRODUCT,
	token.AMP: PRODUCT, token.PIPE: PRODUCT, token.CARET: PRODUCT,
	token.LPAREN:   CALL_INDEX,
	token.LBRACKET: CALL_INDEX,
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// typeNames are the six primitive type keywords, lexed as plain IDENT
// tokens (token.LookupIdent deliberately never classifies them) and
// recognized contextually wherever a type annotation or cast is expected.
var typeNames = map[string]bool{
	"ubyte": true, "byte": true, "uword": true, "word": true,
	"float": true, "str": true,
}

// Parser turns one file's token stream into an *ast.Module.
type Parser struct {
	l     *lexer.Lexer
	arena *ast.Arena
	file  string

	cur  token.Token
	peek token.Token

	errors []string

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn
}

// New creates a Parser reading from l, registering nodes into arena.
func New(arena *ast.Arena, file string, l *lexer.Lexer) *Parser {
	p := &Parser{l: l, arena: arena, file: file}

	p.prefixFns = map[token.Kind]prefixParseFn{
		token.INT:      p.parseIntLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.IDENT:    p.parseIdentifierOrCast,
		token.MINUS:    p.parsePrefixExpression,
		token.TILDE:    p.parsePrefixExpression,
		token.NOT:      p.parsePrefixExpression,
		token.PLUS:     p.parsePrefixExpression,
		token.LPAREN:   p.parseGroupedExpression,
		token.AT:       p.parseMemRead,
		token.AMP:      p.parseAddressOf,
		token.LBRACE:   p.parseArrayLiteral,
		token.TRUE:     p.parseBoolLiteral,
		token.FALSE:    p.parseBoolLiteral,
	}
	p.infixFns = map[token.Kind]infixParseFn{
		token.PLUS: p.parseBinaryExpression, token.MINUS: p.parseBinaryExpression,
		token.STAR: p.parseBinaryExpression, token.SLASH: p.parseBinaryExpression,
		token.PERCENT: p.parseBinaryExpression,
		token.AMP:     p.parseBinaryExpression, token.PIPE: p.parseBinaryExpression,
		token.CARET: p.parseBinaryExpression,
		token.SHL:   p.parseBinaryExpression, token.SHR: p.parseBinaryExpression,
		token.EQ: p.parseBinaryExpression, token.NOT_EQ: p.parseBinaryExpression,
		token.LESS: p.parseBinaryExpression, token.GREATER: p.parseBinaryExpression,
		token.LESS_EQ: p.parseBinaryExpression, token.GREATER_EQ: p.parseBinaryExpression,
		token.AND: p.parseBinaryExpression, token.OR: p.parseBinaryExpression,
		token.XOR:     p.parseBinaryExpression,
		token.DOTDOT:  p.parseRangeExpression,
		token.LPAREN:  p.parseCallExpression,
		token.LBRACKET: p.parseIndexExpression,
	}

	p.next()
	p.next()
	return p
}

// Parse lexes and parses one source file into a single-module Program,
// named after the file (spec.md has no import/module syntax of its own at
// the lexical level; a P8 compilation unit is one source file).
func Parse(file, source string) (*ast.Program, []string) {
	program := ast.NewProgram()
	l := lexer.New(file, source)
	p := New(program.Arena, file, l)
	module := p.parseModule(moduleNameFromFile(file))
	program.Arena.Register(module, program.ID())
	for _, stmt := range module.Stmts {
		program.Arena.Adopt(module, stmt)
	}
	program.Modules = append(program.Modules, module)
	return program, p.errors
}

func moduleNameFromFile(file string) string {
	base := file
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' || file[i] == '\\' {
			base = file[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

func (p *Parser) parseModule(name string) *ast.Module {
	mod := &ast.Module{Name: name}
	// mod isn't registered yet; the caller (Parse) owns its parent link
	// since the Program must exist first. Statements are parsed eagerly
	// and adopted once mod itself is registered below.
	var stmts []ast.Statement
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	mod.Stmts = stmts
	return mod
}

// Errors returns the accumulated parse errors, in source order.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.curIs(k) {
		p.errorf("expected %s, got %s %q", k, p.cur.Kind, p.cur.Literal)
		return p.cur
	}
	tok := p.cur
	p.next()
	return tok
}

func (p *Parser) accept(k token.Kind) bool {
	if p.curIs(k) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf("%s: %s", p.cur.Pos, fmt.Sprintf(format, args...)))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peek.Kind]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur.Kind]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) reg(n ast.Node) ast.NodeID {
	return p.arena.Register(n, ast.NoParent)
}

func (p *Parser) adopt(parent ast.Node, children ...ast.Node) {
	p.arena.Adopt(parent, children...)
}
