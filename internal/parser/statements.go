package parser

import (
	"strings"

	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/token"
)

// parseStatement dispatches on the current token to one parse method per
// construct (spec.md §3's statement set), mirroring the teacher's
// statements.go. It is used for both module-level and subroutine-body
// statement lists: P8 has no separate top-level grammar.
func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Kind {
	case token.VAR, token.CONST:
		return p.parseVarDecl()
	case token.STRUCT:
		return p.parseStructDecl()
	case token.SUB, token.INLINE, token.ROM:
		return p.parseSubroutineDecl()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.REPEAT:
		return p.parseRepeatOrUntilStatement()
	case token.WHEN:
		return p.parseWhenStatement()
	case token.FOR:
		return p.parseForInStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.GOTO:
		return p.parseGotoStatement()
	case token.ASM:
		if p.peekIs(token.SUB) {
			return p.parseSubroutineDecl()
		}
		return p.parseInlineAsmStatement()
	case token.LBRACE:
		return p.parseAnonScopeStatement()
	case token.SEMICOLON:
		p.next()
		return nil
	case token.IDENT:
		if p.cur.Literal == "nop" && (p.peekIs(token.SEMICOLON) || p.peekIs(token.RBRACE)) {
			return p.parseNopStatement()
		}
		if strings.HasPrefix(p.cur.Literal, "if_") {
			return p.parseBranchStatement()
		}
		if p.peekIs(token.COLON) {
			return p.parseLabelDecl()
		}
		return p.parseSimpleStatement()
	default:
		p.errorf("unexpected token %s %q at statement start", p.cur.Kind, p.cur.Literal)
		p.next()
		return nil
	}
}

func (p *Parser) parseStatementList() []ast.Statement {
	p.expect(token.LBRACE)
	var stmts []ast.Statement
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(token.RBRACE)
	return stmts
}

// --- declarations ---

func (p *Parser) parseVarDecl() *ast.VarDecl {
	tok := p.cur
	isConst := tok.Kind == token.CONST
	p.next()

	nameTok := p.expect(token.IDENT)
	v := &ast.VarDecl{Token: tok, Name: nameTok.Literal, IsConst: isConst}

	if p.accept(token.COLON) {
		v.DeclaredT = p.parseTypeRef()
		if v.DeclaredT.IsArray {
			// zp wish only applies to scalars; nothing further to parse here.
		}
	}
	if p.accept(token.ZEROPAGE) {
		v.ZP = ast.ZPRequire
	} else if p.accept(token.NOTZEROPAGE) {
		v.ZP = ast.ZPForbid
	}
	if p.accept(token.ASSIGN) {
		v.Init = p.parseExpression(LOWEST)
	}
	p.accept(token.SEMICOLON)

	p.reg(v)
	p.adopt(v, v.Init)
	return v
}

func (p *Parser) parseStructDecl() *ast.StructDecl {
	tok := p.cur
	p.next() // consume 'struct'
	nameTok := p.expect(token.IDENT)
	s := &ast.StructDecl{Token: tok, Name: nameTok.Literal}

	p.expect(token.LBRACE)
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		memberTok := p.expect(token.IDENT)
		p.expect(token.COLON)
		memberType := p.parseTypeRef()
		m := &ast.VarDecl{Token: memberTok, Name: memberTok.Literal, DeclaredT: memberType}
		p.reg(m)
		s.Members = append(s.Members, m)
		p.accept(token.COMMA)
		p.accept(token.SEMICOLON)
	}
	p.expect(token.RBRACE)

	p.reg(s)
	for _, m := range s.Members {
		p.adopt(s, m)
	}
	return s
}

func (p *Parser) parseSubroutineDecl() *ast.SubroutineDecl {
	tok := p.cur
	s := &ast.SubroutineDecl{Token: tok}
	isRom := false
	for {
		switch p.cur.Kind {
		case token.INLINE:
			s.Inline = true
			p.next()
			continue
		case token.ROM:
			isRom = true
			p.next()
			continue
		case token.ASM:
			s.IsAsm = true
			p.next()
			continue
		}
		break
	}
	p.expect(token.SUB)
	nameTok := p.expect(token.IDENT)
	s.Name = nameTok.Literal

	p.expect(token.LPAREN)
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		paramTok := p.expect(token.IDENT)
		p.expect(token.COLON)
		paramType := p.parseTypeRef()
		param := &ast.Parameter{Name: paramTok.Literal, T: paramType}
		p.reg(param)
		s.Params = append(s.Params, param)
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)

	if p.accept(token.COLON) {
		s.ReturnTypes = append(s.ReturnTypes, p.parseTypeRef())
		for p.accept(token.COMMA) {
			s.ReturnTypes = append(s.ReturnTypes, p.parseTypeRef())
		}
	}

	if p.accept(token.CLOBBERS) {
		for p.curIs(token.IDENT) {
			s.Clobbers = append(s.Clobbers, p.cur.Literal)
			p.next()
			if !p.accept(token.COMMA) {
				break
			}
		}
	}

	if isRom {
		p.expect(token.AT)
		addr := p.parseExpression(LOWEST)
		if lit, ok := addr.(*ast.NumericLiteral); ok {
			v := uint64(lit.IVal)
			s.Address = &v
		}
		p.accept(token.SEMICOLON)
		p.reg(s)
		for _, prm := range s.Params {
			p.adopt(s, prm)
		}
		return s
	}

	if s.IsAsm {
		// A hand-written-asm subroutine's body is wholly raw assembly text,
		// not lowered statements (spec.md §3: "hand-written asm routine").
		asmStmt := p.parseInlineAsmStatement()
		s.BodyStmts = []ast.Statement{asmStmt}
		p.reg(s)
		for _, prm := range s.Params {
			p.adopt(s, prm)
		}
		p.adopt(s, asmStmt)
		return s
	}

	s.BodyStmts = p.parseStatementList()
	p.reg(s)
	for _, prm := range s.Params {
		p.adopt(s, prm)
	}
	for _, st := range s.BodyStmts {
		p.adopt(s, st)
	}
	return s
}

func (p *Parser) parseLabelDecl() *ast.LabelDecl {
	tok := p.cur
	l := &ast.LabelDecl{Token: tok, Name: tok.Literal}
	p.next() // identifier
	p.expect(token.COLON)
	p.reg(l)
	return l
}

// --- simple statements: assignment, postfix, call ---

func (p *Parser) parseSimpleStatement() ast.Statement {
	target := p.parseExpression(LOWEST)

	switch p.cur.Kind {
	case token.INC, token.DEC:
		tok := p.cur
		op := tok.Literal
		p.next()
		p.accept(token.SEMICOLON)
		s := &ast.PostfixStatement{Token: tok, Target: target, Operator: op}
		p.reg(s)
		p.adopt(s, target)
		return s

	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN,
		token.SLASH_ASSIGN, token.PERCENT_ASSIGN, token.AND_ASSIGN, token.OR_ASSIGN,
		token.XOR_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN:
		tok := p.cur
		augOp := augOpFor(tok.Kind)
		p.next()
		value := p.parseExpression(LOWEST)
		p.accept(token.SEMICOLON)
		s := &ast.AssignStatement{Token: tok, Target: target, AugOp: augOp, Value: value}
		p.reg(s)
		p.adopt(s, target, value)
		return s

	default:
		p.accept(token.SEMICOLON)
		if call, ok := target.(*ast.CallExpression); ok {
			s := &ast.CallStatement{Call: call}
			p.reg(s)
			p.adopt(s, call)
			return s
		}
		p.errorf("expression %q is not a valid statement", target.String())
		return nil
	}
}

func augOpFor(k token.Kind) string {
	switch k {
	case token.PLUS_ASSIGN:
		return "+"
	case token.MINUS_ASSIGN:
		return "-"
	case token.STAR_ASSIGN:
		return "*"
	case token.SLASH_ASSIGN:
		return "/"
	case token.PERCENT_ASSIGN:
		return "%"
	case token.AND_ASSIGN:
		return "&"
	case token.OR_ASSIGN:
		return "|"
	case token.XOR_ASSIGN:
		return "^"
	case token.SHL_ASSIGN:
		return "<<"
	case token.SHR_ASSIGN:
		return ">>"
	default:
		return ""
	}
}

// --- control flow ---

func (p *Parser) parseIfStatement() *ast.IfStatement {
	tok := p.cur
	p.next() // consume 'if'
	cond := p.parseExpression(LOWEST)
	then := p.parseStatementList()
	var els []ast.Statement
	if p.accept(token.ELSE) {
		if p.curIs(token.IF) {
			els = []ast.Statement{p.parseIfStatement()}
		} else {
			els = p.parseStatementList()
		}
	}
	s := &ast.IfStatement{Token: tok, Condition: cond, Then: then, Else: els}
	p.reg(s)
	p.adopt(s, cond)
	for _, st := range then {
		p.adopt(s, st)
	}
	for _, st := range els {
		p.adopt(s, st)
	}
	return s
}

func (p *Parser) parseBranchStatement() *ast.BranchStatement {
	tok := p.cur
	flag := strings.TrimPrefix(tok.Literal, "if_")
	p.next()
	body := p.parseStatementList()
	s := &ast.BranchStatement{Token: tok, Flag: flag, Body: body}
	p.reg(s)
	for _, st := range body {
		p.adopt(s, st)
	}
	return s
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	tok := p.cur
	p.next() // consume 'while'
	cond := p.parseExpression(LOWEST)
	body := p.parseStatementList()
	s := &ast.WhileStatement{Token: tok, Condition: cond, Body: body}
	p.reg(s)
	p.adopt(s, cond)
	for _, st := range body {
		p.adopt(s, st)
	}
	return s
}

// parseRepeatOrUntilStatement disambiguates `repeat { body } until cond`
// (UntilStatement) from `repeat N { body }` (RepeatStatement, spec.md §3)
// by whether a count expression precedes the brace.
func (p *Parser) parseRepeatOrUntilStatement() ast.Statement {
	tok := p.cur
	p.next() // consume 'repeat'

	if p.curIs(token.LBRACE) {
		body := p.parseStatementList()
		p.expect(token.UNTIL)
		cond := p.parseExpression(LOWEST)
		p.accept(token.SEMICOLON)
		s := &ast.UntilStatement{Token: tok, Body: body, Condition: cond}
		p.reg(s)
		for _, st := range body {
			p.adopt(s, st)
		}
		p.adopt(s, cond)
		return s
	}

	count := p.parseExpression(LOWEST)
	body := p.parseStatementList()
	s := &ast.RepeatStatement{Token: tok, Count: count, Body: body}
	p.reg(s)
	p.adopt(s, count)
	for _, st := range body {
		p.adopt(s, st)
	}
	return s
}

func (p *Parser) parseWhenStatement() *ast.WhenStatement {
	tok := p.cur
	p.next() // consume 'when'
	subject := p.parseExpression(LOWEST)
	p.expect(token.LBRACE)

	s := &ast.WhenStatement{Token: tok, Subject: subject}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		arm := &ast.WhenArm{}
		if p.accept(token.ELSE) {
			arm.Else = true
		} else {
			arm.Values = append(arm.Values, p.parseExpression(LOWEST))
			for p.accept(token.COMMA) {
				arm.Values = append(arm.Values, p.parseExpression(LOWEST))
			}
		}
		p.expect(token.COLON)
		arm.Body = p.parseStatementList()
		s.Arms = append(s.Arms, arm)
	}
	p.expect(token.RBRACE)

	p.reg(s)
	p.adopt(s, subject)
	for _, arm := range s.Arms {
		for _, v := range arm.Values {
			p.adopt(s, v)
		}
		for _, st := range arm.Body {
			p.adopt(s, st)
		}
	}
	return s
}

func (p *Parser) parseForInStatement() *ast.ForInStatement {
	tok := p.cur
	p.next() // consume 'for'
	nameTok := p.expect(token.IDENT)
	s := &ast.ForInStatement{Token: tok, VarName: nameTok.Literal}
	if p.accept(token.COLON) {
		s.VarType = p.parseTypeRef()
	}
	p.expect(token.IN)
	s.Iterable = p.parseExpression(LOWEST)
	s.Body = p.parseStatementList()

	p.reg(s)
	p.adopt(s, s.Iterable)
	for _, st := range s.Body {
		p.adopt(s, st)
	}
	return s
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	tok := p.cur
	p.next() // consume 'return'
	s := &ast.ReturnStatement{Token: tok}
	if !p.curIs(token.SEMICOLON) && !p.curIs(token.RBRACE) {
		s.Values = append(s.Values, p.parseExpression(LOWEST))
		for p.accept(token.COMMA) {
			s.Values = append(s.Values, p.parseExpression(LOWEST))
		}
	}
	p.accept(token.SEMICOLON)
	p.reg(s)
	for _, v := range s.Values {
		p.adopt(s, v)
	}
	return s
}

func (p *Parser) parseBreakStatement() *ast.BreakStatement {
	tok := p.cur
	p.next()
	p.accept(token.SEMICOLON)
	s := &ast.BreakStatement{Token: tok}
	p.reg(s)
	return s
}

func (p *Parser) parseGotoStatement() *ast.JumpStatement {
	tok := p.cur
	p.next() // consume 'goto'
	s := &ast.JumpStatement{Token: tok}
	if p.curIs(token.AT) {
		s.Address = p.parseMemReadAddressOnly()
	} else {
		nameTok := p.expect(token.IDENT)
		s.Label = nameTok.Literal
	}
	p.accept(token.SEMICOLON)
	p.reg(s)
	p.adopt(s, s.Address)
	return s
}

// parseMemReadAddressOnly parses `@addr` (bare, no parens) for goto's
// absolute-address form, distinct from the `@(addr)` memory-read expression.
func (p *Parser) parseMemReadAddressOnly() ast.Expression {
	p.next() // consume '@'
	return p.parseExpression(PREFIX_PREC)
}

func (p *Parser) parseNopStatement() *ast.NopStatement {
	tok := p.cur
	p.next()
	p.accept(token.SEMICOLON)
	s := &ast.NopStatement{Token: tok}
	p.reg(s)
	return s
}

// parseInlineAsmStatement captures the raw text between the braces by
// concatenating token literals (spec.md §6: "the raw text of any inline
// assembly blocks"); the token-based lexer re-tokenizes the assembly
// mnemonics rather than preserving whitespace verbatim, which is faithful
// enough for passthrough emission but not byte-identical to the source.
func (p *Parser) parseInlineAsmStatement() *ast.InlineAsmStatement {
	tok := p.cur
	p.next() // consume 'asm'
	p.expect(token.LBRACE)
	var sb strings.Builder
	depth := 1
	for depth > 0 && !p.curIs(token.EOF) {
		if p.curIs(token.LBRACE) {
			depth++
		} else if p.curIs(token.RBRACE) {
			depth--
			if depth == 0 {
				p.next()
				break
			}
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.cur.Literal)
		p.next()
	}
	s := &ast.InlineAsmStatement{Token: tok, Text: sb.String()}
	p.reg(s)
	return s
}

func (p *Parser) parseAnonScopeStatement() *ast.AnonScopeStatement {
	tok := p.cur
	body := p.parseStatementList()
	s := &ast.AnonScopeStatement{Token: tok, BodyStmts: body}
	p.reg(s)
	for _, st := range body {
		p.adopt(s, st)
	}
	return s
}
