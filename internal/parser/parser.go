// Package parser implements the syntax analysis for PyRaf.
// It uses recursive descent for statements and Pratt precedence climbing
// for expressions.
package parser

import (
	"fmt"

	"pyraf/internal/ast"
	"pyraf/internal/diag"
	"pyraf/internal/span"
	"pyraf/internal/token"
)

// ============================================================
// Binding power (precedence) levels — spec.md §4.2's table verbatim.
// ============================================================

const (
	bpNone       = 0
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpNotPrefix  = 30 // not (prefix)
	bpEquality   = 40 // == !=
	bpComparison = 50 // < <= > >=
	bpAdditive   = 60 // + -
	bpMultiply   = 70 // * / %
	bpUnaryMinus = 80 // - (unary prefix)
	bpPostfix    = 90 // call ( / index [
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN, token.LBRACKET:
		return bpPostfix
	default:
		return bpNone
	}
}

// ParseError is returned on the first unexpected token, missing ';', or
// malformed construct. The parser does not recover.
type ParseError struct {
	Diag diag.Diagnostic
}

func (e *ParseError) Error() string { return e.Diag.String() }

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// ParseFile parses the entire token stream into a *ast.File, or returns the
// first ParseError encountered.
func (p *Parser) ParseFile() (*ast.File, error) {
	file := &ast.File{}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		file.Body = append(file.Body, stmt)
	}

	endPos := p.peek().Span.End
	file.Span = span.Span{Start: startPos, End: endPos}
	return file, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kind token.Kind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errorAt(tok.Span, "expected '%s', got '%s'", kind, tok.Kind)
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

func (p *Parser) errorAt(s span.Span, format string, args ...interface{}) error {
	return &ParseError{Diag: diag.Errorf("ParseError", s, format, args...)}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() (ast.Stmt, error) {
	switch p.peekKind() {
	case token.LBRACE:
		return p.block()
	case token.KW_IF:
		return p.ifStmt()
	case token.KW_WHILE:
		return p.whileStmt()
	case token.KW_DEF:
		return p.funcDecl()
	case token.KW_RETURN:
		return p.returnStmt()
	case token.KW_IMPORT:
		return p.importStmt()
	}

	// Two-token lookahead: IDENT '=' -> assignment.
	if p.check(token.IDENT) && p.peekAt(1).Kind == token.ASSIGN {
		return p.assignStmt()
	}

	return p.exprStmt()
}

func (p *Parser) block() (*ast.Block, error) {
	lbrace, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	blk := &ast.Block{StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: lbrace.Span}}}

	for !p.check(token.RBRACE) {
		if p.isAtEnd() {
			return nil, p.errorAt(p.peek().Span, "unterminated block (missing '}')")
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, stmt)
	}
	rbrace, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	blk.Span.End = rbrace.Span.End
	return blk, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	ifTok := p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	thenBlock, err := p.block()
	if err != nil {
		return nil, err
	}

	node := &ast.If{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: ifTok.Span}},
		Cond:     cond,
		Then:     thenBlock,
	}

	if p.match(token.KW_ELSE) {
		elseBlock, err := p.block()
		if err != nil {
			return nil, err
		}
		node.Else = elseBlock
	}

	return node, nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	whileTok := p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.While{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: whileTok.Span}},
		Cond:     cond,
		Body:     body,
	}, nil
}

func (p *Parser) funcDecl() (ast.Stmt, error) {
	defTok := p.advance()
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: defTok.Span}},
		Name:     nameTok.Lexeme,
		Params:   params,
		Body:     body,
	}, nil
}

func (p *Parser) paramList() ([]string, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(token.RPAREN) {
		tok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Lexeme)
		for p.match(token.COMMA) {
			tok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, tok.Lexeme)
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	retTok := p.advance()
	node := &ast.Return{StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: retTok.Span}}}

	if p.match(token.SEMI) {
		return node, nil
	}
	value, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	node.Value = value
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, fmt.Errorf("return statement: %w", err)
	}
	return node, nil
}

func (p *Parser) importStmt() (ast.Stmt, error) {
	importTok := p.advance()
	pathTok, err := p.expect(token.STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.Import{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: importTok.Span}},
		Path:     pathTok.Lexeme,
	}, nil
}

func (p *Parser) assignStmt() (ast.Stmt, error) {
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, fmt.Errorf("assignment: %w", err)
	}
	return &ast.Assign{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: nameTok.Span}},
		Name:     nameTok.Lexeme,
		Value:    value,
	}, nil
}

func (p *Parser) exprStmt() (ast.Stmt, error) {
	start := p.peek().Span
	expr, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, fmt.Errorf("expression statement: %w", err)
	}
	return &ast.ExprStmt{
		StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: start}},
		Expr:     expr,
	}, nil
}

// ============================================================
// Expressions (Pratt)
// ============================================================

func (p *Parser) expression(minBP int) (ast.Expr, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		if p.check(token.LPAREN) {
			lparen := p.advance()
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			left = &ast.Call{
				ExprBase: ast.ExprBase{NodeBase: ast.NodeBase{Span: lparen.Span}},
				Callee:   left,
				Args:     args,
			}
			continue
		}

		if p.check(token.LBRACKET) {
			lbracket := p.advance()
			idx, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			left = &ast.Index{
				ExprBase: ast.ExprBase{NodeBase: ast.NodeBase{Span: lbracket.Span}},
				Target:   left,
				Idx:      idx,
			}
			continue
		}

		bp := infixBP(p.peekKind())
		if bp == bpNone || bp < minBP {
			break
		}

		opTok := p.advance()
		right, err := p.expression(bp + 1) // left-associative
		if err != nil {
			return nil, err
		}
		op, err := binaryOpFor(opTok.Kind)
		if err != nil {
			return nil, p.errorAt(opTok.Span, "%s", err)
		}
		left = &ast.Binary{
			ExprBase: ast.ExprBase{NodeBase: ast.NodeBase{Span: opTok.Span}},
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}

	return left, nil
}

func (p *Parser) argList() ([]ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		arg, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.match(token.COMMA) {
			arg, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) prefix() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		val, err := parseNumber(tok.Lexeme)
		if err != nil {
			return nil, p.errorAt(tok.Span, "invalid number literal '%s'", tok.Lexeme)
		}
		return &ast.NumberLit{ExprBase: exprBase(tok.Span), Value: val}, nil

	case token.STRING:
		p.advance()
		return &ast.StringLit{ExprBase: exprBase(tok.Span), Value: tok.Lexeme}, nil

	case token.KW_TRUE:
		p.advance()
		return &ast.BoolLit{ExprBase: exprBase(tok.Span), Value: true}, nil

	case token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{ExprBase: exprBase(tok.Span), Value: false}, nil

	case token.KW_NIL:
		p.advance()
		return &ast.NilLit{ExprBase: exprBase(tok.Span)}, nil

	case token.IDENT:
		p.advance()
		return &ast.Ident{ExprBase: exprBase(tok.Span), Name: tok.Lexeme}, nil

	case token.LBRACKET:
		p.advance()
		var elems []ast.Expr
		if !p.check(token.RBRACKET) {
			elem, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			for p.match(token.COMMA) {
				elem, err := p.expression(0)
				if err != nil {
					return nil, err
				}
				elems = append(elems, elem)
			}
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		return &ast.ListLit{ExprBase: exprBase(tok.Span), Elems: elems}, nil

	case token.LPAREN:
		p.advance()
		inner, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	case token.MINUS:
		p.advance()
		operand, err := p.expression(bpUnaryMinus)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{ExprBase: exprBase(tok.Span), Op: ast.UnaryNeg, Operand: operand}, nil

	case token.KW_NOT:
		p.advance()
		operand, err := p.expression(bpNotPrefix)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{ExprBase: exprBase(tok.Span), Op: ast.UnaryNot, Operand: operand}, nil

	case token.KW_DEF:
		// Anonymous function expression, reusing 'def' as the introducer:
		// def (params) { body }
		p.advance()
		params, err := p.paramList()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.FuncExpr{ExprBase: exprBase(tok.Span), Params: params, Body: body}, nil
	}

	return nil, p.errorAt(tok.Span, "expected expression, got '%s'", tok.Kind)
}

func exprBase(s span.Span) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: s}}
}

func binaryOpFor(k token.Kind) (ast.BinaryOp, error) {
	switch k {
	case token.PLUS:
		return ast.BinAdd, nil
	case token.MINUS:
		return ast.BinSub, nil
	case token.STAR:
		return ast.BinMul, nil
	case token.SLASH:
		return ast.BinDiv, nil
	case token.PERCENT:
		return ast.BinMod, nil
	case token.EQ:
		return ast.BinEq, nil
	case token.NEQ:
		return ast.BinNe, nil
	case token.LT:
		return ast.BinLt, nil
	case token.LTE:
		return ast.BinLe, nil
	case token.GT:
		return ast.BinGt, nil
	case token.GTE:
		return ast.BinGe, nil
	case token.KW_AND:
		return ast.BinAnd, nil
	case token.KW_OR:
		return ast.BinOr, nil
	default:
		return 0, fmt.Errorf("unknown binary operator '%s'", k)
	}
}

func parseNumber(lexeme string) (float64, error) {
	var val float64
	_, err := fmt.Sscanf(lexeme, "%g", &val)
	return val, err
}
