package compiler

import "fmt"

// Parser consumes the flat token slice produced by the Lexer and builds
// one top-level definition per Parse call.
//
// Grammar:
//
//	definition = "def" prototype expression
//	           | "extern" prototype
//	           | expression                          (wrapped anonymously)
//	prototype  = IDENT "(" params ")"
//	           | "binary" OP NUMBER? "(" params ")"  (inserts OP into the table)
//	           | "unary" OP "(" params ")"
//	params     = ( IDENT ("," IDENT)* )?
//	expression = unary binoprhs
//	binoprhs   = (OP unary)*                         (precedence climbing)
//	unary      = OP unary | primary
//	primary    = NUMBER | identexpr | "(" expression ")" | ifexpr | forexpr | varexpr
//	identexpr  = IDENT | IDENT "(" (expression ("," expression)*)? ")"
//	ifexpr     = "if" expression "then" expression "else" expression
//	forexpr    = "for" IDENT "=" expression "," expression ("," expression)? "in" expression
//	varexpr    = "var" IDENT ("=" expression)? ("," IDENT ("=" expression)?)* "in" expression
//
// There is no error recovery: the first structural violation aborts the
// whole parse and no partial AST is produced.
type Parser struct {
	tokens []Token
	pos    int
	prec   Precedence
}

// NewParser wraps a token sequence. The precedence table is owned by
// the caller and mutated in place by "binary" operator declarations.
func NewParser(tokens []Token, prec Precedence) *Parser {
	return &Parser{tokens: tokens, prec: prec}
}

// cur returns the current token without consuming it. Past the end it
// keeps returning the final EOF token.
func (p *Parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise fails.
func (p *Parser) expect(tt TokenType, context string) (Token, error) {
	tok := p.cur()
	if tok.Type != tt {
		return tok, &ParseError{Msg: fmt.Sprintf("expected %s in %s, got %s", tt, context, tok.Type), Tok: tok}
	}
	return p.advance(), nil
}

// Parse produces exactly one top-level definition and requires the
// token sequence to be fully consumed by it.
func (p *Parser) Parse() (*Function, error) {
	fn, err := p.parseDefinition()
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.Type != EOF {
		return nil, &ParseError{Msg: "unexpected token after definition", Tok: tok}
	}
	return fn, nil
}

// ParseAll repeatedly parses definitions until the token sequence is
// exhausted, so a whole source file can be compiled in one pass.
func (p *Parser) ParseAll() ([]*Function, error) {
	var fns []*Function
	for p.cur().Type != EOF {
		fn, err := p.parseDefinition()
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func (p *Parser) parseDefinition() (*Function, error) {
	switch p.cur().Type {
	case DEF:
		return p.parseDef()
	case EXTERN:
		return p.parseExtern()
	default:
		return p.parseTopLevelExpr()
	}
}

// parseDef parses "def" prototype expression.
func (p *Parser) parseDef() (*Function, error) {
	p.advance() // consume 'def'
	proto, err := p.parsePrototype()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Function{Proto: proto, Body: body}, nil
}

// parseExtern parses "extern" prototype. The resulting Function has no
// body and lowers to a declaration only.
func (p *Parser) parseExtern() (*Function, error) {
	p.advance() // consume 'extern'
	proto, err := p.parsePrototype()
	if err != nil {
		return nil, err
	}
	return &Function{Proto: proto}, nil
}

// parseTopLevelExpr wraps a bare expression in an anonymous function so
// it can be lowered and invoked like any other definition.
func (p *Parser) parseTopLevelExpr() (*Function, error) {
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Function{
		Proto:  &Prototype{Name: AnonFuncName},
		Body:   body,
		IsAnon: true,
	}, nil
}

// parsePrototype parses the three prototype shapes: a plain name, a
// "binary" operator declaration (which registers the operator's
// precedence as a side effect) and a "unary" operator declaration.
func (p *Parser) parsePrototype() (*Prototype, error) {
	var (
		name       string
		isOperator bool
		precedence int
	)

	switch tok := p.cur(); tok.Type {
	case IDENT:
		p.advance()
		name = tok.Lexeme

	case BINARY:
		p.advance()
		op, err := p.expect(OP, "custom operator declaration")
		if err != nil {
			return nil, err
		}
		name = BinaryName(op.Op)
		isOperator = true
		// Precedence literal is optional and defaults to 0.
		if num := p.cur(); num.Type == NUMBER {
			p.advance()
			precedence = int(num.Value)
		}
		p.prec.Declare(op.Op, precedence)

	case UNARY:
		p.advance()
		op, err := p.expect(OP, "custom operator declaration")
		if err != nil {
			return nil, err
		}
		name = UnaryName(op.Op)
		isOperator = true

	default:
		return nil, &ParseError{Msg: "expected identifier in prototype", Tok: tok}
	}

	if _, err := p.expect(LPAREN, "prototype"); err != nil {
		return nil, err
	}

	var params []string
	if p.cur().Type == RPAREN {
		p.advance()
	} else {
		for {
			tok, err := p.expect(IDENT, "parameter list")
			if err != nil {
				return nil, err
			}
			params = append(params, tok.Lexeme)

			switch next := p.cur(); next.Type {
			case RPAREN:
				p.advance()
			case COMMA:
				p.advance()
				continue
			default:
				return nil, &ParseError{Msg: "expected ',' or ')' in parameter list", Tok: next}
			}
			break
		}
	}

	return &Prototype{
		Name:       name,
		Params:     params,
		IsOperator: isOperator,
		Precedence: precedence,
	}, nil
}

// parseExpr parses a full expression: a unary operand followed by any
// number of binary operator applications.
func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryRHS(0, left)
}

// parseUnary treats any leading operator character as an application of
// the function UnaryName(op) to the following unary expression. Unary
// application is right-recursive and binds tighter than every binary
// operator by construction, so no precedence is involved.
func (p *Parser) parseUnary() (Expr, error) {
	tok := p.cur()
	if tok.Type != OP {
		return p.parsePrimary()
	}
	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &CallExpr{Callee: UnaryName(tok.Op), Args: []Expr{operand}}, nil
}

// parseBinaryRHS is classic precedence climbing: it absorbs operators
// whose table precedence is at least floor, recursing to the right when
// the following operator binds tighter.
func (p *Parser) parseBinaryRHS(floor int, left Expr) (Expr, error) {
	for {
		curPrec := p.curPrecedence()
		if curPrec < floor {
			return left, nil
		}

		op := p.advance().Op
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		if curPrec < p.curPrecedence() {
			right, err = p.parseBinaryRHS(curPrec+1, right)
			if err != nil {
				return nil, err
			}
		}

		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// curPrecedence returns the table precedence of the current token, or
// -1 if it is not an operator (which stops precedence climbing).
func (p *Parser) curPrecedence() int {
	tok := p.cur()
	if tok.Type != OP {
		return -1
	}
	return p.prec.Lookup(tok.Op)
}

// parsePrimary dispatches on the current token to one of the primary
// expression forms.
func (p *Parser) parsePrimary() (Expr, error) {
	switch tok := p.cur(); tok.Type {
	case IDENT:
		return p.parseIdentExpr()
	case NUMBER:
		p.advance()
		return &NumberExpr{Value: tok.Value}, nil
	case LPAREN:
		return p.parseParenExpr()
	case IF:
		return p.parseIfExpr()
	case FOR:
		return p.parseForExpr()
	case VAR:
		return p.parseVarExpr()
	default:
		return nil, &ParseError{Msg: "expected an expression", Tok: tok}
	}
}

func (p *Parser) parseParenExpr() (Expr, error) {
	p.advance() // consume '('
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "parenthesized expression"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseIdentExpr resolves an identifier by shape only: a following '('
// makes it a call, anything else a variable reference. Whether the name
// actually exists is the code generator's concern.
func (p *Parser) parseIdentExpr() (Expr, error) {
	name := p.advance().Lexeme

	if p.cur().Type != LPAREN {
		return &VariableExpr{Name: name}, nil
	}
	p.advance() // consume '('

	var args []Expr
	if p.cur().Type == RPAREN {
		p.advance()
		return &CallExpr{Callee: name}, nil
	}

	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch tok := p.cur(); tok.Type {
		case RPAREN:
			p.advance()
			return &CallExpr{Callee: name, Args: args}, nil
		case COMMA:
			p.advance()
		default:
			return nil, &ParseError{Msg: "expected ',' or ')' in argument list", Tok: tok}
		}
	}
}

// parseIfExpr parses if..then..else; all three clauses are required.
func (p *Parser) parseIfExpr() (Expr, error) {
	p.advance() // consume 'if'

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN, "conditional expression"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "conditional expression"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &IfExpr{Cond: cond, Then: then, Else: els}, nil
}

// parseForExpr parses for..in; a second comma introduces the optional
// step expression.
func (p *Parser) parseForExpr() (Expr, error) {
	p.advance() // consume 'for'

	name, err := p.expect(IDENT, "for loop")
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.Type != OP || tok.Op != '=' {
		return nil, &ParseError{Msg: "expected '=' in for loop", Tok: tok}
	}
	p.advance()

	start, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "for loop"); err != nil {
		return nil, err
	}
	end, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var step Expr
	if p.cur().Type == COMMA {
		p.advance()
		if step, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(IN, "for loop"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ForExpr{Var: name.Lexeme, Start: start, End: end, Step: step, Body: body}, nil
}

// parseVarExpr parses var..in with one or more comma-separated
// bindings, each with an optional initializer.
func (p *Parser) parseVarExpr() (Expr, error) {
	p.advance() // consume 'var'

	var bindings []VarBinding
	for {
		name, err := p.expect(IDENT, "var declaration")
		if err != nil {
			return nil, err
		}

		var init Expr
		if tok := p.cur(); tok.Type == OP && tok.Op == '=' {
			p.advance()
			if init, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		bindings = append(bindings, VarBinding{Name: name.Lexeme, Init: init})

		if tok := p.cur(); tok.Type == COMMA {
			p.advance()
			continue
		} else if tok.Type == IN {
			p.advance()
			break
		} else {
			return nil, &ParseError{Msg: "expected ',' or 'in' in var declaration", Tok: tok}
		}
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &VarInExpr{Bindings: bindings, Body: body}, nil
}
