package compiler

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"def":    DEF,
	"extern": EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"var":    VAR,
	"unary":  UNARY,
	"binary": BINARY,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src []rune
	pos int // index of the next rune to consume
	off int // byte offset of the next rune in the original source
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	l.off += utf8.RuneLen(r)
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipComment discards everything from '#' to end-of-line. The parser
// never sees comment tokens.
func (l *Lexer) skipComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	off := l.off
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENT
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: off}
}

// scanNumber collects a maximal run of digits and '.' characters and
// parses it as a decimal float. A run that does not form a valid decimal
// literal (e.g. "1.2.3" or a lone ".") is a fatal LexError.
func (l *Lexer) scanNumber() (Token, error) {
	off := l.off
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsDigit(r) && r != '.' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return Token{}, &LexError{Offset: off, Msg: fmt.Sprintf("malformed number literal %q", lexeme)}
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Value: value, Pos: off}, nil
}

// nextToken skips whitespace and comments and returns the next Token.
// End of input yields an EOF token, not an error.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Pos: l.off}, nil
		}
		if l.peek() == '#' {
			l.skipComment()
			continue
		}
		break
	}

	ch := l.peek()
	off := l.off

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdent(), nil
	}
	if unicode.IsDigit(ch) || ch == '.' {
		return l.scanNumber()
	}

	l.advance()
	switch ch {
	case '(':
		return Token{Type: LPAREN, Lexeme: "(", Pos: off}, nil
	case ')':
		return Token{Type: RPAREN, Lexeme: ")", Pos: off}, nil
	case ',':
		return Token{Type: COMMA, Lexeme: ",", Pos: off}, nil
	default:
		// Any other character is a one-character operator.
		return Token{Type: OP, Lexeme: string(ch), Op: ch, Pos: off}, nil
	}
}

// Lex tokenises src in one left-to-right pass and returns all tokens
// including the final EOF token. It returns a non-nil error on the first
// malformed token; the parser is never handed a partial sequence.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
