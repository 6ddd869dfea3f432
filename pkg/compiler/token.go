package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENT  // variable / function name
	NUMBER // decimal float literal

	// Keywords
	DEF    // "def"
	EXTERN // "extern"
	IF     // "if"
	THEN   // "then"
	ELSE   // "else"
	FOR    // "for"
	IN     // "in"
	VAR    // "var"
	UNARY  // "unary"
	BINARY // "binary"

	// Punctuation
	LPAREN // (
	RPAREN // )
	COMMA  // ,

	// OP is any other single character; the operator itself is in Token.Op.
	OP

	// COMMENT marks a '#'-to-end-of-line comment. The lexer consumes
	// comments itself and never emits this type into the token sequence.
	COMMENT
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:     "EOF",
	IDENT:   "IDENT",
	NUMBER:  "NUMBER",
	DEF:     "DEF",
	EXTERN:  "EXTERN",
	IF:      "IF",
	THEN:    "THEN",
	ELSE:    "ELSE",
	FOR:     "FOR",
	IN:      "IN",
	VAR:     "VAR",
	UNARY:   "UNARY",
	BINARY:  "BINARY",
	LPAREN:  "LPAREN",
	RPAREN:  "RPAREN",
	COMMA:   "COMMA",
	OP:      "OP",
	COMMENT: "COMMENT",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string  // the exact source text that was matched
	Value  float64 // parsed value for NUMBER tokens
	Op     rune    // operator character for OP tokens
	Pos    int     // byte offset of the first character in the source
}

func (t Token) String() string {
	switch t.Type {
	case NUMBER:
		return fmt.Sprintf("%-8s %v  @%d", t.Type, t.Value, t.Pos)
	case OP:
		return fmt.Sprintf("%-8s %q  @%d", t.Type, t.Op, t.Pos)
	default:
		return fmt.Sprintf("%-8s %q  @%d", t.Type, t.Lexeme, t.Pos)
	}
}
