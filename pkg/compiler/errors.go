package compiler

import "fmt"

// LexError reports a malformed token. Offset is the byte position of the
// first character of the offending run.
type LexError struct {
	Offset int
	Msg    string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Msg)
}

// ParseError reports the first structural grammar violation. Tok is the
// token the parser was looking at when it gave up.
type ParseError struct {
	Msg string
	Tok Token
}

func (e *ParseError) Error() string {
	if e.Tok.Type == EOF {
		return fmt.Sprintf("parse error: %s (at end of input)", e.Msg)
	}
	return fmt.Sprintf("parse error: %s (at %s)", e.Msg, e.Tok)
}

// LowerError reports a failure while lowering an AST function: an
// unresolved variable, call target or custom operator, or a routine the
// backend refused to verify.
type LowerError struct {
	Msg string
}

func (e *LowerError) Error() string {
	return "lower error: " + e.Msg
}

func lowerErrorf(format string, args ...any) *LowerError {
	return &LowerError{Msg: fmt.Sprintf(format, args...)}
}
