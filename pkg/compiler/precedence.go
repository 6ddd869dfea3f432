package compiler

// DefaultPrecedence is the binding strength of any operator with no
// table entry. It is higher than every seeded default, so undeclared
// custom operators parse at maximal binding strength.
const DefaultPrecedence = 100

// Precedence maps a binary operator character to its binding strength.
// The table belongs to one compilation session: the parser reads it for
// every infix operator and inserts into it when a "binary" declaration
// is parsed, so a declared operator affects all subsequent parsing in
// the same session. The lexer and the code generator never touch it.
type Precedence map[rune]int

// NewPrecedence returns a table seeded with the built-in defaults.
func NewPrecedence() Precedence {
	return Precedence{
		'=': 2,
		'<': 10,
		'>': 10,
		'+': 20,
		'-': 20,
		'*': 40,
		'/': 40,
	}
}

// Lookup returns the precedence of op, or DefaultPrecedence if op has
// no entry.
func (p Precedence) Lookup(op rune) int {
	if prec, ok := p[op]; ok {
		return prec
	}
	return DefaultPrecedence
}

// Declare inserts or overwrites the entry for op.
func (p Precedence) Declare(op rune, prec int) {
	p[op] = prec
}
