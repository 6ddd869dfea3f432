package compiler

import (
	"errors"
	"strings"
	"testing"
)

// parseOne lexes and parses a single definition with a fresh table.
func parseOne(t *testing.T, src string) (*Function, error) {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) error = %v", src, err)
	}
	return NewParser(tokens, NewPrecedence()).Parse()
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // Function.String()
	}{
		{
			name:  "Function definition",
			input: "def foo(a, b) a+b",
			want:  "def foo(a, b) (a + b)",
		},
		{
			name:  "Empty parameter list",
			input: "def nop() 0",
			want:  "def nop() 0",
		},
		{
			name:  "Extern declaration",
			input: "extern sin(x)",
			want:  "extern sin(x)",
		},
		{
			name:  "Bare expression wraps anonymously",
			input: "1+2",
			want:  "def __anon_expr() (1 + 2)",
		},
		{
			name:  "Multiplication binds tighter than addition",
			input: "a+b*c",
			want:  "def __anon_expr() (a + (b * c))",
		},
		{
			name:  "Same precedence associates left",
			input: "a-b+c",
			want:  "def __anon_expr() ((a - b) + c)",
		},
		{
			name:  "Comparison binds loosest",
			input: "a < b+1",
			want:  "def __anon_expr() (a < (b + 1))",
		},
		{
			name:  "Parentheses override precedence",
			input: "(a+b)*c",
			want:  "def __anon_expr() ((a + b) * c)",
		},
		{
			name:  "Call with arguments",
			input: "foo(1, x, bar(2))",
			want:  "def __anon_expr() foo(1, x, bar(2))",
		},
		{
			name:  "Call with no arguments",
			input: "foo()",
			want:  "def __anon_expr() foo()",
		},
		{
			name:  "Leading operator is a unary call",
			input: "!x",
			want:  "def __anon_expr() unary!(x)",
		},
		{
			name:  "Unary application is right recursive",
			input: "--x",
			want:  "def __anon_expr() unary-(unary-(x))",
		},
		{
			name:  "Conditional",
			input: "if x < 3 then 1 else 2",
			want:  "def __anon_expr() (if (x < 3) then 1 else 2)",
		},
		{
			name:  "For loop without step",
			input: "for i = 1, i < 10 in foo(i)",
			want:  "def __anon_expr() (for i = 1, (i < 10) in foo(i))",
		},
		{
			name:  "For loop with step",
			input: "for i = 1, i < 10, 2 in foo(i)",
			want:  "def __anon_expr() (for i = 1, (i < 10), 2 in foo(i))",
		},
		{
			name:  "Var with and without initializers",
			input: "var a = 1, b in a+b",
			want:  "def __anon_expr() (var a = 1, b in (a + b))",
		},
		{
			name:  "Unary operator definition",
			input: "def unary!(v) if v then 0 else 1",
			want:  "def unary!(v) (if v then 0 else 1)",
		},
		{
			name:  "Binary operator definition",
			input: "def binary| 5 (a, b) if a then 1 else if b then 1 else 0",
			want:  "def binary|(a, b) (if a then 1 else (if b then 1 else 0))",
		},
		{
			name:  "Assignment parses as binary operator",
			input: "def f(x) x = x+1",
			want:  "def f(x) (x = (x + 1))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := parseOne(t, tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := fn.String(); got != tt.want {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string // substring of the error
	}{
		{"Missing comma in parameters", "def foo(a b) a+b", "expected ',' or ')' in parameter list"},
		{"Missing then", "if 1 1 else 2", "expected THEN"},
		{"Missing else", "if 1 then 1", "expected ELSE"},
		{"Missing in after for", "for i = 1, 10 i", "expected IN"},
		{"Missing '=' in for", "for i 1, 10 in i", "expected '=' in for loop"},
		{"Missing in after var", "var x = 1 x", "expected ',' or 'in'"},
		{"Unterminated parenthesis", "(1+2", "expected RPAREN"},
		{"Unterminated argument list", "foo(1, 2", "expected ',' or ')' in argument list"},
		{"Missing operator after binary", "def binary (a, b) 0", "expected OP"},
		{"Missing prototype name", "def (a) a", "expected identifier in prototype"},
		{"Trailing tokens", "1+2 3", "unexpected token after definition"},
		{"Empty input", "", "expected an expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOne(t, tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse() error = %T, want *ParseError", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.msg)
			}
		})
	}
}

// A binary declaration must change how the rest of the session parses.
func TestParseBinaryDeclarationUpdatesPrecedence(t *testing.T) {
	prec := NewPrecedence()

	tokens, err := Lex("def binary§ 10 (a, b) a+b")
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	fn, err := NewParser(tokens, prec).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fn.Proto.Name != "binary§" || !fn.Proto.IsOperator || fn.Proto.Precedence != 10 {
		t.Fatalf("Proto = %+v, want operator binary§ with precedence 10", fn.Proto)
	}
	if got := prec.Lookup('§'); got != 10 {
		t.Fatalf("Lookup('§') = %d, want 10", got)
	}

	// Precedence 10 sits between '<' (10) and '+' (20): a§b+c groups the
	// addition first.
	tokens, err = Lex("a § b + c")
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	fn, err = NewParser(tokens, prec).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := fn.Body.String(), "(a § (b + c))"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestParseBinaryDefaultPrecedence(t *testing.T) {
	prec := NewPrecedence()
	tokens, err := Lex("def binary~(a, b) 0")
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	if _, err := NewParser(tokens, prec).Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := prec.Lookup('~'); got != 0 {
		t.Errorf("Lookup('~') = %d, want 0 (omitted precedence)", got)
	}
}

// An operator nobody declared still parses, at maximal binding
// strength.
func TestParseUndeclaredOperatorBindsTightest(t *testing.T) {
	fn, err := parseOne(t, "a + b ? c")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := fn.Body.String(), "(a + (b ? c))"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

// Duplicate parameter names are not a parse error; shadowing is
// resolved during lowering.
func TestParseDuplicateParams(t *testing.T) {
	fn, err := parseOne(t, "def f(x, x) x")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(fn.Proto.Params) != 2 {
		t.Errorf("Params = %v, want two entries", fn.Proto.Params)
	}
}

func TestParseAll(t *testing.T) {
	tokens, err := Lex("def one() 1 def two() 2 one() + two()")
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	fns, err := NewParser(tokens, NewPrecedence()).ParseAll()
	if err != nil {
		t.Fatalf("ParseAll() error = %v", err)
	}
	if len(fns) != 3 {
		t.Fatalf("ParseAll() returned %d definitions, want 3", len(fns))
	}
	if !fns[2].IsAnon {
		t.Errorf("last definition should be the anonymous wrapper")
	}
}
