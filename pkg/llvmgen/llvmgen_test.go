package llvmgen_test

import (
	"errors"
	"strings"
	"testing"

	"kaleido/pkg/compiler"
	"kaleido/pkg/llvmgen"
)

func TestEmitModule(t *testing.T) {
	be := llvmgen.New()
	session := compiler.NewSession(be)
	src := `
extern sin(x)
def min(a, b) if a < b then a else b
def inc(x) x = x + 1
`
	if _, err := session.CompileAll(src); err != nil {
		t.Fatalf("CompileAll() error = %v", err)
	}

	ir := be.Module.String()
	for _, frag := range []string{
		"declare double @sin(double %x)",
		"define double @min(double %a, double %b)",
		"fcmp ult",
		"fcmp one",
		"uitofp",
		"phi double",
		"alloca double",
		"ret double",
	} {
		if !strings.Contains(ir, frag) {
			t.Errorf("module IR missing %q:\n%s", frag, ir)
		}
	}
}

// Parameters are spilled to entry slots, so assignment to a parameter
// must come out as a store to its alloca.
func TestEmitParameterSlot(t *testing.T) {
	be := llvmgen.New()
	if _, _, err := compiler.NewSession(be).Compile("def id(x) x"); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	ir := be.Module.String()
	for _, frag := range []string{"%x1 = alloca double", "store double %x, double* %x1", "load double, double* %x1"} {
		if !strings.Contains(ir, frag) {
			t.Errorf("routine IR missing %q:\n%s", frag, ir)
		}
	}
}

func TestEmitRedefinitionReplaces(t *testing.T) {
	be := llvmgen.New()
	session := compiler.NewSession(be)
	for _, src := range []string{"def f(x) x + 1", "def f(x) x + 2"} {
		if _, _, err := session.Compile(src); err != nil {
			t.Fatalf("Compile(%q) error = %v", src, err)
		}
	}
	if got := len(be.Module.Funcs); got != 1 {
		t.Fatalf("module holds %d functions, want 1", got)
	}
	if got := strings.Count(be.Module.String(), "define"); got != 1 {
		t.Errorf("module IR has %d definitions, want 1:\n%s", got, be.Module.String())
	}
}

// A failed verification removes the offending function from the module.
func TestEmitVerifyFailureDeletes(t *testing.T) {
	be := llvmgen.New()
	session := compiler.NewSession(be)
	if _, _, err := session.Compile("def f(x) x"); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	_, _, err := session.Compile("f(1, 2)")
	var lowerErr *compiler.LowerError
	if !errors.As(err, &lowerErr) {
		t.Fatalf("Compile() error = %T (%v), want *LowerError", err, err)
	}
	if _, ok := be.Lookup(compiler.AnonFuncName); ok {
		t.Errorf("failed function was left in the module")
	}
	if _, ok := be.Lookup("f"); !ok {
		t.Errorf("earlier definition was lost")
	}
}
