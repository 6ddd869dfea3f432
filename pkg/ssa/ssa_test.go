package ssa

import (
	"strings"
	"testing"

	"kaleido/pkg/backend"
)

// buildRet assembles "define @name() { entry: ... ret <expr> }" through
// the builder and returns the routine.
func buildRet(t *testing.T, name string, body func(b *Builder) backend.Value) *Func {
	t.Helper()
	mod := NewModule()
	b := NewBuilder(mod)
	fn, err := b.Declare(name, nil)
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	b.SetInsertBlock(b.AddBlock(fn, "entry"))
	b.Ret(body(b))
	return fn.(*Func)
}

func TestModuleDeclareReplaces(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	first, _ := b.Declare("f", []string{"x"})
	second, _ := b.Declare("f", []string{"a", "b"})

	if got := len(mod.Funcs()); got != 1 {
		t.Fatalf("module holds %d routines, want 1", got)
	}
	f, ok := mod.Lookup("f")
	if !ok || f != second.(*Func) {
		t.Errorf("Lookup(f) = %v, want the newest declaration", f)
	}
	if f == first.(*Func) {
		t.Errorf("old declaration survived the replacement")
	}
}

func TestModuleDelete(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)
	fn, _ := b.Declare("gone", nil)
	b.Delete(fn)

	if _, ok := mod.Lookup("gone"); ok {
		t.Errorf("Lookup(gone) succeeded after Delete")
	}
	if got := len(mod.Funcs()); got != 0 {
		t.Errorf("module holds %d routines, want 0", got)
	}
}

func TestAddBlockUniquesNames(t *testing.T) {
	b := NewBuilder(NewModule())
	fn, _ := b.Declare("f", nil)

	names := []string{
		b.AddBlock(fn, "then").(*Block).Name,
		b.AddBlock(fn, "then").(*Block).Name,
		b.AddBlock(fn, "then").(*Block).Name,
	}
	want := []string{"then", "then1", "then2"}
	for i, n := range names {
		if n != want[i] {
			t.Errorf("block %d named %q, want %q", i, n, want[i])
		}
	}
}

// Slots requested mid-block must still land in the entry's leading
// alloca run.
func TestEntryAllocaClustersAtTop(t *testing.T) {
	b := NewBuilder(NewModule())
	fn, _ := b.Declare("f", nil)
	entry := b.AddBlock(fn, "entry")
	b.SetInsertBlock(entry)

	b.EntryAlloca(fn, "x")
	v := b.Const(1)
	b.EntryAlloca(fn, "y")
	b.Ret(v)

	instrs := entry.(*Block).Instrs
	ops := []Op{OpAlloca, OpAlloca, OpConst, OpRet}
	if len(instrs) != len(ops) {
		t.Fatalf("entry has %d instructions, want %d", len(instrs), len(ops))
	}
	for i, in := range instrs {
		if in.Op != ops[i] {
			t.Errorf("instruction %d is %s, want %s", i, in.Op, ops[i])
		}
	}
	if instrs[0].Name != "x" || instrs[1].Name != "y" {
		t.Errorf("alloca order = %q, %q, want x, y", instrs[0].Name, instrs[1].Name)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Func
		msg   string // substring of the error, "" for valid
	}{
		{
			name: "Declaration is valid",
			build: func() *Func {
				return &Func{Name: "ext", Params: []string{"x"}}
			},
		},
		{
			name: "Minimal routine is valid",
			build: func() *Func {
				c := &Instr{Op: OpConst, F: 1}
				return &Func{Name: "one", Blocks: []*Block{
					{Name: "entry", Instrs: []*Instr{c, {Op: OpRet, X: c}}},
				}}
			},
		},
		{
			name: "Empty block",
			build: func() *Func {
				return &Func{Name: "f", Blocks: []*Block{{Name: "entry"}}}
			},
			msg: "block entry is empty",
		},
		{
			name: "Missing terminator",
			build: func() *Func {
				return &Func{Name: "f", Blocks: []*Block{
					{Name: "entry", Instrs: []*Instr{{Op: OpConst, F: 1}}},
				}}
			},
			msg: "does not end in a terminator",
		},
		{
			name: "Terminator before end",
			build: func() *Func {
				c := &Instr{Op: OpConst, F: 1}
				return &Func{Name: "f", Blocks: []*Block{
					{Name: "entry", Instrs: []*Instr{c, {Op: OpRet, X: c}, {Op: OpRet, X: c}}},
				}}
			},
			msg: "terminator before its end",
		},
		{
			name: "Return without value",
			build: func() *Func {
				return &Func{Name: "f", Blocks: []*Block{
					{Name: "entry", Instrs: []*Instr{{Op: OpRet}}},
				}}
			},
			msg: "ret without a value",
		},
		{
			name: "Call arity mismatch",
			build: func() *Func {
				callee := &Func{Name: "g", Params: []string{"a", "b"}}
				c := &Instr{Op: OpConst, F: 1}
				call := &Instr{Op: OpCall, Callee: callee, Args: []*Instr{c}}
				return &Func{Name: "f", Blocks: []*Block{
					{Name: "entry", Instrs: []*Instr{c, call, {Op: OpRet, X: call}}},
				}}
			},
			msg: "call to @g with 1 args, want 2",
		},
		{
			name: "Load from non-slot",
			build: func() *Func {
				c := &Instr{Op: OpConst, F: 1}
				ld := &Instr{Op: OpLoad, Slot: c}
				return &Func{Name: "f", Blocks: []*Block{
					{Name: "entry", Instrs: []*Instr{c, ld, {Op: OpRet, X: ld}}},
				}}
			},
			msg: "load target is not a slot",
		},
		{
			name: "Phi incoming from non-predecessor",
			build: func() *Func {
				c := &Instr{Op: OpConst, F: 1}
				entry := &Block{Name: "entry"}
				stray := &Block{Name: "stray"}
				merge := &Block{Name: "merge"}
				entry.Instrs = []*Instr{c, {Op: OpBr, Target: merge}}
				stray.Instrs = []*Instr{{Op: OpRet, X: c}}
				phi := &Instr{Op: OpPhi, Incs: []Incoming{{Val: c, Pred: stray}}}
				merge.Instrs = []*Instr{phi, {Op: OpRet, X: phi}}
				return &Func{Name: "f", Blocks: []*Block{entry, stray, merge}}
			},
			msg: "names non-predecessor stray",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.build())
			if tt.msg == "" {
				if err != nil {
					t.Fatalf("Verify() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Verify() = nil, want error containing %q", tt.msg)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Verify() error = %q, want it to contain %q", err, tt.msg)
			}
		})
	}
}

// 2+3*4 collapses to a single returned constant, with the operand
// constants swept away.
func TestOptimizeFoldsConstants(t *testing.T) {
	fn := buildRet(t, "f", func(b *Builder) backend.Value {
		return b.FAdd(b.Const(2), b.FMul(b.Const(3), b.Const(4)))
	})

	Optimize(fn)

	instrs := fn.Entry().Instrs
	if len(instrs) != 2 {
		t.Fatalf("entry has %d instructions after Optimize, want 2:\n%s", len(instrs), fn)
	}
	if instrs[0].Op != OpConst || instrs[0].F != 14 {
		t.Errorf("folded value = %s, want const 14", instrs[0])
	}
	if instrs[1].Op != OpRet || instrs[1].X != instrs[0] {
		t.Errorf("ret does not return the folded constant:\n%s", fn)
	}
}

// Folding a comparison keeps the unordered-or-less-than semantics and
// the conversion collapses with it.
func TestOptimizeFoldsComparison(t *testing.T) {
	fn := buildRet(t, "f", func(b *Builder) backend.Value {
		return b.BoolToFloat(b.FCmpULT(b.Const(2), b.Const(1)))
	})

	Optimize(fn)

	instrs := fn.Entry().Instrs
	if len(instrs) != 2 || instrs[0].Op != OpConst || instrs[0].F != 0 {
		t.Fatalf("Optimize() left:\n%swant a single const 0 and a ret", fn)
	}
}

// Loads, stores and calls are not pure; the optimizer must leave them
// alone even when their values go unused.
func TestOptimizeKeepsEffects(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)
	fn, _ := b.Declare("f", nil)
	b.SetInsertBlock(b.AddBlock(fn, "entry"))

	slot := b.EntryAlloca(fn, "x")
	b.Store(slot, b.Const(1))
	b.Load(slot, "x")
	zero := b.Const(0)
	b.Ret(zero)

	f := fn.(*Func)
	Optimize(f)

	var ops []Op
	for _, in := range f.Entry().Instrs {
		ops = append(ops, in.Op)
	}
	want := []Op{OpAlloca, OpConst, OpStore, OpLoad, OpConst, OpRet}
	if len(ops) != len(want) {
		t.Fatalf("entry ops = %v, want %v", ops, want)
	}
	for i := range ops {
		if ops[i] != want[i] {
			t.Fatalf("entry ops = %v, want %v", ops, want)
		}
	}
}

func TestFuncString(t *testing.T) {
	decl := &Func{Name: "sin", Params: []string{"x"}}
	if got, want := decl.String(), "declare @sin(x)\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	fn := buildRet(t, "two", func(b *Builder) backend.Value {
		return b.Const(2)
	})
	s := fn.String()
	for _, frag := range []string{"define @two() {", "entry:", "ret"} {
		if !strings.Contains(s, frag) {
			t.Errorf("String() = %q, want it to contain %q", s, frag)
		}
	}
}
