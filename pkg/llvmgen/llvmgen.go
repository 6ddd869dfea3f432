// Package llvmgen implements the backend capability interface on top of
// llir/llvm, producing a textual LLVM IR module. Verification here is
// structural only; full semantic checking is left to the LLVM tools
// that consume the emitted IR.
package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"kaleido/pkg/backend"
)

// Backend builds one *ir.Module. Handles passed through the capability
// interface are *ir.Func, *ir.Block, *ir.InstAlloca and value.Value.
type Backend struct {
	Module *ir.Module
	cur    *ir.Block

	// Local value names used per function. llir/llvm does not uniquify
	// assigned names, so a slot and a load both named after the same
	// variable would collide with its parameter.
	names map[*ir.Func]map[string]bool
}

func New() *Backend {
	return &Backend{
		Module: ir.NewModule(),
		names:  make(map[*ir.Func]map[string]bool),
	}
}

// localName reserves a name for a local of f, appending a counter when
// the hint is already taken.
func (b *Backend) localName(f *ir.Func, hint string) string {
	used := b.names[f]
	if !used[hint] {
		used[hint] = true
		return hint
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s%d", hint, n)
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Declare(name string, params []string) (backend.Func, error) {
	// Redeclaring a name replaces the previous routine.
	for i, f := range b.Module.Funcs {
		if f.Name() == name {
			b.Module.Funcs = append(b.Module.Funcs[:i], b.Module.Funcs[i+1:]...)
			break
		}
	}
	ps := make([]*ir.Param, len(params))
	for i, p := range params {
		ps[i] = ir.NewParam(p, types.Double)
	}
	f := b.Module.NewFunc(name, types.Double, ps...)
	used := make(map[string]bool, len(params))
	for _, p := range params {
		used[p] = true
	}
	b.names[f] = used
	return f, nil
}

func (b *Backend) Lookup(name string) (backend.Func, bool) {
	for _, f := range b.Module.Funcs {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

func (b *Backend) AddBlock(fn backend.Func, name string) backend.Block {
	f := fn.(*ir.Func)
	unique := name
	for n := 1; blockNamed(f, unique); n++ {
		unique = fmt.Sprintf("%s%d", name, n)
	}
	return f.NewBlock(unique)
}

func blockNamed(f *ir.Func, name string) bool {
	for _, blk := range f.Blocks {
		if blk.Name() == name {
			return true
		}
	}
	return false
}

func (b *Backend) SetInsertBlock(blk backend.Block) {
	b.cur = blk.(*ir.Block)
}

func (b *Backend) InsertBlock() backend.Block {
	return b.cur
}

// EntryAlloca creates the slot at the top of the entry block, before
// any non-alloca instruction, so locals allocated inside loops are
// still allocated exactly once per routine activation.
func (b *Backend) EntryAlloca(fn backend.Func, name string) backend.Slot {
	f := fn.(*ir.Func)
	slot := ir.NewAlloca(types.Double)
	slot.LocalName = b.localName(f, name)

	entry := f.Blocks[0]
	at := 0
	for at < len(entry.Insts) {
		if _, ok := entry.Insts[at].(*ir.InstAlloca); !ok {
			break
		}
		at++
	}
	entry.Insts = append(entry.Insts, nil)
	copy(entry.Insts[at+1:], entry.Insts[at:])
	entry.Insts[at] = slot
	return slot
}

func (b *Backend) Load(s backend.Slot, name string) backend.Value {
	ld := b.cur.NewLoad(types.Double, s.(*ir.InstAlloca))
	ld.LocalName = b.localName(b.cur.Parent, name)
	return ld
}

func (b *Backend) Store(s backend.Slot, v backend.Value) {
	b.cur.NewStore(v.(value.Value), s.(*ir.InstAlloca))
}

func (b *Backend) Param(fn backend.Func, i int) backend.Value {
	return fn.(*ir.Func).Params[i]
}

func (b *Backend) Const(v float64) backend.Value {
	return constant.NewFloat(types.Double, v)
}

func (b *Backend) FAdd(x, y backend.Value) backend.Value {
	return b.cur.NewFAdd(x.(value.Value), y.(value.Value))
}

func (b *Backend) FSub(x, y backend.Value) backend.Value {
	return b.cur.NewFSub(x.(value.Value), y.(value.Value))
}

func (b *Backend) FMul(x, y backend.Value) backend.Value {
	return b.cur.NewFMul(x.(value.Value), y.(value.Value))
}

func (b *Backend) FDiv(x, y backend.Value) backend.Value {
	return b.cur.NewFDiv(x.(value.Value), y.(value.Value))
}

func (b *Backend) FCmpULT(x, y backend.Value) backend.Value {
	return b.cur.NewFCmp(enum.FPredULT, x.(value.Value), y.(value.Value))
}

func (b *Backend) FCmpONE(x, y backend.Value) backend.Value {
	return b.cur.NewFCmp(enum.FPredONE, x.(value.Value), y.(value.Value))
}

func (b *Backend) BoolToFloat(v backend.Value) backend.Value {
	return b.cur.NewUIToFP(v.(value.Value), types.Double)
}

func (b *Backend) Br(target backend.Block) {
	b.cur.NewBr(target.(*ir.Block))
}

func (b *Backend) CondBr(cond backend.Value, then, els backend.Block) {
	b.cur.NewCondBr(cond.(value.Value), then.(*ir.Block), els.(*ir.Block))
}

func (b *Backend) Phi(incoming []backend.Incoming) backend.Value {
	incs := make([]*ir.Incoming, len(incoming))
	for i, inc := range incoming {
		incs[i] = ir.NewIncoming(inc.Value.(value.Value), inc.Block.(*ir.Block))
	}
	return b.cur.NewPhi(incs...)
}

func (b *Backend) Call(fn backend.Func, args []backend.Value) backend.Value {
	vs := make([]value.Value, len(args))
	for i, a := range args {
		vs[i] = a.(value.Value)
	}
	return b.cur.NewCall(fn.(*ir.Func), vs...)
}

func (b *Backend) Ret(v backend.Value) {
	b.cur.NewRet(v.(value.Value))
}

func (b *Backend) Verify(fn backend.Func) error {
	f := fn.(*ir.Func)
	for _, blk := range f.Blocks {
		if blk.Term == nil {
			return fmt.Errorf("%s: block %s has no terminator", f.Name(), blk.Name())
		}
		for _, inst := range blk.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}
			callee, ok := call.Callee.(*ir.Func)
			if !ok {
				continue
			}
			if got, want := len(call.Args), len(callee.Params); got != want {
				return fmt.Errorf("%s: call to @%s with %d args, want %d", f.Name(), callee.Name(), got, want)
			}
		}
	}
	return nil
}

// Optimize is a no-op: the emitted IR is meant to be fed to LLVM
// tooling, which runs its own passes.
func (b *Backend) Optimize(fn backend.Func) {}

func (b *Backend) Delete(fn backend.Func) {
	f := fn.(*ir.Func)
	delete(b.names, f)
	for i, g := range b.Module.Funcs {
		if g == f {
			b.Module.Funcs = append(b.Module.Funcs[:i], b.Module.Funcs[i+1:]...)
			return
		}
	}
}
