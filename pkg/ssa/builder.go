package ssa

import (
	"fmt"

	"kaleido/pkg/backend"
)

// Builder appends instructions to a module and is the package's
// implementation of backend.Backend. Handles passed through the
// capability interface are *Func, *Block, and *Instr values from this
// package.
type Builder struct {
	mod    *Module
	cur    *Block
	nextID int
}

func NewBuilder(m *Module) *Builder {
	return &Builder{mod: m}
}

var _ backend.Backend = (*Builder)(nil)

// emit appends i to the insert block, numbering it if it produces a
// value.
func (b *Builder) emit(i *Instr) *Instr {
	if i.producesValue() {
		i.ID = b.nextID
		b.nextID++
	}
	b.cur.Instrs = append(b.cur.Instrs, i)
	return i
}

func (b *Builder) Declare(name string, params []string) (backend.Func, error) {
	f := &Func{
		Name:   name,
		Params: params,
		params: make([]*Instr, len(params)),
	}
	b.mod.declare(f)
	return f, nil
}

func (b *Builder) Lookup(name string) (backend.Func, bool) {
	f, ok := b.mod.Lookup(name)
	if !ok {
		return nil, false
	}
	return f, true
}

func (b *Builder) AddBlock(fn backend.Func, name string) backend.Block {
	f := fn.(*Func)
	// Block names repeat across nested conditionals; keep them unique
	// within the routine.
	unique := name
	for n := 1; blockNamed(f, unique); n++ {
		unique = fmt.Sprintf("%s%d", name, n)
	}
	blk := &Block{Name: unique}
	f.Blocks = append(f.Blocks, blk)
	return blk
}

func blockNamed(f *Func, name string) bool {
	for _, b := range f.Blocks {
		if b.Name == name {
			return true
		}
	}
	return false
}

func (b *Builder) SetInsertBlock(blk backend.Block) {
	b.cur = blk.(*Block)
}

func (b *Builder) InsertBlock() backend.Block {
	return b.cur
}

// EntryAlloca allocates a slot in the entry region of fn regardless of
// the insert position: allocas cluster at the top of the entry block so
// every local lives for the whole routine.
func (b *Builder) EntryAlloca(fn backend.Func, name string) backend.Slot {
	f := fn.(*Func)
	slot := &Instr{Op: OpAlloca, Name: name, ID: b.nextID}
	b.nextID++

	entry := f.Entry()
	at := 0
	for at < len(entry.Instrs) && entry.Instrs[at].Op == OpAlloca {
		at++
	}
	entry.Instrs = append(entry.Instrs, nil)
	copy(entry.Instrs[at+1:], entry.Instrs[at:])
	entry.Instrs[at] = slot
	return slot
}

func (b *Builder) Load(s backend.Slot, name string) backend.Value {
	return b.emit(&Instr{Op: OpLoad, Slot: s.(*Instr), Name: name})
}

func (b *Builder) Store(s backend.Slot, v backend.Value) {
	b.emit(&Instr{Op: OpStore, Slot: s.(*Instr), X: v.(*Instr)})
}

// Param returns the value of the i-th parameter. Parameter values live
// outside any block and are created on first use.
func (b *Builder) Param(fn backend.Func, i int) backend.Value {
	f := fn.(*Func)
	if f.params[i] == nil {
		f.params[i] = &Instr{Op: OpParam, Index: i, Name: f.Params[i]}
	}
	return f.params[i]
}

func (b *Builder) Const(v float64) backend.Value {
	return b.emit(&Instr{Op: OpConst, F: v})
}

func (b *Builder) binary(op Op, x, y backend.Value) backend.Value {
	return b.emit(&Instr{Op: op, X: x.(*Instr), Y: y.(*Instr)})
}

func (b *Builder) FAdd(x, y backend.Value) backend.Value { return b.binary(OpFAdd, x, y) }
func (b *Builder) FSub(x, y backend.Value) backend.Value { return b.binary(OpFSub, x, y) }
func (b *Builder) FMul(x, y backend.Value) backend.Value { return b.binary(OpFMul, x, y) }
func (b *Builder) FDiv(x, y backend.Value) backend.Value { return b.binary(OpFDiv, x, y) }

func (b *Builder) FCmpULT(x, y backend.Value) backend.Value { return b.binary(OpULT, x, y) }
func (b *Builder) FCmpONE(x, y backend.Value) backend.Value { return b.binary(OpONE, x, y) }

func (b *Builder) BoolToFloat(v backend.Value) backend.Value {
	return b.emit(&Instr{Op: OpBoolToFloat, X: v.(*Instr)})
}

func (b *Builder) Br(target backend.Block) {
	b.emit(&Instr{Op: OpBr, Target: target.(*Block)})
}

func (b *Builder) CondBr(cond backend.Value, then, els backend.Block) {
	b.emit(&Instr{Op: OpCondBr, X: cond.(*Instr), Target: then.(*Block), Else: els.(*Block)})
}

func (b *Builder) Phi(incoming []backend.Incoming) backend.Value {
	incs := make([]Incoming, len(incoming))
	for i, inc := range incoming {
		incs[i] = Incoming{Val: inc.Value.(*Instr), Pred: inc.Block.(*Block)}
	}
	return b.emit(&Instr{Op: OpPhi, Incs: incs})
}

func (b *Builder) Call(fn backend.Func, args []backend.Value) backend.Value {
	as := make([]*Instr, len(args))
	for i, a := range args {
		as[i] = a.(*Instr)
	}
	return b.emit(&Instr{Op: OpCall, Callee: fn.(*Func), Args: as})
}

func (b *Builder) Ret(v backend.Value) {
	b.emit(&Instr{Op: OpRet, X: v.(*Instr)})
}

func (b *Builder) Verify(fn backend.Func) error {
	return Verify(fn.(*Func))
}

func (b *Builder) Optimize(fn backend.Func) {
	Optimize(fn.(*Func))
}

func (b *Builder) Delete(fn backend.Func) {
	b.mod.remove(fn.(*Func))
}
