// Package ssa is an in-memory SSA backend: a module of routines made of
// basic blocks and instructions, a builder that implements the
// backend.Backend capability interface, a structural verifier and a
// small generic optimizer. All values are float64.
package ssa

import (
	"fmt"
	"strings"
)

// Module holds every routine compiled in one session, in declaration
// order.
type Module struct {
	funcs map[string]*Func
	order []*Func
}

func NewModule() *Module {
	return &Module{funcs: make(map[string]*Func)}
}

// Lookup resolves a routine by name.
func (m *Module) Lookup(name string) (*Func, bool) {
	f, ok := m.funcs[name]
	return f, ok
}

// Funcs returns the module's routines in declaration order.
func (m *Module) Funcs() []*Func {
	return m.order
}

// declare registers f, replacing any existing routine with the same
// name.
func (m *Module) declare(f *Func) {
	if old, ok := m.funcs[f.Name]; ok {
		m.remove(old)
	}
	m.funcs[f.Name] = f
	m.order = append(m.order, f)
}

// remove drops f from the module.
func (m *Module) remove(f *Func) {
	if m.funcs[f.Name] == f {
		delete(m.funcs, f.Name)
	}
	for i, g := range m.order {
		if g == f {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Module) String() string {
	var sb strings.Builder
	for i, f := range m.order {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.String())
	}
	return sb.String()
}

// Func is one routine. A routine with no blocks is a declaration only
// (an external function).
type Func struct {
	Name   string
	Params []string
	Blocks []*Block

	params []*Instr // lazily created OpParam values
}

// IsDecl reports whether f has no body.
func (f *Func) IsDecl() bool {
	return len(f.Blocks) == 0
}

// Entry returns the entry block.
func (f *Func) Entry() *Block {
	return f.Blocks[0]
}

func (f *Func) String() string {
	var sb strings.Builder
	if f.IsDecl() {
		fmt.Fprintf(&sb, "declare @%s(%s)\n", f.Name, strings.Join(f.Params, ", "))
		return sb.String()
	}
	fmt.Fprintf(&sb, "define @%s(%s) {\n", f.Name, strings.Join(f.Params, ", "))
	for _, b := range f.Blocks {
		fmt.Fprintf(&sb, "%s:\n", b.Name)
		for _, in := range b.Instrs {
			fmt.Fprintf(&sb, "  %s\n", in)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Block is a straight-line instruction sequence; when well formed it
// ends in exactly one terminator.
type Block struct {
	Name   string
	Instrs []*Instr
}

// preds returns the blocks of f that branch to target.
func preds(f *Func, target *Block) []*Block {
	var ps []*Block
	for _, b := range f.Blocks {
		if len(b.Instrs) == 0 {
			continue
		}
		last := b.Instrs[len(b.Instrs)-1]
		switch last.Op {
		case OpBr:
			if last.Target == target {
				ps = append(ps, b)
			}
		case OpCondBr:
			if last.Target == target || last.Else == target {
				ps = append(ps, b)
			}
		}
	}
	return ps
}
