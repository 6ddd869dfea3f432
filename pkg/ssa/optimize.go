package ssa

import "math"

// Optimize runs the backend's fixed cleanup passes over one verified
// routine: constant folding, then dead instruction elimination. Loads,
// stores and calls are never touched, so the passes cannot change what
// a routine computes.
func Optimize(f *Func) {
	if f.IsDecl() {
		return
	}
	for foldConstants(f) || removeDead(f) {
	}
}

// foldConstants rewrites pure instructions whose operands are all
// constants into constants in place. Reports whether anything changed.
func foldConstants(f *Func) bool {
	changed := false
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			x, y := in.X, in.Y
			switch in.Op {
			case OpFAdd, OpFSub, OpFMul, OpFDiv, OpULT, OpONE:
				if x.Op != OpConst || y.Op != OpConst {
					continue
				}
				in.becomeConst(foldBinary(in.Op, x.F, y.F))
				changed = true
			case OpBoolToFloat:
				if x.Op != OpConst {
					continue
				}
				// The comparison bit is already 0 or 1.
				in.becomeConst(x.F)
				changed = true
			}
		}
	}
	return changed
}

func foldBinary(op Op, x, y float64) float64 {
	switch op {
	case OpFAdd:
		return x + y
	case OpFSub:
		return x - y
	case OpFMul:
		return x * y
	case OpFDiv:
		return x / y
	case OpULT:
		if x < y || math.IsNaN(x) || math.IsNaN(y) {
			return 1
		}
		return 0
	case OpONE:
		if x != y && !math.IsNaN(x) && !math.IsNaN(y) {
			return 1
		}
		return 0
	}
	panic("unreachable")
}

// becomeConst rewrites in into a constant, keeping its identity so
// existing operand pointers stay valid.
func (in *Instr) becomeConst(v float64) {
	in.Op = OpConst
	in.F = v
	in.X, in.Y = nil, nil
}

// removeDead drops pure value-producing instructions that nothing
// refers to. Reports whether anything changed.
func removeDead(f *Func) bool {
	used := make(map[*Instr]bool)
	mark := func(in *Instr) {
		if in != nil {
			used[in] = true
		}
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			mark(in.X)
			mark(in.Y)
			mark(in.Slot)
			for _, a := range in.Args {
				mark(a)
			}
			for _, inc := range in.Incs {
				mark(inc.Val)
			}
		}
	}

	changed := false
	for _, b := range f.Blocks {
		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			if isPure(in.Op) && !used[in] {
				changed = true
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	return changed
}

// isPure reports whether an instruction can be dropped when unused.
func isPure(op Op) bool {
	switch op {
	case OpConst, OpFAdd, OpFSub, OpFMul, OpFDiv, OpULT, OpONE, OpBoolToFloat, OpPhi:
		return true
	}
	return false
}
