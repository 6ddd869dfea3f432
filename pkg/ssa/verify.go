package ssa

import "fmt"

// Verify checks the structural integrity of a routine: every block ends
// in exactly one terminator, returns carry a value, calls match their
// callee's arity and phi incomings cover exactly the block's
// predecessors. Declarations are trivially valid.
func Verify(f *Func) error {
	if f.IsDecl() {
		return nil
	}
	for _, b := range f.Blocks {
		if len(b.Instrs) == 0 {
			return fmt.Errorf("%s: block %s is empty", f.Name, b.Name)
		}
		for k, in := range b.Instrs {
			last := k == len(b.Instrs)-1
			if in.Op.isTerminator() != last {
				if last {
					return fmt.Errorf("%s: block %s does not end in a terminator", f.Name, b.Name)
				}
				return fmt.Errorf("%s: block %s has a terminator before its end", f.Name, b.Name)
			}
			if err := verifyInstr(f, b, in); err != nil {
				return err
			}
		}
	}
	return nil
}

func verifyInstr(f *Func, b *Block, in *Instr) error {
	switch in.Op {
	case OpRet:
		if in.X == nil {
			return fmt.Errorf("%s: ret without a value in block %s", f.Name, b.Name)
		}
	case OpCall:
		if got, want := len(in.Args), len(in.Callee.Params); got != want {
			return fmt.Errorf("%s: call to @%s with %d args, want %d", f.Name, in.Callee.Name, got, want)
		}
	case OpLoad, OpStore:
		if in.Slot == nil || in.Slot.Op != OpAlloca {
			return fmt.Errorf("%s: %s target is not a slot in block %s", f.Name, in.Op, b.Name)
		}
	case OpPhi:
		if len(in.Incs) == 0 {
			return fmt.Errorf("%s: phi with no incomings in block %s", f.Name, b.Name)
		}
		ps := preds(f, b)
		if len(in.Incs) != len(ps) {
			return fmt.Errorf("%s: phi in block %s has %d incomings for %d predecessors", f.Name, b.Name, len(in.Incs), len(ps))
		}
		for _, inc := range in.Incs {
			found := false
			for _, p := range ps {
				if p == inc.Pred {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%s: phi in block %s names non-predecessor %s", f.Name, b.Name, inc.Pred.Name)
			}
		}
	}
	return nil
}
