package ssa

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies an instruction kind.
type Op int

const (
	OpConst Op = iota // constant float
	OpParam           // incoming parameter value
	OpAlloca          // storage slot in the entry region
	OpLoad            // read a slot
	OpStore           // write a slot
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpULT         // unordered-or-less-than comparison
	OpONE         // ordered-and-not-equal comparison
	OpBoolToFloat // widen a comparison bit to 0.0 / 1.0
	OpPhi
	OpCall
	OpBr
	OpCondBr
	OpRet
)

var opNames = [...]string{
	OpConst:       "const",
	OpParam:       "param",
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpFAdd:        "fadd",
	OpFSub:        "fsub",
	OpFMul:        "fmul",
	OpFDiv:        "fdiv",
	OpULT:         "fcmp ult",
	OpONE:         "fcmp one",
	OpBoolToFloat: "uitofp",
	OpPhi:         "phi",
	OpCall:        "call",
	OpBr:          "br",
	OpCondBr:      "condbr",
	OpRet:         "ret",
}

func (op Op) String() string {
	if int(op) >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// isTerminator reports whether op ends a basic block.
func (op Op) isTerminator() bool {
	return op == OpBr || op == OpCondBr || op == OpRet
}

// Incoming pairs a phi operand with its predecessor block.
type Incoming struct {
	Val  *Instr
	Pred *Block
}

// Instr is one instruction. Value-producing instructions double as the
// SSA value they produce; operands are pointers to the defining
// instruction.
type Instr struct {
	Op   Op
	ID   int    // value number, for printing
	Name string // source-level name hint (alloca, load, param)

	F      float64    // OpConst
	Index  int        // OpParam
	X, Y   *Instr     // operands
	Slot   *Instr     // OpLoad/OpStore target (an OpAlloca)
	Callee *Func      // OpCall
	Args   []*Instr   // OpCall
	Incs   []Incoming // OpPhi
	Target *Block     // OpBr, OpCondBr true edge
	Else   *Block     // OpCondBr false edge
}

// producesValue reports whether the instruction defines an SSA value.
func (i *Instr) producesValue() bool {
	switch i.Op {
	case OpStore, OpBr, OpCondBr, OpRet:
		return false
	}
	return true
}

// ref names an instruction when used as an operand.
func (i *Instr) ref() string {
	switch i.Op {
	case OpConst:
		return strconv.FormatFloat(i.F, 'g', -1, 64)
	case OpParam:
		return "%" + i.Name
	default:
		return fmt.Sprintf("%%t%d", i.ID)
	}
}

func (i *Instr) String() string {
	switch i.Op {
	case OpConst:
		return fmt.Sprintf("%%t%d = const %s", i.ID, strconv.FormatFloat(i.F, 'g', -1, 64))
	case OpParam:
		return fmt.Sprintf("%%%s = param %d", i.Name, i.Index)
	case OpAlloca:
		return fmt.Sprintf("%%t%d = alloca ; %s", i.ID, i.Name)
	case OpLoad:
		return fmt.Sprintf("%%t%d = load %s ; %s", i.ID, i.Slot.ref(), i.Name)
	case OpStore:
		return fmt.Sprintf("store %s, %s", i.X.ref(), i.Slot.ref())
	case OpFAdd, OpFSub, OpFMul, OpFDiv, OpULT, OpONE:
		return fmt.Sprintf("%%t%d = %s %s, %s", i.ID, i.Op, i.X.ref(), i.Y.ref())
	case OpBoolToFloat:
		return fmt.Sprintf("%%t%d = uitofp %s", i.ID, i.X.ref())
	case OpPhi:
		parts := make([]string, len(i.Incs))
		for k, inc := range i.Incs {
			parts[k] = fmt.Sprintf("[%s, %s]", inc.Val.ref(), inc.Pred.Name)
		}
		return fmt.Sprintf("%%t%d = phi %s", i.ID, strings.Join(parts, ", "))
	case OpCall:
		args := make([]string, len(i.Args))
		for k, a := range i.Args {
			args[k] = a.ref()
		}
		return fmt.Sprintf("%%t%d = call @%s(%s)", i.ID, i.Callee.Name, strings.Join(args, ", "))
	case OpBr:
		return fmt.Sprintf("br %s", i.Target.Name)
	case OpCondBr:
		return fmt.Sprintf("condbr %s, %s, %s", i.X.ref(), i.Target.Name, i.Else.Name)
	case OpRet:
		return fmt.Sprintf("ret %s", i.X.ref())
	default:
		return i.Op.String()
	}
}
