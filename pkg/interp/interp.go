// Package interp executes ssa routines. It exists so compiled code can
// actually be run — by the driver for top-level expressions and by the
// tests for checking what a routine returns — without a native backend.
package interp

import (
	"fmt"
	"math"

	"kaleido/pkg/ssa"
)

// Extern is a host binding for a declared-but-not-defined routine.
type Extern func(args []float64) float64

// DefaultBudget bounds how many instructions one Run may execute, so a
// non-terminating loop surfaces as an error instead of hanging.
const DefaultBudget = 1 << 22

// Machine evaluates routines of one module.
type Machine struct {
	mod     *ssa.Module
	externs map[string]Extern
	budget  int
}

func New(mod *ssa.Module) *Machine {
	return &Machine{
		mod:     mod,
		externs: make(map[string]Extern),
		budget:  DefaultBudget,
	}
}

// Bind supplies the host implementation of an extern routine.
func (m *Machine) Bind(name string, fn Extern) {
	m.externs[name] = fn
}

// SetBudget overrides the instruction budget for subsequent Runs.
func (m *Machine) SetBudget(n int) {
	m.budget = n
}

// Run executes the named routine and returns its value.
func (m *Machine) Run(name string, args ...float64) (float64, error) {
	f, ok := m.mod.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("no function %q", name)
	}
	fuel := m.budget
	return m.call(f, args, &fuel)
}

func (m *Machine) call(f *ssa.Func, args []float64, fuel *int) (float64, error) {
	if f.IsDecl() {
		ext, ok := m.externs[f.Name]
		if !ok {
			return 0, fmt.Errorf("extern %q has no binding", f.Name)
		}
		return ext(args), nil
	}
	if len(args) != len(f.Params) {
		return 0, fmt.Errorf("%s: got %d args, want %d", f.Name, len(args), len(f.Params))
	}

	// One frame per call: SSA values by defining instruction, plus the
	// mutable cells behind the allocas.
	vals := make(map[*ssa.Instr]float64)
	slots := make(map[*ssa.Instr]float64)

	get := func(in *ssa.Instr) float64 {
		switch in.Op {
		case ssa.OpConst:
			return in.F
		case ssa.OpParam:
			return args[in.Index]
		default:
			return vals[in]
		}
	}

	var prev *ssa.Block
	block := f.Entry()
	for {
		next := block
		for _, in := range block.Instrs {
			if *fuel--; *fuel < 0 {
				return 0, fmt.Errorf("%s: execution budget exceeded", f.Name)
			}
			switch in.Op {
			case ssa.OpConst, ssa.OpParam:
				// Materialized on use.
			case ssa.OpAlloca:
				slots[in] = 0
			case ssa.OpLoad:
				vals[in] = slots[in.Slot]
			case ssa.OpStore:
				slots[in.Slot] = get(in.X)
			case ssa.OpFAdd:
				vals[in] = get(in.X) + get(in.Y)
			case ssa.OpFSub:
				vals[in] = get(in.X) - get(in.Y)
			case ssa.OpFMul:
				vals[in] = get(in.X) * get(in.Y)
			case ssa.OpFDiv:
				vals[in] = get(in.X) / get(in.Y)
			case ssa.OpULT:
				x, y := get(in.X), get(in.Y)
				vals[in] = boolVal(x < y || math.IsNaN(x) || math.IsNaN(y))
			case ssa.OpONE:
				x, y := get(in.X), get(in.Y)
				vals[in] = boolVal(x != y && !math.IsNaN(x) && !math.IsNaN(y))
			case ssa.OpBoolToFloat:
				vals[in] = get(in.X)
			case ssa.OpPhi:
				matched := false
				for _, inc := range in.Incs {
					if inc.Pred == prev {
						vals[in] = get(inc.Val)
						matched = true
						break
					}
				}
				if !matched {
					return 0, fmt.Errorf("%s: phi in block %s has no incoming for %s", f.Name, block.Name, prev.Name)
				}
			case ssa.OpCall:
				callArgs := make([]float64, len(in.Args))
				for k, a := range in.Args {
					callArgs[k] = get(a)
				}
				v, err := m.call(in.Callee, callArgs, fuel)
				if err != nil {
					return 0, err
				}
				vals[in] = v
			case ssa.OpBr:
				next = in.Target
			case ssa.OpCondBr:
				if get(in.X) != 0 {
					next = in.Target
				} else {
					next = in.Else
				}
			case ssa.OpRet:
				return get(in.X), nil
			default:
				return 0, fmt.Errorf("%s: cannot execute %s", f.Name, in.Op)
			}
		}
		prev, block = block, next
	}
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
