package compiler

import "kaleido/pkg/backend"

// CodeGen lowers one Function AST at a time into SSA form by driving a
// Backend. Its only state is the routine under construction and the
// scope of named storage slots; both are reset per function.
//
// Every local (parameter, var binding, loop induction variable) is an
// addressable slot allocated in the routine's entry region: reads are
// loads, writes are stores. No folding or simplification happens here;
// the backend's optimizer is free to clean up afterwards.
type CodeGen struct {
	be    backend.Backend
	scope Scope
	fn    backend.Func
}

func NewCodeGen(be backend.Backend) *CodeGen {
	return &CodeGen{be: be}
}

// Compile lowers fn into the backend and returns its routine handle.
// A body-less function compiles to a declaration only. A routine that
// fails backend verification is deleted before the error is returned,
// so a failed definition leaves no partial artifact behind; previously
// compiled definitions are untouched either way.
func (cg *CodeGen) Compile(fn *Function) (backend.Func, error) {
	proto := fn.Proto
	f, err := cg.be.Declare(proto.Name, proto.Params)
	if err != nil {
		return nil, lowerErrorf("declaring %s: %v", proto.Name, err)
	}
	if fn.Body == nil {
		return f, nil
	}

	entry := cg.be.AddBlock(f, "entry")
	cg.be.SetInsertBlock(entry)
	cg.fn = f
	cg.scope.EnterFunction()

	// Parameters are spilled to slots so assignment can treat them like
	// any other mutable local. Left to right, so a duplicated name ends
	// up bound to the slot of its last occurrence.
	for i, name := range proto.Params {
		slot := cg.be.EntryAlloca(f, name)
		cg.be.Store(slot, cg.be.Param(f, i))
		cg.scope.Bind(name, slot)
	}

	body, err := cg.compileExpr(fn.Body)
	if err != nil {
		cg.be.Delete(f)
		return nil, err
	}
	cg.be.Ret(body)

	if err := cg.be.Verify(f); err != nil {
		cg.be.Delete(f)
		return nil, lowerErrorf("invalid generated function %s: %v", proto.Name, err)
	}
	cg.be.Optimize(f)
	return f, nil
}

func (cg *CodeGen) compileExpr(e Expr) (backend.Value, error) {
	switch n := e.(type) {
	case *NumberExpr:
		return cg.be.Const(n.Value), nil

	case *VariableExpr:
		slot, ok := cg.scope.Lookup(n.Name)
		if !ok {
			return nil, lowerErrorf("unknown variable %q", n.Name)
		}
		return cg.be.Load(slot, n.Name), nil

	case *BinaryExpr:
		return cg.compileBinary(n)

	case *CallExpr:
		callee, ok := cg.be.Lookup(n.Callee)
		if !ok {
			return nil, lowerErrorf("unknown function %q", n.Callee)
		}
		args := make([]backend.Value, len(n.Args))
		for i, arg := range n.Args {
			v, err := cg.compileExpr(arg)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return cg.be.Call(callee, args), nil

	case *IfExpr:
		return cg.compileIf(n)

	case *ForExpr:
		return cg.compileFor(n)

	case *VarInExpr:
		return cg.compileVarIn(n)

	default:
		return nil, lowerErrorf("cannot lower %T", e)
	}
}

// compileBinary lowers the built-in operators directly and resolves any
// other operator character as a call to its BinaryName function.
// Assignment is a special case: '=' requires a bare variable on the
// left and stores the right-hand value into its slot.
func (cg *CodeGen) compileBinary(n *BinaryExpr) (backend.Value, error) {
	if n.Op == '=' {
		dest, ok := n.Left.(*VariableExpr)
		if !ok {
			return nil, lowerErrorf("destination of '=' must be a variable")
		}
		val, err := cg.compileExpr(n.Right)
		if err != nil {
			return nil, err
		}
		slot, ok := cg.scope.Lookup(dest.Name)
		if !ok {
			return nil, lowerErrorf("unknown variable %q", dest.Name)
		}
		cg.be.Store(slot, val)
		return val, nil
	}

	lhs, err := cg.compileExpr(n.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := cg.compileExpr(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case '+':
		return cg.be.FAdd(lhs, rhs), nil
	case '-':
		return cg.be.FSub(lhs, rhs), nil
	case '*':
		return cg.be.FMul(lhs, rhs), nil
	case '/':
		return cg.be.FDiv(lhs, rhs), nil
	case '<':
		// Unordered-or-less-than, so a NaN operand compares true.
		return cg.be.BoolToFloat(cg.be.FCmpULT(lhs, rhs)), nil
	case '>':
		// Same predicate with the operands swapped.
		return cg.be.BoolToFloat(cg.be.FCmpULT(rhs, lhs)), nil
	default:
		fn, ok := cg.be.Lookup(BinaryName(n.Op))
		if !ok {
			return nil, lowerErrorf("undefined binary operator %q", n.Op)
		}
		return cg.be.Call(fn, []backend.Value{lhs, rhs}), nil
	}
}

// compileIf lowers a conditional to a then/else/merge diamond whose
// merge block selects the branch value with a phi. Both branches are
// always compiled; there is no folding of constant conditions.
func (cg *CodeGen) compileIf(n *IfExpr) (backend.Value, error) {
	cond, err := cg.compileExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	isTrue := cg.be.FCmpONE(cond, cg.be.Const(0))

	thenB := cg.be.AddBlock(cg.fn, "then")
	elseB := cg.be.AddBlock(cg.fn, "else")
	mergeB := cg.be.AddBlock(cg.fn, "ifcont")
	cg.be.CondBr(isTrue, thenB, elseB)

	cg.be.SetInsertBlock(thenB)
	thenV, err := cg.compileExpr(n.Then)
	if err != nil {
		return nil, err
	}
	cg.be.Br(mergeB)
	// A nested conditional may have moved the insert point; the phi
	// needs the block the branch value actually arrives from.
	thenEnd := cg.be.InsertBlock()

	cg.be.SetInsertBlock(elseB)
	elseV, err := cg.compileExpr(n.Else)
	if err != nil {
		return nil, err
	}
	cg.be.Br(mergeB)
	elseEnd := cg.be.InsertBlock()

	cg.be.SetInsertBlock(mergeB)
	return cg.be.Phi([]backend.Incoming{
		{Value: thenV, Block: thenEnd},
		{Value: elseV, Block: elseEnd},
	}), nil
}

// compileFor lowers a loop over a single loop block. The body value is
// discarded, the end condition is evaluated before the induction
// variable is stepped, and the loop expression itself is always 0.
func (cg *CodeGen) compileFor(n *ForExpr) (backend.Value, error) {
	slot := cg.be.EntryAlloca(cg.fn, n.Var)
	start, err := cg.compileExpr(n.Start)
	if err != nil {
		return nil, err
	}
	cg.be.Store(slot, start)

	loopB := cg.be.AddBlock(cg.fn, "loop")
	cg.be.Br(loopB)
	cg.be.SetInsertBlock(loopB)

	// The induction variable shadows any outer binding of the same name
	// for the extent of the loop.
	cg.scope.Push()
	cg.scope.Bind(n.Var, slot)
	defer cg.scope.Pop()

	if _, err := cg.compileExpr(n.Body); err != nil {
		return nil, err
	}

	var step backend.Value
	if n.Step != nil {
		if step, err = cg.compileExpr(n.Step); err != nil {
			return nil, err
		}
	} else {
		step = cg.be.Const(1)
	}

	endCond, err := cg.compileExpr(n.End)
	if err != nil {
		return nil, err
	}

	cur := cg.be.Load(slot, n.Var)
	cg.be.Store(slot, cg.be.FAdd(cur, step))

	repeat := cg.be.FCmpONE(endCond, cg.be.Const(0))
	afterB := cg.be.AddBlock(cg.fn, "afterloop")
	cg.be.CondBr(repeat, loopB, afterB)
	cg.be.SetInsertBlock(afterB)

	return cg.be.Const(0), nil
}

// compileVarIn allocates a slot per binding, initialized left to right
// (later initializers can read earlier bindings of the same var..in),
// then compiles the body with the new bindings in scope.
func (cg *CodeGen) compileVarIn(n *VarInExpr) (backend.Value, error) {
	cg.scope.Push()
	defer cg.scope.Pop()

	for _, b := range n.Bindings {
		var init backend.Value
		if b.Init != nil {
			v, err := cg.compileExpr(b.Init)
			if err != nil {
				return nil, err
			}
			init = v
		} else {
			init = cg.be.Const(0)
		}
		slot := cg.be.EntryAlloca(cg.fn, b.Name)
		cg.be.Store(slot, init)
		cg.scope.Bind(b.Name, slot)
	}

	return cg.compileExpr(n.Body)
}
