package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value. The tree is
// strictly owned: recursive fields belong to their parent node, with no
// sharing and no cycles, and a parsed tree is never mutated.
type Expr interface {
	exprNode()
	String() string
}

// NumberExpr is a numeric constant.
type NumberExpr struct {
	Value float64
}

func (*NumberExpr) exprNode()        {}
func (n *NumberExpr) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// VariableExpr is a read of a named variable.
type VariableExpr struct {
	Name string
}

func (*VariableExpr) exprNode()        {}
func (v *VariableExpr) String() string { return v.Name }

// BinaryExpr represents Left Op Right. Op '=' is assignment; '+', '-',
// '*', '/', '<' and '>' are built in; anything else lowers to a call to
// the function named by BinaryName(Op).
type BinaryExpr struct {
	Op    rune
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %c %s)", b.Left, b.Op, b.Right)
}

// CallExpr represents Callee(Args). Unary operator applications parse
// directly into a CallExpr against UnaryName(op).
type CallExpr struct {
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

// IfExpr represents if Cond then Then else Else. The else branch is
// mandatory; the expression's value comes from whichever branch ran.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (*IfExpr) exprNode() {}
func (i *IfExpr) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", i.Cond, i.Then, i.Else)
}

// ForExpr represents for Var = Start, End [, Step] in Body.
// Step is nil when omitted; the loop then steps by 1. The loop
// expression itself always evaluates to 0.
type ForExpr struct {
	Var   string
	Start Expr
	End   Expr
	Step  Expr // may be nil
	Body  Expr
}

func (*ForExpr) exprNode() {}
func (f *ForExpr) String() string {
	if f.Step != nil {
		return fmt.Sprintf("(for %s = %s, %s, %s in %s)", f.Var, f.Start, f.End, f.Step, f.Body)
	}
	return fmt.Sprintf("(for %s = %s, %s in %s)", f.Var, f.Start, f.End, f.Body)
}

// VarBinding is one name [= initializer] pair of a var..in expression.
// A nil Init means the variable starts at 0.
type VarBinding struct {
	Name string
	Init Expr // may be nil
}

// VarInExpr represents var Bindings in Body. Each binding shadows any
// same-named variable for the extent of Body.
type VarInExpr struct {
	Bindings []VarBinding
	Body     Expr
}

func (*VarInExpr) exprNode() {}
func (v *VarInExpr) String() string {
	parts := make([]string, len(v.Bindings))
	for i, b := range v.Bindings {
		if b.Init != nil {
			parts[i] = fmt.Sprintf("%s = %s", b.Name, b.Init)
		} else {
			parts[i] = b.Name
		}
	}
	return fmt.Sprintf("(var %s in %s)", strings.Join(parts, ", "), v.Body)
}

//  Definitions

// AnonFuncName is the reserved name of the implicit function wrapped
// around a bare top-level expression.
const AnonFuncName = "__anon_expr"

// UnaryName returns the function name a unary operator resolves to.
func UnaryName(op rune) string { return "unary" + string(op) }

// BinaryName returns the function name a custom binary operator
// resolves to.
func BinaryName(op rune) string { return "binary" + string(op) }

// Prototype is a function's name and parameter list, plus operator
// metadata for user-defined operators. For operators, Name is already
// the synthesized UnaryName/BinaryName form.
//
// Duplicate parameter names are not rejected; a later parameter
// silently shadows an earlier one when slots are bound during lowering.
type Prototype struct {
	Name       string
	Params     []string
	IsOperator bool
	Precedence int
}

func (p *Prototype) String() string {
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(p.Params, ", "))
}

// Function is one top-level definition. A nil Body marks an external
// (forward) declaration. IsAnon marks the implicit wrapper around a
// bare top-level expression.
type Function struct {
	Proto  *Prototype
	Body   Expr
	IsAnon bool
}

func (f *Function) String() string {
	if f.Body == nil {
		return fmt.Sprintf("extern %s", f.Proto)
	}
	return fmt.Sprintf("def %s %s", f.Proto, f.Body)
}
