// Package backend defines the code-generation capability the compiler
// drives. A Backend owns a module of routines; the compiler lowers one
// function at a time into it through this interface and never inspects
// the implementation's representation beyond the opaque handles.
package backend

// Opaque handles. Each implementation substitutes its own concrete
// types; the compiler only passes them back into Backend calls.
type (
	// Func identifies a declared or fully built routine.
	Func any
	// Block identifies a basic block of a routine under construction.
	Block any
	// Slot identifies an addressable storage location for one mutable
	// local (the stack-allocation analog).
	Slot any
	// Value identifies an SSA value produced by an instruction.
	Value any
)

// Incoming pairs a value with the predecessor block it arrives from,
// for phi construction.
type Incoming struct {
	Value Value
	Block Block
}

// Backend is the instruction-emission surface. All values are double
// precision floats; comparison results are single-bit values that must
// pass through BoolToFloat before being used as numbers.
//
// Emission is positional: instructions are appended to the current
// insert block, set with SetInsertBlock. EntryAlloca is the exception
// and always allocates in the routine's entry region regardless of the
// insert position.
type Backend interface {
	// Declare registers a routine signature. Declaring a name that
	// already exists replaces the previous routine.
	Declare(name string, params []string) (Func, error)
	// Lookup resolves a previously declared routine by name.
	Lookup(name string) (Func, bool)

	AddBlock(fn Func, name string) Block
	SetInsertBlock(b Block)
	// InsertBlock reports the block instructions are currently being
	// appended to.
	InsertBlock() Block

	EntryAlloca(fn Func, name string) Slot
	Load(s Slot, name string) Value
	Store(s Slot, v Value)

	Param(fn Func, i int) Value
	Const(v float64) Value

	FAdd(x, y Value) Value
	FSub(x, y Value) Value
	FMul(x, y Value) Value
	FDiv(x, y Value) Value
	// FCmpULT is the unordered-or-less-than predicate: true when x < y
	// or either operand is NaN.
	FCmpULT(x, y Value) Value
	// FCmpONE is the ordered-and-not-equal predicate: true when neither
	// operand is NaN and x != y.
	FCmpONE(x, y Value) Value
	BoolToFloat(v Value) Value

	Br(target Block)
	CondBr(cond Value, then, els Block)
	Phi(incoming []Incoming) Value
	Call(fn Func, args []Value) Value
	Ret(v Value)

	// Verify checks the structural integrity of a finished routine.
	Verify(fn Func) error
	// Optimize may rewrite a verified routine; which passes run is the
	// implementation's choice.
	Optimize(fn Func)
	// Delete removes a routine from the module, for discarding
	// partially built routines after a failure.
	Delete(fn Func)
}
