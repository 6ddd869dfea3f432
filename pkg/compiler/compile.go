package compiler

import "kaleido/pkg/backend"

// Session ties the pipeline together for a sequence of top-level
// definitions: one precedence table, one backend, one code generator.
// Operators declared by earlier definitions affect the parsing of later
// ones, and functions defined earlier are callable from later ones.
//
// A Session is single-threaded; nothing in it is safe for concurrent
// use, and independent sessions share no state.
type Session struct {
	prec Precedence
	cg   *CodeGen
}

func NewSession(be backend.Backend) *Session {
	return &Session{
		prec: NewPrecedence(),
		cg:   NewCodeGen(be),
	}
}

// Precedence exposes the session's operator table, chiefly so tests and
// drivers can inspect the effect of "binary" declarations.
func (s *Session) Precedence() Precedence {
	return s.prec
}

// Compile runs one definition through lex, parse and lowering. The
// source must contain exactly one definition. The returned Function is
// the parsed AST (its IsAnon flag tells a driver whether to run the
// routine); the backend.Func is the compiled routine handle.
//
// The first failing stage aborts the definition: nothing is handed to
// the next stage and the backend module keeps only previously compiled
// definitions.
func (s *Session) Compile(src string) (*Function, backend.Func, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, nil, err
	}
	fn, err := NewParser(tokens, s.prec).Parse()
	if err != nil {
		return nil, nil, err
	}
	routine, err := s.cg.Compile(fn)
	if err != nil {
		return nil, nil, err
	}
	return fn, routine, nil
}

// CompileAll lexes src once and compiles every definition in it, in
// order, stopping at the first failure.
func (s *Session) CompileAll(src string) ([]*Function, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	fns, err := NewParser(tokens, s.prec).ParseAll()
	if err != nil {
		return nil, err
	}
	for _, fn := range fns {
		if _, err := s.cg.Compile(fn); err != nil {
			return nil, err
		}
	}
	return fns, nil
}
