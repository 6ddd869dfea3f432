package compiler

import "kaleido/pkg/backend"

// Scope maps variable names to their storage slots for the function
// currently being lowered. It is a stack of frames: function parameters
// live in the bottom frame and each var..in or for expression pushes a
// frame for its bindings, so shadowing and restoration fall out of
// frame push/pop. A name bound only in a popped frame is gone entirely
// afterwards, exactly as if its entry had been removed.
type Scope struct {
	frames []map[string]backend.Slot
}

// EnterFunction resets the scope to a single empty frame.
func (s *Scope) EnterFunction() {
	s.frames = []map[string]backend.Slot{make(map[string]backend.Slot)}
}

// Push opens a new innermost frame.
func (s *Scope) Push() {
	s.frames = append(s.frames, make(map[string]backend.Slot))
}

// Pop discards the innermost frame, restoring whatever the names it
// held were bound to before (or nothing, if they were new).
func (s *Scope) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Bind associates name with a slot in the innermost frame. Binding a
// duplicate name in the same frame overwrites the previous slot; this
// is what makes a repeated parameter name shadow the earlier one.
func (s *Scope) Bind(name string, slot backend.Slot) {
	s.frames[len(s.frames)-1][name] = slot
}

// Lookup searches frames innermost-first.
func (s *Scope) Lookup(name string) (backend.Slot, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if slot, ok := s.frames[i][name]; ok {
			return slot, true
		}
	}
	return nil, false
}
