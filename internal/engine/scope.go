package engine

// StackPos is a cursor into the registry's diagram-creation history,
// captured on entry to a diagram routine and restored on exit so that
// every temporary diagram allocated in between is released -- on
// every exit path, including error returns (spec.md §5: "Scoped
// resource acquisition").
type StackPos int

// GetStackPos records the current registry cursor.
func (r *Registry) GetStackPos() StackPos {
	return StackPos(len(r.stack))
}

// RestoreStackPos erases every diagram created since pos was taken.
// Call it (typically via defer) at every exit point of a diagram
// routine that allocates scoped temporaries, mirroring the original's
// `dg_stack_pos_t pos = get_stack_pos(); ...; restore_stack_pos(pos);`
// idiom (sector00.c: calc_T1).
func (r *Registry) RestoreStackPos(pos StackPos) {
	for i := len(r.stack) - 1; i >= int(pos); i-- {
		name := r.stack[i]
		if _, ok := r.diagrams[name]; ok {
			delete(r.diagrams, name)
			r.store.DropDiagram(name)
		}
	}
	r.stack = r.stack[:pos]
}

func (r *Registry) recordCreated(name string) {
	r.stack = append(r.stack, name)
}

// Scope is a convenience wrapper: r.Scope()() restores the cursor
// taken at call time. Typical use: `defer e.Registry.Scope()()`.
func (r *Registry) Scope() func() {
	pos := r.GetStackPos()
	return func() { r.RestoreStackPos(pos) }
}
