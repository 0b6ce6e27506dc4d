package archon

import "reflect"

// Access declares that a system reads or writes one component or resource
// type. A system's access list is the input to the scheduler's conflict
// analysis: Go has no compile-time trait system to infer this from a
// function's parameter list the way the original macro-based adapter did,
// so archon's systems state their access explicitly instead.
type Access struct {
	typ      reflect.Type
	write    bool
	resource bool
}

// ReadsComponent declares shared read access to T.
func ReadsComponent[T any]() Access {
	return Access{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// WritesComponent declares exclusive write access to T.
func WritesComponent[T any]() Access {
	return Access{typ: reflect.TypeOf((*T)(nil)).Elem(), write: true}
}

// ReadsResource declares shared read access to T's resource singleton.
func ReadsResource[T any]() Access {
	return Access{typ: reflect.TypeOf((*T)(nil)).Elem(), resource: true}
}

// WritesResource declares exclusive write access to T's resource singleton.
func WritesResource[T any]() Access {
	return Access{typ: reflect.TypeOf((*T)(nil)).Elem(), resource: true, write: true}
}

// System pairs a unit of work with the access set the scheduler needs to
// decide which other systems it may safely run alongside.
type System struct {
	Name   string
	Fn     func(w *World, enc *ActionEncoder) error
	access []Access
}

// NewSystem builds a system. fn receives a world and an encoder scoped to
// this run; it should route every mutation through enc rather than calling
// World's mutating functions directly, so the scheduler can apply them only
// once the stage's other systems have all finished reading.
func NewSystem(name string, fn func(w *World, enc *ActionEncoder) error, access ...Access) *System {
	return &System{Name: name, Fn: fn, access: access}
}

// conflicts reports whether s and o declare overlapping access where at
// least one side writes — the only case two systems cannot run in the same
// stage.
func (s *System) conflicts(o *System) bool {
	for _, a := range s.access {
		for _, b := range o.access {
			if a.typ != b.typ || a.resource != b.resource {
				continue
			}
			if a.write || b.write {
				return true
			}
		}
	}
	return false
}
