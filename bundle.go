package archon

import "reflect"

// Bundle is a statically described set of components inserted together,
// built from Component[T].Value calls.
type Bundle []bundleField

func (b Bundle) descriptors() []*componentDescriptor {
	out := make([]*componentDescriptor, len(b))
	for i, f := range b {
		out[i] = f.desc
	}
	return out
}

func (b Bundle) values() map[reflect.Type]any {
	out := make(map[reflect.Type]any, len(b))
	for _, f := range b {
		out[f.desc.typ] = f.value
	}
	return out
}

func (b Bundle) types() []reflect.Type {
	out := make([]reflect.Type, len(b))
	for i, f := range b {
		out[i] = f.desc.typ
	}
	return out
}
