package archon

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// resourceCell holds one world-scoped singleton value plus its own borrow
// state, governed by the same reader/writer discipline as columns.
type resourceCell struct {
	value  any
	borrow borrowState
}

type resources struct {
	mu    sync.RWMutex
	cells map[reflect.Type]*resourceCell
}

func newResources() *resources {
	return &resources{cells: make(map[reflect.Type]*resourceCell)}
}

func (r *resources) insert(typ reflect.Type, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cells[typ]; ok {
		c.value = value
		return
	}
	r.cells[typ] = &resourceCell{value: value}
}

func (r *resources) cell(typ reflect.Type) (*resourceCell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cells[typ]
	return c, ok
}

// Res is a read-only resource handle.
type Res[T any] struct {
	world *World
}

// Get borrows the resource for reading, failing with BorrowConflictError if
// a writer currently holds it.
func (r Res[T]) Get() (*T, *columnBorrow, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	c, ok := r.world.resources.cell(typ)
	if !ok {
		return nil, nil, bark.AddTrace(TypeNotRegisteredError{Type: typ})
	}
	guard, ok := acquireRead(&c.borrow)
	if !ok {
		return nil, nil, bark.AddTrace(BorrowConflictError{Type: typ})
	}
	v := c.value.(*T)
	return v, guard, nil
}

// ResMut is a read-write resource handle.
type ResMut[T any] struct {
	world *World
}

// Get borrows the resource for writing, failing with BorrowConflictError if
// any other borrow is outstanding.
func (r ResMut[T]) Get() (*T, *columnBorrow, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	c, ok := r.world.resources.cell(typ)
	if !ok {
		return nil, nil, bark.AddTrace(TypeNotRegisteredError{Type: typ})
	}
	guard, ok := acquireWrite(&c.borrow)
	if !ok {
		return nil, nil, bark.AddTrace(BorrowConflictError{Type: typ})
	}
	v := c.value.(*T)
	return v, guard, nil
}

// InsertResource installs (or overwrites) the world-scoped singleton of T.
func InsertResource[T any](w *World, value T) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	boxed := new(T)
	*boxed = value
	w.resources.insert(typ, boxed)
}

// GetResource returns a read-only handle for T's resource.
func GetResource[T any](w *World) Res[T] {
	return Res[T]{world: w}
}

// GetResourceMut returns a read-write handle for T's resource.
func GetResourceMut[T any](w *World) ResMut[T] {
	return ResMut[T]{world: w}
}
