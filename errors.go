package archon

import (
	"fmt"
	"reflect"
)

// NoSuchEntityError is returned when an operation references an EntityId
// that is not (or no longer) live in the world.
type NoSuchEntityError struct {
	Entity EntityId
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("no such entity: %s", e.Entity)
}

// MissingComponentsError is returned when a query or accessor requires a
// component an entity's archetype does not carry.
type MissingComponentsError struct {
	Entity EntityId
	Type   reflect.Type
}

func (e MissingComponentsError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("entity %s is missing required components", e.Entity)
	}
	return fmt.Sprintf("entity %s is missing component %s", e.Entity, e.Type)
}

// TypeNotRegisteredError is returned when an operation is given a raw type
// identity that was never registered, explicitly or implicitly.
type TypeNotRegisteredError struct {
	Type reflect.Type
}

func (e TypeNotRegisteredError) Error() string {
	return fmt.Sprintf("component type not registered: %s", e.Type)
}

// AlreadyRegisteredError is returned by explicit registration of a type
// that already has a descriptor.
type AlreadyRegisteredError struct {
	Type reflect.Type
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("component type already registered: %s", e.Type)
}

// BorrowConflictError is returned when a query cannot acquire a column or
// resource borrow because of a conflicting outstanding borrow.
type BorrowConflictError struct {
	Type reflect.Type
}

func (e BorrowConflictError) Error() string {
	if e.Type == nil {
		return "borrow conflict"
	}
	return fmt.Sprintf("borrow conflict on %s", e.Type)
}

// NotMainThreadError is returned when a non-send or non-sync component is
// borrowed from a goroutine other than the one that created the World.
type NotMainThreadError struct {
	Type reflect.Type
}

func (e NotMainThreadError) Error() string {
	return fmt.Sprintf("%s must be accessed from the main thread", e.Type)
}
