package archon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type aCounter struct{ N int }

func TestActionEncoderDeferredInsert(t *testing.T) {
	w := NewWorld()
	counter := NewComponent[aCounter](w)
	enc := NewActionEncoder(w)

	id := w.Allocate()
	EncodeInsert(enc, id, aCounter{N: 1})

	require.False(t, HasComponent[aCounter](w, id), "a deferred Insert must not apply before Execute")
	require.False(t, enc.IsEmpty(), "IsEmpty() with a pending action")

	enc.Execute()

	require.True(t, HasComponent[aCounter](w, id), "deferred Insert should have applied after Execute")
	require.True(t, enc.IsEmpty(), "IsEmpty() after Execute drained everything")
	_ = counter
}

func TestActionEncoderDespawnDeadEntityIsNoOp(t *testing.T) {
	w := NewWorld()
	enc := NewActionEncoder(w)

	id := w.Allocate()
	_ = w.Despawn(id)

	enc.Despawn(id)
	enc.Execute() // must not panic or error
}

func TestActionEncoderReentrantActionsRunInOrder(t *testing.T) {
	w := NewWorld()
	counter := NewComponent[aCounter](w)
	enc := NewActionEncoder(w)

	var order []int
	id := w.Allocate()

	enc.Custom(func(w *World, e *ActionEncoder) {
		order = append(order, 1)
		// Recording a further action while draining must land in the
		// secondary buffer and still run before Execute returns.
		e.Custom(func(w *World, e *ActionEncoder) {
			order = append(order, 3)
		})
		order = append(order, 2)
	})

	enc.Execute()
	_ = counter

	require.Equal(t, []int{1, 2, 3}, order, "reentrant actions must run in FIFO order")
	_ = id
}
