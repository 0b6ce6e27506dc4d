package archon_test

import (
	"fmt"

	"github.com/ashwoodlabs/archon"
)

// Position is a simple component for 2D coordinates.
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement.
type Velocity struct {
	X float64
	Y float64
}

// Example_basic shows spawning entities and iterating a two-term query.
func Example_basic() {
	w := archon.Factory.NewWorld()
	position := archon.NewComponent[Position](w)
	velocity := archon.NewComponent[Velocity](w)

	for i := 0; i < 3; i++ {
		w.Spawn(archon.Bundle{position.Value(Position{})})
	}
	moving := w.Spawn(archon.Bundle{
		position.Value(Position{X: 10, Y: 20}),
		velocity.Value(Velocity{X: 1, Y: 2}),
	})
	_ = moving

	cur := w.Query(position.Write(), velocity.Read())
	defer cur.Close()

	matched := 0
	for cur.Next() {
		matched++
		p := position.Write().Get(cur)
		v := velocity.Read().Get(cur)
		p.X += v.X
		p.Y += v.Y
	}
	fmt.Println(matched)
	// Output: 1
}

// Example_deferred shows recording mutations through an ActionEncoder
// instead of calling World's mutating functions directly.
func Example_deferred() {
	w := archon.Factory.NewWorld()
	position := archon.NewComponent[Position](w)
	enc := archon.Factory.NewActionEncoder(w)

	id := w.Allocate()
	archon.EncodeInsert(enc, id, Position{X: 1, Y: 1})
	fmt.Println(archon.HasComponent[Position](w, id))

	enc.Execute()
	fmt.Println(archon.HasComponent[Position](w, id))
	// Output:
	// false
	// true
}
