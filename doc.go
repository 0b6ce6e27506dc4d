/*
Package archon is an archetype-based Entity-Component-System runtime.

Archon stores entities partitioned by the exact set of component types they
carry (an "archetype"), iterates them through composable queries, tracks
per-component modification epochs, defers mutations recorded while the world
is only borrowed immutably, and schedules user functions ("systems") into
parallel stages by their declared component and resource access.

Core Concepts:

  - EntityId: a generational handle identifying a row in some archetype.
  - Component: any Go type registered (explicitly or on first use) with the
    world; component values live in archetype columns.
  - Archetype: a columnar table of entities sharing an exact component set.
  - Query: a composition of terms (Read, Write, With, Without, Modified, ...)
    producing a filtered, typed iteration over matching archetypes.
  - ActionEncoder: an append-only log of deferred world mutations.
  - Scheduler: groups systems with non-conflicting access into parallel
    stages and runs them against a world.

Basic usage:

	world := archon.Factory.NewWorld()
	position := archon.NewComponent[Position](world)
	velocity := archon.NewComponent[Velocity](world)

	world.Spawn(archon.Bundle{position.Value(Position{X: 1}), velocity.Value(Velocity{X: 1})})

	cursor := world.Query(position.Write(), velocity.Read())
	for cursor.Next() {
		pos := position.Write().Get(cursor)
		vel := velocity.Read().Get(cursor)
		pos.X += vel.X
	}

Archon is the storage and scheduling core; it assumes an executor able to
run opaque closures in parallel (the default uses golang.org/x/sync/errgroup)
and a monotonic clock for epochs (an atomic counter scoped to each World). It
does not persist to disk, coordinate across processes, or expose a
scripting surface.
*/
package archon
