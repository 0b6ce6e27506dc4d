package archon

import "reflect"

// action is one deferred mutation recorded by an ActionEncoder.
type action func(w *World, enc *ActionEncoder)

// ActionEncoder buffers mutations so they can be recorded while the World
// is only borrowed for reading (inside a query loop, inside a system that
// only declared read access) and applied later, in order, once nothing else
// holds a conflicting borrow.
//
// Actions recorded while Execute is already draining go into a secondary
// buffer rather than the primary queue, and that secondary buffer is
// appended to the primary queue only after the current pass finishes — so a
// system that spawns entities whose own deferred actions spawn further
// entities still sees every action applied, front to back, without losing
// or reordering any of them.
type ActionEncoder struct {
	world     *World
	primary   []action
	secondary []action
	draining  bool
}

// NewActionEncoder returns an encoder bound to w.
func NewActionEncoder(w *World) *ActionEncoder {
	return &ActionEncoder{world: w}
}

// IsEmpty reports whether the encoder has no actions left to apply.
func (e *ActionEncoder) IsEmpty() bool { return len(e.primary) == 0 && len(e.secondary) == 0 }

func (e *ActionEncoder) enqueue(a action) {
	if e.draining {
		e.secondary = append(e.secondary, a)
		return
	}
	e.primary = append(e.primary, a)
}

// EncodeInsert defers adding or overwriting a single component on id.
func EncodeInsert[T any](enc *ActionEncoder, id EntityId, value T) {
	enc.enqueue(func(w *World, e *ActionEncoder) {
		if err := Insert(w, e, id, value); err != nil {
			w.logger.Debug().Err(err).Stringer("entity", id).Msg("deferred insert skipped")
		}
	})
}

// EncodeRemove defers dropping a single component from id.
func EncodeRemove[T any](enc *ActionEncoder, id EntityId) {
	enc.enqueue(func(w *World, e *ActionEncoder) {
		if _, err := Remove[T](w, e, id); err != nil {
			w.logger.Debug().Err(err).Stringer("entity", id).Msg("deferred remove skipped")
		}
	})
}

// EncodeSpawn reserves an EntityId immediately, the same way World.Allocate
// does, and defers placing bundle's components onto it until Execute runs.
// The returned id is valid to reference right away (e.g. as a relation
// target or another deferred action's argument) even though the entity
// doesn't carry bundle's components until the encoder drains.
func EncodeSpawn(enc *ActionEncoder, bundle Bundle) EntityId {
	id := enc.world.Allocate()
	enc.enqueue(func(w *World, e *ActionEncoder) {
		if err := InsertBundle(w, e, id, bundle); err != nil {
			w.logger.Debug().Err(err).Stringer("entity", id).Msg("deferred spawn skipped")
		}
	})
	return id
}

// EncodeInsertBundle defers adding every component in bundle to id.
func EncodeInsertBundle(enc *ActionEncoder, id EntityId, bundle Bundle) {
	enc.enqueue(func(w *World, e *ActionEncoder) {
		if err := InsertBundle(w, e, id, bundle); err != nil {
			w.logger.Debug().Err(err).Stringer("entity", id).Msg("deferred insert bundle skipped")
		}
	})
}

// EncodeRemoveBundle defers dropping every type in types from id.
func EncodeRemoveBundle(enc *ActionEncoder, id EntityId, types []reflect.Type) {
	enc.enqueue(func(w *World, e *ActionEncoder) {
		if err := RemoveBundle(w, e, id, types); err != nil {
			w.logger.Debug().Err(err).Stringer("entity", id).Msg("deferred remove bundle skipped")
		}
	})
}

// Despawn defers destroying id, cascading the removal of any relation edge
// another entity holds pointing at it. Despawning an id that turns out to
// already be dead by the time this action runs is a silent no-op.
func (e *ActionEncoder) Despawn(id EntityId) {
	e.enqueue(func(w *World, enc *ActionEncoder) {
		despawnCascade(w, id)
		_ = w.Despawn(id)
	})
}

// Custom defers an arbitrary closure, for callers whose mutation doesn't
// fit Insert/Remove/Despawn (e.g. a batch operation over several entities).
func (e *ActionEncoder) Custom(fn func(w *World, enc *ActionEncoder)) {
	e.enqueue(fn)
}

// Execute drains every buffered action in FIFO order, applying re-entrantly
// recorded actions in additional passes until none remain.
func (e *ActionEncoder) Execute() {
	e.draining = true
	defer func() { e.draining = false }()

	for len(e.primary) > 0 {
		batch := e.primary
		e.primary = nil
		for _, a := range batch {
			a(e.world, e)
		}
		if len(e.secondary) > 0 {
			e.primary = append(e.primary, e.secondary...)
			e.secondary = e.secondary[:0]
		}
	}
}
