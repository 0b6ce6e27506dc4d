package archon

import (
	"errors"
	"testing"
)

type wPosition struct{ X, Y float64 }
type wVelocity struct{ X, Y float64 }
type wHealth struct{ Current, Max int }

func TestWorldSpawnAndQuery(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	vel := NewComponent[wVelocity](w)

	id := w.Spawn(Bundle{
		pos.Value(wPosition{X: 1, Y: 2}),
		vel.Value(wVelocity{X: 0.5, Y: -0.5}),
	})

	if !HasComponent[wPosition](w, id) {
		t.Fatalf("spawned entity should carry wPosition")
	}

	cur := w.Query(pos.Read(), vel.Read())
	defer cur.Close()

	count := 0
	for cur.Next() {
		count++
		if cur.Entity() != id {
			t.Fatalf("Entity() = %s, want %s", cur.Entity(), id)
		}
		p := pos.Read().Get(cur)
		if p.X != 1 || p.Y != 2 {
			t.Fatalf("Get() = %+v, want {1 2}", p)
		}
	}
	if count != 1 {
		t.Fatalf("matched %d rows, want 1", count)
	}
}

func TestWorldInsertMovesArchetype(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	hp := NewComponent[wHealth](w)
	enc := NewActionEncoder(w)

	id := w.Spawn(Bundle{pos.Value(wPosition{X: 1})})
	if err := Insert(w, enc, id, wHealth{Current: 10, Max: 10}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if !HasComponent[wHealth](w, id) || !HasComponent[wPosition](w, id) {
		t.Fatalf("entity should carry both components after Insert")
	}

	cur := w.Query(pos.Read())
	defer cur.Close()
	if !cur.Next() {
		t.Fatalf("expected the moved entity to still match a wPosition query")
	}
	if got := pos.Read().Get(cur); got.X != 1 {
		t.Fatalf("wPosition value lost across archetype move: got %+v", got)
	}
	_ = hp
}

func TestWorldRemoveMovesArchetype(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	hp := NewComponent[wHealth](w)
	enc := NewActionEncoder(w)

	id := w.Spawn(Bundle{pos.Value(wPosition{}), hp.Value(wHealth{Current: 5, Max: 10})})
	old, err := Remove[wHealth](w, enc, id)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if old != (wHealth{Current: 5, Max: 10}) {
		t.Fatalf("Remove() = %+v, want the exact value that was inserted", old)
	}
	if HasComponent[wHealth](w, id) {
		t.Fatalf("wHealth should be gone after Remove")
	}
	if !HasComponent[wPosition](w, id) {
		t.Fatalf("wPosition should survive Remove of an unrelated type")
	}
}

func TestWorldRemoveMissingComponentIsAnError(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	hp := NewComponent[wHealth](w)
	enc := NewActionEncoder(w)

	id := w.Spawn(Bundle{pos.Value(wPosition{})})
	if _, err := Remove[wHealth](w, enc, id); err == nil {
		t.Fatalf("Remove() of a component the entity never had should return an error")
	}
	_ = hp
}

func TestWorldDespawnIsNoOpForDeadEntity(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	id := w.Spawn(Bundle{pos.Value(wPosition{})})

	if err := w.Despawn(id); err != nil {
		t.Fatalf("Despawn() error = %v", err)
	}
	if err := w.Despawn(id); err != nil {
		t.Fatalf("second Despawn() of a dead entity should be a silent no-op, got error = %v", err)
	}
}

func TestWorldDespawnSwapRemoveFixesUpDirectory(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)

	a := w.Spawn(Bundle{pos.Value(wPosition{X: 1})})
	b := w.Spawn(Bundle{pos.Value(wPosition{X: 2})})
	_ = w.Despawn(a)

	cur := w.Query(pos.Read(), Entities())
	defer cur.Close()
	if !cur.Next() {
		t.Fatalf("expected one surviving row")
	}
	if cur.Entity() != b {
		t.Fatalf("surviving entity = %s, want %s", cur.Entity(), b)
	}
	if got := pos.Read().Get(cur); got.X != 2 {
		t.Fatalf("surviving row's value = %+v, want X=2 (swap-remove must have moved the right row)", got)
	}
}

func TestHasComponentOnUnknownEntity(t *testing.T) {
	w := NewWorld()
	NewComponent[wPosition](w)
	fake := newEntityId(999, 1)
	if HasComponent[wPosition](w, fake) {
		t.Fatalf("HasComponent on a never-allocated id should be false")
	}
}

func TestQueryOneMutMatchesSpecificEntity(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	hp := NewComponent[wHealth](w)

	e := w.Spawn(Bundle{pos.Value(wPosition{X: 42}), hp.Value(wHealth{Current: 1, Max: 2})})
	other := w.Spawn(Bundle{pos.Value(wPosition{X: 99}), hp.Value(wHealth{Current: 3, Max: 4})})

	cur, err := w.QueryOneMut(e, pos.Read(), hp.Read())
	if err != nil {
		t.Fatalf("QueryOneMut() error = %v", err)
	}
	defer cur.Close()

	if cur.Entity() != e {
		t.Fatalf("Entity() = %s, want %s", cur.Entity(), e)
	}
	if got := pos.Read().Get(cur); got.X != 42 {
		t.Fatalf("wPosition = %+v, want X=42", got)
	}
	if got := hp.Read().Get(cur); got.Current != 1 {
		t.Fatalf("wHealth = %+v, want Current=1", got)
	}
	_ = other
}

func TestQueryOneMutMissingComponentIsAnError(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	hp := NewComponent[wHealth](w)

	e := w.Spawn(Bundle{pos.Value(wPosition{X: 1})})

	cur, err := w.QueryOneMut(e, pos.Read(), hp.Read())
	if err == nil {
		cur.Close()
		t.Fatalf("QueryOneMut() should fail: entity carries wPosition but not wHealth")
	}
	var missing MissingComponentsError
	if !errors.As(err, &missing) {
		t.Fatalf("QueryOneMut() error = %v, want a MissingComponentsError", err)
	}
}

func TestQueryOneMutNoSuchEntityIsAnError(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)

	fake := newEntityId(999, 1)
	_, err := w.QueryOneMut(fake, pos.Read())
	var noSuch NoSuchEntityError
	if !errors.As(err, &noSuch) {
		t.Fatalf("QueryOneMut() error = %v, want a NoSuchEntityError", err)
	}
}

func TestQueryOneMutOnReservedEntityIsAnError(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)

	id := w.Allocate()
	_, err := w.QueryOneMut(id, pos.Read())
	var missing MissingComponentsError
	if !errors.As(err, &missing) {
		t.Fatalf("QueryOneMut() error = %v, want a MissingComponentsError for a bare-allocated entity", err)
	}
}

func TestAllocateThenInsertMaterializes(t *testing.T) {
	w := NewWorld()
	pos := NewComponent[wPosition](w)
	enc := NewActionEncoder(w)

	id := w.Allocate()
	if HasComponent[wPosition](w, id) {
		t.Fatalf("a bare-allocated entity should carry no components yet")
	}
	if err := Insert(w, enc, id, wPosition{X: 9}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !HasComponent[wPosition](w, id) {
		t.Fatalf("entity should carry wPosition after first Insert")
	}
	_ = pos
}
