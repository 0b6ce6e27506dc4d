package archon

import (
	"context"
	"testing"
)

type sFoo struct{ N int }
type sBar struct{ N int }

func TestSchedulerStagePackingSeparatesConflictingWriters(t *testing.T) {
	readsFoo := NewSystem("reader", func(w *World, enc *ActionEncoder) error { return nil },
		ReadsComponent[sFoo]())
	writesFoo := NewSystem("writer", func(w *World, enc *ActionEncoder) error { return nil },
		WritesComponent[sFoo]())
	readsBar := NewSystem("unrelated", func(w *World, enc *ActionEncoder) error { return nil },
		ReadsComponent[sBar]())

	sched := NewScheduler().AddSystem(readsFoo).AddSystem(writesFoo).AddSystem(readsBar)
	stages := sched.stages()

	if len(stages) != 2 {
		t.Fatalf("got %d stages, want 2 (reader+unrelated together, writer alone)", len(stages))
	}
	if len(stages[0]) != 2 {
		t.Fatalf("stage 0 has %d systems, want 2", len(stages[0]))
	}
	if len(stages[1]) != 1 || stages[1][0] != writesFoo {
		t.Fatalf("stage 1 should contain only the sFoo writer")
	}
}

// TestSchedulerAllocateThenSpawnRunTwice mirrors the allocate/spawn scenario
// of two systems sharing a world: one allocates an id up front and defers
// inserting its component, the other calls EncodeSpawn directly. Run twice
// over a fresh scheduler against the same world, this must leave 4 sFoo
// components behind (2 per run: one from each system).
func TestSchedulerAllocateThenSpawnRunTwice(t *testing.T) {
	w := NewWorld()
	foo := NewComponent[sFoo](w)

	allocate := NewSystem("allocate", func(w *World, enc *ActionEncoder) error {
		id := w.Allocate()
		EncodeInsert(enc, id, sFoo{N: 1})
		return nil
	})
	spawn := NewSystem("spawn", func(w *World, enc *ActionEncoder) error {
		_ = EncodeSpawn(enc, Bundle{foo.Value(sFoo{N: 1})})
		return nil
	})

	sched := NewScheduler().AddSystem(allocate).AddSystem(spawn)

	if err := sched.RunSequential(w); err != nil {
		t.Fatalf("first RunSequential() error = %v", err)
	}
	if err := sched.RunSequential(w); err != nil {
		t.Fatalf("second RunSequential() error = %v", err)
	}

	cur := w.Query(foo.Read())
	defer cur.Close()
	n := 0
	for cur.Next() {
		n++
	}
	if n != 4 {
		t.Fatalf("expected 4 sFoo components after two runs of allocate+spawn, got %d", n)
	}
}

func TestSchedulerRunParallelAppliesAllStages(t *testing.T) {
	w := NewWorld()
	foo := NewComponent[sFoo](w)
	id := w.Spawn(Bundle{foo.Value(sFoo{N: 1})})

	bump := NewSystem("bump", func(w *World, enc *ActionEncoder) error {
		cur := w.Query(foo.Write())
		defer cur.Close()
		for cur.Next() {
			foo.Write().Get(cur).N++
		}
		return nil
	}, WritesComponent[sFoo]())

	sched := NewScheduler().AddSystem(bump)
	if err := sched.RunParallel(context.Background(), w); err != nil {
		t.Fatalf("RunParallel() error = %v", err)
	}

	cur := w.Query(foo.Read(), Entities())
	defer cur.Close()
	if !cur.Next() {
		t.Fatalf("expected the entity to still exist")
	}
	if cur.Entity() != id {
		t.Fatalf("Entity() = %s, want %s", cur.Entity(), id)
	}
	if got := foo.Read().Get(cur); got.N != 2 {
		t.Fatalf("sFoo.N = %d, want 2", got.N)
	}
}
