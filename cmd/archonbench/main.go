// Profiling:
//
//	go build ./cmd/archonbench
//	go tool pprof -http=":8000" -nodefraction=0.001 ./archonbench cpu.pprof
package main

import (
	"context"

	"github.com/ashwoodlabs/archon"
	"github.com/pkg/profile"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }

func main() {
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(50, 2000, 1000)
	p.Stop()
}

// run spawns numEntities position+velocity entities, then drives a
// two-stage scheduler (integrate positions, then a read-only counter) for
// iters ticks, rounds times over — a worst-case shape for the scheduler's
// conflict analysis and the query engine's chunked iteration.
func run(rounds, iters, numEntities int) {
	for i := 0; i < rounds; i++ {
		w := archon.NewWorld()
		pos := archon.NewComponent[position](w)
		vel := archon.NewComponent[velocity](w)

		for e := 0; e < numEntities; e++ {
			w.Spawn(archon.Bundle{
				pos.Value(position{}),
				vel.Value(velocity{X: 1, Y: 1}),
			})
		}

		integrate := archon.NewSystem("integrate", func(w *archon.World, enc *archon.ActionEncoder) error {
			cur := w.Query(pos.Write(), vel.Read())
			defer cur.Close()
			for cur.Next() {
				p := pos.Write().Get(cur)
				v := vel.Read().Get(cur)
				p.X += v.X
				p.Y += v.Y
			}
			return nil
		}, archon.WritesComponent[position](), archon.ReadsComponent[velocity]())

		count := archon.NewSystem("count", func(w *archon.World, enc *archon.ActionEncoder) error {
			cur := w.Query(pos.Read())
			defer cur.Close()
			n := 0
			for cur.Next() {
				n++
			}
			return nil
		}, archon.ReadsComponent[position]())

		sched := archon.NewScheduler().AddSystem(integrate).AddSystem(count)

		for t := 0; t < iters; t++ {
			_ = sched.RunParallel(context.Background(), w)
		}
	}
}
