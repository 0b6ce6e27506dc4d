package archon

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scheduler holds a set of systems and decides how to run them: in
// registration order on one goroutine (RunSequential), or packed into
// parallel stages by declared access conflicts (RunParallel).
type Scheduler struct {
	systems []*System
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler { return &Scheduler{} }

// AddSystem appends sys to the schedule and returns the scheduler, so calls
// can be chained.
func (s *Scheduler) AddSystem(sys *System) *Scheduler {
	s.systems = append(s.systems, sys)
	return s
}

// stages packs systems into the fewest possible parallel groups using a
// greedy left-to-right placement: each system joins the first existing
// stage none of whose members conflict with it, or starts a new stage if
// every existing stage conflicts. This does not produce the minimum number
// of stages in general (that's graph coloring, NP-hard), but it is a fast,
// deterministic approximation stable across runs given the same system
// list and order.
func (s *Scheduler) stages() [][]*System {
	var stages [][]*System
	for _, sys := range s.systems {
		placed := false
		for i := range stages {
			conflict := false
			for _, other := range stages[i] {
				if sys.conflicts(other) {
					conflict = true
					break
				}
			}
			if !conflict {
				stages[i] = append(stages[i], sys)
				placed = true
				break
			}
		}
		if !placed {
			stages = append(stages, []*System{sys})
		}
	}
	return stages
}

// RunSequential runs every system once, in registration order, on the
// calling goroutine, applying all deferred actions and bumping the epoch
// once at the end.
func (s *Scheduler) RunSequential(w *World) error {
	enc := NewActionEncoder(w)
	for _, sys := range s.systems {
		if err := sys.Fn(w, enc); err != nil {
			enc.Execute()
			w.BumpEpoch()
			return err
		}
	}
	enc.Execute()
	w.BumpEpoch()
	return nil
}

// RunParallel runs the scheduler's stages in order, the systems within each
// stage concurrently via golang.org/x/sync/errgroup. Each system gets its
// own ActionEncoder; every encoder in a stage is drained, and the epoch
// bumped, before the next stage starts — and before a fatal error or panic
// from this stage is allowed to surface, so a failing stage never discards
// the mutations its surviving systems already recorded.
func (s *Scheduler) RunParallel(ctx context.Context, w *World) error {
	for _, stage := range s.stages() {
		if err := s.runStage(ctx, w, stage); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runStage(ctx context.Context, w *World, stage []*System) error {
	g, _ := errgroup.WithContext(ctx)
	encoders := make([]*ActionEncoder, len(stage))

	var panicMu sync.Mutex
	var panicVal any

	for i, sys := range stage {
		i, sys := i, sys
		enc := NewActionEncoder(w)
		encoders[i] = enc
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicVal == nil {
						panicVal = r
					}
					panicMu.Unlock()
				}
			}()
			return sys.Fn(w, enc)
		})
	}

	err := g.Wait()

	for _, enc := range encoders {
		enc.Execute()
	}
	w.BumpEpoch()

	if panicVal != nil {
		panic(panicVal)
	}
	return err
}
