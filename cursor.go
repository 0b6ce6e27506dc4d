package archon

import (
	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// Cursor iterates the rows matched by a World.Query call. It is single-use:
// once exhausted (or Close'd) its borrows are released and it must not be
// reused.
type Cursor struct {
	world *World
	terms []Term
	epoch Epoch

	matching []*Archetype
	filters  []rowFilterer

	archIdx int
	curArch *Archetype
	row     int
	started bool

	chunkSkip []func(chunk int) bool
	rowSkip   []func(row int) bool

	// trackedSince caches each Modified term's token consumption for the
	// lifetime of this Cursor, keyed by the token it consumed. Consuming
	// happens at most once per Cursor per token; without this cache a query
	// matching more than one archetype would advance the token on its first
	// archetype and then compare every subsequent archetype's rows against
	// the cursor's own start epoch, which nothing can ever exceed.
	trackedSince map[*TrackToken]Epoch

	borrows []*columnBorrow
	closed  bool
	err     error
}

func newCursor(w *World, terms []Term) *Cursor {
	cur := &Cursor{world: w, terms: terms, epoch: w.clock.current()}

	var ctx matchCtx
	for _, t := range terms {
		t.describe(w, &ctx)
	}

	var reserved *Archetype
	for _, a := range w.archetypes {
		if !a.containsAllBits(ctx.all) || !a.containsNoneBits(ctx.none) {
			continue
		}
		if a.id == 0 && len(a.types) == 0 {
			reserved = a
			continue
		}
		cur.matching = append(cur.matching, a)
	}
	if reserved != nil && ctx.all == (mask.Mask{}) {
		// Archetype 0 (no components) only matches queries with no hard
		// requirements at all, and iterates last. It holds entities spawned
		// with an empty bundle; ids from Allocate that have no component yet
		// sit in no archetype and are never yielded by a query.
		cur.matching = append(cur.matching, reserved)
	}

	cur.filters = collectFilters(terms)
	cur.archIdx = -1
	return cur
}

// collectFilters picks out the subset of terms that narrow matches row by
// row or chunk by chunk, shared by both whole-world queries and the
// single-entity QueryOneMut path.
func collectFilters(terms []Term) []rowFilterer {
	var filters []rowFilterer
	for _, t := range terms {
		if rf, ok := t.(rowFilterer); ok {
			filters = append(filters, rf)
		}
	}
	return filters
}

// Next advances the cursor to the next matching row, returning false when
// iteration is exhausted. It is safe to call Next again after it returns
// false; it keeps returning false.
func (cur *Cursor) Next() bool {
	if cur.closed {
		return false
	}
	for {
		if cur.curArch == nil {
			if !cur.advanceArchetype() {
				cur.Close()
				return false
			}
		}
		if cur.advanceRow() {
			return true
		}
		cur.releaseArchetypeBorrows()
		cur.curArch = nil
	}
}

func (cur *Cursor) advanceArchetype() bool {
	for {
		cur.archIdx++
		if cur.archIdx >= len(cur.matching) {
			return false
		}
		a := cur.matching[cur.archIdx]
		if a.Len() == 0 {
			continue
		}
		if !cur.bindArchetype(a) {
			cur.releaseArchetypeBorrows()
			// A failed bind aborts the whole query: a main-thread violation
			// has already recorded its own error, and an unavailable borrow
			// is recorded as a BorrowConflictError.
			cur.fail(bark.AddTrace(BorrowConflictError{}))
			return false
		}
		cur.curArch = a
		cur.row = -1
		return true
	}
}

// fail records err as the reason this Cursor stopped early, keeping the
// first error if called more than once.
func (cur *Cursor) fail(err error) {
	if cur.err == nil {
		cur.err = err
	}
}

// Err returns the error that caused iteration to stop early, if any. It is
// only meaningful after Next returns false.
func (cur *Cursor) Err() error { return cur.err }

func (cur *Cursor) bindArchetype(a *Archetype) bool {
	for _, t := range cur.terms {
		if !t.bind(cur, a) {
			return false
		}
	}
	cur.rowSkip = cur.rowSkip[:0]
	cur.chunkSkip = cur.chunkSkip[:0]
	for _, f := range cur.filters {
		pred := f.rowFilter(cur, a)
		if pred.row != nil {
			cur.rowSkip = append(cur.rowSkip, pred.row)
		}
		if pred.chunk != nil {
			cur.chunkSkip = append(cur.chunkSkip, pred.chunk)
		}
	}
	return true
}

func (cur *Cursor) advanceRow() bool {
	n := cur.curArch.Len()
	for {
		cur.row++
		if cur.row >= n {
			return false
		}
		if len(cur.chunkSkip) > 0 && cur.row%chunkRows == 0 {
			chunk := cur.row / chunkRows
			skip := false
			for _, f := range cur.chunkSkip {
				if !f(chunk) {
					skip = true
					break
				}
			}
			if skip {
				cur.row += chunkRows - 1
				continue
			}
		}
		if cur.rowMatches() {
			return true
		}
	}
}

func (cur *Cursor) rowMatches() bool {
	for _, f := range cur.rowSkip {
		if !f(cur.row) {
			return false
		}
	}
	return true
}

func (cur *Cursor) releaseArchetypeBorrows() {
	for _, b := range cur.borrows {
		b.release()
	}
	cur.borrows = cur.borrows[:0]
}

// Close releases any outstanding borrows early. Iterating to exhaustion via
// Next calls this automatically.
func (cur *Cursor) Close() {
	if cur.closed {
		return
	}
	cur.releaseArchetypeBorrows()
	cur.closed = true
}

// Entity returns the current row's EntityId.
func (cur *Cursor) Entity() EntityId {
	return cur.curArch.entities[cur.row]
}
