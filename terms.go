package archon

import (
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// matchCtx accumulates the signature constraints a set of terms imposes on
// an archetype: every bit in all must be set, every bit in none must be
// clear. Archetypes that fail either test never reach bind.
type matchCtx struct {
	all  mask.Mask
	none mask.Mask
}

// Term is one clause of a World.Query call. Each term either demands a
// component be present (and readable or writable), demands its absence, or
// adds a per-row predicate evaluated during iteration (Modified,
// RelatesTo, FilterNotRelatesTo).
type Term interface {
	describe(w *World, ctx *matchCtx)
	bind(cur *Cursor, arch *Archetype) bool
}

// rowFilterer is implemented by terms that narrow matches row by row (or
// chunk by chunk) rather than by archetype signature alone.
type rowFilterer interface {
	rowFilter(cur *Cursor, arch *Archetype) rowPredicate
}

// rowPredicate reports whether row should be yielded. chunk, when
// non-nil, lets the cursor skip an entire chunk without visiting its rows.
type rowPredicate struct {
	row   func(row int) bool
	chunk func(chunk int) bool
}

// ReadTerm grants shared access to T on every matched row.
type ReadTerm[T any] struct{ desc *componentDescriptor }

// Read builds a read term from a registered component handle.
func (c Component[T]) Read() ReadTerm[T] { return ReadTerm[T]{desc: c.desc} }

func (t ReadTerm[T]) describe(w *World, ctx *matchCtx) { ctx.all.Mark(t.desc.bit) }

func (t ReadTerm[T]) bind(cur *Cursor, arch *Archetype) bool {
	if t.desc.nonSync && !cur.world.onMainGoroutine() {
		cur.fail(bark.AddTrace(NotMainThreadError{Type: t.desc.typ}))
		return false
	}
	col := arch.column(t.desc.typ)
	b, ok := acquireRead(&col.borrow)
	if !ok {
		return false
	}
	cur.borrows = append(cur.borrows, b)
	return true
}

// Get returns the current row's value of T.
func (t ReadTerm[T]) Get(cur *Cursor) T {
	col := cur.curArch.column(t.desc.typ)
	return col.at(cur.row).Interface().(T)
}

// WriteTerm grants exclusive access to T on every matched row. Fetching a
// row's value through Get marks that row (and its chunk) written at the
// cursor's current epoch, regardless of whether the caller actually changes
// the value — archon does not diff old and new values to decide.
type WriteTerm[T any] struct{ desc *componentDescriptor }

// Write builds a write term from a registered component handle.
func (c Component[T]) Write() WriteTerm[T] { return WriteTerm[T]{desc: c.desc} }

func (t WriteTerm[T]) describe(w *World, ctx *matchCtx) { ctx.all.Mark(t.desc.bit) }

func (t WriteTerm[T]) bind(cur *Cursor, arch *Archetype) bool {
	if t.desc.nonSend && !cur.world.onMainGoroutine() {
		cur.fail(bark.AddTrace(NotMainThreadError{Type: t.desc.typ}))
		return false
	}
	col := arch.column(t.desc.typ)
	b, ok := acquireWrite(&col.borrow)
	if !ok {
		return false
	}
	cur.borrows = append(cur.borrows, b)
	return true
}

// Get returns a pointer to the current row's value of T, stamping the row
// written at the cursor's epoch.
func (t WriteTerm[T]) Get(cur *Cursor) *T {
	col := cur.curArch.column(t.desc.typ)
	col.bump(cur.row, cur.epoch)
	return col.at(cur.row).Addr().Interface().(*T)
}

// CopiedTerm is a read term documenting that the caller only wants a
// snapshot value, not a borrow held across the whole iteration; archon
// binds it exactly like ReadTerm since its column storage is already
// value-typed and cheap to copy.
type CopiedTerm[T any] struct{ desc *componentDescriptor }

// Copied builds a copied term from a registered component handle.
func (c Component[T]) Copied() CopiedTerm[T] { return CopiedTerm[T]{desc: c.desc} }

func (t CopiedTerm[T]) describe(w *World, ctx *matchCtx) { ctx.all.Mark(t.desc.bit) }

func (t CopiedTerm[T]) bind(cur *Cursor, arch *Archetype) bool {
	if t.desc.nonSync && !cur.world.onMainGoroutine() {
		cur.fail(bark.AddTrace(NotMainThreadError{Type: t.desc.typ}))
		return false
	}
	col := arch.column(t.desc.typ)
	b, ok := acquireRead(&col.borrow)
	if !ok {
		return false
	}
	cur.borrows = append(cur.borrows, b)
	return true
}

// Get returns a copy of the current row's value of T.
func (t CopiedTerm[T]) Get(cur *Cursor) T {
	col := cur.curArch.column(t.desc.typ)
	return col.at(cur.row).Interface().(T)
}

// EntitiesTerm yields the id of the current row without reserving any
// component access.
type EntitiesTerm struct{}

// Entities is the term that fetches the row's own EntityId.
func Entities() EntitiesTerm { return EntitiesTerm{} }

func (EntitiesTerm) describe(w *World, ctx *matchCtx) {}
func (EntitiesTerm) bind(cur *Cursor, arch *Archetype) bool { return true }

// Get returns the current row's EntityId.
func (EntitiesTerm) Get(cur *Cursor) EntityId {
	return cur.curArch.entities[cur.row]
}

// OptionTerm wraps a component so a query still matches archetypes lacking
// it; Get reports ok=false in that case instead of failing the match.
type OptionTerm[T any] struct {
	desc  *componentDescriptor
	write bool
}

// OptionRead wraps c so its absence no longer excludes an archetype.
func OptionRead[T any](c Component[T]) OptionTerm[T] { return OptionTerm[T]{desc: c.desc} }

// OptionWrite is OptionRead's mutable counterpart.
func OptionWrite[T any](c Component[T]) OptionTerm[T] {
	return OptionTerm[T]{desc: c.desc, write: true}
}

func (t OptionTerm[T]) describe(w *World, ctx *matchCtx) {}

func (t OptionTerm[T]) bind(cur *Cursor, arch *Archetype) bool {
	if !arch.Has(t.desc.typ) {
		return true
	}
	if t.write && t.desc.nonSend && !cur.world.onMainGoroutine() {
		cur.fail(bark.AddTrace(NotMainThreadError{Type: t.desc.typ}))
		return false
	}
	if !t.write && t.desc.nonSync && !cur.world.onMainGoroutine() {
		cur.fail(bark.AddTrace(NotMainThreadError{Type: t.desc.typ}))
		return false
	}
	col := arch.column(t.desc.typ)
	var b *columnBorrow
	var ok bool
	if t.write {
		b, ok = acquireWrite(&col.borrow)
	} else {
		b, ok = acquireRead(&col.borrow)
	}
	if !ok {
		return false
	}
	cur.borrows = append(cur.borrows, b)
	return true
}

// Get returns the current row's value of T and true, or the zero value and
// false if the archetype doesn't carry T at all.
func (t OptionTerm[T]) Get(cur *Cursor) (T, bool) {
	if !cur.curArch.Has(t.desc.typ) {
		var zero T
		return zero, false
	}
	col := cur.curArch.column(t.desc.typ)
	if t.write {
		col.bump(cur.row, cur.epoch)
	}
	v := col.at(cur.row).Interface().(T)
	return v, true
}

// ModifiedTerm matches rows of T written at an epoch strictly later than a
// tracked token's snapshot. It
// reads T (it does not imply write access); pair it with a separate
// WriteTerm if the system also mutates the value.
type ModifiedTerm[T any] struct {
	desc  *componentDescriptor
	token *TrackToken
}

// Modified builds a change-tracking read term: only rows of T written since
// token's last consumption match.
func Modified[T any](c Component[T], token *TrackToken) ModifiedTerm[T] {
	return ModifiedTerm[T]{desc: c.desc, token: token}
}

func (t ModifiedTerm[T]) describe(w *World, ctx *matchCtx) { ctx.all.Mark(t.desc.bit) }

func (t ModifiedTerm[T]) bind(cur *Cursor, arch *Archetype) bool {
	if t.desc.nonSync && !cur.world.onMainGoroutine() {
		cur.fail(bark.AddTrace(NotMainThreadError{Type: t.desc.typ}))
		return false
	}
	col := arch.column(t.desc.typ)
	b, ok := acquireRead(&col.borrow)
	if !ok {
		return false
	}
	cur.borrows = append(cur.borrows, b)
	return true
}

func (t ModifiedTerm[T]) rowFilter(cur *Cursor, arch *Archetype) rowPredicate {
	col := arch.column(t.desc.typ)
	// The token must be consumed exactly once per Cursor, not once per
	// archetype bind: consuming advances token.since to the cursor's epoch,
	// so a second consumption (for a query's next matching archetype) would
	// compare that archetype's rows against the cursor's own start epoch,
	// which no write can ever exceed. Cache the result the first time any
	// archetype in this Cursor's iteration asks for it.
	since, ok := cur.trackedSince[t.token]
	if !ok {
		since = t.token.consume(cur.epoch)
		if cur.trackedSince == nil {
			cur.trackedSince = make(map[*TrackToken]Epoch)
		}
		cur.trackedSince[t.token] = since
	}
	// Strictly greater than: since is the epoch as of the token's last
	// consumption, and a row stamped at exactly that epoch was already
	// visible to whatever consumed the token then.
	return rowPredicate{
		row:   func(row int) bool { return col.rowEpoch(row) > since },
		chunk: func(chunk int) bool { return col.chunkMax(chunk) > since },
	}
}

// Get returns the current row's value of T.
func (t ModifiedTerm[T]) Get(cur *Cursor) T {
	col := cur.curArch.column(t.desc.typ)
	return col.at(cur.row).Interface().(T)
}

// WithTerm requires T's presence without binding any access to it.
type WithTerm[T any] struct{}

// With requires the archetype carry T, without reserving a borrow on it.
func With[T any]() WithTerm[T] { return WithTerm[T]{} }

func (WithTerm[T]) describe(w *World, ctx *matchCtx) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	ctx.all.Mark(w.registry.ensureImplicit(typ).bit)
}
func (WithTerm[T]) bind(cur *Cursor, arch *Archetype) bool { return true }

// WithoutTerm excludes archetypes carrying T.
type WithoutTerm[T any] struct{}

// Without excludes any archetype that carries T.
func Without[T any]() WithoutTerm[T] { return WithoutTerm[T]{} }

func (WithoutTerm[T]) describe(w *World, ctx *matchCtx) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	ctx.none.Mark(w.registry.ensureImplicit(typ).bit)
}
func (WithoutTerm[T]) bind(cur *Cursor, arch *Archetype) bool { return true }
