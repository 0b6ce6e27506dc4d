package archon

import "reflect"

// RelationEdge is one directed pairing recorded by a relation component: the
// entity this edge points at, and whether this origin may hold at most one
// such edge (Exclusive) or many.
type RelationEdge struct {
	Target    EntityId
	Exclusive bool
}

// relationOrigins is the component value archon stores on an entity that
// originates relation R: the set of edges it currently holds. R never
// carries data itself — it is a marker type distinguishing one relation
// kind from another, mirroring the zero-sized relation markers of the
// original filter_not_relates_to fetch this is ported from.
type relationOrigins[R any] struct {
	edges []RelationEdge
}

// relationComponent returns (registering implicitly on first use) the
// handle for R's origin-side storage, wiring its despawn-cascade hook the
// first time R is seen.
func relationComponent[R any](w *World) Component[relationOrigins[R]] {
	c := NewComponent[relationOrigins[R]](w)
	if c.desc.cascade == nil {
		c.desc.cascade = func(col *column, row int, target EntityId) {
			v := col.at(row).Interface().(relationOrigins[R])
			out := v.edges[:0]
			changed := false
			for _, e := range v.edges {
				if e.Target == target {
					changed = true
					continue
				}
				out = append(out, e)
			}
			if changed {
				v.edges = out
				col.set(row, reflect.ValueOf(v))
			}
		}
	}
	return c
}

// Relate records that origin holds a directed R edge to target. If
// exclusive is true any edge origin already held for R is replaced;
// otherwise the edge is appended alongside existing ones.
func Relate[R any](w *World, enc *ActionEncoder, origin, target EntityId, exclusive bool) error {
	comp := relationComponent[R](w)
	edge := RelationEdge{Target: target, Exclusive: exclusive}

	if HasComponent[relationOrigins[R]](w, origin) {
		s, _ := w.directory.get(origin)
		arch := w.archetypes[s.loc.archetype]
		col := arch.column(comp.desc.typ)
		cur := col.at(int(s.loc.row)).Interface().(relationOrigins[R])
		if exclusive {
			cur.edges = []RelationEdge{edge}
		} else {
			cur.edges = append(cur.edges, edge)
		}
		col.set(int(s.loc.row), reflect.ValueOf(cur))
		col.bump(int(s.loc.row), w.clock.current())
		return nil
	}
	return Insert(w, enc, origin, relationOrigins[R]{edges: []RelationEdge{edge}})
}

// Unrelate removes any R edge from origin to target, if one exists.
func Unrelate[R any](w *World, enc *ActionEncoder, origin, target EntityId) error {
	if !HasComponent[relationOrigins[R]](w, origin) {
		return nil
	}
	s, ok := w.directory.get(origin)
	if !ok {
		return nil
	}
	arch := w.archetypes[s.loc.archetype]
	typ := reflect.TypeOf(relationOrigins[R]{})
	col := arch.column(typ)
	cur := col.at(int(s.loc.row)).Interface().(relationOrigins[R])
	out := cur.edges[:0]
	for _, e := range cur.edges {
		if e.Target != target {
			out = append(out, e)
		}
	}
	cur.edges = out
	col.set(int(s.loc.row), reflect.ValueOf(cur))
	return nil
}

// RelatesTerm matches entities that originate at least one R edge,
// regardless of target.
type RelatesTerm[R any] struct{}

// Relates requires the entity originate some R relation.
func Relates[R any]() RelatesTerm[R] { return RelatesTerm[R]{} }

func (RelatesTerm[R]) describe(w *World, ctx *matchCtx) {
	typ := reflect.TypeOf(relationOrigins[R]{})
	ctx.all.Mark(w.registry.ensureImplicit(typ).bit)
}
func (RelatesTerm[R]) bind(cur *Cursor, arch *Archetype) bool { return true }

// Targets returns every entity the current row's origin relates to via R.
func (RelatesTerm[R]) Targets(cur *Cursor) []EntityId {
	typ := reflect.TypeOf(relationOrigins[R]{})
	col := cur.curArch.column(typ)
	v := col.at(cur.row).Interface().(relationOrigins[R])
	out := make([]EntityId, len(v.edges))
	for i, e := range v.edges {
		out[i] = e.Target
	}
	return out
}

// RelatesToTerm matches entities that originate an R edge to one specific
// target.
type RelatesToTerm[R any] struct{ target EntityId }

// RelatesTo requires the entity originate an R edge specifically to target.
func RelatesTo[R any](target EntityId) RelatesToTerm[R] {
	return RelatesToTerm[R]{target: target}
}

func (RelatesToTerm[R]) describe(w *World, ctx *matchCtx) {
	typ := reflect.TypeOf(relationOrigins[R]{})
	ctx.all.Mark(w.registry.ensureImplicit(typ).bit)
}
func (RelatesToTerm[R]) bind(cur *Cursor, arch *Archetype) bool { return true }

func (t RelatesToTerm[R]) rowFilter(cur *Cursor, arch *Archetype) rowPredicate {
	typ := reflect.TypeOf(relationOrigins[R]{})
	col := arch.column(typ)
	return rowPredicate{row: func(row int) bool {
		v := col.at(row).Interface().(relationOrigins[R])
		for _, e := range v.edges {
			if e.Target == t.target {
				return true
			}
		}
		return false
	}}
}

// FilterNotRelatesToTerm matches entities that do NOT originate an R edge to
// target — whether because they lack R entirely, or because none of R's
// edges point at target. Unlike RelatesTo, lacking the R component at all
// still matches: this is a two-state fetch, ported from the relation
// filter's "NotRelates vs Relates{target}" split.
type FilterNotRelatesToTerm[R any] struct{ target EntityId }

// FilterNotRelatesTo matches entities lacking an R edge to target.
func FilterNotRelatesTo[R any](target EntityId) FilterNotRelatesToTerm[R] {
	return FilterNotRelatesToTerm[R]{target: target}
}

func (FilterNotRelatesToTerm[R]) describe(w *World, ctx *matchCtx) {}
func (FilterNotRelatesToTerm[R]) bind(cur *Cursor, arch *Archetype) bool { return true }

func (t FilterNotRelatesToTerm[R]) rowFilter(cur *Cursor, arch *Archetype) rowPredicate {
	typ := reflect.TypeOf(relationOrigins[R]{})
	if !arch.Has(typ) {
		return rowPredicate{row: func(row int) bool { return true }}
	}
	col := arch.column(typ)
	return rowPredicate{row: func(row int) bool {
		v := col.at(row).Interface().(relationOrigins[R])
		for _, e := range v.edges {
			if e.Target == t.target {
				return false
			}
		}
		return true
	}}
}

// despawnCascade runs when id is despawned: every live entity that
// originates some relation pointing at id has that edge dropped, for every
// relation type ever established through Relate. Callers reach this only
// through ActionEncoder's deferred drain, never while a query on the same
// archetypes is live.
func despawnCascade(w *World, id EntityId) {
	for _, a := range w.archetypes {
		for _, d := range a.descriptors {
			if d.cascade == nil {
				continue
			}
			col := a.column(d.typ)
			for row := 0; row < a.Len(); row++ {
				d.cascade(col, row, id)
			}
		}
	}
}
