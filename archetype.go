package archon

import (
	"reflect"
	"sort"

	"github.com/TheBitDrifter/mask"
)

// archetypeID is a stable index into World.archetypes.list.
type archetypeID uint32

// bundleField pairs a registered component descriptor with a concrete
// value, the shape Spawn/InsertBundle/EncodeSpawn build bundles from.
type bundleField struct {
	desc  *componentDescriptor
	value any
}

// Archetype is a columnar table of entities sharing an exact component
// signature. It is created on demand the first time an entity requires a
// signature not already present, and is never deleted.
type Archetype struct {
	id          archetypeID
	createdAt   int // creation order, used as the query iteration tie-break
	types       []reflect.Type
	descriptors []*componentDescriptor
	sig         mask.Mask
	columns     map[reflect.Type]*column
	entities    []EntityId
}

func newArchetype(id archetypeID, createdAt int, descs []*componentDescriptor) *Archetype {
	sorted := append([]*componentDescriptor(nil), descs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].bit < sorted[j].bit })

	a := &Archetype{
		id:          id,
		createdAt:   createdAt,
		descriptors: sorted,
		columns:     make(map[reflect.Type]*column, len(sorted)),
	}
	for _, d := range sorted {
		a.types = append(a.types, d.typ)
		a.sig.Mark(d.bit)
		a.columns[d.typ] = newColumn(d.typ)
	}
	return a
}

// ID returns the archetype's stable identity within its world.
func (a *Archetype) ID() uint32 { return uint32(a.id) }

// Len returns the number of live rows (entities) in the archetype.
func (a *Archetype) Len() int { return len(a.entities) }

// Types returns the archetype's signature as a sorted slice.
func (a *Archetype) Types() []reflect.Type { return a.types }

// Has reports whether the archetype carries the given component type.
func (a *Archetype) Has(typ reflect.Type) bool {
	_, ok := a.columns[typ]
	return ok
}

// column returns the column for typ, or nil if the archetype lacks it.
func (a *Archetype) column(typ reflect.Type) *column {
	return a.columns[typ]
}

// containsAllBits reports whether the archetype's signature carries every
// bit set in other — the basis for With/Read/Write term matching.
func (a *Archetype) containsAllBits(other mask.Mask) bool {
	return a.sig.ContainsAll(other)
}

func (a *Archetype) containsAnyBits(other mask.Mask) bool {
	return a.sig.ContainsAny(other)
}

func (a *Archetype) containsNoneBits(other mask.Mask) bool {
	return a.sig.ContainsNone(other)
}

// push appends a new row built from fields, stamping every written cell
// with epoch, and returns the row index. Every descriptor in the
// archetype's signature must have a field in values.
func (a *Archetype) push(id EntityId, values map[reflect.Type]any, epoch Epoch) int {
	row := len(a.entities)
	for _, d := range a.descriptors {
		col := a.columns[d.typ]
		r := col.appendZero()
		v, ok := values[d.typ]
		if ok {
			col.set(r, reflect.ValueOf(v))
		}
		col.bump(r, epoch)
	}
	a.entities = append(a.entities, id)
	return row
}

// swapRemove removes row by swapping the last row into its place (O(1)).
// It returns the EntityId displaced into row, or the zero EntityId if row
// was already last. The caller must fix up the displaced entity's
// directory slot.
func (a *Archetype) swapRemove(row int) EntityId {
	last := len(a.entities) - 1
	var displaced EntityId
	if row != last {
		displaced = a.entities[last]
		a.entities[row] = a.entities[last]
	}
	a.entities = a.entities[:last]
	for _, col := range a.columns {
		col.swapRemove(row)
	}
	return displaced
}

// extractForMove copies out the values of keepTypes from row by value,
// without dropping them from the column. The row is left intact; the
// caller must follow up with swapRemove to actually shrink the archetype.
func (a *Archetype) extractForMove(row int, keepTypes []reflect.Type) map[reflect.Type]any {
	out := make(map[reflect.Type]any, len(keepTypes))
	for _, t := range keepTypes {
		col := a.columns[t]
		if col == nil {
			continue
		}
		out[t] = col.at(row).Interface()
	}
	return out
}

// bump marks row's typ column as written at the current epoch.
func (a *Archetype) bump(row int, typ reflect.Type, epoch Epoch) {
	if col := a.columns[typ]; col != nil {
		col.bump(row, epoch)
	}
}

func signatureKey(bits []uint32) uint64 {
	var h uint64 = 14695981039346656037
	for _, b := range bits {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return h
}

func sortedBits(descs []*componentDescriptor) []uint32 {
	bits := make([]uint32, len(descs))
	for i, d := range descs {
		bits[i] = d.bit
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })
	return bits
}
