package archon

import (
	"fmt"
)

// EntityId is an opaque 64-bit value packing a generation (high 32 bits)
// and a directory index (low 32 bits). Generation 0 is reserved as the
// null id.
type EntityId uint64

func newEntityId(index, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index returns the directory slot this id refers to.
func (e EntityId) Index() uint32 { return uint32(e) }

// Generation returns the id's generation.
func (e EntityId) Generation() uint32 { return uint32(e >> 32) }

// IsNull reports whether e is the reserved null id.
func (e EntityId) IsNull() bool { return e.Generation() == 0 }

// String renders the textual form "#<gen>.<index>".
func (e EntityId) String() string {
	return fmt.Sprintf("#%d.%d", e.Generation(), e.Index())
}

// location points a live entity at its row within some archetype, or marks
// the slot as reserved (allocated but not yet placed in any archetype).
type location struct {
	archetype archetypeID
	row       uint32
	reserved  bool
}

// slot is the per-index record in the entity directory. A slot is live if
// its generation matches the EntityId under question and its location is
// not vacant.
type slot struct {
	generation uint32
	loc        location
	live       bool
}

// directory is the world's entity allocator: a dense slice of slots plus a
// free list of indices available for reuse, the classic generational-index
// scheme also used by plus3/ooftn's EntityId/EntityRef pair.
type directory struct {
	slots    []slot
	freeList []uint32
}

func newDirectory(cap int) *directory {
	return &directory{slots: make([]slot, 0, cap)}
}

// reserve allocates a fresh slot without placing it in any archetype
// (World.Allocate). The slot becomes materializable on first mutation.
func (d *directory) reserve() EntityId {
	if n := len(d.freeList); n > 0 {
		idx := d.freeList[n-1]
		d.freeList = d.freeList[:n-1]
		s := &d.slots[idx]
		s.live = true
		s.loc = location{reserved: true}
		return newEntityId(idx, s.generation)
	}
	idx := uint32(len(d.slots))
	d.slots = append(d.slots, slot{generation: 1, live: true, loc: location{reserved: true}})
	return newEntityId(idx, 1)
}

// place records where a live entity lives in archetype storage.
func (d *directory) place(id EntityId, archetype archetypeID, row uint32) {
	s := &d.slots[id.Index()]
	s.loc = location{archetype: archetype, row: row}
}

// get returns the slot for id if it is currently live and its generation
// matches.
func (d *directory) get(id EntityId) (*slot, bool) {
	idx := id.Index()
	if int(idx) >= len(d.slots) {
		return nil, false
	}
	s := &d.slots[idx]
	if !s.live || s.generation != id.Generation() {
		return nil, false
	}
	return s, true
}

// free releases id's slot back to the free list, bumping its generation so
// any outstanding copies of id become stale.
func (d *directory) free(id EntityId) {
	idx := id.Index()
	s := &d.slots[idx]
	s.live = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	d.freeList = append(d.freeList, idx)
}
