package archon

import (
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/kamstrup/intmap"
	"github.com/rs/zerolog"
)

// World is the top-level in-memory database: an entity directory, a set of
// archetypes partitioning entities by exact component signature, a resource
// table, and the monotonic epoch clock change tracking rides on.
type World struct {
	cfg Config

	registry  *registry
	directory *directory

	archetypes   []*Archetype
	archetypeIdx *intmap.Map[uint64, archetypeID]

	resources *resources
	clock     *epochClock

	logger zerolog.Logger

	// mainGoroutine is the id of the goroutine that called NewWorld, the
	// reference point NonSend/NonSync borrow checks compare against.
	mainGoroutine uint64
}

// onMainGoroutine reports whether the calling goroutine is the one that
// constructed w.
func (w *World) onMainGoroutine() bool {
	return goroutineID() == w.mainGoroutine
}

// NewWorld constructs an empty World. Prefer Factory.NewWorld for the
// package's conventional entry point; NewWorld takes the same
// ConfigOptions and is exposed directly for callers that skip Factory.
func NewWorld(opts ...ConfigOption) *World {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &World{
		cfg:           cfg,
		registry:      newRegistry(),
		directory:     newDirectory(cfg.initialDirectoryCap),
		archetypeIdx:  intmap.New[uint64, archetypeID](cfg.initialArchetypeCap),
		archetypes:    make([]*Archetype, 0, cfg.initialArchetypeCap),
		resources:     newResources(),
		clock:         newEpochClock(),
		logger:        newDisabledLogger(),
		mainGoroutine: goroutineID(),
	}
	w.archetypes = append(w.archetypes, newArchetype(0, 0, nil)) // the empty archetype, always index 0
	w.archetypeIdx.Put(signatureKey(nil), 0)
	return w
}

// SetLogger replaces the world's diagnostic sink, used for soft failures
// (e.g. a deferred action targeting an entity that despawned before it ran).
func (w *World) SetLogger(l zerolog.Logger) { w.logger = l }

// Epoch returns the world's current epoch without advancing it.
func (w *World) Epoch() Epoch { return w.clock.current() }

// BumpEpoch advances and returns the world's epoch. The scheduler calls this
// at stage boundaries. Writes are stamped with the epoch current when they
// are made, and a Modified query only matches epochs strictly later than its
// token's snapshot, so a write made in the epoch a token was taken or last
// consumed in is never observed through it; callers driving the world
// manually call BumpEpoch before a batch of mutations that Modified queries
// should see.
func (w *World) BumpEpoch() Epoch { return w.clock.bump() }

// Tracks returns a token snapshot of the world's current epoch, the starting
// point for a Modified query that should only observe future writes.
func (w *World) Tracks() *TrackToken {
	return &TrackToken{since: w.clock.current()}
}

func (w *World) archetypeFor(descs []*componentDescriptor) *Archetype {
	bits := sortedBits(descs)
	key := signatureKey(bits)
	if id, ok := w.archetypeIdx.Get(key); ok {
		return w.archetypes[id]
	}
	id := archetypeID(len(w.archetypes))
	a := newArchetype(id, len(w.archetypes), descs)
	w.archetypes = append(w.archetypes, a)
	w.archetypeIdx.Put(key, id)
	w.logger.Debug().Uint32("archetype", uint32(id)).Str("signature", w.signatureLabel(bits)).Msg("archetype created")
	return a
}

// signatureLabel renders a sorted bit set as its registered type names,
// joined, for diagnostic logging — archetype creation is rare enough that
// this never runs on a hot path.
func (w *World) signatureLabel(bits []uint32) string {
	if len(bits) == 0 {
		return "<empty>"
	}
	out := w.registry.nameForBit(bits[0])
	for _, b := range bits[1:] {
		out += "+" + w.registry.nameForBit(b)
	}
	return out
}

// emptyArchetype holds entities spawned with an empty bundle. Freshly
// reserved entities (Allocate) are not placed here: they sit in no archetype
// until their first component is inserted.
func (w *World) emptyArchetype() *Archetype { return w.archetypes[0] }

// Allocate reserves an EntityId with no components yet. It becomes visible
// to queries only once it has at least one component inserted; until then
// it exists solely so its id can be referenced (e.g. as a relation target)
// before the entity it describes is fully built.
func (w *World) Allocate() EntityId {
	return w.directory.reserve()
}

// Spawn creates a fully-formed entity with every component in bundle,
// placing it directly in the archetype matching bundle's signature.
func (w *World) Spawn(bundle Bundle) EntityId {
	id := w.directory.reserve()
	w.place(id, bundle)
	return id
}

func (w *World) place(id EntityId, bundle Bundle) {
	descs := make([]*componentDescriptor, len(bundle))
	for i, f := range bundle {
		descs[i] = f.desc
	}
	arch := w.archetypeFor(descs)
	row := arch.push(id, bundle.values(), w.clock.current())
	w.directory.place(id, arch.id, uint32(row))
}

// Despawn removes id and all of its components. Despawning an id that is
// already dead (never allocated, or already despawned) is a silent no-op,
// matching ActionEncoder's deferred-despawn semantics.
func (w *World) Despawn(id EntityId) error {
	s, ok := w.directory.get(id)
	if !ok {
		return nil
	}
	var enc *ActionEncoder
	if !s.loc.reserved {
		arch := w.archetypes[s.loc.archetype]
		for _, d := range arch.descriptors {
			if d.dropHook == nil {
				continue
			}
			if enc == nil {
				enc = NewActionEncoder(w)
			}
			d.dropHook(enc, id, arch.column(d.typ).at(int(s.loc.row)).Interface())
		}
		w.removeFromArchetype(s.loc.archetype, int(s.loc.row))
	}
	w.directory.free(id)
	if enc != nil {
		enc.Execute()
	}
	return nil
}

func (w *World) removeFromArchetype(id archetypeID, row int) {
	arch := w.archetypes[id]
	displaced := arch.swapRemove(row)
	if displaced != 0 {
		w.directory.place(displaced, id, uint32(row))
	}
}

// HasComponent reports whether id currently carries a value of T. It
// returns false (not an error) for a dead or reserved entity.
func HasComponent[T any](w *World, id EntityId) bool {
	s, ok := w.directory.get(id)
	if !ok || s.loc.reserved {
		return false
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	return w.archetypes[s.loc.archetype].Has(typ)
}

// Insert adds or overwrites a single component on id. If a value of T was
// already present its replace hook (if any) runs before the old value is
// discarded; otherwise id is moved into the archetype that adds T to its
// current signature.
func Insert[T any](w *World, enc *ActionEncoder, id EntityId, value T) error {
	s, ok := w.directory.get(id)
	if !ok {
		return bark.AddTrace(NoSuchEntityError{Entity: id})
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	desc := w.registry.ensureImplicit(typ)

	if !s.loc.reserved {
		cur := w.archetypes[s.loc.archetype]
		if cur.Has(typ) {
			if desc.replaceHook != nil {
				old := cur.column(typ).at(int(s.loc.row)).Interface()
				desc.replaceHook(enc, id, old, value)
			}
			cur.column(typ).set(int(s.loc.row), reflect.ValueOf(value))
			cur.bump(int(s.loc.row), typ, w.clock.current())
			return nil
		}
	}
	w.moveWith(id, s, desc, value)
	return nil
}

// moveWith relocates id into the archetype that is its current signature
// plus desc, carrying over every existing column value and writing value
// into the new column.
func (w *World) moveWith(id EntityId, s *slot, desc *componentDescriptor, value any) {
	var fromArch *Archetype
	var fromRow int
	carried := make(map[reflect.Type]any)
	descs := []*componentDescriptor{desc}

	if !s.loc.reserved {
		fromArch = w.archetypes[s.loc.archetype]
		fromRow = int(s.loc.row)
		carried = fromArch.extractForMove(fromRow, fromArch.types)
		descs = append(append([]*componentDescriptor(nil), fromArch.descriptors...), desc)
	}
	carried[desc.typ] = value

	toArch := w.archetypeFor(descs)
	row := toArch.push(id, carried, w.clock.current())
	w.directory.place(id, toArch.id, uint32(row))

	if fromArch != nil {
		displaced := fromArch.swapRemove(fromRow)
		if displaced != 0 {
			w.directory.place(displaced, fromArch.id, uint32(fromRow))
		}
	}
}

// Remove drops T from id, moving it into the archetype missing T, and
// returns the value it held — the round-trip counterpart of Insert. It
// fails with MissingComponentsError if id doesn't currently carry T. The
// type's drop hook, if any, runs first.
func Remove[T any](w *World, enc *ActionEncoder, id EntityId) (T, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	desc := w.registry.ensureImplicit(typ)
	value, err := removeByDescriptor(w, enc, id, desc)
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// InsertBundle adds every component in bundle to id, one field at a time:
// each component id does not yet carry moves it to a new archetype.
func InsertBundle(w *World, enc *ActionEncoder, id EntityId, bundle Bundle) error {
	for _, f := range bundle {
		if err := insertField(w, enc, id, f); err != nil {
			return err
		}
	}
	return nil
}

func insertField(w *World, enc *ActionEncoder, id EntityId, f bundleField) error {
	s, ok := w.directory.get(id)
	if !ok {
		return bark.AddTrace(NoSuchEntityError{Entity: id})
	}
	if !s.loc.reserved {
		cur := w.archetypes[s.loc.archetype]
		if cur.Has(f.desc.typ) {
			if f.desc.replaceHook != nil {
				old := cur.column(f.desc.typ).at(int(s.loc.row)).Interface()
				f.desc.replaceHook(enc, id, old, f.value)
			}
			cur.column(f.desc.typ).set(int(s.loc.row), reflect.ValueOf(f.value))
			cur.bump(int(s.loc.row), f.desc.typ, w.clock.current())
			return nil
		}
	}
	w.moveWith(id, s, f.desc, f.value)
	return nil
}

// RemoveBundle drops every type named by types from id, one move per call
// for simplicity; types id does not carry are silently skipped.
func RemoveBundle(w *World, enc *ActionEncoder, id EntityId, types []reflect.Type) error {
	for _, t := range types {
		desc, ok := w.registry.lookup(t)
		if !ok {
			continue
		}
		s, ok := w.directory.get(id)
		if !ok {
			return bark.AddTrace(NoSuchEntityError{Entity: id})
		}
		if s.loc.reserved || !w.archetypes[s.loc.archetype].Has(desc.typ) {
			continue
		}
		if _, err := removeByDescriptor(w, enc, id, desc); err != nil {
			return err
		}
	}
	return nil
}

// removeByDescriptor drops desc's component from id, moving it into the
// archetype missing that type, and returns the value it held. It fails with
// NoSuchEntityError for a dead entity and MissingComponentsError if id
// doesn't currently carry desc's type.
func removeByDescriptor(w *World, enc *ActionEncoder, id EntityId, desc *componentDescriptor) (any, error) {
	s, ok := w.directory.get(id)
	if !ok {
		return nil, bark.AddTrace(NoSuchEntityError{Entity: id})
	}
	if s.loc.reserved {
		return nil, bark.AddTrace(MissingComponentsError{Entity: id, Type: desc.typ})
	}
	fromArch := w.archetypes[s.loc.archetype]
	if !fromArch.Has(desc.typ) {
		return nil, bark.AddTrace(MissingComponentsError{Entity: id, Type: desc.typ})
	}
	value := fromArch.column(desc.typ).at(int(s.loc.row)).Interface()
	if desc.dropHook != nil {
		desc.dropHook(enc, id, value)
	}
	keep := make([]reflect.Type, 0, len(fromArch.types)-1)
	keepDescs := make([]*componentDescriptor, 0, len(fromArch.descriptors)-1)
	for _, d := range fromArch.descriptors {
		if d.typ == desc.typ {
			continue
		}
		keep = append(keep, d.typ)
		keepDescs = append(keepDescs, d)
	}
	carried := fromArch.extractForMove(int(s.loc.row), keep)
	toArch := w.archetypeFor(keepDescs)
	row := toArch.push(id, carried, w.clock.current())
	w.directory.place(id, toArch.id, uint32(row))
	displaced := fromArch.swapRemove(int(s.loc.row))
	if displaced != 0 {
		w.directory.place(displaced, fromArch.id, uint32(s.loc.row))
	}
	return value, nil
}

// Query builds a Cursor over every archetype matching terms, in archetype
// creation order.
func (w *World) Query(terms ...Term) *Cursor {
	return newCursor(w, terms)
}

// QueryOneMut checks one specific entity against terms and returns a Cursor
// positioned on its row if every term matches, distinguishing why it
// doesn't otherwise: NoSuchEntityError for a dead entity,
// MissingComponentsError for a merely reserved entity or if its archetype —
// or, for a row-level
// term like Modified or RelatesTo, the row itself — doesn't satisfy terms.
// The caller must Close the returned Cursor once done with it.
func (w *World) QueryOneMut(id EntityId, terms ...Term) (*Cursor, error) {
	s, ok := w.directory.get(id)
	if !ok {
		return nil, bark.AddTrace(NoSuchEntityError{Entity: id})
	}
	if s.loc.reserved {
		return nil, bark.AddTrace(MissingComponentsError{Entity: id})
	}
	arch := w.archetypes[s.loc.archetype]

	var ctx matchCtx
	for _, t := range terms {
		t.describe(w, &ctx)
	}
	if !arch.containsAllBits(ctx.all) || !arch.containsNoneBits(ctx.none) {
		return nil, bark.AddTrace(MissingComponentsError{Entity: id})
	}

	cur := &Cursor{
		world:    w,
		terms:    terms,
		epoch:    w.clock.current(),
		matching: []*Archetype{arch},
		filters:  collectFilters(terms),
	}
	if !cur.bindArchetype(arch) {
		cur.releaseArchetypeBorrows()
		if cur.err != nil {
			return nil, cur.err
		}
		return nil, bark.AddTrace(BorrowConflictError{})
	}
	cur.curArch = arch
	cur.archIdx = 0
	cur.row = int(s.loc.row)

	if !cur.rowMatches() {
		cur.releaseArchetypeBorrows()
		return nil, bark.AddTrace(MissingComponentsError{Entity: id})
	}
	return cur, nil
}
