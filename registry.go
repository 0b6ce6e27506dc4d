package archon

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// componentDescriptor is the immutable record the type registry keeps for a
// registered component type: its identity, the bit it occupies in archetype
// signature masks, and its optional replace/drop hooks and thread-affinity
// flags. Once registered a descriptor never changes.
type componentDescriptor struct {
	typ         reflect.Type
	bit         uint32
	replaceHook func(enc *ActionEncoder, entity EntityId, old, new any)
	dropHook    func(enc *ActionEncoder, entity EntityId, value any)
	nonSend     bool
	nonSync     bool

	// cascade, set only for relation-origin component types, strips any
	// edge pointing at target from the value stored at col/row in place.
	cascade func(col *column, row int, target EntityId)
}

// registry maps component type identity to its descriptor. Registration is
// either explicit (RegisterComponent, fails on a second call for the same
// type) or implicit (NewComponent, first-use default descriptor).
type registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*componentDescriptor
	nextBit uint32
	names   *SimpleCache[string]
}

// maxRegisteredTypes bounds the names cache; archetype signatures are
// stored as mask.Mask, whose own width is the real ceiling on distinct
// component types a world can register.
const maxRegisteredTypes = 4096

func newRegistry() *registry {
	return &registry{
		byType: make(map[reflect.Type]*componentDescriptor),
		names:  NewCache[string](maxRegisteredTypes),
	}
}

// nameForBit returns the registered type name occupying bit, or "?" if
// none does (only possible for a bit beyond everything ever registered).
func (r *registry) nameForBit(bit uint32) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit >= r.nextBit {
		return "?"
	}
	return *r.names.GetItem32(bit)
}

func (r *registry) lookup(typ reflect.Type) (*componentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[typ]
	return d, ok
}

func (r *registry) mustLookup(typ reflect.Type) (*componentDescriptor, error) {
	if d, ok := r.lookup(typ); ok {
		return d, nil
	}
	return nil, bark.AddTrace(TypeNotRegisteredError{Type: typ})
}

// ensureImplicit returns the descriptor for typ, registering a default one
// (no hooks, Send+Sync) if this is the first time typ is seen.
func (r *registry) ensureImplicit(typ reflect.Type) *componentDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.byType[typ]; ok {
		return d
	}
	d := &componentDescriptor{typ: typ, bit: r.nextBit}
	r.nextBit++
	r.byType[typ] = d
	_, _ = r.names.Register(typeName(typ), typeName(typ))
	return d
}

// registerExplicit installs a descriptor built from opts, failing if typ is
// already registered.
func (r *registry) registerExplicit(typ reflect.Type, apply func(*componentDescriptor)) (*componentDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byType[typ]; ok {
		return nil, bark.AddTrace(AlreadyRegisteredError{Type: typ})
	}
	d := &componentDescriptor{typ: typ, bit: r.nextBit}
	r.nextBit++
	apply(d)
	r.byType[typ] = d
	_, _ = r.names.Register(typeName(typ), typeName(typ))
	return d, nil
}

// Option configures a component's descriptor at explicit registration time.
// It is generic over the component's Go type so hook signatures stay typed
// at the call site even though the descriptor itself is type-erased.
type Option[T any] func(*componentDescriptor)

// WithReplaceHook runs fn whenever a value of T already present on an entity
// is overwritten by Insert, before the old value is dropped. The hook may
// only enqueue actions into enc; it must not mutate the world directly.
func WithReplaceHook[T any](fn func(enc *ActionEncoder, entity EntityId, old, new T)) Option[T] {
	return func(d *componentDescriptor) {
		d.replaceHook = func(enc *ActionEncoder, entity EntityId, old, new any) {
			fn(enc, entity, old.(T), new.(T))
		}
	}
}

// WithDropHook runs fn whenever a value of T is removed or its entity is
// despawned, before the value is actually dropped.
func WithDropHook[T any](fn func(enc *ActionEncoder, entity EntityId, value T)) Option[T] {
	return func(d *componentDescriptor) {
		d.dropHook = func(enc *ActionEncoder, entity EntityId, value any) {
			fn(enc, entity, value.(T))
		}
	}
}

// NonSend marks T so it can only be fetched mutably from the world's main
// goroutine; readers off-main are still permitted.
func NonSend[T any]() Option[T] {
	return func(d *componentDescriptor) { d.nonSend = true }
}

// NonSync marks T so it can only be fetched immutably from the world's main
// goroutine; writers from any goroutine are still permitted.
func NonSync[T any]() Option[T] {
	return func(d *componentDescriptor) { d.nonSync = true }
}

// Component is a registered type handle used to build query terms and to
// supply values to Spawn/Insert: a typed, reusable capability object rather
// than a bare reflect.Type.
type Component[T any] struct {
	desc *componentDescriptor
}

// Type returns the reflect.Type this handle was registered for.
func (c Component[T]) Type() reflect.Type { return c.desc.typ }

// Value pairs this component with a concrete value for Spawn/EncodeSpawn.
func (c Component[T]) Value(v T) bundleField {
	return bundleField{desc: c.desc, value: v}
}

// RegisterComponent explicitly registers T with the world. It fails with
// AlreadyRegisteredError if T was already registered, explicitly or
// implicitly.
func RegisterComponent[T any](w *World, opts ...Option[T]) (Component[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	d, err := w.registry.registerExplicit(typ, func(d *componentDescriptor) {
		for _, opt := range opts {
			opt(d)
		}
	})
	if err != nil {
		return Component[T]{}, err
	}
	return Component[T]{desc: d}, nil
}

// NewComponent returns a handle for T, implicitly registering it with a
// default descriptor (no hooks, Send+Sync) if this is the first use.
func NewComponent[T any](w *World) Component[T] {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	return Component[T]{desc: w.registry.ensureImplicit(typ)}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s", t)
}
