package ecs

import (
	"hash/fnv"
	"iter"
	"strconv"
	"unsafe"

	"github.com/kamstrup/intmap"
	"github.com/multun/hecs/ecs/stats"
)

// World owns every archetype and the entity directory. It routes
// spawn/despawn/insert/remove/get and locates-or-creates archetypes by
// component-set signature.
type World struct {
	archetypes []*Archetype
	dir        directory

	// signatureIndex maps a signature's hash straight to an archetype index.
	// intmap gives this the O(1) int-keyed lookup the teacher's own
	// component registries lean on; a 64-bit FNV hash over a process-wide,
	// monotonically increasing TypeID sequence has a vanishingly small
	// collision probability, and locateOrCreate compares the stored
	// signature on every hit and panics on a mismatch.
	signatureIndex *intmap.Map[uint64, uint32]

	archetypesGeneration uint64

	resources resources
}

// NewWorld creates an empty world. The empty archetype (no components) is
// created eagerly, since World.Spawn with a zero-length bundle is common
// (entities that exist purely as tags or parents).
func NewWorld() *World {
	w := &World{
		signatureIndex: intmap.New[uint64, uint32](64),
		resources:      newResources(),
	}
	w.locateOrCreate(nil)
	return w
}

func hashSignature(sig signature) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, id := range sig {
		buf[0] = byte(id)
		buf[1] = byte(id >> 8)
		buf[2] = byte(id >> 16)
		buf[3] = byte(id >> 24)
		buf[4] = byte(id >> 32)
		buf[5] = byte(id >> 40)
		buf[6] = byte(id >> 48)
		buf[7] = byte(id >> 56)
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// locateOrCreate finds the archetype whose signature exactly matches the
// given (unsorted, possibly duplicate-bearing) set of types, creating one
// lazily on first demand. Creating a new archetype appends it and bumps
// ArchetypesGeneration, so in-flight QueryBorrows (which captured the slice
// at construction) never observe it.
func (w *World) locateOrCreate(types []TypeInfo) *Archetype {
	sorted := dedupSorted(types)
	sig := signatureOf(sorted)
	h := hashSignature(sig)

	if idx, ok := w.signatureIndex.Get(h); ok {
		arch := w.archetypes[idx]
		if !sameSignature(arch.sig, sig) {
			// A genuine 64-bit hash collision between two distinct
			// signatures; astronomically unlikely, but not something the
			// core can silently paper over.
			panic(traced("ecs: archetype signature hash collision"))
		}
		return arch
	}

	idx := uint32(len(w.archetypes))
	arch := newArchetype(idx, sorted)
	w.archetypes = append(w.archetypes, arch)
	w.signatureIndex.Put(h, idx)
	w.archetypesGeneration++
	return arch
}

func sameSignature(a, b signature) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupSorted(types []TypeInfo) []TypeInfo {
	cp := append([]TypeInfo(nil), types...)
	sortTypes(cp)
	out := cp[:0]
	for i, t := range cp {
		if i == 0 || out[len(out)-1].id != t.id {
			out = append(out, t)
		}
	}
	return out
}

// ArchetypesGeneration returns the monotonic counter bumped every time a new
// archetype is created. External caches can compare it to their last-seen
// value to know whether to refresh.
func (w *World) ArchetypesGeneration() uint64 { return w.archetypesGeneration }

// Archetypes returns every archetype currently known to the world, including
// the empty one. Archetypes are never destroyed for the lifetime of a World.
func (w *World) Archetypes() []*Archetype { return w.archetypes }

// Stats reports current entity and archetype occupancy, for monitoring.
func (w *World) Stats() stats.WorldStats {
	archStats := make([]stats.ArchetypeStats, len(w.archetypes))
	for i, a := range w.archetypes {
		names := make([]string, len(a.types))
		for j, t := range a.types {
			names[j] = t.name
		}
		archStats[i] = stats.ArchetypeStats{
			Size:           int(a.Len()),
			Capacity:       int(a.Cap()),
			ComponentNames: names,
		}
	}
	return stats.WorldStats{
		Entities: stats.EntityStats{
			Used:     w.dir.used(),
			Capacity: len(w.dir.meta),
			Recycled: len(w.dir.freeList),
		},
		ComponentCount: int(globalTypes.count),
		Archetypes:     archStats,
	}
}

// Spawn inserts bundle's components as a brand new entity and returns its
// handle.
func (w *World) Spawn(b Bundle) Entity {
	types := b.Types()
	arch := w.locateOrCreate(types)
	e := w.dir.alloc()
	row := arch.allocate(e.ID)
	b.Put(func(ptr unsafe.Pointer, info TypeInfo) {
		col := arch.columnFor(info.id)
		col.moveFrom(row, ptr)
	})
	w.dir.setByID(e.ID, location{arch.index, row})
	return e
}

// SpawnBatch spawns n entities whose bundles are produced by newBundle,
// amortizing the archetype lookup when every bundle shares the same
// signature (the common case): the archetype is reserved once up front for
// n rows.
func (w *World) SpawnBatch(n int, newBundle func(i int) Bundle) []Entity {
	entities := make([]Entity, n)
	var arch *Archetype
	for i := 0; i < n; i++ {
		b := newBundle(i)
		types := b.Types()
		if arch == nil || !sameSignature(arch.sig, signatureOf(dedupSorted(types))) {
			arch = w.locateOrCreate(types)
			arch.reserve(uint32(n - i))
		}
		e := w.dir.alloc()
		row := arch.allocate(e.ID)
		b.Put(func(ptr unsafe.Pointer, info TypeInfo) {
			col := arch.columnFor(info.id)
			col.moveFrom(row, ptr)
		})
		w.dir.setByID(e.ID, location{arch.index, row})
		entities[i] = e
	}
	return entities
}

// Despawn validates e, drops its components, fixes up the directory entry
// of whichever entity gets swapped into the vacated row, and frees the
// handle. Fails with NoSuchEntityError on a stale handle; the world is left
// unmodified in that case.
func (w *World) Despawn(e Entity) error {
	loc, err := w.dir.get(e)
	if err != nil {
		return err
	}
	arch := w.archetypes[loc.archetype]
	movedEntity, moved := arch.remove(loc.row)
	if moved {
		w.dir.setByID(movedEntity, loc)
	}
	return w.dir.free(e)
}

// Contains reports whether e currently names a live entity.
func (w *World) Contains(e Entity) bool { return w.dir.contains(e) }

// Clear despawns every entity but keeps every archetype (and their
// capacity) around for reuse. Every live id has its generation bumped
// exactly as a single Despawn would, so a handle captured before Clear
// still correctly fails validation afterwards instead of aliasing whatever
// unrelated entity later reclaims its id.
func (w *World) Clear() {
	for _, arch := range w.archetypes {
		for row := arch.len; row > 0; row-- {
			for i := range arch.columns {
				arch.columns[i].dropAt(row - 1)
			}
		}
		arch.len = 0
		arch.entities = arch.entities[:0]
	}
	w.dir.clear()
}

// Ref is a scoped, read-only reference to a component's current value.
// Go has no destructors, so unlike the source's RAII guard this must be
// released explicitly -- typically with `defer ref.Release()` right after a
// successful Get.
type Ref[T any] struct {
	ptr *T
	col *column
}

// Get returns the referenced value. Calling Get after Release is a
// programmer error.
func (r Ref[T]) Get() *T { return r.ptr }

// Release gives up the shared borrow.
func (r *Ref[T]) Release() {
	if r.col == nil {
		return
	}
	r.col.releaseRead()
	r.col = nil
}

// RefMut is the exclusive-access counterpart of Ref.
type RefMut[T any] struct {
	ptr *T
	col *column
}

func (r RefMut[T]) Get() *T { return r.ptr }

func (r *RefMut[T]) Release() {
	if r.col == nil {
		return
	}
	r.col.releaseWrite()
	r.col = nil
}

// Get acquires a shared, scoped borrow of entity e's T component.
func Get[T any](w *World, e Entity) (Ref[T], error) {
	loc, err := w.dir.get(e)
	if err != nil {
		return Ref[T]{}, err
	}
	arch := w.archetypes[loc.archetype]
	info := TypeInfoOf[T]()
	col := arch.columnFor(info.id)
	if col == nil {
		return Ref[T]{}, MissingComponentError{e, info.name}
	}
	col.acquireRead()
	return Ref[T]{ptr: (*T)(col.at(loc.row)), col: col}, nil
}

// GetMut acquires the exclusive, scoped borrow of entity e's T component.
func GetMut[T any](w *World, e Entity) (RefMut[T], error) {
	loc, err := w.dir.get(e)
	if err != nil {
		return RefMut[T]{}, err
	}
	arch := w.archetypes[loc.archetype]
	info := TypeInfoOf[T]()
	col := arch.columnFor(info.id)
	if col == nil {
		return RefMut[T]{}, MissingComponentError{e, info.name}
	}
	col.acquireWrite()
	return RefMut[T]{ptr: (*T)(col.at(loc.row)), col: col}, nil
}

// Has reports whether entity e's current archetype carries a T component.
func Has[T any](w *World, e Entity) bool {
	loc, err := w.dir.get(e)
	if err != nil {
		return false
	}
	return w.archetypes[loc.archetype].Has(TypeInfoOf[T]().id)
}

// Insert adds bundle's components to e, moving it to a new archetype unless
// every added type was already present (in which case the old values are
// dropped and the new ones written in place). A type already on e is
// overwritten: its old value is dropped before the new one is written.
func (w *World) Insert(e Entity, b Bundle) error {
	loc, err := w.dir.get(e)
	if err != nil {
		return err
	}
	arch := w.archetypes[loc.archetype]
	added := b.Types()

	merged := append([]TypeInfo(nil), arch.types...)
	changed := false
	for _, t := range added {
		if !arch.Has(t.id) {
			merged = append(merged, t)
			changed = true
		}
	}

	if !changed {
		row := loc.row
		b.Put(func(ptr unsafe.Pointer, info TypeInfo) {
			col := arch.columnFor(info.id)
			col.dropAt(row)
			col.moveFrom(row, ptr)
		})
		return nil
	}

	target := w.locateOrCreate(merged)
	newRow, movedEntity, moved := arch.moveTo(loc.row, target)
	if moved {
		w.dir.setByID(movedEntity, loc)
	}
	b.Put(func(ptr unsafe.Pointer, info TypeInfo) {
		col := target.columnFor(info.id)
		if existing := arch.Has(info.id); existing {
			col.dropAt(newRow)
		}
		col.moveFrom(newRow, ptr)
	})
	w.dir.setByID(e.ID, location{target.index, newRow})
	return nil
}

// InsertOne is the single-component convenience form of Insert.
func InsertOne[T any](w *World, e Entity, v T) error {
	return w.Insert(e, NewBundle1(v))
}

func removeIDs(types []TypeInfo, remove []TypeID) ([]TypeInfo, error) {
	out := make([]TypeInfo, 0, len(types))
	found := make([]bool, len(remove))
	for _, t := range types {
		isRemoved := false
		for i, id := range remove {
			if t.id == id {
				isRemoved = true
				found[i] = true
				break
			}
		}
		if !isRemoved {
			out = append(out, t)
		}
	}
	for i, ok := range found {
		if !ok {
			return nil, MissingComponentError{Type: typeName(remove[i])}
		}
	}
	return out, nil
}

// typeName renders a TypeID for diagnostics, falling back to a numeric form
// if it was somehow never registered (it always will have been, since a
// TypeID only ever comes from TypeInfoOf).
func typeName(id TypeID) string {
	if info, ok := typeInfoByID(id); ok {
		return info.name
	}
	return "type#" + strconv.FormatUint(uint64(id), 10)
}

// extractAndRemove is the shared core behind every Remove variant: copy out
// the requested components' current bytes, then move the row to the
// archetype missing those types.
func (w *World) extractAndRemove(e Entity, remove []TypeID) ([]unsafe.Pointer, []TypeInfo, error) {
	loc, err := w.dir.get(e)
	if err != nil {
		return nil, nil, err
	}
	arch := w.archetypes[loc.archetype]

	extracted := make([]unsafe.Pointer, len(remove))
	infos := make([]TypeInfo, len(remove))
	for i, id := range remove {
		col := arch.columnFor(id)
		if col == nil {
			return nil, nil, MissingComponentError{Entity: e, Type: typeName(id)}
		}
		infos[i] = col.info
		size := col.info.size
		if size == 0 {
			size = 1
		}
		buf := make([]byte, size)
		copyBytes(unsafe.Pointer(&buf[0]), col.at(loc.row), col.info.size)
		extracted[i] = unsafe.Pointer(&buf[0])
	}

	remaining, err := removeIDs(arch.types, remove)
	if err != nil {
		return nil, nil, err
	}
	target := w.locateOrCreate(remaining)
	newRow, movedEntity, moved := arch.moveTo(loc.row, target)
	if moved {
		w.dir.setByID(movedEntity, loc)
	}
	w.dir.setByID(e.ID, location{target.index, newRow})
	return extracted, infos, nil
}

// RemoveOne removes T from e and returns its prior value.
func RemoveOne[T any](w *World, e Entity) (T, error) {
	var zero T
	info := TypeInfoOf[T]()
	ptrs, _, err := w.extractAndRemove(e, []TypeID{info.id})
	if err != nil {
		return zero, err
	}
	return *(*T)(ptrs[0]), nil
}

// Remove2 removes both A and B from e in a single archetype move and
// returns their prior values.
func Remove2[A, B any](w *World, e Entity) (A, B, error) {
	var za A
	var zb B
	ids := []TypeID{TypeInfoOf[A]().id, TypeInfoOf[B]().id}
	ptrs, _, err := w.extractAndRemove(e, ids)
	if err != nil {
		return za, zb, err
	}
	return *(*A)(ptrs[0]), *(*B)(ptrs[1]), nil
}

// Remove3 removes A, B and C from e in a single archetype move, mirroring
// Bundle3's arity.
func Remove3[A, B, C any](w *World, e Entity) (A, B, C, error) {
	var za A
	var zb B
	var zc C
	ids := []TypeID{TypeInfoOf[A]().id, TypeInfoOf[B]().id, TypeInfoOf[C]().id}
	ptrs, _, err := w.extractAndRemove(e, ids)
	if err != nil {
		return za, zb, zc, err
	}
	return *(*A)(ptrs[0]), *(*B)(ptrs[1]), *(*C)(ptrs[2]), nil
}

// Remove4 removes A, B, C and D from e in a single archetype move, mirroring
// Bundle4's arity.
func Remove4[A, B, C, D any](w *World, e Entity) (A, B, C, D, error) {
	var za A
	var zb B
	var zc C
	var zd D
	ids := []TypeID{TypeInfoOf[A]().id, TypeInfoOf[B]().id, TypeInfoOf[C]().id, TypeInfoOf[D]().id}
	ptrs, _, err := w.extractAndRemove(e, ids)
	if err != nil {
		return za, zb, zc, zd, err
	}
	return *(*A)(ptrs[0]), *(*B)(ptrs[1]), *(*C)(ptrs[2]), *(*D)(ptrs[3]), nil
}

// Remove5 removes A through E from e in a single archetype move, mirroring
// Bundle5's arity.
func Remove5[A, B, C, D, E any](w *World, e Entity) (A, B, C, D, E, error) {
	var za A
	var zb B
	var zc C
	var zd D
	var ze E
	ids := []TypeID{
		TypeInfoOf[A]().id, TypeInfoOf[B]().id, TypeInfoOf[C]().id,
		TypeInfoOf[D]().id, TypeInfoOf[E]().id,
	}
	ptrs, _, err := w.extractAndRemove(e, ids)
	if err != nil {
		return za, zb, zc, zd, ze, err
	}
	return *(*A)(ptrs[0]), *(*B)(ptrs[1]), *(*C)(ptrs[2]), *(*D)(ptrs[3]), *(*E)(ptrs[4]), nil
}

// Remove6 removes A through F from e in a single archetype move, mirroring
// Bundle6's arity -- the cutoff DESIGN.md documents for every fixed-arity
// family in this package.
func Remove6[A, B, C, D, E, F any](w *World, e Entity) (A, B, C, D, E, F, error) {
	var za A
	var zb B
	var zc C
	var zd D
	var ze E
	var zf F
	ids := []TypeID{
		TypeInfoOf[A]().id, TypeInfoOf[B]().id, TypeInfoOf[C]().id,
		TypeInfoOf[D]().id, TypeInfoOf[E]().id, TypeInfoOf[F]().id,
	}
	ptrs, _, err := w.extractAndRemove(e, ids)
	if err != nil {
		return za, zb, zc, zd, ze, zf, err
	}
	return *(*A)(ptrs[0]), *(*B)(ptrs[1]), *(*C)(ptrs[2]), *(*D)(ptrs[3]), *(*E)(ptrs[4]), *(*F)(ptrs[5]), nil
}

// EntityRef is a read-only handle bound to an entity's current archetype
// membership; it exposes introspection without itself performing mutation.
type EntityRef struct {
	world  *World
	entity Entity
}

// EntityRef returns a read-only handle to e's current archetype membership.
// Returns NoSuchEntityError for a stale handle.
func (w *World) EntityRef(e Entity) (EntityRef, error) {
	if !w.dir.contains(e) {
		return EntityRef{}, NoSuchEntityError{e}
	}
	return EntityRef{world: w, entity: e}, nil
}

// Archetype returns the archetype currently backing this entity.
func (r EntityRef) Archetype() *Archetype {
	loc, _ := r.world.dir.get(r.entity)
	return r.world.archetypes[loc.archetype]
}

// Has reports whether the referenced entity carries the component type
// identified by id.
func (r EntityRef) Has(id TypeID) bool {
	return r.Archetype().Has(id)
}

// Iter yields every live entity in the world, in unspecified order.
func (w *World) Iter() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for id := range w.dir.meta {
			m := &w.dir.meta[id]
			if !m.alive {
				continue
			}
			if !yield(Entity{ID: uint32(id), Gen: m.gen}) {
				return
			}
		}
	}
}
