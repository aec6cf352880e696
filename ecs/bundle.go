package ecs

import (
	"reflect"
	"sort"
	"unsafe"
)

// Bundle is any heterogeneous set of component values presentable to Spawn
// or Insert. It is destructive: Put hands out a pointer to each component
// exactly once, and the bundle no longer owns the component afterwards.
type Bundle interface {
	// Types returns the bundle's sorted, deduplicated TypeInfos.
	Types() []TypeInfo
	// Put calls back once per component with a pointer to the moved-out
	// value and its TypeInfo. The receiver copies out of the pointer before
	// returning from the callback.
	Put(put func(ptr unsafe.Pointer, info TypeInfo))
}

func sortTypes(types []TypeInfo) {
	sort.Slice(types, func(i, j int) bool { return types[i].Less(types[j]) })
}

// --- generic fixed-arity bundles, hand-written for tuple sizes 1..6 ---
//
// Each BundleN wraps N component values of independently-chosen types. This
// mirrors the teacher's generic.go AddN/AssignN family: rather than one
// variadic-any signature, a small family of type-safe generic structs covers
// the common arities, leaving DynamicBundle (below) for runtime-variable
// sets.

type Bundle1[A any] struct{ A A }

func NewBundle1[A any](a A) Bundle1[A] { return Bundle1[A]{a} }

func (b Bundle1[A]) Types() []TypeInfo {
	t := []TypeInfo{TypeInfoOf[A]()}
	sortTypes(t)
	return t
}

func (b Bundle1[A]) Put(put func(unsafe.Pointer, TypeInfo)) {
	put(unsafe.Pointer(&b.A), TypeInfoOf[A]())
}

type Bundle2[A, B any] struct {
	A A
	B B
}

func NewBundle2[A, B any](a A, b B) Bundle2[A, B] { return Bundle2[A, B]{a, b} }

func (b Bundle2[A, B]) Types() []TypeInfo {
	t := []TypeInfo{TypeInfoOf[A](), TypeInfoOf[B]()}
	sortTypes(t)
	return t
}

func (b Bundle2[A, B]) Put(put func(unsafe.Pointer, TypeInfo)) {
	put(unsafe.Pointer(&b.A), TypeInfoOf[A]())
	put(unsafe.Pointer(&b.B), TypeInfoOf[B]())
}

type Bundle3[A, B, C any] struct {
	A A
	B B
	C C
}

func NewBundle3[A, B, C any](a A, b B, c C) Bundle3[A, B, C] { return Bundle3[A, B, C]{a, b, c} }

func (b Bundle3[A, B, C]) Types() []TypeInfo {
	t := []TypeInfo{TypeInfoOf[A](), TypeInfoOf[B](), TypeInfoOf[C]()}
	sortTypes(t)
	return t
}

func (b Bundle3[A, B, C]) Put(put func(unsafe.Pointer, TypeInfo)) {
	put(unsafe.Pointer(&b.A), TypeInfoOf[A]())
	put(unsafe.Pointer(&b.B), TypeInfoOf[B]())
	put(unsafe.Pointer(&b.C), TypeInfoOf[C]())
}

type Bundle4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

func NewBundle4[A, B, C, D any](a A, b B, c C, d D) Bundle4[A, B, C, D] {
	return Bundle4[A, B, C, D]{a, b, c, d}
}

func (b Bundle4[A, B, C, D]) Types() []TypeInfo {
	t := []TypeInfo{TypeInfoOf[A](), TypeInfoOf[B](), TypeInfoOf[C](), TypeInfoOf[D]()}
	sortTypes(t)
	return t
}

func (b Bundle4[A, B, C, D]) Put(put func(unsafe.Pointer, TypeInfo)) {
	put(unsafe.Pointer(&b.A), TypeInfoOf[A]())
	put(unsafe.Pointer(&b.B), TypeInfoOf[B]())
	put(unsafe.Pointer(&b.C), TypeInfoOf[C]())
	put(unsafe.Pointer(&b.D), TypeInfoOf[D]())
}

type Bundle5[A, B, C, D, E any] struct {
	A A
	B B
	C C
	D D
	E E
}

func NewBundle5[A, B, C, D, E any](a A, b B, c C, d D, e E) Bundle5[A, B, C, D, E] {
	return Bundle5[A, B, C, D, E]{a, b, c, d, e}
}

func (b Bundle5[A, B, C, D, E]) Types() []TypeInfo {
	t := []TypeInfo{TypeInfoOf[A](), TypeInfoOf[B](), TypeInfoOf[C](), TypeInfoOf[D](), TypeInfoOf[E]()}
	sortTypes(t)
	return t
}

func (b Bundle5[A, B, C, D, E]) Put(put func(unsafe.Pointer, TypeInfo)) {
	put(unsafe.Pointer(&b.A), TypeInfoOf[A]())
	put(unsafe.Pointer(&b.B), TypeInfoOf[B]())
	put(unsafe.Pointer(&b.C), TypeInfoOf[C]())
	put(unsafe.Pointer(&b.D), TypeInfoOf[D]())
	put(unsafe.Pointer(&b.E), TypeInfoOf[E]())
}

type Bundle6[A, B, C, D, E, F any] struct {
	A A
	B B
	C C
	D D
	E E
	F F
}

func NewBundle6[A, B, C, D, E, F any](a A, b B, c C, d D, e E, f F) Bundle6[A, B, C, D, E, F] {
	return Bundle6[A, B, C, D, E, F]{a, b, c, d, e, f}
}

func (b Bundle6[A, B, C, D, E, F]) Types() []TypeInfo {
	t := []TypeInfo{TypeInfoOf[A](), TypeInfoOf[B](), TypeInfoOf[C](), TypeInfoOf[D](), TypeInfoOf[E](), TypeInfoOf[F]()}
	sortTypes(t)
	return t
}

func (b Bundle6[A, B, C, D, E, F]) Put(put func(unsafe.Pointer, TypeInfo)) {
	put(unsafe.Pointer(&b.A), TypeInfoOf[A]())
	put(unsafe.Pointer(&b.B), TypeInfoOf[B]())
	put(unsafe.Pointer(&b.C), TypeInfoOf[C]())
	put(unsafe.Pointer(&b.D), TypeInfoOf[D]())
	put(unsafe.Pointer(&b.E), TypeInfoOf[E]())
	put(unsafe.Pointer(&b.F), TypeInfoOf[F]())
}

// DynamicBundle is a runtime-variable bundle: a sorted []TypeInfo parallel to
// a []any holding a pointer to each component, for callers that don't know
// their component set at compile time (e.g. EntityBuilder).
type DynamicBundle struct {
	types  []TypeInfo
	values []any
}

// NewDynamicBundle builds a DynamicBundle from type/value pairs. Duplicate
// types keep the last value given for them.
func NewDynamicBundle(types []TypeInfo, values []any) DynamicBundle {
	order := make([]int, len(types))
	for i := range order {
		order[i] = i
	}
	// SliceStable: ties (duplicate types) must keep their original relative
	// order so the dedup pass below can reliably pick the last-given value.
	sort.SliceStable(order, func(i, j int) bool { return types[order[i]].Less(types[order[j]]) })

	sorted := make([]TypeInfo, 0, len(types))
	vals := make([]any, 0, len(types))
	for _, idx := range order {
		if n := len(sorted); n > 0 && sorted[n-1].id == types[idx].id {
			vals[n-1] = values[idx]
			continue
		}
		sorted = append(sorted, types[idx])
		vals = append(vals, values[idx])
	}
	return DynamicBundle{types: sorted, values: vals}
}

func (b DynamicBundle) Types() []TypeInfo { return b.types }

func (b DynamicBundle) Put(put func(unsafe.Pointer, TypeInfo)) {
	for i, t := range b.types {
		v := b.values[i]
		put(reflectDataPointer(v), t)
	}
}

// reflectDataPointer extracts the data pointer out of an any that holds a
// pointer-to-component, the same convention the teacher uses for its
// Component{ID, Component: &position{...}} pairs.
func reflectDataPointer(v any) unsafe.Pointer {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		panic(traced("ecs: dynamic bundle values must be pointers to the component"))
	}
	return rv.UnsafePointer()
}
