package ecs

import (
	"reflect"
	"sync"
	"unsafe"
)

// TypeID is a process-wide unique identifier for a component type.
//
// Equality of two TypeIDs implies interchangeable layout: components sharing
// a TypeID always have the same size, alignment and drop behavior. TypeIDs
// are totally ordered by value, which is what canonicalizes an archetype's
// signature.
type TypeID uint64

// TypeInfo describes the identity and memory layout of a component type:
// its TypeID, its size and alignment, and a type-erased destructor.
//
// Two TypeInfo values with the same ID are guaranteed to agree on Size,
// Align and Drop; the registry in this file is the sole place new TypeInfo
// values are minted, so that invariant can't be violated from outside the
// package.
type TypeInfo struct {
	id    TypeID
	rtype reflect.Type
	size  uintptr
	align uintptr
	drop  func(unsafe.Pointer)
	name  string
}

// ID returns the component's process-wide type identifier.
func (t TypeInfo) ID() TypeID { return t.id }

// Layout returns the size and alignment of the component.
func (t TypeInfo) Layout() (size, align uintptr) { return t.size, t.align }

// Name returns the component's Go type name, for diagnostics only.
func (t TypeInfo) Name() string { return t.name }

// Drop invokes the component's destructor on the value at ptr. In Go this
// means clearing the slot so it no longer roots whatever the component
// refers to (slices, maps, pointers); there is no explicit finalizer to
// run, but leaving stale pointers alive in a reused archetype column would
// keep the GC from reclaiming them.
func (t TypeInfo) Drop(ptr unsafe.Pointer) {
	if t.drop != nil {
		t.drop(ptr)
	}
}

// Less reports whether t sorts before other by TypeID. Used to canonicalize
// archetype signatures.
func (t TypeInfo) Less(other TypeInfo) bool { return t.id < other.id }

type typeRegistry struct {
	mu    sync.RWMutex
	byRT  map[reflect.Type]TypeInfo
	byID  map[TypeID]TypeInfo
	count TypeID
}

var globalTypes = typeRegistry{
	byRT: make(map[reflect.Type]TypeInfo),
	byID: make(map[TypeID]TypeInfo),
}

// typeInfoByID looks up a previously registered TypeInfo by id, for
// diagnostics (e.g. naming a missing component in an error) where only the
// raw id is on hand.
func typeInfoByID(id TypeID) (TypeInfo, bool) {
	globalTypes.mu.RLock()
	defer globalTypes.mu.RUnlock()
	info, ok := globalTypes.byID[id]
	return info, ok
}

// TypeInfoOf returns the (lazily registered) TypeInfo for component type T.
//
// The first call for a given T assigns it the next process-wide TypeID;
// every subsequent call, from any World, returns the identical TypeInfo.
func TypeInfoOf[T any]() TypeInfo {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil {
		// T is an interface type instantiated with no concrete value; reflect
		// can't describe it through the value, so reach it through a *T.
		rt = reflect.TypeOf(&zero).Elem()
	}
	return typeInfoForReflect(rt)
}

func typeInfoForReflect(rt reflect.Type) TypeInfo {
	globalTypes.mu.RLock()
	info, ok := globalTypes.byRT[rt]
	globalTypes.mu.RUnlock()
	if ok {
		return info
	}

	globalTypes.mu.Lock()
	defer globalTypes.mu.Unlock()
	if info, ok := globalTypes.byRT[rt]; ok {
		return info
	}

	info = TypeInfo{
		id:    globalTypes.count,
		rtype: rt,
		size:  rt.Size(),
		align: uintptr(rt.Align()),
		drop:  dropThunk(rt),
		name:  rt.String(),
	}
	globalTypes.count++
	globalTypes.byRT[rt] = info
	globalTypes.byID[info.id] = info
	return info
}

// dropThunk builds the type-erased destructor for rt. Types that cannot
// hold a reference to heap memory (no pointers, maps, slices, strings,
// interfaces, chans) need no clearing at all.
func dropThunk(rt reflect.Type) func(unsafe.Pointer) {
	if !containsPointers(rt) {
		return nil
	}
	zero := reflect.New(rt).Elem()
	return func(ptr unsafe.Pointer) {
		dst := reflect.NewAt(rt, ptr).Elem()
		dst.Set(zero)
	}
}

func containsPointers(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.String, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return containsPointers(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if containsPointers(rt.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
