package ecs

import (
	"reflect"
	"sync/atomic"
	"unsafe"
)

// column is a dedicated, contiguous allocation for one component type in one
// archetype. Its archetype grows it together with its sibling columns, by
// power-of-two doubling, and it carries its own dynamic borrow counter.
//
// The buffer is a reflect.Value of kind Array rather than a raw byte slice so
// that components holding pointers, slices or maps stay visible to the
// garbage collector; this mirrors the teacher's reflect.ArrayOf technique.
type column struct {
	info    TypeInfo
	buffer  reflect.Value
	pointer unsafe.Pointer
	cap     uint32

	// borrow is the dynamic aliasing counter: 0 is idle, >0 is N shared
	// readers, -1 is a single exclusive writer. It is the sole
	// synchronization primitive in the core (see (*Archetype).Borrow).
	borrow int32
}

func newColumn(info TypeInfo, capacity int) column {
	if capacity < 1 {
		capacity = 1
	}
	buf := reflect.New(reflect.ArrayOf(capacity, info.rtype)).Elem()
	return column{
		info:    info,
		buffer:  buf,
		pointer: buf.Addr().UnsafePointer(),
		cap:     uint32(capacity),
	}
}

func (c *column) at(row uint32) unsafe.Pointer {
	return unsafe.Add(c.pointer, uintptr(row)*c.info.size)
}

// grow reallocates the backing array to at least newCap elements,
// move-constructing every live element (len of them) into the new buffer.
func (c *column) grow(newCap int, live uint32) {
	old := c.buffer
	buf := reflect.New(reflect.ArrayOf(newCap, c.info.rtype)).Elem()
	if live > 0 {
		reflect.Copy(buf.Slice(0, int(live)), old.Slice(0, int(live)))
	}
	c.buffer = buf
	c.pointer = buf.Addr().UnsafePointer()
	c.cap = uint32(newCap)
}

// moveConstruct copies the value at src row into dst row of this column and
// clears the source slot (the source no longer owns the value).
func (c *column) moveConstruct(dstRow, srcRow uint32) {
	dst := c.at(dstRow)
	src := c.at(srcRow)
	copyBytes(dst, src, c.info.size)
	c.info.Drop(src)
}

// moveFrom copies a value from an external source pointer into dstRow,
// without dropping the source (the caller, e.g. a Bundle, owns that).
func (c *column) moveFrom(dstRow uint32, src unsafe.Pointer) {
	copyBytes(c.at(dstRow), src, c.info.size)
}

// dropAt invokes the destructor on the value at row.
func (c *column) dropAt(row uint32) {
	c.info.Drop(c.at(row))
}

func copyBytes(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	dstSlice := unsafe.Slice((*byte)(dst), size)
	srcSlice := unsafe.Slice((*byte)(src), size)
	copy(dstSlice, srcSlice)
}

// Borrow states: borrowIdle is 0, a positive count is that many shared
// readers, and -1 is a single exclusive writer.
const (
	borrowIdle = 0
)

func (c *column) acquireRead() {
	for {
		old := atomic.LoadInt32(&c.borrow)
		if old < 0 {
			panic(traced("borrow: column " + c.info.name + " already has an exclusive writer"))
		}
		if atomic.CompareAndSwapInt32(&c.borrow, old, old+1) {
			return
		}
	}
}

func (c *column) releaseRead() {
	if atomic.AddInt32(&c.borrow, -1) < 0 {
		panic(traced("release: column " + c.info.name + " was not shared-borrowed"))
	}
}

func (c *column) acquireWrite() {
	if !atomic.CompareAndSwapInt32(&c.borrow, borrowIdle, -1) {
		panic(traced("borrow_mut: column " + c.info.name + " is already borrowed"))
	}
}

func (c *column) releaseWrite() {
	if !atomic.CompareAndSwapInt32(&c.borrow, -1, borrowIdle) {
		panic(traced("release_mut: column " + c.info.name + " was not exclusively borrowed"))
	}
}
