package ecs

import "unsafe"

// Access describes how much a Fetch touches an archetype's columns. The
// ordering (Iterate < Read < Write) lets a composite query compute its
// strictest requirement with a single max over its parts, exactly as the
// source's Access enum does.
type Access uint8

const (
	AccessIterate Access = iota
	AccessRead
	AccessWrite
)

// maybeAccess is an Access that may be absent: none() (ok false) marks an
// archetype the query does not match at all -- distinct from AccessIterate,
// which still matches (entity-only queries match every archetype).
type maybeAccess struct {
	access Access
	ok     bool
}

func some(a Access) maybeAccess { return maybeAccess{a, true} }
func none() maybeAccess         { return maybeAccess{} }

func (m maybeAccess) max(other maybeAccess) maybeAccess {
	if !m.ok || !other.ok {
		return none()
	}
	if other.access > m.access {
		return other
	}
	return m
}

// Fetch is implemented by every query term: a column reader/writer, the
// entity handle itself, Optional, With or Without, or a composite tuple of
// any of these. It mirrors the source's Fetch trait method for method --
// access/borrow/release decide archetype eligibility and aliasing, init/next
// walk one archetype's rows.
type Fetch interface {
	// access reports what this term needs from archetype, or none() if the
	// archetype doesn't satisfy the term at all.
	access(archetype *Archetype) maybeAccess
	// borrow acquires whatever dynamic column borrows this term needs.
	borrow(archetype *Archetype)
	// release gives back the borrows acquired by borrow.
	release(archetype *Archetype)
	// init prepares to walk archetype starting at row `offset`. Only called
	// after access(archetype) returned ok.
	init(archetype *Archetype, offset uint32)
	// next returns the value for the current row and advances.
	next() any
}

// --- entity handle ---

type entityFetch struct {
	dir       *directory
	archetype *Archetype
	row       uint32
}

func (f *entityFetch) access(archetype *Archetype) maybeAccess { return some(AccessIterate) }
func (f *entityFetch) borrow(archetype *Archetype)              {}
func (f *entityFetch) release(archetype *Archetype)             {}
func (f *entityFetch) init(archetype *Archetype, offset uint32) {
	f.archetype, f.row = archetype, offset
}
func (f *entityFetch) next() any {
	id := f.archetype.EntityAt(f.row)
	gen := f.dir.meta[id].gen
	f.row++
	return Entity{ID: id, Gen: gen}
}

// FetchEntity yields the Entity handle of the current row. Pass it as a
// query term alongside Read/Write terms to recover which entity each result
// row belongs to. w must be the same World the query is run against, since
// the archetype itself only tracks bare entity ids and the generation lives
// in the world's directory.
func FetchEntity(w *World) Fetch { return &entityFetch{dir: &w.dir} }

// --- component read ---

type readFetch[T any] struct {
	col *column
	ptr unsafe.Pointer
}

// Read fetches a shared reference to a T component. The archetype must
// carry T, or the query skips it entirely.
func Read[T any]() Fetch { return &readFetch[T]{} }

func (f *readFetch[T]) access(archetype *Archetype) maybeAccess {
	if archetype.Has(TypeInfoOf[T]().id) {
		return some(AccessRead)
	}
	return none()
}

func (f *readFetch[T]) borrow(archetype *Archetype) {
	archetype.Borrow(TypeInfoOf[T]().id)
}

func (f *readFetch[T]) release(archetype *Archetype) {
	archetype.Release(TypeInfoOf[T]().id)
}

func (f *readFetch[T]) init(archetype *Archetype, offset uint32) {
	f.col = archetype.columnFor(TypeInfoOf[T]().id)
	f.ptr = f.col.at(offset)
}

func (f *readFetch[T]) next() any {
	v := (*T)(f.ptr)
	f.ptr = unsafe.Add(f.ptr, f.col.info.size)
	return v
}

// --- component write ---

type writeFetch[T any] struct {
	col *column
	ptr unsafe.Pointer
}

// Write fetches an exclusive reference to a T component.
func Write[T any]() Fetch { return &writeFetch[T]{} }

func (f *writeFetch[T]) access(archetype *Archetype) maybeAccess {
	if archetype.Has(TypeInfoOf[T]().id) {
		return some(AccessWrite)
	}
	return none()
}

func (f *writeFetch[T]) borrow(archetype *Archetype) {
	archetype.BorrowMut(TypeInfoOf[T]().id)
}

func (f *writeFetch[T]) release(archetype *Archetype) {
	archetype.ReleaseMut(TypeInfoOf[T]().id)
}

func (f *writeFetch[T]) init(archetype *Archetype, offset uint32) {
	f.col = archetype.columnFor(TypeInfoOf[T]().id)
	f.ptr = f.col.at(offset)
}

func (f *writeFetch[T]) next() any {
	v := (*T)(f.ptr)
	f.ptr = unsafe.Add(f.ptr, f.col.info.size)
	return v
}

// --- optional ---

type optionalFetch struct {
	inner   Fetch
	present bool
}

// Optional wraps a term so archetypes lacking it are still matched; next()
// returns nil for rows in an archetype the inner term doesn't cover.
func Optional(inner Fetch) Fetch { return &optionalFetch{inner: inner} }

func (f *optionalFetch) access(archetype *Archetype) maybeAccess {
	a := f.inner.access(archetype)
	if !a.ok {
		return some(AccessIterate)
	}
	return a
}

func (f *optionalFetch) borrow(archetype *Archetype) {
	if f.inner.access(archetype).ok {
		f.inner.borrow(archetype)
	}
}

func (f *optionalFetch) release(archetype *Archetype) {
	if f.inner.access(archetype).ok {
		f.inner.release(archetype)
	}
}

func (f *optionalFetch) init(archetype *Archetype, offset uint32) {
	f.present = f.inner.access(archetype).ok
	if f.present {
		f.inner.init(archetype, offset)
	}
}

func (f *optionalFetch) next() any {
	if !f.present {
		return nil
	}
	return f.inner.next()
}

// --- with / without ---

type withFetch struct {
	required TypeID
	inner    Fetch
}

// With restricts a query to archetypes that carry T, without fetching it.
func With[T any](inner Fetch) Fetch {
	return &withFetch{required: TypeInfoOf[T]().id, inner: inner}
}

func (f *withFetch) access(archetype *Archetype) maybeAccess {
	if !archetype.Has(f.required) {
		return none()
	}
	return f.inner.access(archetype)
}
func (f *withFetch) borrow(archetype *Archetype)              { f.inner.borrow(archetype) }
func (f *withFetch) release(archetype *Archetype)             { f.inner.release(archetype) }
func (f *withFetch) init(archetype *Archetype, offset uint32) { f.inner.init(archetype, offset) }
func (f *withFetch) next() any                                { return f.inner.next() }

type withoutFetch struct {
	excluded TypeID
	inner    Fetch
}

// Without restricts a query to archetypes that do not carry T.
func Without[T any](inner Fetch) Fetch {
	return &withoutFetch{excluded: TypeInfoOf[T]().id, inner: inner}
}

func (f *withoutFetch) access(archetype *Archetype) maybeAccess {
	if archetype.Has(f.excluded) {
		return none()
	}
	return f.inner.access(archetype)
}
func (f *withoutFetch) borrow(archetype *Archetype)              { f.inner.borrow(archetype) }
func (f *withoutFetch) release(archetype *Archetype)             { f.inner.release(archetype) }
func (f *withoutFetch) init(archetype *Archetype, offset uint32) { f.inner.init(archetype, offset) }
func (f *withoutFetch) next() any                                { return f.inner.next() }

// --- tuples ---

type tupleFetch struct{ terms []Fetch }

// Tuple composes independent terms into one query, the Go stand-in for the
// source's variadic tuple_impl! macro (Go generics can't be variadic over
// arity, so composition is via a plain slice of Fetch instead of nested
// QueryN[A,B,...] structs).
func Tuple(terms ...Fetch) Fetch { return &tupleFetch{terms: terms} }

func (f *tupleFetch) access(archetype *Archetype) maybeAccess {
	acc := some(AccessIterate)
	for _, t := range f.terms {
		acc = acc.max(t.access(archetype))
		if !acc.ok {
			return none()
		}
	}
	return acc
}

func (f *tupleFetch) borrow(archetype *Archetype) {
	for _, t := range f.terms {
		t.borrow(archetype)
	}
}

func (f *tupleFetch) release(archetype *Archetype) {
	for _, t := range f.terms {
		t.release(archetype)
	}
}

func (f *tupleFetch) init(archetype *Archetype, offset uint32) {
	for _, t := range f.terms {
		t.init(archetype, offset)
	}
}

func (f *tupleFetch) next() any {
	row := make([]any, len(f.terms))
	for i, t := range f.terms {
		row[i] = t.next()
	}
	return row
}

// --- QueryBorrow ---

// QueryBorrow is a single-use borrow of a World sufficient to run one query.
// Borrows taken from every matching archetype's columns are held until
// Release is called; Go has no destructors, so unlike the source this must
// be released explicitly once iteration is done.
type QueryBorrow struct {
	archetypes []*Archetype
	fetch      Fetch
	borrowed   bool
	used       bool
}

// Query starts a new query over every archetype currently in w matching
// fetch. The archetype list is captured now: archetypes created afterward
// (e.g. by a Spawn during iteration) are not observed by this borrow.
func Query(w *World, fetch Fetch) *QueryBorrow {
	return &QueryBorrow{archetypes: append([]*Archetype(nil), w.archetypes...), fetch: fetch}
}

func (q *QueryBorrow) matches(archetype *Archetype) bool {
	return q.fetch.access(archetype).ok
}

func (q *QueryBorrow) acquire() {
	if q.used {
		panic(traced("ecs: query borrowed twice; construct a new query instead"))
	}
	for _, a := range q.archetypes {
		if q.matches(a) {
			q.fetch.borrow(a)
		}
	}
	q.borrowed = true
	q.used = true
}

// Release gives back every column borrow this query is holding. Safe to
// call multiple times; a no-op once already released.
func (q *QueryBorrow) Release() {
	if !q.borrowed {
		return
	}
	for _, a := range q.archetypes {
		if q.matches(a) {
			q.fetch.release(a)
		}
	}
	q.borrowed = false
}

// With narrows the query to archetypes additionally carrying the component
// identified by t, without fetching it, equivalent to wrapping the original
// fetch in With[T]. (Methods can't carry their own type parameters in Go, so
// callers needing the type-safe spelling should use the free function
// WithType[T] instead.)
func (q *QueryBorrow) With(t TypeID) *QueryBorrow {
	return &QueryBorrow{archetypes: q.archetypes, fetch: &withTypeIDFetch{required: t, inner: q.fetch}}
}

// Without narrows the query to archetypes not carrying the component
// identified by t.
func (q *QueryBorrow) Without(t TypeID) *QueryBorrow {
	return &QueryBorrow{archetypes: q.archetypes, fetch: &withoutTypeIDFetch{excluded: t, inner: q.fetch}}
}

// WithType is the type-safe spelling of QueryBorrow.With.
func WithType[T any](q *QueryBorrow) *QueryBorrow { return q.With(TypeInfoOf[T]().id) }

// WithoutType is the type-safe spelling of QueryBorrow.Without.
func WithoutType[T any](q *QueryBorrow) *QueryBorrow { return q.Without(TypeInfoOf[T]().id) }

type withTypeIDFetch struct {
	required TypeID
	inner    Fetch
}

func (f *withTypeIDFetch) access(archetype *Archetype) maybeAccess {
	if !archetype.Has(f.required) {
		return none()
	}
	return f.inner.access(archetype)
}
func (f *withTypeIDFetch) borrow(archetype *Archetype)              { f.inner.borrow(archetype) }
func (f *withTypeIDFetch) release(archetype *Archetype)             { f.inner.release(archetype) }
func (f *withTypeIDFetch) init(archetype *Archetype, offset uint32) { f.inner.init(archetype, offset) }
func (f *withTypeIDFetch) next() any                                { return f.inner.next() }

type withoutTypeIDFetch struct {
	excluded TypeID
	inner    Fetch
}

func (f *withoutTypeIDFetch) access(archetype *Archetype) maybeAccess {
	if archetype.Has(f.excluded) {
		return none()
	}
	return f.inner.access(archetype)
}
func (f *withoutTypeIDFetch) borrow(archetype *Archetype)  { f.inner.borrow(archetype) }
func (f *withoutTypeIDFetch) release(archetype *Archetype) { f.inner.release(archetype) }
func (f *withoutTypeIDFetch) init(archetype *Archetype, offset uint32) {
	f.inner.init(archetype, offset)
}
func (f *withoutTypeIDFetch) next() any { return f.inner.next() }

// Iter walks every matching row exactly once, in archetype order, yielding
// the composed Fetch's value for each. It acquires the query's borrows
// itself; they stay held, whether or not every row was consumed, until
// Release is called. A second Iter or IterBatched call on q panics.
func (q *QueryBorrow) Iter(yield func(any) bool) {
	q.acquire()
	for _, a := range q.archetypes {
		if !q.matches(a) {
			continue
		}
		n := a.Len()
		if n == 0 {
			continue
		}
		q.fetch.init(a, 0)
		for row := uint32(0); row < n; row++ {
			if !yield(q.fetch.next()) {
				return
			}
		}
	}
}

// Batch is one chunk of at most batchSize consecutive rows from a single
// archetype, the unit of work handed to iter_batched-style parallel
// consumers.
type Batch struct {
	archetype *Archetype
	fetch     Fetch
	offset    uint32
	len       uint32
}

// Iter drains the batch's rows.
func (b *Batch) Iter(yield func(any) bool) {
	b.fetch.init(b.archetype, b.offset)
	for i := uint32(0); i < b.len; i++ {
		if !yield(b.fetch.next()) {
			return
		}
	}
}

// IterBatched splits the query's results into chunks of at most batchSize
// rows, never spanning an archetype boundary. Every Batch shares the
// query's single Fetch cursor, so batches are iterated one at a time;
// running Batch.Iter on two batches of the same query concurrently is not
// safe.
func (q *QueryBorrow) IterBatched(batchSize uint32, yield func(*Batch) bool) {
	q.acquire()
	for _, a := range q.archetypes {
		if !q.matches(a) {
			continue
		}
		n := a.Len()
		for offset := uint32(0); offset < n; offset += batchSize {
			remaining := n - offset
			length := batchSize
			if remaining < length {
				length = remaining
			}
			if !yield(&Batch{archetype: a, fetch: q.fetch, offset: offset, len: length}) {
				return
			}
		}
	}
}

// Count returns the number of rows the query matches, without fetching any
// of them.
func (q *QueryBorrow) Count() int {
	total := 0
	for _, a := range q.archetypes {
		if q.matches(a) {
			total += int(a.Len())
		}
	}
	return total
}

// QueryOneResult is a scoped borrow of a single entity's query result,
// the QueryOne counterpart of Get/GetMut's Ref/RefMut: Go has no destructors,
// so unlike the source's QueryOne (held until dropped) the borrow stays
// live until Release is called explicitly.
type QueryOneResult struct {
	fetch     Fetch
	archetype *Archetype
	value     any
	ok        bool
	released  bool
}

// Value returns the fetched value and whether e's archetype actually
// satisfied fetch. Calling Value after Release is a programmer error.
func (r *QueryOneResult) Value() (any, bool) { return r.value, r.ok }

// Release gives back the borrow acquired by QueryOne. Safe to call multiple
// times, and a no-op when the query didn't match (ok is false).
func (r *QueryOneResult) Release() {
	if r.released || !r.ok {
		return
	}
	r.fetch.release(r.archetype)
	r.released = true
}

// QueryOne runs fetch against exactly the single archetype holding e, for
// a direct "get these components off one entity" lookup rather than a
// world-wide scan. Returns NoSuchEntityError for a stale handle. The
// returned result's borrow is held -- exactly like the archetype-wide
// Iter/IterBatched borrows -- until Release is called; callers should
// typically `defer result.Release()` right after a successful call.
func QueryOne(w *World, e Entity, fetch Fetch) (*QueryOneResult, error) {
	loc, err := w.dir.get(e)
	if err != nil {
		return nil, err
	}
	arch := w.archetypes[loc.archetype]
	if !fetch.access(arch).ok {
		return &QueryOneResult{}, nil
	}
	fetch.borrow(arch)
	fetch.init(arch, loc.row)
	return &QueryOneResult{fetch: fetch, archetype: arch, value: fetch.next(), ok: true}, nil
}
