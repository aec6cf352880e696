package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryWriteReadDoublesFlaggedEntities(t *testing.T) {
	w := NewWorld()
	a := w.Spawn(NewBundle2(123, true))
	b := w.Spawn(NewBundle1(42))

	q := Query(w, Tuple(Write[int](), Optional(Read[bool]())))
	q.Iter(func(row any) bool {
		parts := row.([]any)
		n := parts[0].(*int)
		flag, _ := parts[1].(*bool)
		if flag != nil && *flag {
			*n *= 2
		}
		return true
	})
	q.Release()

	ra, _ := Get[int](w, a)
	assert.Equal(t, 246, *ra.Get())
	ra.Release()

	rb, _ := Get[int](w, b)
	assert.Equal(t, 42, *rb.Get())
	rb.Release()
}

func TestQueryWithoutBoolYieldsOnlyUnflagged(t *testing.T) {
	w := NewWorld()
	a := w.Spawn(NewBundle3(123, true, "abc"))
	b := w.Spawn(NewBundle2(456, false))
	c := w.Spawn(NewBundle2(42, "def"))

	q := Query(w, Tuple(FetchEntity(w), Read[int]()))
	q = WithoutType[bool](q)

	var got []Entity
	q.Iter(func(row any) bool {
		parts := row.([]any)
		got = append(got, parts[0].(Entity))
		return true
	})
	q.Release()

	assert.Equal(t, []Entity{c}, got)
	_ = a
	_ = b
}

func TestQueryWithBoolYieldsBothFlaggedEntities(t *testing.T) {
	w := NewWorld()
	a := w.Spawn(NewBundle3(123, true, "abc"))
	b := w.Spawn(NewBundle2(456, false))
	w.Spawn(NewBundle2(42, "def"))

	q := Query(w, Tuple(FetchEntity(w), Read[int]()))
	q = WithType[bool](q)

	var got []Entity
	q.Iter(func(row any) bool {
		parts := row.([]any)
		got = append(got, parts[0].(Entity))
		return true
	})
	q.Release()

	assert.ElementsMatch(t, []Entity{a, b}, got)
}

func TestQueryBorrowedTwicePanics(t *testing.T) {
	w := NewWorld()
	w.Spawn(NewBundle1(1))
	q := Query(w, Read[int]())
	q.Iter(func(any) bool { return true })
	assert.Panics(t, func() { q.Iter(func(any) bool { return true }) })
}

func TestQueryOneHoldsBorrowUntilRelease(t *testing.T) {
	w := NewWorld()
	e := w.Spawn(NewBundle1(position{1, 2}))

	r, err := QueryOne(w, e, Write[position]())
	assert.NoError(t, err)
	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, &position{1, 2}, v)

	assert.Panics(t, func() { GetMut[position](w, e) })

	r.Release()

	rm, err := GetMut[position](w, e)
	assert.NoError(t, err)
	rm.Release()
}

func TestQueryOneMissingComponentNotOk(t *testing.T) {
	w := NewWorld()
	e := w.Spawn(NewBundle1(int32(1)))

	r, err := QueryOne(w, e, Read[bool]())
	assert.NoError(t, err)
	_, ok := r.Value()
	assert.False(t, ok)
	r.Release()
}

func TestQueryOneStaleHandleErrors(t *testing.T) {
	w := NewWorld()
	e := w.Spawn(NewBundle1(int32(1)))
	assert.NoError(t, w.Despawn(e))

	_, err := QueryOne(w, e, Read[int32]())
	assert.IsType(t, NoSuchEntityError{}, err)
}

func TestQueryBatchPartitionMatchesIter(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 25; i++ {
		w.Spawn(NewBundle1(int32(i)))
	}

	full := Query(w, Read[int32]())
	var all []int32
	full.Iter(func(row any) bool {
		all = append(all, *row.(*int32))
		return true
	})
	full.Release()

	batched := Query(w, Read[int32]())
	var batchedAll []int32
	batched.IterBatched(7, func(b *Batch) bool {
		b.Iter(func(row any) bool {
			batchedAll = append(batchedAll, *row.(*int32))
			return true
		})
		return true
	})
	batched.Release()

	assert.ElementsMatch(t, all, batchedAll)
	assert.Len(t, batchedAll, 25)
}
