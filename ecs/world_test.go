package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorldSpawnAndGet(t *testing.T) {
	w := NewWorld()
	a := w.Spawn(NewBundle2(123, true))
	b := w.Spawn(NewBundle1(42))

	ra, err := Get[int](w, a)
	assert.NoError(t, err)
	assert.Equal(t, 123, *ra.Get())
	ra.Release()

	_, err = Get[bool](w, b)
	assert.Error(t, err)
	assert.IsType(t, MissingComponentError{}, err)
}

func TestWorldSpawnDespawnIdempotence(t *testing.T) {
	w := NewWorld()
	e := w.Spawn(NewBundle1(position{1, 2}))
	assert.True(t, w.Contains(e))

	assert.NoError(t, w.Despawn(e))
	assert.False(t, w.Contains(e))

	_, err := Get[position](w, e)
	assert.IsType(t, NoSuchEntityError{}, err)

	assert.Error(t, w.Despawn(e))
}

func TestWorldInsertRemoveRoundTrip(t *testing.T) {
	w := NewWorld()
	e := w.Spawn(NewBundle1(uint32(1)))

	assert.NoError(t, InsertOne(w, e, 2.5))
	rf, err := Get[float64](w, e)
	assert.NoError(t, err)
	assert.Equal(t, 2.5, *rf.Get())
	rf.Release()

	got, err := RemoveOne[uint32](w, e)
	assert.NoError(t, err)
	assert.Equal(t, uint32(1), got)
	assert.False(t, Has[uint32](w, e))
	assert.True(t, Has[float64](w, e))
}

func TestWorldInsertOverwriteSameArchetype(t *testing.T) {
	w := NewWorld()
	e := w.Spawn(NewBundle1(position{1, 2}))
	assert.NoError(t, InsertOne(w, e, position{9, 9}))

	r, err := Get[position](w, e)
	assert.NoError(t, err)
	assert.Equal(t, position{9, 9}, *r.Get())
	r.Release()
}

func TestWorldSwapRemoveFixesDirectory(t *testing.T) {
	w := NewWorld()
	entities := make([]Entity, 1000)
	for i := range entities {
		entities[i] = w.Spawn(NewBundle1(int32(i)))
	}

	assert.NoError(t, w.Despawn(entities[500]))

	last := entities[999]
	loc, err := w.dir.get(last)
	assert.NoError(t, err)
	assert.EqualValues(t, 500, loc.row)

	count := 0
	for range w.Iter() {
		count++
	}
	assert.Equal(t, 999, count)
}

func TestWorldRemove3ThroughRemove6(t *testing.T) {
	w := NewWorld()

	e3 := w.Spawn(NewBundle3(int32(1), true, "a"))
	a3, b3, c3, err := Remove3[int32, bool, string](w, e3)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), a3)
	assert.True(t, b3)
	assert.Equal(t, "a", c3)
	assert.False(t, Has[int32](w, e3))
	assert.False(t, Has[bool](w, e3))
	assert.False(t, Has[string](w, e3))

	e6 := w.Spawn(NewBundle6(int32(1), true, "a", position{1, 2}, rotation{3}, uint8(4)))
	a6, b6, c6, d6, e6v, f6, err := Remove6[int32, bool, string, position, rotation, uint8](w, e6)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), a6)
	assert.True(t, b6)
	assert.Equal(t, "a", c6)
	assert.Equal(t, position{1, 2}, d6)
	assert.Equal(t, rotation{3}, e6v)
	assert.Equal(t, uint8(4), f6)
	assert.True(t, w.Contains(e6))
}

func TestWorldClearRejectsPreviouslyCapturedHandle(t *testing.T) {
	w := NewWorld()
	a := w.Spawn(NewBundle1(int32(1)))
	assert.EqualValues(t, 0, a.ID)

	w.Clear()
	assert.False(t, w.Contains(a))
	_, err := Get[int32](w, a)
	assert.IsType(t, NoSuchEntityError{}, err)

	b := w.Spawn(NewBundle1(int32(2)))
	assert.EqualValues(t, 0, b.ID)
	assert.NotEqual(t, a.Gen, b.Gen)
	assert.False(t, w.Contains(a))

	count := 0
	for range w.Iter() {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestResourceAddGetRemove(t *testing.T) {
	w := NewWorld()
	type clock struct{ Frame int }
	AddResource(w, &clock{Frame: 1})

	assert.True(t, HasResource[clock](w))
	assert.Equal(t, 1, GetResource[clock](w).Frame)

	assert.Panics(t, func() { AddResource(w, &clock{Frame: 2}) })

	RemoveResource[clock](w)
	assert.False(t, HasResource[clock](w))
}
