package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type position struct{ X, Y int }
type rotation struct{ Angle int }

func TestArchetypeAllocateAndSwapRemove(t *testing.T) {
	posInfo := TypeInfoOf[position]()
	rotInfo := TypeInfoOf[rotation]()
	arch := newArchetype(0, []TypeInfo{posInfo, rotInfo})

	row0 := arch.allocate(10)
	posCol := arch.columnFor(posInfo.id)
	rotCol := arch.columnFor(rotInfo.id)
	*(*position)(posCol.at(row0)) = position{1, 2}
	*(*rotation)(rotCol.at(row0)) = rotation{3}

	row1 := arch.allocate(11)
	*(*position)(posCol.at(row1)) = position{4, 5}
	*(*rotation)(rotCol.at(row1)) = rotation{6}

	assert.EqualValues(t, 2, arch.Len())
	assert.Equal(t, uint32(10), arch.EntityAt(0))
	assert.Equal(t, uint32(11), arch.EntityAt(1))

	movedEntity, moved := arch.remove(0)
	assert.True(t, moved)
	assert.Equal(t, uint32(11), movedEntity)
	assert.EqualValues(t, 1, arch.Len())
	assert.Equal(t, uint32(11), arch.EntityAt(0))

	pos := (*position)(posCol.at(0))
	rot := (*rotation)(rotCol.at(0))
	assert.Equal(t, position{4, 5}, *pos)
	assert.Equal(t, rotation{6}, *rot)
}

func TestArchetypeRemoveLastRowNoSwap(t *testing.T) {
	info := TypeInfoOf[position]()
	arch := newArchetype(0, []TypeInfo{info})
	arch.allocate(1)

	_, moved := arch.remove(0)
	assert.False(t, moved)
	assert.EqualValues(t, 0, arch.Len())
}

func TestArchetypeReserveGrowsPowerOfTwo(t *testing.T) {
	info := TypeInfoOf[position]()
	arch := newArchetype(0, []TypeInfo{info})
	arch.reserve(1)
	assert.EqualValues(t, archetypeMinCapacity, arch.Cap())

	for i := uint32(0); i < archetypeMinCapacity; i++ {
		arch.allocate(i)
	}
	arch.reserve(1)
	assert.EqualValues(t, archetypeMinCapacity*2, arch.Cap())
}

func TestArchetypeMoveToSharedAndDroppedColumns(t *testing.T) {
	posInfo := TypeInfoOf[position]()
	rotInfo := TypeInfoOf[rotation]()
	src := newArchetype(0, []TypeInfo{posInfo, rotInfo})
	dst := newArchetype(1, []TypeInfo{posInfo})

	row := src.allocate(5)
	*(*position)(src.columnFor(posInfo.id).at(row)) = position{7, 8}
	*(*rotation)(src.columnFor(rotInfo.id).at(row)) = rotation{9}

	newRow, _, moved := src.moveTo(row, dst)
	assert.False(t, moved)
	assert.EqualValues(t, 0, newRow)
	assert.EqualValues(t, 0, src.Len())
	assert.EqualValues(t, 1, dst.Len())

	pos := (*position)(dst.columnFor(posInfo.id).at(newRow))
	assert.Equal(t, position{7, 8}, *pos)
}

func TestArchetypeBorrowXOR(t *testing.T) {
	info := TypeInfoOf[position]()
	arch := newArchetype(0, []TypeInfo{info})

	arch.Borrow(info.id)
	arch.Borrow(info.id)
	arch.Release(info.id)
	arch.Release(info.id)

	arch.BorrowMut(info.id)
	assert.Panics(t, func() { arch.Borrow(info.id) })
	arch.ReleaseMut(info.id)
}
