package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryAllocFree(t *testing.T) {
	d := newDirectory()

	a := d.alloc()
	b := d.alloc()
	assert.Equal(t, Entity{ID: 0, Gen: 0}, a)
	assert.Equal(t, Entity{ID: 1, Gen: 0}, b)
	assert.True(t, d.contains(a))
	assert.True(t, d.contains(b))

	assert.NoError(t, d.free(a))
	assert.False(t, d.contains(a))

	c := d.alloc()
	assert.Equal(t, Entity{ID: 0, Gen: 1}, c)
	assert.True(t, d.contains(c))
	assert.False(t, d.contains(a))
}

func TestDirectoryStaleHandleRejected(t *testing.T) {
	d := newDirectory()
	a := d.alloc()
	assert.NoError(t, d.free(a))
	d.alloc()

	_, err := d.get(a)
	assert.Error(t, err)
	assert.IsType(t, NoSuchEntityError{}, err)
}

func TestDirectorySetByIDBypassesGeneration(t *testing.T) {
	d := newDirectory()
	a := d.alloc()
	d.setByID(a.ID, location{archetype: 3, row: 7})
	loc, err := d.get(a)
	assert.NoError(t, err)
	assert.Equal(t, location{archetype: 3, row: 7}, loc)
}
