package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityBuilderAddAndBuild(t *testing.T) {
	b := NewEntityBuilder()
	Add(b, position{1, 2})
	Add(b, true)

	assert.True(t, b.Has(TypeInfoOf[position]().id))
	assert.Equal(t, 2, b.Len())

	bundle := b.Build()
	assert.Len(t, bundle.Types(), 2)
	assert.Equal(t, 0, b.Len())
}

func TestEntityBuilderSpawnsRealEntity(t *testing.T) {
	w := NewWorld()
	b := NewEntityBuilder()
	Add(b, position{3, 4})
	Add(b, rotation{5})
	e := w.Spawn(b.Build())

	r, err := Get[position](w, e)
	assert.NoError(t, err)
	assert.Equal(t, position{3, 4}, *r.Get())
	r.Release()
}

func TestEntityBuilderAddTwiceKeepsLastValue(t *testing.T) {
	b := NewEntityBuilder()
	Add(b, position{1, 1})
	Add(b, position{2, 2})
	assert.Equal(t, 1, b.Len())

	w := NewWorld()
	e := w.Spawn(b.Build())
	r, err := Get[position](w, e)
	assert.NoError(t, err)
	assert.Equal(t, position{2, 2}, *r.Get())
	r.Release()
}
