package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryCacheMatchesNewArchetypeAfterSpawn(t *testing.T) {
	w := NewWorld()
	w.Spawn(NewBundle1(1))

	cache := NewQueryCache(Read[int]())
	assert.Equal(t, 1, cache.Query(w).Count())

	w.Spawn(NewBundle2(2, true))
	assert.Equal(t, 2, cache.Query(w).Count())
}

func TestQueryCacheReusesResultWithoutNewArchetype(t *testing.T) {
	w := NewWorld()
	w.Spawn(NewBundle1(1))
	w.Spawn(NewBundle1(2))

	cache := NewQueryCache(Read[int]())
	first := cache.Query(w)
	assert.Equal(t, 2, first.Count())

	w.Spawn(NewBundle1(3))
	second := cache.Query(w)
	assert.Equal(t, 3, second.Count())
}

func TestQueryCacheInvalidateForcesRefresh(t *testing.T) {
	w := NewWorld()
	w.Spawn(NewBundle1(1))

	cache := NewQueryCache(Read[int]())
	cache.Query(w)
	cache.Invalidate()
	assert.Equal(t, 1, cache.Query(w).Count())
}
