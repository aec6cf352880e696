package ecs

// QueryCache remembers which archetypes a Fetch matched, so a query run
// repeatedly against a world whose archetype set rarely changes (the common
// case once a program warms up) skips re-testing every archetype each time.
// Grounded on the generation-counted invalidation the broader example pack
// uses for its own per-frame query caches: rather than comparing archetype
// counts, this compares against World.ArchetypesGeneration, which only
// advances when a genuinely new archetype is created (not on every spawn).
type QueryCache struct {
	fetch      Fetch
	generation uint64
	matched    []*Archetype
	valid      bool
}

// NewQueryCache returns an empty cache for fetch. It performs no work until
// the first call to Query.
func NewQueryCache(fetch Fetch) *QueryCache {
	return &QueryCache{fetch: fetch}
}

// refresh re-tests every archetype in w if the world's archetype set has
// grown since the cache was last built.
func (c *QueryCache) refresh(w *World) {
	gen := w.ArchetypesGeneration()
	if c.valid && gen == c.generation {
		return
	}
	c.matched = c.matched[:0]
	for _, a := range w.Archetypes() {
		if c.fetch.access(a).ok {
			c.matched = append(c.matched, a)
		}
	}
	c.generation = gen
	c.valid = true
}

// Query runs the cached fetch against w, refreshing the matched archetype
// list first if w has grown new archetypes since the last call.
func (c *QueryCache) Query(w *World) *QueryBorrow {
	c.refresh(w)
	return &QueryBorrow{archetypes: append([]*Archetype(nil), c.matched...), fetch: c.fetch}
}

// Invalidate forces the next Query call to re-test every archetype, even if
// the generation counter hasn't advanced. Not needed in ordinary use; exists
// for callers that mutate archetypes through means the generation counter
// doesn't track (there currently are none, since archetype creation is the
// only thing the core ever invalidates a cache over).
func (c *QueryCache) Invalidate() { c.valid = false }
