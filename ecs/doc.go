// Package ecs is a minimal archetype-based entity-component-system core.
//
// # Outline
//
//   - [World] owns every archetype and entity, with [World.Spawn],
//     [World.Despawn], [World.Insert], [RemoveOne], [Get] and [GetMut].
//   - [Entity] is a generational handle; a despawned and recycled id's old
//     handle is rejected rather than silently aliasing a new entity.
//   - [Bundle] (and the generic [Bundle1] .. [Bundle6], plus [DynamicBundle])
//     is how a heterogeneous set of component values is handed to Spawn or
//     Insert.
//   - [Archetype] is the columnar store backing one exact component-type
//     signature; [Query] composes [Fetch] terms ([Read], [Write], [Optional],
//     [With], [Without], [Tuple]) into scans over every matching archetype.
//   - [QueryCache] remembers a query's matching archetype set across calls,
//     for hot loops run every frame against a world that rarely adds new
//     archetypes.
//   - [EntityBuilder] accumulates a runtime-variable component set before
//     producing the [DynamicBundle] Spawn or Insert expect.
//
// # Sub-packages
//   - [github.com/multun/hecs/ecs/stats] reports per-archetype and
//     per-world occupancy for monitoring purposes.
//
// # Concurrency
//
// A World is not safe for concurrent mutation. Reads and writes to
// individual archetype columns are guarded by a per-column dynamic borrow
// counter (see [Archetype.Borrow] and [Archetype.BorrowMut]): two queries
// may read the same component concurrently, but a writer excludes every
// other reader or writer of that same column. Violations panic rather than
// silently racing.
package ecs
