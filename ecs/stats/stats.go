// Package stats reports world and archetype occupancy for monitoring
// purposes, without importing the ecs package itself (the ecs.World.Stats
// method builds one of these from its own internals).
package stats

import (
	"fmt"
	"strings"
)

// WorldStats summarizes a World's entity directory and archetype set.
type WorldStats struct {
	// Entity statistics.
	Entities EntityStats
	// Total number of distinct component types registered.
	ComponentCount int
	// Archetype statistics, one entry per archetype.
	Archetypes []ArchetypeStats
}

// EntityStats summarizes a World's entity directory.
type EntityStats struct {
	// Currently alive entities.
	Used int
	// Total ids ever allocated (used + recycled).
	Capacity int
	// Freed ids available for recycling.
	Recycled int
}

// ArchetypeStats summarizes one archetype.
type ArchetypeStats struct {
	// Live row count.
	Size int
	// Current row capacity.
	Capacity int
	// Component type names carried by this archetype.
	ComponentNames []string
}

func (s *WorldStats) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "World -- Components: %d, Archetypes: %d\n", s.ComponentCount, len(s.Archetypes))
	fmt.Fprint(&b, s.Entities.String())
	for _, arch := range s.Archetypes {
		fmt.Fprint(&b, arch.String())
	}
	return b.String()
}

func (s *EntityStats) String() string {
	return fmt.Sprintf("Entities -- Used: %d, Recycled: %d, Capacity: %d\n", s.Used, s.Recycled, s.Capacity)
}

func (s *ArchetypeStats) String() string {
	return fmt.Sprintf(
		"Archetype -- Entities: %d, Capacity: %d\n  Components: %s\n",
		s.Size, s.Capacity, strings.Join(s.ComponentNames, ", "),
	)
}
