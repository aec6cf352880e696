package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorldStatsStringIncludesArchetypes(t *testing.T) {
	s := WorldStats{
		Entities:       EntityStats{Used: 2, Capacity: 3, Recycled: 1},
		ComponentCount: 2,
		Archetypes: []ArchetypeStats{
			{Size: 2, Capacity: 8, ComponentNames: []string{"ecs.position"}},
		},
	}
	out := s.String()
	assert.Contains(t, out, "Components: 2")
	assert.Contains(t, out, "Archetypes: 1")
	assert.Contains(t, out, "ecs.position")
}
