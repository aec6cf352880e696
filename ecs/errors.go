package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// NoSuchEntityError is returned whenever an operation is given a stale or
// unknown entity handle: its generation no longer matches the one recorded
// in the directory, or its id was never allocated.
type NoSuchEntityError struct {
	Entity Entity
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("ecs: no such entity: %v", e.Entity)
}

// MissingComponentError is returned when a get/remove names a component type
// the entity's archetype does not carry.
type MissingComponentError struct {
	Entity Entity
	Type   string
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("ecs: entity %v has no component %s", e.Entity, e.Type)
}

// traced wraps a programmer-error message with a stack trace before it is
// handed to panic, the way the teacher's codebase does for unrecoverable
// faults (aliasing violations, double-iteration, corrupt bundles).
func traced(msg string) error {
	return bark.AddTrace(fmt.Errorf("%s", msg))
}
