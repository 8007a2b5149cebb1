package enums

import "fmt"

// TaskState mirrors the delivery provider's lifecycle ordinal for a task.
// The provider skips ordinal 1, so the gap is deliberate.
type TaskState int

const (
	TaskStateUnassigned TaskState = 0
	TaskStateActive     TaskState = 2
	TaskStateCompleted  TaskState = 3
)

var validTaskStates = []TaskState{
	TaskStateUnassigned,
	TaskStateActive,
	TaskStateCompleted,
}

// IsValid checks whether the given state matches a known lifecycle ordinal.
func (s TaskState) IsValid() bool {
	for _, candidate := range validTaskStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the task has finished its lifecycle.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted
}

// ParseTaskState converts raw provider ordinals into TaskState.
func ParseTaskState(value int) (TaskState, error) {
	state := TaskState(value)
	if !state.IsValid() {
		return 0, fmt.Errorf("invalid task state %d", value)
	}
	return state, nil
}
