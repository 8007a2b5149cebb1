package enums

import "fmt"

// TriggerName is the closed set of delivery-provider webhook triggers.
type TriggerName string

const (
	TriggerTaskStarted   TriggerName = "taskStarted"
	TriggerTaskArrival   TriggerName = "taskArrival"
	TriggerTaskCompleted TriggerName = "taskCompleted"
	TriggerTaskFailed    TriggerName = "taskFailed"
)

var validTriggerNames = []TriggerName{
	TriggerTaskStarted,
	TriggerTaskArrival,
	TriggerTaskCompleted,
	TriggerTaskFailed,
}

// IsValid checks whether the given trigger matches the canonical enum.
func (t TriggerName) IsValid() bool {
	for _, candidate := range validTriggerNames {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTriggerName converts raw strings into TriggerName. Unknown triggers
// are rejected so new provider events surface loudly instead of falling
// through a default branch.
func ParseTriggerName(value string) (TriggerName, error) {
	for _, candidate := range validTriggerNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger name %q", value)
}
