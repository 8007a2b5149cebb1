package enums

import "fmt"

// TaskStep identifies one of the four dispatch tasks a storage unit requires.
type TaskStep int

const (
	TaskStepWarehousePickup TaskStep = 1
	TaskStepCustomerService TaskStep = 2
	TaskStepWarehouseReturn TaskStep = 3
	TaskStepAdmin           TaskStep = 4
)

var validTaskSteps = []TaskStep{
	TaskStepWarehousePickup,
	TaskStepCustomerService,
	TaskStepWarehouseReturn,
	TaskStepAdmin,
}

// IsValid checks whether the given step is one of the four dispatch steps.
func (s TaskStep) IsValid() bool {
	for _, candidate := range validTaskSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// HasTravelWindow reports whether the step involves physical travel and
// therefore carries a delivery-provider time window. The admin step does not.
func (s TaskStep) HasTravelWindow() bool {
	switch s {
	case TaskStepWarehousePickup, TaskStepCustomerService, TaskStepWarehouseReturn:
		return true
	default:
		return false
	}
}

// ParseTaskStep converts raw step numbers into TaskStep.
func ParseTaskStep(value int) (TaskStep, error) {
	step := TaskStep(value)
	if !step.IsValid() {
		return 0, fmt.Errorf("invalid task step %d", value)
	}
	return step, nil
}

func (s TaskStep) String() string {
	switch s {
	case TaskStepWarehousePickup:
		return "warehouse_pickup"
	case TaskStepCustomerService:
		return "customer_service"
	case TaskStepWarehouseReturn:
		return "warehouse_return"
	case TaskStepAdmin:
		return "admin"
	default:
		return fmt.Sprintf("task_step(%d)", int(s))
	}
}
