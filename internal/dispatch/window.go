package dispatch

import (
	"fmt"
	"time"

	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// TimeWindow is the interval a courier task must be completed within.
type TimeWindow struct {
	CompleteAfter  time.Time
	CompleteBefore time.Time
}

// Window computes the scheduling window for one dispatch step relative to
// the appointment time. It is pure and idempotent: recomputing with the
// same appointment time always yields the same window, so it is safe to
// call on every task regeneration.
//
// The admin step carries no window because it involves no travel; asking
// for one is a caller bug.
func Window(appointmentTime time.Time, step enums.TaskStep) (TimeWindow, error) {
	switch step {
	case enums.TaskStepWarehousePickup:
		return TimeWindow{
			CompleteAfter:  appointmentTime.Add(-time.Hour),
			CompleteBefore: appointmentTime.Add(-30 * time.Minute),
		}, nil
	case enums.TaskStepCustomerService:
		return TimeWindow{
			CompleteAfter:  appointmentTime,
			CompleteBefore: appointmentTime.Add(time.Hour),
		}, nil
	case enums.TaskStepWarehouseReturn:
		return TimeWindow{
			CompleteAfter:  appointmentTime.Add(time.Hour),
			CompleteBefore: appointmentTime.Add(2 * time.Hour),
		}, nil
	default:
		return TimeWindow{}, pkgerrors.New(
			pkgerrors.CodeValidation,
			fmt.Sprintf("no time window for step %d", int(step)),
		)
	}
}
