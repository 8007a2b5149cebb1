package tracking

import (
	"time"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// StepStatusValue is the customer-visible state of one tracking step.
type StepStatusValue string

const (
	StepPending   StepStatusValue = "pending"
	StepInTransit StepStatusValue = "in_transit"
	StepComplete  StepStatusValue = "complete"
)

// Action is an interactive element attached to a step, currently only the
// on-site elapsed timer.
type Action struct {
	Kind      string     `json:"kind"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

const actionServiceTimer = "service_timer"

// StepStatus is one row of the customer tracking view.
type StepStatus struct {
	Title     string          `json:"title"`
	Status    StepStatusValue `json:"status"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Action    *Action         `json:"action,omitempty"`
}

// TaskSnapshot is the slice of a task the state machine reads.
type TaskSnapshot struct {
	State       enums.TaskState
	CompletedAt *time.Time
}

// TriggerEvent is a decoded webhook trigger with its wall-clock time.
type TriggerEvent struct {
	Name enums.TriggerName
	Time time.Time
}

// UnitInput is everything needed to derive one unit's tracking steps: the
// unit's four task records, the appointment's on-site service timestamps
// (meaningful for unit 1 only), and the latest webhook trigger known to
// the client (from its token) and to the server (the persisted event row).
type UnitInput struct {
	UnitNumber      int
	AppointmentType enums.AppointmentType
	Actor           string

	Pickup   TaskSnapshot
	Customer TaskSnapshot
	Dropoff  TaskSnapshot
	Admin    TaskSnapshot

	ServiceStartedAt *time.Time
	ServiceEndedAt   *time.Time

	ClientEvent *TriggerEvent
	ServerEvent *TriggerEvent
}

func statusFromTask(task TaskSnapshot) (StepStatusValue, *time.Time) {
	switch task.State {
	case enums.TaskStateActive:
		return StepInTransit, nil
	case enums.TaskStateCompleted:
		return StepComplete, task.CompletedAt
	default:
		return StepPending, nil
	}
}

// arrivalEvent returns the arrival trigger if either the client-supplied
// or server-persisted latest event is taskArrival. An arrival event is
// authoritative over polled task state, whichever side saw it.
func arrivalEvent(client, server *TriggerEvent) *TriggerEvent {
	if server != nil && server.Name == enums.TriggerTaskArrival {
		return server
	}
	if client != nil && client.Name == enums.TriggerTaskArrival {
		return client
	}
	return nil
}

// UnitProgress derives the ordered tracking steps for one unit. It is a
// pure function over its input and safe to call concurrently.
func UnitProgress(in UnitInput) []StepStatus {
	primary := in.UnitNumber == 1
	titles := stepTitles(in.AppointmentType, primary, in.Actor)
	arrival := arrivalEvent(in.ClientEvent, in.ServerEvent)

	steps := make([]StepStatus, 0, 5)

	// Pickup from the warehouse: purely the pickup task's own state.
	pickupStatus, pickupAt := statusFromTask(in.Pickup)
	steps = append(steps, StepStatus{Title: titles[0], Status: pickupStatus, Timestamp: pickupAt})

	// On the way: an arrival trigger forces completion even while the
	// customer task still polls as active.
	onTheWay := StepStatus{Title: titles[1]}
	if arrival != nil {
		arrivedAt := arrival.Time
		onTheWay.Status = StepComplete
		onTheWay.Timestamp = &arrivedAt
	} else {
		onTheWay.Status, onTheWay.Timestamp = statusFromTask(in.Customer)
	}
	steps = append(steps, onTheWay)

	// Arrived / on-site service window.
	arrived := StepStatus{Title: titles[2], Status: StepPending}
	switch {
	case in.Customer.State == enums.TaskStateCompleted:
		arrived.Status = StepComplete
	case arrival != nil && in.ServiceEndedAt == nil:
		arrived.Status = StepInTransit
	}
	// Only unit 1 carries the on-site timer: multi-unit appointments do
	// not track per-unit service duration.
	if primary && in.ServiceStartedAt != nil {
		startedAt := *in.ServiceStartedAt
		arrived.Timestamp = &startedAt
		arrived.Action = &Action{
			Kind:      actionServiceTimer,
			StartedAt: startedAt,
			EndedAt:   in.ServiceEndedAt,
		}
	}
	steps = append(steps, arrived)

	// Completion: the return leg, bridging customer-done to dropoff-done.
	completion := StepStatus{Title: titles[3], Status: StepPending}
	switch {
	case in.Dropoff.State == enums.TaskStateCompleted:
		completion.Status = StepComplete
		completion.Timestamp = in.Dropoff.CompletedAt
	case in.Customer.State == enums.TaskStateCompleted:
		completion.Status = StepInTransit
	}
	steps = append(steps, completion)

	// End-of-term secondary units stop at the return leg.
	if in.AppointmentType == enums.AppointmentTypeEndStorageTerm && !primary {
		return steps
	}

	dropoffStatus, dropoffAt := statusFromTask(in.Dropoff)
	steps = append(steps, StepStatus{Title: titles[4], Status: dropoffStatus, Timestamp: dropoffAt})

	return steps
}
