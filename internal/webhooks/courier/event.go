package courierwebhook

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Event is the delivery provider's webhook payload.
type Event struct {
	TaskID      string    `json:"taskId"`
	Time        int64     `json:"time"` // unix milliseconds
	TriggerName string    `json:"triggerName"`
	Data        EventData `json:"data"`
}

// EventData nests the task snapshot the provider sends alongside the event.
type EventData struct {
	Task   EventTask `json:"task"`
	Worker string    `json:"worker,omitempty"`
}

// EventTask carries the provider-side task details.
type EventTask struct {
	ShortID          string          `json:"shortId"`
	Metadata         []MetadataEntry `json:"metadata"`
	Worker           string          `json:"worker,omitempty"`
	CompletionPhotos []string        `json:"completionPhotos,omitempty"`
}

// MetadataEntry matches the provider's name/type/value metadata tuples.
type MetadataEntry struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Value      string `json:"value"`
	Visibility string `json:"visibility,omitempty"`
}

// OccurredAt converts the provider's millisecond timestamp.
func (e *Event) OccurredAt() time.Time {
	return time.UnixMilli(e.Time).UTC()
}

// Metadata returns the named metadata value, or "" when absent.
func (e *Event) Metadata(name string) string {
	for _, entry := range e.Data.Task.Metadata {
		if entry.Name == name {
			return entry.Value
		}
	}
	return ""
}

// JobType classifies the event by its job_type metadata. Absent or
// unrecognized values fall into the storage-unit flow.
func (e *Event) JobType() enums.CourierJobType {
	return enums.ParseCourierJobType(e.Metadata("job_type"))
}

// Trigger parses the event's trigger name. Unknown triggers are a
// validation error, not a silent fall-through.
func (e *Event) Trigger() (enums.TriggerName, error) {
	trigger, err := enums.ParseTriggerName(e.TriggerName)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown webhook trigger")
	}
	return trigger, nil
}

// Step parses the step metadata for storage-unit events.
func (e *Event) Step() (enums.TaskStep, error) {
	raw := e.Metadata("step")
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "step metadata missing")
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed step metadata")
	}
	step, err := enums.ParseTaskStep(value)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid step metadata")
	}
	return step, nil
}

// OrderID parses the order metadata for packing-supply events.
func (e *Event) OrderID() (uuid.UUID, error) {
	raw := e.Metadata("order_id")
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id metadata missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed order_id metadata")
	}
	return id, nil
}

// AppointmentID parses the appointment metadata for storage-unit events.
func (e *Event) AppointmentID() (uuid.UUID, error) {
	raw := e.Metadata("appointment_id")
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment_id metadata missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed appointment_id metadata")
	}
	return id, nil
}

// CompletionPhoto returns the first completion photo URL, if any.
func (e *Event) CompletionPhoto() *string {
	if len(e.Data.Task.CompletionPhotos) == 0 {
		return nil
	}
	photo := e.Data.Task.CompletionPhotos[0]
	if photo == "" {
		return nil
	}
	return &photo
}
