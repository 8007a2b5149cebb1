package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// Task is one dispatch step for one storage unit of an appointment.
// At most one non-cancelled, non-completed task exists per
// (appointment, unit, step); superseded tasks are cancelled, never deleted.
type Task struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	UnitNumber    int       `gorm:"not null"`
	Step          enums.TaskStep  `gorm:"not null"`
	State         enums.TaskState `gorm:"not null;default:0"`
	Cancelled     bool            `gorm:"not null;default:false"`
	DriverID      *int64          `gorm:""`

	// Courier-side identifiers for the mirrored delivery-provider task.
	CourierTaskID      string `gorm:"type:text"`
	CourierTaskShortID string `gorm:"type:text"`

	CompleteAfter  *time.Time `gorm:"type:timestamptz"`
	CompleteBefore *time.Time `gorm:"type:timestamptz"`
	CompletedAt    *time.Time `gorm:"type:timestamptz"`

	CompletionPhotoURL *string `gorm:"type:text"`

	DestinationAddress string  `gorm:"type:text;not null"`
	DestinationLat     float64 `gorm:"not null"`
	DestinationLng     float64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}

// Open reports whether the task still counts against scheduling conflicts.
func (t Task) Open() bool {
	return !t.Cancelled && t.State != enums.TaskStateCompleted
}
