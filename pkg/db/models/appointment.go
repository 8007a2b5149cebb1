package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// Appointment is a scheduled pickup/dropoff visit covering one or more
// storage units.
type Appointment struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type            enums.AppointmentType   `gorm:"type:appointment_type;not null"`
	PlanType        enums.PlanType          `gorm:"type:plan_type;not null"`
	Status          enums.AppointmentStatus `gorm:"type:appointment_status;not null;default:'scheduled'"`
	ScheduledAt     time.Time               `gorm:"type:timestamptz;not null"`
	UnitCount       int                     `gorm:"not null;default:1"`
	MovingPartnerID *int64                  `gorm:""`
	// ServiceStartedAt/ServiceEndedAt are stamped once on-site work
	// begins/ends. Only meaningful for unit 1.
	ServiceStartedAt *time.Time `gorm:"type:timestamptz"`
	ServiceEndedAt   *time.Time `gorm:"type:timestamptz"`
	CustomerName     string     `gorm:"type:text;not null"`
	CustomerPhone    string     `gorm:"type:text;not null"`
	Address          string     `gorm:"type:text;not null"`
	Lat              float64    `gorm:"not null;default:0"`
	Lng              float64    `gorm:"not null;default:0"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;default:now()"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;default:now()"`
}
