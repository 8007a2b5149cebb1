package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryRoute groups packing-supply orders for a single delivery run.
// Routes are assigned by the cron worker one driver offer at a time.
type DeliveryRoute struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DeliveryDate time.Time  `gorm:"type:date;not null"`
	DriverID     *int64     `gorm:""`
	OfferedTo    *int64     `gorm:""`
	OfferedAt    *time.Time `gorm:"type:timestamptz"`
	AcceptedAt   *time.Time `gorm:"type:timestamptz"`
	CreatedAt    time.Time  `gorm:"type:timestamptz;default:now()"`
	UpdatedAt    time.Time  `gorm:"type:timestamptz;default:now()"`
}
