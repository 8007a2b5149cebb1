package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// WebhookEvent records the most recent courier trigger seen for an
// appointment. Tracking reads it instead of trusting event state carried
// in the client's token.
type WebhookEvent struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AppointmentID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex"`
	CourierTaskID string            `gorm:"type:text;not null"`
	TriggerName   enums.TriggerName `gorm:"type:text;not null"`
	OccurredAt    time.Time         `gorm:"type:timestamptz;not null"`
	CreatedAt     time.Time         `gorm:"type:timestamptz;default:now()"`
	UpdatedAt     time.Time         `gorm:"type:timestamptz;default:now()"`
}
