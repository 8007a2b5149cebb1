package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// Notification logs a message handed to the dispatcher. Delivery is
// fire-and-forget; the status here records the handoff outcome only.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Template  enums.NotificationTemplate `gorm:"type:text;not null"`
	Recipient string                     `gorm:"type:text;not null"`
	Variables string                     `gorm:"type:jsonb;not null;default:'{}'"`
	Sent      bool                       `gorm:"not null;default:false"`
	FailedMsg *string                    `gorm:"type:text"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;default:now()"`
}
