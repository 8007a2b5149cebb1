package models

import (
	"time"

	dbtypes "github.com/harborbox/dispatch-backend/pkg/db/types"
)

// Driver is a person who can be assigned dispatch tasks. Driver ids are
// int64 because they originate in the legacy fleet system.
type Driver struct {
	ID        int64             `gorm:"primaryKey"`
	Name      string            `gorm:"type:text;not null"`
	Phone     string            `gorm:"type:text;not null"`
	Email     string            `gorm:"type:text"`
	TeamIDs   dbtypes.Int64Array `gorm:"type:bigint[];not null;default:'{}'"`
	Active    bool              `gorm:"not null;default:true"`
	// StripeAccountID is the connected account payouts transfer to.
	StripeAccountID *string `gorm:"type:text"`
	CreatedAt time.Time         `gorm:"type:timestamptz;default:now()"`
	UpdatedAt time.Time         `gorm:"type:timestamptz;default:now()"`
}
