package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// PackingSupplyOrder is a standalone packing-supply delivery tracked
// against a single courier task.
type PackingSupplyOrder struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CourierTaskID string            `gorm:"type:text;not null;uniqueIndex"`
	RouteID       *uuid.UUID        `gorm:"type:uuid;index"`
	Status        enums.OrderStatus `gorm:"type:packing_supply_order_status;not null;default:'pending'"`
	DriverID      *int64            `gorm:""`

	DeliveryAddress  string  `gorm:"type:text;not null"`
	DeliveryPhotoURL *string `gorm:"type:text"`
	CustomerName     string  `gorm:"type:text;not null"`
	CustomerPhone    string  `gorm:"type:text;not null"`

	PayoutStatus enums.PayoutStatus `gorm:"type:payout_status;not null;default:'pending'"`
	PayoutAmount decimal.Decimal    `gorm:"type:numeric(10,2);not null;default:0"`
	PayoutRef    *string            `gorm:"type:text"`

	DeliveredAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;default:now()"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;default:now()"`
}
