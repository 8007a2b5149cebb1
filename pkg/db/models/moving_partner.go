package models

import "time"

// MovingPartner is a third-party moving company whose drivers can serve
// full-service appointments.
type MovingPartner struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}

// MovingPartnerDriver links a driver to a moving partner's roster.
type MovingPartnerDriver struct {
	ID              int64     `gorm:"primaryKey"`
	MovingPartnerID int64     `gorm:"not null;index"`
	DriverID        int64     `gorm:"not null;index"`
	Active          bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"type:timestamptz;default:now()"`
}

// MovingPartnerAvailability is a recurring weekly window during which a
// partner accepts appointments.
type MovingPartnerAvailability struct {
	ID              int64     `gorm:"primaryKey"`
	MovingPartnerID int64     `gorm:"not null;index"`
	Weekday         int       `gorm:"not null"` // 0 = Sunday
	StartMinute     int       `gorm:"not null"` // minutes after midnight
	EndMinute       int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"type:timestamptz;default:now()"`
}
