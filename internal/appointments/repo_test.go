package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

func setupAppointmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	appointments := `
CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  plan_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'scheduled',
  scheduled_at DATETIME NOT NULL,
  unit_count INTEGER NOT NULL DEFAULT 1,
  moving_partner_id INTEGER,
  service_started_at DATETIME,
  service_ended_at DATETIME,
  customer_name TEXT NOT NULL DEFAULT '',
  customer_phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  lat REAL NOT NULL DEFAULT 0,
  lng REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	partners := `
CREATE TABLE IF NOT EXISTS moving_partners (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(appointments).Error)
	require.NoError(t, db.Exec(partners).Error)
	return db
}

func TestAppointmentRepositoryRoundTrip(t *testing.T) {
	db := setupAppointmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	appointment := &models.Appointment{
		ID:          uuid.New(),
		Type:        enums.AppointmentTypeInitialPickup,
		PlanType:    enums.PlanTypeDIY,
		Status:      enums.AppointmentStatusScheduled,
		ScheduledAt: time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC),
		UnitCount:   1,
	}
	require.NoError(t, repo.Save(ctx, appointment))

	appointment.UnitCount = 3
	appointment.PlanType = enums.PlanTypeFullService
	require.NoError(t, repo.Save(ctx, appointment))

	loaded, err := repo.FindByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.UnitCount)
	assert.Equal(t, enums.PlanTypeFullService, loaded.PlanType)
}

func TestAppointmentRepositoryNotFound(t *testing.T) {
	db := setupAppointmentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAppointmentRepositoryFindPartner(t *testing.T) {
	db := setupAppointmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Exec(
		`INSERT INTO moving_partners (id, name, active) VALUES (10, 'Harbor Movers', 1)`).Error)

	partner, err := repo.FindPartner(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Movers", partner.Name)
	assert.True(t, partner.Active)

	_, err = repo.FindPartner(ctx, 999)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
