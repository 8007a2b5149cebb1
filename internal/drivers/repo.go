package drivers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Repository loads drivers and their moving-partner affiliations.
type Repository interface {
	FindByID(ctx context.Context, driverID int64) (*models.Driver, error)
	// ActivePartnerID returns the moving partner the driver is actively
	// rostered with, or nil when no active join record exists.
	ActivePartnerID(ctx context.Context, driverID int64) (*int64, error)
	ListActivePartnerDrivers(ctx context.Context, partnerID int64) ([]models.Driver, error)
	ListActiveFleetDrivers(ctx context.Context, fleetTeamID int64) ([]models.Driver, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a driver repository on the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindByID(ctx context.Context, driverID int64) (*models.Driver, error) {
	var driver models.Driver
	err := r.DB(ctx).First(&driver, "id = ?", driverID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	return &driver, nil
}

func (r *repository) ActivePartnerID(ctx context.Context, driverID int64) (*int64, error) {
	var join models.MovingPartnerDriver
	err := r.DB(ctx).
		Where("driver_id = ? AND active", driverID).
		Order("id").
		First(&join).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner join")
	}
	return &join.MovingPartnerID, nil
}

func (r *repository) ListActivePartnerDrivers(ctx context.Context, partnerID int64) ([]models.Driver, error) {
	var rows []models.Driver
	err := r.DB(ctx).
		Joins("JOIN moving_partner_drivers mpd ON mpd.driver_id = drivers.id").
		Where("mpd.moving_partner_id = ? AND mpd.active AND drivers.active", partnerID).
		Order("drivers.id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list partner drivers")
	}
	return rows, nil
}

func (r *repository) ListActiveFleetDrivers(ctx context.Context, fleetTeamID int64) ([]models.Driver, error) {
	var rows []models.Driver
	err := r.DB(ctx).
		Where("active AND ? = ANY(team_ids)", fleetTeamID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fleet drivers")
	}
	return rows, nil
}
