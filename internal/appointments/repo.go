package appointments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Repository persists appointments.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	Save(ctx context.Context, appointment *models.Appointment) error
	FindPartner(ctx context.Context, partnerID int64) (*models.MovingPartner, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an appointment repository on the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.DB(ctx).First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
	}
	return &appointment, nil
}

func (r *repository) Save(ctx context.Context, appointment *models.Appointment) error {
	if err := r.DB(ctx).Save(appointment).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save appointment")
	}
	return nil
}

func (r *repository) FindPartner(ctx context.Context, partnerID int64) (*models.MovingPartner, error) {
	var partner models.MovingPartner
	err := r.DB(ctx).First(&partner, "id = ?", partnerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "moving partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load moving partner")
	}
	return &partner, nil
}
