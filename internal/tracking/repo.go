package tracking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Repository exposes the reads a tracking view needs.
type Repository interface {
	FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	// ListUnitTasks returns the unit's effective (non-cancelled) tasks
	// ordered by step.
	ListUnitTasks(ctx context.Context, appointmentID uuid.UUID, unit int) ([]models.Task, error)
	// LatestEvent returns the appointment's persisted last webhook event,
	// or nil when none has been recorded.
	LatestEvent(ctx context.Context, appointmentID uuid.UUID) (*models.WebhookEvent, error)
	PartnerName(ctx context.Context, partnerID int64) (string, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a tracking repository on the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
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

func (r *repository) ListUnitTasks(ctx context.Context, appointmentID uuid.UUID, unit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.DB(ctx).
		Where("appointment_id = ? AND unit_number = ? AND NOT cancelled", appointmentID, unit).
		Order("step").
		Find(&tasks).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit tasks")
	}
	return tasks, nil
}

func (r *repository) LatestEvent(ctx context.Context, appointmentID uuid.UUID) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.DB(ctx).First(&event, "appointment_id = ?", appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load webhook event")
	}
	return &event, nil
}

func (r *repository) PartnerName(ctx context.Context, partnerID int64) (string, error) {
	var partner models.MovingPartner
	err := r.DB(ctx).First(&partner, "id = ?", partnerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "moving partner not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load moving partner")
	}
	return partner.Name, nil
}
