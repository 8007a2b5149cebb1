package courierwebhook

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Repository is the persistence surface the storage-unit flow mutates.
type Repository interface {
	FindTaskByCourierID(ctx context.Context, courierTaskID string) (*models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error
	FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	SaveAppointment(ctx context.Context, appointment *models.Appointment) error
	// UpsertEvent records the appointment's most recent webhook trigger,
	// one row per appointment.
	UpsertEvent(ctx context.Context, event *models.WebhookEvent) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a webhook repository on the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindTaskByCourierID(ctx context.Context, courierTaskID string) (*models.Task, error) {
	var task models.Task
	err := r.DB(ctx).First(&task, "courier_task_id = ?", courierTaskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found for courier id")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	return &task, nil
}

func (r *repository) SaveTask(ctx context.Context, task *models.Task) error {
	if err := r.DB(ctx).Save(task).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save task")
	}
	return nil
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

func (r *repository) SaveAppointment(ctx context.Context, appointment *models.Appointment) error {
	if err := r.DB(ctx).Save(appointment).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save appointment")
	}
	return nil
}

func (r *repository) UpsertEvent(ctx context.Context, event *models.WebhookEvent) error {
	err := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "appointment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"courier_task_id", "trigger_name", "occurred_at", "updated_at",
			}),
		}).
		Create(event).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert webhook event")
	}
	return nil
}
