package reassignment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// TaskRepository is the persistence surface Reconcile mutates through.
// Transaction yields a repository bound to a single transaction so a plan
// is applied atomically.
type TaskRepository interface {
	Transaction(ctx context.Context, fn func(TaskRepository) error) error
	// ListActiveByAppointment returns every non-cancelled task row,
	// completed ones included, so reconciliation can tell a finished step
	// apart from a missing one.
	ListActiveByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Save(ctx context.Context, task *models.Task) error
}

type taskRepository struct {
	repo.Base
}

// NewTaskRepository builds a task repository on the provided GORM connection.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{Base: repo.NewBase(db)}
}

func (r *taskRepository) Transaction(ctx context.Context, fn func(TaskRepository) error) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&taskRepository{Base: repo.NewBase(tx)})
	})
}

func (r *taskRepository) ListActiveByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.DB(ctx).
		Where("appointment_id = ? AND NOT cancelled", appointmentID).
		Order("unit_number, step").
		Find(&tasks).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointment tasks")
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.DB(ctx).Create(task).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
	}
	return nil
}

func (r *taskRepository) Save(ctx context.Context, task *models.Task) error {
	if err := r.DB(ctx).Save(task).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save task")
	}
	return nil
}
