package availability

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

type repository struct {
	repo.Base
}

// NewCommitmentRepository builds a CommitmentSource over the tasks table.
func NewCommitmentRepository(db *gorm.DB) CommitmentSource {
	return &repository{Base: repo.NewBase(db)}
}

// OpenCommitmentTimes returns the distinct appointment times of the
// driver's open tasks. Cancelled and completed tasks hold no commitment.
func (r *repository) OpenCommitmentTimes(ctx context.Context, driverID int64) ([]time.Time, error) {
	var times []time.Time
	err := r.DB(ctx).
		Table("tasks").
		Distinct("appointments.scheduled_at").
		Joins("JOIN appointments ON appointments.id = tasks.appointment_id").
		Where("tasks.driver_id = ? AND NOT tasks.cancelled AND tasks.state <> ?",
			driverID, enums.TaskStateCompleted).
		Order("appointments.scheduled_at").
		Pluck("appointments.scheduled_at", &times).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver commitments")
	}
	return times, nil
}
