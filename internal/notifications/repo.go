package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Repository persists the notification log.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a notification repository on the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.DB(ctx).Create(notification).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "log notification")
	}
	return nil
}
