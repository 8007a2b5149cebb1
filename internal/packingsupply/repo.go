package packingsupply

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborbox/dispatch-backend/internal/repo"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// Repository persists packing-supply orders and their delivery routes.
type Repository interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PackingSupplyOrder, error)
	SaveOrder(ctx context.Context, order *models.PackingSupplyOrder) error
	// ListUnroutedForDate returns pending orders without a route for the
	// delivery date, oldest first.
	ListUnroutedForDate(ctx context.Context, date time.Time) ([]models.PackingSupplyOrder, error)

	CreateRoute(ctx context.Context, route *models.DeliveryRoute) error
	SaveRoute(ctx context.Context, route *models.DeliveryRoute) error
	// ListUnassignedRoutes returns routes for the date with no accepted
	// driver, oldest first.
	ListUnassignedRoutes(ctx context.Context, date time.Time) ([]models.DeliveryRoute, error)
	AttachOrdersToRoute(ctx context.Context, routeID uuid.UUID, orderIDs []uuid.UUID) error

	FindDriver(ctx context.Context, driverID int64) (*models.Driver, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a packing-supply repository on the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.PackingSupplyOrder, error) {
	var order models.PackingSupplyOrder
	err := r.DB(ctx).First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "packing supply order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load packing supply order")
	}
	return &order, nil
}

func (r *repository) SaveOrder(ctx context.Context, order *models.PackingSupplyOrder) error {
	if err := r.DB(ctx).Save(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save packing supply order")
	}
	return nil
}

func (r *repository) ListUnroutedForDate(ctx context.Context, date time.Time) ([]models.PackingSupplyOrder, error) {
	var orders []models.PackingSupplyOrder
	err := r.DB(ctx).
		Where("route_id IS NULL AND status = ? AND created_at::date <= ?::date",
			enums.OrderStatusPending, date).
		Order("created_at").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unrouted orders")
	}
	return orders, nil
}

func (r *repository) CreateRoute(ctx context.Context, route *models.DeliveryRoute) error {
	if err := r.DB(ctx).Create(route).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery route")
	}
	return nil
}

func (r *repository) SaveRoute(ctx context.Context, route *models.DeliveryRoute) error {
	if err := r.DB(ctx).Save(route).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery route")
	}
	return nil
}

func (r *repository) ListUnassignedRoutes(ctx context.Context, date time.Time) ([]models.DeliveryRoute, error) {
	var routes []models.DeliveryRoute
	err := r.DB(ctx).
		Where("delivery_date = ?::date AND accepted_at IS NULL", date).
		Order("created_at").
		Find(&routes).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned routes")
	}
	return routes, nil
}

func (r *repository) AttachOrdersToRoute(ctx context.Context, routeID uuid.UUID, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	err := r.DB(ctx).
		Model(&models.PackingSupplyOrder{}).
		Where("id IN ?", orderIDs).
		Update("route_id", routeID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach orders to route")
	}
	return nil
}

func (r *repository) FindDriver(ctx context.Context, driverID int64) (*models.Driver, error) {
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
