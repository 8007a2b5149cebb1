package packingsupply

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/internal/notifications"
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// Notifier is the slice of the notification service this package uses.
type Notifier interface {
	Notify(ctx context.Context, template enums.NotificationTemplate, recipient string, variables map[string]string)
}

var _ Notifier = (*notifications.Service)(nil)

// Service owns packing-supply order transitions, driver payouts, and the
// batch route/offer flow.
type Service struct {
	repo      Repository
	notifier  Notifier
	transfers TransferClient
	log       *logger.Logger
	messaging config.MessagingConfig
	batch     config.BatchConfig
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo      Repository
	Notifier  Notifier
	Transfers TransferClient
	Log       *logger.Logger
	Messaging config.MessagingConfig
	Batch     config.BatchConfig
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("packingsupply: service requires a repository")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("packingsupply: service requires a notifier")
	}
	if p.Transfers == nil {
		return nil, fmt.Errorf("packingsupply: service requires a transfer client")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("packingsupply: service requires a logger")
	}
	return &Service{
		repo:      p.Repo,
		notifier:  p.Notifier,
		transfers: p.Transfers,
		log:       p.Log,
		messaging: p.Messaging,
		batch:     p.Batch,
	}, nil
}

func (s *Service) orderVariables(order *models.PackingSupplyOrder) map[string]string {
	return map[string]string{
		"customer_name":    order.CustomerName,
		"delivery_address": order.DeliveryAddress,
	}
}

// HandleStarted marks the order in transit and tells the customer.
func (s *Service) HandleStarted(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	order.Status = enums.OrderStatusInTransit
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return err
	}
	s.notifier.Notify(ctx, enums.TemplatePackingSupplyStarted, order.CustomerPhone, s.orderVariables(order))
	return nil
}

// HandleArrival tells the customer the driver is outside. No status
// transition: arrival is a moment, not a state.
func (s *Service) HandleArrival(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, enums.TemplatePackingSupplyArrival, order.CustomerPhone, s.orderVariables(order))
	return nil
}

// HandleCompleted marks the order delivered, notifies the customer, and
// kicks off the driver payout. A payout failure never fails the webhook:
// it is logged and escalated to the operator instead.
func (s *Service) HandleCompleted(ctx context.Context, orderID uuid.UUID, photoURL *string, completedAt time.Time) error {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	order.Status = enums.OrderStatusDelivered
	order.DeliveredAt = &completedAt
	if photoURL != nil && *photoURL != "" {
		order.DeliveryPhotoURL = photoURL
	}
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return err
	}
	s.notifier.Notify(ctx, enums.TemplatePackingSupplyDelivered, order.CustomerPhone, s.orderVariables(order))

	if err := s.processPayout(ctx, order); err != nil {
		s.log.Error(ctx, fmt.Sprintf("payout for order %s failed", order.ID), err)
		s.notifier.Notify(ctx, enums.TemplateOperatorPayoutFailed, s.messaging.OperatorPhone, map[string]string{
			"order_id": order.ID.String(),
			"error":    err.Error(),
		})
	}
	return nil
}

// HandleFailed marks the order failed and tells the customer.
func (s *Service) HandleFailed(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	order.Status = enums.OrderStatusFailed
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return err
	}
	s.notifier.Notify(ctx, enums.TemplatePackingSupplyFailed, order.CustomerPhone, s.orderVariables(order))
	return nil
}

// AssignRoutes groups the date's unrouted pending orders into a single
// delivery route. Orders are processed strictly sequentially; a run that
// finds nothing is a no-op, not an error.
func (s *Service) AssignRoutes(ctx context.Context, date time.Time) (int, error) {
	orders, err := s.repo.ListUnroutedForDate(ctx, date)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	if s.batch.DryRun {
		s.log.Info(ctx, fmt.Sprintf("dry run: would route %d orders for %s",
			len(orders), date.Format("2006-01-02")))
		return 0, nil
	}

	route := &models.DeliveryRoute{DeliveryDate: date}
	if err := s.repo.CreateRoute(ctx, route); err != nil {
		return 0, err
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.ID)
	}
	if err := s.repo.AttachOrdersToRoute(ctx, route.ID, orderIDs); err != nil {
		return 0, err
	}
	s.log.Info(ctx, fmt.Sprintf("routed %d orders onto route %s", len(orders), route.ID))
	return len(orders), nil
}

// OfferRoutes walks the date's unassigned routes and sends each one a
// single driver offer, one route at a time. A route whose previous offer
// is still pending is skipped; there is no retry within a run, the next
// cron pass picks it up.
func (s *Service) OfferRoutes(ctx context.Context, date time.Time, candidates []models.Driver) (int, error) {
	routes, err := s.repo.ListUnassignedRoutes(ctx, date)
	if err != nil {
		return 0, err
	}

	offered := 0
	for i := range routes {
		route := &routes[i]
		if route.OfferedTo != nil && route.AcceptedAt == nil {
			continue // offer in flight
		}

		driver := nextCandidate(candidates, route.OfferedTo)
		if driver == nil {
			s.log.Warn(ctx, fmt.Sprintf("no remaining candidates for route %s", route.ID))
			continue
		}

		if s.batch.DryRun {
			s.log.Info(ctx, fmt.Sprintf("dry run: would offer route %s to driver %d", route.ID, driver.ID))
			continue
		}

		now := time.Now().UTC()
		route.OfferedTo = &driver.ID
		route.OfferedAt = &now
		if err := s.repo.SaveRoute(ctx, route); err != nil {
			return offered, err
		}
		s.notifier.Notify(ctx, enums.TemplateDriverOffer, driver.Phone, map[string]string{
			"route_id":      route.ID.String(),
			"delivery_date": route.DeliveryDate.Format("2006-01-02"),
		})
		offered++
	}
	return offered, nil
}

// nextCandidate picks the first candidate after the previously offered
// driver, wrapping into plain first-fit when the route was never offered.
func nextCandidate(candidates []models.Driver, lastOffered *int64) *models.Driver {
	if len(candidates) == 0 {
		return nil
	}
	if lastOffered == nil {
		return &candidates[0]
	}
	for i := range candidates {
		if candidates[i].ID == *lastOffered && i+1 < len(candidates) {
			return &candidates[i+1]
		}
	}
	return nil
}
