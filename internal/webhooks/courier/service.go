package courierwebhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	"github.com/harborbox/dispatch-backend/pkg/metrics"
	"github.com/harborbox/dispatch-backend/pkg/redis"
)

const webhookLockTTL = 15 * time.Second

// PackingSupplyHandler is the slice of the packing-supply service driven
// by webhook events. Orders are addressed by the order_id metadata the
// provider echoes back, not by the courier task id.
type PackingSupplyHandler interface {
	HandleStarted(ctx context.Context, orderID uuid.UUID) error
	HandleArrival(ctx context.Context, orderID uuid.UUID) error
	HandleCompleted(ctx context.Context, orderID uuid.UUID, photoURL *string, completedAt time.Time) error
	HandleFailed(ctx context.Context, orderID uuid.UUID) error
}

// Service routes inbound delivery-provider events: packing-supply jobs to
// the order flow, everything else to the storage-unit flow.
type Service struct {
	repo          Repository
	packingSupply PackingSupplyHandler
	guard         *IdempotencyGuard
	locks         redis.LockStore
	metrics       *metrics.WebhookMetrics
	log           *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo          Repository
	PackingSupply PackingSupplyHandler
	Guard         *IdempotencyGuard
	Locks         redis.LockStore
	Metrics       *metrics.WebhookMetrics
	Log           *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("courierwebhook: service requires a repository")
	}
	if p.PackingSupply == nil {
		return nil, fmt.Errorf("courierwebhook: service requires a packing supply handler")
	}
	if p.Guard == nil {
		return nil, fmt.Errorf("courierwebhook: service requires an idempotency guard")
	}
	if p.Locks == nil {
		return nil, fmt.Errorf("courierwebhook: service requires a lock store")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("courierwebhook: service requires a logger")
	}
	return &Service{
		repo:          p.Repo,
		packingSupply: p.PackingSupply,
		guard:         p.Guard,
		locks:         p.Locks,
		metrics:       p.Metrics,
		log:           p.Log,
	}, nil
}

// HandleEvent processes one webhook delivery. Replayed deliveries are
// acknowledged without reprocessing; a failed handler clears the dedup
// marker so the provider's retry gets another attempt.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil || event.TaskID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event task id required")
	}
	ctx = s.log.WithCourierTaskID(ctx, event.TaskID)

	trigger, err := event.Trigger()
	if err != nil {
		return err
	}
	jobType := event.JobType()

	eventID := EventID(event)
	duplicate, err := s.guard.CheckAndMark(ctx, eventID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
	}
	if duplicate {
		if s.metrics != nil {
			s.metrics.IncDuplicate()
		}
		s.log.Info(ctx, "duplicate webhook delivery acknowledged")
		return nil
	}

	err = s.route(ctx, event, jobType, trigger)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.IncReceived(string(jobType), string(trigger), outcome)
	}
	if err != nil {
		if delErr := s.guard.Delete(ctx, eventID); delErr != nil {
			s.log.Error(ctx, "failed to clear idempotency marker", delErr)
		}
		return err
	}
	return nil
}

func (s *Service) route(ctx context.Context, event *Event, jobType enums.CourierJobType, trigger enums.TriggerName) error {
	switch jobType {
	case enums.CourierJobPackingSupplyDelivery:
		return s.routePackingSupply(ctx, event, trigger)
	case enums.CourierJobStorageUnit:
		return s.routeStorageUnit(ctx, event, trigger)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unhandled courier job type %q", jobType))
	}
}

func (s *Service) routePackingSupply(ctx context.Context, event *Event, trigger enums.TriggerName) error {
	orderID, err := event.OrderID()
	if err != nil {
		return err
	}

	switch trigger {
	case enums.TriggerTaskStarted:
		return s.packingSupply.HandleStarted(ctx, orderID)
	case enums.TriggerTaskArrival:
		return s.packingSupply.HandleArrival(ctx, orderID)
	case enums.TriggerTaskCompleted:
		return s.packingSupply.HandleCompleted(ctx, orderID, event.CompletionPhoto(), event.OccurredAt())
	case enums.TriggerTaskFailed:
		return s.packingSupply.HandleFailed(ctx, orderID)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unhandled trigger %q", trigger))
	}
}

// routeStorageUnit serializes mutations per appointment: webhook
// deliveries for the same appointment can arrive concurrently and would
// otherwise race on task and event rows.
func (s *Service) routeStorageUnit(ctx context.Context, event *Event, trigger enums.TriggerName) error {
	appointmentID, err := event.AppointmentID()
	if err != nil {
		return err
	}
	ctx = s.log.WithAppointmentID(ctx, appointmentID.String())

	release, err := s.lockAppointment(ctx, appointmentID.String())
	if err != nil {
		return err
	}
	defer release()

	task, err := s.repo.FindTaskByCourierID(ctx, event.TaskID)
	if err != nil {
		return err
	}

	switch trigger {
	case enums.TriggerTaskStarted:
		if task.State != enums.TaskStateCompleted {
			task.State = enums.TaskStateActive
			if err := s.repo.SaveTask(ctx, task); err != nil {
				return err
			}
		}
	case enums.TriggerTaskArrival:
		if err := s.stampServiceStart(ctx, task, event.OccurredAt()); err != nil {
			return err
		}
	case enums.TriggerTaskCompleted:
		// The step metadata must name the task row's own step before the
		// completion and its photo are persisted; a mismatched delivery is
		// rejected rather than stamped onto the wrong step.
		step, err := event.Step()
		if err != nil {
			return err
		}
		if step != task.Step {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("step metadata %d does not match task step %d", step, task.Step))
		}
		completedAt := event.OccurredAt()
		task.State = enums.TaskStateCompleted
		task.CompletedAt = &completedAt
		if photo := event.CompletionPhoto(); photo != nil {
			task.CompletionPhotoURL = photo
		}
		if err := s.repo.SaveTask(ctx, task); err != nil {
			return err
		}
		if err := s.stampServiceEnd(ctx, task, completedAt); err != nil {
			return err
		}
	case enums.TriggerTaskFailed:
		s.log.Warn(ctx, fmt.Sprintf("courier task %s reported failure", event.TaskID))
	}

	return s.repo.UpsertEvent(ctx, &models.WebhookEvent{
		AppointmentID: appointmentID,
		CourierTaskID: event.TaskID,
		TriggerName:   trigger,
		OccurredAt:    event.OccurredAt(),
	})
}

// stampServiceStart records when on-site work began. Only the primary
// unit's customer-facing task carries the on-site timer, and the stamp is
// write-once.
func (s *Service) stampServiceStart(ctx context.Context, task *models.Task, at time.Time) error {
	if task.UnitNumber != 1 || task.Step != enums.TaskStepCustomerService {
		return nil
	}
	appointment, err := s.repo.FindAppointment(ctx, task.AppointmentID)
	if err != nil {
		return err
	}
	if appointment.ServiceStartedAt != nil {
		return nil
	}
	appointment.ServiceStartedAt = &at
	return s.repo.SaveAppointment(ctx, appointment)
}

func (s *Service) stampServiceEnd(ctx context.Context, task *models.Task, at time.Time) error {
	if task.UnitNumber != 1 || task.Step != enums.TaskStepCustomerService {
		return nil
	}
	appointment, err := s.repo.FindAppointment(ctx, task.AppointmentID)
	if err != nil {
		return err
	}
	if appointment.ServiceEndedAt != nil {
		return nil
	}
	appointment.ServiceEndedAt = &at
	return s.repo.SaveAppointment(ctx, appointment)
}

func (s *Service) lockAppointment(ctx context.Context, appointmentID string) (func(), error) {
	key := s.locks.LockKey("appointment", appointmentID)
	owner := uuid.NewString()

	acquired, err := s.locks.SetNX(ctx, key, owner, webhookLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire appointment lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"appointment is being mutated by another request")
	}

	release := func() {
		current, err := s.locks.Get(ctx, key)
		if err != nil || current != owner {
			return
		}
		if err := s.locks.Del(ctx, key); err != nil {
			s.log.Warn(ctx, "failed to release appointment lock")
		}
	}
	return release, nil
}
