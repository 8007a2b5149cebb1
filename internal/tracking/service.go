package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	tracktoken "github.com/harborbox/dispatch-backend/pkg/tracking"
)

// UnitView is the tracking progress for one storage unit.
type UnitView struct {
	UnitNumber int          `json:"unit_number"`
	Steps      []StepStatus `json:"steps"`
}

// View is the customer-facing tracking payload for one appointment.
type View struct {
	AppointmentID   uuid.UUID             `json:"appointment_id"`
	AppointmentType enums.AppointmentType `json:"appointment_type"`
	PlanType        enums.PlanType        `json:"plan_type"`
	ScheduledAt     time.Time             `json:"scheduled_at"`
	Units           []UnitView            `json:"units"`
}

// Service turns a tracking token into the appointment's progress view.
type Service struct {
	repo Repository
	cfg  config.TrackingConfig
	log  *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo Repository
	Cfg  config.TrackingConfig
	Log  *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("tracking: service requires a repository")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("tracking: service requires a logger")
	}
	return &Service{repo: p.Repo, cfg: p.Cfg, log: p.Log}, nil
}

// Verify authenticates the tracking token and builds the progress view.
// Token verification fails closed: expiry or signature mismatch yields an
// unauthorized error, never a degraded view.
func (s *Service) Verify(ctx context.Context, tokenString string) (*View, error) {
	claims, err := tracktoken.VerifyToken(s.cfg, tokenString)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired tracking token")
	}
	ctx = s.log.WithAppointmentID(ctx, claims.AppointmentID.String())

	appointment, err := s.repo.FindAppointment(ctx, claims.AppointmentID)
	if err != nil {
		return nil, err
	}

	serverEvent, err := s.repo.LatestEvent(ctx, appointment.ID)
	if err != nil {
		return nil, err
	}

	actor := ""
	if appointment.MovingPartnerID != nil {
		actor, err = s.repo.PartnerName(ctx, *appointment.MovingPartnerID)
		if err != nil {
			return nil, err
		}
	}

	// One fetch group per unit; units are evaluated independently with no
	// shared mutable state between them.
	unitTasks := make([][]models.Task, appointment.UnitCount)
	group, groupCtx := errgroup.WithContext(ctx)
	for unit := 1; unit <= appointment.UnitCount; unit++ {
		group.Go(func() error {
			tasks, err := s.repo.ListUnitTasks(groupCtx, appointment.ID, unit)
			if err != nil {
				return err
			}
			unitTasks[unit-1] = tasks
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	view := &View{
		AppointmentID:   appointment.ID,
		AppointmentType: appointment.Type,
		PlanType:        appointment.PlanType,
		ScheduledAt:     appointment.ScheduledAt,
		Units:           make([]UnitView, 0, appointment.UnitCount),
	}
	for unit := 1; unit <= appointment.UnitCount; unit++ {
		input := buildUnitInput(appointment, unit, actor, unitTasks[unit-1], claims, serverEvent)
		view.Units = append(view.Units, UnitView{
			UnitNumber: unit,
			Steps:      UnitProgress(input),
		})
	}
	return view, nil
}

func buildUnitInput(
	appointment *models.Appointment,
	unit int,
	actor string,
	tasks []models.Task,
	claims *tracktoken.TokenClaims,
	serverEvent *models.WebhookEvent,
) UnitInput {
	input := UnitInput{
		UnitNumber:      unit,
		AppointmentType: appointment.Type,
		Actor:           actor,
	}
	if unit == 1 {
		input.ServiceStartedAt = appointment.ServiceStartedAt
		input.ServiceEndedAt = appointment.ServiceEndedAt
	}

	for _, task := range tasks {
		snapshot := TaskSnapshot{State: task.State, CompletedAt: task.CompletedAt}
		switch task.Step {
		case enums.TaskStepWarehousePickup:
			input.Pickup = snapshot
		case enums.TaskStepCustomerService:
			input.Customer = snapshot
		case enums.TaskStepWarehouseReturn:
			input.Dropoff = snapshot
		case enums.TaskStepAdmin:
			input.Admin = snapshot
		}
	}

	// Legacy tokens round-trip the latest event through the client; it is
	// read alongside the authoritative server record, never instead of it.
	if claims.TriggerName != nil && claims.WebhookTime != nil {
		input.ClientEvent = &TriggerEvent{Name: *claims.TriggerName, Time: *claims.WebhookTime}
	}
	if serverEvent != nil {
		input.ServerEvent = &TriggerEvent{Name: serverEvent.TriggerName, Time: serverEvent.OccurredAt}
	}
	return input
}
