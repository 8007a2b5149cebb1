package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/internal/reassignment"
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	tracktoken "github.com/harborbox/dispatch-backend/pkg/tracking"
)

// Reconciler recomputes driver assignments after an appointment edit.
type Reconciler interface {
	Reconcile(ctx context.Context, appointment *models.Appointment) (reassignment.Plan, error)
}

// EditInput carries the mutable appointment fields. Nil pointers leave a
// field unchanged; ClearMovingPartner drops the partner outright.
type EditInput struct {
	AppointmentID      uuid.UUID
	PlanType           *enums.PlanType
	ScheduledAt        *time.Time
	UnitCount          *int
	MovingPartnerID    *int64
	ClearMovingPartner bool
}

// EditResult pairs the persisted appointment with the reassignment plan
// that the edit produced.
type EditResult struct {
	Appointment *models.Appointment
	Plan        reassignment.Plan
}

// Service orchestrates appointment edits: it validates and persists the
// mutation, then hands the appointment to the reconciler, which recomputes
// driver assignments and task windows in one pass.
type Service struct {
	repo       Repository
	reconciler Reconciler
	tracking   config.TrackingConfig
	log        *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo       Repository
	Reconciler Reconciler
	Tracking   config.TrackingConfig
	Log        *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("appointments: service requires a repository")
	}
	if p.Reconciler == nil {
		return nil, fmt.Errorf("appointments: service requires a reconciler")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("appointments: service requires a logger")
	}
	return &Service{repo: p.Repo, reconciler: p.Reconciler, tracking: p.Tracking, log: p.Log}, nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.repo.FindByID(ctx, id)
}

// Edit applies the input to the appointment and reconciles assignments.
// A time-only change still runs the reconciler: the window planner is
// idempotent, so unchanged shapes only refresh task windows.
func (s *Service) Edit(ctx context.Context, input EditInput) (*EditResult, error) {
	if input.AppointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id is required")
	}
	ctx = s.log.WithAppointmentID(ctx, input.AppointmentID.String())

	appointment, err := s.repo.FindByID(ctx, input.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status.Terminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"completed or cancelled appointments cannot be edited")
	}

	if err := s.applyInput(ctx, appointment, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, appointment); err != nil {
		return nil, err
	}

	plan, err := s.reconciler.Reconcile(ctx, appointment)
	if err != nil {
		return nil, err
	}

	return &EditResult{Appointment: appointment, Plan: plan}, nil
}

func (s *Service) applyInput(ctx context.Context, appointment *models.Appointment, input EditInput) error {
	if input.PlanType != nil {
		if !input.PlanType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid plan type %q", *input.PlanType))
		}
		appointment.PlanType = *input.PlanType
	}
	if input.ScheduledAt != nil {
		if input.ScheduledAt.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "scheduled time must be set")
		}
		appointment.ScheduledAt = input.ScheduledAt.UTC()
	}
	if input.UnitCount != nil {
		if *input.UnitCount < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit count must be at least 1")
		}
		appointment.UnitCount = *input.UnitCount
	}

	switch {
	case input.ClearMovingPartner:
		appointment.MovingPartnerID = nil
	case input.MovingPartnerID != nil:
		partner, err := s.repo.FindPartner(ctx, *input.MovingPartnerID)
		if err != nil {
			return err
		}
		if !partner.Active {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("moving partner %d is inactive", partner.ID))
		}
		appointment.MovingPartnerID = input.MovingPartnerID
	}
	return nil
}

// TrackingToken mints a fresh tracking credential for the appointment.
func (s *Service) TrackingToken(ctx context.Context, id uuid.UUID) (string, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return tracktoken.MintToken(s.tracking, time.Now(), tracktoken.TokenPayload{
		AppointmentID: appointment.ID,
	})
}
