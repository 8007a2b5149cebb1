package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/api/responses"
	"github.com/harborbox/dispatch-backend/api/validators"
	"github.com/harborbox/dispatch-backend/internal/appointments"
	"github.com/harborbox/dispatch-backend/internal/reassignment"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// AppointmentService is the edit-orchestration surface the controllers use.
type AppointmentService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	Edit(ctx context.Context, input appointments.EditInput) (*appointments.EditResult, error)
	TrackingToken(ctx context.Context, id uuid.UUID) (string, error)
}

type editAppointmentRequest struct {
	PlanType           *string    `json:"plan_type,omitempty"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	UnitCount          *int       `json:"unit_count,omitempty"`
	MovingPartnerID    *int64     `json:"moving_partner_id,omitempty"`
	ClearMovingPartner bool       `json:"clear_moving_partner,omitempty"`
}

type appointmentResponse struct {
	ID               uuid.UUID               `json:"id"`
	Type             enums.AppointmentType   `json:"type"`
	PlanType         enums.PlanType          `json:"plan_type"`
	Status           enums.AppointmentStatus `json:"status"`
	ScheduledAt      time.Time               `json:"scheduled_at"`
	UnitCount        int                     `json:"unit_count"`
	MovingPartnerID  *int64                  `json:"moving_partner_id,omitempty"`
	ServiceStartedAt *time.Time              `json:"service_started_at,omitempty"`
	ServiceEndedAt   *time.Time              `json:"service_ended_at,omitempty"`
}

type keptDriverResponse struct {
	DriverID    int64 `json:"driver_id"`
	CurrentUnit int   `json:"current_unit"`
	NewUnit     int   `json:"new_unit"`
}

type removedDriverResponse struct {
	DriverID int64  `json:"driver_id"`
	Reason   string `json:"reason"`
}

type unitNeedResponse struct {
	UnitNumber   int              `json:"unit_number"`
	RequiredType enums.DriverType `json:"required_type"`
}

type planResponse struct {
	DriversToKeep         []keptDriverResponse    `json:"drivers_to_keep"`
	DriversToRemove       []removedDriverResponse `json:"drivers_to_remove"`
	UnitsNeedingNewDriver []unitNeedResponse      `json:"units_needing_new_driver"`
}

type editAppointmentResponse struct {
	Appointment appointmentResponse `json:"appointment"`
	Plan        planResponse        `json:"plan"`
}

func toPlanResponse(plan reassignment.Plan) planResponse {
	out := planResponse{
		DriversToKeep:         make([]keptDriverResponse, 0, len(plan.DriversToKeep)),
		DriversToRemove:       make([]removedDriverResponse, 0, len(plan.DriversToRemove)),
		UnitsNeedingNewDriver: make([]unitNeedResponse, 0, len(plan.UnitsNeedingNewDriver)),
	}
	for _, kept := range plan.DriversToKeep {
		out.DriversToKeep = append(out.DriversToKeep, keptDriverResponse(kept))
	}
	for _, removed := range plan.DriversToRemove {
		out.DriversToRemove = append(out.DriversToRemove, removedDriverResponse(removed))
	}
	for _, need := range plan.UnitsNeedingNewDriver {
		out.UnitsNeedingNewDriver = append(out.UnitsNeedingNewDriver, unitNeedResponse(need))
	}
	return out
}

func toAppointmentResponse(a *models.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:               a.ID,
		Type:             a.Type,
		PlanType:         a.PlanType,
		Status:           a.Status,
		ScheduledAt:      a.ScheduledAt,
		UnitCount:        a.UnitCount,
		MovingPartnerID:  a.MovingPartnerID,
		ServiceStartedAt: a.ServiceStartedAt,
		ServiceEndedAt:   a.ServiceEndedAt,
	}
}

func appointmentIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "appointmentID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid appointment id")
	}
	return id, nil
}

// GetAppointment returns one appointment.
func GetAppointment(svc AppointmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := appointmentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		appointment, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAppointmentResponse(appointment))
	}
}

// EditAppointment mutates the appointment and returns the reassignment
// plan the edit produced.
func EditAppointment(svc AppointmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := appointmentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req editAppointmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := appointments.EditInput{
			AppointmentID:      id,
			ScheduledAt:        req.ScheduledAt,
			UnitCount:          req.UnitCount,
			MovingPartnerID:    req.MovingPartnerID,
			ClearMovingPartner: req.ClearMovingPartner,
		}
		if req.PlanType != nil {
			planType, err := enums.ParsePlanType(*req.PlanType)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan type"))
				return
			}
			input.PlanType = &planType
		}

		result, err := svc.Edit(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, editAppointmentResponse{
			Appointment: toAppointmentResponse(result.Appointment),
			Plan:        toPlanResponse(result.Plan),
		})
	}
}

// AppointmentTrackingToken mints a customer tracking link credential.
func AppointmentTrackingToken(svc AppointmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := appointmentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		token, err := svc.TrackingToken(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"token": token})
	}
}
