package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/internal/appointments"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

type fakeAppointmentService struct {
	appointment *models.Appointment
	editInput   *appointments.EditInput
	editErr     error
	token       string
}

func (f *fakeAppointmentService) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if f.appointment == nil || f.appointment.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	return f.appointment, nil
}

func (f *fakeAppointmentService) Edit(ctx context.Context, input appointments.EditInput) (*appointments.EditResult, error) {
	f.editInput = &input
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &appointments.EditResult{Appointment: f.appointment}, nil
}

func (f *fakeAppointmentService) TrackingToken(ctx context.Context, id uuid.UUID) (string, error) {
	return f.token, nil
}

func appointmentRouter(svc AppointmentService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	r := chi.NewRouter()
	r.Get("/appointments/{appointmentID}", GetAppointment(svc, logg))
	r.Patch("/appointments/{appointmentID}", EditAppointment(svc, logg))
	r.Post("/appointments/{appointmentID}/tracking-token", AppointmentTrackingToken(svc, logg))
	return r
}

func TestGetAppointment(t *testing.T) {
	appointment := &models.Appointment{
		ID:          uuid.New(),
		Type:        enums.AppointmentTypeInitialPickup,
		PlanType:    enums.PlanTypeDIY,
		Status:      enums.AppointmentStatusScheduled,
		ScheduledAt: time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC),
		UnitCount:   2,
	}
	router := appointmentRouter(&fakeAppointmentService{appointment: appointment})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments/"+appointment.ID.String(), nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data appointmentResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != appointment.ID || envelope.Data.UnitCount != 2 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestGetAppointmentBadID(t *testing.T) {
	router := appointmentRouter(&fakeAppointmentService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEditAppointmentMapsRequest(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New(), Status: enums.AppointmentStatusScheduled}
	svc := &fakeAppointmentService{appointment: appointment}
	router := appointmentRouter(svc)

	body := []byte(`{"plan_type":"full_service","unit_count":3,"moving_partner_id":10}`)
	r := httptest.NewRequest(http.MethodPatch, "/appointments/"+appointment.ID.String(), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.editInput == nil {
		t.Fatal("service never called")
	}
	if svc.editInput.PlanType == nil || *svc.editInput.PlanType != enums.PlanTypeFullService {
		t.Fatalf("plan type = %v", svc.editInput.PlanType)
	}
	if svc.editInput.UnitCount == nil || *svc.editInput.UnitCount != 3 {
		t.Fatalf("unit count = %v", svc.editInput.UnitCount)
	}
	if svc.editInput.MovingPartnerID == nil || *svc.editInput.MovingPartnerID != 10 {
		t.Fatalf("partner = %v", svc.editInput.MovingPartnerID)
	}
}

func TestEditAppointmentRejectsUnknownPlanType(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New()}
	svc := &fakeAppointmentService{appointment: appointment}
	router := appointmentRouter(svc)

	body := []byte(`{"plan_type":"white_glove"}`)
	r := httptest.NewRequest(http.MethodPatch, "/appointments/"+appointment.ID.String(), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if svc.editInput != nil {
		t.Fatal("invalid plan type must not reach the service")
	}
}

func TestEditAppointmentSurfacesStateConflict(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New()}
	svc := &fakeAppointmentService{
		appointment: appointment,
		editErr:     pkgerrors.New(pkgerrors.CodeStateConflict, "completed or cancelled appointments cannot be edited"),
	}
	router := appointmentRouter(svc)

	body := []byte(`{"unit_count":1}`)
	r := httptest.NewRequest(http.MethodPatch, "/appointments/"+appointment.ID.String(), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestAppointmentTrackingToken(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New()}
	router := appointmentRouter(&fakeAppointmentService{appointment: appointment, token: "signed.jwt.token"})

	r := httptest.NewRequest(http.MethodPost, "/appointments/"+appointment.ID.String()+"/tracking-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["token"] != "signed.jwt.token" {
		t.Fatalf("token = %q", envelope.Data["token"])
	}
}
