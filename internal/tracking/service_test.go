package tracking

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	tracktoken "github.com/harborbox/dispatch-backend/pkg/tracking"
)

type fakeTrackingRepo struct {
	appointment *models.Appointment
	tasks       map[int][]models.Task
	event       *models.WebhookEvent
	partnerName string
}

func (f *fakeTrackingRepo) FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if f.appointment == nil || f.appointment.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	return f.appointment, nil
}

func (f *fakeTrackingRepo) ListUnitTasks(ctx context.Context, appointmentID uuid.UUID, unit int) ([]models.Task, error) {
	return f.tasks[unit], nil
}

func (f *fakeTrackingRepo) LatestEvent(ctx context.Context, appointmentID uuid.UUID) (*models.WebhookEvent, error) {
	return f.event, nil
}

func (f *fakeTrackingRepo) PartnerName(ctx context.Context, partnerID int64) (string, error) {
	return f.partnerName, nil
}

func trackingTestConfig() config.TrackingConfig {
	return config.TrackingConfig{
		Secret:            "test-secret",
		Issuer:            "harborbox-test",
		ExpirationMinutes: 60,
	}
}

func unitTask(appointmentID uuid.UUID, unit int, step enums.TaskStep, state enums.TaskState) models.Task {
	return models.Task{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		UnitNumber:    unit,
		Step:          step,
		State:         state,
	}
}

func newTestTrackingService(t *testing.T, repo Repository) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Repo: repo,
		Cfg:  trackingTestConfig(),
		Log:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestVerifyBuildsViewFromServerEvent(t *testing.T) {
	partnerID := int64(10)
	appointment := &models.Appointment{
		ID:              uuid.New(),
		Type:            enums.AppointmentTypeInitialPickup,
		PlanType:        enums.PlanTypeFullService,
		ScheduledAt:     time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC),
		UnitCount:       2,
		MovingPartnerID: &partnerID,
	}
	repo := &fakeTrackingRepo{
		appointment: appointment,
		partnerName: "Tim",
		tasks: map[int][]models.Task{
			1: {
				unitTask(appointment.ID, 1, enums.TaskStepWarehousePickup, enums.TaskStateCompleted),
				unitTask(appointment.ID, 1, enums.TaskStepCustomerService, enums.TaskStateActive),
				unitTask(appointment.ID, 1, enums.TaskStepWarehouseReturn, enums.TaskStateUnassigned),
				unitTask(appointment.ID, 1, enums.TaskStepAdmin, enums.TaskStateUnassigned),
			},
			2: {
				unitTask(appointment.ID, 2, enums.TaskStepWarehousePickup, enums.TaskStateActive),
			},
		},
		event: &models.WebhookEvent{
			AppointmentID: appointment.ID,
			TriggerName:   enums.TriggerTaskArrival,
			OccurredAt:    time.Date(2026, 4, 1, 14, 5, 0, 0, time.UTC),
		},
	}
	service := newTestTrackingService(t, repo)

	token, err := tracktoken.MintToken(trackingTestConfig(), time.Now(), tracktoken.TokenPayload{
		AppointmentID: appointment.ID,
	})
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	view, err := service.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if view.AppointmentID != appointment.ID {
		t.Fatalf("view appointment = %s, want %s", view.AppointmentID, appointment.ID)
	}
	if len(view.Units) != 2 {
		t.Fatalf("view units = %d, want 2", len(view.Units))
	}

	// The persisted arrival event forces unit 1's on-the-way step even
	// though the customer task still polls active.
	unit1 := view.Units[0].Steps
	if unit1[1].Status != StepComplete {
		t.Fatalf("unit 1 on-the-way = %s, want complete", unit1[1].Status)
	}
	// The named partner only appears on the primary unit.
	if want := "Tim"; !strings.Contains(unit1[0].Title, want) {
		t.Fatalf("unit 1 title %q should name %q", unit1[0].Title, want)
	}
	unit2 := view.Units[1].Steps
	if strings.Contains(unit2[0].Title, "Tim") {
		t.Fatalf("unit 2 title %q should be generic", unit2[0].Title)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	service := newTestTrackingService(t, &fakeTrackingRepo{})

	token, err := tracktoken.MintToken(trackingTestConfig(),
		time.Now().Add(-3*time.Hour), tracktoken.TokenPayload{AppointmentID: uuid.New()})
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	_, err = service.Verify(context.Background(), token)
	if err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	service := newTestTrackingService(t, &fakeTrackingRepo{})

	otherCfg := trackingTestConfig()
	otherCfg.Secret = "a-different-secret"
	token, err := tracktoken.MintToken(otherCfg, time.Now(), tracktoken.TokenPayload{
		AppointmentID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	_, err = service.Verify(context.Background(), token)
	if err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}
