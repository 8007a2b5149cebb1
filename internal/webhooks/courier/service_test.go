package courierwebhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

type memStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemStore() *memStore { return &memStore{keys: map[string]string{}} }

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.keys[key]; held {
		return false, nil
	}
	s.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func (s *memStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }
func (s *memStore) LockKey(scope, id string) string        { return "lock:" + scope + ":" + id }

type fakeWebhookRepo struct {
	tasks        map[string]*models.Task
	appointments map[uuid.UUID]*models.Appointment
	events       map[uuid.UUID]*models.WebhookEvent
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{
		tasks:        map[string]*models.Task{},
		appointments: map[uuid.UUID]*models.Appointment{},
		events:       map[uuid.UUID]*models.WebhookEvent{},
	}
}

func (f *fakeWebhookRepo) FindTaskByCourierID(ctx context.Context, courierTaskID string) (*models.Task, error) {
	task, ok := f.tasks[courierTaskID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found for courier id")
	}
	return task, nil
}

func (f *fakeWebhookRepo) SaveTask(ctx context.Context, task *models.Task) error {
	f.tasks[task.CourierTaskID] = task
	return nil
}

func (f *fakeWebhookRepo) FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	appointment, ok := f.appointments[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	return appointment, nil
}

func (f *fakeWebhookRepo) SaveAppointment(ctx context.Context, appointment *models.Appointment) error {
	f.appointments[appointment.ID] = appointment
	return nil
}

func (f *fakeWebhookRepo) UpsertEvent(ctx context.Context, event *models.WebhookEvent) error {
	f.events[event.AppointmentID] = event
	return nil
}

type handlerCall struct {
	name    string
	orderID uuid.UUID
}

type fakePackingSupply struct {
	calls []handlerCall
	err   error
}

func (f *fakePackingSupply) HandleStarted(ctx context.Context, orderID uuid.UUID) error {
	f.calls = append(f.calls, handlerCall{"started", orderID})
	return f.err
}

func (f *fakePackingSupply) HandleArrival(ctx context.Context, orderID uuid.UUID) error {
	f.calls = append(f.calls, handlerCall{"arrival", orderID})
	return f.err
}

func (f *fakePackingSupply) HandleCompleted(ctx context.Context, orderID uuid.UUID, photoURL *string, completedAt time.Time) error {
	f.calls = append(f.calls, handlerCall{"completed", orderID})
	return f.err
}

func (f *fakePackingSupply) HandleFailed(ctx context.Context, orderID uuid.UUID) error {
	f.calls = append(f.calls, handlerCall{"failed", orderID})
	return f.err
}

func newTestWebhookService(t *testing.T, repo Repository, handler PackingSupplyHandler, store *memStore) *Service {
	t.Helper()
	guard, err := NewIdempotencyGuard(store, time.Hour, "courier")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	service, err := NewService(ServiceParams{
		Repo:          repo,
		PackingSupply: handler,
		Guard:         guard,
		Locks:         store,
		Log:           logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func packingSupplyEvent(trigger string, orderID uuid.UUID) *Event {
	return &Event{
		TaskID:      "ps-task-1",
		Time:        time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC).UnixMilli(),
		TriggerName: trigger,
		Data: EventData{Task: EventTask{
			ShortID: "abc123",
			Metadata: []MetadataEntry{
				{Name: "job_type", Type: "string", Value: "packing_supply_delivery"},
				{Name: "order_id", Type: "string", Value: orderID.String()},
			},
		}},
	}
}

func storageEvent(appointmentID uuid.UUID, trigger string, step string) *Event {
	return &Event{
		TaskID:      "su-task-1",
		Time:        time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC).UnixMilli(),
		TriggerName: trigger,
		Data: EventData{Task: EventTask{
			ShortID: "def456",
			Metadata: []MetadataEntry{
				{Name: "step", Type: "number", Value: step},
				{Name: "appointment_id", Type: "string", Value: appointmentID.String()},
			},
			CompletionPhotos: []string{"https://photos/done.jpg"},
		}},
	}
}

func TestHandleEventRoutesPackingSupplyTriggers(t *testing.T) {
	for trigger, want := range map[string]string{
		"taskStarted":   "started",
		"taskArrival":   "arrival",
		"taskCompleted": "completed",
		"taskFailed":    "failed",
	} {
		t.Run(trigger, func(t *testing.T) {
			handler := &fakePackingSupply{}
			service := newTestWebhookService(t, newFakeWebhookRepo(), handler, newMemStore())

			orderID := uuid.New()
			if err := service.HandleEvent(context.Background(), packingSupplyEvent(trigger, orderID)); err != nil {
				t.Fatalf("HandleEvent: %v", err)
			}
			if len(handler.calls) != 1 || handler.calls[0].name != want {
				t.Fatalf("calls = %+v, want one %q", handler.calls, want)
			}
			if handler.calls[0].orderID != orderID {
				t.Fatalf("order id = %s, want %s", handler.calls[0].orderID, orderID)
			}
		})
	}
}

func TestHandleEventRejectsUnknownTrigger(t *testing.T) {
	service := newTestWebhookService(t, newFakeWebhookRepo(), &fakePackingSupply{}, newMemStore())

	err := service.HandleEvent(context.Background(), packingSupplyEvent("taskExploded", uuid.New()))
	if err == nil {
		t.Fatal("expected unknown trigger to be rejected")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEventDuplicateDeliveryIsAcked(t *testing.T) {
	handler := &fakePackingSupply{}
	service := newTestWebhookService(t, newFakeWebhookRepo(), handler, newMemStore())

	event := packingSupplyEvent("taskStarted", uuid.New())
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("replayed delivery should be acked, got %v", err)
	}
	if len(handler.calls) != 1 {
		t.Fatalf("handler calls = %d, want 1 (replay skipped)", len(handler.calls))
	}
}

func TestHandleEventFailureClearsDedupMarker(t *testing.T) {
	handler := &fakePackingSupply{err: errors.New("downstream broken")}
	store := newMemStore()
	service := newTestWebhookService(t, newFakeWebhookRepo(), handler, store)

	event := packingSupplyEvent("taskStarted", uuid.New())
	if err := service.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected handler failure to propagate")
	}

	// The retry gets a fresh attempt because the marker was cleared.
	handler.err = nil
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(handler.calls) != 2 {
		t.Fatalf("handler calls = %d, want 2", len(handler.calls))
	}
}

func TestStorageCompletedPersistsPhotoStateAndEvent(t *testing.T) {
	appointmentID := uuid.New()
	repo := newFakeWebhookRepo()
	repo.appointments[appointmentID] = &models.Appointment{ID: appointmentID}
	repo.tasks["su-task-1"] = &models.Task{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		UnitNumber:    1,
		Step:          enums.TaskStepCustomerService,
		State:         enums.TaskStateActive,
		CourierTaskID: "su-task-1",
	}
	service := newTestWebhookService(t, repo, &fakePackingSupply{}, newMemStore())

	event := storageEvent(appointmentID, "taskCompleted", "2")
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	task := repo.tasks["su-task-1"]
	if task.State != enums.TaskStateCompleted || task.CompletedAt == nil {
		t.Fatalf("task not completed: %+v", task)
	}
	if task.CompletionPhotoURL == nil || *task.CompletionPhotoURL != "https://photos/done.jpg" {
		t.Fatalf("photo = %v", task.CompletionPhotoURL)
	}

	persisted := repo.events[appointmentID]
	if persisted == nil || persisted.TriggerName != enums.TriggerTaskCompleted {
		t.Fatalf("event row = %+v", persisted)
	}

	// Completing the primary unit's customer task ends on-site service.
	appointment := repo.appointments[appointmentID]
	if appointment.ServiceEndedAt == nil {
		t.Fatal("service end not stamped")
	}
}

func TestHandleEventPackingSupplyRequiresOrderID(t *testing.T) {
	handler := &fakePackingSupply{}
	service := newTestWebhookService(t, newFakeWebhookRepo(), handler, newMemStore())

	event := packingSupplyEvent("taskStarted", uuid.New())
	event.Data.Task.Metadata = []MetadataEntry{
		{Name: "job_type", Type: "string", Value: "packing_supply_delivery"},
	}

	err := service.HandleEvent(context.Background(), event)
	if err == nil {
		t.Fatal("expected missing order_id metadata to be rejected")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(handler.calls) != 0 {
		t.Fatalf("handler should not run without an order id: %+v", handler.calls)
	}
}

func TestStorageCompletedRejectsMismatchedStep(t *testing.T) {
	appointmentID := uuid.New()
	repo := newFakeWebhookRepo()
	repo.appointments[appointmentID] = &models.Appointment{ID: appointmentID}
	repo.tasks["su-task-1"] = &models.Task{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		UnitNumber:    1,
		Step:          enums.TaskStepCustomerService,
		State:         enums.TaskStateActive,
		CourierTaskID: "su-task-1",
	}
	service := newTestWebhookService(t, repo, &fakePackingSupply{}, newMemStore())

	for name, step := range map[string]string{"wrong step": "3", "missing step": ""} {
		t.Run(name, func(t *testing.T) {
			event := storageEvent(appointmentID, "taskCompleted", step)
			if step == "" {
				event.Data.Task.Metadata = []MetadataEntry{
					{Name: "appointment_id", Type: "string", Value: appointmentID.String()},
				}
			}

			err := service.HandleEvent(context.Background(), event)
			if err == nil {
				t.Fatal("expected completion to be rejected")
			}
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}

			task := repo.tasks["su-task-1"]
			if task.State != enums.TaskStateActive || task.CompletedAt != nil {
				t.Fatalf("task mutated by rejected completion: %+v", task)
			}
			if task.CompletionPhotoURL != nil {
				t.Fatalf("photo persisted by rejected completion: %v", *task.CompletionPhotoURL)
			}
		})
	}
}

func TestStorageArrivalStampsServiceStartOnce(t *testing.T) {
	appointmentID := uuid.New()
	repo := newFakeWebhookRepo()
	repo.appointments[appointmentID] = &models.Appointment{ID: appointmentID}
	repo.tasks["su-task-1"] = &models.Task{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		UnitNumber:    1,
		Step:          enums.TaskStepCustomerService,
		State:         enums.TaskStateActive,
		CourierTaskID: "su-task-1",
	}
	service := newTestWebhookService(t, repo, &fakePackingSupply{}, newMemStore())

	event := storageEvent(appointmentID, "taskArrival", "2")
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	appointment := repo.appointments[appointmentID]
	if appointment.ServiceStartedAt == nil {
		t.Fatal("service start not stamped")
	}
	firstStamp := *appointment.ServiceStartedAt

	// A later arrival replay with a different time must not move the stamp.
	later := storageEvent(appointmentID, "taskArrival", "2")
	later.Time += 60_000
	if err := service.HandleEvent(context.Background(), later); err != nil {
		t.Fatalf("second arrival: %v", err)
	}
	if !appointment.ServiceStartedAt.Equal(firstStamp) {
		t.Fatalf("service start moved: %v -> %v", firstStamp, appointment.ServiceStartedAt)
	}

	if repo.events[appointmentID].TriggerName != enums.TriggerTaskArrival {
		t.Fatalf("event row = %+v", repo.events[appointmentID])
	}
}

func TestStorageSecondaryUnitDoesNotStampService(t *testing.T) {
	appointmentID := uuid.New()
	repo := newFakeWebhookRepo()
	repo.appointments[appointmentID] = &models.Appointment{ID: appointmentID}
	repo.tasks["su-task-1"] = &models.Task{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		UnitNumber:    2,
		Step:          enums.TaskStepCustomerService,
		State:         enums.TaskStateActive,
		CourierTaskID: "su-task-1",
	}
	service := newTestWebhookService(t, repo, &fakePackingSupply{}, newMemStore())

	if err := service.HandleEvent(context.Background(), storageEvent(appointmentID, "taskArrival", "2")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if repo.appointments[appointmentID].ServiceStartedAt != nil {
		t.Fatal("secondary unit must not stamp service start")
	}
}
