package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

type fakeDispatcher struct {
	sent []enums.NotificationTemplate
	err  error
}

func (f *fakeDispatcher) Send(ctx context.Context, template enums.NotificationTemplate, recipient string, variables map[string]string) error {
	f.sent = append(f.sent, template)
	return f.err
}

type fakeNotificationRepo struct {
	created []*models.Notification
	err     error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	return f.err
}

func newTestNotifier(t *testing.T, dispatcher Dispatcher, repo Repository) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Dispatcher: dispatcher,
		Repo:       repo,
		Log:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestNotifyRecordsSuccessfulHandoff(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	repo := &fakeNotificationRepo{}
	notifier := newTestNotifier(t, dispatcher, repo)

	notifier.Notify(context.Background(), enums.TemplatePackingSupplyStarted,
		"+15550001111", map[string]string{"customer_name": "Ada"})

	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatcher sends = %d, want 1", len(dispatcher.sent))
	}
	if len(repo.created) != 1 {
		t.Fatalf("log rows = %d, want 1", len(repo.created))
	}
	record := repo.created[0]
	if !record.Sent || record.FailedMsg != nil {
		t.Fatalf("record should mark a clean handoff, got %+v", record)
	}
	if record.Variables != `{"customer_name":"Ada"}` {
		t.Fatalf("variables = %s", record.Variables)
	}
}

func TestNotifyRecordsProviderFailureWithoutPropagating(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("provider down")}
	repo := &fakeNotificationRepo{}
	notifier := newTestNotifier(t, dispatcher, repo)

	notifier.Notify(context.Background(), enums.TemplatePackingSupplyFailed, "+15550001111", nil)

	if len(repo.created) != 1 {
		t.Fatalf("log rows = %d, want 1", len(repo.created))
	}
	record := repo.created[0]
	if record.Sent {
		t.Fatal("record should not be marked sent")
	}
	if record.FailedMsg == nil || *record.FailedMsg != "provider down" {
		t.Fatalf("failed message = %v", record.FailedMsg)
	}
}
