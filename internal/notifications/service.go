package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// Dispatcher hands a templated message to the messaging provider.
type Dispatcher interface {
	Send(ctx context.Context, template enums.NotificationTemplate, recipient string, variables map[string]string) error
}

// Service sends notifications and logs every handoff. Sends are
// fire-and-forget from the caller's perspective: a provider failure is
// recorded and logged, never propagated.
type Service struct {
	dispatcher Dispatcher
	repo       Repository
	log        *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Dispatcher Dispatcher
	Repo       Repository
	Log        *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Dispatcher == nil {
		return nil, fmt.Errorf("notifications: service requires a dispatcher")
	}
	if p.Repo == nil {
		return nil, fmt.Errorf("notifications: service requires a repository")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("notifications: service requires a logger")
	}
	return &Service{dispatcher: p.Dispatcher, repo: p.Repo, log: p.Log}, nil
}

// Notify sends the template to the recipient and records the outcome.
func (s *Service) Notify(ctx context.Context, template enums.NotificationTemplate, recipient string, variables map[string]string) {
	if variables == nil {
		variables = map[string]string{}
	}
	encoded, err := json.Marshal(variables)
	if err != nil {
		encoded = []byte("{}")
	}

	record := &models.Notification{
		Template:  template,
		Recipient: recipient,
		Variables: string(encoded),
	}

	sendErr := s.dispatcher.Send(ctx, template, recipient, variables)
	if sendErr != nil {
		message := sendErr.Error()
		record.FailedMsg = &message
		s.log.Error(ctx, fmt.Sprintf("notification %s to %s failed", template, recipient), sendErr)
	} else {
		record.Sent = true
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.log.Error(ctx, "failed to log notification", err)
	}
}
