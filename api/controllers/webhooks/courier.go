package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/harborbox/dispatch-backend/api/responses"
	courierwebhook "github.com/harborbox/dispatch-backend/internal/webhooks/courier"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

const courierSignatureHeader = "X-Courier-Signature"

// CourierWebhookService processes verified delivery-provider events.
type CourierWebhookService interface {
	HandleEvent(ctx context.Context, event *courierwebhook.Event) error
}

type courierClient interface {
	SigningSecret() string
}

// CourierWebhook handles delivery-provider task lifecycle events. The
// payload is HMAC-SHA256 signed; with strict verification off a bad
// signature is logged and the payload processed anyway, matching the
// behavior operators relied on during secret rotations.
func CourierWebhook(svc CourierWebhookService, client courierClient, strict bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "courier client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !verifySignature(payload, r.Header.Get(courierSignatureHeader), client.SigningSecret()) {
			if strict {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch"))
				return
			}
			if logg != nil {
				logg.Warn(ctx, "courier webhook signature mismatch; processing anyway")
			}
		}

		var event courierwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("courier event %s/%s processed", event.TaskID, event.TriggerName))
		}
		responses.WriteSuccess(w, nil)
	}
}

func verifySignature(payload []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
