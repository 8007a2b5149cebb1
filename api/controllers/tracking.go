package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/harborbox/dispatch-backend/api/responses"
	"github.com/harborbox/dispatch-backend/internal/tracking"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// TrackingService resolves a tracking token into a progress view.
type TrackingService interface {
	Verify(ctx context.Context, tokenString string) (*tracking.View, error)
}

// TrackAppointment serves the customer tracking page payload. The token
// arrives as a query parameter because the link is opened from an SMS.
func TrackAppointment(svc TrackingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tracking token is required"))
			return
		}

		view, err := svc.Verify(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
