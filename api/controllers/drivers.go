package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harborbox/dispatch-backend/api/responses"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// AvailabilityChecker screens drivers against their existing commitments.
type AvailabilityChecker interface {
	HasConflict(ctx context.Context, driverID int64, candidate time.Time) (bool, error)
	AvailablePartnerDrivers(ctx context.Context, partnerID int64, candidate time.Time) ([]models.Driver, error)
}

type driverResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func parseAtParam(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("at"))
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter 'at' is required")
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "'at' must be RFC 3339")
	}
	return at, nil
}

func parseInt64Param(r *http.Request, key string) (int64, error) {
	value, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key)
	}
	return value, nil
}

// DriverConflict reports whether a driver is blocked at the candidate time.
func DriverConflict(checker AvailabilityChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		driverID, err := parseInt64Param(r, "driverID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		at, err := parseAtParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		conflict, err := checker.HasConflict(ctx, driverID, at)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"conflict": conflict})
	}
}

// AvailablePartnerDrivers lists a moving partner's drivers free at the
// candidate time.
func AvailablePartnerDrivers(checker AvailabilityChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		partnerID, err := parseInt64Param(r, "partnerID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		at, err := parseAtParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		available, err := checker.AvailablePartnerDrivers(ctx, partnerID, at)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]driverResponse, 0, len(available))
		for _, driver := range available {
			out = append(out, driverResponse{ID: driver.ID, Name: driver.Name, Phone: driver.Phone})
		}
		responses.WriteSuccess(w, map[string]any{"drivers": out})
	}
}
