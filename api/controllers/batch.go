package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/harborbox/dispatch-backend/api/responses"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// The cron worker runs these batch operations in-process; the HTTP
// surface exists for operator tooling and manual reruns.
type RouteAssigner interface {
	AssignRoutes(ctx context.Context, date time.Time) (int, error)
}

type RouteOfferer interface {
	OfferRoutes(ctx context.Context, date time.Time, candidates []models.Driver) (int, error)
}

type FleetDriverSource interface {
	ListActiveFleetDrivers(ctx context.Context, fleetTeamID int64) ([]models.Driver, error)
}

func parseDateParam(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "'date' must be YYYY-MM-DD")
	}
	return date, nil
}

// RunRouteAssignment groups the date's unrouted orders into routes.
func RunRouteAssignment(svc RouteAssigner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		date, err := parseDateParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		routed, err := svc.AssignRoutes(ctx, date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"date":          date.Format("2006-01-02"),
			"orders_routed": routed,
		})
	}
}

// RunDriverOffers sends offers for the date's unassigned routes to
// active fleet drivers.
func RunDriverOffers(svc RouteOfferer, drivers FleetDriverSource, fleetTeamID int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		date, err := parseDateParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		candidates, err := drivers.ListActiveFleetDrivers(ctx, fleetTeamID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		offered, err := svc.OfferRoutes(ctx, date, candidates)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"date":        date.Format("2006-01-02"),
			"offers_sent": offered,
			"candidates":  len(candidates),
		})
	}
}
