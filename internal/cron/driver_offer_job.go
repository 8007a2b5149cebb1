package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

type routeOfferer interface {
	OfferRoutes(ctx context.Context, date time.Time, candidates []models.Driver) (int, error)
}

type fleetDriverLister interface {
	ListActiveFleetDrivers(ctx context.Context, fleetTeamID int64) ([]models.Driver, error)
}

// DriverOfferJobParams configure the driver-offer job.
type DriverOfferJobParams struct {
	Logger      *logger.Logger
	Offerer     routeOfferer
	Drivers     fleetDriverLister
	FleetTeamID int64
}

// NewDriverOfferJob offers unassigned delivery routes to active fleet
// drivers, one offer per route per run. Routes with an offer still in
// flight are left alone until the next cycle.
func NewDriverOfferJob(params DriverOfferJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Offerer == nil {
		return nil, fmt.Errorf("route offerer required")
	}
	if params.Drivers == nil {
		return nil, fmt.Errorf("driver lister required")
	}
	if params.FleetTeamID == 0 {
		return nil, fmt.Errorf("fleet team id required")
	}
	return &driverOfferJob{
		logg:        params.Logger,
		offerer:     params.Offerer,
		drivers:     params.Drivers,
		fleetTeamID: params.FleetTeamID,
		now:         time.Now,
	}, nil
}

type driverOfferJob struct {
	logg        *logger.Logger
	offerer     routeOfferer
	drivers     fleetDriverLister
	fleetTeamID int64
	now         func() time.Time
}

func (j *driverOfferJob) Name() string { return "driver-offer" }

func (j *driverOfferJob) Run(ctx context.Context) error {
	candidates, err := j.drivers.ListActiveFleetDrivers(ctx, j.fleetTeamID)
	if err != nil {
		return fmt.Errorf("list fleet drivers: %w", err)
	}
	if len(candidates) == 0 {
		j.logg.Warn(ctx, "no active fleet drivers; skipping route offers")
		return nil
	}

	today := j.now().UTC().Truncate(24 * time.Hour)
	dates := []time.Time{today, today.Add(24 * time.Hour)}

	var errs error
	total := 0
	for _, date := range dates {
		offered, err := j.offerer.OfferRoutes(ctx, date, candidates)
		total += offered
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("offer routes for %s: %w",
				date.Format("2006-01-02"), err))
		}
	}
	if errs != nil {
		return errs
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"offers_sent": total,
		"candidates":  len(candidates),
	})
	j.logg.Info(logCtx, "driver offers complete")
	return nil
}
