package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/harborbox/dispatch-backend/pkg/logger"
)

type routeAssigner interface {
	AssignRoutes(ctx context.Context, date time.Time) (int, error)
}

// RouteAssignmentJobParams configure the route-assignment job.
type RouteAssignmentJobParams struct {
	Logger   *logger.Logger
	Assigner routeAssigner
}

// NewRouteAssignmentJob groups unrouted packing-supply orders into delivery
// routes for today and tomorrow. Each date is independent; a failure on one
// does not stop the other.
func NewRouteAssignmentJob(params RouteAssignmentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Assigner == nil {
		return nil, fmt.Errorf("route assigner required")
	}
	return &routeAssignmentJob{
		logg:     params.Logger,
		assigner: params.Assigner,
		now:      time.Now,
	}, nil
}

type routeAssignmentJob struct {
	logg     *logger.Logger
	assigner routeAssigner
	now      func() time.Time
}

func (j *routeAssignmentJob) Name() string { return "route-assignment" }

func (j *routeAssignmentJob) Run(ctx context.Context) error {
	today := j.now().UTC().Truncate(24 * time.Hour)
	dates := []time.Time{today, today.Add(24 * time.Hour)}

	var errs error
	total := 0
	for _, date := range dates {
		routed, err := j.assigner.AssignRoutes(ctx, date)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("assign routes for %s: %w",
				date.Format("2006-01-02"), err))
			continue
		}
		total += routed
	}
	if errs != nil {
		return errs
	}

	logCtx := j.logg.WithField(ctx, "orders_routed", total)
	j.logg.Info(logCtx, "route assignment complete")
	return nil
}
