package drivers

import (
	"context"
	"fmt"

	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// Resolver classifies a driver as fleet or partner. Classification is
// never defaulted: a driver that matches neither rule is an error, since
// routing a task through the wrong courier integration is worse than
// failing loudly.
type Resolver struct {
	repo        Repository
	log         *logger.Logger
	fleetTeamID int64
}

// ResolverParams carries the dependencies for NewResolver.
type ResolverParams struct {
	Repo        Repository
	Log         *logger.Logger
	FleetTeamID int64
}

func NewResolver(p ResolverParams) (*Resolver, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("drivers: resolver requires a repository")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("drivers: resolver requires a logger")
	}
	if p.FleetTeamID == 0 {
		return nil, fmt.Errorf("drivers: resolver requires a fleet team id")
	}
	return &Resolver{repo: p.Repo, log: p.Log, fleetTeamID: p.FleetTeamID}, nil
}

// Classify resolves the driver type for driverID. A driver with an active
// moving-partner roster entry is a partner driver regardless of team
// membership; otherwise membership in the fleet team makes them a fleet
// driver.
func (r *Resolver) Classify(ctx context.Context, driverID int64) (enums.DriverType, error) {
	partnerID, err := r.repo.ActivePartnerID(ctx, driverID)
	if err != nil {
		return "", err
	}
	if partnerID != nil {
		return enums.DriverTypePartner, nil
	}

	driver, err := r.repo.FindByID(ctx, driverID)
	if err != nil {
		return "", err
	}
	if driver.TeamIDs.Contains(r.fleetTeamID) {
		return enums.DriverTypeFleet, nil
	}

	r.log.Warn(r.log.WithDriverID(ctx, driverID),
		"driver matches neither partner roster nor fleet team")
	return "", pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("driver %d has no resolvable driver type", driverID))
}
