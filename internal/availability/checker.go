package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
)

// Blocked window around an appointment time: one hour of travel before,
// one hour on site, one hour of return travel after.
const (
	bufferBefore = time.Hour
	bufferAfter  = 2 * time.Hour
)

// CommitmentSource yields the appointment times a driver is already
// committed to through open tasks.
type CommitmentSource interface {
	OpenCommitmentTimes(ctx context.Context, driverID int64) ([]time.Time, error)
}

// PartnerRoster lists the active drivers on a moving partner's roster.
type PartnerRoster interface {
	ListActivePartnerDrivers(ctx context.Context, partnerID int64) ([]models.Driver, error)
}

// Checker answers whether a driver can take on an appointment at a
// candidate time without overlapping an existing commitment.
type Checker struct {
	commitments CommitmentSource
	roster      PartnerRoster
}

// CheckerParams carries the dependencies for NewChecker.
type CheckerParams struct {
	Commitments CommitmentSource
	Roster      PartnerRoster
}

func NewChecker(p CheckerParams) (*Checker, error) {
	if p.Commitments == nil {
		return nil, fmt.Errorf("availability: checker requires a commitment source")
	}
	if p.Roster == nil {
		return nil, fmt.Errorf("availability: checker requires a partner roster")
	}
	return &Checker{commitments: p.Commitments, roster: p.Roster}, nil
}

func blockedWindow(t time.Time) (start, end time.Time) {
	return t.Add(-bufferBefore), t.Add(bufferAfter)
}

// overlaps reports strict interval overlap. Windows that merely touch at
// a boundary do not conflict.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// HasConflict reports whether any of the driver's open commitments
// overlaps the candidate time's blocked window.
func (c *Checker) HasConflict(ctx context.Context, driverID int64, candidate time.Time) (bool, error) {
	times, err := c.commitments.OpenCommitmentTimes(ctx, driverID)
	if err != nil {
		return false, err
	}

	candStart, candEnd := blockedWindow(candidate)
	for _, existing := range times {
		existingStart, existingEnd := blockedWindow(existing)
		if overlaps(candStart, candEnd, existingStart, existingEnd) {
			return true, nil
		}
	}
	return false, nil
}

// AvailablePartnerDrivers returns the partner's active drivers who have
// no conflicting commitment at the candidate time, ordered by driver id.
func (c *Checker) AvailablePartnerDrivers(ctx context.Context, partnerID int64, candidate time.Time) ([]models.Driver, error) {
	roster, err := c.roster.ListActivePartnerDrivers(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	available := make([]models.Driver, 0, len(roster))
	for _, driver := range roster {
		conflict, err := c.HasConflict(ctx, driver.ID, candidate)
		if err != nil {
			return nil, err
		}
		if !conflict {
			available = append(available, driver)
		}
	}
	return available, nil
}
