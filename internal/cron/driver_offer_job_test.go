package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
)

type fakeOfferer struct {
	calls      int
	candidates []models.Driver
	offered    int
	err        error
}

func (f *fakeOfferer) OfferRoutes(ctx context.Context, date time.Time, candidates []models.Driver) (int, error) {
	f.calls++
	f.candidates = candidates
	return f.offered, f.err
}

type fakeDriverLister struct {
	teamID  int64
	drivers []models.Driver
	err     error
}

func (f *fakeDriverLister) ListActiveFleetDrivers(ctx context.Context, fleetTeamID int64) ([]models.Driver, error) {
	f.teamID = fleetTeamID
	return f.drivers, f.err
}

func TestDriverOfferJobPassesFleetCandidates(t *testing.T) {
	offerer := &fakeOfferer{offered: 1}
	lister := &fakeDriverLister{drivers: []models.Driver{{ID: 7}, {ID: 9}}}
	job, err := NewDriverOfferJob(DriverOfferJobParams{
		Logger:      testLogger(),
		Offerer:     offerer,
		Drivers:     lister,
		FleetTeamID: 42,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lister.teamID != 42 {
		t.Fatalf("fleet team id = %d", lister.teamID)
	}
	if offerer.calls != 2 {
		t.Fatalf("expected offers for today and tomorrow, got %d calls", offerer.calls)
	}
	if len(offerer.candidates) != 2 {
		t.Fatalf("candidates = %d", len(offerer.candidates))
	}
}

func TestDriverOfferJobSkipsWhenNoCandidates(t *testing.T) {
	offerer := &fakeOfferer{}
	job, err := NewDriverOfferJob(DriverOfferJobParams{
		Logger:      testLogger(),
		Offerer:     offerer,
		Drivers:     &fakeDriverLister{},
		FleetTeamID: 42,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if offerer.calls != 0 {
		t.Fatalf("no candidates should mean no offers, got %d calls", offerer.calls)
	}
}

func TestDriverOfferJobPropagatesListerError(t *testing.T) {
	job, err := NewDriverOfferJob(DriverOfferJobParams{
		Logger:      testLogger(),
		Offerer:     &fakeOfferer{},
		Drivers:     &fakeDriverLister{err: errors.New("db down")},
		FleetTeamID: 42,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
