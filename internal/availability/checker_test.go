package availability

import (
	"context"
	"testing"
	"time"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
)

type fakeCommitments struct {
	times map[int64][]time.Time
	err   error
}

func (f *fakeCommitments) OpenCommitmentTimes(ctx context.Context, driverID int64) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.times[driverID], nil
}

type fakeRoster struct {
	drivers []models.Driver
}

func (f *fakeRoster) ListActivePartnerDrivers(ctx context.Context, partnerID int64) ([]models.Driver, error) {
	return f.drivers, nil
}

func newTestChecker(t *testing.T, commitments CommitmentSource, roster PartnerRoster) *Checker {
	t.Helper()
	if roster == nil {
		roster = &fakeRoster{}
	}
	checker, err := NewChecker(CheckerParams{Commitments: commitments, Roster: roster})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return checker
}

func TestHasConflictOverlappingCommitment(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		existing time.Duration // offset of existing commitment from candidate
		want     bool
	}{
		{"same time", 0, true},
		{"one hour later", time.Hour, true},
		{"two hours later still overlaps buffers", 2 * time.Hour, true},
		{"three hours later boundary touch is clear", 3 * time.Hour, false},
		{"three hours earlier boundary touch is clear", -3 * time.Hour, false},
		{"just inside three hours", 3*time.Hour - time.Minute, true},
		{"four hours later", 4 * time.Hour, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commitments := &fakeCommitments{times: map[int64][]time.Time{
				16: {base.Add(tc.existing)},
			}}
			checker := newTestChecker(t, commitments, nil)

			got, err := checker.HasConflict(context.Background(), 16, base)
			if err != nil {
				t.Fatalf("HasConflict: %v", err)
			}
			if got != tc.want {
				t.Fatalf("HasConflict = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasConflictNoCommitments(t *testing.T) {
	checker := newTestChecker(t, &fakeCommitments{times: map[int64][]time.Time{}}, nil)

	got, err := checker.HasConflict(context.Background(), 16, time.Now())
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if got {
		t.Fatal("driver with no commitments should have no conflict")
	}
}

func TestAvailablePartnerDriversFiltersConflicts(t *testing.T) {
	candidate := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	commitments := &fakeCommitments{times: map[int64][]time.Time{
		1: {candidate.Add(30 * time.Minute)}, // conflicts
		2: {candidate.Add(6 * time.Hour)},    // clear
		3: {},                                // no commitments
	}}
	roster := &fakeRoster{drivers: []models.Driver{{ID: 1}, {ID: 2}, {ID: 3}}}
	checker := newTestChecker(t, commitments, roster)

	available, err := checker.AvailablePartnerDrivers(context.Background(), 7, candidate)
	if err != nil {
		t.Fatalf("AvailablePartnerDrivers: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 available drivers, got %d", len(available))
	}
	if available[0].ID != 2 || available[1].ID != 3 {
		t.Fatalf("unexpected available drivers: %+v", available)
	}
}
