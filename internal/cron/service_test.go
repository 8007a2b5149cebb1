package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/harborbox/dispatch-backend/pkg/enums"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordingAlerter struct {
	templates  []enums.NotificationTemplate
	recipients []string
	variables  []map[string]string
}

func (r *recordingAlerter) Notify(ctx context.Context, template enums.NotificationTemplate, recipient string, variables map[string]string) {
	r.templates = append(r.templates, template)
	r.recipients = append(r.recipients, recipient)
	r.variables = append(r.variables, variables)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     &fakeLock{},
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if success, ok := jobs[0].(*testJob); ok {
		if success.runs != 1 {
			t.Fatalf("expected success job to run once, ran %d", success.runs)
		}
	} else {
		t.Fatalf("first job type mismatch")
	}
	if failure, ok := jobs[1].(*testJob); ok {
		if failure.runs != 1 {
			t.Fatalf("expected failure job to run once, ran %d", failure.runs)
		}
	} else {
		t.Fatalf("second job type mismatch")
	}
}

func TestServiceAlertsOperatorOnJobFailure(t *testing.T) {
	alerter := &recordingAlerter{}
	registry := NewRegistry(
		&testJob{name: "healthy"},
		&testJob{name: "broken", err: errors.New("db unavailable")},
	)
	service, err := NewService(ServiceParams{
		Logger:        testLogger(),
		Registry:      registry,
		Lock:          &fakeLock{},
		Alerter:       alerter,
		OperatorPhone: "+15550001111",
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	if len(alerter.templates) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerter.templates))
	}
	if alerter.templates[0] != enums.TemplateOperatorCronFailed {
		t.Fatalf("template = %s", alerter.templates[0])
	}
	if alerter.recipients[0] != "+15550001111" {
		t.Fatalf("recipient = %s", alerter.recipients[0])
	}
	if alerter.variables[0]["job"] != "broken" {
		t.Fatalf("alert job variable = %q", alerter.variables[0]["job"])
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	lock := &fakeLock{acquired: true}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran %d times while lock was held", job.runs)
	}
}
