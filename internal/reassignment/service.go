package reassignment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/harborbox/dispatch-backend/internal/dispatch"
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/courier"
	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	"github.com/harborbox/dispatch-backend/pkg/redis"
)

const appointmentLockTTL = 30 * time.Second

// Classifier resolves a driver's effective type.
type Classifier interface {
	Classify(ctx context.Context, driverID int64) (enums.DriverType, error)
}

// CourierClient mirrors task changes to the delivery provider.
type CourierClient interface {
	CreateTask(ctx context.Context, params courier.TaskParams) (*courier.Task, error)
	UpdateTask(ctx context.Context, taskID string, params courier.TaskParams) (*courier.Task, error)
	CancelTask(ctx context.Context, taskID string) error
}

// Service reconciles an appointment's driver assignments after an edit:
// it computes the plan under a per-appointment advisory lock, applies it
// to the task rows in one transaction, then mirrors the result to the
// delivery provider.
type Service struct {
	tasks      TaskRepository
	classifier Classifier
	courier    CourierClient
	locks      redis.LockStore
	log        *logger.Logger
	dispatch   config.DispatchConfig
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Tasks      TaskRepository
	Classifier Classifier
	Courier    CourierClient
	Locks      redis.LockStore
	Log        *logger.Logger
	Dispatch   config.DispatchConfig
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Tasks == nil {
		return nil, fmt.Errorf("reassignment: service requires a task repository")
	}
	if p.Classifier == nil {
		return nil, fmt.Errorf("reassignment: service requires a classifier")
	}
	if p.Courier == nil {
		return nil, fmt.Errorf("reassignment: service requires a courier client")
	}
	if p.Locks == nil {
		return nil, fmt.Errorf("reassignment: service requires a lock store")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("reassignment: service requires a logger")
	}
	return &Service{
		tasks:      p.Tasks,
		classifier: p.Classifier,
		courier:    p.Courier,
		locks:      p.Locks,
		log:        p.Log,
		dispatch:   p.Dispatch,
	}, nil
}

// Reconcile recomputes and applies driver assignments for the
// appointment's current shape. The appointment row itself must already be
// persisted with its edited plan type, unit count, time, and partner.
func (s *Service) Reconcile(ctx context.Context, appt *models.Appointment) (Plan, error) {
	ctx = s.log.WithAppointmentID(ctx, appt.ID.String())

	release, err := s.lockAppointment(ctx, appt.ID.String())
	if err != nil {
		return Plan{}, err
	}
	defer release()

	tasks, err := s.tasks.ListActiveByAppointment(ctx, appt.ID)
	if err != nil {
		return Plan{}, err
	}

	// Completed tasks are settled work: they anchor their (unit, step)
	// slot during apply but never enter the plan, so finished steps are
	// neither reassigned nor re-dispatched.
	var open []models.Task
	for _, task := range tasks {
		if task.State != enums.TaskStateCompleted {
			open = append(open, task)
		}
	}

	driverTypes := map[int64]enums.DriverType{}
	for _, task := range open {
		if task.DriverID == nil {
			continue
		}
		id := *task.DriverID
		if _, seen := driverTypes[id]; seen {
			continue
		}
		driverType, err := s.classifier.Classify(ctx, id)
		if err != nil {
			return Plan{}, err
		}
		driverTypes[id] = driverType
	}

	plan, err := ComputePlan(PlanInput{
		Tasks:              open,
		DriverTypes:        driverTypes,
		NewPlanType:        appt.PlanType,
		NewUnitCount:       appt.UnitCount,
		NewMovingPartnerID: appt.MovingPartnerID,
	})
	if err != nil {
		return Plan{}, err
	}

	created, updated, cancelled, err := s.applyPlan(ctx, appt, tasks, plan)
	if err != nil {
		return Plan{}, err
	}

	if err := s.pushToCourier(ctx, appt, created, updated, cancelled); err != nil {
		return Plan{}, err
	}

	s.log.Info(ctx, fmt.Sprintf("reconciled appointment: %d kept, %d removed, %d units open",
		len(plan.DriversToKeep), len(plan.DriversToRemove), len(plan.UnitsNeedingNewDriver)))
	return plan, nil
}

// applyPlan mutates the task rows in one transaction and reports which
// rows still need courier-side creates, updates, and cancels.
func (s *Service) applyPlan(
	ctx context.Context,
	appt *models.Appointment,
	tasks []models.Task,
	plan Plan,
) (created, updated []*models.Task, cancelled []string, err error) {
	driverByUnit := map[int]int64{}
	for _, kept := range plan.DriversToKeep {
		driverByUnit[kept.NewUnit] = kept.DriverID
	}

	existing := map[int]map[enums.TaskStep]*models.Task{}
	for i := range tasks {
		task := &tasks[i]
		if existing[task.UnitNumber] == nil {
			existing[task.UnitNumber] = map[enums.TaskStep]*models.Task{}
		}
		existing[task.UnitNumber][task.Step] = task
	}

	site := dispatch.CustomerSite{Address: appt.Address, Lat: appt.Lat, Lng: appt.Lng}

	err = s.tasks.Transaction(ctx, func(tx TaskRepository) error {
		// Units beyond the new count are superseded; their open rows are
		// cancelled, never deleted.
		for unit, steps := range existing {
			if unit <= appt.UnitCount {
				continue
			}
			for _, task := range steps {
				if task.State == enums.TaskStateCompleted {
					continue
				}
				task.Cancelled = true
				if err := tx.Save(ctx, task); err != nil {
					return err
				}
				if task.CourierTaskID != "" {
					cancelled = append(cancelled, task.CourierTaskID)
				}
			}
		}

		for unit := 1; unit <= appt.UnitCount; unit++ {
			var driverID *int64
			if id, ok := driverByUnit[unit]; ok {
				driverID = &id
			}

			for _, step := range []enums.TaskStep{
				enums.TaskStepWarehousePickup,
				enums.TaskStepCustomerService,
				enums.TaskStepWarehouseReturn,
				enums.TaskStepAdmin,
			} {
				task := existing[unit][step]
				if task != nil && task.State == enums.TaskStateCompleted {
					continue
				}
				isNew := task == nil
				if isNew {
					task = &models.Task{
						AppointmentID: appt.ID,
						UnitNumber:    unit,
						Step:          step,
					}
				}

				// Windows and destinations are recomputed on every
				// reconcile; the planner is idempotent so unchanged
				// appointments yield unchanged windows.
				if step.HasTravelWindow() {
					window, err := dispatch.Window(appt.ScheduledAt, step)
					if err != nil {
						return err
					}
					after, before := window.CompleteAfter, window.CompleteBefore
					task.CompleteAfter, task.CompleteBefore = &after, &before
				}
				destination := dispatch.StepDestination(s.dispatch, site, step)
				task.DestinationAddress = destination.Address
				task.DestinationLat = destination.Lat
				task.DestinationLng = destination.Lng

				task.DriverID = driverID
				if driverID != nil {
					task.State = enums.TaskStateActive
				} else {
					task.State = enums.TaskStateUnassigned
				}

				if isNew {
					if err := tx.Create(ctx, task); err != nil {
						return err
					}
					created = append(created, task)
					continue
				}
				if err := tx.Save(ctx, task); err != nil {
					return err
				}
				if task.CourierTaskID != "" {
					updated = append(updated, task)
				} else {
					created = append(created, task)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return created, updated, cancelled, nil
}

// pushToCourier mirrors the applied plan to the delivery provider. The
// database is already committed at this point; provider failures are
// collected so one bad call does not strand the rest.
func (s *Service) pushToCourier(
	ctx context.Context,
	appt *models.Appointment,
	created, updated []*models.Task,
	cancelled []string,
) error {
	var errs error

	for _, courierTaskID := range cancelled {
		if err := s.courier.CancelTask(ctx, courierTaskID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel courier task %s: %w", courierTaskID, err))
		}
	}

	for _, task := range created {
		remote, err := s.courier.CreateTask(ctx, s.courierParams(appt, task))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("create courier task for unit %d step %d: %w",
				task.UnitNumber, task.Step, err))
			continue
		}
		task.CourierTaskID = remote.ID
		task.CourierTaskShortID = remote.ShortID
		if err := s.tasks.Save(ctx, task); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	for _, task := range updated {
		if _, err := s.courier.UpdateTask(ctx, task.CourierTaskID, s.courierParams(appt, task)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("update courier task %s: %w", task.CourierTaskID, err))
		}
	}

	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "push tasks to delivery provider")
	}
	return nil
}

func (s *Service) courierParams(appt *models.Appointment, task *models.Task) courier.TaskParams {
	return courier.TaskParams{
		Destination: courier.Destination{
			Address: task.DestinationAddress,
			Lat:     task.DestinationLat,
			Lng:     task.DestinationLng,
		},
		CompleteAfter:  task.CompleteAfter,
		CompleteBefore: task.CompleteBefore,
		Recipient: courier.Recipient{
			Name:  appt.CustomerName,
			Phone: appt.CustomerPhone,
		},
		Metadata: []courier.MetadataEntry{
			{Name: "job_type", Type: "string", Value: string(enums.CourierJobStorageUnit)},
			{Name: "step", Type: "number", Value: strconv.Itoa(int(task.Step))},
			{Name: "appointment_id", Type: "string", Value: appt.ID.String(), Visibility: "api"},
		},
	}
}

// lockAppointment serializes reconciliation per appointment id with a
// SETNX advisory lock. Release only deletes the key while this holder
// still owns it, so an expired lock taken over by another reconcile is
// left alone.
func (s *Service) lockAppointment(ctx context.Context, appointmentID string) (func(), error) {
	key := s.locks.LockKey("appointment", appointmentID)
	owner := uuid.NewString()

	acquired, err := s.locks.SetNX(ctx, key, owner, appointmentLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire appointment lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"appointment is already being reconciled")
	}

	release := func() {
		current, err := s.locks.Get(ctx, key)
		if err != nil || current != owner {
			return
		}
		if err := s.locks.Del(ctx, key); err != nil {
			s.log.Warn(ctx, "failed to release appointment lock")
		}
	}
	return release, nil
}
