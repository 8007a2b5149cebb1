package reassignment

import (
	"fmt"
	"sort"

	"github.com/harborbox/dispatch-backend/pkg/db/models"
	"github.com/harborbox/dispatch-backend/pkg/enums"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

// PlanInput is everything ComputePlan needs to reconcile driver
// assignments after an appointment edit. Tasks are the appointment's open
// tasks; DriverTypes carries the classification of every driver that
// appears on them.
type PlanInput struct {
	Tasks              []models.Task
	DriverTypes        map[int64]enums.DriverType
	NewPlanType        enums.PlanType
	NewUnitCount       int
	NewMovingPartnerID *int64
}

// KeptDriver records a driver staying on the appointment, possibly
// shifted to a different unit.
type KeptDriver struct {
	DriverID    int64
	CurrentUnit int
	NewUnit     int
}

// RemovedDriver records a driver taken off the appointment and why.
type RemovedDriver struct {
	DriverID int64
	Reason   string
}

// UnitNeed is a unit left without a driver after reconciliation.
type UnitNeed struct {
	UnitNumber   int
	RequiredType enums.DriverType
}

// Plan is the computed assignment diff. It is ephemeral: consumed
// immediately to mutate task rows, never persisted.
type Plan struct {
	DriversToKeep         []KeptDriver
	DriversToRemove       []RemovedDriver
	UnitsNeedingNewDriver []UnitNeed
}

type homeAssignment struct {
	driverID int64
	unit     int
	step     enums.TaskStep
}

// requiredType is the target shape rule: under a full-service plan with a
// moving partner selected, unit 1 belongs to a partner driver; every
// other unit, and every unit on DIY, belongs to a fleet driver.
func requiredType(planType enums.PlanType, partnerID *int64, unit int) enums.DriverType {
	if planType == enums.PlanTypeFullService && partnerID != nil && unit == 1 {
		return enums.DriverTypePartner
	}
	return enums.DriverTypeFleet
}

// ComputePlan reconciles the appointment's current driver assignments
// against the edited plan shape. It is pure and deterministic: identical
// inputs always produce an identical plan, with keeps ordered by current
// unit then driver id, removals by driver id, and unit needs by unit
// number. When several displaced fleet drivers compete for shift targets,
// the lowest driver id takes the lowest available unit.
func ComputePlan(input PlanInput) (Plan, error) {
	if input.NewUnitCount < 1 {
		return Plan{}, pkgerrors.New(pkgerrors.CodeValidation, "unit count must be at least 1")
	}

	// Dedupe assigned drivers; a driver's home unit is the unit of their
	// lowest-step task.
	homes := map[int64]homeAssignment{}
	for _, task := range input.Tasks {
		if task.DriverID == nil || !task.Open() {
			continue
		}
		id := *task.DriverID
		current, seen := homes[id]
		if !seen || task.Step < current.step ||
			(task.Step == current.step && task.UnitNumber < current.unit) {
			homes[id] = homeAssignment{driverID: id, unit: task.UnitNumber, step: task.Step}
		}
	}

	assignments := make([]homeAssignment, 0, len(homes))
	for _, home := range homes {
		if _, ok := input.DriverTypes[home.driverID]; !ok {
			return Plan{}, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("driver %d on appointment has no classification", home.driverID))
		}
		assignments = append(assignments, home)
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].unit != assignments[j].unit {
			return assignments[i].unit < assignments[j].unit
		}
		return assignments[i].driverID < assignments[j].driverID
	})

	plan := Plan{}
	covered := make(map[int]bool, input.NewUnitCount)

	// First pass: drivers whose type already matches their home unit under
	// the new shape stay put. Doing keeps before shifts guarantees a
	// correctly-typed driver is never displaced by someone else's shift.
	var displaced []homeAssignment
	for _, home := range assignments {
		driverType := input.DriverTypes[home.driverID]
		if home.unit <= input.NewUnitCount &&
			driverType == requiredType(input.NewPlanType, input.NewMovingPartnerID, home.unit) {
			plan.DriversToKeep = append(plan.DriversToKeep, KeptDriver{
				DriverID:    home.driverID,
				CurrentUnit: home.unit,
				NewUnit:     home.unit,
			})
			covered[home.unit] = true
			continue
		}
		displaced = append(displaced, home)
	}

	// Second pass: displaced drivers, lowest driver id first so it wins
	// the lowest available shift target.
	sort.Slice(displaced, func(i, j int) bool {
		return displaced[i].driverID < displaced[j].driverID
	})
	for _, home := range displaced {
		driverType := input.DriverTypes[home.driverID]

		// A unit-count reduction removes drivers outright; they do not
		// compete for shift targets.
		if home.unit > input.NewUnitCount {
			plan.DriversToRemove = append(plan.DriversToRemove, RemovedDriver{
				DriverID: home.driverID,
				Reason:   fmt.Sprintf("Unit %d no longer exists", home.unit),
			})
			continue
		}

		if driverType == enums.DriverTypeFleet {
			target := 0
			for unit := 2; unit <= input.NewUnitCount; unit++ {
				if covered[unit] {
					continue
				}
				if requiredType(input.NewPlanType, input.NewMovingPartnerID, unit) == enums.DriverTypeFleet {
					target = unit
					break
				}
			}
			if target != 0 {
				plan.DriversToKeep = append(plan.DriversToKeep, KeptDriver{
					DriverID:    home.driverID,
					CurrentUnit: home.unit,
					NewUnit:     target,
				})
				covered[target] = true
				continue
			}
			plan.DriversToRemove = append(plan.DriversToRemove, RemovedDriver{
				DriverID: home.driverID,
				Reason:   "No available unit to shift to",
			})
			continue
		}

		plan.DriversToRemove = append(plan.DriversToRemove, RemovedDriver{
			DriverID: home.driverID,
			Reason:   "Driver type mismatch",
		})
	}

	for unit := 1; unit <= input.NewUnitCount; unit++ {
		if covered[unit] {
			continue
		}
		plan.UnitsNeedingNewDriver = append(plan.UnitsNeedingNewDriver, UnitNeed{
			UnitNumber:   unit,
			RequiredType: requiredType(input.NewPlanType, input.NewMovingPartnerID, unit),
		})
	}

	sort.Slice(plan.DriversToKeep, func(i, j int) bool {
		if plan.DriversToKeep[i].CurrentUnit != plan.DriversToKeep[j].CurrentUnit {
			return plan.DriversToKeep[i].CurrentUnit < plan.DriversToKeep[j].CurrentUnit
		}
		return plan.DriversToKeep[i].DriverID < plan.DriversToKeep[j].DriverID
	})
	sort.Slice(plan.DriversToRemove, func(i, j int) bool {
		return plan.DriversToRemove[i].DriverID < plan.DriversToRemove[j].DriverID
	})

	return plan, nil
}
