package enums

import "fmt"

// PlanType maps to the plan_type enum in Postgres.
type PlanType string

const (
	PlanTypeDIY         PlanType = "diy"
	PlanTypeFullService PlanType = "full_service"
)

var validPlanTypes = []PlanType{
	PlanTypeDIY,
	PlanTypeFullService,
}

// IsValid checks whether the given plan type matches the canonical enum.
func (p PlanType) IsValid() bool {
	for _, candidate := range validPlanTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanType converts raw strings into PlanType.
func ParsePlanType(value string) (PlanType, error) {
	for _, candidate := range validPlanTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan type %q", value)
}
