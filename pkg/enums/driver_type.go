package enums

import "fmt"

// DriverType classifies how a driver is affiliated with the operator.
type DriverType string

const (
	// DriverTypeFleet marks drivers on the operator's own dispatch team.
	DriverTypeFleet DriverType = "fleet"
	// DriverTypePartner marks drivers rostered by a third-party moving partner.
	DriverTypePartner DriverType = "partner"
)

var validDriverTypes = []DriverType{
	DriverTypeFleet,
	DriverTypePartner,
}

// IsValid checks whether the given type matches the canonical enum.
func (d DriverType) IsValid() bool {
	for _, candidate := range validDriverTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverType converts raw strings into DriverType.
func ParseDriverType(value string) (DriverType, error) {
	for _, candidate := range validDriverTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver type %q", value)
}
