package enums

import "fmt"

// AppointmentType maps to the appointment_type enum in Postgres.
type AppointmentType string

const (
	AppointmentTypeInitialPickup     AppointmentType = "initial_pickup"
	AppointmentTypeAdditionalStorage AppointmentType = "additional_storage"
	AppointmentTypeStorageUnitAccess AppointmentType = "storage_unit_access"
	AppointmentTypeEndStorageTerm    AppointmentType = "end_storage_term"
)

var validAppointmentTypes = []AppointmentType{
	AppointmentTypeInitialPickup,
	AppointmentTypeAdditionalStorage,
	AppointmentTypeStorageUnitAccess,
	AppointmentTypeEndStorageTerm,
}

// IsValid checks whether the given type matches the canonical enum.
func (a AppointmentType) IsValid() bool {
	for _, candidate := range validAppointmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAppointmentType converts raw strings into AppointmentType.
func ParseAppointmentType(value string) (AppointmentType, error) {
	for _, candidate := range validAppointmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid appointment type %q", value)
}
