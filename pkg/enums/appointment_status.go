package enums

import "fmt"

// AppointmentStatus maps to the appointment_status enum in Postgres.
type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCanceled   AppointmentStatus = "canceled"
)

var validAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusInProgress,
	AppointmentStatusCompleted,
	AppointmentStatusCanceled,
}

// IsValid checks whether the given status matches the canonical enum.
func (a AppointmentStatus) IsValid() bool {
	for _, candidate := range validAppointmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// Terminal reports whether the appointment can be edited further.
func (a AppointmentStatus) Terminal() bool {
	return a == AppointmentStatusCompleted || a == AppointmentStatusCanceled
}

// ParseAppointmentStatus converts raw strings into AppointmentStatus.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	for _, candidate := range validAppointmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid appointment status %q", value)
}
