package tracking

import (
	"fmt"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// Step title templates per appointment type. %s is the acting driver: the
// named mover on the primary unit, the generic delivery driver otherwise.
// The text is presentation, but the primary/secondary and per-type
// branching is load-bearing and mirrored in the step derivation.
var titleTemplates = map[enums.AppointmentType][5]string{
	enums.AppointmentTypeInitialPickup: {
		"%s is picking up your storage unit",
		"%s is on the way to you",
		"%s has arrived to load your items",
		"%s is returning your unit to the facility",
		"Your storage unit is checked in",
	},
	enums.AppointmentTypeAdditionalStorage: {
		"%s is picking up your additional unit",
		"%s is on the way to you",
		"%s has arrived to load your items",
		"%s is returning your unit to the facility",
		"Your additional unit is checked in",
	},
	enums.AppointmentTypeStorageUnitAccess: {
		"%s is retrieving your unit for access",
		"%s is on the way to you",
		"%s has arrived with your unit",
		"%s is returning your unit to the facility",
		"Your storage unit is checked back in",
	},
	enums.AppointmentTypeEndStorageTerm: {
		"%s is picking up your unit for delivery",
		"%s is on the way to you",
		"%s has arrived to unload your items",
		"%s is heading back to the facility",
		"Your storage term is closed",
	},
}

const (
	genericActor = "Your mover"
	// Secondary units are always served by a fleet driver and shown
	// generically; the named mover only ever serves the primary unit.
	secondaryActor = "The delivery driver"
)

func stepTitles(appointmentType enums.AppointmentType, primary bool, actor string) [5]string {
	templates, ok := titleTemplates[appointmentType]
	if !ok {
		templates = titleTemplates[enums.AppointmentTypeInitialPickup]
	}

	if !primary {
		actor = secondaryActor
	} else if actor == "" {
		actor = genericActor
	}

	var titles [5]string
	for i, template := range templates {
		titles[i] = template
		if i < 4 {
			titles[i] = fmt.Sprintf(template, actor)
		}
	}
	return titles
}
