package dispatch

import (
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/enums"
)

// Destination is where a dispatch step physically takes place.
type Destination struct {
	Address string
	Lat     float64
	Lng     float64
}

// CustomerSite describes the appointment's customer address.
type CustomerSite struct {
	Address string
	Lat     float64
	Lng     float64
}

// StepDestination resolves the destination for a dispatch step: pickup and
// return run to the warehouse, the customer-service and admin steps run to
// the customer site.
func StepDestination(cfg config.DispatchConfig, site CustomerSite, step enums.TaskStep) Destination {
	switch step {
	case enums.TaskStepWarehousePickup, enums.TaskStepWarehouseReturn:
		return Destination{
			Address: cfg.WarehouseAddress,
			Lat:     cfg.WarehouseLat,
			Lng:     cfg.WarehouseLng,
		}
	default:
		return Destination{
			Address: site.Address,
			Lat:     site.Lat,
			Lng:     site.Lng,
		}
	}
}
