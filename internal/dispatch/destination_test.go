package dispatch

import (
	"testing"

	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/enums"
)

func TestStepDestination(t *testing.T) {
	cfg := config.DispatchConfig{
		WarehouseAddress: "500 Harbor Blvd",
		WarehouseLat:     33.75,
		WarehouseLng:     -118.2,
	}
	site := CustomerSite{Address: "12 Main St", Lat: 34.0, Lng: -118.4}

	for _, step := range []enums.TaskStep{enums.TaskStepWarehousePickup, enums.TaskStepWarehouseReturn} {
		dest := StepDestination(cfg, site, step)
		if dest.Address != cfg.WarehouseAddress {
			t.Fatalf("step %d: expected warehouse destination, got %q", step, dest.Address)
		}
	}
	for _, step := range []enums.TaskStep{enums.TaskStepCustomerService, enums.TaskStepAdmin} {
		dest := StepDestination(cfg, site, step)
		if dest.Address != site.Address {
			t.Fatalf("step %d: expected customer destination, got %q", step, dest.Address)
		}
	}
}
