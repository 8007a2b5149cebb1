package enums

// CourierJobType is the closed set of job kinds carried in webhook metadata.
type CourierJobType string

const (
	CourierJobPackingSupplyDelivery CourierJobType = "packing_supply_delivery"
	CourierJobStorageUnit           CourierJobType = "storage_unit"
)

// ParseCourierJobType maps the raw job_type metadata value onto the closed
// enum. Storage-unit tasks historically carry no job_type tag, so anything
// other than the packing-supply marker routes to the storage-unit flow.
func ParseCourierJobType(value string) CourierJobType {
	if value == string(CourierJobPackingSupplyDelivery) {
		return CourierJobPackingSupplyDelivery
	}
	return CourierJobStorageUnit
}
