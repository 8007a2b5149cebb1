package enums

import "fmt"

// NotificationTemplate names a message template known to the dispatcher.
type NotificationTemplate string

const (
	TemplatePackingSupplyStarted   NotificationTemplate = "packing_supply_started"
	TemplatePackingSupplyArrival   NotificationTemplate = "packing_supply_arrival"
	TemplatePackingSupplyDelivered NotificationTemplate = "packing_supply_delivered"
	TemplatePackingSupplyFailed    NotificationTemplate = "packing_supply_failed"
	TemplateDriverOffer            NotificationTemplate = "driver_offer"
	TemplateOperatorPayoutFailed   NotificationTemplate = "operator_payout_failed"
	TemplateOperatorCronFailed     NotificationTemplate = "operator_cron_failed"
)

var validNotificationTemplates = []NotificationTemplate{
	TemplatePackingSupplyStarted,
	TemplatePackingSupplyArrival,
	TemplatePackingSupplyDelivered,
	TemplatePackingSupplyFailed,
	TemplateDriverOffer,
	TemplateOperatorPayoutFailed,
	TemplateOperatorCronFailed,
}

// IsValid checks whether the given template matches the canonical enum.
func (n NotificationTemplate) IsValid() bool {
	for _, candidate := range validNotificationTemplates {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationTemplate converts raw strings into NotificationTemplate.
func ParseNotificationTemplate(value string) (NotificationTemplate, error) {
	for _, candidate := range validNotificationTemplates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification template %q", value)
}
