package enums

import "fmt"

// DeliveryStatus maps to the delivery_status enum in Postgres.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

func (s DeliveryStatus) IsValid() bool {
	return s == DeliveryStatusSent || s == DeliveryStatusFailed
}

// ParseDeliveryStatus converts raw strings into DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	switch DeliveryStatus(value) {
	case DeliveryStatusSent:
		return DeliveryStatusSent, nil
	case DeliveryStatusFailed:
		return DeliveryStatusFailed, nil
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
