package enums

import "fmt"

// NotificationType maps to the notifications.type check constraint.
type NotificationType string

const (
	NotificationTypeSalePlaced    NotificationType = "sale_placed"
	NotificationTypeSaleConfirmed NotificationType = "sale_confirmed"
	NotificationTypeSaleRejected  NotificationType = "sale_rejected"
	NotificationTypeSaleCancelled NotificationType = "sale_cancelled"
	NotificationTypeSaleExpired   NotificationType = "sale_expired"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSalePlaced,
	NotificationTypeSaleConfirmed,
	NotificationTypeSaleRejected,
	NotificationTypeSaleCancelled,
	NotificationTypeSaleExpired,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
