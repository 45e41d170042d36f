package enums

import "fmt"

// OutboxAggregateType maps to outbox_events.aggregate_type.
type OutboxAggregateType string

const (
	AggregateSale OutboxAggregateType = "sale"
)

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateSale
}

// OutboxEventType maps to outbox_events.event_type.
type OutboxEventType string

const (
	EventSalePlaced    OutboxEventType = "sale_placed"
	EventSaleCompleted OutboxEventType = "sale_completed"
	EventSaleRejected  OutboxEventType = "sale_rejected"
	EventSaleCancelled OutboxEventType = "sale_cancelled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSalePlaced,
	EventSaleCompleted,
	EventSaleRejected,
	EventSaleCancelled,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxActorRole records who caused an event. System covers the reaper;
// Moderator covers the admin expiry override.
type OutboxActorRole string

const (
	ActorRoleBuyer      OutboxActorRole = "buyer"
	ActorRoleStoreOwner OutboxActorRole = "store_owner"
	ActorRoleModerator  OutboxActorRole = "moderator"
	ActorRoleSystem     OutboxActorRole = "system"
)
