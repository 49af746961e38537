package enums

import "fmt"

// OutboxAggregateType names the collection an outbox event originates from.
type OutboxAggregateType string

const (
	AggregateWorkerNotification   OutboxAggregateType = "worker_notification"
	AggregateCustomerNotification OutboxAggregateType = "customer_notification"
	AggregateBookingRequest       OutboxAggregateType = "booking_request"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateWorkerNotification,
	AggregateCustomerNotification,
	AggregateBookingRequest,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// AggregateForQueue maps a notification queue to its aggregate type.
func AggregateForQueue(queue NotificationQueue) OutboxAggregateType {
	if queue == QueueWorker {
		return AggregateWorkerNotification
	}
	return AggregateCustomerNotification
}

// OutboxEventType is the change-feed event kind.
type OutboxEventType string

const (
	EventNotificationCreated OutboxEventType = "notification_created"
	EventBookingUpdated      OutboxEventType = "booking_updated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventNotificationCreated,
	EventBookingUpdated,
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

type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
