package enums

import "fmt"

// NotificationQueue identifies which notification collection a record lives in.
type NotificationQueue string

const (
	QueueWorker   NotificationQueue = "worker"
	QueueCustomer NotificationQueue = "customer"
)

var validNotificationQueues = []NotificationQueue{
	QueueWorker,
	QueueCustomer,
}

// IsValid reports whether the value is a known queue.
func (q NotificationQueue) IsValid() bool {
	for _, candidate := range validNotificationQueues {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseNotificationQueue converts raw input into NotificationQueue.
func ParseNotificationQueue(value string) (NotificationQueue, error) {
	for _, candidate := range validNotificationQueues {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification queue %q", value)
}

// Collection returns the document collection (table) backing the queue.
func (q NotificationQueue) Collection() string {
	switch q {
	case QueueWorker:
		return "worker_notifications"
	case QueueCustomer:
		return "customer_notifications"
	default:
		return ""
	}
}

// RecipientCollection returns the collection holding the queue's recipients.
func (q NotificationQueue) RecipientCollection() string {
	switch q {
	case QueueWorker:
		return "workers"
	case QueueCustomer:
		return "customers"
	default:
		return ""
	}
}

// RecipientField is the record field naming the recipient for this queue.
func (q NotificationQueue) RecipientField() string {
	switch q {
	case QueueWorker:
		return "workerId"
	case QueueCustomer:
		return "customerId"
	default:
		return ""
	}
}
