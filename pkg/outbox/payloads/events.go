package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/servico/notifier/pkg/enums"
)

// NotificationCreatedEvent carries the snapshot of a freshly created
// notification record. It stands in for a document-creation trigger.
type NotificationCreatedEvent struct {
	Queue        enums.NotificationQueue `json:"queue" validate:"required,oneof=worker customer"`
	Notification NotificationSnapshot    `json:"notification"`
}

// NotificationSnapshot mirrors a worker or customer notification document.
// Only one of WorkerID/CustomerID is set, depending on the queue.
type NotificationSnapshot struct {
	ID         string     `json:"id" validate:"required"`
	WorkerID   string     `json:"workerId,omitempty"`
	CustomerID string     `json:"customerId,omitempty"`
	Title      string     `json:"title,omitempty"`
	Body       string     `json:"body,omitempty"`
	Message    string     `json:"message,omitempty"`
	Type       string     `json:"type,omitempty"`
	BookingID  string     `json:"bookingId,omitempty"`
	IsRead     bool       `json:"isRead"`
	IsSent     *bool      `json:"isSent,omitempty"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// BookingUpdatedEvent carries the before/after snapshots of one booking write.
type BookingUpdatedEvent struct {
	BookingID string          `json:"bookingId" validate:"required"`
	Before    BookingSnapshot `json:"before"`
	After     BookingSnapshot `json:"after"`
}

// BookingSnapshot is the subset of a booking request the mappers observe.
type BookingSnapshot struct {
	Status                     string          `json:"status"`
	WorkerStatus               string          `json:"workerStatus"`
	CustomerID                 string          `json:"customerId,omitempty"`
	WorkerID                   string          `json:"workerId,omitempty"`
	WorkerName                 string          `json:"workerName,omitempty"`
	CustomerName               string          `json:"customerName,omitempty"`
	ServiceName                string          `json:"serviceName,omitempty"`
	EstimatedArrivalMinutes    int             `json:"estimatedArrivalMinutes,omitempty" validate:"gte=0"`
	IsRescueJob                bool            `json:"isRescueJob"`
	CustomerDiscountPercentage decimal.Decimal `json:"customerDiscountPercentage"`
	CustomerDiscount           decimal.Decimal `json:"customerDiscount"`
	DelayReported              bool            `json:"delayReported"`
}
