package notifications

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/servico/notifier/internal/push"
	"github.com/servico/notifier/pkg/enums"
)

// Record is a queued notification document. Empty strings mean the field was
// absent on the document.
type Record struct {
	ID          string
	Queue       enums.NotificationQueue
	RecipientID string
	Title       string
	Body        string
	Message     string
	Type        string
	BookingID   string
	IsRead      bool
	IsSent      *bool
	SentAt      *time.Time
	CreatedAt   time.Time
}

// CreatedEvent is delivered once per created notification record, modulo
// redelivery by the change feed.
type CreatedEvent struct {
	Record Record
}

// NewRecord is a notification the mappers want appended to a queue. Body is
// written to the queue's text field: body for customers, message for workers.
type NewRecord struct {
	Queue       enums.NotificationQueue
	RecipientID string
	Title       string
	Body        string
	Type        enums.NotificationType
	BookingID   string
	CreatedAt   time.Time
}

// Profile is the part of a worker or customer profile the dispatcher reads.
type Profile struct {
	ID       string
	Role     enums.NotificationQueue
	FCMToken *string
}

// Token returns the push token when one is stored.
func (p Profile) Token() (string, bool) {
	if p.FCMToken == nil || *p.FCMToken == "" {
		return "", false
	}
	return *p.FCMToken, true
}

// Booking is one snapshot of a booking request.
type Booking struct {
	Status                     enums.BookingStatus
	WorkerStatus               enums.WorkerStatus
	CustomerID                 string
	WorkerID                   string
	WorkerName                 string
	CustomerName               string
	ServiceName                string
	EstimatedArrivalMinutes    int
	IsRescueJob                bool
	CustomerDiscountPercentage decimal.Decimal
	CustomerDiscount           decimal.Decimal
	DelayReported              bool
}

// BookingChange is a single booking write seen as a before/after pair.
type BookingChange struct {
	BookingID string
	Before    Booking
	After     Booking
}

// Command is a side effect decided by a mapper and carried out by the Executor.
type Command interface {
	command()
}

// EnqueueNotification appends Record to its queue.
type EnqueueNotification struct {
	Record NewRecord
}

func (EnqueueNotification) command() {}

// Directory resolves recipients. Lookup reports a missing recipient with a
// NOT_FOUND error from pkg/errors and always reads the current token.
// ClearToken removes token only while it is still the stored one.
type Directory interface {
	Lookup(ctx context.Context, role enums.NotificationQueue, id string) (Profile, error)
	ClearToken(ctx context.Context, role enums.NotificationQueue, id, token string) error
}

// Gateway sends one message to one device. Failures carry a push.Kind.
type Gateway interface {
	Send(ctx context.Context, msg push.Message) (string, error)
}

// Sink appends notification records and records delivery.
type Sink interface {
	Enqueue(ctx context.Context, rec NewRecord) (string, error)
	MarkSent(ctx context.Context, queue enums.NotificationQueue, id string, at time.Time) error
}

type dispatchObserver interface {
	ObserveDispatch(queue, outcome string, took time.Duration)
}

type enqueueObserver interface {
	IncEnqueue(notificationType string, ok bool)
}
