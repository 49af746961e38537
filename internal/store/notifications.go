package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servico/notifier/internal/notifications"
	"github.com/servico/notifier/pkg/db"
	"github.com/servico/notifier/pkg/db/models"
	"github.com/servico/notifier/pkg/enums"
	pkgerrors "github.com/servico/notifier/pkg/errors"
	"github.com/servico/notifier/pkg/outbox"
)

// NotificationRepository persists worker and customer notification records.
// Every insert emits notification_created in the same transaction. The event
// row is written before the record so the insert trigger sees it and does not
// emit a second one.
type NotificationRepository struct {
	base
	outbox *outbox.Service
	newID  func() string
}

func NewNotificationRepository(client *db.Client, events *outbox.Service) *NotificationRepository {
	return &NotificationRepository{base: newBase(client), outbox: events, newID: uuid.NewString}
}

// Enqueue appends rec to its queue and returns the generated record id.
func (r *NotificationRepository) Enqueue(ctx context.Context, rec notifications.NewRecord) (string, error) {
	if !rec.Queue.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification queue %q", rec.Queue))
	}
	if rec.RecipientID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	id := r.newID()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := r.withTx(ctx, func(tx *gorm.DB) error {
		var (
			row   any
			event any
		)
		switch rec.Queue {
		case enums.QueueWorker:
			worker := models.WorkerNotification{
				ID:        id,
				WorkerID:  rec.RecipientID,
				Title:     rec.Title,
				Message:   rec.Body,
				Type:      string(rec.Type),
				BookingID: rec.BookingID,
				CreatedAt: createdAt,
			}
			row, event = &worker, workerNotificationSnapshot(worker)
		default:
			customer := models.CustomerNotification{
				ID:         id,
				CustomerID: rec.RecipientID,
				Title:      rec.Title,
				Body:       rec.Body,
				Type:       string(rec.Type),
				BookingID:  rec.BookingID,
				CreatedAt:  createdAt,
			}
			row, event = &customer, customerNotificationSnapshot(customer)
		}
		err := r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationCreated,
			AggregateType: enums.AggregateForQueue(rec.Queue),
			AggregateID:   id,
			Data:          event,
			OccurredAt:    createdAt,
		})
		if err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return "", pkgerrors.Wrap(pkgerrors.CodeConflict, err, "notification already exists")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue notification")
	}
	return id, nil
}

// MarkSent sets isSent and sentAt on a record. Repeated calls are harmless.
func (r *NotificationRepository) MarkSent(ctx context.Context, queue enums.NotificationQueue, id string, at time.Time) error {
	model, err := notificationModel(queue)
	if err != nil {
		return err
	}
	res := r.conn(ctx).
		Model(model).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"is_sent": true, "sent_at": at})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark notification sent")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// Get loads one record from a queue as seen by the dispatcher.
func (r *NotificationRepository) Get(ctx context.Context, queue enums.NotificationQueue, id string) (notifications.Record, error) {
	switch queue {
	case enums.QueueWorker:
		var row models.WorkerNotification
		if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
			return notifications.Record{}, wrapLookup(err, "notification not found")
		}
		return notifications.Record{
			ID:          row.ID,
			Queue:       enums.QueueWorker,
			RecipientID: row.WorkerID,
			Title:       row.Title,
			Message:     row.Message,
			Type:        row.Type,
			BookingID:   row.BookingID,
			IsRead:      row.IsRead,
			IsSent:      row.IsSent,
			SentAt:      row.SentAt,
			CreatedAt:   row.CreatedAt,
		}, nil
	case enums.QueueCustomer:
		var row models.CustomerNotification
		if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
			return notifications.Record{}, wrapLookup(err, "notification not found")
		}
		return notifications.Record{
			ID:          row.ID,
			Queue:       enums.QueueCustomer,
			RecipientID: row.CustomerID,
			Title:       row.Title,
			Body:        row.Body,
			Message:     row.Message,
			Type:        row.Type,
			BookingID:   row.BookingID,
			IsRead:      row.IsRead,
			IsSent:      row.IsSent,
			SentAt:      row.SentAt,
			CreatedAt:   row.CreatedAt,
		}, nil
	default:
		return notifications.Record{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification queue %q", queue))
	}
}

// DeleteSentBefore removes delivered records from both queues whose sentAt is
// older than cutoff. Unsent records are kept.
func (r *NotificationRepository) DeleteSentBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		tx = r.conn(ctx)
	}
	var total int64
	for _, model := range []any{&models.WorkerNotification{}, &models.CustomerNotification{}} {
		res := tx.Where("is_sent = ? AND sent_at < ?", true, cutoff).Delete(model)
		if res.Error != nil {
			return total, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete sent notifications")
		}
		total += res.RowsAffected
	}
	return total, nil
}

func notificationModel(queue enums.NotificationQueue) (any, error) {
	switch queue {
	case enums.QueueWorker:
		return &models.WorkerNotification{}, nil
	case enums.QueueCustomer:
		return &models.CustomerNotification{}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification queue %q", queue))
	}
}
