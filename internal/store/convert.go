package store

import (
	"github.com/servico/notifier/pkg/db/models"
	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/outbox/payloads"
)

func workerNotificationSnapshot(row models.WorkerNotification) payloads.NotificationCreatedEvent {
	return payloads.NotificationCreatedEvent{
		Queue: enums.QueueWorker,
		Notification: payloads.NotificationSnapshot{
			ID:        row.ID,
			WorkerID:  row.WorkerID,
			Title:     row.Title,
			Message:   row.Message,
			Type:      row.Type,
			BookingID: row.BookingID,
			IsRead:    row.IsRead,
			IsSent:    row.IsSent,
			SentAt:    row.SentAt,
			CreatedAt: row.CreatedAt,
		},
	}
}

func customerNotificationSnapshot(row models.CustomerNotification) payloads.NotificationCreatedEvent {
	return payloads.NotificationCreatedEvent{
		Queue: enums.QueueCustomer,
		Notification: payloads.NotificationSnapshot{
			ID:         row.ID,
			CustomerID: row.CustomerID,
			Title:      row.Title,
			Body:       row.Body,
			Message:    row.Message,
			Type:       row.Type,
			BookingID:  row.BookingID,
			IsRead:     row.IsRead,
			IsSent:     row.IsSent,
			SentAt:     row.SentAt,
			CreatedAt:  row.CreatedAt,
		},
	}
}
