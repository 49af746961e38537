package triggers

import (
	"github.com/servico/notifier/internal/notifications"
	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/outbox/payloads"
)

func createdEventFromPayload(p payloads.NotificationCreatedEvent) notifications.CreatedEvent {
	n := p.Notification
	recipient := n.CustomerID
	if p.Queue == enums.QueueWorker {
		recipient = n.WorkerID
	}
	return notifications.CreatedEvent{Record: notifications.Record{
		ID:          n.ID,
		Queue:       p.Queue,
		RecipientID: recipient,
		Title:       n.Title,
		Body:        n.Body,
		Message:     n.Message,
		Type:        n.Type,
		BookingID:   n.BookingID,
		IsRead:      n.IsRead,
		IsSent:      n.IsSent,
		SentAt:      n.SentAt,
		CreatedAt:   n.CreatedAt,
	}}
}

func bookingChangeFromPayload(p payloads.BookingUpdatedEvent) notifications.BookingChange {
	return notifications.BookingChange{
		BookingID: p.BookingID,
		Before:    bookingFromSnapshot(p.Before),
		After:     bookingFromSnapshot(p.After),
	}
}

func bookingFromSnapshot(s payloads.BookingSnapshot) notifications.Booking {
	return notifications.Booking{
		Status:                     enums.BookingStatus(s.Status),
		WorkerStatus:               enums.WorkerStatus(s.WorkerStatus),
		CustomerID:                 s.CustomerID,
		WorkerID:                   s.WorkerID,
		WorkerName:                 s.WorkerName,
		CustomerName:               s.CustomerName,
		ServiceName:                s.ServiceName,
		EstimatedArrivalMinutes:    s.EstimatedArrivalMinutes,
		IsRescueJob:                s.IsRescueJob,
		CustomerDiscountPercentage: s.CustomerDiscountPercentage,
		CustomerDiscount:           s.CustomerDiscount,
		DelayReported:              s.DelayReported,
	}
}
