package notifications

import (
	"fmt"
	"time"

	"github.com/servico/notifier/pkg/enums"
)

// MapDelayEscalation emits one worker notification when a customer reports a
// delay. Only the false to true edge of delayReported fires.
func MapDelayEscalation(change BookingChange, now time.Time) []Command {
	if change.Before.DelayReported || !change.After.DelayReported {
		return nil
	}
	if change.After.WorkerID == "" {
		return nil
	}
	customer := orDefault(change.After.CustomerName, defaultCustomerName)
	return []Command{EnqueueNotification{Record: NewRecord{
		Queue:       enums.QueueWorker,
		RecipientID: change.After.WorkerID,
		Title:       "⚠️ Customer Waiting!",
		Body:        fmt.Sprintf("%s has reported that you're delayed. Please update your status or contact them immediately.", customer),
		Type:        enums.NotificationTypeDelayReported,
		BookingID:   change.BookingID,
		CreatedAt:   now,
	}}}
}
