package notifications

import (
	"github.com/servico/notifier/internal/push"
	"github.com/servico/notifier/pkg/enums"
)

const (
	defaultWorkerTitle   = "Servico Notification"
	defaultCustomerTitle = "Servico Update"
)

// BuildMessage renders the push payload for rec addressed to token.
func BuildMessage(token string, rec Record) push.Message {
	return push.Message{
		Token: token,
		Notification: push.Notification{
			Title: messageTitle(rec),
			Body:  messageBody(rec),
		},
		Data: push.Data{
			Type:           string(enums.NotificationType(rec.Type).OrDefault()),
			BookingID:      rec.BookingID,
			NotificationID: rec.ID,
			ClickAction:    push.ClickAction,
		},
		Android: push.DefaultAndroid(),
		APNS:    push.DefaultAPNS(),
	}
}

func messageTitle(rec Record) string {
	if rec.Title != "" {
		return rec.Title
	}
	if rec.Queue == enums.QueueWorker {
		return defaultWorkerTitle
	}
	return defaultCustomerTitle
}

// Worker records only carry message; customer records prefer body.
func messageBody(rec Record) string {
	if rec.Queue == enums.QueueCustomer && rec.Body != "" {
		return rec.Body
	}
	return rec.Message
}
