package notifications

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/servico/notifier/pkg/enums"
)

const (
	defaultWorkerName   = "Worker"
	defaultServiceName  = "Service"
	defaultCustomerName = "Customer"
	defaultETAMinutes   = 15
)

var hundred = decimal.NewFromInt(100)

// MapBookingTransition decides which customer notifications a booking write
// produces. Rules are independent and evaluated in a fixed order.
func MapBookingTransition(change BookingChange, now time.Time) []Command {
	before, after := change.Before, change.After
	statusChanged := before.Status != after.Status
	workerStatusChanged := before.WorkerStatus != after.WorkerStatus
	rescueAssigned := after.IsRescueJob && !before.IsRescueJob
	if !statusChanged && !workerStatusChanged && !rescueAssigned {
		return nil
	}
	if after.CustomerID == "" {
		return nil
	}

	worker := orDefault(after.WorkerName, defaultWorkerName)
	service := orDefault(after.ServiceName, defaultServiceName)
	emit := func(notificationType enums.NotificationType, title, body string) Command {
		return EnqueueNotification{Record: NewRecord{
			Queue:       enums.QueueCustomer,
			RecipientID: after.CustomerID,
			Title:       title,
			Body:        body,
			Type:        notificationType,
			BookingID:   change.BookingID,
			CreatedAt:   now,
		}}
	}

	var commands []Command
	if workerStatusChanged {
		switch after.WorkerStatus {
		case enums.WorkerStatusOnTheWay:
			eta := after.EstimatedArrivalMinutes
			if eta <= 0 {
				eta = defaultETAMinutes
			}
			commands = append(commands, emit(enums.NotificationTypeWorkerOnTheWay,
				fmt.Sprintf("🚗 %s is on the way!", worker),
				fmt.Sprintf("Your %s worker is heading to your location. ETA: %d minutes.", service, eta)))
		case enums.WorkerStatusArrived:
			commands = append(commands, emit(enums.NotificationTypeWorkerArrived,
				fmt.Sprintf("📍 %s has arrived!", worker),
				"Your worker is at your location. Please let them in."))
		}
	}

	if statusChanged {
		switch after.Status {
		case enums.BookingStatusAccepted:
			commands = append(commands, emit(enums.NotificationTypeBookingConfirmed,
				"✅ Booking Confirmed!",
				fmt.Sprintf("%s has accepted your %s booking.", worker, service)))
		case enums.BookingStatusCompleted:
			commands = append(commands, emit(enums.NotificationTypeJobCompleted,
				"🎉 Job Completed!",
				fmt.Sprintf("Your %s has been completed. Please leave a review!", service)))
		case enums.BookingStatusCancelled:
			commands = append(commands, emit(enums.NotificationTypeBookingCancelled,
				"❌ Booking Cancelled",
				fmt.Sprintf("Your %s booking has been cancelled.", service)))
		}
	}

	if rescueAssigned {
		commands = append(commands, emit(enums.NotificationTypeRescueWorkerAssigned,
			"🦸 New Worker Assigned!",
			fmt.Sprintf("Good news! %s has been assigned to your %s.%s", worker, service,
				discountClause(after.CustomerDiscountPercentage, after.CustomerDiscount))))
	}
	return commands
}

// discountClause renders the rescue discount sentence, or nothing when no
// discount applies. pct is a fraction (0.15 is 15%).
func discountClause(pct, amount decimal.Decimal) string {
	if !pct.IsPositive() {
		return ""
	}
	return fmt.Sprintf(" You'll receive a %s%% discount (₹%s off)!",
		pct.Mul(hundred).Round(0).String(),
		amount.Round(0).String())
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
