package enums

// NotificationType is the semantic tag carried in a record's `type` field and
// forwarded to devices in the push data block. Unknown tags are allowed on
// records written by other services; the dispatcher forwards them verbatim.
type NotificationType string

const (
	NotificationTypeGeneral              NotificationType = "general"
	NotificationTypeWorkerOnTheWay       NotificationType = "worker_on_the_way"
	NotificationTypeWorkerArrived        NotificationType = "worker_arrived"
	NotificationTypeBookingConfirmed     NotificationType = "booking_confirmed"
	NotificationTypeJobCompleted         NotificationType = "job_completed"
	NotificationTypeBookingCancelled     NotificationType = "booking_cancelled"
	NotificationTypeRescueWorkerAssigned NotificationType = "rescue_worker_assigned"
	NotificationTypeDelayReported        NotificationType = "delay_reported"
)

// OrDefault returns the tag, or general when it is blank.
func (n NotificationType) OrDefault() NotificationType {
	if n == "" {
		return NotificationTypeGeneral
	}
	return n
}
