package enums

// BookingStatus is the lifecycle state of a booking request. The set is open;
// only the values below drive notifications.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// WorkerStatus tracks the assigned worker's progress toward the job.
type WorkerStatus string

const (
	WorkerStatusIdle     WorkerStatus = "idle"
	WorkerStatusOnTheWay WorkerStatus = "on_the_way"
	WorkerStatusArrived  WorkerStatus = "arrived"
	WorkerStatusWorking  WorkerStatus = "working"
)
