package models

import "time"

// WorkerNotification is a record in the worker_notifications queue.
type WorkerNotification struct {
	ID        string     `gorm:"column:id;type:text;primaryKey" json:"id"`
	WorkerID  string     `gorm:"column:worker_id;type:text;not null;default:''" json:"workerId"`
	Title     string     `gorm:"column:title;type:text;not null;default:''" json:"title"`
	Message   string     `gorm:"column:message;type:text;not null;default:''" json:"message"`
	Type      string     `gorm:"column:type;type:text;not null;default:''" json:"type"`
	BookingID string     `gorm:"column:booking_id;type:text;not null;default:''" json:"bookingId"`
	IsRead    bool       `gorm:"column:is_read;not null;default:false" json:"isRead"`
	IsSent    *bool      `gorm:"column:is_sent" json:"isSent,omitempty"`
	SentAt    *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (WorkerNotification) TableName() string {
	return "worker_notifications"
}

// CustomerNotification is a record in the customer_notifications queue. Rows
// written by this service carry Body; other writers may only set Message.
type CustomerNotification struct {
	ID         string     `gorm:"column:id;type:text;primaryKey" json:"id"`
	CustomerID string     `gorm:"column:customer_id;type:text;not null;default:''" json:"customerId"`
	Title      string     `gorm:"column:title;type:text;not null;default:''" json:"title"`
	Body       string     `gorm:"column:body;type:text;not null;default:''" json:"body"`
	Message    string     `gorm:"column:message;type:text;not null;default:''" json:"message"`
	Type       string     `gorm:"column:type;type:text;not null;default:''" json:"type"`
	BookingID  string     `gorm:"column:booking_id;type:text;not null;default:''" json:"bookingId"`
	IsRead     bool       `gorm:"column:is_read;not null;default:false" json:"isRead"`
	IsSent     *bool      `gorm:"column:is_sent" json:"isSent,omitempty"`
	SentAt     *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (CustomerNotification) TableName() string {
	return "customer_notifications"
}
