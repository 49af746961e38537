package models

import "time"

// Worker is the slice of a worker profile this service reads and writes.
type Worker struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;default:''"`
	FCMToken  *string   `gorm:"column:fcm_token;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Worker) TableName() string {
	return "workers"
}

// Customer is the slice of a customer profile this service reads and writes.
type Customer struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;default:''"`
	FCMToken  *string   `gorm:"column:fcm_token;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
