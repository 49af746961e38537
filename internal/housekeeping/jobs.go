package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	notificationRetentionDays = 30
	outboxRetentionDays       = 7
	outboxTerminalAttempts    = 10
)

type sentNotificationPurger interface {
	DeleteSentBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type outboxPurger interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, terminalAttempts int) (int64, error)
}

// NotificationRetentionParams configure the delivered-notification purge.
type NotificationRetentionParams struct {
	DB            txRunner
	Notifications sentNotificationPurger
	RetentionDays int
}

// NewNotificationRetentionJob deletes notification records delivered more
// than RetentionDays ago from both queues.
func NewNotificationRetentionJob(params NotificationRetentionParams) (Job, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Notifications == nil {
		return nil, errors.New("notification repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = notificationRetentionDays
	}
	return &notificationRetentionJob{db: params.DB, repo: params.Notifications, days: days, now: time.Now}, nil
}

type notificationRetentionJob struct {
	db   txRunner
	repo sentNotificationPurger
	days int
	now  func() time.Time
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := retentionCutoff(j.now(), j.days)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteSentBefore(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("notification retention: %w", err)
	}
	return deleted, nil
}

// OutboxRetentionParams configure the outbox purge.
type OutboxRetentionParams struct {
	DB               txRunner
	Outbox           outboxPurger
	RetentionDays    int
	TerminalAttempts int
}

// NewOutboxRetentionJob deletes published outbox rows, and rows that
// exhausted their publish attempts, once they are older than RetentionDays.
func NewOutboxRetentionJob(params OutboxRetentionParams) (Job, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = outboxRetentionDays
	}
	attempts := params.TerminalAttempts
	if attempts <= 0 {
		attempts = outboxTerminalAttempts
	}
	return &outboxRetentionJob{db: params.DB, repo: params.Outbox, days: days, attempts: attempts, now: time.Now}, nil
}

type outboxRetentionJob struct {
	db       txRunner
	repo     outboxPurger
	days     int
	attempts int
	now      func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := retentionCutoff(j.now(), j.days)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(tx, cutoff, j.attempts)
		deleted = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("outbox retention: %w", err)
	}
	return deleted, nil
}

func retentionCutoff(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
}
