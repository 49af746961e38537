package housekeeping

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeNotificationPurger struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (f *fakeNotificationPurger) DeleteSentBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

type fakeOutboxPurger struct {
	cutoff   time.Time
	attempts int
	err      error
}

func (f *fakeOutboxPurger) DeletePublishedBefore(_ *gorm.DB, cutoff time.Time, terminalAttempts int) (int64, error) {
	f.cutoff = cutoff
	f.attempts = terminalAttempts
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func TestNotificationRetentionJobUsesCutoff(t *testing.T) {
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, time.FixedZone("IST", 19800))
	repo := &fakeNotificationPurger{deleted: 42}
	jobIface, err := NewNotificationRetentionJob(NotificationRetentionParams{DB: passthroughTx{}, Notifications: repo})
	if err != nil {
		t.Fatalf("NewNotificationRetentionJob: %v", err)
	}
	job := jobIface.(*notificationRetentionJob)
	job.now = func() time.Time { return now }

	deleted, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deleted != 42 {
		t.Fatalf("expected 42 rows, got %d", deleted)
	}
	want := now.UTC().Add(-notificationRetentionDays * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
	if repo.cutoff.Location() != time.UTC {
		t.Fatalf("expected utc cutoff, got %s", repo.cutoff.Location())
	}
}

func TestNotificationRetentionJobPropagatesErrors(t *testing.T) {
	job, err := NewNotificationRetentionJob(NotificationRetentionParams{
		DB:            passthroughTx{},
		Notifications: &fakeNotificationPurger{err: errors.New("boom")},
		RetentionDays: 3,
	})
	if err != nil {
		t.Fatalf("NewNotificationRetentionJob: %v", err)
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOutboxRetentionJobDefaults(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPurger{}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionParams{DB: passthroughTx{}, Outbox: repo})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	deleted, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("expected 7 rows, got %d", deleted)
	}
	if want := now.Add(-outboxRetentionDays * 24 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
	if repo.attempts != outboxTerminalAttempts {
		t.Fatalf("expected terminal attempts %d, got %d", outboxTerminalAttempts, repo.attempts)
	}
}

func TestOutboxRetentionJobPropagatesErrors(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		DB:               passthroughTx{},
		Outbox:           &fakeOutboxPurger{err: errors.New("boom")},
		TerminalAttempts: 3,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestJobConstructorsValidate(t *testing.T) {
	if _, err := NewNotificationRetentionJob(NotificationRetentionParams{Notifications: &fakeNotificationPurger{}}); err == nil {
		t.Fatal("expected missing db error")
	}
	if _, err := NewNotificationRetentionJob(NotificationRetentionParams{DB: passthroughTx{}}); err == nil {
		t.Fatal("expected missing repository error")
	}
	if _, err := NewOutboxRetentionJob(OutboxRetentionParams{Outbox: &fakeOutboxPurger{}}); err == nil {
		t.Fatal("expected missing db error")
	}
	if _, err := NewOutboxRetentionJob(OutboxRetentionParams{DB: passthroughTx{}}); err == nil {
		t.Fatal("expected missing repository error")
	}
}
