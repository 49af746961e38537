package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servico/notifier/pkg/config"
	"github.com/servico/notifier/pkg/db/models"
	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/logger"
	"github.com/servico/notifier/pkg/outbox/registry"
)

const (
	publishTimeout = 15 * time.Second
	maxIdleDelay   = 10 * time.Second
	jitterWindow   = 250 * time.Millisecond
)

type txRunner interface {
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetters interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicPublisher publishes one message and waits for the server id.
type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) (string, error)
}

// topicSource returns the publisher for a topic, or false when none exists.
type topicSource func(topic string) (topicPublisher, bool)

type RelayParams struct {
	Settings config.OutboxConfig
	Logger   *logger.Logger
	DB       txRunner
	Outbox   outboxStore
	DLQ      deadLetters
	Registry resolver
	Topics   topicSource
	// Checks run once before the first batch.
	Checks map[string]func(context.Context) error
}

// Relay moves committed outbox rows onto their Pub/Sub topics. Each row is
// published at most once per batch and ends the batch published, scheduled
// for retry or dead-lettered.
type Relay struct {
	logg        *logger.Logger
	db          txRunner
	outbox      outboxStore
	dlq         deadLetters
	registry    resolver
	topics      topicSource
	checks      map[string]func(context.Context) error
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Outbox == nil:
		return nil, errors.New("outbox repository is required")
	case params.DLQ == nil:
		return nil, errors.New("dlq repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.Topics == nil:
		return nil, errors.New("topic source is required")
	}
	r := &Relay{
		logg:        params.Logger,
		db:          params.DB,
		outbox:      params.Outbox,
		dlq:         params.DLQ,
		registry:    params.Registry,
		topics:      params.Topics,
		checks:      params.Checks,
		batchSize:   params.Settings.BatchSize,
		maxAttempts: params.Settings.MaxAttempts,
		poll:        time.Duration(params.Settings.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = 50
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 10
	}
	if r.poll <= 0 {
		r.poll = 500 * time.Millisecond
	}
	return r, nil
}

// Run drains the outbox until ctx is done. A batch that made progress is
// followed by another one straight away. Empty batches wait the poll
// interval; failed batches and batches with retried rows back off.
func (r *Relay) Run(ctx context.Context) error {
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			r.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}
		batch, err := r.drain(ctx)
		switch {
		case err != nil:
			failures++
			r.logg.Error(r.logg.WithField(ctx, "consecutive_failures", failures), "outbox batch failed", err)
		case batch.retried > 0:
			failures++
		case batch.handled > 0:
			failures = 0
			continue
		default:
			failures = 0
		}
		if err := wait(ctx, r.idleDelay(failures)); err != nil {
			return err
		}
	}
}

// idleDelay doubles the poll interval per consecutive failure, up to
// maxIdleDelay, and adds up to jitterWindow of jitter.
func (r *Relay) idleDelay(failures int) time.Duration {
	delay := r.poll
	for i := 0; i < failures && delay < maxIdleDelay; i++ {
		delay *= 2
	}
	delay = min(delay, maxIdleDelay)
	return delay + rand.N(jitterWindow)
}

type batchResult struct {
	handled int
	retried int
}

// drain handles one locked batch. Retried rows stay unpublished and would be
// fetched again at once, so the caller backs off when any were seen.
func (r *Relay) drain(ctx context.Context) (batchResult, error) {
	var batch batchResult
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.outbox.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		batch.handled = len(rows)
		for _, row := range rows {
			d := r.attempt(ctx, row)
			if d.verdict == verdictRetry {
				batch.retried++
			}
			if err := r.settle(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
	return batch, err
}

type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictDeadLetter
)

// delivery is the result of one publish attempt for one row.
type delivery struct {
	row       models.OutboxEvent
	verdict   verdict
	reason    enums.OutboxDLQErrorReason
	err       error
	topic     string
	eventID   string
	messageID string
}

func (d delivery) deadLetter(reason enums.OutboxDLQErrorReason, err error) delivery {
	d.verdict = verdictDeadLetter
	d.reason = reason
	d.err = err
	return d
}

func (r *Relay) attempt(ctx context.Context, row models.OutboxEvent) delivery {
	d := delivery{row: row}
	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return d.deadLetter(enums.OutboxDLQReasonNonRetryable, err)
	}
	d.topic = resolved.Descriptor.Topic
	d.eventID = resolved.Envelope.EventID

	pub, ok := r.topics(d.topic)
	if !ok {
		return d.deadLetter(enums.OutboxDLQReasonNonRetryable, fmt.Errorf("no publisher for topic %q", d.topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	d.messageID, err = pub.Publish(publishCtx, buildMessage(row, d.eventID))

	var permanent registry.NonRetryableError
	switch {
	case err == nil:
		d.verdict = verdictPublished
	case errors.As(err, &permanent):
		return d.deadLetter(enums.OutboxDLQReasonNonRetryable, err)
	case row.AttemptCount+1 >= r.maxAttempts:
		return d.deadLetter(enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", err))
	default:
		d.verdict = verdictRetry
		d.err = err
	}
	return d
}

// settle records the delivery inside the batch transaction.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, d delivery) error {
	logCtx := r.logg.WithFields(ctx, d.fields())
	switch d.verdict {
	case verdictPublished:
		if err := r.outbox.MarkPublishedTx(tx, d.row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", d.row.ID, err)
		}
		r.logg.Info(logCtx, "outbox event published")
	case verdictRetry:
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "outbox publish failed, will retry")
		if err := r.outbox.MarkFailedTx(tx, d.row.ID, d.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", d.row.ID, err)
		}
	default:
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "outbox event dead-lettered")
		msg := d.err.Error()
		entry := models.OutboxDLQ{
			EventID:       d.row.ID,
			EventType:     d.row.EventType,
			AggregateType: d.row.AggregateType,
			AggregateID:   d.row.AggregateID,
			Payload:       d.row.Payload,
			ErrorReason:   d.reason,
			ErrorMessage:  &msg,
			AttemptCount:  d.row.AttemptCount,
			FailedAt:      time.Now().UTC(),
		}
		if err := r.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("insert dlq %s: %w", d.row.ID, err)
		}
		if err := r.outbox.MarkTerminalTx(tx, d.row.ID, d.err, r.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", d.row.ID, err)
		}
	}
	return nil
}

func (d delivery) fields() map[string]any {
	fields := map[string]any{
		"outbox_id":      d.row.ID.String(),
		"event_type":     string(d.row.EventType),
		"aggregate_type": string(d.row.AggregateType),
		"aggregate_id":   d.row.AggregateID,
		"attempt_count":  d.row.AttemptCount,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.eventID != "" {
		fields["event_id"] = d.eventID
	}
	if d.messageID != "" {
		fields["message_id"] = d.messageID
	}
	if d.reason != "" {
		fields["dlq_reason"] = string(d.reason)
	}
	return fields
}

// buildMessage carries the envelope as data and the routing keys consumers
// filter on as attributes.
func buildMessage(row models.OutboxEvent, eventID string) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID,
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
