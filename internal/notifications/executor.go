package notifications

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	pkgerrors "github.com/servico/notifier/pkg/errors"
	"github.com/servico/notifier/pkg/logger"
)

type ExecutorParams struct {
	Sink    Sink
	Logger  *logger.Logger
	Metrics enqueueObserver
}

// Executor carries out mapper commands against the sink.
type Executor struct {
	sink    Sink
	logg    *logger.Logger
	metrics enqueueObserver
}

func NewExecutor(params ExecutorParams) (*Executor, error) {
	if params.Sink == nil {
		return nil, errors.New("notification sink is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Executor{sink: params.Sink, logg: params.Logger, metrics: params.Metrics}, nil
}

// Apply runs every command even when an earlier one fails. The returned
// error aggregates the individual failures.
func (e *Executor) Apply(ctx context.Context, commands []Command) error {
	var errs error
	for _, cmd := range commands {
		if err := e.apply(ctx, cmd); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (e *Executor) apply(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case EnqueueNotification:
		rec := c.Record
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"queue":             string(rec.Queue),
			"notification_type": string(rec.Type),
		})
		logCtx = e.logg.WithRecipient(logCtx, string(rec.Queue), rec.RecipientID)
		id, err := e.sink.Enqueue(ctx, rec)
		e.observe(string(rec.Type), err == nil)
		if err != nil {
			e.logg.Error(e.logg.WithFields(logCtx, pkgerrors.Dump(err).Fields()), "failed to enqueue notification", err)
			return fmt.Errorf("enqueue %s: %w", rec.Type, err)
		}
		e.logg.Info(e.logg.WithField(logCtx, "notification_id", id), "notification enqueued")
		return nil
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func (e *Executor) observe(notificationType string, ok bool) {
	if e.metrics != nil {
		e.metrics.IncEnqueue(notificationType, ok)
	}
}
