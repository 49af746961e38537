package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/servico/notifier/pkg/logger"
)

type TriggersParams struct {
	Dispatcher *Dispatcher
	Executor   *Executor
	Logger     *logger.Logger
	Now        func() time.Time
}

// Triggers is the entry surface for document change events.
type Triggers struct {
	dispatcher *Dispatcher
	executor   *Executor
	logg       *logger.Logger
	now        func() time.Time
}

func NewTriggers(params TriggersParams) (*Triggers, error) {
	if params.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if params.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Triggers{
		dispatcher: params.Dispatcher,
		executor:   params.Executor,
		logg:       params.Logger,
		now:        now,
	}, nil
}

// OnNotificationCreated handles a new record in either notification queue.
func (t *Triggers) OnNotificationCreated(ctx context.Context, event CreatedEvent) Outcome {
	return t.dispatcher.Dispatch(ctx, event)
}

// OnBookingUpdated runs the transition and delay rules for one booking write.
// Write failures are logged by the executor and never returned.
func (t *Triggers) OnBookingUpdated(ctx context.Context, change BookingChange) (commands []Command) {
	ctx = t.logg.WithBookingID(ctx, change.BookingID)
	defer func() {
		if r := recover(); r != nil {
			t.logg.Error(ctx, "booking rules panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	now := t.now()
	commands = append(MapBookingTransition(change, now), MapDelayEscalation(change, now)...)
	if len(commands) == 0 {
		return nil
	}
	if err := t.executor.Apply(ctx, commands); err != nil {
		t.logg.Warn(t.logg.WithField(ctx, "error", err.Error()), "booking notifications partially failed")
		return commands
	}
	t.logg.Info(t.logg.WithField(ctx, "notifications", len(commands)), "booking notifications processed")
	return commands
}
