package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/servico/notifier/internal/push"
	pkgerrors "github.com/servico/notifier/pkg/errors"
	"github.com/servico/notifier/pkg/logger"
)

// Status is the terminal state of one dispatch.
type Status string

const (
	StatusSent              Status = "sent"
	StatusNoRecipient       Status = "no_recipient"
	StatusRecipientNotFound Status = "recipient_not_found"
	StatusNoToken           Status = "no_token"
	StatusLookupFailed      Status = "lookup_failed"
	StatusTokenRejected     Status = "token_rejected"
	StatusSendFailed        Status = "send_failed"
)

// Outcome reports what Dispatch did. It never signals a retry.
type Outcome struct {
	Status    Status
	MessageID string
}

type DispatcherParams struct {
	Directory Directory
	Gateway   Gateway
	Sink      Sink
	Logger    *logger.Logger
	Metrics   dispatchObserver
	Now       func() time.Time
}

// Dispatcher turns a created notification record into a push send.
type Dispatcher struct {
	directory Directory
	gateway   Gateway
	sink      Sink
	logg      *logger.Logger
	metrics   dispatchObserver
	now       func() time.Time
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Directory == nil {
		return nil, errors.New("recipient directory is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("push gateway is required")
	}
	if params.Sink == nil {
		return nil, errors.New("notification sink is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Dispatcher{
		directory: params.Directory,
		gateway:   params.Gateway,
		sink:      params.Sink,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// Dispatch delivers the record's push notification. Every failure is logged
// and absorbed; the caller always acknowledges the event.
func (d *Dispatcher) Dispatch(ctx context.Context, event CreatedEvent) (out Outcome) {
	rec := event.Record
	started := time.Now()
	ctx = d.logg.WithFields(ctx, map[string]any{
		"notification_id": rec.ID,
		"queue":           string(rec.Queue),
	})
	defer func() {
		if r := recover(); r != nil {
			d.logg.Error(ctx, "notification dispatch panicked", fmt.Errorf("panic: %v", r))
			out = Outcome{Status: StatusSendFailed}
		}
		if d.metrics != nil {
			d.metrics.ObserveDispatch(string(rec.Queue), string(out.Status), time.Since(started))
		}
	}()

	if rec.RecipientID == "" {
		d.logg.Info(ctx, fmt.Sprintf("no %s in notification", rec.Queue.RecipientField()))
		return Outcome{Status: StatusNoRecipient}
	}
	ctx = d.logg.WithRecipient(ctx, string(rec.Queue), rec.RecipientID)

	profile, err := d.directory.Lookup(ctx, rec.Queue, rec.RecipientID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			d.logg.Info(ctx, "recipient not found")
			return Outcome{Status: StatusRecipientNotFound}
		}
		d.logg.Error(d.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "recipient lookup failed", err)
		return Outcome{Status: StatusLookupFailed}
	}

	token, ok := profile.Token()
	if !ok {
		d.logg.Info(ctx, "recipient has no push token")
		return Outcome{Status: StatusNoToken}
	}

	messageID, err := d.gateway.Send(ctx, BuildMessage(token, rec))
	if err != nil {
		return d.handleSendFailure(ctx, rec, token, err)
	}

	ctx = d.logg.WithField(ctx, "message_id", messageID)
	if err := d.sink.MarkSent(ctx, rec.Queue, rec.ID, d.now()); err != nil {
		d.logg.Error(d.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "failed to mark notification sent", err)
	} else {
		d.logg.Info(ctx, "notification sent")
	}
	return Outcome{Status: StatusSent, MessageID: messageID}
}

func (d *Dispatcher) handleSendFailure(ctx context.Context, rec Record, token string, err error) Outcome {
	kind := push.KindOf(err)
	ctx = d.logg.WithField(ctx, "push_error_kind", string(kind))
	if !push.IsTokenRejected(err) {
		d.logg.Error(ctx, "push delivery failed", err)
		return Outcome{Status: StatusSendFailed}
	}

	d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "push token rejected")
	// Only the rejected token is cleared; a token rotated in the meantime survives.
	if clearErr := d.directory.ClearToken(ctx, rec.Queue, rec.RecipientID, token); clearErr != nil {
		d.logg.Error(ctx, "failed to clear push token", clearErr)
	} else {
		d.logg.Info(ctx, "removed invalid push token")
	}
	return Outcome{Status: StatusTokenRejected}
}
