package triggers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/servico/notifier/internal/notifications"
	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/logger"
	"github.com/servico/notifier/pkg/outbox"
	"github.com/servico/notifier/pkg/outbox/payloads"
	"github.com/servico/notifier/pkg/outbox/registry"
)

const tracerName = "github.com/servico/notifier/internal/triggers"

// Handler receives decoded store events.
type Handler interface {
	OnNotificationCreated(ctx context.Context, event notifications.CreatedEvent) notifications.Outcome
	OnBookingUpdated(ctx context.Context, change notifications.BookingChange) []notifications.Command
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

type ServiceParams struct {
	Subscription receiver
	Decoders     payloadDecoder
	Handler      Handler
	Logger       *logger.Logger
	Tracer       trace.Tracer
}

// Service consumes store events from Pub/Sub and routes them to the
// notification triggers. Messages are acknowledged even when handling fails.
type Service struct {
	subscription receiver
	decoders     payloadDecoder
	handler      Handler
	logg         *logger.Logger
	tracer       trace.Tracer
	validate     *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Subscription == nil {
		return nil, errors.New("store events subscription is required")
	}
	if params.Handler == nil {
		return nil, errors.New("trigger handler is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	decoders := params.Decoders
	if decoders == nil {
		decoders = registry.NewStoreEventDecoders()
	}
	tracer := params.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Service{
		subscription: params.Subscription,
		decoders:     decoders,
		handler:      params.Handler,
		logg:         params.Logger,
		tracer:       tracer,
		validate:     newValidator(),
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

type processResult struct {
	nack bool
}

// Run receives messages until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := s.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "unsupported store event")
		return processResult{}
	}
	fields["event_type"] = string(eventType)
	fields["aggregate_id"] = strings.TrimSpace(msg.Attributes["aggregate_id"])

	envelope, err := outbox.OpenEnvelope(msg.Data)
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error()), "invalid store event envelope")
		return processResult{}
	}
	fields["event_id"] = envelope.EventID
	logCtx = s.logg.WithFields(ctx, fields)

	spanCtx, span := s.tracer.Start(logCtx, "triggers."+string(eventType), trace.WithAttributes(
		attribute.String("messaging.message.id", msg.ID),
		attribute.String("servico.event_id", envelope.EventID),
	))
	defer span.End()

	if err := s.route(spanCtx, eventType, envelope); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store event rejected")
		s.logg.Warn(s.logg.WithField(spanCtx, "error", err.Error()), "store event rejected")
		return processResult{}
	}
	if ctx.Err() != nil {
		return processResult{nack: true}
	}
	return processResult{}
}

func (s *Service) route(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	decoded, err := s.decoders.Decode(eventType, envelope.SchemaVersion(), envelope.Data)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	if err := s.validate.Struct(decoded); err != nil {
		return fmt.Errorf("validate %s payload: %w", eventType, err)
	}

	switch payload := decoded.(type) {
	case *payloads.NotificationCreatedEvent:
		out := s.handler.OnNotificationCreated(ctx, createdEventFromPayload(*payload))
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("servico.dispatch_status", string(out.Status)))
	case *payloads.BookingUpdatedEvent:
		commands := s.handler.OnBookingUpdated(ctx, bookingChangeFromPayload(*payload))
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("servico.commands", len(commands)))
	default:
		return fmt.Errorf("unexpected payload %T", decoded)
	}
	return nil
}
