package registry

import (
	"encoding/json"
	"testing"

	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventBookingUpdated, 2, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"bookingId":"b1"}`)
	output, err := reg.Decode(enums.EventBookingUpdated, 2, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["bookingId"] != "b1" {
		t.Fatalf("unexpected output %+v", output)
	}
	if _, err := reg.Decode(enums.EventBookingUpdated, 1, input); err == nil {
		t.Fatalf("expected missing decoder error")
	}
}

func TestStoreEventDecoders(t *testing.T) {
	reg := NewStoreEventDecoders()

	output, err := reg.Decode(enums.EventNotificationCreated, 1, json.RawMessage(`{"queue":"worker","notification":{"id":"n1","workerId":"w1","title":"Hi"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, ok := output.(*payloads.NotificationCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", output)
	}
	if created.Queue != enums.QueueWorker || created.Notification.WorkerID != "w1" {
		t.Fatalf("payload mismatch %+v", created)
	}

	output, err = reg.Decode(enums.EventBookingUpdated, 1, json.RawMessage(`{"bookingId":"b1","before":{"delayReported":false},"after":{"delayReported":true,"customerDiscountPercentage":"0.15"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, ok := output.(*payloads.BookingUpdatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", output)
	}
	if !updated.After.DelayReported || updated.After.CustomerDiscountPercentage.String() != "0.15" {
		t.Fatalf("payload mismatch %+v", updated)
	}

	if _, err := reg.Decode(enums.EventBookingUpdated, 1, json.RawMessage(`{"bookingId":`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
