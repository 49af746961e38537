package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/servico/notifier/internal/push"
	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/logger"
)

func customerRecord() Record {
	return Record{
		ID:          "n1",
		Queue:       enums.QueueCustomer,
		RecipientID: "c1",
		Title:       "✅ Booking Confirmed!",
		Body:        "Raj has accepted your Plumbing booking.",
		Type:        "booking_confirmed",
		BookingID:   "b1",
	}
}

func TestNewDispatcherRequiresDependencies(t *testing.T) {
	if _, err := NewDispatcher(DispatcherParams{}); err == nil {
		t.Fatal("expected error without dependencies")
	}
	_, err := NewDispatcher(DispatcherParams{Directory: &fakeDirectory{}, Gateway: &fakeGateway{}, Sink: &fakeSink{}})
	if err == nil || err.Error() != "logger is required" {
		t.Fatalf("expected logger error, got %v", err)
	}
}

func TestDispatchMissingRecipientDoesNothing(t *testing.T) {
	for _, queue := range []enums.NotificationQueue{enums.QueueWorker, enums.QueueCustomer} {
		dir := &fakeDirectory{lookupFn: withToken("tok")}
		gw := &fakeGateway{}
		sink := &fakeSink{}
		rec := customerRecord()
		rec.Queue = queue
		rec.RecipientID = ""

		out := newTestDispatcher(dir, gw, sink, nil).Dispatch(context.Background(), CreatedEvent{Record: rec})

		expectStatus(t, out, StatusNoRecipient)
		if dir.lookups != 0 || len(gw.sent) != 0 || sink.writes() != 0 || dir.clearedID != "" {
			t.Fatalf("%s: expected no side effects, got %d lookups, %d sends, %d writes", queue, dir.lookups, len(gw.sent), sink.writes())
		}
	}
}

func TestDispatchRecipientNotFoundIsNoop(t *testing.T) {
	dir := &fakeDirectory{}
	gw := &fakeGateway{}
	sink := &fakeSink{}

	out := newTestDispatcher(dir, gw, sink, nil).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})

	expectStatus(t, out, StatusRecipientNotFound)
	if len(gw.sent) != 0 || sink.writes() != 0 {
		t.Fatalf("expected no side effects, got %d sends and %d writes", len(gw.sent), sink.writes())
	}
}

func TestDispatchWithoutTokenSkipsGateway(t *testing.T) {
	empty := ""
	cases := map[string]*string{"nil token": nil, "empty token": &empty}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			dir := &fakeDirectory{lookupFn: func(_ context.Context, role enums.NotificationQueue, id string) (Profile, error) {
				return Profile{ID: id, Role: role, FCMToken: token}, nil
			}}
			gw := &fakeGateway{}
			sink := &fakeSink{}

			out := newTestDispatcher(dir, gw, sink, nil).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})

			expectStatus(t, out, StatusNoToken)
			if len(gw.sent) != 0 || sink.writes() != 0 {
				t.Fatalf("expected no side effects, got %d sends and %d writes", len(gw.sent), sink.writes())
			}
		})
	}
}

func TestDispatchLookupFailureIsAbsorbed(t *testing.T) {
	dir := &fakeDirectory{lookupFn: func(context.Context, enums.NotificationQueue, string) (Profile, error) {
		return Profile{}, errors.New("connection refused")
	}}
	gw := &fakeGateway{}

	out := newTestDispatcher(dir, gw, &fakeSink{}, nil).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})

	expectStatus(t, out, StatusLookupFailed)
	if len(gw.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(gw.sent))
	}
}

func TestDispatchSuccessMarksSent(t *testing.T) {
	dir := &fakeDirectory{lookupFn: withToken("tok-c1")}
	gw := &fakeGateway{}
	sink := &fakeSink{}
	metrics := newFakeMetrics()

	out := newTestDispatcher(dir, gw, sink, metrics).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})

	expectStatus(t, out, StatusSent)
	if out.MessageID != "msg-1" {
		t.Fatalf("unexpected message id %q", out.MessageID)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(gw.sent))
	}
	if gw.sent[0].Token != "tok-c1" || gw.sent[0].Notification.Body != "Raj has accepted your Plumbing booking." {
		t.Fatalf("unexpected message %+v", gw.sent[0])
	}
	if len(sink.marks) != 1 || sink.marks[0] != (sentMark{queue: enums.QueueCustomer, id: "n1", at: fixedNow}) {
		t.Fatalf("unexpected marks %+v", sink.marks)
	}
	if metrics.dispatched["customer/sent"] != 1 {
		t.Fatalf("expected one sent observation, got %v", metrics.dispatched)
	}
}

func TestDispatchTwiceOnSentRecordIsSafe(t *testing.T) {
	dir := &fakeDirectory{lookupFn: withToken("tok-c1")}
	gw := &fakeGateway{}
	sink := &fakeSink{}
	d := newTestDispatcher(dir, gw, sink, nil)

	sent := true
	rec := customerRecord()
	rec.IsSent = &sent
	rec.SentAt = &fixedNow

	first := d.Dispatch(context.Background(), CreatedEvent{Record: rec})
	second := d.Dispatch(context.Background(), CreatedEvent{Record: rec})

	expectStatus(t, first, StatusSent)
	expectStatus(t, second, StatusSent)
	if !sink.isSent["n1"] {
		t.Fatal("record should stay sent")
	}
	if len(sink.marks) != 2 {
		t.Fatalf("expected 2 marks, got %d", len(sink.marks))
	}
}

func TestDispatchRejectedTokenIsCleared(t *testing.T) {
	for _, kind := range []push.Kind{push.KindInvalidToken, push.KindUnregistered} {
		t.Run(string(kind), func(t *testing.T) {
			dir := &fakeDirectory{lookupFn: withToken("stale")}
			gw := &fakeGateway{sendFn: func(context.Context, push.Message) (string, error) {
				return "", &push.Error{Kind: kind, Err: errors.New("rejected")}
			}}
			sink := &fakeSink{}

			rec := customerRecord()
			rec.Queue = enums.QueueWorker
			rec.RecipientID = "w1"
			out := newTestDispatcher(dir, gw, sink, nil).Dispatch(context.Background(), CreatedEvent{Record: rec})

			expectStatus(t, out, StatusTokenRejected)
			if dir.clearedRole != enums.QueueWorker || dir.clearedID != "w1" {
				t.Fatalf("unexpected clear target %s/%s", dir.clearedRole, dir.clearedID)
			}
			if dir.clearedToken != "stale" {
				t.Fatalf("expected the rejected token to be cleared, got %q", dir.clearedToken)
			}
			if len(sink.marks) != 0 || sink.isSent["n1"] {
				t.Fatal("record must not be marked sent")
			}
			if len(gw.sent) != 1 {
				t.Fatalf("expected no retry within the invocation, got %d sends", len(gw.sent))
			}
		})
	}
}

func TestDispatchOtherFailureLeavesState(t *testing.T) {
	dir := &fakeDirectory{lookupFn: withToken("tok")}
	gw := &fakeGateway{sendFn: func(context.Context, push.Message) (string, error) {
		return "", &push.Error{Kind: push.KindOther, Err: errors.New("quota exceeded")}
	}}
	sink := &fakeSink{}

	out := newTestDispatcher(dir, gw, sink, nil).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})

	expectStatus(t, out, StatusSendFailed)
	if dir.clearedID != "" || sink.writes() != 0 {
		t.Fatal("other failures must leave state untouched")
	}
}

func TestDispatchClearTokenFailureIsAbsorbed(t *testing.T) {
	dir := &fakeDirectory{
		lookupFn: withToken("stale"),
		clearFn:  func(context.Context, enums.NotificationQueue, string, string) error { return errors.New("db down") },
	}
	gw := &fakeGateway{sendFn: func(context.Context, push.Message) (string, error) {
		return "", &push.Error{Kind: push.KindUnregistered}
	}}

	out := newTestDispatcher(dir, gw, &fakeSink{}, nil).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})
	expectStatus(t, out, StatusTokenRejected)
}

func TestDispatchMarkSentFailureStillReportsSent(t *testing.T) {
	dir := &fakeDirectory{lookupFn: withToken("tok")}
	sink := &fakeSink{markFn: func(context.Context, enums.NotificationQueue, string, time.Time) error {
		return errWriteFailed
	}}

	out := newTestDispatcher(dir, &fakeGateway{}, sink, nil).Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})

	expectStatus(t, out, StatusSent)
	if sink.isSent["n1"] {
		t.Fatal("failed mark should leave the record unsent")
	}
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	dir := &fakeDirectory{lookupFn: func(context.Context, enums.NotificationQueue, string) (Profile, error) {
		panic("boom")
	}}
	metrics := newFakeMetrics()
	d, err := NewDispatcher(DispatcherParams{
		Directory: dir,
		Gateway:   &fakeGateway{},
		Sink:      &fakeSink{},
		Logger:    logger.Nop(),
		Metrics:   metrics,
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	var out Outcome
	expectNoPanic(t, func() {
		out = d.Dispatch(context.Background(), CreatedEvent{Record: customerRecord()})
	})
	expectStatus(t, out, StatusSendFailed)
	if metrics.dispatched["customer/send_failed"] != 1 {
		t.Fatalf("expected one send_failed observation, got %v", metrics.dispatched)
	}
}
