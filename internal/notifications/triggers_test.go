package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/servico/notifier/pkg/enums"
	"github.com/servico/notifier/pkg/logger"
)

func newTestTriggers(t *testing.T, dir *fakeDirectory, gw *fakeGateway, sink *fakeSink) *Triggers {
	t.Helper()
	exec := newTestExecutor(t, sink, nil)
	trig, err := NewTriggers(TriggersParams{
		Dispatcher: newTestDispatcher(dir, gw, sink, nil),
		Executor:   exec,
		Logger:     logger.Nop(),
		Now:        func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new triggers: %v", err)
	}
	return trig
}

func TestNewTriggersValidation(t *testing.T) {
	_, err := NewTriggers(TriggersParams{})
	if err == nil || err.Error() != "dispatcher is required" {
		t.Fatalf("expected dispatcher error, got %v", err)
	}
}

func TestOnNotificationCreatedDispatches(t *testing.T) {
	dir := &fakeDirectory{lookupFn: withToken("tok")}
	gw := &fakeGateway{}
	sink := &fakeSink{}
	trig := newTestTriggers(t, dir, gw, sink)

	out := trig.OnNotificationCreated(context.Background(), CreatedEvent{Record: customerRecord()})

	expectStatus(t, out, StatusSent)
	if len(gw.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(gw.sent))
	}
}

func TestOnBookingUpdatedWritesCustomerAndWorkerRecords(t *testing.T) {
	sink := &fakeSink{}
	trig := newTestTriggers(t, &fakeDirectory{}, &fakeGateway{}, sink)

	before := baseBooking()
	after := baseBooking()
	after.WorkerStatus = enums.WorkerStatusOnTheWay
	after.EstimatedArrivalMinutes = 20
	after.DelayReported = true

	commands := trig.OnBookingUpdated(context.Background(), BookingChange{BookingID: "b1", Before: before, After: after})

	if len(commands) != 2 || len(sink.enqueued) != 2 {
		t.Fatalf("expected 2 commands and 2 writes, got %d and %d", len(commands), len(sink.enqueued))
	}
	customer, worker := sink.enqueued[0], sink.enqueued[1]
	if customer.Queue != enums.QueueCustomer || !strings.Contains(customer.Body, "ETA: 20 minutes") {
		t.Fatalf("unexpected customer record %+v", customer)
	}
	if worker.Queue != enums.QueueWorker || !worker.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected worker record %+v", worker)
	}
}

func TestOnBookingUpdatedNoRelevantChange(t *testing.T) {
	sink := &fakeSink{}
	trig := newTestTriggers(t, &fakeDirectory{}, &fakeGateway{}, sink)

	before := baseBooking()
	after := before
	after.WorkerName = "Someone else"

	if commands := trig.OnBookingUpdated(context.Background(), BookingChange{BookingID: "b1", Before: before, After: after}); commands != nil {
		t.Fatalf("expected no commands, got %d", len(commands))
	}
	if sink.writes() != 0 {
		t.Fatalf("expected no writes, got %d", sink.writes())
	}
}

func TestOnBookingUpdatedAbsorbsWriteFailures(t *testing.T) {
	sink := &fakeSink{enqueueFn: func(_ context.Context, rec NewRecord) (string, error) {
		if rec.Type == enums.NotificationTypeBookingConfirmed {
			return "", errWriteFailed
		}
		return "ok", nil
	}}
	trig := newTestTriggers(t, &fakeDirectory{}, &fakeGateway{}, sink)

	after := baseBooking()
	after.Status = enums.BookingStatusAccepted
	after.IsRescueJob = true

	var commands []Command
	expectNoPanic(t, func() {
		commands = trig.OnBookingUpdated(context.Background(), BookingChange{BookingID: "b1", Before: baseBooking(), After: after})
	})
	if len(commands) != 2 || len(sink.enqueued) != 2 {
		t.Fatalf("expected 2 commands and 2 attempts, got %d and %d", len(commands), len(sink.enqueued))
	}
	if sink.enqueued[1].Type != enums.NotificationTypeRescueWorkerAssigned {
		t.Fatalf("rescue write should still run, got %q", sink.enqueued[1].Type)
	}
}

func TestOnBookingUpdatedRecoversFromPanics(t *testing.T) {
	sink := &fakeSink{enqueueFn: func(context.Context, NewRecord) (string, error) { panic("boom") }}
	trig := newTestTriggers(t, &fakeDirectory{}, &fakeGateway{}, sink)

	after := baseBooking()
	after.Status = enums.BookingStatusCancelled

	expectNoPanic(t, func() {
		trig.OnBookingUpdated(context.Background(), BookingChange{BookingID: "b1", Before: baseBooking(), After: after})
	})
}
