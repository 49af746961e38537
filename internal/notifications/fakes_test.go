package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/servico/notifier/internal/push"
	"github.com/servico/notifier/pkg/enums"
	pkgerrors "github.com/servico/notifier/pkg/errors"
	"github.com/servico/notifier/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

type fakeDirectory struct {
	lookupFn     func(ctx context.Context, role enums.NotificationQueue, id string) (Profile, error)
	clearFn      func(ctx context.Context, role enums.NotificationQueue, id, token string) error
	lookups      int
	clearedRole  enums.NotificationQueue
	clearedID    string
	clearedToken string
}

func (f *fakeDirectory) Lookup(ctx context.Context, role enums.NotificationQueue, id string) (Profile, error) {
	f.lookups++
	if f.lookupFn != nil {
		return f.lookupFn(ctx, role, id)
	}
	return Profile{}, pkgerrors.New(pkgerrors.CodeNotFound, "recipient not found")
}

func (f *fakeDirectory) ClearToken(ctx context.Context, role enums.NotificationQueue, id, token string) error {
	f.clearedRole = role
	f.clearedID = id
	f.clearedToken = token
	if f.clearFn != nil {
		return f.clearFn(ctx, role, id, token)
	}
	return nil
}

func withToken(token string) func(context.Context, enums.NotificationQueue, string) (Profile, error) {
	return func(_ context.Context, role enums.NotificationQueue, id string) (Profile, error) {
		return Profile{ID: id, Role: role, FCMToken: &token}, nil
	}
}

type fakeGateway struct {
	sendFn func(ctx context.Context, msg push.Message) (string, error)
	sent   []push.Message
}

func (f *fakeGateway) Send(ctx context.Context, msg push.Message) (string, error) {
	f.sent = append(f.sent, msg)
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return "msg-1", nil
}

type sentMark struct {
	queue enums.NotificationQueue
	id    string
	at    time.Time
}

type fakeSink struct {
	mu        sync.Mutex
	enqueueFn func(ctx context.Context, rec NewRecord) (string, error)
	markFn    func(ctx context.Context, queue enums.NotificationQueue, id string, at time.Time) error
	enqueued  []NewRecord
	marks     []sentMark
	isSent    map[string]bool
}

func (f *fakeSink) Enqueue(ctx context.Context, rec NewRecord) (string, error) {
	f.mu.Lock()
	f.enqueued = append(f.enqueued, rec)
	f.mu.Unlock()
	if f.enqueueFn != nil {
		return f.enqueueFn(ctx, rec)
	}
	return "generated-id", nil
}

func (f *fakeSink) MarkSent(ctx context.Context, queue enums.NotificationQueue, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, sentMark{queue: queue, id: id, at: at})
	if f.markFn != nil {
		if err := f.markFn(ctx, queue, id, at); err != nil {
			return err
		}
	}
	if f.isSent == nil {
		f.isSent = map[string]bool{}
	}
	f.isSent[id] = true
	return nil
}

func (f *fakeSink) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.enqueued) + len(f.marks)
}

type fakeMetrics struct {
	dispatched map[string]int
	enqueued   map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{dispatched: map[string]int{}, enqueued: map[string]int{}}
}

func (f *fakeMetrics) ObserveDispatch(queue, outcome string, _ time.Duration) {
	f.dispatched[queue+"/"+outcome]++
}

func (f *fakeMetrics) IncEnqueue(notificationType string, ok bool) {
	key := notificationType + "/ok"
	if !ok {
		key = notificationType + "/error"
	}
	f.enqueued[key]++
}

func newTestDispatcher(dir *fakeDirectory, gw *fakeGateway, sink *fakeSink, metrics dispatchObserver) *Dispatcher {
	d, err := NewDispatcher(DispatcherParams{
		Directory: dir,
		Gateway:   gw,
		Sink:      sink,
		Logger:    logger.Nop(),
		Metrics:   metrics,
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		panic(err)
	}
	return d
}

var errWriteFailed = errors.New("write failed")

func expectStatus(t *testing.T, out Outcome, want Status) {
	t.Helper()
	if out.Status != want {
		t.Fatalf("expected status %q, got %q", want, out.Status)
	}
}

func expectNoPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}
