package migrate_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/servico/notifier/pkg/migrate"
	"github.com/servico/notifier/pkg/outbox/payloads"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	files, err := migrate.Files("")
	if err != nil {
		t.Fatalf("embedded files: %v", err)
	}
	if err := migrate.Validate(files); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}

	onDisk, err := migrate.Files("migrations")
	if err != nil {
		t.Fatalf("disk files: %v", err)
	}
	if err := migrate.Validate(onDisk); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestNotificationQueueMigration(t *testing.T) {
	content := readMigration(t, "*_create_notification_queues.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS worker_notifications",
		"CREATE TABLE IF NOT EXISTS customer_notifications",
		"is_sent     boolean NULL",
		"DROP TABLE IF EXISTS customer_notifications",
		"DROP TABLE IF EXISTS worker_notifications",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigration(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"WHERE published_at IS NULL",
		"payload_json    jsonb NOT NULL",
		"DROP TABLE IF EXISTS outbox_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxTriggerMigration(t *testing.T) {
	content := readMigration(t, "*_create_outbox_triggers.sql")

	checks := []string{
		"AFTER INSERT ON worker_notifications",
		"servico_notification_created('worker')",
		"AFTER INSERT ON customer_notifications",
		"servico_notification_created('customer')",
		"AFTER UPDATE ON booking_requests",
		"WHEN (OLD.* IS DISTINCT FROM NEW.*)",
		"'notification_created'",
		"'booking_updated'",
		"'booking_request'",
		"'version', 1",
		"'eventId', v_id::text",
		"'occurredAt'",
		"'data', p_data",
		"'before', servico_booking_snapshot(OLD)",
		"'after', servico_booking_snapshot(NEW)",
		"DROP TRIGGER IF EXISTS trg_booking_requests_updated",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	// Every field the consumers decode must be written by the triggers.
	for _, typ := range []any{payloads.NotificationCreatedEvent{}, payloads.NotificationSnapshot{}, payloads.BookingUpdatedEvent{}, payloads.BookingSnapshot{}} {
		for _, key := range jsonKeys(typ) {
			if !strings.Contains(content, "'"+key+"'") {
				t.Errorf("%T field %q is not written by the triggers", typ, key)
			}
		}
	}

	bookings := readMigration(t, "*_create_booking_requests.sql")
	for _, column := range []string{"worker_status", "estimated_arrival_minutes", "customer_discount_percentage", "customer_discount", "delay_reported"} {
		if !strings.Contains(bookings, column) {
			t.Fatalf("booking table lost column %q", column)
		}
		if !strings.Contains(content, "b."+column) {
			t.Errorf("booking snapshot does not read column %q", column)
		}
	}
}

func TestCreateWritesValidMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	path, err := migrate.Create(dir, "Add Token Index!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260302080000_add_token_index.sql" {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.Validate(os.DirFS(dir)); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := migrate.Create(dir, "add token index", now); err == nil {
		t.Fatal("expected error when the migration already exists")
	}
	if _, err := migrate.Create(dir, " !! ", now); err == nil {
		t.Fatal("expected error for a name without usable characters")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	valid := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose StatementEnd\n-- +goose Down\n"
	write("bad.sql", valid)
	write("20260301000000_first.sql", valid)
	write("20260301000000_second.sql", valid)
	write("20260301000100_no_down.sql", "-- +goose Up\nSELECT 1;\n")
	write("20260301000200_open_block.sql", "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")
	write("notes.txt", "ignored")

	err := migrate.Validate(os.DirFS(dir))
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", got, err)
	}
	for _, want := range []string{"bad.sql", "already used", "no_down", "unterminated"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error mentioning %q, got %v", want, err)
		}
	}
}

func TestFilesRejectsMissingDir(t *testing.T) {
	if _, err := migrate.Files(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func jsonKeys(v any) []string {
	typ := reflect.TypeOf(v)
	keys := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
