package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		retryable bool
		expected  bool
	}{
		{code: CodeValidation},
		{code: CodeNotFound, expected: true},
		{code: CodeConflict},
		{code: CodeInternal, retryable: true},
		{code: CodeDependency, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.Expected != tt.expected {
			t.Fatalf("code %s expected steady-state %v got %v", tt.code, tt.expected, meta.Expected)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if !meta.Retryable {
		t.Fatalf("expected unknown codes to inherit internal metadata")
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load worker")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: load worker: boom" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeNotFound, "worker w-1")
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeWalksChain(t *testing.T) {
	err := fmt.Errorf("lookup: %w", New(CodeNotFound, "customer c-1"))
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected wrapped not found to be detected")
	}
	if IsCode(err, CodeDependency) {
		t.Fatalf("unexpected dependency match")
	}
	if IsCode(stdErrors.New("plain"), CodeNotFound) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("enqueue: %w", Wrap(CodeDependency, stdErrors.New("conn reset"), "insert row"))
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code in dump, got %q", dump.Code)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
}

func TestDumpFieldsOmitEmpty(t *testing.T) {
	fields := Dump(stdErrors.New("flat")).Fields()
	if len(fields) != 0 {
		t.Fatalf("expected no fields for a flat error, got %v", fields)
	}

	fields = Dump(Wrap(CodeDependency, stdErrors.New("x"), "y")).Fields()
	if fields["error_code"] != string(CodeDependency) {
		t.Fatalf("expected error_code field, got %v", fields)
	}
	if fields["error_retryable"] != true {
		t.Fatalf("dependency errors are retryable, got %v", fields["error_retryable"])
	}

	fields = Dump(New(CodeValidation, "bad")).Fields()
	if fields["error_retryable"] != false {
		t.Fatalf("validation errors are not retryable, got %v", fields["error_retryable"])
	}
}
