package push

import (
	"errors"
	"fmt"
)

// Kind classifies a delivery failure.
type Kind string

const (
	KindInvalidToken Kind = "invalid_token"
	KindUnregistered Kind = "unregistered"
	KindOther        Kind = "other"
)

// Error is returned by gateways for every failed send.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("push %s", e.Kind)
	}
	return fmt.Sprintf("push %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err. Errors that did not come from a
// gateway are KindOther; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pushErr *Error
	if errors.As(err, &pushErr) && pushErr.Kind != "" {
		return pushErr.Kind
	}
	return KindOther
}

// IsTokenRejected reports whether the device token should be discarded.
func IsTokenRejected(err error) bool {
	switch KindOf(err) {
	case KindInvalidToken, KindUnregistered:
		return true
	default:
		return false
	}
}
