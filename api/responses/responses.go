package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/servico/notifier/pkg/errors"
	"github.com/servico/notifier/pkg/logger"
)

// SuccessEnvelope wraps every successful payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps every error payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

const retryAfterSeconds = "5"

var statusByCode = map[pkgerrors.Code]int{
	pkgerrors.CodeValidation: http.StatusBadRequest,
	pkgerrors.CodeNotFound:   http.StatusNotFound,
	pkgerrors.CodeConflict:   http.StatusConflict,
	pkgerrors.CodeDependency: http.StatusServiceUnavailable,
	pkgerrors.CodeInternal:   http.StatusInternalServerError,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessEnvelope{Data: data})
}

// WriteError maps err onto an HTTP status. Internal errors never expose their
// message or details.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	status, ok := statusByCode[typed.Code()]
	if !ok {
		status = http.StatusInternalServerError
	}

	payload := ErrorEnvelope{Error: APIError{Code: string(typed.Code()), Message: "internal server error"}}
	if status != http.StatusInternalServerError {
		payload.Error.Message = typed.Message()
		payload.Error.Details = typed.Details()
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	if meta.Retryable && status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if meta.Expected {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "request.error")
		} else {
			logg.Error(ctx, "request.error", err)
		}
	}

	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
