package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is the envelope version written when none is set. The
// database triggers in pkg/migrate write the same version.
const CurrentVersion = 1

// ErrEmptyEnvelopeData reports an envelope whose data is missing or null.
var ErrEmptyEnvelopeData = errors.New("envelope data is empty")

// PayloadEnvelope wraps every payload stored in outbox_events.payload. The
// eventId equals the outbox row id.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// SchemaVersion returns the payload version, treating unset as current.
func (e PayloadEnvelope) SchemaVersion() int {
	if e.Version <= 0 {
		return CurrentVersion
	}
	return e.Version
}

func sealEnvelope(id uuid.UUID, version int, occurredAt time.Time, data any) (PayloadEnvelope, []byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return PayloadEnvelope{}, nil, fmt.Errorf("encode event data: %w", err)
	}
	env := PayloadEnvelope{
		Version:    version,
		EventID:    id.String(),
		OccurredAt: occurredAt.UTC(),
		Data:       body,
	}
	if env.Version <= 0 {
		env.Version = CurrentVersion
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return PayloadEnvelope{}, nil, fmt.Errorf("encode envelope: %w", err)
	}
	return env, raw, nil
}

// OpenEnvelope decodes raw and rejects envelopes without data.
func OpenEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env, ErrEmptyEnvelopeData
	}
	return env, nil
}
