package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope wraps every published event with its type and schema version so
// consumers can dispatch before decoding Data.
type Envelope struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	ID      string          `json:"id,omitempty"`
	TS      string          `json:"ts,omitempty"`
	Data    json.RawMessage `json:"data"`
}

func Open(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Seal marshals data and wraps it in an Envelope stamped with ts in RFC 3339.
func Seal(msgType string, version int, id string, ts time.Time, data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return &Envelope{
		Type:    msgType,
		Version: version,
		ID:      id,
		TS:      ts.UTC().Format(time.RFC3339Nano),
		Data:    raw,
	}, nil
}

// Decode unmarshals Data into v.
func (e *Envelope) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
