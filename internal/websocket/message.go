package websocket

import (
	"encoding/json"
	"time"

	"github.com/thereayou/presence-relay/internal/relay"
)

const (
	TypeAck   relay.EventType = "ack"
	TypeError relay.EventType = "error"
)

// Envelope frames every event on the wire.
type Envelope struct {
	Type      relay.EventType `json:"type"`
	AckID     string          `json:"ack_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func encode(msgType relay.EventType, ackID string, data any) ([]byte, error) {
	env := Envelope{
		Type:      msgType,
		AckID:     ackID,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
