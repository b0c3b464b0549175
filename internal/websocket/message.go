package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// TypeChangesAvailable tells an idle device that another device of the
	// same user pushed changes, so a pull now will not come back empty.
	TypeChangesAvailable MessageType = "changes_available"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ChangesAvailablePayload is advisory only; the receiving device still runs a
// normal pull to fetch the actual rows.
type ChangesAvailablePayload struct {
	DeviceID string `json:"device_id"`
	Rows     int    `json:"rows"`
	Deleted  int    `json:"deleted"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
