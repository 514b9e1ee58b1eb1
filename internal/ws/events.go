package ws

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Inbound frames are tagged by their "event" field. Each event type is
// decoded strictly: unknown fields are rejected at the boundary, and a
// sender identifier in the payload is never accepted (the authenticated
// session identity is used instead).

type envelope struct {
	Event string `json:"event"`
}

type joinRoomEvent struct {
	Event          string `json:"event" validate:"required,eq=join-room"`
	ConversationID int64  `json:"conversationId" validate:"required"`
}

type messageEvent struct {
	Event          string `json:"event" validate:"required,eq=message"`
	ConversationID int64  `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required"`
	MessageType    string `json:"messageType" validate:"omitempty,oneof=text image video file"`
}

// Outbound events.

type roomJoinedEvent struct {
	Event          string `json:"event"`
	ConversationID int64  `json:"conversationId"`
	Message        string `json:"message"`
}

type errorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

func newErrorEvent(msg string) errorEvent {
	return errorEvent{Event: "error", Message: msg}
}

// decodeStrict unmarshals data into v rejecting unknown fields, then runs
// struct validation.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}
	return nil
}
