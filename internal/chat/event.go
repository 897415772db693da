package chat

import "encoding/json"

// Event names exchanged over the websocket.
const (
	EventJoin       = "join_ride_chat"
	EventLeave      = "leave_ride_chat"
	EventSend       = "send_message"
	EventNewMessage = "new_message"
	EventError      = "error"
)

// Error codes carried by EventError.
const (
	CodeInvalidPayload = "invalid_payload"
	CodeInvalidInput   = "invalid_input"
	CodeUnknownEvent   = "unknown_event"
	CodeInternal       = "internal_error"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RoomPayload is the data of join and leave events.
type RoomPayload struct {
	RideID string `json:"ride_id"`
}

// SendPayload is the data of a send_message event.
type SendPayload struct {
	RideID     string `json:"ride_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
}

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
