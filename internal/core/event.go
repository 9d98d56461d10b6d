package core

// EventName identifies an outbound event on the wire.
type EventName string

const (
	// EventNewMessage notifies every chat participant about a new message.
	EventNewMessage EventName = "NewMessage"
	// EventNewChat notifies the creator's sessions about a new chat.
	EventNewChat EventName = "NewChat"
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Name    EventName
	Payload any
}

// Envelope is the uniform reply to a command.
type Envelope struct {
	Success bool   `json:"success"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Delivery is an extra event a handler asks the dispatcher to broadcast
// after the reply envelope.
type Delivery struct {
	IdentityID string
	Event      EventName
	Payload    any
}
