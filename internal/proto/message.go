package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client. Type carries
// the command name; Data is the command payload and may be absent.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Protocol-level error codes. Command failures travel inside envelopes and
// never use these.
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownCommand = "unknown_command"
	ErrCodeRateLimited    = "rate_limited"
)

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
