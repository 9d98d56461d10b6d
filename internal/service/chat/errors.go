package chat

// Code classifies a domain failure.
type Code string

// Error codes for domain failures.
const (
	CodeNotFound        Code = "not_found"
	CodeForbidden       Code = "forbidden"
	CodeInvalidArgument Code = "invalid_argument"
)

// Error is a domain failure whose Message is safe to show to clients.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotYourChat    = &Error{Code: CodeForbidden, Message: "Not your chat!"}
	ErrAddSelf        = &Error{Code: CodeInvalidArgument, Message: "You can't add yourself!"}
	ErrUserNotFound   = &Error{Code: CodeNotFound, Message: "User not found"}
	ErrChatNotFound   = &Error{Code: CodeNotFound, Message: "Chat not found"}
	ErrNegativeOffset = &Error{Code: CodeInvalidArgument, Message: "offset must not be negative"}
	ErrNegativeLimit  = &Error{Code: CodeInvalidArgument, Message: "limit must not be negative"}
)
