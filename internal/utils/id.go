package utils

import "github.com/google/uuid"

// NewID returns a random UUID string used for identities, chats and sessions.
func NewID() string {
	return uuid.NewString()
}
