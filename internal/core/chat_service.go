package core

import (
	"context"

	"github.com/vovakirdan/wirechat-router/internal/service/chat"
)

// ChatService is the set of chat operations the command handlers call.
type ChatService interface {
	// SendMessage stores a message and returns it with the chat's participants.
	SendMessage(ctx context.Context, callerID, chatID, text string) (*chat.MessageView, []string, error)

	// GetMessages returns a page of a chat's messages.
	GetMessages(ctx context.Context, callerID string, req chat.GetMessagesRequest) ([]chat.MessageView, error)

	// GetProfile returns userID's profile, or the caller's when userID is empty.
	GetProfile(ctx context.Context, callerID, userID string) (*chat.Profile, error)

	// SearchByLogin returns profiles whose login contains substr.
	SearchByLogin(ctx context.Context, callerID, substr string) ([]chat.Profile, error)

	// AddContact adds targetID to the caller's contacts and opens a dialog.
	AddContact(ctx context.Context, callerID, targetID string) (*chat.ChatView, error)

	// GetChatList returns the caller's chats in stored order.
	GetChatList(ctx context.Context, callerID string) ([]chat.ChatView, error)
}

var _ ChatService = (*chat.Service)(nil)
