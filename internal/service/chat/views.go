package chat

import "github.com/vovakirdan/wirechat-router/internal/store"

// Profile is the public projection of an identity.
type Profile struct {
	ID     string `json:"id"`
	Login  string `json:"login"`
	Avatar string `json:"avatar"`
}

// ChatView is a chat as emitted to clients. Avatar is the thumbnail of the
// participant other than the viewer.
type ChatView struct {
	ID     string    `json:"id"`
	Name   string    `json:"name,omitempty"`
	Dialog bool      `json:"dialog"`
	Users  []Profile `json:"users"`
	Avatar string    `json:"avatar"`
}

// MessageView is a message as emitted to clients.
type MessageView struct {
	ID        int64  `json:"id"`
	ChatID    string `json:"chatId"`
	Seq       int64  `json:"seq"`
	From      string `json:"from"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}

// GetMessagesRequest selects a page of a chat's messages. Nil Offset means 0;
// nil or zero Limit means DefaultPageLimit.
type GetMessagesRequest struct {
	ChatID string `json:"chatId"`
	Offset *int   `json:"offset,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// SendMessageRequest is the payload of SendMessage.
type SendMessageRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

func profileFromIdentity(identity *store.Identity) Profile {
	return Profile{
		ID:     identity.ID,
		Login:  identity.Login,
		Avatar: identity.Avatar,
	}
}

func messageView(msg *store.Message) MessageView {
	return MessageView{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Seq:       msg.Seq,
		From:      msg.From,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.UnixMilli(),
	}
}
