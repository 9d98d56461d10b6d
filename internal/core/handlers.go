package core

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/vovakirdan/wirechat-router/internal/service/chat"
)

// ChatHandlers binds every chat command to svc.
func ChatHandlers(svc ChatService) map[CommandKind]Handler {
	return map[CommandKind]Handler{
		CommandGetMessages: func(ctx context.Context, identityID string, payload json.RawMessage) (Outcome, error) {
			var req chat.GetMessagesRequest
			if err := decodeObject(payload, &req); err != nil {
				return Outcome{}, err
			}
			messages, err := svc.GetMessages(ctx, identityID, req)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: messages}, nil
		},

		CommandGetProfile: func(ctx context.Context, identityID string, payload json.RawMessage) (Outcome, error) {
			userID, err := decodeString(payload)
			if err != nil {
				return Outcome{}, err
			}
			profile, err := svc.GetProfile(ctx, identityID, userID)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: profile}, nil
		},

		CommandSearchByLogin: func(ctx context.Context, identityID string, payload json.RawMessage) (Outcome, error) {
			substr, err := decodeString(payload)
			if err != nil {
				return Outcome{}, err
			}
			profiles, err := svc.SearchByLogin(ctx, identityID, substr)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: profiles}, nil
		},

		CommandAddContact: func(ctx context.Context, identityID string, payload json.RawMessage) (Outcome, error) {
			targetID, err := decodeString(payload)
			if err != nil {
				return Outcome{}, err
			}
			view, err := svc.AddContact(ctx, identityID, targetID)
			if err != nil {
				return Outcome{}, err
			}
			// Only the caller hears about the new chat.
			return Outcome{
				Value: view,
				FollowUps: []Delivery{
					{IdentityID: identityID, Event: EventNewChat, Payload: view},
				},
			}, nil
		},

		CommandGetChatList: func(ctx context.Context, identityID string, _ json.RawMessage) (Outcome, error) {
			chats, err := svc.GetChatList(ctx, identityID)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: chats}, nil
		},

		CommandSendMessage: func(ctx context.Context, identityID string, payload json.RawMessage) (Outcome, error) {
			var req chat.SendMessageRequest
			if err := decodeObject(payload, &req); err != nil {
				return Outcome{}, err
			}
			msg, participants, err := svc.SendMessage(ctx, identityID, req.ChatID, req.Text)
			if err != nil {
				return Outcome{}, err
			}
			followUps := make([]Delivery, 0, len(participants))
			for _, participant := range participants {
				followUps = append(followUps, Delivery{
					IdentityID: participant,
					Event:      EventNewMessage,
					Payload:    msg,
				})
			}
			return Outcome{Value: msg, FollowUps: followUps}, nil
		},
	}
}

func isEmptyPayload(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeObject(payload json.RawMessage, v any) error {
	if isEmptyPayload(payload) {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return BadRequest("payload must be an object")
	}
	return nil
}

// decodeString reads an optional JSON string; absent or null yields "".
func decodeString(payload json.RawMessage) (string, error) {
	if isEmptyPayload(payload) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(payload, &s); err != nil {
		return "", BadRequest("payload must be a string")
	}
	return s, nil
}
