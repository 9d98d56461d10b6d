package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-router/internal/store"
	"github.com/vovakirdan/wirechat-router/internal/utils"
)

// DefaultPageLimit is used by GetMessages when no limit is given.
const DefaultPageLimit = 100

// Backend is the persistence the chat service needs.
type Backend interface {
	store.IdentityStore
	store.ChatStore
	store.MessageStore
}

// Service implements the chat operations. Every method takes the caller's
// identity id as resolved from the authenticated session.
type Service struct {
	store Backend
	log   *zerolog.Logger
	now   func() time.Time
}

// New creates a new chat Service.
func New(backend Backend, logger *zerolog.Logger) *Service {
	return &Service{
		store: backend,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage appends text to chatID's partition on behalf of callerID.
// It returns the stored message and the chat participants that must be
// notified about it.
func (s *Service) SendMessage(ctx context.Context, callerID, chatID, text string) (*MessageView, []string, error) {
	chat, err := s.memberChat(ctx, callerID, chatID)
	if err != nil {
		return nil, nil, err
	}

	msg := &store.Message{
		ChatID:    chat.ID,
		From:      callerID,
		Body:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.Partition(chat.ID).Save(ctx, msg); err != nil {
		return nil, nil, fmt.Errorf("save message: %w", err)
	}

	view := messageView(msg)
	return &view, chat.Participants, nil
}

// GetMessages returns a page of chatID's messages in sequence order.
func (s *Service) GetMessages(ctx context.Context, callerID string, req GetMessagesRequest) ([]MessageView, error) {
	chat, err := s.memberChat(ctx, callerID, req.ChatID)
	if err != nil {
		return nil, err
	}

	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}
	limit := DefaultPageLimit
	if req.Limit != nil && *req.Limit != 0 {
		limit = *req.Limit
	}
	if offset < 0 {
		return nil, ErrNegativeOffset
	}
	if limit < 0 {
		return nil, ErrNegativeLimit
	}

	messages, err := s.store.Partition(chat.ID).Page(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView(msg))
	}
	return views, nil
}

// GetProfile returns the profile of userID, or of the caller when userID is empty.
func (s *Service) GetProfile(ctx context.Context, callerID, userID string) (*Profile, error) {
	if userID == "" {
		userID = callerID
	}

	identity, err := s.identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := profileFromIdentity(identity)
	return &profile, nil
}

// SearchByLogin scans the whole login index and returns every identity whose
// login contains substr (case-sensitive).
func (s *Service) SearchByLogin(ctx context.Context, _ string, substr string) ([]Profile, error) {
	found := make([]Profile, 0)

	cursor := s.store.LoginCursor(ctx)
	for {
		entry, ok, err := cursor.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan logins: %w", err)
		}
		if !ok {
			break
		}
		if !strings.Contains(entry.Login, substr) {
			continue
		}

		identity, err := entry.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", entry.Login, err)
		}
		found = append(found, profileFromIdentity(identity))
	}

	return found, nil
}

// AddContact records targetID in the caller's contacts and opens a new dialog
// between them. A dialog is created on every call, even when one already
// exists for the pair.
//
// The contact update and the chat creation are two separate store calls; a
// failure in between leaves the contact without its dialog.
func (s *Service) AddContact(ctx context.Context, callerID, targetID string) (*ChatView, error) {
	if callerID == targetID {
		return nil, ErrAddSelf
	}

	if _, err := s.identity(ctx, targetID); err != nil {
		return nil, err
	}

	me, err := s.identity(ctx, callerID)
	if err != nil {
		return nil, err
	}
	me.AddContact(targetID)
	if err := s.store.SaveIdentity(ctx, me); err != nil {
		return nil, fmt.Errorf("save contacts: %w", err)
	}

	chat := &store.Chat{
		ID:           utils.NewID(),
		Dialog:       true,
		Participants: []string{callerID, targetID},
		CreatedAt:    s.now(),
	}
	if err := s.store.SaveChat(ctx, chat); err != nil {
		s.log.Error().Err(err).
			Str("identity_id", callerID).
			Str("contact_id", targetID).
			Msg("contact saved but dialog creation failed")
		return nil, fmt.Errorf("save chat: %w", err)
	}

	s.log.Debug().
		Str("identity_id", callerID).
		Str("contact_id", targetID).
		Str("chat_id", chat.ID).
		Msg("dialog created")

	return s.ChatForEmit(ctx, chat, callerID)
}

// GetChatList returns the caller's chats in stored order.
func (s *Service) GetChatList(ctx context.Context, callerID string) ([]ChatView, error) {
	me, err := s.identity(ctx, callerID)
	if err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(me.Chats))
	for _, chatID := range me.Chats {
		chat, err := s.chat(ctx, chatID)
		if err != nil {
			return nil, err
		}
		view, err := s.ChatForEmit(ctx, chat, callerID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// ChatForEmit builds the client view of chat. The avatar is taken from the
// first participant that is not excludeID; with an empty excludeID that is
// simply the first participant.
func (s *Service) ChatForEmit(ctx context.Context, chat *store.Chat, excludeID string) (*ChatView, error) {
	participants, err := s.store.ResolveParticipants(ctx, chat)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve participants: %w", err)
	}

	view := &ChatView{
		ID:     chat.ID,
		Name:   chat.Name,
		Dialog: chat.Dialog,
		Users:  make([]Profile, 0, len(participants)),
	}
	avatarPicked := false
	for _, identity := range participants {
		view.Users = append(view.Users, profileFromIdentity(identity))
		if !avatarPicked && identity.ID != excludeID {
			view.Avatar = identity.Avatar
			avatarPicked = true
		}
	}

	return view, nil
}

func (s *Service) memberChat(ctx context.Context, callerID, chatID string) (*store.Chat, error) {
	chat, err := s.chat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(callerID) {
		return nil, ErrNotYourChat
	}
	return chat, nil
}

func (s *Service) chat(ctx context.Context, chatID string) (*store.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("load chat: %w", err)
	}
	return chat, nil
}

func (s *Service) identity(ctx context.Context, id string) (*store.Identity, error) {
	identity, err := s.store.GetIdentity(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return identity, nil
}
