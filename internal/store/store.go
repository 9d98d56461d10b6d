package store

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// Identity represents a registered user of the chat service.
type Identity struct {
	ID        string
	Login     string
	Name      string
	Avatar    string
	Contacts  []string // ordered set of identity ids
	Chats     []string // ordered set of chat ids
	CreatedAt time.Time
}

// AddContact appends id to the contact set. Returns true if newly added.
func (i *Identity) AddContact(id string) bool {
	if slices.Contains(i.Contacts, id) {
		return false
	}
	i.Contacts = append(i.Contacts, id)
	return true
}

// AddChat appends id to the chat set. Returns true if newly added.
func (i *Identity) AddChat(id string) bool {
	if slices.Contains(i.Chats, id) {
		return false
	}
	i.Chats = append(i.Chats, id)
	return true
}

// Chat represents a conversation between two or more identities.
// Dialog chats have exactly two participants and no name.
type Chat struct {
	ID           string
	Name         string
	Dialog       bool
	Participants []string
	CreatedAt    time.Time
}

// HasParticipant reports whether identityID takes part in the chat.
func (c *Chat) HasParticipant(identityID string) bool {
	return slices.Contains(c.Participants, identityID)
}

// Message represents a persisted chat message. Seq orders messages within
// their chat partition and is assigned by the store on save.
type Message struct {
	ID        int64
	ChatID    string
	Seq       int64
	From      string
	Body      string
	CreatedAt time.Time
}

// Credential binds a password login to an identity.
type Credential struct {
	Login        string
	PasswordHash string
	IdentityID   string
	CreatedAt    time.Time
}

// LoginEntry is a single row of the login index.
type LoginEntry struct {
	Login      string
	IdentityID string

	resolve func(ctx context.Context, id string) (*Identity, error)
}

// NewLoginEntry builds an entry that resolves through the given lookup.
func NewLoginEntry(login, identityID string, resolve func(ctx context.Context, id string) (*Identity, error)) LoginEntry {
	return LoginEntry{Login: login, IdentityID: identityID, resolve: resolve}
}

// Resolve loads the identity behind the login.
func (e LoginEntry) Resolve(ctx context.Context) (*Identity, error) {
	if e.resolve == nil {
		return nil, ErrNotFound
	}
	return e.resolve(ctx, e.IdentityID)
}

// LoginCursor walks the login index once, in login order.
// Next returns ok=false when the index is exhausted; a cursor cannot be rewound.
type LoginCursor interface {
	Next(ctx context.Context) (entry LoginEntry, ok bool, err error)
}

// IdentityStore handles identity persistence.
type IdentityStore interface {
	// GetIdentity retrieves an identity with its contact and chat sets.
	GetIdentity(ctx context.Context, id string) (*Identity, error)

	// SaveIdentity upserts scalar fields and merges the contact and chat sets.
	// Sets only grow; ids already stored keep their position.
	SaveIdentity(ctx context.Context, identity *Identity) error

	// LoginCursor opens a single-pass cursor over the login index.
	LoginCursor(ctx context.Context) LoginCursor
}

// ChatStore handles chat persistence.
type ChatStore interface {
	// GetChat retrieves a chat by ID.
	GetChat(ctx context.Context, id string) (*Chat, error)

	// SaveChat persists a new chat with its participants and appends the chat
	// to every participant's chat set.
	SaveChat(ctx context.Context, chat *Chat) error

	// ResolveParticipants loads participant identities in participant order.
	ResolveParticipants(ctx context.Context, chat *Chat) ([]*Identity, error)
}

// MessagePartition is the isolated message sequence of one chat.
type MessagePartition interface {
	// Save appends msg to the partition, assigning its ID and Seq.
	Save(ctx context.Context, msg *Message) error

	// Page returns up to limit messages starting at offset, ascending by Seq.
	Page(ctx context.Context, offset, limit int) ([]*Message, error)
}

// MessageStore hands out per-chat message partitions.
type MessageStore interface {
	Partition(chatID string) MessagePartition
}

// CredentialStore handles password credentials.
type CredentialStore interface {
	// CreateCredential stores a new credential. Fails if the login is taken.
	CreateCredential(ctx context.Context, cred *Credential) error

	// GetCredentialByLogin retrieves a credential by login.
	GetCredentialByLogin(ctx context.Context, login string) (*Credential, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	IdentityStore
	ChatStore
	MessageStore
	CredentialStore

	// Close closes the underlying database connection.
	Close() error
}
