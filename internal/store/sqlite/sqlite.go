package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirechat-router/internal/store"
)

//go:embed schema.sql
var schema string

// loginBatchSize is how many login index rows a cursor fetches per round trip.
const loginBatchSize = 128

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// ApplySchema creates all tables if they do not exist yet.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema against ":memory:".
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== IdentityStore implementation ====

// GetIdentity retrieves an identity with its contact and chat sets.
func (s *SQLiteStore) GetIdentity(ctx context.Context, id string) (*store.Identity, error) {
	query := `
		SELECT id, login, name, avatar, created_at
		FROM identities
		WHERE id = ?
	`
	var identity store.Identity
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&identity.ID,
		&identity.Login,
		&identity.Name,
		&identity.Avatar,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}

	identity.Contacts, err = s.orderedIDs(ctx, `
		SELECT contact_id FROM identity_contacts
		WHERE identity_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}

	identity.Chats, err = s.orderedIDs(ctx, `
		SELECT chat_id FROM identity_chats
		WHERE identity_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}

	return &identity, nil
}

// SaveIdentity upserts scalar fields and merges the contact and chat sets.
func (s *SQLiteStore) SaveIdentity(ctx context.Context, identity *store.Identity) error {
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	query := `
		INSERT INTO identities (id, login, name, avatar, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			avatar = excluded.avatar
	`
	if _, err := tx.ExecContext(ctx, query,
		identity.ID, identity.Login, identity.Name, identity.Avatar, identity.CreatedAt,
	); err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}

	for _, contactID := range identity.Contacts {
		if err := appendContact(ctx, tx, identity.ID, contactID); err != nil {
			return err
		}
	}
	for _, chatID := range identity.Chats {
		if err := appendChat(ctx, tx, identity.ID, chatID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoginCursor opens a single-pass cursor over the login index.
func (s *SQLiteStore) LoginCursor(_ context.Context) store.LoginCursor {
	return &loginCursor{store: s}
}

// loginCursor pages through identities by login using keyset pagination so
// no result set stays open while callers resolve entries.
type loginCursor struct {
	store   *SQLiteStore
	buf     []store.LoginEntry
	last    string
	started bool
	done    bool
}

func (c *loginCursor) Next(ctx context.Context) (store.LoginEntry, bool, error) {
	if len(c.buf) == 0 && !c.done {
		if err := c.fill(ctx); err != nil {
			return store.LoginEntry{}, false, err
		}
	}
	if len(c.buf) == 0 {
		return store.LoginEntry{}, false, nil
	}

	entry := c.buf[0]
	c.buf = c.buf[1:]
	return entry, true, nil
}

func (c *loginCursor) fill(ctx context.Context) error {
	var (
		rows *sql.Rows
		err  error
	)
	if c.started {
		rows, err = c.store.db.QueryContext(ctx, `
			SELECT id, login FROM identities
			WHERE login > ?
			ORDER BY login ASC
			LIMIT ?
		`, c.last, loginBatchSize)
	} else {
		rows, err = c.store.db.QueryContext(ctx, `
			SELECT id, login FROM identities
			ORDER BY login ASC
			LIMIT ?
		`, loginBatchSize)
	}
	if err != nil {
		return fmt.Errorf("query login index: %w", err)
	}
	defer rows.Close()

	c.started = true
	for rows.Next() {
		var id, login string
		if err := rows.Scan(&id, &login); err != nil {
			return fmt.Errorf("scan login index: %w", err)
		}
		c.buf = append(c.buf, store.NewLoginEntry(login, id, c.store.GetIdentity))
		c.last = login
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate login index: %w", err)
	}
	if len(c.buf) < loginBatchSize {
		c.done = true
	}
	return nil
}

// ==== ChatStore implementation ====

// GetChat retrieves a chat by ID.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*store.Chat, error) {
	query := `
		SELECT id, name, dialog, created_at
		FROM chats
		WHERE id = ?
	`
	var chat store.Chat
	var name sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&chat.ID,
		&name,
		&chat.Dialog,
		&chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query chat: %w", err)
	}
	if name.Valid {
		chat.Name = name.String
	}

	chat.Participants, err = s.orderedIDs(ctx, `
		SELECT identity_id FROM chat_participants
		WHERE chat_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}

	return &chat, nil
}

// SaveChat persists a new chat with its participants and appends the chat to
// every participant's chat set.
func (s *SQLiteStore) SaveChat(ctx context.Context, chat *store.Chat) error {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var name sql.NullString
	if chat.Name != "" {
		name = sql.NullString{String: chat.Name, Valid: true}
	}

	query := `
		INSERT INTO chats (id, name, dialog, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, chat.ID, name, chat.Dialog, chat.CreatedAt); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}

	participantQuery := `
		INSERT INTO chat_participants (chat_id, identity_id, position)
		VALUES (?, ?, ?)
	`
	for i, identityID := range chat.Participants {
		if _, err := tx.ExecContext(ctx, participantQuery, chat.ID, identityID, i+1); err != nil {
			return fmt.Errorf("add participant %s: %w", identityID, err)
		}
		if err := appendChat(ctx, tx, identityID, chat.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ResolveParticipants loads participant identities in participant order.
func (s *SQLiteStore) ResolveParticipants(ctx context.Context, chat *store.Chat) ([]*store.Identity, error) {
	identities := make([]*store.Identity, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		identity, err := s.GetIdentity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve participant: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, nil
}

// ==== MessageStore implementation ====

// Partition returns the message partition of chatID.
func (s *SQLiteStore) Partition(chatID string) store.MessagePartition {
	return &partition{db: s.db, chatID: chatID}
}

type partition struct {
	db     *sql.DB
	chatID string
}

// Save appends msg to the partition. The sequence number is computed inside
// the INSERT so concurrent appends never share a Seq.
func (p *partition) Save(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.ChatID = p.chatID

	query := `
		INSERT INTO messages (chat_id, seq, user_id, body, created_at)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?
		FROM messages
		WHERE chat_id = ?
		RETURNING id, seq
	`
	err := p.db.QueryRowContext(ctx, query,
		p.chatID, msg.From, msg.Body, msg.CreatedAt, p.chatID,
	).Scan(&msg.ID, &msg.Seq)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Page returns up to limit messages starting at offset, ascending by Seq.
func (p *partition) Page(ctx context.Context, offset, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, chat_id, seq, user_id, body, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY seq ASC
		LIMIT ? OFFSET ?
	`
	rows, err := p.db.QueryContext(ctx, query, p.chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Seq, &msg.From, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ==== CredentialStore implementation ====

// CreateCredential stores a new credential.
func (s *SQLiteStore) CreateCredential(ctx context.Context, cred *store.Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO credentials (login, password_hash, identity_id, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, cred.Login, cred.PasswordHash, cred.IdentityID, cred.CreatedAt); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// GetCredentialByLogin retrieves a credential by login.
func (s *SQLiteStore) GetCredentialByLogin(ctx context.Context, login string) (*store.Credential, error) {
	query := `
		SELECT login, password_hash, identity_id, created_at
		FROM credentials
		WHERE login = ?
	`
	var cred store.Credential
	err := s.db.QueryRowContext(ctx, query, login).Scan(
		&cred.Login,
		&cred.PasswordHash,
		&cred.IdentityID,
		&cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential %s: %w", login, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query credential: %w", err)
	}
	return &cred, nil
}

// ==== helpers ====

func (s *SQLiteStore) orderedIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func appendContact(ctx context.Context, tx *sql.Tx, identityID, contactID string) error {
	query := `
		INSERT OR IGNORE INTO identity_contacts (identity_id, contact_id, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1
		FROM identity_contacts
		WHERE identity_id = ?
	`
	if _, err := tx.ExecContext(ctx, query, identityID, contactID, identityID); err != nil {
		return fmt.Errorf("append contact: %w", err)
	}
	return nil
}

func appendChat(ctx context.Context, tx *sql.Tx, identityID, chatID string) error {
	query := `
		INSERT OR IGNORE INTO identity_chats (identity_id, chat_id, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1
		FROM identity_chats
		WHERE identity_id = ?
	`
	if _, err := tx.ExecContext(ctx, query, identityID, chatID, identityID); err != nil {
		return fmt.Errorf("append chat: %w", err)
	}
	return nil
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
