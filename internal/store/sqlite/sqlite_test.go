package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vovakirdan/wirechat-router/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedIdentity(t *testing.T, s *SQLiteStore, id, login string) *store.Identity {
	t.Helper()

	identity := &store.Identity{ID: id, Login: login, Name: login, Avatar: "avatar-" + login}
	if err := s.SaveIdentity(context.Background(), identity); err != nil {
		t.Fatalf("failed to save identity %s: %v", login, err)
	}
	return identity
}

func TestGetIdentityNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetIdentity(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveIdentityMergesOrderedSets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedIdentity(t, s, "a", "alice")
	alice.AddContact("b")
	alice.AddContact("c")
	alice.AddChat("chat-1")
	if err := s.SaveIdentity(ctx, alice); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A stale copy that misses "c" must not erase it.
	stale := &store.Identity{ID: "a", Login: "alice", Name: "Alice", Avatar: "avatar-alice", Contacts: []string{"b", "d"}}
	if err := s.SaveIdentity(ctx, stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	got, err := s.GetIdentity(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Alice" {
		t.Fatalf("expected name update, got %q", got.Name)
	}
	wantContacts := []string{"b", "c", "d"}
	if fmt.Sprint(got.Contacts) != fmt.Sprint(wantContacts) {
		t.Fatalf("expected contacts %v, got %v", wantContacts, got.Contacts)
	}
	if len(got.Chats) != 1 || got.Chats[0] != "chat-1" {
		t.Fatalf("unexpected chats: %v", got.Chats)
	}
}

func TestSaveChatAppendsToParticipants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedIdentity(t, s, "a", "alice")
	seedIdentity(t, s, "b", "bob")

	for _, id := range []string{"chat-1", "chat-2"} {
		chat := &store.Chat{ID: id, Dialog: true, Participants: []string{"a", "b"}}
		if err := s.SaveChat(ctx, chat); err != nil {
			t.Fatalf("save chat %s: %v", id, err)
		}
	}

	chat, err := s.GetChat(ctx, "chat-2")
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if !chat.Dialog || chat.Name != "" || fmt.Sprint(chat.Participants) != "[a b]" {
		t.Fatalf("unexpected chat: %+v", chat)
	}

	bob, err := s.GetIdentity(ctx, "b")
	if err != nil {
		t.Fatalf("get bob: %v", err)
	}
	if fmt.Sprint(bob.Chats) != "[chat-1 chat-2]" {
		t.Fatalf("expected chats in creation order, got %v", bob.Chats)
	}

	participants, err := s.ResolveParticipants(ctx, chat)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(participants) != 2 || participants[0].Login != "alice" || participants[1].Login != "bob" {
		t.Fatalf("unexpected participants: %+v", participants)
	}
}

func TestGetChatNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetChat(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPartitionSequencesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := s.Partition("chat-1")
	second := s.Partition("chat-2")

	for i := range 3 {
		msg := &store.Message{From: "a", Body: fmt.Sprintf("one-%d", i)}
		if err := first.Save(ctx, msg); err != nil {
			t.Fatalf("save: %v", err)
		}
		if msg.Seq != int64(i+1) || msg.ChatID != "chat-1" || msg.ID == 0 {
			t.Fatalf("unexpected saved message: %+v", msg)
		}
	}

	other := &store.Message{From: "b", Body: "two-0"}
	if err := second.Save(ctx, other); err != nil {
		t.Fatalf("save: %v", err)
	}
	if other.Seq != 1 {
		t.Fatalf("expected independent sequence, got %d", other.Seq)
	}

	page, err := first.Page(ctx, 1, 5)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 || page[0].Body != "one-1" || page[1].Body != "one-2" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestPartitionConcurrentAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.Partition("busy")

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- p.Save(ctx, &store.Message{From: "a", Body: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent save: %v", err)
		}
	}

	page, err := p.Page(ctx, 0, 100)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != writers {
		t.Fatalf("expected %d messages, got %d", writers, len(page))
	}
	for i, msg := range page {
		if msg.Seq != int64(i+1) {
			t.Fatalf("expected gapless sequence, got seq %d at %d", msg.Seq, i)
		}
	}
}

func TestLoginCursorWalksAllBatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total := loginBatchSize*2 + 5
	for i := range total {
		seedIdentity(t, s, fmt.Sprintf("id-%04d", i), fmt.Sprintf("user%04d", i))
	}

	cursor := s.LoginCursor(ctx)
	seen := 0
	prev := ""
	for {
		entry, ok, err := cursor.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		if entry.Login <= prev {
			t.Fatalf("logins out of order: %q after %q", entry.Login, prev)
		}
		prev = entry.Login
		seen++
	}
	if seen != total {
		t.Fatalf("expected %d entries, got %d", total, seen)
	}

	// Exhausted cursors stay exhausted.
	if _, ok, err := cursor.Next(ctx); ok || err != nil {
		t.Fatalf("expected exhausted cursor, got ok=%v err=%v", ok, err)
	}
}

func TestLoginEntryResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedIdentity(t, s, "a", "alice")

	entry, ok, err := s.LoginCursor(ctx).Next(ctx)
	if err != nil || !ok {
		t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
	}
	identity, err := entry.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity.ID != "a" || identity.Avatar != "avatar-alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedIdentity(t, s, "a", "alice")

	if err := s.CreateCredential(ctx, &store.Credential{Login: "alice", PasswordHash: "hash", IdentityID: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateCredential(ctx, &store.Credential{Login: "alice", PasswordHash: "other", IdentityID: "a"}); err == nil {
		t.Fatalf("expected duplicate login to fail")
	}

	cred, err := s.GetCredentialByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cred.IdentityID != "a" || cred.PasswordHash != "hash" {
		t.Fatalf("unexpected credential: %+v", cred)
	}

	if _, err := s.GetCredentialByLogin(ctx, "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
