package core

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryBroadcastReachesEverySession(t *testing.T) {
	r := NewRegistry(testLogger)

	phone := activeSession(r, "phone", "alice")
	laptop := activeSession(r, "laptop", "alice")
	other := activeSession(r, "other", "bob")

	if n := r.Broadcast("alice", EventNewChat, "payload"); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}

	for _, s := range []*Session{phone, laptop} {
		ev := mustEvent(t, s, EventNewChat)
		if ev.Payload != "payload" {
			t.Fatalf("unexpected payload: %+v", ev)
		}
	}
	expectNoEvent(t, other, EventNewChat)
}

func TestRegistryBroadcastWithoutSessionsIsNoop(t *testing.T) {
	r := NewRegistry(testLogger)

	if n := r.Broadcast("nobody", EventNewMessage, nil); n != 0 {
		t.Fatalf("expected no deliveries, got %d", n)
	}

	// Nothing is queued for identities that connect later.
	late := activeSession(r, "late", "nobody")
	expectNoEvent(t, late, EventNewMessage)
}

func TestRegistryUnregisterTwice(t *testing.T) {
	r := NewRegistry(testLogger)

	first := activeSession(r, "first", "alice")
	second := activeSession(r, "second", "alice")

	if !r.Unregister(first) {
		t.Fatalf("expected first unregister to remove the session")
	}
	if r.Unregister(first) {
		t.Fatalf("expected second unregister to be a no-op")
	}
	if n := r.SessionCount("alice"); n != 1 {
		t.Fatalf("other session must stay registered, got %d", n)
	}

	r.Broadcast("alice", EventNewChat, nil)
	mustEvent(t, second, EventNewChat)
}

func TestRegistryDropsWhenQueueFull(t *testing.T) {
	r := NewRegistry(testLogger)

	s := NewSession("tiny", 1)
	s.IdentityID = "alice"
	s.setState(StateActive)
	r.Register(s)

	if n := r.Broadcast("alice", EventNewMessage, 1); n != 1 {
		t.Fatalf("expected first event delivered, got %d", n)
	}
	if n := r.Broadcast("alice", EventNewMessage, 2); n != 0 {
		t.Fatalf("expected second event dropped, got %d", n)
	}
}

func TestRegistryConcurrentConnects(t *testing.T) {
	r := NewRegistry(testLogger)

	const identities = 20
	const perIdentity = 10

	var wg sync.WaitGroup
	for i := range identities {
		for j := range perIdentity {
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				identity := fmt.Sprintf("user-%d", i)
				s := activeSession(r, fmt.Sprintf("%d-%d", i, j), identity)
				r.Broadcast(identity, EventNewMessage, j)
				if j%2 == 0 {
					r.Unregister(s)
					r.Unregister(s)
				}
			}(i, j)
		}
	}
	wg.Wait()

	for i := range identities {
		if n := r.SessionCount(fmt.Sprintf("user-%d", i)); n != perIdentity/2 {
			t.Fatalf("identity %d: expected %d sessions, got %d", i, perIdentity/2, n)
		}
	}
}

func TestRegistryReconnectAfterLastSessionLeft(t *testing.T) {
	r := NewRegistry(testLogger)

	first := activeSession(r, "first", "alice")
	r.Unregister(first)
	if n := r.SessionCount("alice"); n != 0 {
		t.Fatalf("expected no sessions, got %d", n)
	}

	second := activeSession(r, "second", "alice")
	if n := r.Broadcast("alice", EventNewChat, nil); n != 1 {
		t.Fatalf("expected the new session to receive, got %d", n)
	}
	mustEvent(t, second, EventNewChat)

	// Unregistering the stale session must not drop the new set.
	r.Unregister(first)
	if n := r.SessionCount("alice"); n != 1 {
		t.Fatalf("expected 1 session, got %d", n)
	}
}

func TestRegistryIndependentIdentities(t *testing.T) {
	r := NewRegistry(testLogger)

	bob := activeSession(r, "bob", "bob")

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := activeSession(r, fmt.Sprintf("alice-%d", i), "alice")
			r.Unregister(s)
		}(i)
	}
	wg.Wait()

	if n := r.SessionCount("alice"); n != 0 {
		t.Fatalf("expected alice to have no sessions, got %d", n)
	}
	if n := r.Broadcast("bob", EventNewMessage, "x"); n != 1 {
		t.Fatalf("bob's session must be unaffected, got %d deliveries", n)
	}
	mustEvent(t, bob, EventNewMessage)
}
