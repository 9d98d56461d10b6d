package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-router/internal/log"
)

func mustEvent(t *testing.T, s *Session, name EventName) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-s.Events():
			if ev == nil {
				continue
			}
			if ev.Name == name {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event %s not received", name)
	return nil
}

func mustEnvelope(t *testing.T, s *Session, name EventName) Envelope {
	t.Helper()

	ev := mustEvent(t, s, name)
	env, ok := ev.Payload.(Envelope)
	if !ok {
		t.Fatalf("expected envelope payload, got %T", ev.Payload)
	}
	return env
}

func expectNoEvent(t *testing.T, s *Session, name EventName) {
	t.Helper()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-s.Events():
			if ev != nil && ev.Name == name {
				t.Fatalf("unexpected event %s: %+v", name, ev.Payload)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// activeSession builds a registered, active session without going through
// authentication.
func activeSession(r *Registry, id, identityID string) *Session {
	s := NewSession(id, 16)
	s.IdentityID = identityID
	s.setState(StateActive)
	r.Register(s)
	return s
}

// staticAuth maps tokens straight to identity ids.
type staticAuth map[string]string

func (a staticAuth) Authenticate(_ context.Context, token string) (string, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return "", errUnknownToken
}

var errUnknownToken = errors.New("unknown token")

var testLogger = log.Nop()
