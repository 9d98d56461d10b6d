package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// ConnState is the lifecycle state of a connection.
type ConnState int32

const (
	// StateConnecting means the transport is up and authentication is pending.
	StateConnecting ConnState = iota
	// StateAuthenticated means the identity is resolved but not yet registered.
	StateAuthenticated
	// StateActive means commands are dispatched.
	StateActive
	// StateClosed is terminal.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session binds one live connection to one identity.
type Session struct {
	ID         string
	IdentityID string

	commands  chan Command
	events    chan *Event
	done      chan struct{}
	closeOnce sync.Once
	state     atomic.Int32
}

// NewSession constructs a session in the connecting state. buffer bounds both
// the inbound command queue and the outbound event queue.
func NewSession(id string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 8
	}
	return &Session{
		ID:       id,
		commands: make(chan Command, buffer),
		events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *Session) setState(state ConnState) {
	s.state.Store(int32(state))
}

// Events is the outbound queue drained by the transport's write loop.
func (s *Session) Events() <-chan *Event {
	return s.events
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send queues an event without blocking. It returns false if the session is
// closed or its queue is full; the event is dropped in both cases.
func (s *Session) Send(ev *Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}

// Submit queues a command for in-order dispatch. It blocks while the command
// queue is full.
func (s *Session) Submit(ctx context.Context, cmd Command) error {
	switch s.State() {
	case StateActive:
	case StateClosed:
		return ErrSessionClosed
	default:
		return ErrSessionInactive
	}

	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close moves the session to closed. Safe to call repeatedly.
func (s *Session) close() bool {
	closed := false
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		close(s.done)
		closed = true
	})
	return closed
}
