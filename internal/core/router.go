package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-router/internal/utils"
)

// Authenticator resolves connection credentials to an identity id.
type Authenticator interface {
	Authenticate(ctx context.Context, credentials string) (string, error)
}

// Router owns the connection lifecycle: it authenticates new connections,
// registers them, feeds their commands to the dispatcher in order, and
// unregisters them on disconnect.
type Router struct {
	auth       Authenticator
	registry   *Registry
	dispatcher *Dispatcher
	log        *zerolog.Logger
	buffer     int
}

// NewRouter creates a router. buffer sizes each session's queues.
func NewRouter(auth Authenticator, registry *Registry, dispatcher *Dispatcher, logger *zerolog.Logger, buffer int) *Router {
	return &Router{
		auth:       auth,
		registry:   registry,
		dispatcher: dispatcher,
		log:        logger,
		buffer:     buffer,
	}
}

// Registry returns the session registry shared by the router and dispatcher.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Connect authenticates credentials and returns an active, registered
// session. On failure the session goes straight to closed and nothing is
// registered; the error wraps ErrUnauthenticated.
func (r *Router) Connect(ctx context.Context, credentials string) (*Session, error) {
	session := NewSession(utils.NewID(), r.buffer)

	identityID, err := r.auth.Authenticate(ctx, credentials)
	if err != nil {
		session.close()
		r.log.Info().Err(err).Str("session_id", session.ID).Msg("authentication failed")
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	session.IdentityID = identityID
	session.setState(StateAuthenticated)

	r.registry.Register(session)
	session.setState(StateActive)

	r.log.Info().
		Str("session_id", session.ID).
		Str("identity_id", identityID).
		Msg("session connected")
	return session, nil
}

// Serve dispatches the session's commands one at a time, in the order they
// were submitted, until the session closes or ctx is done. A command already
// running when ctx is cancelled still completes; only its reply to this
// session may go undelivered.
func (r *Router) Serve(ctx context.Context, s *Session) {
	for {
		select {
		case cmd := <-s.commands:
			if s.State() != StateActive {
				return
			}
			r.dispatcher.Execute(context.WithoutCancel(ctx), s.IdentityID, cmd)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Disconnect closes the session and removes it from the registry. Repeated
// calls are no-ops and never touch the identity's other sessions.
func (r *Router) Disconnect(s *Session) {
	closed := s.close()
	removed := r.registry.Unregister(s)

	if closed || removed {
		r.log.Info().
			Str("session_id", s.ID).
			Str("identity_id", s.IdentityID).
			Msg("session disconnected")
	}
}
