package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Handler executes one command for identityID.
type Handler func(ctx context.Context, identityID string, payload json.RawMessage) (Outcome, error)

// Outcome is a successful handler result: the envelope value plus any
// events to broadcast after the reply.
type Outcome struct {
	Value     any
	FollowUps []Delivery
}

// Dispatcher runs handlers and replies with a uniform envelope on the
// caller's result event. The reply goes to every live session of the caller.
type Dispatcher struct {
	registry *Registry
	handlers map[CommandKind]Handler
	log      *zerolog.Logger
}

// NewDispatcher creates a dispatcher over a fixed handler table.
func NewDispatcher(registry *Registry, handlers map[CommandKind]Handler, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		handlers: handlers,
		log:      logger,
	}
}

// Execute runs cmd for identityID, broadcasts the envelope to the caller and,
// on success, the handler's follow-up events. It never returns an error;
// failures travel inside the envelope.
func (d *Dispatcher) Execute(ctx context.Context, identityID string, cmd Command) Envelope {
	outcome, err := d.invoke(ctx, identityID, cmd)

	var env Envelope
	if err != nil {
		ce, domain := toCoreError(err)
		if !domain {
			d.log.Error().Err(err).
				Str("identity_id", identityID).
				Str("command", cmd.Kind.String()).
				Msg("command failed")
		} else {
			d.log.Debug().Err(err).
				Str("identity_id", identityID).
				Str("command", cmd.Kind.String()).
				Msg("command rejected")
		}
		env = Envelope{Success: false, Error: ce.Message, Code: ce.Code}
	} else {
		env = Envelope{Success: true, Value: outcome.Value}
	}

	d.registry.Broadcast(identityID, cmd.Kind.ResultEvent(), env)

	if env.Success {
		for _, f := range outcome.FollowUps {
			d.registry.Broadcast(f.IdentityID, f.Event, f.Payload)
		}
	}

	return env
}

func (d *Dispatcher) invoke(ctx context.Context, identityID string, cmd Command) (outcome Outcome, err error) {
	handler, ok := d.handlers[cmd.Kind]
	if !ok {
		return Outcome{}, coreError(ErrCodeUnknownCommand, "unknown command")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler(ctx, identityID, cmd.Payload)
}
