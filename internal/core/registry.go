package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps identities to their live sessions. Each identity has its own
// session set so broadcasts to different identities never contend.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]*sessionSet
	log  *zerolog.Logger
}

// sessionSet groups the sessions of one identity. A set that became empty is
// marked dead and must not receive new sessions.
type sessionSet struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	dead     bool
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		sets: make(map[string]*sessionSet),
		log:  logger,
	}
}

// Register adds s to its identity's session set. The registry-wide write
// lock is only taken to create a set.
func (r *Registry) Register(s *Session) {
	for {
		set := r.lookup(s.IdentityID)
		if set == nil {
			set = r.createSet(s.IdentityID)
		}

		set.mu.Lock()
		if set.dead {
			set.mu.Unlock()
			r.dropSet(s.IdentityID, set)
			continue
		}
		set.sessions[s] = struct{}{}
		set.mu.Unlock()
		return
	}
}

// Unregister removes s from whatever set holds it. Returns true if removed;
// removing an absent session is a no-op.
func (r *Registry) Unregister(s *Session) bool {
	set := r.lookup(s.IdentityID)
	if set == nil {
		return false
	}

	set.mu.Lock()
	_, exists := set.sessions[s]
	delete(set.sessions, s)
	emptied := len(set.sessions) == 0 && !set.dead
	if emptied {
		set.dead = true
	}
	set.mu.Unlock()

	if emptied {
		r.dropSet(s.IdentityID, set)
	}
	return exists
}

func (r *Registry) lookup(identityID string) *sessionSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sets[identityID]
}

func (r *Registry) createSet(identityID string) *sessionSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[identityID]
	if !ok {
		set = &sessionSet{sessions: make(map[*Session]struct{})}
		r.sets[identityID] = set
	}
	return set
}

// dropSet removes set from the map unless it was already replaced.
func (r *Registry) dropSet(identityID string, set *sessionSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sets[identityID] == set {
		delete(r.sets, identityID)
	}
}

// Broadcast delivers an event to every live session of identityID and
// returns how many sessions accepted it. Identities without sessions are a
// silent no-op; nothing is queued for later.
func (r *Registry) Broadcast(identityID string, name EventName, payload any) int {
	set := r.lookup(identityID)
	if set == nil {
		return 0
	}

	set.mu.Lock()
	targets := make([]*Session, 0, len(set.sessions))
	for s := range set.sessions {
		targets = append(targets, s)
	}
	set.mu.Unlock()

	ev := &Event{Name: name, Payload: payload}
	delivered := 0
	for _, s := range targets {
		if s.Send(ev) {
			delivered++
			continue
		}
		if s.State() == StateClosed {
			continue
		}
		r.log.Warn().
			Str("identity_id", identityID).
			Str("session_id", s.ID).
			Str("event", string(name)).
			Msg("event dropped")
	}
	return delivered
}

// SessionCount returns the number of live sessions of identityID.
func (r *Registry) SessionCount(identityID string) int {
	set := r.lookup(identityID)
	if set == nil {
		return 0
	}

	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.sessions)
}
