package game

import "fmt"

// Router resolves envelope scopes against a registry and queues frames.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Deliver queues each envelope for its recipients in order. Recipients whose
// queue rejected a frame are returned once each, in first-failure order, so
// the caller can tear them down after the loop. One failure never stops
// delivery to the others. actor may be nil for server-originated messages.
func (r *Router) Deliver(actor *Session, envelopes []Envelope) []*Session {
	var failed []*Session
	seen := make(map[SessionID]bool)
	for _, env := range envelopes {
		frame := env.frame()
		for _, target := range r.Recipients(actor, env.Scope) {
			if seen[target.id] {
				continue
			}
			if err := target.enqueue(frame); err != nil {
				target.logger.Debug().Err(err).Str("kind", string(env.Kind)).Msg("dropping recipient")
				seen[target.id] = true
				failed = append(failed, target)
			}
		}
	}
	return failed
}

// Recipients expands scope into the sessions that should receive it.
func (r *Router) Recipients(actor *Session, scope Scope) []*Session {
	switch sc := scope.(type) {
	case ScopeSelf:
		if actor == nil {
			return nil
		}
		return []*Session{actor}
	case ScopeRoom:
		room := sc.Room
		if room == "" {
			if actor == nil {
				return nil
			}
			room = actor.room
		}
		if room == "" {
			return nil
		}
		return without(r.registry.InRoom(room), actor)
	case ScopeGlobal:
		return without(r.registry.Active(), actor)
	case ScopeDirect:
		target, ok := r.registry.Get(sc.Target)
		if !ok || target.state != StateActive {
			return nil
		}
		return []*Session{target}
	default:
		panic(fmt.Sprintf("game: unknown scope %T", scope))
	}
}

func without(list []*Session, actor *Session) []*Session {
	if actor == nil {
		return list
	}
	out := list[:0]
	for _, s := range list {
		if s != actor {
			out = append(out, s)
		}
	}
	return out
}
