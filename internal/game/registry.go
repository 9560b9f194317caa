package game

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNameTaken is returned when activating a name another Active session holds.
var ErrNameTaken = errors.New("Username already taken")

// Registry tracks every live session of a hub.
//
// Only the hub mutates it. The lock exists so HTTP handlers and other
// goroutines can take consistent snapshots.
type Registry struct {
	mu       sync.RWMutex
	seq      uint64
	sessions map[SessionID]*Session
	byName   map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[SessionID]*Session),
		byName:   make(map[string]*Session),
	}
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	s.seq = r.seq
	r.sessions[s.id] = s
}

// remove drops s and marks it Closing. It reports whether s was registered.
func (r *Registry) remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.id]; !ok {
		return false
	}
	delete(r.sessions, s.id)
	if s.state == StateActive {
		key := NameKey(s.username)
		if r.byName[key] == s {
			delete(r.byName, key)
		}
	}
	s.state = StateClosing
	return true
}

// activate assigns name and room to s and marks it Active. The caller checks
// NameTaken first; a duplicate here is a bug and panics.
func (r *Registry) activate(s *Session, name string, room RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.id]; !ok {
		return ErrSessionClosed
	}
	if s.state == StateActive {
		panic(fmt.Sprintf("game: session %s activated twice", s.id))
	}
	key := NameKey(name)
	if other, taken := r.byName[key]; taken {
		panic(fmt.Sprintf("game: name %q already held by session %s", name, other.id))
	}
	r.byName[key] = s
	s.username = name
	s.room = room
	s.state = StateActive
	return nil
}

func (r *Registry) setState(s *Session, state SessionState) {
	r.mu.Lock()
	s.state = state
	r.mu.Unlock()
}

func (r *Registry) relocate(s *Session, room RoomID) {
	r.mu.Lock()
	s.room = room
	r.mu.Unlock()
}

// Get returns the registered session with id.
func (r *Registry) Get(id SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len counts registered sessions in any state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ActiveCount counts sessions that finished login.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// NameTaken reports whether an Active session already uses name.
func (r *Registry) NameTaken(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[NameKey(name)]
	return ok
}

// FindActive looks up an Active session by name, ignoring case.
func (r *Registry) FindActive(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[NameKey(name)]
	return s, ok
}

// ActiveUsernames lists Active usernames sorted case-insensitively.
func (r *Registry) ActiveUsernames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for _, s := range r.byName {
		names = append(names, s.username)
	}
	r.mu.RUnlock()
	sort.Slice(names, func(i, j int) bool {
		ki, kj := NameKey(names[i]), NameKey(names[j])
		if ki == kj {
			return names[i] < names[j]
		}
		return ki < kj
	})
	return names
}

// Active returns Active sessions in connection order.
func (r *Registry) Active() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sortBySeq(out)
	return out
}

// InRoom returns Active sessions located in room, in connection order.
func (r *Registry) InRoom(room RoomID) []*Session {
	r.mu.RLock()
	var out []*Session
	for _, s := range r.byName {
		if s.room == room {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()
	sortBySeq(out)
	return out
}

// All returns every registered session regardless of state.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sortBySeq(out)
	return out
}

func sortBySeq(list []*Session) {
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
}
