package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func newTestSession(buffer int) *Session {
	return newSession(detachedTransport{}, buffer, nil, zerolog.Nop())
}

func activeSession(t *testing.T, r *Registry, name string, room RoomID) *Session {
	t.Helper()
	s := newTestSession(16)
	r.add(s)
	if err := r.activate(s, name, room); err != nil {
		t.Fatalf("activate %s: %v", name, err)
	}
	return s
}

func TestRegistryActivateAndLookup(t *testing.T) {
	r := NewRegistry()
	pending := newTestSession(4)
	r.add(pending)
	alice := activeSession(t, r, "Alice", StartRoom)

	if got := r.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if got := r.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount = %d, want 1", got)
	}
	if !r.NameTaken("ALICE") {
		t.Fatalf("NameTaken should ignore case")
	}
	found, ok := r.FindActive("alice")
	if !ok || found != alice {
		t.Fatalf("FindActive returned %v, %v", found, ok)
	}
	if pending.State() != StateAwaitingUsername {
		t.Fatalf("pending state = %v", pending.State())
	}
	if alice.State() != StateActive || alice.Username() != "Alice" || alice.Room() != StartRoom {
		t.Fatalf("alice not activated: %v %q %q", alice.State(), alice.Username(), alice.Room())
	}
}

func TestRegistryActiveUsernamesSortedCaseInsensitively(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"carol", "Bob", "alice", "Dave"} {
		activeSession(t, r, name, StartRoom)
	}
	r.add(newTestSession(1))

	want := []string{"alice", "Bob", "carol", "Dave"}
	if diff := cmp.Diff(want, r.ActiveUsernames()); diff != "" {
		t.Fatalf("ActiveUsernames mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRemoveFreesName(t *testing.T) {
	r := NewRegistry()
	alice := activeSession(t, r, "Alice", StartRoom)

	if !r.remove(alice) {
		t.Fatalf("remove reported alice as unknown")
	}
	if r.remove(alice) {
		t.Fatalf("second remove should report false")
	}
	if alice.State() != StateClosing {
		t.Fatalf("state after remove = %v, want closing", alice.State())
	}
	if r.NameTaken("Alice") {
		t.Fatalf("name still taken after remove")
	}
	if _, ok := r.Get(alice.ID()); ok {
		t.Fatalf("removed session still registered")
	}

	again := activeSession(t, r, "alice", StartRoom)
	if again.Username() != "alice" {
		t.Fatalf("name not reusable after remove")
	}
}

func TestRegistryDuplicateActivationPanics(t *testing.T) {
	r := NewRegistry()
	activeSession(t, r, "Alice", StartRoom)
	other := newTestSession(1)
	r.add(other)

	defer func() {
		if recover() == nil {
			t.Fatalf("activating a held name should panic")
		}
	}()
	_ = r.activate(other, "aLiCe", StartRoom)
}

func TestRegistryActivateUnknownSession(t *testing.T) {
	r := NewRegistry()
	s := newTestSession(1)
	if err := r.activate(s, "Alice", StartRoom); err != ErrSessionClosed {
		t.Fatalf("activate unregistered = %v, want ErrSessionClosed", err)
	}
}

func TestRegistryInRoomFollowsRelocate(t *testing.T) {
	r := NewRegistry()
	alice := activeSession(t, r, "Alice", StartRoom)
	bob := activeSession(t, r, "Bob", StartRoom)

	r.relocate(bob, "library")

	if got := r.InRoom(StartRoom); len(got) != 1 || got[0] != alice {
		t.Fatalf("InRoom(start) = %v", got)
	}
	if got := r.InRoom("library"); len(got) != 1 || got[0] != bob {
		t.Fatalf("InRoom(library) = %v", got)
	}
}
