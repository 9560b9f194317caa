package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoExit is returned by Move when the room has no matching exit.
var ErrNoExit = errors.New("You can't go that way.")

// RoomView is the snapshot a viewer sees when looking at a room. It travels as
// the data payload of room_info frames.
type RoomView struct {
	ID          RoomID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Exits       []string `json:"exits"`
	Players     []string `json:"players"`
	NPCs        []string `json:"npcs"`
}

// Text renders the view as plain text wrapped to width.
func (v RoomView) Text(width int) string {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteString("\n")
	b.WriteString(WrapText(v.Description, width))
	b.WriteString("\nExits: ")
	if len(v.Exits) == 0 {
		b.WriteString("none")
	} else {
		b.WriteString(strings.Join(v.Exits, " "))
	}
	if len(v.Players) > 0 {
		b.WriteString("\nAlso here: ")
		b.WriteString(strings.Join(v.Players, ", "))
	}
	if len(v.NPCs) > 0 {
		b.WriteString("\nYou see: ")
		b.WriteString(strings.Join(v.NPCs, ", "))
	}
	return b.String()
}

// DescribeRoom builds what viewer sees in room. viewer is left out of the
// player list.
func DescribeRoom(world World, room RoomID, viewer string) (RoomView, bool) {
	r, ok := world.Room(room)
	if !ok {
		return RoomView{}, false
	}
	view := RoomView{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Exits:       ExitList(r),
		Players:     FilterOut(world.PlayersInRoom(room), viewer),
		NPCs:        make([]string, 0, len(r.NPCs)),
	}
	for _, npc := range r.NPCs {
		view.NPCs = append(view.NPCs, npc.Name)
	}
	return view, true
}

// RoomInfo describes the actor's current room as a room_info envelope. A room
// the world no longer knows is reported as an internal error.
func (h *Hub) RoomInfo(s *Session) Envelope {
	view, ok := DescribeRoom(h.world, s.room, s.username)
	if !ok {
		return h.Internal(s, fmt.Errorf("room %q not found", s.room))
	}
	return Envelope{Scope: ScopeSelf{}, Kind: KindRoomInfo, Text: view.Text(defaultWrapWidth), Data: view}
}

// MoveResult describes a completed move.
type MoveResult struct {
	Exit string
	From RoomID
	To   RoomID
}

// Move takes s through the exit of its room matching direction. It must be
// called on the hub, which is what command handlers run on.
func (h *Hub) Move(s *Session, direction string) (MoveResult, error) {
	from := s.room
	if _, ok := h.world.Room(from); !ok {
		return MoveResult{}, fmt.Errorf("room %q not found", from)
	}
	exit, to, ok := h.world.FindExit(from, direction)
	if !ok {
		return MoveResult{}, ErrNoExit
	}
	if _, ok := h.world.Room(to); !ok {
		return MoveResult{}, fmt.Errorf("exit %s of %s leads to missing room %q", exit, from, to)
	}
	h.world.MovePlayer(s.username, from, to)
	h.registry.relocate(s, to)
	return MoveResult{Exit: exit, From: from, To: to}, nil
}

// ExitList returns the exits for a room in a deterministic order.
func ExitList(r *Room) []string {
	keys := make([]string, 0, len(r.Exits))
	for k := range r.Exits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilterOut returns a copy of list without the provided name.
func FilterOut(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if !SameName(v, name) {
			out = append(out, v)
		}
	}
	return out
}
