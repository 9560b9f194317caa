package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// StartRoom is the default entry point for new players.
const StartRoom RoomID = "start"

type RoomID string

type Room struct {
	ID          RoomID            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Exits       map[string]RoomID `json:"exits"`
	NPCs        []NPC             `json:"npcs"`
}

type NPC struct {
	Name      string   `json:"name"`
	AutoGreet string   `json:"auto_greet,omitempty"`
	Dialogue  []string `json:"dialogue,omitempty"`
}

// World is the room and occupancy collaborator the hub drives. The hub is
// the only writer; readers on other goroutines must tolerate a moving target.
type World interface {
	Room(id RoomID) (*Room, bool)
	// FindExit resolves direction against the exits of from and returns the
	// exit label as written in the room plus its destination.
	FindExit(from RoomID, direction string) (string, RoomID, bool)
	MovePlayer(name string, from, to RoomID)
	AddPlayer(name string, room RoomID)
	RemovePlayer(name string, room RoomID)
	PlayersInRoom(room RoomID) []string
	FindNPC(room RoomID, name string) (*NPC, bool)
}

// MemoryWorld keeps rooms and occupancy in memory.
type MemoryWorld struct {
	mu        sync.RWMutex
	rooms     map[RoomID]*Room
	occupants map[RoomID][]string
}

// NewWorld loads every *.json area file under areasPath. An empty path yields
// the built-in world.
func NewWorld(areasPath string) (*MemoryWorld, error) {
	if strings.TrimSpace(areasPath) == "" {
		return NewWorldWithRooms(DefaultRooms()), nil
	}
	rooms, err := loadRooms(areasPath)
	if err != nil {
		return nil, err
	}
	return NewWorldWithRooms(rooms), nil
}

// NewWorldWithRooms constructs a world populated with the provided rooms.
func NewWorldWithRooms(rooms map[RoomID]*Room) *MemoryWorld {
	for _, r := range rooms {
		if r.Exits == nil {
			r.Exits = make(map[string]RoomID)
		}
	}
	return &MemoryWorld{
		rooms:     rooms,
		occupants: make(map[RoomID][]string),
	}
}

type areaFile struct {
	Name  string `json:"name"`
	Rooms []Room `json:"rooms"`
}

func loadRooms(areasPath string) (map[RoomID]*Room, error) {
	entries, err := os.ReadDir(areasPath)
	if err != nil {
		return nil, fmt.Errorf("read areas: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	rooms := make(map[RoomID]*Room)
	for _, name := range names {
		if err := loadAreaFile(areasPath, name, rooms); err != nil {
			return nil, err
		}
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no rooms loaded from %s", areasPath)
	}
	for id, r := range rooms {
		for dir, dest := range r.Exits {
			if _, ok := rooms[dest]; !ok {
				return nil, fmt.Errorf("room %s: exit %s leads to unknown room %s", id, dir, dest)
			}
		}
	}
	return rooms, nil
}

func loadAreaFile(areasPath, name string, rooms map[RoomID]*Room) error {
	data, err := os.ReadFile(filepath.Join(areasPath, name))
	if err != nil {
		return fmt.Errorf("read area %s: %w", name, err)
	}
	var file areaFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode area %s: %w", name, err)
	}
	for i := range file.Rooms {
		room := file.Rooms[i]
		if room.ID == "" {
			return fmt.Errorf("area %s contains a room without an id", name)
		}
		if _, exists := rooms[room.ID]; exists {
			return fmt.Errorf("duplicate room id %s", room.ID)
		}
		if room.Exits == nil {
			room.Exits = make(map[string]RoomID)
		}
		rooms[room.ID] = &room
	}
	return nil
}

func (w *MemoryWorld) Room(id RoomID) (*Room, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.rooms[id]
	return r, ok
}

// FindExit matches direction case-insensitively, accepting an unambiguous
// prefix of an exit label.
func (w *MemoryWorld) FindExit(from RoomID, direction string) (string, RoomID, bool) {
	target := strings.TrimSpace(direction)
	if target == "" {
		return "", "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.rooms[from]
	if !ok || len(r.Exits) == 0 {
		return "", "", false
	}
	names := make([]string, 0, len(r.Exits))
	for dir := range r.Exits {
		names = append(names, dir)
	}
	sort.Strings(names)
	idx, ok := resolveName(target, names, false)
	if !ok {
		return "", "", false
	}
	return names[idx], r.Exits[names[idx]], true
}

func (w *MemoryWorld) AddPlayer(name string, room RoomID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addLocked(name, room)
}

func (w *MemoryWorld) RemovePlayer(name string, room RoomID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(name, room)
}

func (w *MemoryWorld) MovePlayer(name string, from, to RoomID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(name, from)
	w.addLocked(name, to)
}

func (w *MemoryWorld) addLocked(name string, room RoomID) {
	for _, existing := range w.occupants[room] {
		if SameName(existing, name) {
			return
		}
	}
	w.occupants[room] = append(w.occupants[room], name)
}

func (w *MemoryWorld) removeLocked(name string, room RoomID) {
	list := w.occupants[room]
	for i, existing := range list {
		if SameName(existing, name) {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(w.occupants, room)
		return
	}
	w.occupants[room] = list
}

// PlayersInRoom lists occupants in arrival order.
func (w *MemoryWorld) PlayersInRoom(room RoomID) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	list := w.occupants[room]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// FindNPC locates an NPC in room by name. Matching is case-insensitive and
// supports prefix lookups on any word of the name.
func (w *MemoryWorld) FindNPC(room RoomID, name string) (*NPC, bool) {
	target := strings.TrimSpace(name)
	if target == "" {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.rooms[room]
	if !ok || len(r.NPCs) == 0 {
		return nil, false
	}
	candidates := make([]string, len(r.NPCs))
	for i, npc := range r.NPCs {
		candidates[i] = npc.Name
	}
	idx, ok := resolveName(target, candidates, true)
	if !ok {
		return nil, false
	}
	npc := r.NPCs[idx]
	return &npc, true
}

// DefaultRooms is the small world served when no areas directory is configured.
func DefaultRooms() map[RoomID]*Room {
	return map[RoomID]*Room{
		StartRoom: {
			ID:          StartRoom,
			Title:       "Town Square",
			Description: "Cobblestones ring a dry fountain at the heart of town. Lanterns hang from iron posts, and a notice board leans against the fountain's rim.",
			Exits:       map[string]RoomID{"north": "library", "east": "market", "up": "tower"},
			NPCs: []NPC{{
				Name:      "Town Crier",
				AutoGreet: "Hear ye! Newcomers gather here.",
				Dialogue: []string{
					"Welcome to town, traveller. The library lies north and the market east.",
					"The old tower above us has the best view for miles.",
					"Mind your manners in the market. The merchants talk to each other.",
				},
			}},
		},
		"library": {
			ID:          "library",
			Title:       "Quiet Library",
			Description: "Shelves climb to the rafters, crowded with ledgers and leather-bound histories. Dust drifts through the light from a tall window.",
			Exits:       map[string]RoomID{"south": StartRoom},
			NPCs: []NPC{{
				Name: "Archivist Mirela",
				Dialogue: []string{
					"Keep your voice down, please. Whisper if you must speak.",
					"Every room you visit is recorded somewhere in these shelves.",
				},
			}},
		},
		"market": {
			ID:          "market",
			Title:       "Market Street",
			Description: "Stalls of bright canvas line both sides of the street. Merchants call out prices over the clatter of carts.",
			Exits:       map[string]RoomID{"west": StartRoom, "down": "cellar"},
			NPCs: []NPC{{
				Name:     "Merchant Oskar",
				Dialogue: []string{"Fresh bread, fair prices! Well, fresh-ish."},
			}},
		},
		"cellar": {
			ID:          "cellar",
			Title:       "Damp Cellar",
			Description: "Barrels crowd a low stone cellar beneath the market. Water drips somewhere in the dark.",
			Exits:       map[string]RoomID{"up": "market"},
		},
		"tower": {
			ID:          "tower",
			Title:       "Watchtower Platform",
			Description: "Wind tugs at your clothes atop the old watchtower. The whole town spreads out below.",
			Exits:       map[string]RoomID{"down": StartRoom},
		},
	}
}
