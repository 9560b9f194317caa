package commands

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"claymud/internal/game"
)

func newTestHub(t *testing.T, accounts game.Accounts) *game.Hub {
	t.Helper()
	h, err := game.NewHub(game.Options{}, game.NewWorldWithRooms(game.DefaultRooms()), game.NewScriptedDialogue(), accounts, Dispatch)
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	return h
}

// run dispatches line for s and routes the result the way the hub does.
func run(h *game.Hub, s *game.Session, line string) game.Result {
	res := Dispatch(h, s, line)
	h.DeliverForTest(s, res.Messages)
	return res
}

func texts(s *game.Session) []string {
	var out []string
	for _, f := range s.DrainForTest() {
		out = append(out, f.Text)
	}
	return out
}

func single(t *testing.T, s *game.Session) game.Frame {
	t.Helper()
	frames := s.DrainForTest()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1: %v", len(frames), frames)
	}
	return frames[0]
}

func TestParseInput(t *testing.T) {
	in, ok := ParseInput("  whisper   Bob   hello   there ")
	if !ok {
		t.Fatalf("ParseInput rejected a command")
	}
	if in.Verb != "whisper" || in.Rest != "Bob   hello   there" {
		t.Fatalf("parsed %+v", in)
	}
	if diff := cmp.Diff([]string{"Bob", "hello   there"}, in.Args(2)); diff != "" {
		t.Fatalf("Args(2) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Bob", "hello", "there"}, in.Args(0)); diff != "" {
		t.Fatalf("Args(0) (-want +got):\n%s", diff)
	}

	if _, ok := ParseInput(" \t "); ok {
		t.Fatalf("blank line parsed as a command")
	}
	in, _ = ParseInput("look")
	if in.Verb != "look" || in.Rest != "" || len(in.Args(2)) != 0 {
		t.Fatalf("bare verb parsed as %+v", in)
	}
}

func TestFindResolvesAliasesIgnoringCase(t *testing.T) {
	tests := map[string]string{
		"L":     "look",
		"?":     "help",
		"ooc":   "chat",
		"EXIT":  "quit",
		"tell":  "whisper",
		"n":     "go",
		"North": "go",
		"me":    "emote",
	}
	for alias, want := range tests {
		cmd, ok := Find(alias)
		if !ok || cmd.Name != want {
			t.Fatalf("Find(%q) = %v, %v; want %s", alias, cmd, ok, want)
		}
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)

	res := run(h, alice, "dance wildly")
	if res.Quit {
		t.Fatalf("unknown command quit the session")
	}
	f := single(t, alice)
	if f.Kind != game.KindError || f.Text != "Unknown command: dance. Type 'help' for a list of commands." {
		t.Fatalf("frame = %+v", f)
	}
}

func TestSay(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", game.StartRoom)
	carol := h.AddSessionForTest("Carol", "library")

	run(h, alice, "SAY hello all")

	if diff := cmp.Diff([]string{"You say: hello all"}, texts(alice)); diff != "" {
		t.Fatalf("alice (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice says: hello all"}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}
	if got := texts(carol); len(got) != 0 {
		t.Fatalf("carol in another room heard %v", got)
	}

	run(h, alice, "say")
	if f := single(t, alice); f.Kind != game.KindError || f.Text != "What do you want to say?" {
		t.Fatalf("empty say = %+v", f)
	}
	if got := texts(bob); len(got) != 0 {
		t.Fatalf("empty say broadcast %v", got)
	}
}

func TestWhisper(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", "library")
	carol := h.AddSessionForTest("Carol", game.StartRoom)

	run(h, alice, "whisper bob meet me at the tower")
	if diff := cmp.Diff([]string{"You whisper to Bob: meet me at the tower"}, texts(alice)); diff != "" {
		t.Fatalf("alice (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice whispers: meet me at the tower"}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}
	if got := texts(carol); len(got) != 0 {
		t.Fatalf("bystander saw the whisper: %v", got)
	}

	tests := []struct {
		line string
		want string
	}{
		{"whisper", "Usage: whisper <player> <message>"},
		{"whisper Bob", "What do you want to whisper?"},
		{"whisper Dave hi", "Player 'Dave' not found"},
		{"tell alice hi", "You can't whisper to yourself."},
	}
	for _, tt := range tests {
		run(h, alice, tt.line)
		if f := single(t, alice); f.Kind != game.KindError || f.Text != tt.want {
			t.Fatalf("%q = %+v, want %q", tt.line, f, tt.want)
		}
	}
}

func TestWhisperHiddenFromTargetsRoom(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", "library")
	carol := h.AddSessionForTest("Carol", "library")
	dave := h.AddSessionForTest("Dave", game.StartRoom)

	run(h, alice, "whisper Bob the key is under the mat")

	if diff := cmp.Diff([]string{"Alice whispers: the key is under the mat"}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}
	for _, bystander := range []*game.Session{carol, dave} {
		if got := texts(bystander); len(got) != 0 {
			t.Fatalf("%s overheard %v", bystander.Username(), got)
		}
	}
}

func TestChatReachesEveryRoom(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", "cellar")

	run(h, alice, "ooc anyone around?")
	if diff := cmp.Diff([]string{"You say globally: anyone around?"}, texts(alice)); diff != "" {
		t.Fatalf("alice (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"[Global] Alice: anyone around?"}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}

	run(h, alice, "chat")
	if f := single(t, alice); f.Text != "What do you want to say globally?" {
		t.Fatalf("empty chat = %q", f.Text)
	}
}

func TestWho(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("alice", game.StartRoom)
	h.AddSessionForTest("Bob", "tower")

	run(h, alice, "who")
	want := "Players online (2):\n  alice\n  Bob"
	if f := single(t, alice); f.Text != want {
		t.Fatalf("who = %q, want %q", f.Text, want)
	}
}

func TestLook(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	h.AddSessionForTest("Bob", game.StartRoom)

	run(h, alice, "l")
	f := single(t, alice)
	view, ok := f.Data.(game.RoomView)
	if f.Kind != game.KindRoomInfo || !ok {
		t.Fatalf("look = %+v", f)
	}
	if view.Title != "Town Square" || !cmp.Equal(view.Players, []string{"Bob"}) {
		t.Fatalf("view = %+v", view)
	}

	tests := []struct {
		line string
		kind game.MessageKind
		want string
	}{
		{"look crier", game.KindMessage, `Town Crier stands here. They say, "Hear ye! Newcomers gather here."`},
		{"look bob", game.KindMessage, "Bob is here with you."},
		{"look alice", game.KindMessage, "You look yourself over. Still in one piece."},
		{"look n", game.KindMessage, "Looking north you glimpse Quiet Library."},
		{"look dragon", game.KindError, "You don't see that here."},
	}
	for _, tt := range tests {
		run(h, alice, tt.line)
		if f := single(t, alice); f.Kind != tt.kind || f.Text != tt.want {
			t.Fatalf("%q = %+v, want %q", tt.line, f, tt.want)
		}
	}
}

func TestMove(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", game.StartRoom)
	carol := h.AddSessionForTest("Carol", "library")

	run(h, alice, "n")

	if alice.Room() != "library" {
		t.Fatalf("alice in %q, want library", alice.Room())
	}
	frames := alice.DrainForTest()
	if len(frames) != 2 || frames[0].Text != "You go north." || frames[1].Kind != game.KindRoomInfo {
		t.Fatalf("alice frames = %+v", frames)
	}
	if view := frames[1].Data.(game.RoomView); !cmp.Equal(view.Players, []string{"Carol"}) {
		t.Fatalf("library players = %v", view.Players)
	}
	if diff := cmp.Diff([]string{"Alice leaves north."}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice has entered the room."}, texts(carol)); diff != "" {
		t.Fatalf("carol (-want +got):\n%s", diff)
	}
	if got := h.World().PlayersInRoom("library"); !cmp.Equal(got, []string{"Carol", "Alice"}) {
		t.Fatalf("library occupants = %v", got)
	}

	run(h, alice, "go South")
	if alice.Room() != game.StartRoom {
		t.Fatalf("go South left alice in %q", alice.Room())
	}
	alice.DrainForTest()

	tests := []struct {
		line string
		want string
	}{
		{"west", "You can't go that way."},
		{"go", "Usage: go <direction>"},
		{"go sideways", "You can't go that way."},
	}
	for _, tt := range tests {
		run(h, alice, tt.line)
		if f := single(t, alice); f.Kind != game.KindError || f.Text != tt.want {
			t.Fatalf("%q = %+v, want %q", tt.line, f, tt.want)
		}
	}
}

func TestMoveIntoEmptyRoomNotifiesNobody(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)

	run(h, alice, "up")
	frames := alice.DrainForTest()
	if len(frames) != 2 {
		t.Fatalf("alice frames = %+v", frames)
	}
	for _, f := range frames {
		if strings.Contains(f.Text, "has entered the room") {
			t.Fatalf("mover saw their own arrival: %q", f.Text)
		}
	}
}

func TestTalkContinuesConversation(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", game.StartRoom)

	run(h, alice, "talk crier")
	want := `Town Crier says: "Welcome to town, traveller. The library lies north and the market east."`
	if f := single(t, alice); f.Text != want {
		t.Fatalf("first talk = %q", f.Text)
	}
	if diff := cmp.Diff([]string{"Alice talks with Town Crier."}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}

	run(h, alice, "talk town")
	want = `Town Crier says: "The old tower above us has the best view for miles."`
	if f := single(t, alice); f.Text != want {
		t.Fatalf("second talk = %q", f.Text)
	}

	run(h, alice, "talk mirela")
	if f := single(t, alice); f.Kind != game.KindError || f.Text != "You don't see mirela here." {
		t.Fatalf("absent npc = %+v", f)
	}
	run(h, alice, "talk")
	if f := single(t, alice); f.Text != "Talk to whom?" {
		t.Fatalf("bare talk = %q", f.Text)
	}
}

func TestHelp(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)

	run(h, alice, "?")
	f := single(t, alice)
	if f.Kind != game.KindHelp || !strings.HasPrefix(f.Text, "Commands:") {
		t.Fatalf("help = %+v", f)
	}
	for _, cmd := range All() {
		if !strings.Contains(f.Text, cmd.Usage) {
			t.Fatalf("help is missing %q", cmd.Usage)
		}
	}

	run(h, alice, "help tell")
	if f := single(t, alice); !strings.Contains(f.Text, "Aliases: tell") {
		t.Fatalf("help tell = %q", f.Text)
	}
	run(h, alice, "help fly")
	if f := single(t, alice); f.Kind != game.KindError {
		t.Fatalf("help for unknown topic = %+v", f)
	}
}

func TestQuit(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)

	res := Dispatch(h, alice, "exit")
	if !res.Quit {
		t.Fatalf("exit did not request teardown")
	}
	if len(res.Messages) != 1 || res.Messages[0].Kind != game.KindGoodbye || res.Messages[0].Text != "Goodbye, Alice. Come back soon!" {
		t.Fatalf("messages = %+v", res.Messages)
	}
}

func TestEmote(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	bob := h.AddSessionForTest("Bob", game.StartRoom)

	run(h, alice, "emote waves cheerfully")
	if diff := cmp.Diff([]string{"Alice waves cheerfully"}, texts(alice)); diff != "" {
		t.Fatalf("alice (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice waves cheerfully"}, texts(bob)); diff != "" {
		t.Fatalf("bob (-want +got):\n%s", diff)
	}
}

func TestPasswordValidation(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	run(h, alice, "password secret1")
	if f := single(t, alice); f.Text != "Name protection is not available on this server." {
		t.Fatalf("password without accounts = %q", f.Text)
	}

	accounts, err := game.NewAccountManager("")
	if err != nil {
		t.Fatalf("NewAccountManager: %v", err)
	}
	h = newTestHub(t, accounts)
	alice = h.AddSessionForTest("Alice", game.StartRoom)
	run(h, alice, "password abc")
	if f := single(t, alice); f.Kind != game.KindError || f.Text != "Password must be at least 6 characters." {
		t.Fatalf("short password = %+v", f)
	}
	if accounts.Protected("Alice") {
		t.Fatalf("short password stored")
	}
}

func TestMoveNotifiesEachExistingOccupant(t *testing.T) {
	h := newTestHub(t, nil)
	alice := h.AddSessionForTest("Alice", game.StartRoom)
	carol := h.AddSessionForTest("Carol", "library")
	dave := h.AddSessionForTest("Dave", "library")

	run(h, alice, "north")

	notices := 0
	for _, occupant := range []*game.Session{carol, dave} {
		got := texts(occupant)
		if diff := cmp.Diff([]string{"Alice has entered the room."}, got); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", occupant.Username(), diff)
		}
		notices += len(got)
	}
	if notices != 2 {
		t.Fatalf("entering a room with 2 occupants sent %d notices", notices)
	}
	for _, text := range texts(alice) {
		if strings.Contains(text, "has entered") {
			t.Fatalf("mover was told about its own entry: %q", text)
		}
	}
}
