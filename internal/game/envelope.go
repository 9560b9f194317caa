package game

// MessageKind tags a frame so each transport can render it.
type MessageKind string

const (
	KindWelcome  MessageKind = "welcome"
	KindPrompt   MessageKind = "prompt"
	KindSecret   MessageKind = "password"
	KindRoomInfo MessageKind = "room_info"
	KindMovement MessageKind = "movement"
	KindMessage  MessageKind = "message"
	KindError    MessageKind = "error"
	KindHelp     MessageKind = "help"
	KindGoodbye  MessageKind = "goodbye"
	KindSystem   MessageKind = "system"
	KindPong     MessageKind = "pong"
)

// Scope selects the recipients of an envelope. The set of scopes is closed.
type Scope interface {
	isScope()
}

// ScopeSelf delivers to the acting session only.
type ScopeSelf struct{}

// ScopeRoom delivers to every Active session in Room except the actor. An
// empty Room means the actor's room at delivery time.
type ScopeRoom struct {
	Room RoomID
}

// ScopeGlobal delivers to every Active session except the actor.
type ScopeGlobal struct{}

// ScopeDirect delivers to Target only. A target that has gone away is a
// silent no-op.
type ScopeDirect struct {
	Target SessionID
}

func (ScopeSelf) isScope()   {}
func (ScopeRoom) isScope()   {}
func (ScopeGlobal) isScope() {}
func (ScopeDirect) isScope() {}

// Envelope is a message plus the scope it is addressed to.
type Envelope struct {
	Scope Scope
	Kind  MessageKind
	Text  string
	Data  any
}

func (e Envelope) frame() Frame {
	return Frame{Kind: e.Kind, Text: e.Text, Data: e.Data}
}

// ToSelf addresses text to the actor.
func ToSelf(kind MessageKind, text string) Envelope {
	return Envelope{Scope: ScopeSelf{}, Kind: kind, Text: text}
}

// ToRoom addresses text to the other occupants of the actor's current room.
func ToRoom(text string) Envelope {
	return Envelope{Scope: ScopeRoom{}, Kind: KindMessage, Text: text}
}

// ToRoomID addresses text to the other occupants of a specific room.
func ToRoomID(room RoomID, kind MessageKind, text string) Envelope {
	return Envelope{Scope: ScopeRoom{Room: room}, Kind: kind, Text: text}
}

// ToGlobal addresses text to every other Active session.
func ToGlobal(text string) Envelope {
	return Envelope{Scope: ScopeGlobal{}, Kind: KindMessage, Text: text}
}

// ToSession addresses text to one session.
func ToSession(id SessionID, text string) Envelope {
	return Envelope{Scope: ScopeDirect{Target: id}, Kind: KindMessage, Text: text}
}

// Result is what a command handler hands back to the hub.
type Result struct {
	Messages []Envelope
	// Quit tears the session down after Messages are delivered.
	Quit bool
}

// Reply is a Result holding a single message to the actor.
func Reply(kind MessageKind, text string) Result {
	return Result{Messages: []Envelope{ToSelf(kind, text)}}
}
