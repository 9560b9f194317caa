package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	loginBanner = "╔══════════════════════════════════════╗\n" +
		"║               CLAYMUD                ║\n" +
		"║    A small world, shared by many     ║\n" +
		"╚══════════════════════════════════════╝"
	loginTagline = "Type your name to begin. Names can be protected later with 'password'."

	checkingPasswordText = "Checking password, please wait."
)

var errTooManyFailures = errors.New("too many failed password attempts")

func (h *Hub) greet(s *Session) {
	h.deliver(s, []Envelope{
		ToSelf(KindWelcome, loginBanner+"\n"+loginTagline),
		ToSelf(KindSystem, namePromptText),
	})
}

func (h *Hub) askName(s *Session, problem string) {
	var msgs []Envelope
	if problem != "" {
		msgs = append(msgs, ToSelf(KindError, problem))
	}
	msgs = append(msgs, ToSelf(KindSystem, namePromptText))
	h.deliver(s, msgs)
}

func (h *Hub) handleUsername(s *Session, line string) {
	name := strings.TrimSpace(line)
	if name == "" {
		h.askName(s, "")
		return
	}
	note, err := h.names.Validate(name)
	if err != nil {
		h.askName(s, err.Error())
		return
	}
	if h.registry.NameTaken(name) {
		h.askName(s, ErrNameTaken.Error())
		return
	}
	if h.accounts != nil && h.accounts.Protected(name) {
		s.pendingName = name
		s.pendingNote = note
		h.registry.setState(s, StateAwaitingPassword)
		h.deliver(s, []Envelope{ToSelf(KindSecret, "Password:")})
		return
	}
	h.activate(s, name, note)
}

func (h *Hub) handlePassword(s *Session, line string) {
	if s.verifying {
		h.deliver(s, []Envelope{ToSelf(KindSystem, checkingPasswordText)})
		return
	}
	s.verifying = true
	id, name, password := s.id, s.pendingName, strings.TrimSpace(line)
	h.goThen(func() func() {
		ok := h.accounts.Authenticate(name, password)
		return func() { h.finishPassword(id, name, ok) }
	})
}

func (h *Hub) finishPassword(id SessionID, name string, ok bool) {
	s, found := h.registry.Get(id)
	if !found || s.state != StateAwaitingPassword {
		return
	}
	s.verifying = false
	if ok {
		h.activate(s, name, s.pendingNote)
		return
	}
	s.failures++
	s.pendingName, s.pendingNote = "", ""
	s.logger.Warn().Str("username", name).Int("failures", s.failures).Msg("password rejected")
	if s.failures >= h.opts.PasswordRetries {
		h.deliver(s, []Envelope{
			ToSelf(KindError, "Incorrect password."),
			ToSelf(KindGoodbye, "Too many failed attempts. Goodbye."),
		})
		h.teardown(s, errTooManyFailures)
		return
	}
	h.registry.setState(s, StateAwaitingUsername)
	h.askName(s, "Incorrect password.")
}

// activate is the only place a session becomes Active. The uniqueness check
// is repeated here because a password round-trip may have let another
// session claim the name.
func (h *Hub) activate(s *Session, name, note string) {
	if h.registry.NameTaken(name) {
		s.pendingName, s.pendingNote = "", ""
		h.registry.setState(s, StateAwaitingUsername)
		h.askName(s, ErrNameTaken.Error())
		return
	}
	room := h.opts.StartRoom
	if err := h.registry.activate(s, name, room); err != nil {
		return
	}
	s.pendingName, s.pendingNote = "", ""
	h.world.AddPlayer(name, room)

	msgs := []Envelope{ToSelf(KindWelcome, fmt.Sprintf("Welcome, %s!", name))}
	if note != "" {
		msgs = append(msgs, ToSelf(KindSystem, note))
	}
	if h.accounts != nil {
		if stats, ok := h.accounts.Stats(name); ok && !stats.LastLogin.IsZero() {
			msgs = append(msgs, ToSelf(KindSystem, "Last login: "+stats.LastLogin.Format("2006-01-02 15:04 MST")))
		}
	}
	msgs = append(msgs,
		h.RoomInfo(s),
		ToRoomID(room, KindMovement, name+" has entered the room."),
	)
	h.deliver(s, msgs)
	h.prompt(s)

	s.logger.Info().Str("username", name).Str("room", string(room)).Msg("player logged in")

	if h.accounts != nil && h.accounts.Protected(name) {
		accounts := h.accounts
		h.goThen(func() func() {
			if err := accounts.RecordLogin(name, time.Now()); err != nil {
				h.logger.Error().Err(err).Str("username", name).Msg("record login")
			}
			return nil
		})
	}
}
