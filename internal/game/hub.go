package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"claymud/internal/pkg/logx"
)

// Dispatcher executes a command line for an Active session.
type Dispatcher func(h *Hub, s *Session, line string) Result

const (
	defaultEventBuffer     = 256
	defaultOutboundBuffer  = 64
	defaultPasswordRetries = 3
	shutdownFlushTimeout   = 2 * time.Second
)

const (
	promptText       = "> "
	namePromptText   = "What is your name?"
	commandRateText  = "You are sending commands too quickly. Please wait."
	idleFarewellText = "You have been idle too long. Goodbye."
	shutdownText     = "The server is shutting down. Goodbye!"
	internalErrText  = "Something went wrong. Please try again."
)

// Options tunes a Hub. Zero values fall back to defaults.
type Options struct {
	StartRoom       RoomID
	OutboundBuffer  int
	EventBuffer     int
	CommandRate     rate.Limit
	CommandBurst    int
	PasswordRetries int
	Names           NameRules
}

// Hub is the single goroutine that owns session state, the registry and room
// occupancy. Transport read loops post events to it; everything they cause
// happens on the hub in arrival order.
type Hub struct {
	opts       Options
	world      World
	dialogue   Dialogue
	accounts   Accounts
	dispatcher Dispatcher
	registry   *Registry
	router     *Router
	names      *NameValidator
	events     chan event
	done       chan struct{}
	logger     zerolog.Logger
}

// NewHub wires the collaborators together. accounts and dialogue may be nil.
func NewHub(opts Options, world World, dialogue Dialogue, accounts Accounts, dispatcher Dispatcher) (*Hub, error) {
	if world == nil {
		return nil, errors.New("world must not be nil")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher must not be nil")
	}
	if opts.StartRoom == "" {
		opts.StartRoom = StartRoom
	}
	if _, ok := world.Room(opts.StartRoom); !ok {
		return nil, fmt.Errorf("start room %q does not exist", opts.StartRoom)
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = defaultOutboundBuffer
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.PasswordRetries <= 0 {
		opts.PasswordRetries = defaultPasswordRetries
	}
	registry := NewRegistry()
	return &Hub{
		opts:       opts,
		world:      world,
		dialogue:   dialogue,
		accounts:   accounts,
		dispatcher: dispatcher,
		registry:   registry,
		router:     NewRouter(registry),
		names:      NewNameValidator(opts.Names),
		events:     make(chan event, opts.EventBuffer),
		done:       make(chan struct{}),
		logger:     logx.Component("hub"),
	}, nil
}

func (h *Hub) World() World          { return h.world }
func (h *Hub) Dialogue() Dialogue    { return h.dialogue }
func (h *Hub) Accounts() Accounts    { return h.accounts }
func (h *Hub) Sessions() *Registry   { return h.registry }
func (h *Hub) Done() <-chan struct{} { return h.done }

// Run processes events until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info().Str("start_room", string(h.opts.StartRoom)).Msg("hub running")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev := <-h.events:
			ev.apply(h)
		}
	}
}

type event interface {
	apply(h *Hub)
}

type connectEvent struct {
	session *Session
	ack     chan struct{}
}

type lineEvent struct {
	id   SessionID
	line string
}

type disconnectEvent struct {
	id     SessionID
	reason error
}

type noticeEvent struct {
	id  SessionID
	env Envelope
}

type callEvent struct {
	fn func()
}

func (h *Hub) post(ev event) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.events <- ev:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Connect registers a new connection and sends the login banner. The
// transport is closed if the hub is not running.
func (h *Hub) Connect(t Transport) (*Session, error) {
	var limiter *rate.Limiter
	if h.opts.CommandRate > 0 {
		burst := h.opts.CommandBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(h.opts.CommandRate, burst)
	}
	s := newSession(t, h.opts.OutboundBuffer, limiter, h.logger)
	ack := make(chan struct{})
	if err := h.post(connectEvent{session: s, ack: ack}); err != nil {
		_ = t.Close()
		return nil, err
	}
	select {
	case <-ack:
		return s, nil
	case <-h.done:
		_ = t.Close()
		return nil, ErrHubStopped
	}
}

// Line hands one complete input line from session id to the hub.
func (h *Hub) Line(id SessionID, line string) error {
	return h.post(lineEvent{id: id, line: line})
}

// Disconnect tears session id down. Unknown ids are ignored.
func (h *Hub) Disconnect(id SessionID, reason error) {
	_ = h.post(disconnectEvent{id: id, reason: reason})
}

// Notify sends a message to session id alone, outside any command.
func (h *Hub) Notify(id SessionID, kind MessageKind, text string) {
	_ = h.post(noticeEvent{id: id, env: ToSelf(kind, text)})
}

// Go runs work off the hub and delivers its envelopes with s as the actor,
// provided s is still connected when work returns. Use it for anything that
// hashes or touches disk.
func (h *Hub) Go(s *Session, work func() []Envelope) {
	id := s.id
	h.goThen(func() func() {
		msgs := work()
		return func() {
			current, ok := h.registry.Get(id)
			if !ok {
				return
			}
			h.deliver(current, msgs)
			h.prompt(current)
		}
	})
}

// goThen runs work on its own goroutine and the returned continuation back on
// the hub.
func (h *Hub) goThen(work func() func()) {
	go func() {
		next := work()
		if next == nil {
			return
		}
		_ = h.post(callEvent{fn: next})
	}()
}

func (e connectEvent) apply(h *Hub) {
	s := e.session
	h.registry.add(s)
	go s.writeLoop(func(err error) {
		h.Disconnect(s.id, fmt.Errorf("write: %w", err))
	})
	close(e.ack)
	s.logger.Info().Str("remote", logx.AnonymizeIP(s.RemoteAddr())).Msg("session connected")
	h.greet(s)
}

func (e lineEvent) apply(h *Hub) {
	s, ok := h.registry.Get(e.id)
	if !ok {
		return
	}
	switch s.state {
	case StateAwaitingUsername:
		h.handleUsername(s, e.line)
	case StateAwaitingPassword:
		h.handlePassword(s, e.line)
	case StateActive:
		h.handleCommand(s, e.line)
	}
}

func (e disconnectEvent) apply(h *Hub) {
	s, ok := h.registry.Get(e.id)
	if !ok {
		return
	}
	if errors.Is(e.reason, ErrIdleTimeout) {
		_ = s.enqueue(Frame{Kind: KindSystem, Text: idleFarewellText})
	}
	h.teardown(s, e.reason)
}

func (e noticeEvent) apply(h *Hub) {
	s, ok := h.registry.Get(e.id)
	if !ok {
		return
	}
	h.deliver(s, []Envelope{e.env})
	h.prompt(s)
}

func (e callEvent) apply(h *Hub) {
	e.fn()
}

func (h *Hub) handleCommand(s *Session, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		h.prompt(s)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		h.deliver(s, []Envelope{ToSelf(KindError, commandRateText)})
		h.prompt(s)
		return
	}
	res := h.dispatcher(h, s, line)
	h.deliver(s, res.Messages)
	if res.Quit {
		h.teardown(s, nil)
		return
	}
	h.prompt(s)
}

// deliver routes envelopes and tears down every recipient that could not
// take them.
func (h *Hub) deliver(actor *Session, envelopes []Envelope) {
	if len(envelopes) == 0 {
		return
	}
	for _, failed := range h.router.Deliver(actor, envelopes) {
		h.teardown(failed, ErrOutboundFull)
	}
}

func (h *Hub) prompt(s *Session) {
	if s.state != StateActive {
		return
	}
	h.deliver(s, []Envelope{ToSelf(KindPrompt, promptText)})
}

// teardown removes s from the registry and the world, tells its room, and
// closes its queue so the writer flushes and closes the transport. Repeated
// calls are no-ops.
func (h *Hub) teardown(s *Session, reason error) {
	wasActive := s.state == StateActive
	name, room := s.username, s.room
	if !h.registry.remove(s) {
		s.closeOutbound()
		return
	}
	if wasActive {
		h.world.RemovePlayer(name, room)
		if h.dialogue != nil {
			h.dialogue.End(name)
		}
		h.deliver(nil, []Envelope{ToRoomID(room, KindMovement, name+" has left the game.")})
	}
	s.closeOutbound()

	ev := s.logger.Info().Str("username", name).Dur("connected_for", time.Since(s.connectedAt))
	if reason != nil {
		ev = ev.AnErr("reason", reason)
	}
	ev.Msg("session closed")
}

// Internal reports an unexpected collaborator failure to the actor and logs it.
func (h *Hub) Internal(s *Session, err error) Envelope {
	s.logger.Error().Err(err).Str("username", s.username).Str("room", string(s.room)).Msg("command failed")
	return ToSelf(KindError, internalErrText)
}

func (h *Hub) shutdown() {
	sessions := h.registry.All()
	h.logger.Info().Int("sessions", len(sessions)).Msg("hub stopping")
	for _, s := range sessions {
		_ = s.enqueue(Frame{Kind: KindSystem, Text: shutdownText})
		wasActive := s.state == StateActive
		h.registry.remove(s)
		if wasActive {
			h.world.RemovePlayer(s.username, s.room)
		}
		s.closeOutbound()
	}

drain:
	for {
		select {
		case ev := <-h.events:
			if c, ok := ev.(connectEvent); ok {
				_ = c.session.transport.Close()
			}
		default:
			break drain
		}
	}

	deadline := time.NewTimer(shutdownFlushTimeout)
	defer deadline.Stop()
	for _, s := range sessions {
		select {
		case <-s.done:
		case <-deadline.C:
			h.logger.Warn().Msg("timed out flushing sessions")
			return
		}
	}
}

type detachedTransport struct{}

func (detachedTransport) Kind() TransportKind    { return TransportTelnet }
func (detachedTransport) RemoteAddr() string     { return "" }
func (detachedTransport) WriteFrame(Frame) error { return nil }
func (detachedTransport) Close() error           { return nil }

// AddSessionForTest registers an Active session called name in room with no
// connection behind it. Its frames stay queued; read them with DrainForTest.
// The hub must not be running.
func (h *Hub) AddSessionForTest(name string, room RoomID) *Session {
	s := newSession(detachedTransport{}, h.opts.OutboundBuffer, nil, h.logger)
	h.registry.add(s)
	if err := h.registry.activate(s, name, room); err != nil {
		panic(err)
	}
	h.world.AddPlayer(name, room)
	return s
}

// DeliverForTest routes msgs as the hub does after a command.
func (h *Hub) DeliverForTest(actor *Session, msgs []Envelope) {
	h.deliver(actor, msgs)
}

// DrainForTest returns and clears the frames queued for s.
func (s *Session) DrainForTest() []Frame {
	var out []Frame
	for {
		select {
		case f, ok := <-s.outbound:
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}
