package game

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	// ErrSessionClosed is returned when output is queued after teardown.
	ErrSessionClosed = errors.New("session closed")
	// ErrOutboundFull marks a recipient that stopped draining its queue.
	ErrOutboundFull = errors.New("outbound queue full")
	// ErrLineTooLong is returned by line readers when input exceeds the limit.
	ErrLineTooLong = errors.New("input line too long")
	// ErrHubStopped is returned when posting to a hub that is no longer running.
	ErrHubStopped = errors.New("hub stopped")
	// ErrIdleTimeout is the disconnect reason for sessions that went quiet.
	ErrIdleTimeout = errors.New("idle timeout")
)

// SessionID identifies one connection for its whole lifetime.
type SessionID string

func newSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// TransportKind names the wire protocol a session arrived on.
type TransportKind int

const (
	TransportTelnet TransportKind = iota
	TransportWebSocket
)

func (k TransportKind) String() string {
	switch k {
	case TransportTelnet:
		return "telnet"
	case TransportWebSocket:
		return "websocket"
	default:
		return "unknown"
	}
}

// SessionState tracks where a connection is in its lifecycle.
type SessionState int

const (
	StateAwaitingUsername SessionState = iota
	StateAwaitingPassword
	StateActive
	StateClosing
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingUsername:
		return "awaiting_username"
	case StateAwaitingPassword:
		return "awaiting_password"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Frame is one unit of output handed to a transport.
type Frame struct {
	Kind MessageKind
	Text string
	Data any
}

// Transport is the write side of a connection. WriteFrame is only ever called
// from the session's writer goroutine.
type Transport interface {
	Kind() TransportKind
	RemoteAddr() string
	WriteFrame(Frame) error
	Close() error
}

// keepalive is implemented by transports that need periodic pings written
// from the same goroutine as their frames.
type keepalive interface {
	PingInterval() time.Duration
	WritePing() error
}

// Session is the server-side state of one connection.
//
// Username, room and state are written only by the hub while holding the
// registry lock; the hub reads them freely and everyone else goes through the
// Registry.
type Session struct {
	id        SessionID
	seq       uint64
	transport Transport
	state     SessionState
	username  string
	room      RoomID

	outbound chan Frame
	closed   bool
	done     chan struct{}

	limiter     *rate.Limiter
	pendingName string
	pendingNote string
	failures    int
	verifying   bool
	connectedAt time.Time
	logger      zerolog.Logger
}

func newSession(t Transport, buffer int, limiter *rate.Limiter, logger zerolog.Logger) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	id := newSessionID()
	return &Session{
		id:          id,
		transport:   t,
		state:       StateAwaitingUsername,
		outbound:    make(chan Frame, buffer),
		done:        make(chan struct{}),
		limiter:     limiter,
		connectedAt: time.Now(),
		logger: logger.With().
			Str("session_id", string(id)).
			Str("transport", t.Kind().String()).
			Logger(),
	}
}

func (s *Session) ID() SessionID            { return s.id }
func (s *Session) Username() string         { return s.username }
func (s *Session) Room() RoomID             { return s.room }
func (s *Session) State() SessionState      { return s.state }
func (s *Session) Transport() TransportKind { return s.transport.Kind() }
func (s *Session) RemoteAddr() string       { return s.transport.RemoteAddr() }

// Done is closed once the writer has flushed its queue and closed the transport.
func (s *Session) Done() <-chan struct{} { return s.done }

// enqueue never blocks. Callers must be on the hub goroutine.
func (s *Session) enqueue(f Frame) error {
	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.outbound <- f:
		return nil
	default:
		return ErrOutboundFull
	}
}

func (s *Session) closeOutbound() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.outbound)
}

// writeLoop drains the outbound queue into the transport. A write error is
// reported once through onFail; the loop then discards frames until the hub
// closes the queue.
func (s *Session) writeLoop(onFail func(error)) {
	defer close(s.done)
	defer s.transport.Close()

	var ping <-chan time.Time
	ka, hasPing := s.transport.(keepalive)
	if hasPing && ka.PingInterval() > 0 {
		ticker := time.NewTicker(ka.PingInterval())
		defer ticker.Stop()
		ping = ticker.C
	}

	failed := false
	for {
		select {
		case f, ok := <-s.outbound:
			if !ok {
				return
			}
			if failed {
				continue
			}
			if err := s.transport.WriteFrame(f); err != nil {
				failed = true
				onFail(err)
			}
		case <-ping:
			if failed {
				continue
			}
			if err := ka.WritePing(); err != nil {
				failed = true
				onFail(err)
			}
		}
	}
}
