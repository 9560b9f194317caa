package game

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"claymud/internal/pkg/errs"
)

const (
	wsWriteWait          = 10 * time.Second
	DefaultWSPingPeriod  = 30 * time.Second
	wsFrameOverheadBytes = 1024
)

// WebSocketOptions tunes a WebSocket session.
type WebSocketOptions struct {
	IdleTimeout   time.Duration
	MaxLineLength int
	PingPeriod    time.Duration
}

// WebSocketTransport writes frames as JSON text messages.
type WebSocketTransport struct {
	conn       *websocket.Conn
	pingPeriod time.Duration
}

func NewWebSocketTransport(conn *websocket.Conn, pingPeriod time.Duration) *WebSocketTransport {
	return &WebSocketTransport{conn: conn, pingPeriod: pingPeriod}
}

type outboundMessage struct {
	Type    MessageKind `json:"type"`
	Message string      `json:"message"`
	Data    any         `json:"data,omitempty"`
}

func (t *WebSocketTransport) Kind() TransportKind { return TransportWebSocket }

func (t *WebSocketTransport) RemoteAddr() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// WriteFrame sends f as one JSON message. Prompts only make sense on a
// terminal and are dropped.
func (t *WebSocketTransport) WriteFrame(f Frame) error {
	if f.Kind == KindPrompt {
		return nil
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return t.conn.WriteJSON(outboundMessage{Type: f.Kind, Message: f.Text, Data: f.Data})
}

func (t *WebSocketTransport) PingInterval() time.Duration { return t.pingPeriod }

func (t *WebSocketTransport) WritePing() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (t *WebSocketTransport) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return t.conn.Close()
}

// clientMessage is one decoded inbound frame. The set of variants is closed.
type clientMessage interface {
	isClientMessage()
}

type commandMessage struct {
	Command string
}

type pingMessage struct{}

func (commandMessage) isClientMessage() {}
func (pingMessage) isClientMessage()    {}

func decodeClientMessage(data []byte) (clientMessage, error) {
	var raw struct {
		Type    string  `json:"type"`
		Command *string `json:"command"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.NewError(errs.ErrInvalidFrame)
	}
	switch raw.Type {
	case "command":
		if raw.Command == nil {
			return nil, errs.NewError(errs.ErrInvalidFrame)
		}
		return commandMessage{Command: *raw.Command}, nil
	case "ping":
		return pingMessage{}, nil
	case "":
		return nil, errs.NewError(errs.ErrInvalidFrame)
	default:
		return nil, errs.NewError(errs.ErrUnsupportedFrame)
	}
}

// splitCommandLines drops one trailing line terminator and splits the rest
// into logical lines, each without its own terminator.
func splitCommandLines(command string) []string {
	command = strings.TrimSuffix(command, "\n")
	command = strings.TrimSuffix(command, "\r")
	lines := strings.Split(command, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// ServeWebSocket registers conn with hub and runs its read loop until the
// connection fails or the session is torn down.
func ServeWebSocket(hub *Hub, conn *websocket.Conn, opts WebSocketOptions) {
	maxLine := opts.MaxLineLength
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	conn.SetReadLimit(int64(4*maxLine + wsFrameOverheadBytes))

	s, err := hub.Connect(NewWebSocketTransport(conn, opts.PingPeriod))
	if err != nil {
		return
	}
	id := s.ID()

	for {
		if opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(opts.IdleTimeout))
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			hub.Disconnect(id, readError(err))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		msg, err := decodeClientMessage(data)
		if err != nil {
			var ce *errs.CustomError
			if errors.As(err, &ce) {
				hub.Notify(id, KindError, ce.Message)
			}
			continue
		}
		switch m := msg.(type) {
		case commandMessage:
			for _, line := range splitCommandLines(m.Command) {
				if len(line) > maxLine {
					hub.Notify(id, KindError, errs.NewError(errs.ErrLineTooLong, maxLine).Message)
					continue
				}
				if err := hub.Line(id, line); err != nil {
					return
				}
			}
		case pingMessage:
			hub.Notify(id, KindPong, "")
		}
	}
}
