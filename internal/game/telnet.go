package game

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	telnetIAC  byte = 255
	telnetDONT byte = 254
	telnetDO   byte = 253
	telnetWONT byte = 252
	telnetWILL byte = 251
	telnetSB   byte = 250
	telnetSE   byte = 240
	telnetNOP  byte = 241
	telnetDM   byte = 242
	telnetBRK  byte = 243
	telnetIP   byte = 244
	telnetAO   byte = 245
	telnetAYT  byte = 246
	telnetEC   byte = 247
	telnetEL   byte = 248
	telnetGA   byte = 249
)

const (
	telnetOptEcho         byte = 1
	telnetOptSuppressGA   byte = 3
	telnetOptTerminalType byte = 24
	telnetOptWindowSize   byte = 31
	telnetOptLineMode     byte = 34
)

// DefaultMaxLineLength bounds a single input line in bytes.
const DefaultMaxLineLength = 4096

const telnetWriteTimeout = 10 * time.Second

// maxSubnegotiation bounds an IAC SB payload. NAWS and TTYPE need far less;
// longer payloads are skipped up to IAC SE and ignored.
const maxSubnegotiation = 64

var (
	serverSupportedOptions = map[byte]bool{
		telnetOptSuppressGA: true,
		telnetOptEcho:       true,
	}
	clientSupportedOptions = map[byte]bool{
		telnetOptTerminalType: true,
		telnetOptWindowSize:   true,
	}
)

// TelnetTransport speaks NVT telnet with ANSI colour over a TCP connection.
// Reads happen on the connection's read loop, writes on the session writer;
// option replies written from the read side share mu with frame writes.
type TelnetTransport struct {
	conn    net.Conn
	reader  *bufio.Reader
	mu      sync.Mutex
	maxLine int
	echoOff bool

	sizeMu sync.Mutex
	width  int
	height int
	term   string
}

func NewTelnetTransport(conn net.Conn, maxLine int) *TelnetTransport {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	t := &TelnetTransport{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		maxLine: maxLine,
		width:   defaultWrapWidth,
		height:  24,
	}
	t.performHandshake()
	return t
}

func (t *TelnetTransport) performHandshake() {
	_ = t.writeCommand(telnetWILL, telnetOptSuppressGA)
	_ = t.writeCommand(telnetWONT, telnetOptEcho)
	_ = t.writeCommand(telnetDONT, telnetOptLineMode)
	_ = t.writeCommand(telnetDO, telnetOptTerminalType)
	_ = t.writeCommand(telnetDO, telnetOptWindowSize)
}

func (t *TelnetTransport) Kind() TransportKind { return TransportTelnet }

func (t *TelnetTransport) RemoteAddr() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (t *TelnetTransport) writeCommand(cmd, opt byte) error {
	return t.writeRaw([]byte{telnetIAC, cmd, opt})
}

func (t *TelnetTransport) writeRaw(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(telnetWriteTimeout))
	_, err := t.conn.Write(payload)
	return err
}

// WriteFrame renders f with ANSI styling, or as plain text for a DUMB
// terminal. Password prompts switch echo off until the next frame.
func (t *TelnetTransport) WriteFrame(f Frame) error {
	width, _ := t.Size()
	var buf bytes.Buffer
	if t.echoOff && f.Kind != KindSecret {
		buf.Write([]byte{telnetIAC, telnetWONT, telnetOptEcho})
		buf.WriteString("\r\n")
		t.echoOff = false
	}
	text := renderANSI(f, width)
	if t.plain() {
		text = stripANSI(text)
	}
	buf.Write(translateForTelnet(text))
	if f.Kind == KindSecret {
		buf.Write([]byte{telnetIAC, telnetWILL, telnetOptEcho})
		t.echoOff = true
	}
	return t.writeRaw(buf.Bytes())
}

func translateForTelnet(msg string) []byte {
	var buf bytes.Buffer
	var prev byte
	for i := 0; i < len(msg); i++ {
		b := msg[i]
		switch b {
		case '\n':
			if prev != '\r' {
				buf.WriteByte('\r')
			}
			buf.WriteByte('\n')
		case telnetIAC:
			buf.WriteByte(telnetIAC)
			buf.WriteByte(telnetIAC)
		default:
			buf.WriteByte(b)
		}
		prev = b
	}
	return buf.Bytes()
}

// ReadLine returns the next complete line without its terminator. Lines end
// at LF; a single CR right before it is dropped. Telnet commands are consumed
// here and never appear in the result. A line longer than the limit is read
// to its end, discarded, and reported as ErrLineTooLong.
func (t *TelnetTransport) ReadLine() (string, error) {
	var buf bytes.Buffer
	overflow := false
	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\n':
			if overflow {
				return "", ErrLineTooLong
			}
			line := buf.Bytes()
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			return string(line), nil
		case 0x00:
			// CR NUL and stray NULs carry nothing
		case telnetIAC:
			if err := t.handleIAC(&buf); err != nil {
				return "", err
			}
		default:
			buf.WriteByte(b)
		}
		if buf.Len() > t.maxLine {
			overflow = true
			buf.Reset()
		}
	}
}

func (t *TelnetTransport) handleIAC(buf *bytes.Buffer) error {
	cmd, err := t.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case telnetIAC:
		buf.WriteByte(telnetIAC)
	case telnetDO, telnetDONT, telnetWILL, telnetWONT:
		opt, err := t.reader.ReadByte()
		if err != nil {
			return err
		}
		t.handleNegotiation(cmd, opt)
	case telnetSB:
		return t.handleSubnegotiation()
	case telnetNOP, telnetDM, telnetBRK, telnetIP, telnetAO, telnetAYT, telnetEC, telnetEL, telnetGA:
		// ignored control commands
	default:
		// ignore anything unknown to keep stream resilient
	}
	return nil
}

func (t *TelnetTransport) handleNegotiation(cmd, opt byte) {
	switch cmd {
	case telnetDO:
		if opt == telnetOptEcho {
			// we only ever offer echo around password prompts
			return
		}
		if serverSupportedOptions[opt] {
			_ = t.writeCommand(telnetWILL, opt)
		} else {
			_ = t.writeCommand(telnetWONT, opt)
		}
	case telnetDONT:
		if opt == telnetOptEcho {
			return
		}
		_ = t.writeCommand(telnetWONT, opt)
	case telnetWILL:
		if clientSupportedOptions[opt] {
			_ = t.writeCommand(telnetDO, opt)
		} else {
			_ = t.writeCommand(telnetDONT, opt)
		}
	case telnetWONT:
		_ = t.writeCommand(telnetDONT, opt)
	}
}

func (t *TelnetTransport) handleSubnegotiation() error {
	opt, err := t.reader.ReadByte()
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 16)
	truncated := false
	for {
		b, err := t.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == telnetIAC {
			esc, err := t.reader.ReadByte()
			if err != nil {
				return err
			}
			if esc == telnetIAC {
				truncated = appendOption(&payload, telnetIAC) || truncated
				continue
			}
			if esc == telnetSE {
				break
			}
			// unexpected command inside subnegotiation, ignore and continue
			continue
		}
		truncated = appendOption(&payload, b) || truncated
	}
	if truncated {
		return nil
	}

	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()
	switch opt {
	case telnetOptTerminalType:
		if len(payload) > 1 && payload[0] == 0 { // IS
			t.term = strings.ToUpper(string(payload[1:]))
		}
	case telnetOptWindowSize:
		if len(payload) >= 4 {
			t.width = int(payload[0])<<8 | int(payload[1])
			t.height = int(payload[2])<<8 | int(payload[3])
		}
	}
	return nil
}

// appendOption adds b to a subnegotiation payload unless it is already at
// maxSubnegotiation, and reports whether b was dropped.
func appendOption(payload *[]byte, b byte) bool {
	if len(*payload) >= maxSubnegotiation {
		return true
	}
	*payload = append(*payload, b)
	return false
}

func (t *TelnetTransport) Close() error {
	return t.conn.Close()
}

// Size reports the client window as negotiated through NAWS.
func (t *TelnetTransport) Size() (int, int) {
	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()
	return t.width, t.height
}

// plain reports whether the client announced a terminal without colour.
func (t *TelnetTransport) plain() bool {
	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()
	return t.term == "DUMB"
}
