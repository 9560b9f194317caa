package game

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

type temporaryNetError struct{}

func (temporaryNetError) Error() string   { return "temporary failure" }
func (temporaryNetError) Timeout() bool   { return false }
func (temporaryNetError) Temporary() bool { return true }

type acceptResult struct {
	conn net.Conn
	err  error
}

type stubListener struct {
	mu      sync.Mutex
	results []acceptResult
}

func (l *stubListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.results) == 0 {
		return nil, net.ErrClosed
	}
	res := l.results[0]
	l.results = l.results[1:]
	return res.conn, res.err
}

func (l *stubListener) Close() error   { return nil }
func (l *stubListener) Addr() net.Addr { return fakeAddr("stub") }

func stubSleep(t *testing.T) *[]time.Duration {
	var sleeps []time.Duration
	t.Cleanup(func() { acceptSleep = time.Sleep })
	acceptSleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return &sleeps
}

func TestAcceptBacksOffOnTemporaryErrors(t *testing.T) {
	ln := &stubListener{results: []acceptResult{
		{err: temporaryNetError{}},
		{err: temporaryNetError{}},
		{conn: newScriptConn()},
		{err: net.ErrClosed},
	}}
	sleeps := stubSleep(t)

	handled := 0
	err := acceptConnections(ln, func(net.Conn) { handled++ })

	if !errors.Is(err, net.ErrClosed) {
		t.Fatalf("err = %v, want net.ErrClosed", err)
	}
	if handled != 1 {
		t.Fatalf("handled = %d, want 1", handled)
	}
	want := []time.Duration{acceptBackoffStart, 2 * acceptBackoffStart}
	if len(*sleeps) != len(want) || (*sleeps)[0] != want[0] || (*sleeps)[1] != want[1] {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
}

func TestAcceptStopsOnPermanentError(t *testing.T) {
	boom := errors.New("boom")
	ln := &stubListener{results: []acceptResult{{err: boom}}}
	sleeps := stubSleep(t)

	err := acceptConnections(ln, func(net.Conn) { t.Fatalf("handler called") })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("slept on a permanent error: %v", *sleeps)
	}
}

func TestReadErrorMapsTimeouts(t *testing.T) {
	timeout := &net.OpError{Op: "read", Err: deadlineError{}}
	if !errors.Is(readError(timeout), ErrIdleTimeout) {
		t.Fatalf("timeout not mapped to ErrIdleTimeout")
	}
	if errors.Is(readError(errors.New("EOF")), ErrIdleTimeout) {
		t.Fatalf("plain error mapped to ErrIdleTimeout")
	}
}

type deadlineError struct{}

func (deadlineError) Error() string   { return "i/o timeout" }
func (deadlineError) Timeout() bool   { return true }
func (deadlineError) Temporary() bool { return true }

// telnetClient reads the server's output until it sees a marker.
type telnetClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialTelnet(t *testing.T, addr string) *telnetClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &telnetClient{conn: conn, r: bufio.NewReader(conn)}
}

func (c *telnetClient) waitFor(t *testing.T, marker string) string {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(waitTimeout))
	var seen strings.Builder
	for !strings.Contains(seen.String(), marker) {
		b, err := c.r.ReadByte()
		if err != nil {
			t.Fatalf("waiting for %q: %v (got %q)", marker, err, seen.String())
		}
		seen.WriteByte(b)
	}
	return seen.String()
}

func (c *telnetClient) send(t *testing.T, line string) {
	t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func startTelnet(t *testing.T, h *Hub, opts TelnetOptions) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeTelnet(ctx, ln, h, opts) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("ServeTelnet: %v", err)
		}
	})
	return ln.Addr().String()
}

func TestTelnetSessionEndToEnd(t *testing.T) {
	h, _ := startHub(t, Options{}, nil)
	addr := startTelnet(t, h, TelnetOptions{IdleTimeout: time.Minute})

	alice := dialTelnet(t, addr)
	alice.waitFor(t, "What is your name?")
	alice.send(t, "Alice")
	alice.waitFor(t, "Town Square")

	bob := dialTelnet(t, addr)
	bob.waitFor(t, "What is your name?")
	bob.send(t, "Bob")
	bob.waitFor(t, "Welcome, ")

	alice.waitFor(t, "Bob has entered the room.")
	bob.send(t, "say hi there")
	alice.waitFor(t, "Bob says: hi there")

	bob.send(t, "quit")
	bob.waitFor(t, "Goodbye, Bob")
	alice.waitFor(t, "Bob has left the game.")
}

func TestTelnetOverlongLineKeepsSession(t *testing.T) {
	h, _ := startHub(t, Options{}, nil)
	addr := startTelnet(t, h, TelnetOptions{MaxLineLength: 64})

	c := dialTelnet(t, addr)
	c.waitFor(t, "What is your name?")
	c.send(t, strings.Repeat("x", 100))
	c.waitFor(t, "Input line too long (max 64 bytes)")
	c.send(t, "Alice")
	c.waitFor(t, "Welcome, ")
}

func TestTelnetIdleTimeout(t *testing.T) {
	h, _ := startHub(t, Options{}, nil)
	addr := startTelnet(t, h, TelnetOptions{IdleTimeout: 100 * time.Millisecond})

	c := dialTelnet(t, addr)
	c.waitFor(t, "You have been idle too long. Goodbye.")
	waitFor(t, "idle session removal", func() bool { return h.Sessions().Len() == 0 })
}

func TestTelnetRejectsRateLimitedAddress(t *testing.T) {
	h, _ := startHub(t, Options{}, nil)
	addr := startTelnet(t, h, TelnetOptions{Allow: func(string) bool { return false }})

	c := dialTelnet(t, addr)
	c.waitFor(t, "Too many requests.")
	if h.Sessions().Len() != 0 {
		t.Fatalf("rejected connection registered a session")
	}
}

func TestTelnetRefusedAfterHubStops(t *testing.T) {
	h, cancel := startHub(t, Options{}, nil)
	addr := startTelnet(t, h, TelnetOptions{})
	cancel()
	<-h.Done()

	c := dialTelnet(t, addr)
	c.waitFor(t, "The server is shutting down")
}
