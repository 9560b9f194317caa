package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"claymud/internal/pkg/errs"
	"claymud/internal/pkg/logx"
)

// TelnetOptions tunes the telnet listener.
type TelnetOptions struct {
	IdleTimeout   time.Duration
	MaxLineLength int
	// Allow gates new connections by remote address. Nil admits everyone.
	Allow func(addr string) bool
}

var netListenFunc = net.Listen

// ListenAndServeTelnet accepts telnet connections on addr and feeds them to
// hub until ctx is cancelled.
func ListenAndServeTelnet(ctx context.Context, addr string, hub *Hub, opts TelnetOptions) error {
	ln, err := netListenFunc("tcp", addr)
	if err != nil {
		return err
	}
	logx.Info("telnet listening", "addr", ln.Addr().String())
	return ServeTelnet(ctx, ln, hub, opts)
}

// ServeTelnet runs the accept loop on ln. It closes ln when ctx is done and
// returns nil in that case.
func ServeTelnet(ctx context.Context, ln net.Listener, hub *Hub, opts TelnetOptions) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	err := acceptConnections(ln, func(conn net.Conn) {
		go handleTelnetConn(conn, hub, opts)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func handleTelnetConn(conn net.Conn, hub *Hub, opts TelnetOptions) {
	remote := conn.RemoteAddr().String()
	if opts.Allow != nil && !opts.Allow(remote) {
		logx.Warn("telnet connection rate limited", "remote", logx.AnonymizeIP(remote))
		refuseTelnet(conn, errs.NewError(errs.ErrRateLimitExceeded))
		return
	}
	select {
	case <-hub.Done():
		refuseTelnet(conn, errs.NewError(errs.ErrServerShutdown))
		return
	default:
	}

	transport := NewTelnetTransport(conn, opts.MaxLineLength)
	s, err := hub.Connect(transport)
	if err != nil {
		// Connect has already closed the transport.
		return
	}
	readTelnetLines(conn, transport, hub, s.ID(), opts)
}

// refuseTelnet writes one line explaining the refusal and closes conn.
func refuseTelnet(conn net.Conn, reason *errs.CustomError) {
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = conn.Write(translateForTelnet(reason.Message + "\n"))
	_ = conn.Close()
}

// readTelnetLines forwards complete lines to the hub until the connection
// fails, then reports the disconnect.
func readTelnetLines(conn net.Conn, transport *TelnetTransport, hub *Hub, id SessionID, opts TelnetOptions) {
	for {
		if opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(opts.IdleTimeout))
		}
		line, err := transport.ReadLine()
		if errors.Is(err, ErrLineTooLong) {
			hub.Notify(id, KindError, errs.NewError(errs.ErrLineTooLong, transport.maxLine).Message)
			continue
		}
		if err != nil {
			hub.Disconnect(id, readError(err))
			return
		}
		if err := hub.Line(id, line); err != nil {
			return
		}
	}
}

func readError(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrIdleTimeout
	}
	return fmt.Errorf("read: %w", err)
}

const (
	acceptBackoffStart = 50 * time.Millisecond
	acceptBackoffMax   = time.Second
)

var acceptSleep = time.Sleep

func acceptConnections(ln net.Listener, handle func(net.Conn)) error {
	backoff := acceptBackoffStart
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isTemporaryAcceptError(err) {
				logx.Warn("temporary error accepting connection", "error", err.Error(), "retry_in", backoff.String())
				acceptSleep(backoff)
				backoff *= 2
				if backoff > acceptBackoffMax {
					backoff = acceptBackoffMax
				}
				continue
			}
			return err
		}
		backoff = acceptBackoffStart
		handle(conn)
	}
}

func isTemporaryAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() || ne.Temporary() {
			return true
		}
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	return false
}
