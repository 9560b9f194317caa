package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"claymud/commands"
	"claymud/internal/configs"
	"claymud/internal/game"
	"claymud/internal/httpapi"
	"claymud/internal/pkg/limiter"
	"claymud/internal/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fs := flag.NewFlagSet("claymud", flag.ContinueOnError)
	configs.RegisterFlags(fs)
	cfg, err := configs.Load(fs, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "claymud: %v\n", err)
		os.Exit(2)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.Log.Level)
	logx.Info("Configuration loaded", "environment", cfg.Environment, "telnet", cfg.TelnetAddr(), "http", cfg.HTTPAddr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	world, err := game.NewWorld(cfg.World.AreasPath)
	if err != nil {
		logx.Fatal(err, "Failed to load world", "areas", cfg.World.AreasPath)
	}
	accounts, err := game.NewAccountManager(cfg.Accounts.Path)
	if err != nil {
		logx.Fatal(err, "Failed to load accounts", "path", cfg.Accounts.Path)
	}

	hub, err := game.NewHub(game.Options{
		StartRoom:      game.RoomID(cfg.World.StartRoom),
		OutboundBuffer: cfg.Session.OutboundBuffer,
		CommandRate:    rate.Limit(cfg.Session.CommandRate),
		CommandBurst:   cfg.Session.CommandBurst,
		Names: game.NameRules{
			MinLength: cfg.Names.MinLength,
			MaxLength: cfg.Names.MaxLength,
			Reserved:  cfg.Names.Reserved,
			Blocked:   cfg.Names.Blocked,
		},
	}, world, game.NewScriptedDialogue(), accounts, commands.Dispatch)
	if err != nil {
		logx.Fatal(err, "Failed to create hub")
	}
	go hub.Run(ctx)

	connLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(cfg.Network.ConnectRate), cfg.Network.ConnectBurst)

	telnetDone := make(chan struct{})
	go func() {
		defer close(telnetDone)
		err := game.ListenAndServeTelnet(ctx, cfg.TelnetAddr(), hub, game.TelnetOptions{
			IdleTimeout:   cfg.Session.IdleTimeout,
			MaxLineLength: cfg.Session.MaxLineLength,
			Allow:         connLimiter.Allow,
		})
		if err != nil {
			logx.Fatal(err, "Telnet listener failed", "addr", cfg.TelnetAddr())
		}
	}()

	server := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: httpapi.Router(httpapi.Deps{
			Hub:     hub,
			Config:  cfg,
			Limiter: connLimiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logx.Info("HTTP listening", "addr", cfg.HTTPAddr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "HTTP server failed", "addr", cfg.HTTPAddr())
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown; the hub
	// closes them while it drains.
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "HTTP server forced to shutdown")
	}
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		logx.Warn("Timed out waiting for sessions to close")
	}
	<-telnetDone

	logx.Info("Server gracefully stopped.")
}
