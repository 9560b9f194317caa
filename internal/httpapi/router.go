/*
Package httpapi exposes the HTTP side of the server: a health probe, the
public who list and the WebSocket endpoint that feeds browser clients into
the game hub.
*/
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"claymud/internal/configs"
	"claymud/internal/game"
	"claymud/internal/pkg/errs"
	"claymud/internal/pkg/limiter"
	"claymud/internal/pkg/logx"
	"claymud/internal/pkg/resp"
)

const serviceName = "claymud"

// Deps carries what the handlers need from the rest of the server.
type Deps struct {
	Hub    *game.Hub
	Config *configs.Config
	// Limiter gates WebSocket upgrades per client address. Nil disables it.
	Limiter *limiter.IPRateLimiter
	// PingPeriod overrides game.DefaultWSPingPeriod when positive.
	PingPeriod time.Duration
}

// Router builds the chi routing table with CORS, request IDs, request
// logging and panic recovery applied to every route.
func Router(deps Deps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.Network.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients send no Origin
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}
			logx.Warn("WebSocket connection rejected: origin not allowed", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.Network.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.Network.AllowedOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))
	r.Get("/api/who", HandleWho(deps))
	r.Get("/ws", HandleWebSocket(deps, upgrader))

	return r
}

// HealthResponse is the body of a successful /health probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Online  int    `json:"online"`
}

func HandleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, HealthResponse{
			Status:  "ok",
			Service: serviceName,
			Online:  deps.Hub.Sessions().ActiveCount(),
		})
	}
}

// WhoResponse lists the active players, case-insensitively sorted.
type WhoResponse struct {
	Count   int      `json:"count"`
	Players []string `json:"players"`
}

func HandleWho(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players := deps.Hub.Sessions().ActiveUsernames()
		if players == nil {
			players = []string{}
		}
		resp.RespondSuccess(w, r, WhoResponse{Count: len(players), Players: players})
	}
}

// HandleWebSocket upgrades the request and hands the connection to the hub.
// The handler returns once the session's read loop ends.
func HandleWebSocket(deps Deps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.HostOf(r.RemoteAddr)
		if ip == "" {
			ip = "unknown_ip"
		}

		select {
		case <-deps.Hub.Done():
			resp.RespondError(w, r, errs.NewError(errs.ErrServerShutdown))
			return
		default:
		}

		if deps.Limiter != nil && !deps.Limiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: rate limit exceeded", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logx.Warn("WebSocket upgrade failed", "ip", logx.AnonymizeIP(ip), "error", err.Error())
			return
		}

		ping := deps.PingPeriod
		if ping <= 0 {
			ping = game.DefaultWSPingPeriod
		}
		game.ServeWebSocket(deps.Hub, conn, game.WebSocketOptions{
			IdleTimeout:   deps.Config.Session.IdleTimeout,
			MaxLineLength: deps.Config.Session.MaxLineLength,
			PingPeriod:    ping,
		})
	}
}
