package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/observability/metrics"
	"github.com/wolfman30/insightdesk/internal/realtime"
	"github.com/wolfman30/insightdesk/internal/session"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	snapshotBuffer      = 8
)

// LiveHandler streams a live table over a WebSocket. The client sends
// session.Command messages and receives a session.Snapshot after every
// change, including change events from the hub.
type LiveHandler struct {
	src          datasource.Source
	hub          *realtime.Hub
	metrics      *metrics.DashboardMetrics
	logger       *logging.Logger
	defaultScope session.Scope
	pingInterval time.Duration
	upgrader     websocket.Upgrader
	now          func() time.Time
}

// LiveConfig configures a LiveHandler.
type LiveConfig struct {
	DefaultScope   string
	AllowedOrigins []string
	PingInterval   time.Duration
}

// NewLiveHandler creates a live table handler. hub may be nil, in which
// case sessions never receive change events.
func NewLiveHandler(src datasource.Source, hub *realtime.Hub, m *metrics.DashboardMetrics, cfg LiveConfig, logger *logging.Logger) *LiveHandler {
	if logger == nil {
		logger = logging.Default()
	}
	scope, err := session.ParseScope(cfg.DefaultScope)
	if err != nil {
		scope = session.ScopeClient
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	return &LiveHandler{
		src:          src,
		hub:          hub,
		metrics:      m,
		logger:       logger,
		defaultScope: scope,
		pingInterval: cfg.PingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		now: time.Now,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	allow := map[string]struct{}{}
	allowAny := false
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAny = true
		}
		if origin != "" {
			allow[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAny {
			return true
		}
		_, ok := allow[origin]
		return ok
	}
}

// Serve upgrades the connection and runs one live session.
// GET /api/live/{entity}
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	entity, err := crm.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	scope := h.defaultScope
	if raw := r.URL.Query().Get("scope"); raw != "" {
		if scope, err = session.ParseScope(raw); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	live, err := session.Open(entity, h.src, session.Options{Scope: scope, Now: h.now, Logger: h.logger})
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	live.State().Seed(r.URL.Query())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live: upgrade failed", "entity", entity, "error", err)
		return
	}
	defer conn.Close()

	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()
	h.logger.Info("live: session opened", "session_id", live.ID(), "entity", entity, "scope", scope)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var events <-chan realtime.Event
	if h.hub != nil {
		sub := h.hub.Subscribe(entity)
		defer sub.Close()
		events = sub.C
	}

	commands := make(chan session.Command)
	out := make(chan session.Snapshot, snapshotBuffer)
	go h.readCommands(ctx, conn, commands)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		h.writeSnapshots(ctx, conn, out)
	}()

	out <- live.Snapshot()
	live.Start(ctx)
	err = live.Run(ctx, commands, events, out)
	cancel()
	<-writerDone
	h.logger.Info("live: session closed", "session_id", live.ID(), "entity", entity, "reason", err)
}

func (h *LiveHandler) readCommands(ctx context.Context, conn *websocket.Conn, commands chan<- session.Command) {
	defer close(commands)
	readWait := 2 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		var cmd session.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("live: read failed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		select {
		case commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

func (h *LiveHandler) writeSnapshots(ctx context.Context, conn *websocket.Conn, out <-chan session.Snapshot) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case snap := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				h.logger.Debug("live: write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
