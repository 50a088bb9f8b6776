// Package monitor serves a local HTTP endpoint for watching a running
// bridge: health, Prometheus metrics and a websocket stream of dispatched
// events and lifecycle hooks.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/hooks"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
	"github.com/soyeahso/discordbridge/internal/version"
)

// Status is the body of GET /healthz.
type Status struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	Uptime     string         `json:"uptime"`
	Connection string         `json:"connection"`
	Ready      bool           `json:"ready"`
	Pending    int            `json:"pending"`
	Listeners  map[string]int `json:"listeners,omitempty"`
	Flows      int            `json:"flows"`
	Clients    int            `json:"clients"`
}

// StatusFunc fills in the bridge-specific fields of a Status.
type StatusFunc func() Status

// Server is the monitor HTTP + websocket server.
type Server struct {
	cfg     config.MonitorConfig
	log     *logging.Logger
	metrics *metrics.Metrics
	status  StatusFunc
	clients *clientSet

	upgrader  websocket.Upgrader
	startedAt time.Time

	mu   sync.Mutex
	addr string
}

// New creates a monitor server. m and status may be nil.
func New(cfg config.MonitorConfig, log *logging.Logger, m *metrics.Metrics, status StatusFunc) *Server {
	l := log.Sub("monitor")
	return &Server{
		cfg:       cfg,
		log:       l,
		metrics:   m,
		status:    status,
		clients:   newClientSet(l),
		startedAt: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
	}
}

// checkOrigin allows non-browser clients and the configured origins.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Handler returns the monitor's routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", requireToken(s.cfg.Token, s.metrics.Handler()))
	}
	mux.Handle("GET /ws", requireToken(s.cfg.Token, http.HandlerFunc(s.handleWebSocket)))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	return withMiddleware(mux, s.log)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("monitor listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.clients.closeAll()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if s.cfg.Token == "" && !isLoopback(s.addr) {
		s.log.Warn().Str("addr", s.addr).Msg("monitor is reachable beyond loopback without a token")
	}
	s.log.Info().Str("addr", s.addr).Msg("monitor listening")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Publish streams a dispatched gateway event. It never blocks.
func (s *Server) Publish(ev domain.Event) {
	s.clients.broadcast(EventFrame(ev))
}

// PublishHook streams a lifecycle hook; it has the hooks.Handler shape.
func (s *Server) PublishHook(_ context.Context, p hooks.Payload) error {
	s.clients.broadcast(HookFrame(p))
	return nil
}

// Clients returns the number of connected stream clients.
func (s *Server) Clients() int { return s.clients.count() }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := Status{Status: "ok", Connection: "unknown"}
	if s.status != nil {
		st = s.status()
		if st.Status == "" {
			st.Status = "ok"
		}
	}
	st.Version = version.Version
	st.Uptime = time.Since(s.startedAt).Round(time.Second).String()
	st.Clients = s.clients.count()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st) //nolint:errcheck
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(4096)

	c := newClient(conn)
	s.clients.add(c)
	defer s.clients.remove(c)

	go c.writeLoop(s.log)
	c.enqueue(newFrame("hello", map[string]any{"version": version.Version, "conn": c.id}))
	c.readLoop()
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return host == "localhost" || (ip != nil && ip.IsLoopback())
}
