package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/roach88/edc/internal/state"
)

// SnapshotSource supplies the latest published session snapshot.
// *session.Runner satisfies it.
type SnapshotSource interface {
	Latest() *state.Session
}

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins lists browser origins allowed to read the feed. "*"
	// allows any. Empty allows only same-origin and non-browser clients.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server serves /state, /ws and /healthz.
type Server struct {
	hub      *Hub
	src      SnapshotSource
	origins  []string
	upgrader websocket.Upgrader
	cors     *cors.Cors
	log      *slog.Logger
}

// NewServer wires a hub and snapshot source to HTTP.
func NewServer(src SnapshotSource, hub *Hub, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default().With("component", "feed")
	}
	s := &Server{
		hub:     hub,
		src:     src,
		origins: opts.AllowedOrigins,
		log:     log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	co := cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}
	if len(opts.AllowedOrigins) == 0 {
		// An empty list means "*" to cors; refuse cross-origin reads instead.
		co.AllowOriginFunc = func(string) bool { return false }
	}
	s.cors = cors.New(co)
	log.Debug("feed configured", "allowed_origins", opts.AllowedOrigins)
	return s
}

// Handler returns the feed's routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return s.cors.Handler(mux)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(s.src.Latest()); err != nil {
		s.log.Debug("write state", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("feed upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	first, err := encode(TypeSnapshot, s.src.Latest())
	if err != nil {
		s.log.Error("encode snapshot", "error", err)
		conn.Close()
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !s.hub.add(c, first) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	s.log.Debug("feed client connected", "remote", r.RemoteAddr)

	go c.writePump()
	go c.readPump(s.hub)
}

// checkOrigin applies the same origin list as CORS to the websocket
// handshake, which browsers do not subject to CORS.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// and disconnects all clients. Returns nil on a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("feed listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
