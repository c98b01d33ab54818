package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"raidsched/internal/config"
	appLog "raidsched/internal/log"
	"raidsched/internal/schedule"
)

// Server exposes the scheduling engine over a JSON HTTP API and an
// iCalendar feed.
type Server struct {
	cfg      *config.Config
	engine   *schedule.Engine
	clock    schedule.Clock
	router   *mux.Router
	validate *validator.Validate
}

// NewServer constructs a new Server. A nil clock means the system clock; it
// is only used to stamp exported feeds.
func NewServer(cfg *config.Config, engine *schedule.Engine, clock schedule.Clock) *Server {
	if clock == nil {
		clock = schedule.ClockFunc(time.Now)
	}
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		clock:    clock,
		router:   mux.NewRouter(),
		validate: validator.New(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler: request id, request logging and, when
// configured, basic auth around the router.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.cfg != nil && s.cfg.BasicAuthEnabled() {
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(loggingMiddleware(h))
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays public for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="raidsched", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves the API on cfg.Listen until ctx is cancelled, then
// shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, engine *schedule.Engine) error {
	s := NewServer(cfg, engine, nil)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "basic_auth", cfg.BasicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
