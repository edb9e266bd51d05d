// Package httpapi serves the local status surface: liveness, the
// current session snapshot, and Prometheus metrics. It binds to
// loopback by default and carries no auth.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roastlabs/roastapp-client/internal/logging"
	"github.com/roastlabs/roastapp-client/internal/session"
)

// SessionReader is the slice of the session store the server reads.
type SessionReader interface {
	State() session.State
	UserID() string
}

// Server is the local status HTTP server.
type Server struct {
	logger  logging.Logger
	session SessionReader
	httpSrv *http.Server
}

// New creates a status server listening on addr.
func New(addr string, sess SessionReader, registry *prometheus.Registry, logger logging.Logger) *Server {
	s := &Server{logger: logger, session: sess}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("status server listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionView is the externally visible session snapshot. Tokens never
// leave the process.
type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Initialized   bool   `json:"initialized"`
	Loading       bool   `json:"loading"`
	Error         string `json:"error,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	state := s.session.State()
	view := sessionView{
		Authenticated: state.Authenticated(),
		Initialized:   state.Initialized,
		Loading:       state.Loading,
		Error:         state.Err,
	}
	if state.User != nil {
		view.UserID = state.User.ID
		view.Email = state.User.Email
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
