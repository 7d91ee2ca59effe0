// Package status serves a small JSON monitoring API over the supervisor's
// worker snapshot.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/san-kum/skypilot/internal/supervise"
)

// Source is the slice of the supervisor the server reads.
type Source interface {
	Snapshot() []supervise.WorkerStatus
}

type Server struct {
	addr string
	src  Source
	log  *slog.Logger
}

func New(addr string, src Source, log *slog.Logger) *Server {
	return &Server{addr: addr, src: src, log: log}
}

// Handler builds the routed API. Split from Run so tests can drive it with
// httptest.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
	api := r.PathPrefix("/api/v1").Subrouter()
	// Subrouters do not inherit the handler; without it a method mismatch
	// falls through to 404.
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	api.HandleFunc("/instances", s.handleInstances).Methods(http.MethodGet)
	api.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("status server listening", "addr", s.addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

type instancesResponse struct {
	Workers []supervise.WorkerStatus `json:"workers"`
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, instancesResponse{Workers: s.src.Snapshot()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}
