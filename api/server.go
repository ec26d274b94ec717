package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"unicorns/db"

	"go.uber.org/zap"
)

const maxLimit = 1000

// Server exposes the seeded unicorns read-only over HTTP.
type Server struct {
	Store        db.Store
	Logger       *zap.SugaredLogger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewServer(store db.Store, logger *zap.SugaredLogger) *Server {
	return &Server{
		Store:        store,
		Logger:       logger,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /unicorns", s.handleListUnicorns)
	mux.HandleFunc("GET /unicorns/{company}", s.handleGetUnicorn)
	mux.HandleFunc("GET /imports", s.handleListImports)
	return mux
}

// Run starts an HTTP server listening on the given address.
func (s *Server) Run(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
	s.Logger.Infow("api: listening", "addr", addr)
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		s.Logger.Warnf("handleHealth: store ping failed: %v", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListUnicorns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	unicorns, err := s.Store.ListUnicorns(r.Context(), db.UnicornFilter{
		Country:  q.Get("country"),
		Industry: q.Get("industry"),
		Limit:    limit,
	})
	if err != nil {
		s.internalError(w, "handleListUnicorns", err)
		return
	}
	s.writeJSON(w, unicorns)
}

func (s *Server) handleGetUnicorn(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")
	u, err := s.Store.GetUnicornByCompany(r.Context(), company)
	if errors.Is(err, db.ErrUnicornNotFound) {
		http.Error(w, "unicorn not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "handleGetUnicorn", err)
		return
	}
	s.writeJSON(w, u)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	runs, err := s.Store.ListImportRuns(r.Context(), limit)
	if err != nil {
		s.internalError(w, "handleListImports", err)
		return
	}
	s.writeJSON(w, runs)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxLimit {
		return 0, errors.New("limit must be an integer between 0 and 1000")
	}
	return n, nil
}

func (s *Server) internalError(w http.ResponseWriter, where string, err error) {
	s.Logger.Errorf("%s: ERR, %v", where, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warnf("writeJSON: failed to encode response: %v", err)
	}
}
