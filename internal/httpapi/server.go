// Package httpapi serves converted chat archives to overlay renderers:
// ranged JSON queries plus a websocket replay stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/sink"
)

// Store is the message source behind the API.
type Store interface {
	Count(ctx context.Context, f sink.Filters) (int64, error)
	List(ctx context.Context, f sink.Filters) ([]core.UnifiedMessage, error)
}

// Options configures the server.
type Options struct {
	Addr            string
	RateLimitRPS    int
	RateLimitBurst  int
	EnableMetrics   bool
	EnableAccessLog bool
	Build           BuildInfo
}

type Server struct {
	httpServer *http.Server
	store      Store
	opts       Options
	metrics    *Metrics
	limiter    *ipRateLimiter
}

func New(store Store, opts Options) *Server {
	srv := &Server{
		store:   store,
		opts:    opts,
		limiter: newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	}
	if opts.EnableMetrics {
		srv.metrics = newMetrics()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.wrap("/healthz", srv.handleHealthz))
	mux.HandleFunc("/info", srv.wrap("/info", srv.handleInfo))
	mux.HandleFunc("/count", srv.wrap("/count", srv.handleCount))
	mux.HandleFunc("/messages", srv.wrap("/messages", srv.handleMessages))
	mux.HandleFunc("/replay", srv.wrap("/replay", srv.handleReplay))
	if srv.metrics != nil {
		mux.Handle("/metrics", srv.metrics.Handler())
	}

	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(remoteIP(r)) {
			s.metrics.IncRateLimited()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		rec := newResponseRecorder(w)
		start := time.Now()
		next(rec, r)
		dur := time.Since(start)

		s.metrics.ObserveRequest(route, r.Method, rec.Status(), dur)
		if s.opts.EnableAccessLog {
			log.Printf("httpapi: %s %s %d %dB %s", r.Method, r.URL.Path, rec.Status(), rec.Bytes(), dur)
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	filters, err := FiltersFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count, err := s.store.Count(r.Context(), filters)
	if err != nil {
		http.Error(w, "count error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"count": count})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	filters, err := FiltersFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := s.store.List(r.Context(), filters)
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []core.UnifiedMessage{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(rows)
}

func (s *Server) Start() error {
	log.Printf("httpapi: listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
