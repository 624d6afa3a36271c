// Package metrics exposes run metrics and a progress endpoint over HTTP.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Progress is the run state reported on /healthz.
type Progress struct {
	mu        sync.RWMutex
	StartedAt time.Time
	RunID     string
	Phase     string // loading | training | trading | done | failed
	Bars      int
	Total     int
	LastBar   time.Time
}

// NewProgress creates progress for runID in the loading phase.
func NewProgress(runID string) *Progress {
	return &Progress{StartedAt: time.Now(), RunID: runID, Phase: "loading"}
}

// SetPhase records the current run phase.
func (p *Progress) SetPhase(phase string) {
	p.mu.Lock()
	p.Phase = phase
	p.mu.Unlock()
}

// Advance records a processed bar.
func (p *Progress) Advance(done, total int, ts time.Time) {
	p.mu.Lock()
	p.Bars, p.Total, p.LastBar = done, total, ts
	p.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (p *Progress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := struct {
		RunID   string `json:"run_id"`
		Phase   string `json:"phase"`
		Uptime  string `json:"uptime"`
		Bars    int    `json:"bars"`
		Total   int    `json:"total"`
		LastBar string `json:"last_bar,omitempty"`
	}{
		RunID:  p.RunID,
		Phase:  p.Phase,
		Uptime: time.Since(p.StartedAt).Round(time.Second).String(),
		Bars:   p.Bars,
		Total:  p.Total,
	}
	if !p.LastBar.IsZero() {
		status.LastBar = p.LastBar.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if p.Phase == "failed" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *slog.Logger
}

// NewServer creates a metrics and progress server.
func NewServer(addr string, progress *Progress, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", progress)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
		log:  log,
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server error", "err", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
