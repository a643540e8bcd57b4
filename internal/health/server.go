// Package health provides the liveness and readiness probe handlers.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Pinger defines the interface for checking a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health handlers.
type Config struct {
	ServiceName  string
	Version      string
	Commit       string
	CheckTimeout time.Duration
	Checks       map[string]Pinger
}

// Server serves the probe endpoints.
type Server struct {
	serviceName  string
	version      string
	commit       string
	checkTimeout time.Duration
	checks       map[string]Pinger
	mu           sync.RWMutex
	ready        bool
	now          func() time.Time
}

// NewServer creates the probe handlers. The server starts not ready.
func NewServer(cfg Config) *Server {
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	checks := make(map[string]Pinger, len(cfg.Checks))
	for name, p := range cfg.Checks {
		if p != nil {
			checks[name] = p
		}
	}

	return &Server{
		serviceName:  cfg.ServiceName,
		version:      cfg.Version,
		commit:       cfg.Commit,
		checkTimeout: timeout,
		checks:       checks,
		now:          time.Now,
	}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// HandleHealth handles the /health endpoint - basic liveness check.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Commit:    s.commit,
	})
}

// HandleLive handles the /live endpoint - kubernetes liveness probe.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.serviceName,
	})
}

// HandleReady handles the /ready endpoint and pings every registered dependency.
func (s *Server) HandleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	// Check if manually marked as not ready
	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
		err := s.checks[name].Ping(ctx)
		cancel()

		if err != nil {
			allHealthy = false
			checks[name] = fmt.Sprintf("error: %v", err)
		} else {
			checks[name] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}

	if allHealthy {
		response.Status = "ok"
		writeJSON(w, http.StatusOK, response)
		return
	}
	response.Status = "not_ready"
	writeJSON(w, http.StatusServiceUnavailable, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
