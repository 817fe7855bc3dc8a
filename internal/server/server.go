package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/justworkflowit/workflow-deployer/internal/lifecycle"
	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	maxRequestBytes = 1 << 20
)

// Invoker processes lifecycle requests.
type Invoker interface {
	Handle(ctx context.Context, req lifecycle.Request) (lifecycle.Response, error)
}

// MetricsSource provides the metrics snapshot.
type MetricsSource interface {
	Summary() reconciler.MetricsSummary
}

// Server is the HTTP front end of the deployer.
type Server struct {
	addr    string
	invoker Invoker
	metrics MetricsSource

	// passMu runs one invocation at a time. A request queued behind a
	// running pass still gets its own pass and reads definitions afresh.
	passMu sync.Mutex

	// notify reports service state to the supervisor.
	notify func(state string) (bool, error)

	listener net.Listener
	ready    chan struct{}
}

// New creates a Server. metrics may be nil.
func New(addr string, invoker Invoker, metrics MetricsSource) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:    addr,
		invoker: invoker,
		metrics: metrics,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		ready: make(chan struct{}),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /invoke", s.handleInvoke)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// Ready is closed once the server listens.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address once Ready is closed.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.notifyState(daemon.SdNotifyStopping)
		logging.Info("Server", "Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	logging.Info("Server", "Listening on %s", listener.Addr())
	s.notifyState(daemon.SdNotifyReady)
	close(s.ready)

	return g.Wait()
}

func (s *Server) notifyState(state string) {
	sent, err := s.notify(state)
	if err != nil {
		logging.Warn("Server", "Failed to notify service manager: %v", err)
		return
	}
	if sent {
		logging.Debug("Server", "Notified service manager: %s", state)
	}
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read request body: "+err.Error()))
		return
	}
	if len(body) > maxRequestBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
		return
	}

	var req lifecycle.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid lifecycle request: "+err.Error()))
		return
	}

	result := s.invoke(r.Context(), req)
	status := http.StatusOK
	if result.Status == lifecycle.StatusFailed {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		writeJSON(w, http.StatusOK, reconciler.MetricsSummary{})
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Summary())
}

func (s *Server) invoke(ctx context.Context, req lifecycle.Request) lifecycle.Result {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	resp, err := s.invoker.Handle(ctx, req)
	return lifecycle.NewResult(resp, err)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Server", "Failed to write response: %v", err)
	}
}
