package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

const (
	// MetricsPath serves Prometheus metrics.
	MetricsPath = "/metrics"
	// FeedPath serves the WebSocket record feed.
	FeedPath = "/ws"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Server is the description HTTP server.
type Server struct {
	store   *device.Store
	path    string
	port    int
	metrics http.Handler

	mu       sync.Mutex
	listener net.Listener // bound but not yet served
	feeds    map[*websocket.Conn]string
}

// Listen binds port on all interfaces; 0 picks an ephemeral port, which Port
// reports. The document is served at locationPath.
func Listen(port int, locationPath string, store *device.Store) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind description server: %w", err)
	}

	return &Server{
		store:    store,
		path:     device.NormalizePath(locationPath),
		port:     ln.Addr().(*net.TCPAddr).Port,
		metrics:  promhttp.Handler(),
		listener: ln,
		feeds:    make(map[*websocket.Conn]string),
	}, nil
}

// Port is the bound TCP port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the request router, for tests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.route)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	// The feed needs the raw ResponseWriter to hijack the connection.
	if r.URL.Path == FeedPath {
		s.handleFeed(w, r)
		return
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	switch r.URL.Path {
	case s.path:
		s.handleDescription(rec, r)
	case MetricsPath:
		s.metrics.ServeHTTP(rec, r)
	default:
		http.NotFound(rec, r)
	}
	metricRequests.WithLabelValues(routeLabel(r.URL.Path, s.path), fmt.Sprint(rec.status)).Inc()
	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
}

// Serve runs until ctx is done and then shuts down gracefully. When called
// again after returning, for example by a supervisor restart, it rebinds the
// same port.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := s.takeListener()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(logging.GetLogger()),
	}

	logging.Info("Description server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", s.path))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return fmt.Errorf("description server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.closeFeeds()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Description server shutdown timed out, forcing close", zap.Error(err))
		_ = srv.Close()
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("description server: %w", err)
	}
	logging.Info("Description server stopped")
	return nil
}

func (s *Server) takeListener() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ln := s.listener; ln != nil {
		s.listener = nil
		return ln, nil
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return nil, fmt.Errorf("failed to rebind description server on port %d: %w", s.port, err)
	}
	return ln, nil
}

// Close releases the listener if Serve was never called.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	return err
}

func (s *Server) String() string {
	return fmt.Sprintf("server.Server@:%d", s.port)
}
