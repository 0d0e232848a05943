package server

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

// handleDescription serves the rendered record from a single store snapshot.
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	rec := s.store.Load()
	if !rec.Published() {
		w.Header().Set("Retry-After", "10")
		http.Error(w, "device address not resolved yet", http.StatusServiceUnavailable)
		return
	}

	body, err := device.Render(rec)
	if err != nil {
		logging.Error("Failed to render device description",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", device.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		logging.Debug("Failed to write device description",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
	}
}

// statusRecorder captures the status code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routeLabel(path, locationPath string) string {
	switch path {
	case locationPath:
		return "description"
	case MetricsPath:
		return "metrics"
	case FeedPath:
		return "feed"
	default:
		return "other"
	}
}
