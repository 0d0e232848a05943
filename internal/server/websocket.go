package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// RecordView is the JSON form of a record sent on the feed.
type RecordView struct {
	UDN             string `json:"udn"`
	FriendlyName    string `json:"friendlyName"`
	DeviceType      string `json:"deviceType"`
	Address         string `json:"address,omitempty"`
	LocationURL     string `json:"location,omitempty"`
	PresentationURL string `json:"presentation,omitempty"`
	MaxAge          int    `json:"maxAge"`
	Published       bool   `json:"published"`
}

// NewRecordView converts rec for the feed.
func NewRecordView(rec *device.Record) RecordView {
	v := RecordView{
		UDN:             rec.UDN(),
		FriendlyName:    rec.FriendlyName,
		DeviceType:      rec.DeviceType,
		LocationURL:     rec.LocationURL,
		PresentationURL: rec.PresentationURL,
		MaxAge:          rec.MaxAge(),
		Published:       rec.Published(),
	}
	if rec.BoundAddress.IsValid() {
		v.Address = rec.BoundAddress.String()
	}
	return v
}

// handleFeed streams the current record to a WebSocket client until either
// side goes away.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	remoteAddr := r.RemoteAddr
	s.trackFeed(conn, remoteAddr)
	defer func() {
		s.untrackFeed(conn)
		_ = conn.Close()
		logging.Info("Feed client disconnected", zap.String("remote_addr", remoteAddr))
	}()
	logging.Info("Feed client connected", zap.String("remote_addr", remoteAddr))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		readPump(conn)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		// Take the channel before loading so a swap in between is not lost.
		changed := s.store.Changed()
		if err := writeRecord(conn, s.store.Load()); err != nil {
			logging.Debug("Failed to write feed message",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err))
			return
		}

		if !awaitChange(conn, changed, closed, ping.C) {
			return
		}
	}
}

// awaitChange keeps the connection alive with pings until the record changes
// or the connection closes. It reports whether the record changed.
func awaitChange(conn *websocket.Conn, changed, closed <-chan struct{}, ping <-chan time.Time) bool {
	for {
		select {
		case <-changed:
			return true
		case <-closed:
			return false
		case <-ping:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return false
			}
		}
	}
}

// readPump discards client messages and returns when the connection fails
// or the client stops answering pings.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func writeRecord(conn *websocket.Conn, rec *device.Record) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(NewRecordView(rec))
}

func (s *Server) trackFeed(conn *websocket.Conn, remoteAddr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[conn] = remoteAddr
	metricFeedClients.Set(float64(len(s.feeds)))
}

func (s *Server) untrackFeed(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feeds, conn)
	metricFeedClients.Set(float64(len(s.feeds)))
}

// closeFeeds drops every feed connection; http.Server.Shutdown does not
// track hijacked connections.
func (s *Server) closeFeeds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, addr := range s.feeds {
		logging.Debug("Closing feed connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
}

// FeedClients returns the number of connected feed clients.
func (s *Server) FeedClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}
