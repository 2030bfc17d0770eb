package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// createUpgrader creates a WebSocket upgrader with origin validation
func (s *Server) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.isValidOrigin,
	}
}

// eventClient is one websocket subscriber of conversion events. Clients
// only listen; anything they send is discarded.
type eventClient struct {
	id      string
	conn    *websocket.Conn
	send    chan ports.UpdateEvent
	manager *ConnectionManager
	logger  *logging.Logger
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	manager := s.connections()

	upgrader := s.createUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := &eventClient{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan ports.UpdateEvent, 256),
		manager: manager,
		logger:  s.logger,
	}

	// queued before registration so it is always the first frame
	client.send <- ports.UpdateEvent{
		Type:      ports.EventTypeConnected,
		Timestamp: time.Now(),
		Data: map[string]string{
			"client_id": client.id,
			"message":   "Connected to texdeck server",
		},
	}

	if !manager.RegisterConnection(&Connection{ID: client.id, Send: client.send}) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
		_ = conn.Close()
		return
	}

	s.logger.Debug("WebSocket client %s connected", client.id)
	s.metrics.RecordConnection()

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so control frames are processed
func (c *eventClient) readPump() {
	defer func() {
		c.manager.Unregister(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket connection error: %v", err)
			}
			return
		}
	}
}

// writePump pumps events to the WebSocket connection
func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isValidOrigin validates WebSocket connection origins based on environment
func (s *Server) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// same-origin requests and non-browser clients
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid origin URL %q: %v", origin, err)
		return false
	}

	if s.config.Server.IsDevelopment() {
		return isDevelopmentOrigin(originURL)
	}

	return s.isProductionOrigin(originURL)
}

// isDevelopmentOrigin allows loopback and private network hosts
func isDevelopmentOrigin(originURL *url.URL) bool {
	switch hostname := originURL.Hostname(); {
	case hostname == "localhost", hostname == "127.0.0.1", hostname == "0.0.0.0":
		return true
	case strings.HasPrefix(hostname, "192.168."), strings.HasPrefix(hostname, "10."):
		return true
	default:
		return isPrivateClassB(hostname)
	}
}

// isProductionOrigin checks the configured CORS origins
func (s *Server) isProductionOrigin(originURL *url.URL) bool {
	allowed := s.config.Server.GetCORSOrigins()
	for _, candidate := range allowed {
		if originURL.String() == candidate {
			return true
		}

		// *.example.com
		if strings.HasPrefix(candidate, "*.") {
			domain := strings.TrimPrefix(candidate, "*")
			if strings.HasSuffix(originURL.Hostname(), domain) {
				return true
			}
		}
	}

	s.logger.Warn("WebSocket connection rejected: origin %s not in %v", originURL, allowed)
	return false
}

// isPrivateClassB checks for 172.16.0.0 to 172.31.255.255 range
func isPrivateClassB(hostname string) bool {
	if !strings.HasPrefix(hostname, "172.") {
		return false
	}

	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return false
	}

	switch parts[1] {
	case "16", "17", "18", "19", "20", "21", "22", "23", "24", "25", "26", "27", "28", "29", "30", "31":
		return true
	default:
		return false
	}
}
