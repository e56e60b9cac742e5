package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"event-system/feedback-portal/feedback-portal-backend/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Manager fans certificate events out over WebSocket connections. Clients
// subscribe to one or more form ids via the `forms` query parameter; events
// without a form id broadcast to everyone. It implements events.Publisher.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*connection
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	closed      bool
}

type connection struct {
	id      string
	formIDs map[string]struct{}
	conn    *websocket.Conn
	send    chan events.Event
}

// NewManager creates a WebSocket event manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		connections: make(map[string]*connection),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades an HTTP request and starts pumping events to the
// client until it disconnects.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{
		id:      uuid.NewString(),
		formIDs: make(map[string]struct{}),
		conn:    ws,
		send:    make(chan events.Event, sendBufferSize),
	}
	for _, formID := range r.URL.Query()["forms"] {
		c.formIDs[formID] = struct{}{}
	}

	m.mu.Lock()
	m.connections[c.id] = c
	m.mu.Unlock()

	m.logger.Info("WebSocket client connected",
		zap.String("connection_id", c.id),
		zap.Int("forms", len(c.formIDs)))

	go m.writePump(c)
	go m.readPump(c)
	return nil
}

// Publish delivers an event to subscribed connections. Slow consumers are
// skipped rather than blocked on.
func (m *Manager) Publish(ev events.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.connections {
		if ev.FormID != "" && len(c.formIDs) > 0 {
			if _, ok := c.formIDs[ev.FormID]; !ok {
				continue
			}
		}
		select {
		case c.send <- ev:
		default:
			m.logger.Warn("Dropping event for slow WebSocket client",
				zap.String("connection_id", c.id),
				zap.String("type", ev.Type))
		}
	}
}

func (m *Manager) readPump(c *connection) {
	defer m.drop(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Manager) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) drop(c *connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[c.id]; ok {
		delete(m.connections, c.id)
		close(c.send)
	}
	c.conn.Close()
}

// Close disconnects all clients.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, c := range m.connections {
		delete(m.connections, id)
		close(c.send)
		c.conn.Close()
	}
}
