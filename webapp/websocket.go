package webapp

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raykavin/pricelens/core"
)

// SessionManager handles WebSocket connections, one chart session per
// connected browser. The order slice preserves connection order so
// broadcasts reach sessions in the order they connected.
type SessionManager struct {
	sync.RWMutex
	clients  map[*websocket.Conn]*chartSession
	order    []*chartSession
	upgrader websocket.Upgrader
	log      core.Logger
	app      *App
}

// NewSessionManager creates a new WebSocket session manager
func NewSessionManager(log core.Logger, app *App) *SessionManager {
	return &SessionManager{
		clients: make(map[*websocket.Conn]*chartSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
		app: app,
	}
}

// HandleWebSocket handles WebSocket connections
func (m *SessionManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Error("Failed to upgrade connection to WebSocket: ", err)
		return
	}

	session := newChartSession(m.app, conn)

	m.Lock()
	m.clients[conn] = session
	m.order = append(m.order, session)
	clientCount := len(m.clients)
	m.Unlock()

	m.log.Info("New WebSocket client connected, total: ", clientCount)

	go session.loop()
	session.sendInitial()
	go m.handleClient(conn, session)
}

// handleClient processes messages from a client until it disconnects.
func (m *SessionManager) handleClient(conn *websocket.Conn, session *chartSession) {
	defer func() {
		m.Lock()
		delete(m.clients, conn)
		for i, active := range m.order {
			if active == session {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		remaining := len(m.clients)
		m.Unlock()

		session.close()
		m.log.Info("WebSocket client disconnected, remaining: ", remaining)
	}()

	// Keep connection alive with ping/pong
	conn.SetPingHandler(func(string) error {
		return conn.WriteControl(websocket.PongMessage, []byte{}, time.Now().Add(10*time.Second))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Error("WebSocket read error: ", err)
			}
			break
		}
		session.handleMessage(raw)
	}
}

// sessions returns a snapshot of the active sessions in connection
// order.
func (m *SessionManager) sessions() []*chartSession {
	m.RLock()
	defer m.RUnlock()

	snapshot := make([]*chartSession, len(m.order))
	copy(snapshot, m.order)
	return snapshot
}

// ClientCount returns the number of connected sessions.
func (m *SessionManager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

// BroadcastPoint fans a live price point out to every chart session in
// connection order.
func (m *SessionManager) BroadcastPoint(point core.PricePoint) {
	for _, session := range m.sessions() {
		session.onPoint(point)
	}
}
