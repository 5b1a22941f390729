package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/snippress/snippress/internal/watch"
)

// wsConn wraps a connection with its own mutex so concurrent broadcasts
// cannot interleave writes.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// wsHub tracks live-reload websocket connections for broadcasting watch
// events to open preview pages.
type wsHub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*wsConn
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]*wsConn)}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &wsConn{conn: conn}
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// broadcast sends the event to every connection, dropping dead ones.
func (h *wsHub) broadcast(evt watch.Event) {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.mu.Lock()
		err := c.conn.WriteJSON(evt)
		c.mu.Unlock()
		if err != nil {
			h.remove(c.conn)
			_ = c.conn.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The preview server binds to localhost; same-origin checks are relaxed
	// so file:// previews can connect too.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and keeps it registered until the client
// goes away. Events are pushed by the watch pump, not read here.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}

	s.hub.add(conn)
	s.logger.Debug("websocket client connected", slog.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			s.hub.remove(conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
