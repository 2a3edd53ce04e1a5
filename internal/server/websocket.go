package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pathglyph/pathglyph/internal/core/observability/log"
	"github.com/pathglyph/pathglyph/pkg/concurrent"
	"github.com/pathglyph/pathglyph/pkg/sequence"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// client wraps one websocket connection. Writes are serialized with a
// per-client mutex because snapshots and forwarded events come from
// different goroutines.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Err(err))
		return
	}

	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("client connected", log.String("remote", conn.RemoteAddr().String()))

	// greet with the current state so the client can draw immediately
	_ = c.send(makeSnapshot(s.simulation))

	go s.readCommands(c)
}

// readCommands pumps editor commands from one client into the command
// queue until the connection drops.
func (s *Server) readCommands(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		_ = c.conn.Close()
		s.logger.Info("client disconnected", log.String("remote", c.conn.RemoteAddr().String()))
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			s.logger.Warn("malformed command", log.Err(err))
			continue
		}
		select {
		case s.commands <- cmd:
		default:
			s.logger.Warn("command queue full, dropping", log.String("type", cmd.Type))
		}
	}
}

func (s *Server) broadcastSnapshot() {
	s.broadcast(makeSnapshot(s.simulation))
}

// broadcast fans the message out to every connected client in parallel;
// a slow client never stalls the tick loop past its own write.
func (s *Server) broadcast(v any) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	if len(clients) == 0 {
		return
	}

	concurrent.ParallelMute(sequence.From(clients), func(c *client) error {
		return c.send(v)
	})
}
