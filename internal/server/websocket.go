package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Frames queued per client before pushes are dropped
	sendBuffer = 16
)

// wsClient is one websocket connection.
type wsClient struct {
	conn       *websocket.Conn
	remoteAddr string
	send       chan api.Frame
	done       chan struct{}
	once       sync.Once
}

func newWSClient(conn *websocket.Conn, remoteAddr string) *wsClient {
	return &wsClient{
		conn:       conn,
		remoteAddr: remoteAddr,
		send:       make(chan api.Frame, sendBuffer),
		done:       make(chan struct{}),
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// queue hands a frame to the write pump. It reports false when the client
// is gone.
func (c *wsClient) queue(f api.Frame) bool {
	select {
	case c.send <- f:
		return true
	case <-c.done:
		return false
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				logging.Debug("websocket write failed", zap.String("remote_addr", c.remoteAddr), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) readPump(handle func(api.Frame) api.Frame) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame api.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		logging.Debug("WebSocket frame received",
			zap.String("remote_addr", c.remoteAddr),
			zap.String("id", frame.ID),
			zap.String("op", frame.Op),
		)

		if !c.queue(handle(frame)) {
			return
		}
	}
}

// hub tracks websocket clients for revision pushes.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast pushes f to every client without blocking on slow readers.
func (h *hub) broadcast(f api.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			logging.Warn("Dropping push for slow websocket client", zap.String("remote_addr", c.remoteAddr))
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		logging.Info("Closing active connection", zap.String("remote_addr", c.remoteAddr))
		c.close()
	}
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	client := newWSClient(conn, r.RemoteAddr)
	s.hub.add(client)
	logging.LogConnection(r.RemoteAddr, "connected")

	defer func() {
		s.hub.remove(client)
		client.close()
		logging.LogConnection(r.RemoteAddr, "disconnected")
	}()

	go client.writePump()

	ctx := context.WithoutCancel(r.Context())
	client.readPump(func(f api.Frame) api.Frame {
		return s.dispatch(ctx, f)
	})
}

// dispatch executes one websocket request frame.
func (s *Server) dispatch(ctx context.Context, f api.Frame) api.Frame {
	reply := api.Frame{ID: f.ID, Op: f.Op}

	switch f.Op {
	case api.OpGet:
		if f.Name == "" {
			return errorFrame(f, "name is required")
		}
		reply.Name = f.Name
		reply.Result = s.engine.Get(ctx, f.Name)

	case api.OpSet:
		if f.Name == "" {
			return errorFrame(f, "name is required")
		}
		reply.Name = f.Name
		reply.Value = f.Value
		reply.Success = s.engine.Set(ctx, f.Name, f.Value)

	case api.OpConfig:
		reply.Config = s.engine.Current().Document()

	case api.OpApply:
		current, changes, err := s.engine.Apply(ctx, f.Config)
		if err != nil {
			return errorFrame(f, err.Error())
		}
		reply.Config = current.Document()
		reply.Changes = changes

	case api.OpDefaults:
		current, changes := s.engine.RestoreDefaults(ctx)
		reply.Config = current.Document()
		reply.Changes = changes

	default:
		return errorFrame(f, fmt.Sprintf("unknown op %q", f.Op))
	}

	return reply
}

func errorFrame(req api.Frame, message string) api.Frame {
	return api.Frame{ID: req.ID, Op: api.OpError, Error: message}
}
