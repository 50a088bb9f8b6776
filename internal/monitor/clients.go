package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/discordbridge/internal/logging"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// client is one websocket subscriber. Frames are queued without blocking
// the publisher; a full queue drops the frame for this client only.
type client struct {
	id      string
	conn    *websocket.Conn
	out     chan Frame
	dropped atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan Frame, clientBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) enqueue(f Frame) bool {
	select {
	case c.out <- f:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// writeLoop owns all writes to the connection.
func (c *client) writeLoop(log *logging.Logger) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer c.close()

	for {
		select {
		case f := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(f); err != nil {
				log.Debug().Err(err).Str("conn", c.id).Msg("write failed")
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop discards input and returns when the peer goes away.
func (c *client) readLoop() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

type clientSet struct {
	mu      sync.RWMutex
	clients map[string]*client
	log     *logging.Logger
}

func newClientSet(log *logging.Logger) *clientSet {
	return &clientSet{clients: make(map[string]*client), log: log}
}

func (s *clientSet) add(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info().Str("conn", c.id).Int("clients", n).Msg("monitor client connected")
}

func (s *clientSet) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	s.log.Info().Str("conn", c.id).Int64("dropped", c.dropped.Load()).Msg("monitor client disconnected")
}

func (s *clientSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *clientSet) broadcast(f Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.enqueue(f)
	}
}

func (s *clientSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
}
