package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groove/internal/app/notification"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

var errSlowSubscriber = errors.New("subscriber send buffer full")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only, so any origin may watch it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsStream adapts a websocket connection to notification.Stream. Send never
// blocks; writePump drains the buffer.
type wsStream struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *wsStream) Send(n *notification.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("stream closed")
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSlowSubscriber
	}
}

func (c *wsStream) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// handleWS subscribes the connection to player updates. The full state is
// always the first message; updates queued meanwhile follow it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Debug().Err(err).Msg("web: websocket upgrade failed")
		return
	}

	stream := &wsStream{conn: conn, send: make(chan []byte, sendBuffer)}
	id := s.notifications.Subscribe(stream)
	zlog.Debug().Msgf("web: subscriber connected: subscription=%s remote=%s", id, r.RemoteAddr)

	initial := &notification.Notification{
		Type:       notification.TypeInitialState,
		SequenceNo: s.notifications.NextSequenceNo(),
		Payload:    s.state(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(initial); err != nil {
		zlog.Debug().Err(err).Msgf("web: failed to send initial state: subscription=%s", id)
		s.notifications.Unsubscribe(id)
		stream.close()
		_ = conn.Close()
		return
	}

	go stream.writePump()
	go s.readPump(id, stream)
}

// readPump discards client messages and tears the subscription down when
// the connection ends.
func (s *Server) readPump(id string, c *wsStream) {
	defer func() {
		s.notifications.Unsubscribe(id)
		c.close()
		_ = c.conn.Close()
		zlog.Debug().Msgf("web: subscriber disconnected: subscription=%s", id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsStream) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
