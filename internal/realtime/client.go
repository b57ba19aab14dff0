package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/config"
	"github.com/iliyamo/gym-management/internal/policy"
)

// Client is one live connection. The actor is resolved from the access token
// before the upgrade.
type Client struct {
	actor policy.Actor
	conn  *websocket.Conn
	send  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(actor policy.Actor, conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{actor: actor, conn: conn, send: make(chan []byte, buffer), done: make(chan struct{})}
}

// Actor returns the identity the client connected as.
func (c *Client) Actor() policy.Actor { return c.actor }

func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the send buffer and keeps the connection alive with pings.
// Idle connections stay open as long as pongs arrive.
func (c *Client) writePump(cfg config.RealtimeConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("live write failed", zap.String("user_id", c.actor.ID), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readPump handles client frames until the connection fails, then
// unregisters the client.
func (c *Client) readPump(h *Hub, cfg config.RealtimeConfig, log *zap.Logger) {
	defer func() {
		h.Unregister(c)
		c.close()
	}()
	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(cfg.MaxMessageSize)
	}
	pongWait := cfg.PingInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	registered := false
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("live read failed", zap.String("user_id", c.actor.ID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.reply(errorEvent("malformed frame"))
			continue
		}
		switch in.Event {
		case "register":
			if in.UserID != c.actor.ID {
				c.reply(errorEvent("user_id does not match the access token"))
				continue
			}
			h.Register(c)
			registered = true
			c.reply(Event{Name: EventRegistered, Data: map[string]string{"user_id": c.actor.ID}})
		case "typing":
			if !registered {
				c.reply(errorEvent("register first"))
				continue
			}
			if in.ReceiverID == "" || in.ReceiverID == c.actor.ID {
				continue
			}
			h.SendTo(in.ReceiverID, Event{Name: EventTyping, Data: map[string]any{
				"sender_id": c.actor.ID,
				"is_typing": in.IsTyping,
			}})
		default:
			c.reply(errorEvent("unknown event %q", in.Event))
		}
	}
}

func (c *Client) reply(ev Event) {
	if payload, err := json.Marshal(ev); err == nil {
		c.enqueue(payload)
	}
}
