package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/policy"
)

// Hub binds user ids to their live client. If a user registers twice, the
// most recent client wins; the older one stays open but receives nothing.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*Client), log: log}
}

// Register binds c to its user id and returns the client it replaced, if any.
func (h *Hub) Register(c *Client) *Client {
	h.mu.Lock()
	prev := h.clients[c.actor.ID]
	h.clients[c.actor.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.LiveConnections.Set(float64(n))
	h.log.Debug("live client registered", zap.String("user_id", c.actor.ID), zap.Bool("replaced", prev != nil))
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes the binding only when it still points at c, so a stale
// connection closing late cannot evict a newer registration.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	cur, ok := h.clients[c.actor.ID]
	removed := ok && cur == c
	if removed {
		delete(h.clients, c.actor.ID)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.LiveConnections.Set(float64(n))
	return removed
}

// Disconnect closes userID's registered client. The client keeps the identity
// it was upgraded with, so callers use this when the user's account changes
// and the app has to reconnect under its current role, center and status.
func (h *Hub) Disconnect(userID string) bool {
	h.mu.Lock()
	c := h.clients[userID]
	delete(h.clients, userID)
	n := len(h.clients)
	h.mu.Unlock()
	if c == nil {
		return false
	}
	metrics.LiveConnections.Set(float64(n))
	c.close()
	h.log.Debug("live client disconnected", zap.String("user_id", userID))
	return true
}

// Connected reports whether userID has a registered client.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Count returns the number of registered users.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo delivers ev to userID if connected. It never blocks.
func (h *Hub) SendTo(userID string, ev Event) bool {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()
	if c == nil {
		metrics.LiveEventsTotal.WithLabelValues(ev.Name, "offline").Inc()
		return false
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode live event", zap.String("event", ev.Name), zap.Error(err))
		return false
	}
	return h.deliver(c, ev.Name, payload)
}

// Broadcast delivers ev to every registered client whose actor satisfies
// match and returns how many clients accepted it.
func (h *Hub) Broadcast(ev Event, match func(policy.Actor) bool) int {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode live event", zap.String("event", ev.Name), zap.Error(err))
		return 0
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if match == nil || match(c.actor) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if h.deliver(c, ev.Name, payload) {
			sent++
		}
	}
	return sent
}

func (h *Hub) deliver(c *Client, name string, payload []byte) bool {
	if c.enqueue(payload) {
		metrics.LiveEventsTotal.WithLabelValues(name, "sent").Inc()
		return true
	}
	metrics.LiveEventsTotal.WithLabelValues(name, "dropped").Inc()
	h.log.Warn("live client buffer full, event dropped", zap.String("user_id", c.actor.ID), zap.String("event", name))
	return false
}
