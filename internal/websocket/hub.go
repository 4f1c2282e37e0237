package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"well-bot-be/internal/dto"
	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/card"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel carries cards between instances
const ClusterChannel = "cluster_events"

type clusterMessage struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: SessionID -> clients (multi-device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance delivery. May be nil.
	rdb *redis.Client
	// instance id, used to skip our own cluster messages
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

// Run serves registrations until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			client.closed = true
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Session has no more clients", map[string]interface{}{"session_id": client.SessionID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for _, c := range clients {
			c.closed = true
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Notify pushes an asynchronous card, e.g. an inactivity warning, to every client of
// the session on any instance. It matches session.Notifier.
func (h *Hub) Notify(sessionID string, c card.Card) {
	data, err := json.Marshal(dto.WsCardMessage{
		Type:      "card",
		SessionId: sessionID,
		Async:     true,
		Data:      c,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode card", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(sessionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.origin, TargetSessionID: sessionID, Message: data})
		if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
		}
	}
}

// deliver writes to local clients without blocking. Slow clients are dropped.
func (h *Hub) deliver(sessionID string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
		go h.drop(client)
	}
}

// drop unregisters a client unless the hub has already stopped
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// send queues data for one client without blocking. It is a no-op once the hub
// has closed the client's Send channel.
func (h *Hub) send(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Connected reports whether the session has a local client
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID]) > 0
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			h.deliver(payload.TargetSessionID, payload.Message)
		}
	}
}
