package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lancewilhelm/shpacer-sub001/internal/observability"
)

// Hub fans plan events out to local websocket clients and, when redis is
// configured, to other instances via pub/sub on plans:{id}:updates.
type Hub struct {
	redis   *redis.Client
	metrics *observability.Collector
	clients map[string]map[*Client]struct{}
	total   int
	mu      sync.RWMutex
}

type Client struct {
	PlanID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, metrics *observability.Collector) *Hub {
	h := &Hub{
		redis:   redisClient,
		metrics: metrics,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(planID string) *Client {
	client := &Client{
		PlanID: planID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[planID] == nil {
		h.clients[planID] = map[*Client]struct{}{}
	}
	h.clients[planID][client] = struct{}{}
	h.total++
	h.metrics.SetStreamClients(h.total)
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if planClients, ok := h.clients[client.PlanID]; ok {
		if _, registered := planClients[client]; registered {
			delete(planClients, client)
			h.total--
			h.metrics.SetStreamClients(h.total)
		}
		if len(planClients) == 0 {
			delete(h.clients, client.PlanID)
		}
	}
	close(client.Send)
}

// Broadcast sends payload to every subscriber of planID. With redis
// configured the event goes through pub/sub so local and remote clients
// each receive it exactly once.
func (h *Hub) Broadcast(planID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), planChannel(planID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
		return
	}

	h.deliver(planID, payload)
}

func (h *Hub) deliver(planID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[planID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "plans:*:updates")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(planIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func planChannel(planID string) string {
	return "plans:" + planID + ":updates"
}

func planIDFromChannel(ch string) string {
	// plans:{plan}:updates
	const prefix = "plans:"
	const suffix = ":updates"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
