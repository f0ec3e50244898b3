package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types pushed to run subscribers.
const (
	EventPointAccepted = "point_accepted"
	EventZoneReady     = "zone_ready"
	EventZoneDuplicate = "zone_duplicate"
	EventZoneRejected  = "zone_rejected"
	EventRunEnded      = "run_ended"
)

// Event is the envelope for every live run update.
type Event struct {
	Type    string          `json:"type"`
	RunID   string          `json:"run_id"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans run events out to websocket subscribers, and mirrors them through
// redis pub/sub so subscribers on other instances see them too.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RunID string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(runID string) *Client {
	client := &Client{
		RunID: runID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[runID] == nil {
		h.clients[runID] = map[*Client]struct{}{}
	}
	h.clients[runID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if runClients, ok := h.clients[client.RunID]; ok {
		delete(runClients, client)
		if len(runClients) == 0 {
			delete(h.clients, client.RunID)
		}
	}
	close(client.Send)
}

// Publish marshals an event for the run and broadcasts it.
func (h *Hub) Publish(runID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("event payload marshal error: %v", err)
		return
	}
	msg, err := json.Marshal(Event{Type: eventType, RunID: runID, At: time.Now(), Payload: raw})
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	h.Broadcast(runID, msg)
}

func (h *Hub) Broadcast(runID string, payload []byte) {
	// Sends stay under the read lock: Unregister closes Send under the write
	// lock, so a send can never hit a closed channel. Sends are non-blocking,
	// slow clients just miss the message.
	h.mu.RLock()
	for client := range h.clients[runID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
	h.mu.RUnlock()

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(runID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "runs:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		runID := runIDFromChannel(msg.Channel)
		h.mu.RLock()
		for client := range h.clients[runID] {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
		h.mu.RUnlock()
	}
}

func redisChannel(runID string) string {
	return "runs:" + runID + ":events"
}

func runIDFromChannel(ch string) string {
	// runs:{run}:events
	const prefix = "runs:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
