package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

const (
	EventEntryCreated = "entry.created"
	EventEntryUpdated = "entry.updated"
	EventEntryDeleted = "entry.deleted"

	// EntryChannelPrefix is followed by the owner id.
	EntryChannelPrefix = "entries:user:"

	subscriberBuffer = 16
)

// EntryEvent is broadcast over Redis and relayed to the owner's WebSocket connections.
type EntryEvent struct {
	Type      string        `json:"type"`
	EntryID   string        `json:"entry_id"`
	OwnerID   string        `json:"owner_id"`
	Entry     *models.Entry `json:"entry,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventPublisher is what the entry service needs to announce changes.
type EventPublisher interface {
	Publish(ctx context.Context, event EntryEvent) error
}

// EntryEventHub publishes entry changes on Redis and fans messages received
// from Redis out to local subscribers, so every instance sees every save.
type EntryEventHub struct {
	client redis.UniversalClient

	mu   sync.RWMutex
	subs map[string]map[chan EntryEvent]struct{}

	started sync.Once
}

func NewEntryEventHub(client redis.UniversalClient) *EntryEventHub {
	return &EntryEventHub{
		client: client,
		subs:   make(map[string]map[chan EntryEvent]struct{}),
	}
}

// EntryChannel is the Redis channel carrying one owner's events.
func EntryChannel(ownerID string) string {
	return EntryChannelPrefix + ownerID
}

func (h *EntryEventHub) Publish(ctx context.Context, event EntryEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, EntryChannel(event.OwnerID), data).Err()
}

// Subscribe registers a local listener for one owner. The returned func
// unregisters it and closes the channel.
func (h *EntryEventHub) Subscribe(ownerID string) (<-chan EntryEvent, func()) {
	ch := make(chan EntryEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[chan EntryEvent]struct{})
	}
	h.subs[ownerID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[ownerID], ch)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// fanOut delivers without blocking; a slow subscriber drops events.
func (h *EntryEventHub) fanOut(event EntryEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[event.OwnerID] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("owner_id", event.OwnerID).Str("type", event.Type).Msg("dropping entry event for slow subscriber")
		}
	}
}

// Start runs a single shared Redis listener per instance until ctx ends.
func (h *EntryEventHub) Start(ctx context.Context) {
	h.started.Do(func() {
		go h.run(ctx)
	})
}

func (h *EntryEventHub) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pubsub := h.client.PSubscribe(ctx, EntryChannelPrefix+"*")
		log.Info().Str("pattern", EntryChannelPrefix+"*").Msg("✅ Entry event subscriber started")

		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				_ = pubsub.Close()
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Dur("backoff", backoff).Msg("Redis subscriber error")
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
				break
			}

			backoff = time.Second

			var event EntryEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("failed to unmarshal entry event")
				continue
			}
			if event.OwnerID == "" {
				event.OwnerID = strings.TrimPrefix(msg.Channel, EntryChannelPrefix)
			}
			h.fanOut(event)
		}
	}
}
