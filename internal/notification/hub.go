package notification

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "notifications:"

// Hub fans new notifications out to the recipient's open websocket clients.
// With Redis configured every instance subscribes to the same channels, so a
// notification created on one instance reaches clients connected to another.
type Hub struct {
	redis   *redis.Client
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	AccountID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	h := &Hub{
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		h.done = make(chan struct{})
		pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*")
		h.awaitSubscription(ctx, pubsub)
		go h.subscribeRedis(ctx, pubsub)
	}
	return h
}

func (h *Hub) Register(accountID string) *Client {
	client := &Client{
		AccountID: accountID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = map[*Client]struct{}{}
	}
	h.clients[accountID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if accountClients, ok := h.clients[client.AccountID]; ok {
		if _, registered := accountClients[client]; !registered {
			return
		}
		delete(accountClients, client)
		if len(accountClients) == 0 {
			delete(h.clients, client.AccountID)
		}
		close(client.Send)
	}
}

// Publish delivers payload to accountID's clients. When Redis is configured
// delivery goes through the subscription only, so local clients receive it once.
func (h *Hub) Publish(ctx context.Context, accountID string, payload []byte) error {
	if h.redis != nil {
		return h.redis.Publish(ctx, channel(accountID), payload).Err()
	}
	h.deliver(accountID, payload)
	return nil
}

func (h *Hub) deliver(accountID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[accountID] {
		select {
		case client.Send <- payload:
		default:
			h.log.Warn("dropping notification for slow client", zap.String("account_id", accountID))
		}
	}
}

func (h *Hub) awaitSubscription(ctx context.Context, pubsub *redis.PubSub) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Warn("redis subscription not confirmed", zap.Error(err))
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
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
			if accountID := accountIDFromChannel(msg.Channel); accountID != "" {
				h.deliver(accountID, []byte(msg.Payload))
			}
		}
	}
}

// Close stops the Redis subscription. Registered clients are left to their handlers.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
}

func channel(accountID string) string {
	return channelPrefix + accountID
}

func accountIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) {
		return ""
	}
	return ch[len(channelPrefix):]
}
