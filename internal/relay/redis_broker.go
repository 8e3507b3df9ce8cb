package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "relateos:group:"

// Ensure RedisBroker implements Broker
var _ Broker = (*RedisBroker)(nil)

// RedisBroker implements Broker with Redis pub/sub, one channel per group.
type RedisBroker struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisBroker connects to redisURL and verifies the connection.
func NewRedisBroker(redisURL string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBrokerWithClient(client), nil
}

// NewRedisBrokerWithClient creates a broker from an existing Redis client.
func NewRedisBrokerWithClient(client *redis.Client) *RedisBroker {
	return &RedisBroker{
		client: client,
		prefix: defaultChannelPrefix,
		logger: slog.Default(),
	}
}

func (b *RedisBroker) channel(groupID string) string {
	return b.prefix + groupID
}

// Publish sends env on the group's channel.
func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(env.GroupID), data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel(env.GroupID), err)
	}
	return nil
}

// Subscribe pattern-subscribes to every group channel.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	ps := b.client.PSubscribe(ctx, b.prefix+"*")

	// Wait for the subscription confirmation so no publish is missed
	// between Subscribe returning and the first receive.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe to %s*: %w", b.prefix, err)
	}

	out := make(chan Envelope, 64)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("Discarding undecodable broker envelope",
						"channel", msg.Channel,
						"error", err,
					)
					continue
				}
				if env.GroupID == "" {
					env.GroupID = strings.TrimPrefix(msg.Channel, b.prefix)
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis connection.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
