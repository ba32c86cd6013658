package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/upstander-api/internal/dto"
)

// RedisBroker relays messages through Redis Pub/Sub so every API instance sees them.
type RedisBroker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroker constructs a broker on client.
func NewRedisBroker(client *redis.Client, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, logger: logger}
}

// Publish sends msg on the report's channel.
func (b *RedisBroker) Publish(ctx context.Context, reportID string, msg dto.MessageResponse) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal conversation message: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(reportID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", Channel(reportID), err)
	}
	return nil
}

// Subscribe listens on the report's channel until ctx ends or Close is called.
func (b *RedisBroker) Subscribe(ctx context.Context, reportID string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, Channel(reportID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", Channel(reportID), err)
	}

	out := make(chan dto.MessageResponse, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				release()
				return
			case <-done:
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				var msg dto.MessageResponse
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.logger.Warn("discarding malformed conversation event", zap.String("channel", raw.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- msg:
				default:
				}
			}
		}
	}()

	return &Subscription{C: out, close: release}, nil
}
