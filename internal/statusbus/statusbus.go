// Package statusbus publishes cognitive-tick statuses to a Redis stream,
// modeled on the orchestrator package's MessageBus: a thin XAdd wrapper
// with no consumer-group bookkeeping, since status fan-out is fire-and-
// forget broadcast rather than point-to-point delivery.
package statusbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nidhogg/cogkernel/internal/cognitive"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultStream = "cogkernel:status"

// Bus publishes StatusRecord values onto a Redis stream.
type Bus struct {
	rdb    *redis.Client
	stream string
	logger *zap.Logger
}

// New connects to redisURL and verifies reachability with a ping. An empty
// stream name defaults to "cogkernel:status".
func New(redisURL, stream string, logger *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("statusbus: parse redis url: %w", err)
	}
	if stream == "" {
		stream = defaultStream
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("statusbus: redis ping: %w", err)
	}
	return &Bus{rdb: rdb, stream: stream, logger: logger}, nil
}

// Publish appends status to the configured stream. Failures are logged and
// swallowed — status fan-out is observability, never load-bearing for the
// cognitive loop itself.
func (b *Bus) Publish(ctx context.Context, status cognitive.StatusRecord) {
	data, err := json.Marshal(status)
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("statusbus: marshal status failed", zap.Error(err))
		}
		return
	}
	_, err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil && b.logger != nil {
		b.logger.Warn("statusbus: publish failed", zap.Error(err))
	}
}

// Run drains statuses and publishes each one until the channel closes or
// ctx is canceled.
func (b *Bus) Run(ctx context.Context, statuses <-chan cognitive.StatusRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-statuses:
			if !ok {
				return
			}
			b.Publish(ctx, status)
		}
	}
}

// Close shuts down the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}
