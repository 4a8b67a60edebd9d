// Package notifier publishes notices of applied events on a Redis channel.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/reconciler"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisNotifier implements reconciler.Notifier interface.
var _ reconciler.Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes reconciler notifications as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	log     *logger.Logger
}

// New connects to the Redis server of cfg and checks that it answers.
func New(ctx context.Context, cfg config.NotifierConfig, log *logger.Logger) (*RedisNotifier, error) {
	cfg.ApplyDefaults()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid notifier.redis_url: %w", err)
	}

	n := NewWithClient(redis.NewClient(opts), cfg.Channel, cfg.PublishTimeout.Duration, log)

	pingCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.client.Ping(pingCtx).Err(); err != nil {
		n.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	n.log.Infow("notifier connected", "addr", opts.Addr, "channel", n.channel)

	return n, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, channel string, timeout time.Duration, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		timeout: timeout,
		log:     log.WithComponent(common.ComponentNotifier),
	}
}

// Notify publishes n. It gives up after the publish timeout.
func (r *RedisNotifier) Notify(ctx context.Context, n reconciler.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		PublishFailedInc()
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}

	PublishedInc(n.Event)
	r.log.Debugw("notification published", "event", n.Event, "tx", n.TxHash.Hex(), "receivers", receivers)

	return nil
}

// Close closes the Redis client.
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
