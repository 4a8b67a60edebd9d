package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/reconciler"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisNotifier_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	n, err := New(ctx, config.NotifierConfig{
		Enabled:        true,
		RedisURL:       "redis://" + mr.Addr() + "/0",
		Channel:        "moderation:test",
		PublishTimeout: internalcommon.NewDuration(time.Second),
	}, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })

	subscriber := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { subscriber.Close() })

	pubsub := subscriber.Subscribe(ctx, "moderation:test")
	t.Cleanup(func() { pubsub.Close() })
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	contentID := uint64(7)
	sent := reconciler.Notification{
		Contract:  config.ContractContentRegistry,
		Event:     "ContentPublished",
		Status:    reconciler.StatusApplied,
		TxHash:    common.HexToHash("0x01"),
		LogIndex:  3,
		Block:     100,
		ContentID: &contentID,
	}
	require.NoError(t, n.Notify(ctx, sent))

	select {
	case msg := <-pubsub.Channel():
		var got reconciler.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		require.Equal(t, sent, got)
	case <-time.After(5 * time.Second):
		t.Fatal("notification not received")
	}
}

func TestRedisNotifier_PublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	n := NewWithClient(client, "moderation:test", 200*time.Millisecond, logger.NewNopLogger())
	t.Cleanup(func() { n.Close() })

	mr.Close()

	err := n.Notify(context.Background(), reconciler.Notification{Event: "Deposited"})
	require.ErrorContains(t, err, "failed to publish to moderation:test")
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.NotifierConfig{RedisURL: "http://nowhere"}, logger.NewNopLogger())
	require.ErrorContains(t, err, "invalid notifier.redis_url")
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), config.NotifierConfig{
		RedisURL:       "redis://" + addr,
		PublishTimeout: internalcommon.NewDuration(200 * time.Millisecond),
	}, logger.NewNopLogger())
	require.ErrorContains(t, err, "redis ping failed")
}
