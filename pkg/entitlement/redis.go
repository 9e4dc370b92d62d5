package entitlement

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/goodswim/backend/pkg/logger"
)

// DefaultChannel is the Redis pub/sub channel subscription changes travel on.
const DefaultChannel = "entitlement:changes"

// RedisBroadcaster fans subscription changes out across instances via Redis
// pub/sub. The webhook-handling instance publishes; every instance's
// entitlement client subscribes. Delivery is at-most-once, which matches the
// cache's tolerance for dropped notifications.
type RedisBroadcaster struct {
	client  redis.UniversalClient
	channel string
	log     *slog.Logger
}

// RedisBroadcasterOption configures a RedisBroadcaster.
type RedisBroadcasterOption func(*RedisBroadcaster)

// WithChannel overrides the pub/sub channel name.
func WithChannel(channel string) RedisBroadcasterOption {
	return func(b *RedisBroadcaster) {
		if channel != "" {
			b.channel = channel
		}
	}
}

// WithBroadcasterLogger sets the structured logger. Defaults to slog.Default().
func WithBroadcasterLogger(log *slog.Logger) RedisBroadcasterOption {
	return func(b *RedisBroadcaster) {
		if log != nil {
			b.log = log
		}
	}
}

// NewRedisBroadcaster wraps a connected Redis client. Panics on a nil client
// to fail fast during initialization.
func NewRedisBroadcaster(client redis.UniversalClient, opts ...RedisBroadcasterOption) *RedisBroadcaster {
	if client == nil {
		panic("entitlement: redis client is required")
	}

	b := &RedisBroadcaster{
		client:  client,
		channel: DefaultChannel,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish implements billing.ChangePublisher. Publish failures are logged and
// swallowed: a lost notification only delays cache convergence, it must not
// fail the webhook that triggered it.
func (b *RedisBroadcaster) Publish(ctx context.Context, teamID uuid.UUID) {
	if err := b.client.Publish(ctx, b.channel, teamID.String()).Err(); err != nil {
		b.log.WarnContext(ctx, "failed to publish subscription change",
			logger.TeamID(teamID), "channel", b.channel, logger.Error(err))
	}
}

// Subscribe opens a pub/sub subscription and returns a channel of parsed
// changes. The goroutine exits and closes the channel when ctx is cancelled;
// malformed payloads are logged and skipped.
func (b *RedisBroadcaster) Subscribe(ctx context.Context) <-chan Change {
	sub := b.client.Subscribe(ctx, b.channel)
	out := make(chan Change, 64)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				teamID, err := uuid.Parse(msg.Payload)
				if err != nil {
					b.log.WarnContext(ctx, "malformed change payload",
						"payload", msg.Payload, logger.Error(err))
					continue
				}
				select {
				case out <- Change{TeamID: teamID}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
