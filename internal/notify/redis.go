package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay shares events between API instances. Publish sends the encoded
// envelope to a Redis channel; Run receives from the same channel and hands
// each decoded event to the local publisher, normally a Hub.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	local      Publisher
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewRedisRelay(client *redis.Client, channel string, local Publisher, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client:     client,
		channel:    channel,
		local:      local,
		logger:     logger,
		retryDelay: time.Second,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, ev Event) {
	data, err := Encode(ev)
	if err != nil {
		r.logger.Error("encode event", zap.String("type", string(ev.Type())), zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Warn("publish event to redis",
			zap.String("board_id", ev.Board()),
			zap.String("type", string(ev.Type())),
			zap.Error(err),
		)
	}
}

// Run blocks until ctx is done, resubscribing whenever the pubsub channel
// closes underneath it.
func (r *RedisRelay) Run(ctx context.Context) {
	for {
		r.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("redis pubsub channel closed, resubscribing", zap.String("channel", r.channel))
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.retryDelay):
		}
	}
}

func (r *RedisRelay) consume(ctx context.Context) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, err := Decode([]byte(msg.Payload))
			if err != nil {
				r.logger.Error("unable to parse event", zap.String("channel", r.channel), zap.Error(err))
				continue
			}
			r.local.Publish(ctx, ev)
		}
	}
}
