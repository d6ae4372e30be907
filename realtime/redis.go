// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/stage/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RelayChannel is the Redis pub/sub channel shared by all instances
const RelayChannel = "stage:realtime"

const relayRetryDelay = time.Second

type envelope struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
}

// RedisRelay fans hub messages out to other instances through Redis
// pub/sub and feeds theirs into the local hub.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	origin string
}

// NewRedisRelay connects to url and attaches itself to hub. Run must be
// started to receive remote messages.
func NewRedisRelay(ctx context.Context, url string, hub *Hub) (*RedisRelay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	r := &RedisRelay{client: client, hub: hub, origin: uuid.NewString()}
	hub.SetRelay(r)
	return r, nil
}

func (r *RedisRelay) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(envelope{Origin: r.origin, Message: msg})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, RelayChannel, data).Err()
}

// Run receives remote messages until ctx is done. Connection loss is
// reported to hub subscribers as StatusError; go-redis resubscribes on
// the next receive.
func (r *RedisRelay) Run(ctx context.Context) {
	ps := r.client.Subscribe(ctx, RelayChannel)
	defer ps.Close()

	for {
		m, err := ps.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.hub.SetStatus(StatusError)
			logger.Warn("redis relay receive failed", zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(relayRetryDelay):
			}
			continue
		}

		switch v := m.(type) {
		case *redis.Subscription:
			logger.Info("redis relay subscribed", zap.String("channel", v.Channel))
			r.hub.SetStatus(StatusSubscribed)
		case *redis.Message:
			r.handle(v.Payload)
		}
	}
}

func (r *RedisRelay) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.Warn("redis relay dropped malformed message", zap.Error(err))
		return
	}

	// Already delivered locally
	if env.Origin == r.origin {
		return
	}
	r.hub.deliver(env.Message)
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}
