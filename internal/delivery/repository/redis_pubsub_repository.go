package repository

import (
	"context"
	"encoding/json"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultAnnounceChannel redis channel carrying AnnounceEvent
const DefaultAnnounceChannel = "delivery:announce"

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish 將 message 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe 訂閱 channel，收到訊息後呼叫 handler; ctx 結束時關閉訂閱
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	sub := r.client.Subscribe(ctx, channel)
	// 確認訂閱成功
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(m.Payload))
			case <-ctx.Done():
				logger.Log.Info("redis subscription closed", zap.String("channel", channel))
				return
			}
		}
	}()
	return nil
}

// RedisAnnouncePublisher worker side of the redis announce transport
type RedisAnnouncePublisher struct {
	pubsub  *RedisPubSub
	channel string
}

// NewRedisAnnouncePublisher create RedisAnnouncePublisher
func NewRedisAnnouncePublisher(pubsub *RedisPubSub, channel string) *RedisAnnouncePublisher {
	if channel == "" {
		channel = DefaultAnnounceChannel
	}
	return &RedisAnnouncePublisher{pubsub: pubsub, channel: channel}
}

// AnnounceDelivered publish one event, every subscribed gateway receives it
func (p *RedisAnnouncePublisher) AnnounceDelivered(ctx context.Context, ev domain.AnnounceEvent) error {
	return errprocess.Wrap(errprocess.KindTransient, p.pubsub.Publish(ctx, p.channel, ev), "publish announce")
}

// SubscribeAnnouncements gateway side: decode events and pass them to handle
func (r *RedisPubSub) SubscribeAnnouncements(ctx context.Context, channel string, handle func(context.Context, domain.AnnounceEvent) error) error {
	if channel == "" {
		channel = DefaultAnnounceChannel
	}
	return r.Subscribe(ctx, channel, func(payload []byte) {
		var ev domain.AnnounceEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			logger.Log.Error("malformed announce event", zap.Error(err))
			return
		}
		if err := handle(ctx, ev); err != nil {
			logger.Log.Error("announce handling failed", zap.Int64("message_id", ev.MessageID), zap.Error(err))
		}
	})
}
