package database

import (
	"fmt"
	"time"

	"chat_delivery_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitRepo definition rabbit repo
type RabbitRepo interface {
	GetRabbit() *amqp.Channel
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type rabbitRepo struct {
	channel *amqp.Channel
}

// NewRabbitRepository create a RabbitRepository
func NewRabbitRepository(ch *amqp.Channel) RabbitRepo {
	return &rabbitRepo{channel: ch}
}

// ConnectRabbitMQWithRetry 嘗試連線到 RabbitMQ
func ConnectRabbitMQWithRetry(d Connection) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= max(d.RetryCount, 1); attempt++ {
		conn, err = amqp.Dial(d.ConnectStr)
		if err == nil {
			logger.Log.Info("rabbitmq connected", zap.Int("attempt", attempt))
			return conn, nil
		}

		logger.Log.Warn("rabbitmq connect failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("rabbitmq connect after %d attempts: %w", d.RetryCount, err)
}

// GetRabbitMQChannelWithRetry 使用已有的連線取得 Channel 並宣告 durable queue
func GetRabbitMQChannelWithRetry(conn *amqp.Connection, queue string, maxRetries int, baseDelay time.Duration) (*amqp.Channel, error) {
	var ch *amqp.Channel
	var err error

	for attempt := 1; attempt <= max(maxRetries, 1); attempt++ {
		ch, err = conn.Channel()
		if err == nil {
			if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err == nil {
				// one unacked record at a time per consumer
				if err = ch.Qos(1, 0, false); err == nil {
					return ch, nil
				}
			}
			ch.Close()
		}

		logger.Log.Warn("rabbitmq channel failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(baseDelay * time.Second)
	}

	return nil, fmt.Errorf("rabbitmq channel after %d attempts: %w", maxRetries, err)
}

func (r *rabbitRepo) GetRabbit() *amqp.Channel {
	return r.channel
}

func (r *rabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return r.channel.Publish(exchange, key, mandatory, immediate, msg)
}
