package repository

import (
	"context"
	"encoding/json"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/database"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type rabbitProducer struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitProducer publish records as persistent messages on a durable queue
func NewRabbitProducer(rabbit database.RabbitRepo, queue string) MessageLogProducer {
	return &rabbitProducer{rabbit: rabbit, queue: queue}
}

func (p *rabbitProducer) Append(ctx context.Context, rec domain.LogRecord) error {
	if err := ctx.Err(); err != nil {
		return errprocess.Wrap(errprocess.KindTransient, err, "append to rabbitmq")
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return errprocess.Wrap(errprocess.KindInternal, err, "marshal log record")
	}

	err = p.rabbit.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    rec.ClientMessageID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	return errprocess.Wrap(errprocess.KindTransient, err, "append to rabbitmq")
}

func (p *rabbitProducer) Close() error {
	return p.rabbit.GetRabbit().Close()
}

type rabbitChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type rabbitConsumer struct {
	channel      rabbitChannel
	queue        string
	deadLetters  DeadLetterRepository
	requeueDelay time.Duration
}

// NewRabbitConsumer manual-ack consumer; retryable failures are requeued after requeueDelay
func NewRabbitConsumer(ch *amqp.Channel, queue string, deadLetters DeadLetterRepository, requeueDelay time.Duration) MessageLogConsumer {
	return &rabbitConsumer{channel: ch, queue: queue, deadLetters: deadLetters, requeueDelay: requeueDelay}
}

func (c *rabbitConsumer) Run(ctx context.Context, handler RecordHandler) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // autoAck 為 false，使用手動確認
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return errprocess.Wrap(errprocess.KindTransient, err, "consume rabbitmq")
	}
	logger.Log.Info("rabbitmq consumer started", zap.String("queue", c.queue))
	return c.consume(ctx, msgs, handler)
}

func (c *rabbitConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery, handler RecordHandler) error {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Info("rabbitmq delivery channel closed")
				return nil
			}
			c.handle(ctx, d, handler)
		case <-ctx.Done():
			logger.Log.Info("rabbitmq consumer stopped")
			return nil
		}
	}
}

func (c *rabbitConsumer) handle(ctx context.Context, d amqp.Delivery, handler RecordHandler) {
	letter := domain.DeadLetter{
		Source:  "rabbitmq:" + c.queue,
		Offset:  int64(d.DeliveryTag),
		Key:     d.MessageId,
		Payload: string(d.Body),
	}

	var rec domain.LogRecord
	if err := json.Unmarshal(d.Body, &rec); err != nil {
		letter.Reason = "decode: " + err.Error()
		deadLetter(ctx, c.deadLetters, letter)
		c.ack(d)
		return
	}

	err := handler(ctx, rec)
	switch {
	case err == nil:
		c.ack(d)
	case errprocess.IsRetryable(err) || ctx.Err() != nil:
		logger.Log.Warn("record processing failed, requeue", zap.String("client_message_id", rec.ClientMessageID), zap.Error(err))
		select {
		case <-time.After(c.requeueDelay):
		case <-ctx.Done():
		}
		if err := d.Nack(false, true); err != nil {
			logger.Log.Error("nack failed", zap.Error(err))
		}
	default:
		letter.Reason = err.Error()
		deadLetter(ctx, c.deadLetters, letter)
		c.ack(d)
	}
}

func (c *rabbitConsumer) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		logger.Log.Error("ack failed", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
	}
}

func (c *rabbitConsumer) Close() error {
	return c.channel.Close()
}
