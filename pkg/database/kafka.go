package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_delivery_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewKafkaWriterWithRetry 確認 broker 可連線後建立 Writer
// Writer 以 message key 做 hash 分區
func NewKafkaWriterWithRetry(ctx context.Context, k KafkaConnection) (*kafka.Writer, error) {
	var err error
	for attempt := 1; attempt <= max(k.RetryCount, 1); attempt++ {
		if err = pingKafka(ctx, k.Brokers); err == nil {
			logger.Log.Info("kafka writer ready", zap.Strings("brokers", k.Brokers), zap.String("topic", k.Topic))
			return &kafka.Writer{
				Addr:                   kafka.TCP(k.Brokers...),
				Topic:                  k.Topic,
				Balancer:               &kafka.Hash{},
				RequiredAcks:           kafka.RequireAll,
				AllowAutoTopicCreation: true,
			}, nil
		}

		logger.Log.Warn("kafka not reachable, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("kafka writer after %d attempts: %w", k.RetryCount, err)
}

// NewKafkaReaderWithRetry create a consumer group reader, offsets are committed explicitly
func NewKafkaReaderWithRetry(ctx context.Context, k KafkaConnection) (*kafka.Reader, error) {
	if k.GroupID == "" {
		return nil, errors.New("kafka reader needs a group id")
	}

	var err error
	for attempt := 1; attempt <= max(k.RetryCount, 1); attempt++ {
		if err = pingKafka(ctx, k.Brokers); err == nil {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:        k.Brokers,
				GroupID:        k.GroupID,
				Topic:          k.Topic,
				MinBytes:       1,
				MaxBytes:       10e6,
				CommitInterval: 0, // synchronous CommitMessages
				StartOffset:    kafka.FirstOffset,
			}), nil
		}

		logger.Log.Warn("kafka not reachable, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("kafka reader after %d attempts: %w", k.RetryCount, err)
}

func pingKafka(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Brokers()
	return err
}
