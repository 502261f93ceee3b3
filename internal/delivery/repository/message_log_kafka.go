package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaProducer struct {
	writer kafkaWriter
}

// NewKafkaProducer key every record by conversation id, so one conversation maps to one partition
func NewKafkaProducer(w *kafka.Writer) MessageLogProducer {
	return &kafkaProducer{writer: w}
}

func (p *kafkaProducer) Append(ctx context.Context, rec domain.LogRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return errprocess.Wrap(errprocess.KindInternal, err, "marshal log record")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(rec.ConversationID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "client_message_id", Value: []byte(rec.ClientMessageID)},
		},
	})
	return errprocess.Wrap(errprocess.KindTransient, err, "append to kafka")
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumerOptions retry policy for retryable handler errors.
// Retryable errors are retried until they succeed or ctx ends, the offset is never committed past them.
type KafkaConsumerOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type kafkaConsumer struct {
	reader      kafkaReader
	deadLetters DeadLetterRepository
	opts        KafkaConsumerOptions
}

// NewKafkaConsumer create a group consumer. deadLetters may be nil.
func NewKafkaConsumer(r *kafka.Reader, deadLetters DeadLetterRepository, opts KafkaConsumerOptions) MessageLogConsumer {
	return newKafkaConsumer(r, deadLetters, opts)
}

func newKafkaConsumer(r kafkaReader, deadLetters DeadLetterRepository, opts KafkaConsumerOptions) *kafkaConsumer {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 30 * time.Second
	}
	return &kafkaConsumer{reader: r, deadLetters: deadLetters, opts: opts}
}

func (c *kafkaConsumer) Run(ctx context.Context, handler RecordHandler) error {
	logger.Log.Info("kafka consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				logger.Log.Info("kafka consumer stopped")
				return nil
			}
			return errprocess.Wrap(errprocess.KindTransient, err, "fetch from kafka")
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			// shutting down mid-record: leave the offset for redelivery
			logger.Log.Info("kafka consumer stopped", zap.Int64("uncommitted_offset", msg.Offset))
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Error("commit offset failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handle return non-nil only when ctx ended before the record was finished.
// Decode failures and terminal errors are dead-lettered, retryable errors never are.
func (c *kafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler RecordHandler) error {
	letter := domain.DeadLetter{
		Source:    "kafka:" + msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       string(msg.Key),
		Payload:   string(msg.Value),
	}

	var rec domain.LogRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		letter.Reason = "decode: " + err.Error()
		deadLetter(ctx, c.deadLetters, letter)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxInterval = c.opts.MaxInterval
	// 不設上限: transient 錯誤不能進 dead letter
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := handler(ctx, rec)
		if err == nil || !errprocess.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		logger.Log.Warn("record processing failed, retrying",
			zap.Int64("offset", msg.Offset), zap.Int("attempt", attempt), zap.Error(err))
		return err
	}, backoff.WithContext(b, ctx))

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	letter.Reason = err.Error()
	deadLetter(ctx, c.deadLetters, letter)
	return nil
}

func (c *kafkaConsumer) Close() error {
	return c.reader.Close()
}
