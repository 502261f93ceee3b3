package repository

import (
	"context"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// RecordHandler process one log record. A retryable error leaves the record for redelivery.
type RecordHandler func(ctx context.Context, rec domain.LogRecord) error

// MessageLogProducer ingress side of the durable log
type MessageLogProducer interface {
	Append(ctx context.Context, rec domain.LogRecord) error
	Close() error
}

// MessageLogConsumer worker side of the durable log
type MessageLogConsumer interface {
	// Run block until ctx is done or the underlying log is closed
	Run(ctx context.Context, handler RecordHandler) error
	Close() error
}

func deadLetter(ctx context.Context, repo DeadLetterRepository, d domain.DeadLetter) {
	d.FailedAt = time.Now()
	logger.Log.Error("log record abandoned",
		zap.String("source", d.Source),
		zap.Int("partition", d.Partition),
		zap.Int64("offset", d.Offset),
		zap.String("reason", d.Reason),
	)
	if repo == nil {
		return
	}
	// 使用獨立 context, shutdown 時仍寫得進去
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := repo.Insert(dctx, d); err != nil {
		logger.Log.Error("dead letter insert failed", zap.String("payload", d.Payload), zap.Error(err))
	}
}
