package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat_delivery_service/internal/delivery/app"
	"chat_delivery_service/internal/delivery/repository"
	"chat_delivery_service/pkg/config"
	"chat_delivery_service/pkg/database"
	"chat_delivery_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.DeliveryWorker, config.EnvConfig.DeliveryWorkerLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.DeliveryWorker](config.EnvConfig.DeliveryWorker, config.EnvConfig.DeliveryWorkerYAMLPath)
	logger.Log.SetDebugMode(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 建立 PostgreSQL 連線
	pgConn := database.Connection{
		ConnectStr:    database.PostgresDSN(cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}
	pool, err := database.NewDatabaseConnection(ctx, pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL after retries", zap.String("host", cfg.PostgreSQL.Host), zap.Error(err))
	}
	defer pool.Close()
	if err := repository.Migrate(ctx, pool); err != nil {
		logger.Log.Fatal("migrate failed", zap.Error(err))
	}

	gdb, err := database.NewPGConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}
	conversationRepo := repository.NewConversationRepository(gdb)
	if err := conversationRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("conversation migrate failed", zap.Error(err))
	}

	// 2. 建立 Mongo 連線 (dead letters)
	uri := database.MongoURI(cfg.MongoDB.User, cfg.MongoDB.Password, cfg.MongoDB.Host, cfg.MongoDB.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoDB.RetryCount,
			RetryInterval: time.Duration(cfg.MongoDB.RetryInterval),
		},
		cfg.MongoDB.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.String("host", cfg.MongoDB.Host), zap.Error(err))
	}
	defer mongo.Close(context.Background())
	deadLetters := repository.NewMongoDeadLetterRepository(mongo.Database)

	// 3. announce transport
	announcer, closeAnnouncer, err := newAnnouncer(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("announcer err", zap.String("transport", cfg.Announce.Transport), zap.Error(err))
	}
	defer closeAnnouncer()

	worker := app.NewDeliveryWorker(repository.NewMessageRepository(pool), conversationRepo, announcer, cfg.Announce.Timeout)

	// 4. log consumer
	consumer, err := newLogConsumer(ctx, cfg, deadLetters)
	if err != nil {
		logger.Log.Fatal("message log consumer err", zap.String("driver", cfg.LogDriver), zap.Error(err))
	}
	defer consumer.Close()

	logger.Log.Info("delivery worker started", zap.String("log_driver", cfg.LogDriver), zap.String("announce", cfg.Announce.Transport))
	if err := consumer.Run(ctx, worker.Process); err != nil {
		logger.Log.Error("consumer stopped with error", zap.Error(err))
	}
	logger.Log.Info("delivery worker stopped")
}

func newAnnouncer(ctx context.Context, cfg config.DeliveryWorker) (app.Announcer, func(), error) {
	if cfg.Announce.Transport == "redis" {
		var (
			client *redis.Client
			err    error
		)
		if cfg.Redis.Addr != "" {
			client, err = database.NewRedisStandaloneClient(cfg.Redis.Addr, cfg.Redis.RedisDB)
		} else {
			masterName, sentinel := config.GetRedisSetting()
			client, err = database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
		}
		if err != nil {
			return nil, nil, err
		}
		publisher := repository.NewRedisAnnouncePublisher(repository.NewRedisPubSub(client), cfg.Announce.Channel)
		return publisher, func() { client.Close() }, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := database.CreateGRPCClient(dialCtx, cfg.Announce.Target)
	if err != nil {
		return nil, nil, err
	}
	return app.NewAnnouncerGRPCClient(conn), func() { conn.Close() }, nil
}

func newLogConsumer(ctx context.Context, cfg config.DeliveryWorker, deadLetters repository.DeadLetterRepository) (repository.MessageLogConsumer, error) {
	switch cfg.LogDriver {
	case "rabbitmq":
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    cfg.RabbitMQ.URL,
			RetryCount:    cfg.RabbitMQ.RetryCount,
			RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
		})
		if err != nil {
			return nil, err
		}
		ch, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
		if err != nil {
			conn.Close()
			return nil, err
		}
		return repository.NewRabbitConsumer(ch, cfg.RabbitMQ.Queue, deadLetters, cfg.RabbitMQ.RequeueDelay), nil
	default:
		reader, err := database.NewKafkaReaderWithRetry(ctx, database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			GroupID:       cfg.Kafka.GroupID,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			return nil, err
		}
		return repository.NewKafkaConsumer(reader, deadLetters, repository.KafkaConsumerOptions{MaxInterval: cfg.Kafka.MaxInterval}), nil
	}
}
