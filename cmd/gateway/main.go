package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "chat_delivery_service/cmd/gateway/docs" // 引入生成的 Swagger 文档
	"chat_delivery_service/internal/delivery/app"
	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	"chat_delivery_service/internal/delivery/router"
	"chat_delivery_service/pkg/config"
	"chat_delivery_service/pkg/database"
	"chat_delivery_service/pkg/logger"
	testtool "chat_delivery_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.Gateway, config.EnvConfig.GatewayLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.Gateway](config.EnvConfig.Gateway, config.EnvConfig.GatewayYAMLPath)
	logger.Log.SetDebugMode(cfg.Debug)
	testtool.StartPprof(cfg.Pprof)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 建立 PostgreSQL 連線 (messages / mailbox / receipts / presence)
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

	// conversations 走 gorm
	gdb, err := database.NewPGConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}
	conversationRepo := repository.NewConversationRepository(gdb)
	if err := conversationRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("conversation migrate failed", zap.Error(err))
	}

	// 2. 建立 Redis 連線 (presence cache / announce pub/sub)
	redisClient, err := newRedisClient(cfg.Redis)
	if err != nil {
		logger.Log.Fatal("connect redis err", zap.Error(err))
	}
	defer redisClient.Close()

	// ingress 的離線判斷直接讀 postgres, cache 只給 hub 寫入與 snapshot 查詢
	presenceStore := repository.NewPresenceRepository(pool)
	presenceRepo := repository.NewCachedPresenceRepository(
		presenceStore,
		database.NewRedisRepository[domain.PresenceRecord](redisClient),
		cfg.Presence.CacheTTL,
	)

	// 3. durable log producer
	producer, err := newLogProducer(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("message log producer err", zap.String("driver", cfg.LogDriver), zap.Error(err))
	}
	defer producer.Close()

	// 4. MinIO (file messages)
	objects, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.Bucket,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio", zap.String("endpoint", cfg.MinIO.Endpoint), zap.Error(err))
	}

	// 5. 初始化 Repository / UseCases
	messageRepo := repository.NewMessageRepository(pool)
	mailboxRepo := repository.NewMailboxRepository(pool)
	receiptRepo := repository.NewReceiptRepository(pool)

	hub := app.NewHub(presenceRepo)
	ingressUC := app.NewIngressUseCase(conversationRepo, presenceStore, mailboxRepo, producer)
	httpHandler := app.NewGatewayHTTPHandler(
		ingressUC,
		app.NewFileUseCase(objects, messageRepo, ingressUC, cfg.MinIO.PresignExpiry),
		app.NewConversationUseCase(conversationRepo, messageRepo),
		app.NewMailboxUseCase(mailboxRepo),
		app.NewReceiptUseCase(messageRepo, conversationRepo, receiptRepo, hub),
		app.NewPresenceUseCase(hub, presenceRepo, cfg.Presence.AllowUnverifiedBeacon),
	)

	// 6. worker -> gateway announce
	announcer, err := app.NewDeliveryAnnouncer(hub, cfg.Announce.DedupSize)
	if err != nil {
		logger.Log.Fatal("announcer err", zap.Error(err))
	}
	grpcServer, err := startAnnounceReceiver(ctx, cfg.Announce, redisClient, announcer)
	if err != nil {
		logger.Log.Fatal("announce receiver err", zap.String("transport", cfg.Announce.Transport), zap.Error(err))
	}
	if grpcServer != nil {
		defer grpcServer.GracefulStop()
	}

	// 7. 啟動 Fiber
	r := fiber.New()
	if err := os.MkdirAll(config.EnvConfig.GatewayLogPath, 0o755); err != nil {
		log.Fatalf("Failed to create log dir: %v", err)
	}
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.GatewayLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	router.RegisterRoutes(r, app.NewGatewayWebsocketHandler(hub), httpHandler, cfg.Debug)

	go func() {
		<-ctx.Done()
		logger.Log.Info("gateway shutting down")
		hub.Shutdown(context.Background())
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("fiber shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info("gateway listening", zap.String("port", cfg.Port), zap.String("log_driver", cfg.LogDriver), zap.String("announce", cfg.Announce.Transport))
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}

// newRedisClient addr 有值時走單機, 否則讀 .env 的 sentinel
func newRedisClient(c config.RedisConfig) (*redis.Client, error) {
	if c.Addr != "" {
		return database.NewRedisStandaloneClient(c.Addr, c.RedisDB)
	}
	masterName, sentinel := config.GetRedisSetting()
	return database.NewRedisClient(masterName, sentinel, c.RedisDB)
}

func newLogProducer(ctx context.Context, cfg config.Gateway) (repository.MessageLogProducer, error) {
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
		return repository.NewRabbitProducer(database.NewRabbitRepository(ch), cfg.RabbitMQ.Queue), nil
	default:
		w, err := database.NewKafkaWriterWithRetry(ctx, database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			return nil, err
		}
		return repository.NewKafkaProducer(w), nil
	}
}

// startAnnounceReceiver grpc server 或 redis subscriber, grpc 時回傳 server 供關閉
func startAnnounceReceiver(ctx context.Context, c config.AnnounceConfig, redisClient *redis.Client, announcer app.Announcer) (*grpc.Server, error) {
	if c.Transport == "redis" {
		pubsub := repository.NewRedisPubSub(redisClient)
		return nil, pubsub.SubscribeAnnouncements(ctx, c.Channel, announcer.AnnounceDelivered)
	}

	lis, err := net.Listen("tcp", ":"+c.GRPCPort)
	if err != nil {
		return nil, err
	}
	s := grpc.NewServer()
	app.RegisterAnnouncerServer(s, announcer)
	go func() {
		logger.Log.Info("announce grpc listening", zap.String("port", c.GRPCPort))
		if err := s.Serve(lis); err != nil {
			logger.Log.Error("announce grpc stopped", zap.Error(err))
		}
	}()
	return s, nil
}
