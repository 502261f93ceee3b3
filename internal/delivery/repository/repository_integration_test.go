//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/database"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"
	testtool "chat_delivery_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// **測試用的連線**
var (
	pool        *pgxpool.Pool
	gormDB      *gorm.DB
	redisClient *redis.Client
	mongoDB     *mongo.Database
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()

	// **啟動 PostgreSQL**
	postgresContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}

	port, _ := strconv.Atoi(pgPort)
	dsn := database.PostgresDSN("test", "test", pgHost, port, "testdb")
	conn := database.Connection{ConnectStr: dsn, RetryCount: 5, RetryInterval: 2}

	if pool, err = database.NewDatabaseConnection(ctx, conn); err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	if gormDB, err = database.NewPGConnection(conn); err != nil {
		log.Fatalf("❌ Failed to open gorm: %v", err)
	}
	if err := NewConversationRepository(gormDB).AutoMigrate(); err != nil {
		log.Fatalf("❌ AutoMigrate failed: %v", err)
	}

	if redisClient, err = database.NewRedisStandaloneClient(fmt.Sprintf("%s:%s", redisHost, redisPort), 0); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	mport, _ := strconv.Atoi(mongoPort)
	mdb, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    database.MongoURI("", "", mongoHost, mport),
		RetryCount:    5,
		RetryInterval: 2,
	}, "test_delivery")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	mongoDB = mdb.Database

	// **執行測試**
	code := m.Run()

	// **清理測試環境**
	pool.Close()
	_ = redisClient.Close()
	_ = mdb.Close(ctx)
	_ = postgresContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = mongoContainer.Terminate(ctx)

	os.Exit(code)
}

func TestMessageRepository_InsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository(pool)

	m := domain.Message{ClientMessageID: "it-1", ConversationID: 100, Sender: "alice", Content: "hi", Kind: domain.KindText}
	created, err := repo.InsertSent(ctx, &m)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.StatusSent, m.Status)

	require.NoError(t, repo.MarkDelivered(ctx, m.ID))

	again := domain.Message{ClientMessageID: "it-1", ConversationID: 100, Sender: "alice", Content: "hi", Kind: domain.KindText}
	created, err = repo.InsertSent(ctx, &again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, domain.StatusDelivered, again.Status)

	// 狀態不會倒退
	require.NoError(t, repo.MarkRead(ctx, m.ID))
	require.NoError(t, repo.MarkDelivered(ctx, m.ID))
	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, got.Status)

	msgs, err := repo.ListByConversation(ctx, 100, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = repo.FindByID(ctx, 999999)
	assert.Equal(t, errprocess.KindNotFound, errprocess.KindOf(err))
}

func TestMailboxRepository_ConcurrentDrain(t *testing.T) {
	ctx := context.Background()
	repo := NewMailboxRepository(pool)

	var entries []domain.PendingMailboxEntry
	for i := 0; i < 20; i++ {
		entries = append(entries, domain.PendingMailboxEntry{
			Recipient: "dave", Sender: "alice", ConversationID: 200,
			ClientMessageID: fmt.Sprintf("mb-%d", i), Content: fmt.Sprintf("m%d", i),
		})
	}
	require.NoError(t, repo.Enqueue(ctx, entries))
	// 重複 enqueue 被忽略
	require.NoError(t, repo.Enqueue(ctx, entries[:5]))

	var (
		mu    sync.Mutex
		seen  = map[int64]int{}
		total int
		wg    sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.Drain(ctx, "dave")
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			for _, e := range got {
				seen[e.ID]++
				total++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "entry %d drained twice", id)
	}

	left, err := repo.Drain(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReceiptRepository_Unique(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository(pool)

	r := domain.ReadReceipt{MessageID: 300, Reader: "bob", ReadAt: time.Now()}
	created, err := repo.Insert(ctx, r)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Insert(ctx, r)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestPresenceRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	repo := NewPresenceRepository(pool)

	require.NoError(t, repo.SetOnline(ctx, "erin"))
	lastSeen, err := repo.SetOffline(ctx, "frank")
	require.NoError(t, err)

	found, err := repo.FindMany(ctx, []string{"erin", "frank", "nobody"})
	require.NoError(t, err)
	assert.True(t, found["erin"].IsOnline)
	assert.False(t, found["frank"].IsOnline)
	assert.WithinDuration(t, lastSeen, found["frank"].LastSeen, time.Millisecond)
	_, ok := found["nobody"]
	assert.False(t, ok)
}

func TestCachedPresence_Redis(t *testing.T) {
	ctx := context.Background()
	repo := NewCachedPresenceRepository(NewPresenceRepository(pool), database.NewRedisRepository[domain.PresenceRecord](redisClient), time.Minute)

	require.NoError(t, repo.SetOnline(ctx, "gina"))
	found, err := repo.FindMany(ctx, []string{"gina"})
	require.NoError(t, err)
	assert.True(t, found["gina"].IsOnline)
}

func TestConversationRepository_PrivatePairReused(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(gormDB)

	first, created, err := repo.Create(ctx, domain.CreateConversation{Kind: domain.ConversationPrivate, Participants: []string{"henry", "iris"}})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.Create(ctx, domain.CreateConversation{Kind: domain.ConversationPrivate, Participants: []string{"iris", "henry"}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	group, created, err := repo.Create(ctx, domain.CreateConversation{Kind: domain.ConversationGroup, Participants: []string{"henry", "iris"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, group.ID)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"henry", "iris"}, got.Participants)

	_, err = repo.FindByID(ctx, 999999)
	assert.Equal(t, errprocess.KindNotFound, errprocess.KindOf(err))
}

func TestRedisAnnounceRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := NewRedisPubSub(redisClient)
	got := make(chan domain.AnnounceEvent, 1)
	require.NoError(t, pubsub.SubscribeAnnouncements(ctx, "", func(ctx context.Context, ev domain.AnnounceEvent) error {
		got <- ev
		return nil
	}))

	pub := NewRedisAnnouncePublisher(pubsub, "")
	ev := domain.AnnounceEvent{MessageID: 9, Recipient: "bob", Message: domain.Message{ID: 9, Sender: "alice", Content: "hi"}}
	require.NoError(t, pub.AnnounceDelivered(ctx, ev))

	select {
	case recv := <-got:
		assert.Equal(t, ev.MessageID, recv.MessageID)
		assert.Equal(t, "bob", recv.Recipient)
		assert.Equal(t, "hi", recv.Content)
	case <-time.After(3 * time.Second):
		t.Fatal("announce not received")
	}
}

func TestMongoDeadLetterRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoDeadLetterRepository(mongoDB)

	require.NoError(t, repo.Insert(ctx, domain.DeadLetter{Source: "kafka:chat-messages", Offset: 12, Payload: "{}", Reason: "not_found", FailedAt: time.Now()}))

	n, err := mongoDB.Collection(DeadLetterCollection).CountDocuments(ctx, bson.M{"offset": 12})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
