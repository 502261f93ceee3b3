package repository

import (
	"context"
	"io"
	"sync"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/database"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"
)

// MockDeadLetterRepository Mock DeadLetterRepository
type MockDeadLetterRepository struct {
	mock.Mock
}

// Insert moke insert
func (m *MockDeadLetterRepository) Insert(ctx context.Context, d domain.DeadLetter) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// SetOnline moke set online
func (m *MockPresenceRepository) SetOnline(ctx context.Context, user string) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// SetOffline moke set offline
func (m *MockPresenceRepository) SetOffline(ctx context.Context, user string) (time.Time, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(time.Time), args.Error(1)
}

// FindMany moke find
func (m *MockPresenceRepository) FindMany(ctx context.Context, users []string) (map[string]domain.PresenceRecord, error) {
	args := m.Called(ctx, users)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]domain.PresenceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeCache in-memory database.RedisRepository
type fakeCache struct {
	mu     sync.Mutex
	values map[string]domain.PresenceRecord
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]domain.PresenceRecord{}}
}

func (c *fakeCache) Set(ctx context.Context, key string, value domain.PresenceRecord, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	return nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value domain.PresenceRecord, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return false, c.setErr
	}
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (domain.PresenceRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return domain.PresenceRecord{}, c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return domain.PresenceRecord{}, database.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *fakeCache) GetTTL(ctx context.Context, key string) (int, error) {
	return -1, nil
}

func (c *fakeCache) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

// fakeKafkaReader hands out msgs then io.EOF
type fakeKafkaReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeKafkaReader) Close() error { return nil }

// fakeKafkaWriter capture written messages
type fakeKafkaWriter struct {
	written []kafka.Message
	err     error
}

func (w *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error { return nil }

// fakeAcknowledger record amqp acks
type fakeAcknowledger struct {
	mu    sync.Mutex
	acks  []uint64
	nacks []uint64
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, tag)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

// fakeRabbit database.RabbitRepo capturing publishes
type fakeRabbit struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (r *fakeRabbit) GetRabbit() *amqp.Channel { return nil }

func (r *fakeRabbit) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if r.err != nil {
		return r.err
	}
	r.keys = append(r.keys, key)
	r.published = append(r.published, msg)
	return nil
}

// fakeRabbitChannel rabbitChannel over a plain chan
type fakeRabbitChannel struct {
	deliveries chan amqp.Delivery
	err        error
}

func (c *fakeRabbitChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.deliveries, nil
}

func (c *fakeRabbitChannel) Close() error { return nil }
