package app

import (
	"context"
	"sync"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/database"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// InsertSent moke insert, use .Run to fill the message
func (m *MockMessageRepository) InsertSent(ctx context.Context, msg *domain.Message) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

// MarkDelivered moke mark delivered
func (m *MockMessageRepository) MarkDelivered(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MarkRead moke mark read
func (m *MockMessageRepository) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// FindByID moke find message
func (m *MockMessageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByConversation moke history
func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// AutoMigrate moke migrate
func (m *MockConversationRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// FindByID moke find conversation
func (m *MockConversationRepository) FindByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// Create moke create conversation
func (m *MockConversationRepository) Create(ctx context.Context, req domain.CreateConversation) (*domain.Conversation, bool, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
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

// FindMany moke presence snapshot
func (m *MockPresenceRepository) FindMany(ctx context.Context, users []string) (map[string]domain.PresenceRecord, error) {
	args := m.Called(ctx, users)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]domain.PresenceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailboxRepository Mock MailboxRepository
type MockMailboxRepository struct {
	mock.Mock
}

// Enqueue moke enqueue
func (m *MockMailboxRepository) Enqueue(ctx context.Context, entries []domain.PendingMailboxEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// Drain moke drain
func (m *MockMailboxRepository) Drain(ctx context.Context, recipient string) ([]domain.PendingMailboxEntry, error) {
	args := m.Called(ctx, recipient)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.PendingMailboxEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockReceiptRepository Mock ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

// Insert moke insert receipt
func (m *MockReceiptRepository) Insert(ctx context.Context, r domain.ReadReceipt) (bool, error) {
	args := m.Called(ctx, r)
	return args.Bool(0), args.Error(1)
}

// MockMessageLogProducer Mock MessageLogProducer
type MockMessageLogProducer struct {
	mock.Mock
}

// Append moke append
func (m *MockMessageLogProducer) Append(ctx context.Context, rec domain.LogRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Close moke close
func (m *MockMessageLogProducer) Close() error {
	return nil
}

// MockAnnouncer Mock Announcer
type MockAnnouncer struct {
	mock.Mock
}

// AnnounceDelivered moke announce
func (m *MockAnnouncer) AnnounceDelivered(ctx context.Context, ev domain.AnnounceEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// MockPusher Mock Pusher
type MockPusher struct {
	mock.Mock
}

// Push moke push
func (m *MockPusher) Push(user string, ev domain.Event) error {
	args := m.Called(user, ev)
	return args.Error(0)
}

// MockPresenceHub Mock PresenceHub
type MockPresenceHub struct {
	mock.Mock
}

// Unregister moke unregister
func (m *MockPresenceHub) Unregister(ctx context.Context, user string, conn Conn) bool {
	args := m.Called(ctx, user, conn)
	return args.Bool(0)
}

// Online moke online
func (m *MockPresenceHub) Online(user string) bool {
	args := m.Called(user)
	return args.Bool(0)
}

// MockObjectStore Mock database.MinIOClientRepo
type MockObjectStore struct {
	mock.Mock
}

// StatObject moke stat
func (m *MockObjectStore) StatObject(ctx context.Context, name string) (database.ObjectInfo, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(database.ObjectInfo), args.Error(1)
}

// PresignGetURL moke presign
func (m *MockObjectStore) PresignGetURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, name, expiry)
	return args.String(0), args.Error(1)
}

// fakeConn in-memory Conn
type fakeConn struct {
	id string

	mu        sync.Mutex
	events    []domain.Event
	closed    bool
	closeCode int
	sendErr   error
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) Send(ev domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectionClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
}

func (c *fakeConn) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) Types() []domain.EventType {
	var out []domain.EventType
	for _, ev := range c.Events() {
		out = append(out, ev.Type)
	}
	return out
}

func (c *fakeConn) Closed() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode
}
