package app

import (
	"context"
	"sync"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	"chat_delivery_service/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	// CloseSessionReplaced a newer connection took over the user
	CloseSessionReplaced = 4001

	hubShards       = 64
	presenceTimeout = 5 * time.Second
)

// Pusher deliver one event to one connected user
type Pusher interface {
	Push(user string, ev domain.Event) error
}

// hubShard users hashing here share the map lock, never the per-user lock
type hubShard struct {
	mu    sync.RWMutex
	conns map[string]Conn

	lockMu sync.Mutex
	locks  map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// Hub username -> live connection, at most one per user
type Hub struct {
	presence repository.PresenceRepository
	shards   [hubShards]*hubShard
}

// NewHub create Hub
func NewHub(presence repository.PresenceRepository) *Hub {
	h := &Hub{presence: presence}
	for i := range h.shards {
		h.shards[i] = &hubShard{
			conns: make(map[string]Conn),
			locks: make(map[string]*userLock),
		}
	}
	return h
}

func (h *Hub) shard(user string) *hubShard {
	return h.shards[xxhash.Sum64String(user)%hubShards]
}

// lockUser serialise register / unregister of one user
func (h *Hub) lockUser(user string) func() {
	s := h.shard(user)

	s.lockMu.Lock()
	l, ok := s.locks[user]
	if !ok {
		l = &userLock{}
		s.locks[user] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, user)
		}
		s.lockMu.Unlock()
	}
}

// Register bind conn to user, an existing connection is closed with 4001.
// Presence flips online only when the user had no connection before.
func (h *Hub) Register(ctx context.Context, user string, conn Conn) {
	unlock := h.lockUser(user)
	defer unlock()

	s := h.shard(user)
	s.mu.Lock()
	prev := s.conns[user]
	s.conns[user] = conn
	s.mu.Unlock()

	if prev != nil {
		logger.Log.Info("session replaced", zap.String("user", user), zap.String("old_conn", prev.ID()), zap.String("new_conn", conn.ID()))
		prev.Close(CloseSessionReplaced, "session replaced")
	}

	if err := conn.Send(domain.WelcomeEvent(user)); err != nil {
		logger.Log.Debug("welcome not sent", zap.String("user", user), zap.Error(err))
	}

	if prev != nil {
		return
	}

	pctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	if err := h.presence.SetOnline(pctx, user); err != nil {
		logger.Log.Error("set online failed", zap.String("user", user), zap.Error(err))
	}
	h.Broadcast(domain.PresenceEvent(user, true))
}

// Unregister drop the binding if conn is still the current one.
// conn nil forces the user offline and closes whatever connection is live,
// the offline broadcast only goes out when a connection was actually dropped.
// Returns false when conn was already replaced.
func (h *Hub) Unregister(ctx context.Context, user string, conn Conn) bool {
	unlock := h.lockUser(user)
	defer unlock()

	s := h.shard(user)
	s.mu.Lock()
	cur, ok := s.conns[user]
	if conn != nil && (!ok || cur != conn) {
		s.mu.Unlock()
		return false
	}
	if ok {
		delete(s.conns, user)
	}
	s.mu.Unlock()

	if conn == nil && ok {
		cur.Close(websocket.CloseNormalClosure, "reported offline")
	}

	pctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	if _, err := h.presence.SetOffline(pctx, user); err != nil {
		logger.Log.Error("set offline failed", zap.String("user", user), zap.Error(err))
	}
	// 本來就沒有連線: last_seen 照寫, 不重複廣播
	if ok {
		h.Broadcast(domain.PresenceEvent(user, false))
	}
	return true
}

// Push send ev to user on this gateway
func (h *Hub) Push(user string, ev domain.Event) error {
	s := h.shard(user)
	s.mu.RLock()
	conn, ok := s.conns[user]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotConnected
	}
	return conn.Send(ev)
}

// Broadcast send ev to every connected user, failures are per connection
func (h *Hub) Broadcast(ev domain.Event) {
	for _, c := range h.snapshot() {
		if err := c.Send(ev); err != nil {
			logger.Log.Debug("broadcast skipped", zap.String("conn_id", c.ID()), zap.Error(err))
		}
	}
}

// Online user has a live connection on this gateway
func (h *Hub) Online(user string) bool {
	s := h.shard(user)
	s.mu.RLock()
	_, ok := s.conns[user]
	s.mu.RUnlock()
	return ok
}

// Len number of live connections
func (h *Hub) Len() int {
	n := 0
	for _, s := range h.shards {
		s.mu.RLock()
		n += len(s.conns)
		s.mu.RUnlock()
	}
	return n
}

func (h *Hub) snapshot() []Conn {
	var out []Conn
	for _, s := range h.shards {
		s.mu.RLock()
		for _, c := range s.conns {
			out = append(out, c)
		}
		s.mu.RUnlock()
	}
	return out
}

// Shutdown close every connection with 1001 and mark the users offline
func (h *Hub) Shutdown(ctx context.Context) {
	for _, s := range h.shards {
		s.mu.Lock()
		conns := s.conns
		s.conns = make(map[string]Conn)
		s.mu.Unlock()

		for user, c := range conns {
			c.Close(websocket.CloseGoingAway, "server shutting down")

			pctx, cancel := context.WithTimeout(ctx, presenceTimeout)
			if _, err := h.presence.SetOffline(pctx, user); err != nil {
				logger.Log.Error("set offline on shutdown failed", zap.String("user", user), zap.Error(err))
			}
			cancel()
		}
	}
}
