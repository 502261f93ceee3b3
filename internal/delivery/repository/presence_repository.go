package repository

import (
	"context"
	"errors"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/database"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// PresenceRepository definition durable presence store
type PresenceRepository interface {
	SetOnline(ctx context.Context, user string) error
	// SetOffline return the recorded last_seen
	SetOffline(ctx context.Context, user string) (time.Time, error)
	// FindMany users with no record are absent from the result
	FindMany(ctx context.Context, users []string) (map[string]domain.PresenceRecord, error)
}

type presenceRepository struct {
	db *pgxpool.Pool
}

// NewPresenceRepository create a postgres PresenceRepository
func NewPresenceRepository(db *pgxpool.Pool) PresenceRepository {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) SetOnline(ctx context.Context, user string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_presence (username, is_online, last_seen, updated_at)
		VALUES ($1, true, now(), now())
		ON CONFLICT (username) DO UPDATE SET is_online = true, updated_at = now()`, user)
	return errprocess.Wrap(errprocess.KindTransient, err, "set online")
}

func (r *presenceRepository) SetOffline(ctx context.Context, user string) (time.Time, error) {
	var lastSeen time.Time
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_presence (username, is_online, last_seen, updated_at)
		VALUES ($1, false, clock_timestamp(), now())
		ON CONFLICT (username) DO UPDATE SET is_online = false, last_seen = clock_timestamp(), updated_at = now()
		RETURNING last_seen`, user).Scan(&lastSeen)
	if err != nil {
		return time.Time{}, errprocess.Wrap(errprocess.KindTransient, err, "set offline")
	}
	return lastSeen, nil
}

func (r *presenceRepository) FindMany(ctx context.Context, users []string) (map[string]domain.PresenceRecord, error) {
	out := make(map[string]domain.PresenceRecord, len(users))
	if len(users) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT username, is_online, last_seen FROM user_presence WHERE username = ANY($1)`, users)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "find presence")
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PresenceRecord
		if err := rows.Scan(&p.Username, &p.IsOnline, &p.LastSeen); err != nil {
			return nil, errprocess.Wrap(errprocess.KindTransient, err, "scan presence")
		}
		out[p.Username] = p
	}
	return out, errprocess.Wrap(errprocess.KindTransient, rows.Err(), "find presence")
}

// cachedPresenceRepository write-through redis snapshot in front of the durable store.
// The snapshot may lag the store, routing decisions read the store directly.
type cachedPresenceRepository struct {
	store PresenceRepository
	cache database.RedisRepository[domain.PresenceRecord]
	ttl   time.Duration
}

// NewCachedPresenceRepository wrap store with a redis cache, cache failures fall back to store
func NewCachedPresenceRepository(store PresenceRepository, cache database.RedisRepository[domain.PresenceRecord], ttl time.Duration) PresenceRepository {
	return &cachedPresenceRepository{store: store, cache: cache, ttl: ttl}
}

func presenceKey(user string) string {
	return "presence:" + user
}

func (r *cachedPresenceRepository) SetOnline(ctx context.Context, user string) error {
	if err := r.store.SetOnline(ctx, user); err != nil {
		r.evict(ctx, user)
		return err
	}
	r.put(ctx, domain.PresenceRecord{Username: user, IsOnline: true, LastSeen: time.Now()})
	return nil
}

func (r *cachedPresenceRepository) SetOffline(ctx context.Context, user string) (time.Time, error) {
	lastSeen, err := r.store.SetOffline(ctx, user)
	if err != nil {
		r.evict(ctx, user)
		return lastSeen, err
	}
	r.put(ctx, domain.PresenceRecord{Username: user, IsOnline: false, LastSeen: lastSeen})
	return lastSeen, nil
}

func (r *cachedPresenceRepository) FindMany(ctx context.Context, users []string) (map[string]domain.PresenceRecord, error) {
	out := make(map[string]domain.PresenceRecord, len(users))
	var misses []string

	for _, u := range users {
		rec, err := r.cache.Get(ctx, presenceKey(u))
		if err == nil {
			out[u] = rec
			continue
		}
		if !errors.Is(err, database.ErrCacheMiss) {
			logger.Log.Warn("presence cache read failed", zap.String("user", u), zap.Error(err))
		}
		misses = append(misses, u)
	}
	if len(misses) == 0 {
		return out, nil
	}

	stored, err := r.store.FindMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	for u, rec := range stored {
		out[u] = rec
		r.backfill(ctx, rec)
	}
	return out, nil
}

// put a failed write leaves the previous snapshot behind, drop it
func (r *cachedPresenceRepository) put(ctx context.Context, rec domain.PresenceRecord) {
	if err := r.cache.Set(ctx, presenceKey(rec.Username), rec, r.ttl); err != nil {
		logger.Log.Warn("presence cache write failed", zap.String("user", rec.Username), zap.Error(err))
		r.evict(ctx, rec.Username)
	}
}

// backfill 只在 key 不存在時寫入, 不覆蓋同時發生的 SetOnline / SetOffline
func (r *cachedPresenceRepository) backfill(ctx context.Context, rec domain.PresenceRecord) {
	if _, err := r.cache.SetNX(ctx, presenceKey(rec.Username), rec, r.ttl); err != nil {
		logger.Log.Warn("presence cache backfill failed", zap.String("user", rec.Username), zap.Error(err))
	}
}

func (r *cachedPresenceRepository) evict(ctx context.Context, user string) {
	if err := r.cache.Del(ctx, presenceKey(user)); err != nil {
		logger.Log.Warn("presence cache evict failed", zap.String("user", user), zap.Error(err))
	}
}
