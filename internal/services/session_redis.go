package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

const (
	redisSessionPrefix = "petjourney:session:"
	redisMaxTxRetries  = 10
)

// RedisSessionStore keeps sessions in Redis so several instances can share them.
// Expiry is delegated to the key TTL; updates use WATCH/MULTI per user key.
type RedisSessionStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
	now func() time.Time
}

// NewRedisSessionStore wraps an existing client
func NewRedisSessionStore(rdb redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func sessionKey(userID string) string {
	return redisSessionPrefix + userID
}

func decodeSession(cmd *redis.StringCmd) (*models.Session, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) encode(userID string, s *models.Session) ([]byte, error) {
	c := s.Clone()
	c.UserID = userID
	c.UpdatedAt = r.now()
	return json.Marshal(c)
}

// Get returns nil, nil when the key is missing or has expired
func (r *RedisSessionStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	s, err := decodeSession(r.rdb.Get(ctx, sessionKey(userID)))
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", userID, err)
	}
	return s, nil
}

// Put writes the session and resets its TTL
func (r *RedisSessionStore) Put(ctx context.Context, userID string, s *models.Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	data, err := r.encode(userID, s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", userID, err)
	}
	return nil
}

// Delete removes the user's session
func (r *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", userID, err)
	}
	return nil
}

// Update retries the optimistic transaction when another writer touched the key first.
// fn may run more than once.
func (r *RedisSessionStore) Update(ctx context.Context, userID string, fn UpdateFunc) error {
	key := sessionKey(userID)

	txf := func(tx *redis.Tx) error {
		cur, err := decodeSession(tx.Get(ctx, key))
		if err != nil {
			return err
		}
		next, write := fn(cur)
		if !write {
			return nil
		}

		var data []byte
		if next != nil {
			if data, err = r.encode(userID, next); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, r.ttl)
			}
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("update session %s: %w", userID, err)
	}
	return ErrSessionConflict
}
