package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	SessionCookie     = "session_id"
	sessionPrefix     = "session:"
)

// SessionStore wraps Redis for session management. Keys expire after ttl; with
// sliding enabled every successful lookup pushes the expiry forward.
type SessionStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	sliding bool
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, sliding bool) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{rdb: rdb, ttl: ttl, sliding: sliding}
}

// TTL is the configured session lifetime.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Sliding reports whether lookups extend the session.
func (s *SessionStore) Sliding() bool { return s.sliding }

// Create stores a new session mapping sessionID -> userID.
func (s *SessionStore) Create(ctx context.Context, userID int64) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, sessionPrefix+sid, userID, s.ttl).Err()
	return sid, err
}

// Get returns the userID for a session. ok is false if the session does not
// exist or has expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (userID int64, ok bool, err error) {
	if sessionID == "" {
		return 0, false, nil
	}
	key := sessionPrefix + sessionID
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	if s.sliding {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			return 0, false, err
		}
	}
	return userID, true, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.rdb.Del(ctx, sessionPrefix+sessionID).Err()
}
