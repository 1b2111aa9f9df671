package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix      = "session:"
	verificationKeyPrefix = "verify:"
)

// SessionStore keeps live session records (jti -> user id) and pending
// email-verification tokens in Redis. A missing session record means the
// token was revoked or expired.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) PutSession(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionKeyPrefix+tokenID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("SessionStore.PutSession: %w", err)
	}
	return nil
}

// SessionUserID returns the user bound to a live session, or "" when the
// session was revoked or never existed.
func (s *SessionStore) SessionUserID(ctx context.Context, tokenID string) (string, error) {
	userID, err := s.rdb.Get(ctx, sessionKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("SessionStore.SessionUserID: %w", err)
	}
	return userID, nil
}

func (s *SessionStore) RevokeSession(ctx context.Context, tokenID string) error {
	if err := s.rdb.Del(ctx, sessionKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("SessionStore.RevokeSession: %w", err)
	}
	return nil
}

func (s *SessionStore) PutVerificationToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, verificationKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("SessionStore.PutVerificationToken: %w", err)
	}
	return nil
}

// TakeVerificationToken consumes a verification token, returning the user it
// was issued for, or "" when the token is unknown or already used.
func (s *SessionStore) TakeVerificationToken(ctx context.Context, token string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, verificationKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("SessionStore.TakeVerificationToken: %w", err)
	}
	return userID, nil
}
