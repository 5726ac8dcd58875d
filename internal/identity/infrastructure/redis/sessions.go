package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

const keyPrefix = "session:"

// SessionStore keeps sessions in Redis so tokens survive restarts and can
// be shared across replicas. Expiry rides on the key TTL.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Put(ctx context.Context, token string, sess domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+token, payload, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	payload, err := s.rdb.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
