package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

var ErrNotFound = stderrors.New("session not found")

// Store keeps visitor sessions in redis. Every save refreshes the ttl.
type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}
