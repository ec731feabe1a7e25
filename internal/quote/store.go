package quote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/wizard"

	"github.com/redis/go-redis/v9"
)

// ErrNoDraft is returned when a session has no wizard in progress.
var ErrNoDraft = stderrors.New("no quote draft for session")

// DraftStore keeps wizard drafts and submit locks in redis.
type DraftStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewDraftStore(rdb redis.UniversalClient, ttl time.Duration) *DraftStore {
	return &DraftStore{rdb: rdb, ttl: ttl}
}

func draftKey(sessionID string) string { return draftKeyPrefix + sessionID }

func lockKey(sessionID string) string { return lockKeyPrefix + sessionID }

func (d *DraftStore) Save(ctx context.Context, s wizard.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	if err := d.rdb.Set(ctx, draftKey(s.SessionID), data, d.ttl).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (d *DraftStore) Load(ctx context.Context, sessionID string) (*wizard.State, error) {
	data, err := d.rdb.Get(ctx, draftKey(sessionID)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	var s wizard.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return &s, nil
}

func (d *DraftStore) Delete(ctx context.Context, sessionID string) error {
	if err := d.rdb.Del(ctx, draftKey(sessionID)).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

// Lock marks a submission in flight for sessionID. It reports false when
// another submission already holds the lock.
func (d *DraftStore) Lock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, lockKey(sessionID), "1", ttl).Result()
	if err != nil {
		return false, errors.NewSessionStoreFailedError(err)
	}
	return ok, nil
}

func (d *DraftStore) Unlock(ctx context.Context, sessionID string) error {
	if err := d.rdb.Del(ctx, lockKey(sessionID)).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (d *DraftStore) Locked(ctx context.Context, sessionID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, lockKey(sessionID)).Result()
	if err != nil {
		return false, errors.NewSessionStoreFailedError(err)
	}
	return n > 0, nil
}
