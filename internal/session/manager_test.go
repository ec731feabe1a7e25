package session

import (
	"context"
	"testing"
	"time"

	"omerhsa-quotes/internal/common/auth"
	"omerhsa-quotes/internal/common/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T, gateEnabled bool) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3creto"), bcrypt.MinCost)
	require.NoError(t, err)

	return NewManager(Options{
		Store:       NewStore(rdb, time.Hour),
		Tokens:      auth.NewTokenIssuer("test-secret", "omerhsa-quotes", time.Hour),
		Gate:        auth.NewGate([]auth.User{{Name: "Gerencia", Email: "gerencia@omerhsa.com", PasswordHash: string(hash)}}),
		GateEnabled: gateEnabled,
	}), mr
}

func TestEstablish_CreatesAndReuses(t *testing.T) {
	m, mr := newTestManager(t, false)
	ctx := context.Background()

	sess, token, err := m.Establish(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists("session:"+sess.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))

	again, reissued, err := m.Establish(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, reissued)
	assert.Equal(t, sess.ID, again.ID)
}

func TestEstablish_ReplacesInvalidOrExpired(t *testing.T) {
	m, mr := newTestManager(t, false)
	ctx := context.Background()

	sess, token, err := m.Establish(ctx, "")
	require.NoError(t, err)

	fresh, reissued, err := m.Establish(ctx, "garbage")
	require.NoError(t, err)
	assert.NotEmpty(t, reissued)
	assert.NotEqual(t, sess.ID, fresh.ID)

	mr.FastForward(2 * time.Hour)
	fresh, reissued, err = m.Establish(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, reissued)
	assert.NotEqual(t, sess.ID, fresh.ID)
}

func TestLogin(t *testing.T) {
	m, _ := newTestManager(t, true)
	ctx := context.Background()

	sess, token, err := m.Establish(ctx, "")
	require.NoError(t, err)
	assert.False(t, m.Allowed(sess))

	err = m.Login(ctx, sess, "gerencia@omerhsa.com", "equivocada")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, auth.InvalidCredentialsMessage, stdErr.Message)

	require.NoError(t, m.Login(ctx, sess, "GERENCIA@omerhsa.com", "s3creto"))
	assert.True(t, m.Allowed(sess))

	reloaded, _, err := m.Establish(ctx, token)
	require.NoError(t, err)
	assert.True(t, reloaded.Authenticated)
	assert.Equal(t, "Gerencia", reloaded.UserName)

	require.NoError(t, m.Logout(ctx, reloaded))
	reloaded, _, err = m.Establish(ctx, token)
	require.NoError(t, err)
	assert.False(t, reloaded.Authenticated)
}

func TestAllowed_GateDisabled(t *testing.T) {
	m, _ := newTestManager(t, false)
	sess, _, err := m.Establish(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, m.Allowed(sess))
}

func TestPreloader_OncePerSession(t *testing.T) {
	m, _ := newTestManager(t, false)
	ctx := context.Background()

	sess, token, err := m.Establish(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Preloader{Show: true, DurationMs: 2500}, m.Preloader(sess))

	require.NoError(t, m.MarkPreloaderSeen(ctx, sess))

	reloaded, _, err := m.Establish(ctx, token)
	require.NoError(t, err)
	assert.False(t, m.Preloader(reloaded).Show)
}
