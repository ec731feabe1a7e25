// Package session establishes the per-visitor context once and carries the
// login gate and preloader flags for every later request.
package session

import (
	"context"
	stderrors "errors"
	"time"

	"omerhsa-quotes/internal/common/auth"
	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/metrics"
	"omerhsa-quotes/internal/models"

	"github.com/google/uuid"
)

// Authenticator is implemented by auth.Gate.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*auth.User, error)
}

type Options struct {
	Store             *Store
	Tokens            *auth.TokenIssuer
	Gate              Authenticator
	GateEnabled       bool
	PreloaderDuration time.Duration
	Logger            logger.Logger
}

type Manager struct {
	store       *Store
	tokens      *auth.TokenIssuer
	gate        Authenticator
	gateEnabled bool
	preloader   time.Duration
	logger      logger.Logger
	now         func() time.Time
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		store:       opts.Store,
		tokens:      opts.Tokens,
		gate:        opts.Gate,
		gateEnabled: opts.GateEnabled,
		preloader:   opts.PreloaderDuration,
		logger:      opts.Logger,
		now:         time.Now,
	}
	if m.preloader <= 0 {
		m.preloader = 2500 * time.Millisecond
	}
	if m.logger == nil {
		m.logger = logger.NewNoOpLogger()
	}
	return m
}

// GateEnabled reports whether unauthenticated visitors are refused.
func (m *Manager) GateEnabled() bool {
	return m.gateEnabled
}

// Allowed reports whether sess may use gated routes.
func (m *Manager) Allowed(sess *models.Session) bool {
	return !m.gateEnabled || (sess != nil && sess.Authenticated)
}

// Establish resolves token to its session, creating a new one when the token
// is missing, invalid or points at an expired session. The returned token is
// empty when the caller's token is still valid.
func (m *Manager) Establish(ctx context.Context, token string) (*models.Session, string, error) {
	if token != "" {
		id, err := m.tokens.Parse(token)
		if err == nil {
			sess, err := m.store.Get(ctx, id)
			switch {
			case err == nil:
				sess.Touch(m.now().UTC())
				if err := m.store.Save(ctx, sess); err != nil {
					return nil, "", err
				}
				return sess, "", nil
			case !stderrors.Is(err, ErrNotFound):
				return nil, "", err
			}
		} else {
			m.logger.Debug("discarding session token", map[string]interface{}{"error": err.Error()})
		}
	}

	now := m.now().UTC()
	sess := &models.Session{ID: uuid.NewString(), CreatedAt: now, LastSeen: now}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, "", err
	}
	issued, err := m.tokens.Issue(sess.ID)
	if err != nil {
		return nil, "", errors.NewInternalError(err)
	}
	m.logger.Info("session established", map[string]interface{}{"sessionId": sess.ID})
	return sess, issued, nil
}

// Login authenticates sess against the gate allow list.
func (m *Manager) Login(ctx context.Context, sess *models.Session, email, password string) error {
	user, err := m.gate.Authenticate(ctx, email, password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		m.logger.Warn("login rejected", map[string]interface{}{"sessionId": sess.ID})
		return err
	}

	sess.Authenticated = true
	sess.UserName = user.Name
	sess.UserEmail = user.Email
	sess.Touch(m.now().UTC())
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	m.logger.Info("login accepted", map[string]interface{}{"sessionId": sess.ID, "user": user.Name})
	return nil
}

func (m *Manager) Logout(ctx context.Context, sess *models.Session) error {
	sess.Authenticated = false
	sess.UserName = ""
	sess.UserEmail = ""
	return m.store.Save(ctx, sess)
}

// Preloader tells the client whether to play the intro animation.
type Preloader struct {
	Show       bool `json:"show"`
	DurationMs int  `json:"durationMs"`
}

func (m *Manager) Preloader(sess *models.Session) Preloader {
	if sess.PreloaderSeen {
		return Preloader{}
	}
	return Preloader{Show: true, DurationMs: int(m.preloader.Milliseconds())}
}

// MarkPreloaderSeen records that the intro played. It runs once per session.
func (m *Manager) MarkPreloaderSeen(ctx context.Context, sess *models.Session) error {
	if sess.PreloaderSeen {
		return nil
	}
	sess.PreloaderSeen = true
	return m.store.Save(ctx, sess)
}
