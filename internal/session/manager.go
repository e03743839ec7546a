// Package session resolves opaque cookie tokens to authenticated sessions
// and owns the session lifecycle: creation at login, sliding extension while
// in active use, idempotent invalidation at logout, bulk invalidation on
// security events.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"classhub/api/internal/ids"
	"classhub/api/internal/models"
	"classhub/api/internal/repository"
	"classhub/api/internal/security"
)

// Store is the persistence surface the manager needs. Implemented by
// repository.SessionRepository.
type Store interface {
	Insert(ctx context.Context, session models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash []byte) (models.Session, error)
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error
	DeleteByTokenHash(ctx context.Context, tokenHash []byte) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Users is the identity lookup surface. Implemented by
// repository.UserRepository.
type Users interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type Manager struct {
	sessions Store
	users    Users
	lifetime time.Duration
	log      zerolog.Logger
}

func NewManager(sessions Store, users Users, lifetime time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: sessions,
		users:    users,
		lifetime: lifetime,
		log:      log,
	}
}

// Result carries a resolved session. A zero Result means the token was
// missing, malformed, expired, or orphaned; callers treat all four the same.
// Fresh means the expiry was just extended and the cookie should be
// reissued.
type Result struct {
	Session *models.Session
	User    *models.User
	Fresh   bool
}

// Validate resolves a cookie token. It never fails for an invalid token;
// only a store error is returned. Expired rows are deleted on detection.
func (m *Manager) Validate(ctx context.Context, token string) (Result, error) {
	if token == "" {
		return Result{}, nil
	}

	hash := security.HashSessionToken(token)
	session, err := m.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Result{}, nil
		}
		return Result{}, err
	}

	now := time.Now()
	if session.Expired(now) {
		if err := m.sessions.DeleteByID(ctx, session.ID); err != nil {
			m.log.Warn().Err(err).Str("session_id", session.ID).Msg("expired session cleanup failed")
		}
		return Result{}, nil
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Orphaned session; the owning user is gone.
			if err := m.sessions.DeleteByID(ctx, session.ID); err != nil {
				m.log.Warn().Err(err).Str("session_id", session.ID).Msg("orphaned session cleanup failed")
			}
			return Result{}, nil
		}
		return Result{}, err
	}

	fresh := false
	if time.Until(session.ExpiresAt) < m.lifetime/2 {
		newExpiry := now.Add(m.lifetime)
		if err := m.sessions.ExtendExpiry(ctx, session.ID, newExpiry); err != nil {
			return Result{}, err
		}
		session.ExpiresAt = newExpiry
		session.LastActivityAt = now
		fresh = true
	}

	return Result{Session: &session, User: &user, Fresh: fresh}, nil
}

// Create opens a new session for the user and returns the plaintext token
// for the cookie. Concurrent creates for one user are independent;
// multi-device sessions are permitted.
func (m *Manager) Create(ctx context.Context, userID string, authContext models.AuthContext) (models.Session, string, error) {
	token, hash, err := security.GenerateSessionToken()
	if err != nil {
		return models.Session{}, "", err
	}

	now := time.Now()
	session := models.Session{
		ID:             ids.New(),
		UserID:         userID,
		TokenHash:      hash,
		Context:        authContext,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(m.lifetime),
	}

	if err := m.sessions.Insert(ctx, session); err != nil {
		return models.Session{}, "", err
	}
	return session, token, nil
}

// Invalidate removes the session behind a token. Unknown or already-removed
// tokens are a silent success; logout must never fail for them.
func (m *Manager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.sessions.DeleteByTokenHash(ctx, security.HashSessionToken(token))
}

// InvalidateAll removes every session owned by the user. Used for security
// events such as a password change or suspension.
func (m *Manager) InvalidateAll(ctx context.Context, userID string) error {
	count, err := m.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		m.log.Info().Str("user_id", userID).Int64("sessions", count).Msg("sessions invalidated")
	}
	return nil
}

// Lifetime is the configured total session lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}
