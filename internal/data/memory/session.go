package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"pizza-service/internal/data/entity"

	"github.com/google/uuid"
)

const sessionRetention = 7 * 24 * time.Hour

var errDuplicateToken = errors.New("session token already recorded")

type sessionEntry struct {
	mu      sync.RWMutex
	session entity.Session
}

// SessionRepository is an in-process Token Ledger. Each token has its own
// lock, so a completed Revoke is observed by every later FindByTokenHash.
type SessionRepository struct {
	sessions sync.Map // token hash -> *sessionEntry
	now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{now: time.Now}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	if _, loaded := r.sessions.LoadOrStore(session.TokenHash, &sessionEntry{session: *session}); loaded {
		return errDuplicateToken
	}
	return nil
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	v, ok := r.sessions.Load(tokenHash)
	if !ok {
		return nil, nil
	}

	e := v.(*sessionEntry)
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.session
	return &s, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	v, ok := r.sessions.Load(tokenHash)
	if !ok {
		return false, nil
	}

	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.RevokedAt != nil {
		return false, nil
	}
	now := r.now()
	e.session.RevokedAt = &now
	return true, nil
}

func (r *SessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	live := 0
	r.sessions.Range(func(key, v any) bool {
		e := v.(*sessionEntry)
		e.mu.Lock()
		if e.session.UserID == userID && e.session.RevokedAt == nil {
			now := r.now()
			if e.session.IsValid(now) {
				live++
			}
			e.session.RevokedAt = &now
		}
		e.mu.Unlock()
		return true
	})
	return live, nil
}

func (r *SessionRepository) CleanExpiredSessions(ctx context.Context) error {
	cutoff := r.now().Add(-sessionRetention)
	r.sessions.Range(func(key, v any) bool {
		e := v.(*sessionEntry)
		e.mu.RLock()
		stale := (e.session.ExpiresAt != nil && e.session.ExpiresAt.Before(cutoff)) ||
			(e.session.RevokedAt != nil && e.session.RevokedAt.Before(cutoff))
		e.mu.RUnlock()
		if stale {
			r.sessions.Delete(key)
		}
		return true
	})
	return nil
}
