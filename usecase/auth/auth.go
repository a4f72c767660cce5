package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/repository"
)

// UseCase turns issued sessions into actors. Credentials are verified
// elsewhere; sessions are only ever issued for a known user id.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

func (uc *UseCase) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, domain.ErrUnknownRole
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Metadata:  map[string]string{"role": string(user.Role)},
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	uc.logger.Info("session issued", zap.String("user_id", userID), zap.String("role", string(user.Role)))
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// CurrentActor resolves the actor behind a session. The user record is read on
// every call so role and category assignment changes apply immediately.
func (uc *UseCase) CurrentActor(ctx context.Context, sessionID string) (domain.Actor, error) {
	if sessionID == "" {
		return nil, domain.ErrUnauthorized
	}
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.WrapError(domain.ErrCodeUnauthorized, "session expired or unknown", err)
		}
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.WrapError(domain.ErrCodeUnauthorized, "session user no longer exists", err)
		}
		return nil, err
	}
	return domain.NewActor(*user)
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().UTC().Add(ttl)
	return session, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}
