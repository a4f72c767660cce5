package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/repository"
)

const sessionPrefix = "citydesk:session:"

type sessionRepository struct {
	client redislib.UniversalClient
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. Entries
// expire in Redis at the session's ExpiresAt.
func NewSessionRepository(client redislib.UniversalClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt session entry", err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.client.SetArgs(ctx, sessionPrefix+session.ID, payload, redislib.SetArgs{
		ExpireAt: session.ExpiresAt,
	}).Err()
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionPrefix+id).Err()
}

// Extend pushes the expiry of both the Redis key and the stored ExpiresAt.
func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}

	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ExpiresAt = time.Now().UTC().Add(duration)

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionPrefix+id, payload, duration).Err()
}
