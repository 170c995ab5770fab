package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

const sessionKeyPrefix = "session:"

// SessionRepository stores login sessions in Redis. Expiry is delegated to
// the key TTL so revocation and timeout share one mechanism.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

type sessionDoc struct {
	PersonID  string `json:"persona_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	doc := sessionDoc{
		PersonID:  s.PersonID,
		CreatedAt: s.CreatedAt.Unix(),
		ExpiresAt: s.ExpiresAt.Unix(),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.Token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Find(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	var doc sessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &domain.Session{
		Token:     token,
		PersonID:  doc.PersonID,
		CreatedAt: time.Unix(doc.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(doc.ExpiresAt, 0).UTC(),
	}, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) Extend(ctx context.Context, token string, ttl time.Duration) error {
	ok, err := r.client.Expire(ctx, sessionKeyPrefix+token, ttl).Result()
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}
