package ports

import (
	"context"
	"time"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// SessionRepository stores login sessions keyed by token. Implementations
// must expire sessions on their own (Redis TTL).
type SessionRepository interface {
	Save(ctx context.Context, s *domain.Session) error
	Find(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	// Extend pushes the expiry of an existing session forward.
	Extend(ctx context.Context, token string, ttl time.Duration) error
}
