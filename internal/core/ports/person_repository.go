package ports

import (
	"context"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// PersonRepository defines persistence operations for accounts.
type PersonRepository interface {
	Create(ctx context.Context, p *domain.Person) (*domain.Person, error)
	FindByEmail(ctx context.Context, email string) (*domain.Person, error)
	FindByID(ctx context.Context, id string) (*domain.Person, error)
	Update(ctx context.Context, p *domain.Person) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ProfileRepository defines persistence operations for health profiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *domain.HealthProfile) error
	FindByPersonID(ctx context.Context, personID string) (*domain.HealthProfile, error)
}
