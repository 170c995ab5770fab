package ports

import (
	"context"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// UpdatePersonInput carries the editable account fields.
type UpdatePersonInput struct {
	FullName string
	Phone    string
	Address  string
}

// PersonService manages the account profile.
type PersonService interface {
	Profile(ctx context.Context, personID string) (*domain.Person, error)
	UpdateProfile(ctx context.Context, personID string, in UpdatePersonInput) (*domain.Person, error)
	ChangePassword(ctx context.Context, personID, current, updated string) error
}
