package ports

import (
	"context"
	"time"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// RegisterInput carries account data plus the health intake collected by the
// registration form.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Address  string

	BirthDate         time.Time
	Zone              domain.ZoneType
	EconomicSituation domain.EconomicSituation
	HealthAccess      domain.HealthAccess
	Covid             domain.CovidExperience
}

// RegisterResult returns the created account together with the vulnerability
// snapshot computed from the intake.
type RegisterResult struct {
	Person        *domain.Person
	Profile       *domain.HealthProfile
	Vulnerability domain.VulnerabilityAssessment
}

// AuthService implements the account and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	// Login validates credentials and opens a session; the returned token is
	// the bearer credential for all protected calls.
	Login(ctx context.Context, email, password string) (*domain.Session, *domain.Person, error)
	// Logout revokes a session. Unknown tokens are not an error.
	Logout(ctx context.Context, token string) error
	// VerifySession resolves a token to its account, rejecting malformed or
	// expired credentials.
	VerifySession(ctx context.Context, token string) (*domain.Person, error)
	// RecoverPassword resets a password given a matching confirmation pair.
	RecoverPassword(ctx context.Context, email, newPassword, confirmPassword string) error
}
