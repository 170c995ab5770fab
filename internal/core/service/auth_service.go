package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// AuthService implements registration, login, and session verification.
type AuthService struct {
	persons    ports.PersonRepository
	profiles   ports.ProfileRepository
	sessions   ports.SessionRepository
	sessionTTL time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

func NewAuthService(
	persons ports.PersonRepository,
	profiles ports.ProfileRepository,
	sessions ports.SessionRepository,
	sessionTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		persons:    persons,
		profiles:   profiles,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// Register creates the account and its health profile. The COVID-experience
// gating rule runs first: a form with no flag set never reaches scoring or
// persistence.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	if in.Email == "" || in.Password == "" || in.FullName == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Covid.HasSelection() {
		return nil, domain.ErrCovidSelectionRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	person := &domain.Person{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Phone:        in.Phone,
		Address:      in.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	profile := &domain.HealthProfile{
		PersonID:          person.ID,
		BirthDate:         in.BirthDate,
		Zone:              in.Zone,
		EconomicSituation: in.EconomicSituation,
		HealthAccess:      in.HealthAccess,
		Covid:             in.Covid,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	assessment, err := domain.ComputeVulnerability(*profile, now)
	if err != nil {
		return nil, err
	}
	profile.VulnerabilityLevel = assessment.Level
	profile.CarePriority = assessment.Priority

	created, err := s.persons.Create(ctx, person)
	if err != nil {
		return nil, err
	}

	// The account is usable even if the profile write fails; the failure is
	// logged and the intake can be resubmitted later.
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.logger.Warn().Err(err).Str("person_id", created.ID).Msg("failed to store health profile")
	}

	s.logger.Info().
		Str("person_id", created.ID).
		Str("vulnerability", string(assessment.Level)).
		Int("risk_factors", assessment.RiskFactorCount).
		Msg("person registered")

	return &ports.RegisterResult{Person: created, Profile: profile, Vulnerability: assessment}, nil
}

// Login validates credentials and opens a UUID-token session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, *domain.Person, error) {
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	person, err := s.persons.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(person.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &domain.Session{
		Token:     uuid.NewString(),
		PersonID:  person.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("person_id", person.ID).Msg("login")
	return session, person, nil
}

// Logout revokes the session. A token that is already gone is not an error:
// the client clears its local state regardless.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if !domain.ValidTokenFormat(token) {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	return nil
}

// VerifySession resolves a bearer token to its account. Malformed tokens are
// rejected without a storage lookup.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*domain.Person, error) {
	if !domain.ValidTokenFormat(token) {
		return nil, domain.ErrInvalidToken
	}

	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.now().UTC().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, domain.ErrSessionNotFound
	}

	return s.persons.FindByID(ctx, session.PersonID)
}

// RecoverPassword sets a new password for the account with the given email.
func (s *AuthService) RecoverPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return domain.ErrPasswordMismatch
	}
	if len(newPassword) < 8 {
		return domain.ErrInvalidCredentials
	}

	person, err := s.persons.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.persons.UpdatePassword(ctx, person.ID, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("person_id", person.ID).Msg("password recovered")
	return nil
}
