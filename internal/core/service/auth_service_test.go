package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

type stubPersonRepo struct {
	persons map[string]*domain.Person // keyed by ID
}

func newStubPersonRepo() *stubPersonRepo {
	return &stubPersonRepo{persons: make(map[string]*domain.Person)}
}

func clonePerson(p *domain.Person) *domain.Person {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (r *stubPersonRepo) Create(_ context.Context, p *domain.Person) (*domain.Person, error) {
	for _, existing := range r.persons {
		if existing.Email == p.Email {
			return nil, domain.ErrPersonExists
		}
	}
	r.persons[p.ID] = clonePerson(p)
	return clonePerson(p), nil
}

func (r *stubPersonRepo) FindByEmail(_ context.Context, email string) (*domain.Person, error) {
	for _, p := range r.persons {
		if p.Email == email {
			return clonePerson(p), nil
		}
	}
	return nil, domain.ErrPersonNotFound
}

func (r *stubPersonRepo) FindByID(_ context.Context, id string) (*domain.Person, error) {
	if p, ok := r.persons[id]; ok {
		return clonePerson(p), nil
	}
	return nil, domain.ErrPersonNotFound
}

func (r *stubPersonRepo) Update(_ context.Context, p *domain.Person) error {
	if _, ok := r.persons[p.ID]; !ok {
		return domain.ErrPersonNotFound
	}
	r.persons[p.ID] = clonePerson(p)
	return nil
}

func (r *stubPersonRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	p, ok := r.persons[id]
	if !ok {
		return domain.ErrPersonNotFound
	}
	p.PasswordHash = passwordHash
	return nil
}

type stubProfileRepo struct {
	profiles  map[string]*domain.HealthProfile
	upsertErr error
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[string]*domain.HealthProfile)}
}

func (r *stubProfileRepo) Upsert(_ context.Context, profile *domain.HealthProfile) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *profile
	r.profiles[profile.PersonID] = &clone
	return nil
}

func (r *stubProfileRepo) FindByPersonID(_ context.Context, personID string) (*domain.HealthProfile, error) {
	if p, ok := r.profiles[personID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrProfileNotFound
}

type stubSessionRepo struct {
	sessions map[string]*domain.Session
	saveErr  error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *stubSessionRepo) Save(_ context.Context, s *domain.Session) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	clone := *s
	r.sessions[s.Token] = &clone
	return nil
}

func (r *stubSessionRepo) Find(_ context.Context, token string) (*domain.Session, error) {
	if s, ok := r.sessions[token]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (r *stubSessionRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.sessions[token]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, token)
	return nil
}

func (r *stubSessionRepo) Extend(_ context.Context, token string, ttl time.Duration) error {
	s, ok := r.sessions[token]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ExpiresAt = s.ExpiresAt.Add(ttl)
	return nil
}

func validRegisterInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:             "maria@example.com",
		Password:          "s3creta!",
		FullName:          "María López",
		BirthDate:         time.Date(1962, time.April, 3, 0, 0, 0, 0, time.UTC),
		Zone:              domain.ZoneRural,
		EconomicSituation: domain.EconomicLimited,
		HealthAccess:      domain.AccessDifficult,
		Covid:             domain.CovidExperience{Diagnosed: true},
	}
}

func newTestAuthService(persons *stubPersonRepo, profiles *stubProfileRepo, sessions *stubSessionRepo) *AuthService {
	return NewAuthService(persons, profiles, sessions, time.Hour, zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	persons := newStubPersonRepo()
	profiles := newStubProfileRepo()
	svc := newTestAuthService(persons, profiles, newStubSessionRepo())
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) }

	res, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Person.PasswordHash == "s3creta!" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(res.Person.PasswordHash), []byte("s3creta!")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !domain.ValidTokenFormat(res.Person.ID) {
		t.Fatalf("person ID must be a UUID, got %q", res.Person.ID)
	}

	// 63 years old, rural, limited income: three factors, top tier.
	if res.Vulnerability.RiskFactorCount != 3 || res.Vulnerability.Level != domain.LevelHigh {
		t.Fatalf("unexpected assessment: %+v", res.Vulnerability)
	}

	stored, err := profiles.FindByPersonID(context.Background(), res.Person.ID)
	if err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
	if stored.VulnerabilityLevel != domain.LevelHigh || stored.CarePriority != domain.LevelHigh {
		t.Fatalf("profile snapshot missing: %+v", stored)
	}
}

func TestAuthService_Register_RequiresCovidSelection(t *testing.T) {
	persons := newStubPersonRepo()
	svc := newTestAuthService(persons, newStubProfileRepo(), newStubSessionRepo())

	in := validRegisterInput()
	in.Covid = domain.CovidExperience{}
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrCovidSelectionRequired) {
		t.Fatalf("expected ErrCovidSelectionRequired, got %v", err)
	}
	if len(persons.persons) != 0 {
		t.Fatalf("account must not be created when the intake is rejected")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), newStubSessionRepo())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), validRegisterInput()); !errors.Is(err, domain.ErrPersonExists) {
		t.Fatalf("expected ErrPersonExists, got %v", err)
	}
}

func TestAuthService_Register_ProfileWriteFailureKeepsAccount(t *testing.T) {
	persons := newStubPersonRepo()
	profiles := newStubProfileRepo()
	profiles.upsertErr = errors.New("mongo down")
	svc := newTestAuthService(persons, profiles, newStubSessionRepo())

	res, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register must tolerate a profile write failure, got %v", err)
	}
	if _, err := persons.FindByID(context.Background(), res.Person.ID); err != nil {
		t.Fatalf("account missing after profile failure: %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	persons := newStubPersonRepo()
	sessions := newStubSessionRepo()
	svc := newTestAuthService(persons, newStubProfileRepo(), sessions)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, person, err := svc.Login(context.Background(), "maria@example.com", "s3creta!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !domain.ValidTokenFormat(session.Token) {
		t.Fatalf("session token must be a UUID, got %q", session.Token)
	}
	if session.PersonID != person.ID {
		t.Fatalf("session bound to wrong person: %s vs %s", session.PersonID, person.ID)
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Fatalf("session must expire after creation: %+v", session)
	}
	if _, ok := sessions.sessions[session.Token]; !ok {
		t.Fatalf("session not persisted")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), newStubSessionRepo())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "maria@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), newStubSessionRepo())

	if _, _, err := svc.Login(context.Background(), "nadie@example.com", "pass"); !errors.Is(err, domain.ErrPersonNotFound) {
		t.Fatalf("expected ErrPersonNotFound, got %v", err)
	}
}

func TestAuthService_VerifySession(t *testing.T) {
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), newStubSessionRepo())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	session, person, err := svc.Login(context.Background(), "maria@example.com", "s3creta!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	got, err := svc.VerifySession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got.ID != person.ID {
		t.Fatalf("verified wrong person: %s vs %s", got.ID, person.ID)
	}
}

func TestAuthService_VerifySession_MalformedToken(t *testing.T) {
	sessions := newStubSessionRepo()
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), sessions)

	// The last value is 36 characters but not a parseable UUID.
	for _, token := range []string{"", "abc", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		if _, err := svc.VerifySession(context.Background(), token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestAuthService_VerifySession_Expired(t *testing.T) {
	sessions := newStubSessionRepo()
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), sessions)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	session, _, err := svc.Login(context.Background(), "maria@example.com", "s3creta!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Minute) }
	if _, err := svc.VerifySession(context.Background(), session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for expired session, got %v", err)
	}
	if _, ok := sessions.sessions[session.Token]; ok {
		t.Fatalf("expired session must be deleted")
	}
}

func TestAuthService_Logout(t *testing.T) {
	sessions := newStubSessionRepo()
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), sessions)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	session, _, err := svc.Login(context.Background(), "maria@example.com", "s3creta!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), session.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := sessions.sessions[session.Token]; ok {
		t.Fatalf("session must be revoked")
	}

	// Revoking again, or with garbage, is harmless.
	if err := svc.Logout(context.Background(), session.Token); err != nil {
		t.Fatalf("repeat logout must succeed: %v", err)
	}
	if err := svc.Logout(context.Background(), "garbage"); err != nil {
		t.Fatalf("logout with malformed token must succeed: %v", err)
	}
}

func TestAuthService_RecoverPassword(t *testing.T) {
	svc := newTestAuthService(newStubPersonRepo(), newStubProfileRepo(), newStubSessionRepo())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.RecoverPassword(context.Background(), "maria@example.com", "nuevaClave1", "distinta"); !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := svc.RecoverPassword(context.Background(), "maria@example.com", "corta", "corta"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for short password, got %v", err)
	}

	if err := svc.RecoverPassword(context.Background(), "maria@example.com", "nuevaClave1", "nuevaClave1"); err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "maria@example.com", "nuevaClave1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "maria@example.com", "s3creta!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}
