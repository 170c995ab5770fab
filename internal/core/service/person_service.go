package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

type personService struct {
	persons ports.PersonRepository
	now     func() time.Time
	log     zerolog.Logger
}

// NewPersonService returns a PersonService implementation.
func NewPersonService(persons ports.PersonRepository, log zerolog.Logger) ports.PersonService {
	return &personService{persons: persons, now: time.Now, log: log}
}

func (s *personService) Profile(ctx context.Context, personID string) (*domain.Person, error) {
	return s.persons.FindByID(ctx, personID)
}

func (s *personService) UpdateProfile(ctx context.Context, personID string, in ports.UpdatePersonInput) (*domain.Person, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, err
	}

	if in.FullName != "" {
		person.FullName = in.FullName
	}
	person.Phone = in.Phone
	person.Address = in.Address
	person.UpdatedAt = s.now().UTC()

	if err := s.persons.Update(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

func (s *personService) ChangePassword(ctx context.Context, personID, current, updated string) error {
	if len(updated) < 8 {
		return domain.ErrInvalidCredentials
	}

	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(person.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(updated), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.persons.UpdatePassword(ctx, personID, string(hash)); err != nil {
		return err
	}

	s.log.Info().Str("person_id", personID).Msg("password changed")
	return nil
}
