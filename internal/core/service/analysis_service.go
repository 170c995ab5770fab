package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, personID, key string) (bool, error)
	Mark(ctx context.Context, personID, key string) error
}

type analysisService struct {
	inference ports.InferenceClient
	analyses  ports.AnalysisRepository
	profiles  ports.ProfileRepository
	dedup     DedupChecker
	now       func() time.Time
	log       zerolog.Logger
}

// NewAnalysisService returns an AnalysisService implementation.
func NewAnalysisService(
	inference ports.InferenceClient,
	analyses ports.AnalysisRepository,
	profiles ports.ProfileRepository,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.AnalysisService {
	return &analysisService{
		inference: inference,
		analyses:  analyses,
		profiles:  profiles,
		dedup:     dedup,
		now:       time.Now,
		log:       log,
	}
}

// Predict runs inference only. Nothing is persisted; this backs the public
// quick-check endpoint available to anonymous visitors.
func (s *analysisService) Predict(ctx context.Context, image []byte, filename string) (*domain.Analysis, error) {
	pred, err := s.inference.Classify(ctx, image, filename)
	if err != nil {
		s.log.Error().Err(err).Msg("inference call failed")
		return nil, err
	}

	return &domain.Analysis{
		Diagnosis:     pred.Diagnosis,
		Confidence:    pred.Confidence,
		Probabilities: pred.Probabilities,
		CreatedAt:     s.now().UTC(),
	}, nil
}

// Submit runs inference for an authenticated patient, combines the diagnosis
// with the stored vulnerability snapshot, and records the result. If an
// idempotency key was already seen, the stored analysis is returned without
// re-running the model.
func (s *analysisService) Submit(ctx context.Context, in ports.SubmitAnalysisInput) (*ports.AnalysisResult, error) {
	if in.IdempotencyKey != "" {
		isDup, err := s.dedup.IsDuplicate(ctx, in.PersonID, in.IdempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Str("person_id", in.PersonID).Msg("dedup check failed, processing anyway")
		} else if isDup {
			existing, err := s.analyses.FindByIdempotencyKey(ctx, in.PersonID, in.IdempotencyKey)
			if err == nil && existing != nil {
				s.log.Info().Str("idempotency_key", in.IdempotencyKey).Msg("idempotent replay")
				vuln := s.vulnerabilityContext(ctx, in.PersonID)
				return &ports.AnalysisResult{
					Analysis:       existing,
					Vulnerability:  vuln,
					Recommendation: recommendation(existing.Diagnosis, vuln),
					AlreadyExisted: true,
				}, nil
			}
		}
	}

	pred, err := s.inference.Classify(ctx, in.Image, in.Filename)
	if err != nil {
		s.log.Error().Err(err).Str("person_id", in.PersonID).Msg("inference call failed")
		return nil, err
	}

	analysis := &domain.Analysis{
		ID:             uuid.NewString(),
		PersonID:       in.PersonID,
		Diagnosis:      pred.Diagnosis,
		Confidence:     pred.Confidence,
		Probabilities:  pred.Probabilities,
		Comments:       in.Comments,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		s.log.Error().Err(err).Str("person_id", in.PersonID).Msg("failed to store analysis")
		return nil, err
	}

	if in.IdempotencyKey != "" {
		if err := s.dedup.Mark(ctx, in.PersonID, in.IdempotencyKey); err != nil {
			s.log.Warn().Err(err).Msg("failed to set dedup key")
		}
	}

	vuln := s.vulnerabilityContext(ctx, in.PersonID)

	s.log.Info().
		Str("person_id", in.PersonID).
		Str("diagnosis", string(analysis.Diagnosis)).
		Float64("confidence", analysis.Confidence).
		Str("vulnerability", string(vuln.Level)).
		Msg("analysis stored")

	return &ports.AnalysisResult{
		Analysis:       analysis,
		Vulnerability:  vuln,
		Recommendation: recommendation(analysis.Diagnosis, vuln),
	}, nil
}

func (s *analysisService) History(ctx context.Context, personID string) ([]*domain.Analysis, error) {
	return s.analyses.ListByPerson(ctx, personID)
}

// HealthProfile returns the stored intake and, when the intake is complete, a
// freshly computed assessment. An incomplete intake yields a nil assessment
// and no error: callers treat that as "no assessment yet".
func (s *analysisService) HealthProfile(ctx context.Context, personID string) (*domain.HealthProfile, *domain.VulnerabilityAssessment, error) {
	profile, err := s.profiles.FindByPersonID(ctx, personID)
	if err != nil {
		return nil, nil, err
	}

	assessment, err := domain.ComputeVulnerability(*profile, s.now().UTC())
	if err != nil {
		return profile, nil, nil
	}
	return profile, &assessment, nil
}

// vulnerabilityContext loads the patient's snapshot. Missing or incomplete
// profiles degrade to a "no profile" context rather than failing the
// analysis: the diagnosis is independent of the vulnerability.
func (s *analysisService) vulnerabilityContext(ctx context.Context, personID string) ports.VulnerabilityContext {
	profile, err := s.profiles.FindByPersonID(ctx, personID)
	if err != nil || profile.VulnerabilityLevel == "" {
		return ports.VulnerabilityContext{
			Level:       domain.LevelMedium,
			Priority:    domain.LevelMedium,
			Explanation: "No se encontró perfil de salud registrado para este paciente.",
		}
	}

	return ports.VulnerabilityContext{
		Level:       profile.VulnerabilityLevel,
		Priority:    profile.CarePriority,
		Explanation: fmt.Sprintf("Paciente con vulnerabilidad %s según perfil de salud registrado.", profile.VulnerabilityLevel),
		HasProfile:  true,
	}
}

// recommendation combines the two independent axes into follow-up guidance.
func recommendation(d domain.Diagnosis, v ports.VulnerabilityContext) string {
	highRisk := v.HasProfile && v.Level == domain.LevelHigh

	switch {
	case d == domain.DiagnosisNormal && highRisk:
		return "La radiografía muestra patrones normales. Dado el perfil de ALTA vulnerabilidad, se recomienda mantener chequeos médicos periódicos y priorizar atención ante síntomas respiratorios."
	case d == domain.DiagnosisNormal:
		return "La radiografía muestra patrones normales. Continuar con chequeos médicos de rutina."
	case highRisk:
		return "NEUMONÍA detectada en paciente de ALTA vulnerabilidad: buscar atención médica URGENTE. Este es un análisis preliminar que requiere confirmación profesional."
	default:
		return "NEUMONÍA detectada: acudir a evaluación médica profesional a la brevedad. Este es un análisis preliminar."
	}
}
