package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

type stubInference struct {
	prediction *ports.Prediction
	err        error
	calls      int
}

func (c *stubInference) Classify(_ context.Context, _ []byte, _ string) (*ports.Prediction, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	pred := *c.prediction
	return &pred, nil
}

func (c *stubInference) Ping(_ context.Context) error { return c.err }

type stubAnalysisRepo struct {
	analyses  []*domain.Analysis
	createErr error
}

func (r *stubAnalysisRepo) Create(_ context.Context, a *domain.Analysis) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *a
	r.analyses = append([]*domain.Analysis{&clone}, r.analyses...)
	return nil
}

func (r *stubAnalysisRepo) FindByIdempotencyKey(_ context.Context, personID, key string) (*domain.Analysis, error) {
	for _, a := range r.analyses {
		if a.PersonID == personID && a.IdempotencyKey == key {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAnalysisNotFound
}

func (r *stubAnalysisRepo) ListByPerson(_ context.Context, personID string) ([]*domain.Analysis, error) {
	var out []*domain.Analysis
	for _, a := range r.analyses {
		if a.PersonID == personID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubDedup struct {
	seen map[string]bool
	err  error
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func (d *stubDedup) IsDuplicate(_ context.Context, personID, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.seen[personID+":"+key], nil
}

func (d *stubDedup) Mark(_ context.Context, personID, key string) error {
	if d.err != nil {
		return d.err
	}
	d.seen[personID+":"+key] = true
	return nil
}

func pneumoniaPrediction() *ports.Prediction {
	return &ports.Prediction{
		Diagnosis:     domain.DiagnosisPneumonia,
		Confidence:    0.93,
		Probabilities: domain.Probabilities{Normal: 0.07, Pneumonia: 0.93},
	}
}

func highRiskProfile(personID string) *domain.HealthProfile {
	return &domain.HealthProfile{
		PersonID:           personID,
		BirthDate:          time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC),
		Zone:               domain.ZoneRural,
		EconomicSituation:  domain.EconomicLimited,
		Covid:              domain.CovidExperience{Hospitalized: true},
		VulnerabilityLevel: domain.LevelHigh,
		CarePriority:       domain.LevelHigh,
	}
}

func TestAnalysisService_Predict(t *testing.T) {
	inf := &stubInference{prediction: pneumoniaPrediction()}
	repo := &stubAnalysisRepo{}
	svc := NewAnalysisService(inf, repo, newStubProfileRepo(), newStubDedup(), zerolog.Nop())

	analysis, err := svc.Predict(context.Background(), []byte("png"), "torax.png")
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if analysis.Diagnosis != domain.DiagnosisPneumonia || analysis.Confidence != 0.93 {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if len(repo.analyses) != 0 {
		t.Fatalf("Predict must not persist anything")
	}
}

func TestAnalysisService_Predict_InferenceDown(t *testing.T) {
	inf := &stubInference{err: domain.ErrInferenceUnavailable}
	svc := NewAnalysisService(inf, &stubAnalysisRepo{}, newStubProfileRepo(), newStubDedup(), zerolog.Nop())

	if _, err := svc.Predict(context.Background(), []byte("png"), "torax.png"); !errors.Is(err, domain.ErrInferenceUnavailable) {
		t.Fatalf("expected ErrInferenceUnavailable, got %v", err)
	}
}

func TestAnalysisService_Submit_StoresAndCombines(t *testing.T) {
	inf := &stubInference{prediction: pneumoniaPrediction()}
	repo := &stubAnalysisRepo{}
	profiles := newStubProfileRepo()
	profiles.profiles["p1"] = highRiskProfile("p1")
	svc := NewAnalysisService(inf, repo, profiles, newStubDedup(), zerolog.Nop())

	res, err := svc.Submit(context.Background(), ports.SubmitAnalysisInput{
		PersonID: "p1",
		Image:    []byte("png"),
		Filename: "torax.png",
		Comments: "tos persistente",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.Analysis.Diagnosis != domain.DiagnosisPneumonia {
		t.Fatalf("unexpected diagnosis: %s", res.Analysis.Diagnosis)
	}
	if !res.Vulnerability.HasProfile || res.Vulnerability.Level != domain.LevelHigh {
		t.Fatalf("unexpected vulnerability context: %+v", res.Vulnerability)
	}
	if !strings.Contains(res.Recommendation, "URGENTE") {
		t.Fatalf("pneumonia in a high-risk patient must urge care: %q", res.Recommendation)
	}
	if len(repo.analyses) != 1 || repo.analyses[0].Comments != "tos persistente" {
		t.Fatalf("analysis not stored: %+v", repo.analyses)
	}
}

func TestAnalysisService_Submit_NoProfileDegrades(t *testing.T) {
	inf := &stubInference{prediction: pneumoniaPrediction()}
	svc := NewAnalysisService(inf, &stubAnalysisRepo{}, newStubProfileRepo(), newStubDedup(), zerolog.Nop())

	res, err := svc.Submit(context.Background(), ports.SubmitAnalysisInput{
		PersonID: "ghost",
		Image:    []byte("png"),
		Filename: "torax.png",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.Vulnerability.HasProfile {
		t.Fatalf("missing profile must not claim HasProfile")
	}
	if res.Vulnerability.Level != domain.LevelMedium {
		t.Fatalf("missing profile must default to MEDIA, got %s", res.Vulnerability.Level)
	}
	if res.Vulnerability.Explanation != "No se encontró perfil de salud registrado para este paciente." {
		t.Fatalf("unexpected explanation: %q", res.Vulnerability.Explanation)
	}
	if strings.Contains(res.Recommendation, "URGENTE") {
		t.Fatalf("a defaulted MEDIA context must not trigger the high-risk wording")
	}
}

func TestAnalysisService_Submit_IdempotentReplay(t *testing.T) {
	inf := &stubInference{prediction: pneumoniaPrediction()}
	repo := &stubAnalysisRepo{}
	svc := NewAnalysisService(inf, repo, newStubProfileRepo(), newStubDedup(), zerolog.Nop())

	in := ports.SubmitAnalysisInput{
		PersonID:       "p1",
		Image:          []byte("png"),
		Filename:       "torax.png",
		IdempotencyKey: "req-123",
	}
	first, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if first.AlreadyExisted {
		t.Fatalf("first submit must not be a replay")
	}

	second, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if !second.AlreadyExisted {
		t.Fatalf("second submit must report a replay")
	}
	if second.Analysis.ID != first.Analysis.ID {
		t.Fatalf("replay must return the stored analysis: %s vs %s", second.Analysis.ID, first.Analysis.ID)
	}
	if inf.calls != 1 {
		t.Fatalf("model must run once, ran %d times", inf.calls)
	}
	if len(repo.analyses) != 1 {
		t.Fatalf("replay must not store a second analysis")
	}
}

func TestAnalysisService_Submit_DedupOutageProcessesAnyway(t *testing.T) {
	inf := &stubInference{prediction: pneumoniaPrediction()}
	repo := &stubAnalysisRepo{}
	dedup := newStubDedup()
	dedup.err = errors.New("redis down")
	svc := NewAnalysisService(inf, repo, newStubProfileRepo(), dedup, zerolog.Nop())

	res, err := svc.Submit(context.Background(), ports.SubmitAnalysisInput{
		PersonID:       "p1",
		Image:          []byte("png"),
		Filename:       "torax.png",
		IdempotencyKey: "req-1",
	})
	if err != nil {
		t.Fatalf("dedup outage must not fail the submit: %v", err)
	}
	if res.AlreadyExisted {
		t.Fatalf("dedup outage must not report a replay")
	}
	if len(repo.analyses) != 1 {
		t.Fatalf("analysis must be stored despite the dedup outage")
	}
}

func TestAnalysisService_History(t *testing.T) {
	repo := &stubAnalysisRepo{}
	svc := NewAnalysisService(&stubInference{prediction: pneumoniaPrediction()}, repo, newStubProfileRepo(), newStubDedup(), zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), ports.SubmitAnalysisInput{
			PersonID: "p1",
			Image:    []byte("png"),
			Filename: "torax.png",
		}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	if _, err := svc.Submit(context.Background(), ports.SubmitAnalysisInput{
		PersonID: "p2",
		Image:    []byte("png"),
		Filename: "torax.png",
	}); err != nil {
		t.Fatalf("submit for second person failed: %v", err)
	}

	history, err := svc.History(context.Background(), "p1")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for _, a := range history {
		if a.PersonID != "p1" {
			t.Fatalf("history leaked another person's analysis: %+v", a)
		}
	}
}

func TestAnalysisService_HealthProfile(t *testing.T) {
	profiles := newStubProfileRepo()
	profiles.profiles["p1"] = highRiskProfile("p1")
	svc := NewAnalysisService(&stubInference{}, &stubAnalysisRepo{}, profiles, newStubDedup(), zerolog.Nop())

	profile, assessment, err := svc.HealthProfile(context.Background(), "p1")
	if err != nil {
		t.Fatalf("HealthProfile returned error: %v", err)
	}
	if profile == nil || assessment == nil {
		t.Fatalf("expected profile and assessment, got %v %v", profile, assessment)
	}
	if assessment.Level != domain.LevelHigh {
		t.Fatalf("expected ALTA, got %s", assessment.Level)
	}

	if _, _, err := svc.HealthProfile(context.Background(), "ghost"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestAnalysisService_HealthProfile_IncompleteIntake(t *testing.T) {
	profiles := newStubProfileRepo()
	profiles.profiles["p1"] = &domain.HealthProfile{
		PersonID:  "p1",
		BirthDate: time.Date(1990, time.May, 5, 0, 0, 0, 0, time.UTC),
		// No zone, income, or COVID selection: the intake never finished.
	}
	svc := NewAnalysisService(&stubInference{}, &stubAnalysisRepo{}, profiles, newStubDedup(), zerolog.Nop())

	profile, assessment, err := svc.HealthProfile(context.Background(), "p1")
	if err != nil {
		t.Fatalf("incomplete intake must not be an error: %v", err)
	}
	if profile == nil {
		t.Fatalf("stored intake must still be returned")
	}
	if assessment != nil {
		t.Fatalf("incomplete intake must yield no assessment, got %+v", assessment)
	}
}
