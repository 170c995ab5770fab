package ports

import (
	"context"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// SubmitAnalysisInput carries an uploaded radiograph for evaluation.
type SubmitAnalysisInput struct {
	PersonID       string // empty for anonymous quick checks
	Image          []byte
	Filename       string
	Comments       string
	IdempotencyKey string
}

// VulnerabilityContext is the patient-profile side of a combined result. The
// diagnosis and the vulnerability are independent; they are presented
// together but never mixed.
type VulnerabilityContext struct {
	Level       domain.VulnerabilityLevel
	Priority    domain.VulnerabilityLevel
	Explanation string
	HasProfile  bool
}

// AnalysisResult is the combined outcome returned to the caller.
type AnalysisResult struct {
	Analysis       *domain.Analysis
	Vulnerability  VulnerabilityContext
	Recommendation string
	AlreadyExisted bool
}

// AnalysisService evaluates radiographs and manages the analysis history.
type AnalysisService interface {
	// Predict runs inference without persisting anything. Used by the public
	// quick-check endpoint.
	Predict(ctx context.Context, image []byte, filename string) (*domain.Analysis, error)
	// Submit runs inference, combines the diagnosis with the patient's
	// vulnerability profile, and stores the result in the history.
	Submit(ctx context.Context, in SubmitAnalysisInput) (*AnalysisResult, error)
	History(ctx context.Context, personID string) ([]*domain.Analysis, error)
	// HealthProfile returns the stored intake with a freshly computed
	// assessment. ErrProfileIncomplete means "no assessment yet".
	HealthProfile(ctx context.Context, personID string) (*domain.HealthProfile, *domain.VulnerabilityAssessment, error)
}
