package ports

import (
	"context"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// AnalysisRepository defines persistence operations for radiograph analyses.
type AnalysisRepository interface {
	Create(ctx context.Context, a *domain.Analysis) error
	FindByIdempotencyKey(ctx context.Context, personID, key string) (*domain.Analysis, error)
	// ListByPerson returns the person's analyses, newest first.
	ListByPerson(ctx context.Context, personID string) ([]*domain.Analysis, error)
}
