package ports

import (
	"context"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// Prediction is the raw model output for one radiograph.
type Prediction struct {
	Diagnosis     domain.Diagnosis
	Confidence    float64
	Probabilities domain.Probabilities
}

// InferenceClient talks to the external classification model. The model is a
// black box: this interface only sees its envelope.
type InferenceClient interface {
	Classify(ctx context.Context, image []byte, filename string) (*Prediction, error)
	Ping(ctx context.Context) error
}
