package domain

import "time"

// Diagnosis is the classification produced by the inference model.
type Diagnosis string

const (
	DiagnosisNormal    Diagnosis = "NORMAL"
	DiagnosisPneumonia Diagnosis = "NEUMONIA"
)

// Probabilities carries the per-class model output.
type Probabilities struct {
	Normal    float64 `json:"normal" bson:"normal"`
	Pneumonia float64 `json:"neumonia" bson:"neumonia"`
}

// Analysis is one stored radiograph evaluation in the patient's history.
type Analysis struct {
	ID             string        `json:"id"`
	PersonID       string        `json:"persona_id"`
	ImageURL       string        `json:"imagen_url"`
	Diagnosis      Diagnosis     `json:"diagnostico"`
	Confidence     float64       `json:"confianza"`
	Probabilities  Probabilities `json:"probabilidades"`
	Comments       string        `json:"comentarios,omitempty"`
	IdempotencyKey string        `json:"-"`
	CreatedAt      time.Time     `json:"fecha"`
}
