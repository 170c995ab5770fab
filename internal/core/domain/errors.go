package domain

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPersonNotFound         = errors.New("person not found")
	ErrPersonExists           = errors.New("email already registered")
	ErrSessionNotFound        = errors.New("session not found")
	ErrInvalidToken           = errors.New("invalid token")
	ErrProfileIncomplete      = errors.New("health profile incomplete")
	ErrProfileNotFound        = errors.New("health profile not found")
	ErrCovidSelectionRequired = errors.New("at least one COVID-19 experience must be selected")
	ErrAnalysisNotFound       = errors.New("analysis not found")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrInferenceUnavailable   = errors.New("inference service unavailable")
)
