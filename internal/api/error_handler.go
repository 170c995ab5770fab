package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. User-facing messages
	// keep the wording of the deployed service.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Credenciales inválidas"
	case errors.Is(err, domain.ErrPersonNotFound):
		return http.StatusNotFound, "Usuario no encontrado, por favor regístrese"
	case errors.Is(err, domain.ErrPersonExists):
		return http.StatusConflict, "El email ya está registrado"
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "invalid or expired session"
	case errors.Is(err, domain.ErrCovidSelectionRequired):
		return http.StatusBadRequest, "Debes seleccionar al menos una experiencia relacionada con COVID-19"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "Las contraseñas no coinciden"
	case errors.Is(err, domain.ErrProfileIncomplete):
		return http.StatusBadRequest, "Perfil de salud incompleto"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "health profile not found"
	case errors.Is(err, domain.ErrAnalysisNotFound):
		return http.StatusNotFound, "analysis not found"
	case errors.Is(err, domain.ErrInferenceUnavailable):
		return http.StatusServiceUnavailable, "Error de conexión con el servicio de análisis"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
