package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/internal/api/metrics"
	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

// cookieMaxAge mirrors the session TTL so the gate cookie and the Redis
// session expire together.
const cookieMaxAge = 30 * 24 * time.Hour

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess, person, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		case errors.Is(err, domain.ErrPersonNotFound):
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	setAuthCookie(c, sess.Token)

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Login exitoso",
		Data: loginResponse{
			Persona: toPersonResponse(person),
			Token:   sess.Token,
		},
	})
}

// Register creates an account with its health intake.
//
// @Summary      Register a new account with health intake
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/registro [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	birth, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "fecha_nacimiento must be YYYY-MM-DD")
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:             req.Email,
		Password:          req.Password,
		FullName:          req.FullName,
		Phone:             req.Phone,
		Address:           req.Address,
		BirthDate:         birth,
		Zone:              domain.ZoneType(req.Zone),
		EconomicSituation: domain.EconomicSituation(req.EconomicSituation),
		HealthAccess:      domain.HealthAccess(req.HealthAccess),
		Covid: domain.CovidExperience{
			Diagnosed:           req.Covid.Diagnosed,
			Hospitalized:        req.Covid.Hospitalized,
			RespiratorySequelae: req.Covid.RespiratorySequelae,
			LostEmployment:      req.Covid.LostEmployment,
			None:                req.Covid.None,
		},
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(result.Vulnerability.Level)).Inc()

	return c.JSON(http.StatusCreated, envelope{
		Success: true,
		Message: "Registro exitoso",
		Data: registerResponse{
			Persona:       toPersonResponse(result.Person),
			Vulnerability: toVulnerabilityResponse(result.Vulnerability),
		},
	})
}

// Logout revokes the session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := bearerToken(c); token != "" {
		// Best-effort: the client clears local state regardless.
		_ = h.authService.Logout(c.Request().Context(), token)
	}
	clearAuthCookie(c)

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Sesión cerrada exitosamente",
	})
}

// VerifySession reports whether the presented token is a live session.
//
// @Summary      Verify the current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Router       /auth/verificar-sesion [get]
func (h *AuthHandler) VerifySession(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	if _, err := h.authService.VerifySession(c.Request().Context(), token); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Sesión verificada",
	})
}

// RecoverPassword resets a password from a matching confirmation pair.
//
// @Summary      Recover password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      recoverPasswordRequest  true  "Recovery details"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/recuperar-password [post]
func (h *AuthHandler) RecoverPassword(c echo.Context) error {
	var req recoverPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.RecoverPassword(c.Request().Context(), req.Email, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Contraseña actualizada exitosamente",
	})
}

func toPersonResponse(p *domain.Person) personResponse {
	return personResponse{
		ID:       p.ID,
		Email:    p.Email,
		FullName: p.FullName,
		Phone:    p.Phone,
		Address:  p.Address,
	}
}

func toVulnerabilityResponse(a domain.VulnerabilityAssessment) vulnerabilityResponse {
	return vulnerabilityResponse{
		Level:    string(a.Level),
		Priority: string(a.Priority),
		Factors:  a.RiskFactorCount,
		Reasons:  a.Reasons,
		AgeYears: a.AgeYears,
	}
}

func setAuthCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}
