package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/internal/api/metrics"
	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxPersonID = "person_id"
	CtxEmail    = "email"
	CtxFullName = "full_name"
)

// Auth validates the bearer session token and injects the account into the
// request context. The token shape is checked before any storage lookup:
// anything that is not a canonical UUID is rejected outright.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.SessionRejectionsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.SessionRejectionsTotal.WithLabelValues("malformed").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			token := parts[1]
			if !domain.ValidTokenFormat(token) {
				metrics.SessionRejectionsTotal.WithLabelValues("malformed").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			person, err := auth.VerifySession(c.Request().Context(), token)
			if err != nil {
				metrics.SessionRejectionsTotal.WithLabelValues("revoked").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set(CtxPersonID, person.ID)
			c.Set(CtxEmail, person.Email)
			c.Set(CtxFullName, person.FullName)

			return next(c)
		}
	}
}
