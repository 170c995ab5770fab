package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/internal/api/middleware"
)

// ctxPersonID extracts the account id injected by the Auth middleware and
// fast-fails when it is absent: presence proves the middleware ran.
func ctxPersonID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.CtxPersonID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bearerToken returns the raw bearer credential, or "" when absent or
// malformed.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
