package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/pkg/session"
)

// Gate applies the shared route-gating policy to page requests before any
// client code runs, using the auth_token cookie mirror. The decision function
// is the same one the client-side session manager uses, so the policy is
// defined exactly once.
//
// Only the cookie's structural validity is checked here; protected API data
// is still guarded by the bearer Auth middleware, so a forged cookie buys
// nothing beyond an empty page shell.
func Gate(g *session.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authenticated := false
			if cookie, err := c.Cookie(session.TokenKey); err == nil && cookie.Value != "" {
				authenticated = true
			}

			decision := g.Decide(c.Request().URL.Path, authenticated)
			if !decision.Allow {
				return c.Redirect(http.StatusFound, decision.RedirectTo)
			}
			return next(c)
		}
	}
}
