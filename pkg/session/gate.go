package session

import (
	"net/url"
	"strings"
)

// Gate classifies page paths and decides, given the current auth state,
// whether to render or redirect. The same decision function serves the
// client-side manager and the server-side middleware so the policy exists
// exactly once.
type Gate struct {
	authOnly  []string
	protected []string
	loginPath string
	homePath  string
}

// Decision is the outcome of a gate check. When Allow is false, RedirectTo
// carries the target path.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// NewGate builds a Gate from path-prefix configuration. loginPath and
// homePath are the redirect targets for the two rejection cases.
func NewGate(authOnly, protected []string, loginPath, homePath string) *Gate {
	return &Gate{
		authOnly:  authOnly,
		protected: protected,
		loginPath: loginPath,
		homePath:  homePath,
	}
}

// Decide returns the authorization decision for path. Protected paths
// without a session redirect to login, carrying the requested path as a
// return target; auth-only paths with a session redirect home; everything
// else is allowed.
func (g *Gate) Decide(path string, authenticated bool) Decision {
	if !authenticated && hasPrefix(path, g.protected) {
		return Decision{RedirectTo: g.loginPath + "?redirect=" + url.QueryEscape(path)}
	}
	if authenticated && hasPrefix(path, g.authOnly) {
		return Decision{RedirectTo: g.homePath}
	}
	return Decision{Allow: true}
}

// LoginPath returns the configured login page path.
func (g *Gate) LoginPath() string {
	return g.loginPath
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
