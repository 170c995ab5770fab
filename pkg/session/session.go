// Package session implements the client-side authentication state machine
// used by Neumonitor front ends: token and profile persistence, login/logout
// event broadcasting, cross-tab change handling, collapse of concurrent 401
// responses into a single cleanup, and the route-gating policy shared with
// the server.
package session

import (
	"context"
	"errors"
)

// Storage keys. The token is mirrored into a cookie so the server-side gate
// can read it before any client code runs.
const (
	TokenKey   = "auth_token"
	ProfileKey = "persona_data"
)

// ErrUnauthorized is returned by Backend calls when the server definitively
// rejected the credential. Any other error is treated as a connectivity
// failure.
var ErrUnauthorized = errors.New("session: unauthorized")

// Profile is the user snapshot cached alongside the token.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"nombre_completo"`
}

// EventType identifies a broadcast auth event.
type EventType string

const (
	EventLogin  EventType = "login"
	EventLogout EventType = "logout"
)

// Event notifies subscribers of an auth state transition.
type Event struct {
	Type EventType
}

// Backend is the remote auth endpoint the manager delegates to.
type Backend interface {
	Login(ctx context.Context, email, password string) (token string, profile Profile, err error)
	// Logout is best-effort; the manager clears local state regardless of
	// the outcome.
	Logout(ctx context.Context, token string) error
	// VerifySession returns nil for a live session, ErrUnauthorized for a
	// rejected one, and any other error for connectivity failures.
	VerifySession(ctx context.Context, token string) error
}

// CookieWriter mirrors the token into the auxiliary cookie consumed by the
// server-side route gate.
type CookieWriter interface {
	SetAuthCookie(token string)
	ClearAuthCookie()
}

// Navigator performs a hard navigation, guaranteeing a clean reload of all
// state that depends on the session.
type Navigator interface {
	Replace(path string)
}

// Result is the uniform outcome of user-facing operations: a success flag and
// an optional message instead of an error that could escape into UI code.
type Result struct {
	Success bool
	Message string
}
