package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login session. The token is an opaque UUID handed
// to the client at login and presented as a bearer credential afterwards.
type Session struct {
	Token     string    `json:"token"`
	PersonID  string    `json:"persona_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidTokenFormat reports whether a presented credential has the required
// shape. Anything that is not a canonical UUID is rejected before any
// storage lookup.
func ValidTokenFormat(token string) bool {
	if len(token) != 36 {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}
