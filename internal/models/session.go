package models

import "time"

// AuthContext records how a session was established.
type AuthContext string

const (
	AuthContextPassword       AuthContext = "password"
	AuthContextOAuthGoogle    AuthContext = "oauth-google"
	AuthContextOAuthMicrosoft AuthContext = "oauth-microsoft"
	AuthContextUnknown        AuthContext = "unknown"
)

// Session is one authenticated browser/device context. The client holds an
// opaque token; only its SHA-256 hash is persisted. A session whose
// ExpiresAt is in the past is a tombstone and must be treated as absent.
type Session struct {
	ID             string
	UserID         string
	TokenHash      []byte
	Context        AuthContext
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
