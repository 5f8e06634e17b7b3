package domain

import "time"

// TokenStrategy selects how credentials are issued and validated.
type TokenStrategy string

const (
	TokenStrategyOpaque TokenStrategy = "opaque"
	TokenStrategyJWT    TokenStrategy = "jwt"
)

// Credential represents an issued bearer credential. Opaque credentials are
// persisted as-is; claim credentials leave ID empty and are never stored.
type Credential struct {
	ID        string
	SubjectID string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential is no longer valid at now.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
