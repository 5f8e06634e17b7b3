package auth

import (
	"context"
	"time"

	"github.com/devhub/devhub-api/internal/domain"
)

// TokenValidator reports whether a bearer token currently grants access.
// Implementations fail closed: any internal error yields false.
type TokenValidator interface {
	Validate(ctx context.Context, token string) bool
}

// CredentialStore issues and validates bearer credentials. A zero ttl selects
// the store's default lifetime.
type CredentialStore interface {
	TokenValidator
	Issue(ctx context.Context, subjectID string, ttl time.Duration) (*domain.Credential, error)
}

// Revoker is implemented by stores that can invalidate a credential before it
// expires. Claim tokens are self-contained and deliberately do not implement it.
type Revoker interface {
	// Revoke reports whether a credential was actually removed. Store errors
	// also yield false, so callers cannot tell "unknown token" from a failure.
	Revoke(ctx context.Context, token string) bool
}

// Sweeper is implemented by stores holding server-side state that expires.
type Sweeper interface {
	SweepExpired(ctx context.Context) int64
}
