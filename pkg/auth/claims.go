// Package auth provides JWT-based authentication for scrumdeck-engine.
// It validates tokens issued by the external auth server using JWKS
// endpoints. Token issuance and password handling live entirely with that
// server; the engine only consumes validated claims.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims represents the JWT claims structure from the auth server.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds the identity attributes the engine cares about: the subject is
// the user id, "su" marks superusers who bypass per-project access checks.
type Claims struct {
	jwt.RegisteredClaims
	Username    string `json:"username,omitempty"`
	FullName    string `json:"name,omitempty"`
	IsSuperuser bool   `json:"su,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// SetClaims stores JWT claims in the context.
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// Identity is the caller identity handed to handlers: who is calling and
// whether they may bypass access control.
type Identity struct {
	UserID      uuid.UUID
	IsSuperuser bool
}

// IdentityFromContext extracts the caller identity from JWT claims in context.
// Returns an error if not authenticated or the subject is not a valid id.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return Identity{}, fmt.Errorf("authentication required: no claims in context")
	}

	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("missing user ID in JWT claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid user ID format: %w", err)
	}

	return Identity{UserID: userID, IsSuperuser: claims.IsSuperuser}, nil
}
