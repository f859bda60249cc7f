// Package auth verifies bearer tokens presented to the MCP endpoint.
// Tokens are RS256 JWTs checked against the JWKS of a whitelisted issuer.
package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims are the token claims the validator cares about.
type Claims struct {
	jwt.RegisteredClaims
	Scope string   `json:"scp,omitempty"`   // space separated OAuth scopes
	Roles []string `json:"roles,omitempty"`
}

// HasScope reports whether scope is one of the granted scopes.
// An empty scope is always granted.
func (c *Claims) HasScope(scope string) bool {
	if scope == "" {
		return true
	}
	return slices.Contains(strings.Fields(c.Scope), scope)
}

// WithClaims returns ctx carrying the verified claims and raw token.
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, TokenKey, token)
}

// GetClaims retrieves JWT claims from the request context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
