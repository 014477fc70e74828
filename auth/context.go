package auth

import "context"

// contextKey is a private type for context keys so they cannot collide with
// keys from other packages.
type contextKey string

const (
	claimsContextKey contextKey = "auth_claims"
	tokenContextKey  contextKey = "auth_token"
)

// NewContextWithClaims returns a child context carrying validated claims and
// the raw bearer token they came from.
func NewContextWithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return context.WithValue(ctx, tokenContextKey, token)
}

// ClaimsFromContext extracts claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// TokenFromContext extracts the raw bearer token stored by the middleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
