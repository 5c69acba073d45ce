package auth

import (
	"context"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// HasMinRole reports whether the claims stored in ctx carry at least minRole.
func HasMinRole(ctx context.Context, minRole Role) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}
	return claims.IsAtLeast(minRole)
}
