package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is what a validated token tells the caller about its bearer
type AuthClaims interface {
	Subject() string
	Role() Role
	HasRole(role Role) bool
	IsAtLeast(minRole Role) bool
	TokenID() string
	IssuedAt() time.Time
	Expires() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. Besides the
// registered claims it recognizes exactly one key, "role".
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole Role `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the role claim, RoleGuest when absent or unknown
func (c *JWTClaims) Role() Role {
	return ParseRole(string(c.UserRole))
}

// HasRole checks if the bearer has exactly the given role
func (c *JWTClaims) HasRole(role Role) bool {
	return c.Role() == role
}

// IsAtLeast checks if the bearer's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole Role) bool {
	return c.Role().IsAtLeast(minRole)
}

// TokenID returns the jti claim
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
