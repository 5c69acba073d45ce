package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-bearer-auth"
)

func TestJWTClaims_Accessors(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ID:        "token-1",
			IssuedAt:  jwt.NewNumericDate(t0),
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
		},
		UserRole: auth.RoleAdmin,
	}

	assert.Equal(t, "alice", claims.Subject())
	assert.Equal(t, "token-1", claims.TokenID())
	assert.Equal(t, auth.RoleAdmin, claims.Role())
	assert.True(t, claims.IssuedAt().Equal(t0))
	assert.True(t, claims.Expires().Equal(t0.Add(time.Hour)))
}

func TestJWTClaims_ZeroTimes(t *testing.T) {
	claims := &auth.JWTClaims{}
	assert.True(t, claims.IssuedAt().IsZero())
	assert.True(t, claims.Expires().IsZero())
	assert.Equal(t, auth.RoleGuest, claims.Role())
}

func TestJWTClaims_HasRole(t *testing.T) {
	claims := &auth.JWTClaims{UserRole: auth.RoleMember}

	assert.True(t, claims.HasRole(auth.RoleMember))
	assert.False(t, claims.HasRole(auth.RoleAdmin))

	unknown := &auth.JWTClaims{UserRole: auth.Role("root")}
	assert.True(t, unknown.HasRole(auth.RoleGuest))
}

func TestJWTClaims_IsAtLeast(t *testing.T) {
	tests := []struct {
		role     auth.Role
		min      auth.Role
		expected bool
	}{
		{role: auth.RoleOwner, min: auth.RoleAdmin, expected: true},
		{role: auth.RoleAdmin, min: auth.RoleAdmin, expected: true},
		{role: auth.RoleMember, min: auth.RoleAdmin, expected: false},
		{role: auth.RoleGuest, min: auth.RoleGuest, expected: true},
		{role: auth.RoleGuest, min: auth.RoleMember, expected: false},
		{role: auth.RoleOwner, min: auth.Role("root"), expected: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+">="+string(tt.min), func(t *testing.T) {
			claims := &auth.JWTClaims{UserRole: tt.role}
			assert.Equal(t, tt.expected, claims.IsAtLeast(tt.min))
		})
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, auth.RoleOwner, auth.ParseRole("owner"))
	assert.Equal(t, auth.RoleGuest, auth.ParseRole(""))
	assert.Equal(t, auth.RoleGuest, auth.ParseRole("OWNER"))
	assert.True(t, auth.RoleMember.IsValid())
	assert.False(t, auth.Role("superuser").IsValid())
}

func TestJWTClaims_OnlyRoleExtension(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	token, err := ts.Issue("alice", auth.RoleMember, t0)
	assert.NoError(t, err)

	mapClaims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token.Value, mapClaims)
	assert.NoError(t, err)

	allowed := map[string]bool{"iss": true, "sub": true, "aud": true, "exp": true, "iat": true, "jti": true, "nbf": true, "role": true}
	for key := range mapClaims {
		assert.True(t, allowed[key], "unexpected claim %q", key)
	}
	assert.Equal(t, "member", mapClaims["role"])
}
