package auth

import (
	"context"
	"time"
)

// Logger is the logging surface used across the package. Args are
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetPreviousSigningKeys() []string
	GetSigningMethod() string
	GetPrivateKeyFile() string
	GetKeyID() string
	GetJWKSURLs() []string
	GetTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetPasswordCost() int
	GetHashConcurrency() int
}

// PasswordHasher produces salted one-way digests and verifies plaintext
// against them.
type PasswordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(plaintext string, digest []byte) (bool, error)
}

// CredentialStore is the durable mapping from username to credential
// record. Create must be atomic for concurrent creates of one username.
type CredentialStore interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, bool, error)
}

// TokenIssuer mints signed, time bounded bearer tokens.
type TokenIssuer interface {
	Issue(subject string, role Role, now time.Time) (*Token, error)
}
