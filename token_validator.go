package auth

import (
	"time"

	"github.com/goliatone/go-errors"
)

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string, now time.Time) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string, now time.Time) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string, now time.Time) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString, now)
}

// MultiTokenValidator tries validators in order until one succeeds.
// Only ErrSignatureMismatch moves on to the next validator, so a token
// signed with a rotated key still verifies while malformed or expired
// tokens fail on the first answer.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string, now time.Time) (AuthClaims, error) {
	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Validate(tokenString, now)
		if err == nil {
			return claims, nil
		}
		if IsSignatureError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrSignatureMismatch
}

// NewRotatingValidator validates with the active TokenService first and
// then with verification-only services for each previous key.
func NewRotatingValidator(active *TokenService, previous ...SigningKey) (*MultiTokenValidator, error) {
	if active == nil {
		return nil, errors.New("active token service is required", errors.CategoryValidation)
	}

	validators := []TokenValidator{active}
	for _, key := range previous {
		opts := []TokenServiceOption{
			WithIssuer(active.issuer),
			WithAudience(active.audience...),
			WithTokenLogger(active.logger),
		}
		ts, err := NewTokenService(key, active.ttl, opts...)
		if err != nil {
			return nil, err
		}
		validators = append(validators, ts)
	}
	return NewMultiTokenValidator(validators...), nil
}
