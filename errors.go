package auth

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateUsername  = "auth_duplicate_username"
	TextCodeInvalidUsername    = "auth_invalid_username"
	TextCodeInvalidCreds       = "auth_invalid_credentials"
	TextCodeHashingFailure     = "auth_hashing_failure"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeSignatureMismatch  = "auth_signature_mismatch"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenClaimsInvalid = "auth_token_claims_invalid"
	TextCodeStoreUnavailable   = "auth_store_unavailable"
	TextCodeUnauthorized       = "auth_unauthorized"
)

// ErrDuplicateUsername is returned when a username is already registered.
var ErrDuplicateUsername = errors.New("username already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeConflict)

// ErrInvalidUsername is returned when registration gets an empty username.
var ErrInvalidUsername = errors.New("username must not be empty", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidUsername).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrHashingFailure is returned when a digest cannot be computed or parsed.
var ErrHashingFailure = errors.New("password hashing failed", errors.CategoryInternal).
	WithTextCode(TextCodeHashingFailure).
	WithCode(errors.CodeInternal)

// ErrTokenMalformed is returned when a token cannot be decoded.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrSignatureMismatch is returned when a token signature does not verify.
var ErrSignatureMismatch = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeSignatureMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a correctly signed token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenClaimsInvalid is returned when a correctly signed token carries
// an unexpected issuer or audience, or is missing required claims.
var ErrTokenClaimsInvalid = errors.New("token claims are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenClaimsInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrStoreUnavailable is returned when the credential store fails.
var ErrStoreUnavailable = errors.New("credential store unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrUnauthorized is the single outcome callers see for any rejected token.
var ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// IsErrorKind reports whether err, or any error it wraps, carries the text
// code of kind. Categories are shared between kinds so they are not compared.
func IsErrorKind(err error, kind *errors.Error) bool {
	if err == nil || kind == nil {
		return false
	}

	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if e == error(kind) {
			return true
		}
		if rich, ok := e.(*errors.Error); ok && rich.TextCode == kind.TextCode {
			return true
		}
	}

	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return IsErrorKind(err, ErrTokenExpired)
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	return IsErrorKind(err, ErrTokenMalformed)
}

// IsSignatureError will check for tokens that failed signature verification
func IsSignatureError(err error) bool {
	return IsErrorKind(err, ErrSignatureMismatch)
}

// wrapAs keeps err as the source while presenting the category, message and
// text code of kind.
func wrapAs(err error, kind *errors.Error) *errors.Error {
	return errors.Wrap(err, kind.Category, kind.Message).
		WithTextCode(kind.TextCode).
		WithCode(kind.Code)
}
