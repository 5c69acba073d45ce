package auth

import (
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues and validates signed bearer tokens. It is immutable
// after construction and safe for concurrent use.
type TokenService struct {
	key      SigningKey
	ttl      time.Duration
	issuer   string
	audience jwt.ClaimStrings
	logger   Logger
}

var (
	_ TokenIssuer    = (*TokenService)(nil)
	_ TokenValidator = (*TokenService)(nil)
)

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithIssuer sets the iss claim on issued tokens and requires it on validation.
func WithIssuer(issuer string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// WithAudience sets the aud claim on issued tokens. Validation requires the
// first value.
func WithAudience(audience ...string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.audience = append(jwt.ClaimStrings(nil), audience...)
	}
}

// WithTokenLogger sets the logger used for validation diagnostics.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		ts.logger = logger
	}
}

// NewTokenService creates a new TokenService. ttl is fixed for every token
// the service issues.
func NewTokenService(key SigningKey, ttl time.Duration, opts ...TokenServiceOption) (*TokenService, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive", errors.CategoryValidation).
			WithMetadata(map[string]any{"ttl": ttl.String()})
	}

	ts := &TokenService{
		key: key,
		ttl: ttl,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	ts.logger = normalizeLogger(ts.logger)

	return ts, nil
}

// NewTokenServiceFromConfig builds a TokenService from the active signing
// key, TTL, issuer and audience in cfg.
func NewTokenServiceFromConfig(cfg Config, opts ...TokenServiceOption) (*TokenService, error) {
	key, err := SigningKeyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	base := []TokenServiceOption{
		WithIssuer(cfg.GetIssuer()),
		WithAudience(cfg.GetAudience()...),
	}

	return NewTokenService(key, cfg.GetTokenTTL(), append(base, opts...)...)
}

// TTL returns the configured token lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue mints a token for subject with iat = now and exp = now + TTL.
func (ts *TokenService) Issue(subject string, role Role, now time.Time) (*Token, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("token subject is required", errors.CategoryBadInput)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
			ID:        uuid.NewString(),
		},
		UserRole: ParseRole(string(role)),
	}

	value, err := ts.SignClaims(claims)
	if err != nil {
		return nil, err
	}

	return &Token{
		Value:     value,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt(),
		ExpiresAt: claims.Expires(),
	}, nil
}

// SignClaims signs claims with the configured key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.key.Method, claims)
	if ts.key.KeyID != "" {
		token.Header["kid"] = ts.key.KeyID
	}

	signed, err := token.SignedString(ts.key.SignKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses tokenString and checks, in order, structure, signature
// and expiry at now.
func (ts *TokenService) Validate(tokenString string, now time.Time) (AuthClaims, error) {
	p := claimsParser{
		methods:  []string{ts.key.Alg()},
		issuer:   ts.issuer,
		audience: ts.audience,
		logger:   ts.logger,
		keyFunc: func(t *jwt.Token) (any, error) {
			return ts.key.VerifyKey, nil
		},
	}

	claims, err := p.parse(tokenString, now)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// claimsParser holds the validation policy shared by every validator in
// this package.
type claimsParser struct {
	methods  []string
	issuer   string
	audience jwt.ClaimStrings
	keyFunc  jwt.Keyfunc
	logger   Logger
}

func (p claimsParser) parse(tokenString string, now time.Time) (*JWTClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods(p.methods),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	}
	if p.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(p.issuer))
	}
	if len(p.audience) > 0 {
		// the primary audience must be present in the token
		parserOptions = append(parserOptions, jwt.WithAudience(p.audience[0]))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc, parserOptions...)
	if err != nil {
		kind := classifyJWTError(err)
		if kind == ErrTokenMalformed && p.signatureFails(tokenString) {
			kind = ErrSignatureMismatch
		}
		if p.logger != nil {
			p.logger.Debug("token validation failed", "reason", kind.TextCode, "error", err)
		}
		return nil, wrapAs(err, kind)
	}

	if !token.Valid || claims.Subject() == "" {
		return nil, ErrTokenClaimsInvalid
	}

	return claims, nil
}

// signatureFails reports whether a token whose payload did not decode
// still carries an allowed header and a signature that does not match its
// content. jwt decodes claims before verifying, so an altered payload can
// surface as malformed.
func (p claimsParser) signatureFails(tokenString string) bool {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}

	enc := base64.RawURLEncoding.Strict()
	headerJSON, err := enc.DecodeString(parts[0])
	if err != nil {
		return false
	}

	header := map[string]any{}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return false
	}

	alg, _ := header["alg"].(string)
	method := jwt.GetSigningMethod(alg)
	if method == nil || !slices.Contains(p.methods, alg) {
		return false
	}

	sig, err := enc.DecodeString(parts[2])
	if err != nil {
		return false
	}

	key, err := p.keyFunc(&jwt.Token{Raw: tokenString, Header: header, Method: method})
	if err != nil {
		return true
	}

	return method.Verify(parts[0]+"."+parts[1], sig, key) != nil
}

// classifyJWTError maps jwt errors onto the validation order: structure,
// signature, expiry, other claims.
func classifyJWTError(err error) *errors.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenClaimsInvalid
	}
}
