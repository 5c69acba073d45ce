package auth

import (
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWKSConfig describes how to verify tokens signed with keys published as a
// JSON Web Key Set, or handed over directly as given keys.
type JWKSConfig struct {
	URLs            []string
	GivenKeys       map[string]SigningKey
	Algorithms      []string
	Issuer          string
	Audience        []string
	RefreshInterval time.Duration
	Logger          Logger
}

// JWKSValidator validates asymmetric tokens by key id. It never issues.
type JWKSValidator struct {
	parser claimsParser
	sets   []*keyfunc.JWKS
}

var _ TokenValidator = (*JWKSValidator)(nil)

// NewJWKSValidator builds a validator from remote key sets, given keys, or
// both. Remote sets are fetched once up front and refreshed in the
// background until Close.
func NewJWKSValidator(cfg JWKSConfig) (*JWKSValidator, error) {
	if len(cfg.URLs) == 0 && len(cfg.GivenKeys) == 0 {
		return nil, errors.New("at least one JWKS URL or given key is required", errors.CategoryValidation)
	}

	logger := normalizeLogger(cfg.Logger)

	algorithms := cfg.Algorithms
	if len(algorithms) == 0 {
		algorithms = []string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodEdDSA.Alg()}
	}

	givenKeys := make(map[string]keyfunc.GivenKey, len(cfg.GivenKeys))
	for kid, key := range cfg.GivenKeys {
		givenKeys[kid] = keyfunc.NewGivenCustom(key.VerifyKey, keyfunc.GivenKeyOptions{
			Algorithm: key.Alg(),
		})
	}

	v := &JWKSValidator{
		parser: claimsParser{
			methods: algorithms,
			issuer:  cfg.Issuer,
			logger:  logger,
		},
	}
	if len(cfg.Audience) > 0 {
		v.parser.audience = append(jwt.ClaimStrings(nil), cfg.Audience...)
	}

	if len(cfg.URLs) == 0 {
		v.parser.keyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
		return v, nil
	}

	// with several sets an unknown kid moves on to the next set instead of
	// forcing a refresh of each one
	refreshUnknown := len(cfg.URLs) == 1
	for _, url := range cfg.URLs {
		jwks, err := keyfunc.Get(url, jwksOptions(givenKeys, cfg.RefreshInterval, refreshUnknown, logger))
		if err != nil {
			v.Close()
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get JWK Set").
				WithMetadata(map[string]any{"url": url})
		}
		v.sets = append(v.sets, jwks)
	}
	v.parser.keyFunc = v.keyFunc

	return v, nil
}

// Validate satisfies the TokenValidator interface.
func (v *JWKSValidator) Validate(tokenString string, now time.Time) (AuthClaims, error) {
	claims, err := v.parser.parse(tokenString, now)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Close stops the background refresh of every remote key set. Keys
// already fetched keep validating.
func (v *JWKSValidator) Close() {
	for _, set := range v.sets {
		set.EndBackground()
	}
}

func (v *JWKSValidator) keyFunc(token *jwt.Token) (any, error) {
	var lastErr error
	for _, set := range v.sets {
		key, err := set.Keyfunc(token)
		if err == nil {
			return key, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func jwksOptions(givenKeys map[string]keyfunc.GivenKey, refresh time.Duration, refreshUnknown bool, logger Logger) keyfunc.Options {
	if refresh <= 0 {
		refresh = time.Hour
	}
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			logger.Warn("failed to do a background refresh of JWK Set", "error", err)
		},
		RefreshInterval:   refresh,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: refreshUnknown,
	}
}
