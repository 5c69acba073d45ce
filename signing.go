package auth

import (
	"crypto/ed25519"
	"crypto/rsa"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SigningKey pairs a JWT algorithm with the key that signs tokens and the
// key that verifies them. For HMAC both are the same secret.
type SigningKey struct {
	Method    jwt.SigningMethod
	SignKey   any
	VerifyKey any
	KeyID     string
}

// NewHMACKey builds a symmetric signing key. method defaults to HS256. The
// secret must be at least as long as the hash output.
func NewHMACKey(secret []byte, method string) (SigningKey, error) {
	if method == "" {
		method = jwt.SigningMethodHS256.Alg()
	}

	m, ok := jwt.GetSigningMethod(method).(*jwt.SigningMethodHMAC)
	if !ok {
		return SigningKey{}, errors.New("unsupported HMAC signing method", errors.CategoryValidation).
			WithMetadata(map[string]any{"method": method})
	}

	if minLen := m.Hash.Size(); len(secret) < minLen {
		return SigningKey{}, errors.New("signing secret is too short", errors.CategoryValidation).
			WithMetadata(map[string]any{"method": method, "min_bytes": minLen})
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return SigningKey{Method: m, SignKey: key, VerifyKey: key}, nil
}

// NewRSAKey builds an RS256 signing key.
func NewRSAKey(priv *rsa.PrivateKey) SigningKey {
	return SigningKey{
		Method:    jwt.SigningMethodRS256,
		SignKey:   priv,
		VerifyKey: &priv.PublicKey,
	}
}

// NewEdDSAKey builds an Ed25519 signing key.
func NewEdDSAKey(priv ed25519.PrivateKey) SigningKey {
	return SigningKey{
		Method:    jwt.SigningMethodEdDSA,
		SignKey:   priv,
		VerifyKey: priv.Public(),
	}
}

// WithKeyID returns a copy of k that stamps kid into token headers.
func (k SigningKey) WithKeyID(kid string) SigningKey {
	k.KeyID = kid
	return k
}

// Alg returns the JWT algorithm name
func (k SigningKey) Alg() string {
	if k.Method == nil {
		return ""
	}
	return k.Method.Alg()
}

func (k SigningKey) validate() error {
	if k.Method == nil {
		return errors.New("signing method is required", errors.CategoryValidation)
	}
	if k.SignKey == nil || k.VerifyKey == nil {
		return errors.New("signing and verification keys are required", errors.CategoryValidation).
			WithMetadata(map[string]any{"method": k.Alg()})
	}
	return nil
}

// SigningKeyFromPEM parses a PEM encoded private key for RS256 or EdDSA.
func SigningKeyFromPEM(method string, pemBytes []byte) (SigningKey, error) {
	switch strings.ToUpper(method) {
	case jwt.SigningMethodRS256.Alg():
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return SigningKey{}, errors.Wrap(err, errors.CategoryValidation, "failed to parse RSA private key")
		}
		return NewRSAKey(priv), nil
	case strings.ToUpper(jwt.SigningMethodEdDSA.Alg()):
		raw, err := jwt.ParseEdPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return SigningKey{}, errors.Wrap(err, errors.CategoryValidation, "failed to parse Ed25519 private key")
		}
		priv, ok := raw.(ed25519.PrivateKey)
		if !ok {
			return SigningKey{}, errors.New("private key is not Ed25519", errors.CategoryValidation)
		}
		return NewEdDSAKey(priv), nil
	default:
		return SigningKey{}, errors.New("unsupported asymmetric signing method", errors.CategoryValidation).
			WithMetadata(map[string]any{"method": method})
	}
}

// SigningKeyFromConfig resolves the active signing key. HMAC methods use
// the signing secret; RS256 and EdDSA read the private key file.
func SigningKeyFromConfig(cfg Config) (SigningKey, error) {
	method := cfg.GetSigningMethod()

	var (
		key SigningKey
		err error
	)

	if method == "" || strings.HasPrefix(strings.ToUpper(method), "HS") {
		key, err = NewHMACKey([]byte(cfg.GetSigningKey()), strings.ToUpper(method))
	} else {
		path := cfg.GetPrivateKeyFile()
		if path == "" {
			return SigningKey{}, errors.New("private key file is required for asymmetric signing", errors.CategoryValidation).
				WithMetadata(map[string]any{"method": method})
		}

		var pemBytes []byte
		pemBytes, err = os.ReadFile(path)
		if err != nil {
			return SigningKey{}, errors.Wrap(err, errors.CategoryInternal, "failed to read private key file")
		}
		key, err = SigningKeyFromPEM(method, pemBytes)
	}

	if err != nil {
		return SigningKey{}, err
	}

	return key.WithKeyID(cfg.GetKeyID()), nil
}

// previousHMACKeys returns verification keys for secrets retired by rotation.
func previousHMACKeys(cfg Config) ([]SigningKey, error) {
	method := cfg.GetSigningMethod()
	if method != "" && !strings.HasPrefix(strings.ToUpper(method), "HS") {
		return nil, nil
	}

	keys := make([]SigningKey, 0, len(cfg.GetPreviousSigningKeys()))
	for _, secret := range cfg.GetPreviousSigningKeys() {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		key, err := NewHMACKey([]byte(secret), strings.ToUpper(method))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
