package auth

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the process configuration read from AUTH_* variables.
type EnvConfig struct {
	SigningKey          string        `env:"AUTH_SIGNING_KEY" json:"-"`
	PreviousSigningKeys []string      `env:"AUTH_PREVIOUS_SIGNING_KEYS" envSeparator:"," json:"-"`
	SigningMethod       string        `env:"AUTH_SIGNING_METHOD" envDefault:"HS256" json:"signing_method"`
	PrivateKeyFile      string        `env:"AUTH_PRIVATE_KEY_FILE" json:"private_key_file,omitempty"`
	KeyID               string        `env:"AUTH_KEY_ID" json:"key_id,omitempty"`
	JWKSURLs            []string      `env:"AUTH_JWKS_URLS" envSeparator:"," json:"jwks_urls,omitempty"`
	TokenTTL            time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h" json:"token_ttl"`
	Issuer              string        `env:"AUTH_ISSUER" envDefault:"go-bearer-auth" json:"issuer"`
	Audience            []string      `env:"AUTH_AUDIENCE" envSeparator:"," json:"audience,omitempty"`
	PasswordCost        int           `env:"AUTH_PASSWORD_COST" envDefault:"12" json:"password_cost"`
	HashConcurrency     int           `env:"AUTH_HASH_CONCURRENCY" envDefault:"0" json:"hash_concurrency"`

	HTTPAddr string `env:"AUTH_HTTP_ADDR" envDefault:":8080" json:"http_addr"`
	DBDriver string `env:"AUTH_DB_DRIVER" envDefault:"sqlite" json:"db_driver"`
	DBDSN    string `env:"AUTH_DB_DSN" envDefault:"file:credentials.db?cache=shared" json:"-"`
	Debug    bool   `env:"AUTH_DEBUG" envDefault:"false" json:"debug"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfigFromEnv reads the process environment.
func LoadConfigFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "parse env")
	}
	return cfg, cfg.Validate()
}

// LoadConfig reads configuration from environ instead of the process
// environment.
func LoadConfig(environ map[string]string) (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "parse env")
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that have no usable default.
func (c *EnvConfig) Validate() error {
	method := strings.ToUpper(c.SigningMethod)
	switch {
	case method == "" || strings.HasPrefix(method, "HS"):
		if c.SigningKey == "" {
			return errors.New("AUTH_SIGNING_KEY is required for HMAC signing", errors.CategoryValidation)
		}
	case c.PrivateKeyFile == "":
		return errors.New("AUTH_PRIVATE_KEY_FILE is required for asymmetric signing", errors.CategoryValidation).
			WithMetadata(map[string]any{"method": c.SigningMethod})
	}

	if c.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive", errors.CategoryValidation)
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return errors.New("AUTH_DB_DRIVER must be sqlite or postgres", errors.CategoryValidation).
			WithMetadata(map[string]any{"driver": c.DBDriver})
	}
	return nil
}

// Sanitized returns a copy safe to print.
func (c EnvConfig) Sanitized() EnvConfig {
	if c.SigningKey != "" {
		c.SigningKey = "********"
	}
	c.PreviousSigningKeys = nil
	c.DBDSN = ""
	return c
}

func (c *EnvConfig) GetSigningKey() string            { return c.SigningKey }
func (c *EnvConfig) GetPreviousSigningKeys() []string { return c.PreviousSigningKeys }
func (c *EnvConfig) GetSigningMethod() string         { return c.SigningMethod }
func (c *EnvConfig) GetPrivateKeyFile() string        { return c.PrivateKeyFile }
func (c *EnvConfig) GetKeyID() string                 { return c.KeyID }
func (c *EnvConfig) GetJWKSURLs() []string            { return c.JWKSURLs }
func (c *EnvConfig) GetTokenTTL() time.Duration       { return c.TokenTTL }
func (c *EnvConfig) GetIssuer() string                { return c.Issuer }
func (c *EnvConfig) GetAudience() []string            { return c.Audience }
func (c *EnvConfig) GetPasswordCost() int             { return c.PasswordCost }
func (c *EnvConfig) GetHashConcurrency() int          { return c.HashConcurrency }
