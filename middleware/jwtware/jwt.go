package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup       = "header:" + fiber.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	ErrAccessDenied          = errors.New("access denied")
)

// Claims is the minimum the middleware needs from validated claims. It
// mirrors the claims type of the auth package without importing it.
type Claims interface {
	Subject() string
}

// AuthorizeFunc validates a raw bearer token and returns its claims.
type AuthorizeFunc func(ctx context.Context, token string) (Claims, error)

// ValidationListener is invoked after a token has been validated but before authorization checks.
type ValidationListener func(c *fiber.Ctx, claims Claims) error

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	ContextKey     string
	TokenLookup    string
	AuthScheme     string

	// Authorize is required for token validation
	Authorize AuthorizeFunc

	// RoleChecker is an optional function to admit or reject validated claims
	RoleChecker func(Claims) bool

	// ContextEnricher is an optional function to propagate claims to the
	// request's user context.
	ContextEnricher func(c context.Context, claims Claims) context.Context

	ValidationListeners []ValidationListener
}

// New returns a fiber handler that admits requests carrying a valid bearer
// token and stores the claims under ContextKey.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.Authorize(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if err := cfg.runValidationListeners(c, claims); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.RoleChecker != nil && !cfg.RoleChecker(claims) {
			return cfg.ErrorHandler(c, ErrAccessDenied)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return cfg.SuccessHandler(c)
	}
}

// ClaimsFromLocals returns the claims stored by the middleware under key.
func ClaimsFromLocals(c *fiber.Ctx, key string) (Claims, bool) {
	if key == "" {
		key = "user"
	}
	claims, ok := c.Locals(key).(Claims)
	return claims, ok
}

func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	if raw == "" && err == nil {
		err = ErrJWTMissingOrMalformed
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrAccessDenied) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
	}

	if cfg.Authorize == nil {
		panic("AUTH: JWT middleware configuration: Authorize is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(c *fiber.Ctx, claims Claims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(c, claims); err != nil {
			return err
		}
	}
	return nil
}

// GetExtractors parses a lookup such as
// "header:Authorization,cookie:jwt,query:auth_token,param:token".
func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch source {
		case "header":
			extractors = append(extractors, jwtFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(name))
		case "param":
			extractors = append(extractors, jwtFromParam(name))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(name))
		}
	}

	return extractors
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
