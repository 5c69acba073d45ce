package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-bearer-auth/middleware/jwtware"
)

// Authenticator is the surface the HTTP transport drives. *Service
// implements it.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*Token, error)
	Authorize(ctx context.Context, tokenText string) (AuthClaims, error)
}

var _ Authenticator = (*Service)(nil)

type HTTPControllerRoutes struct {
	Register  string
	Login     string
	Protected string
}

type HTTPController struct {
	Debug       bool
	Logger      Logger
	Auth        Authenticator
	Routes      *HTTPControllerRoutes
	ContextKey  string
	TokenLookup string
}

type HTTPControllerOption func(*HTTPController) *HTTPController

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = logger
		return c
	}
}

// WithControllerDebug dumps sanitized payloads at debug level
func WithControllerDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

// WithTokenLookup overrides where the protected route reads tokens from,
// e.g. "header:Authorization,cookie:jwt".
func WithTokenLookup(lookup string) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.TokenLookup = lookup
		return c
	}
}

func NewHTTPController(auth Authenticator, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Auth:       auth,
		ContextKey: "user",
		Routes: &HTTPControllerRoutes{
			Register:  "/register",
			Login:     "/login",
			Protected: "/protected",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	c.Logger = normalizeLogger(c.Logger)

	return c
}

// RegisterRoutes mounts the auth routes on r, typically app.Group("/api/auth").
func (a *HTTPController) RegisterRoutes(r fiber.Router) {
	r.Post(a.Routes.Register, a.RegisterPost).Name("auth.register")
	r.Post(a.Routes.Login, a.LoginPost).Name("auth.login")
	r.Get(a.Routes.Protected, a.ProtectedRoute(), a.ProtectedGet).Name("auth.protected")
}

// ProtectedRoute returns middleware that admits valid bearer tokens only.
func (a *HTTPController) ProtectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		ContextKey:  a.ContextKey,
		TokenLookup: a.TokenLookup,
		Authorize: func(ctx context.Context, token string) (jwtware.Claims, error) {
			claims, err := a.Auth.Authorize(ctx, token)
			if err != nil {
				return nil, err
			}
			return claims, nil
		},
		ContextEnricher: func(ctx context.Context, claims jwtware.Claims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		},
	})
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload. The password cap is the hasher input
// limit, not a strength rule.
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Password, validation.Required, passwordFitsHasher),
	)
}

// passwordFitsHasher caps the password at the bytes bcrypt accepts.
var passwordFitsHasher = validation.By(func(value any) error {
	if s, _ := value.(string); len(s) > MaxPasswordLength {
		return errors.New("must be no more than 72 bytes", errors.CategoryBadInput).
			WithMetadata(map[string]any{"max_bytes": MaxPasswordLength})
	}
	return nil
})

// LoginPayload is the login request body
type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *HTTPController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Warn("register parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request payload"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	a.debugPayload("register", payload.Username)

	if err := a.Auth.Register(c.UserContext(), payload.Username, payload.Password); err != nil {
		switch {
		case IsErrorKind(err, ErrDuplicateUsername):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Username already exists"})
		case IsErrorKind(err, ErrInvalidUsername):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid username"})
		default:
			a.Logger.Error("register failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered successfully!"})
}

func (a *HTTPController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Warn("login parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request payload"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	a.debugPayload("login", payload.Username)

	token, err := a.Auth.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		if IsErrorKind(err, ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid username or password"})
		}
		a.Logger.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.JSON(fiber.Map{
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
	})
}

func (a *HTTPController) ProtectedGet(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromLocals(c, a.ContextKey)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	return c.JSON(fiber.Map{
		"message": "You have accessed a protected route!",
		"subject": claims.Subject(),
	})
}

func (a *HTTPController) debugPayload(action, username string) {
	if !a.Debug {
		return
	}
	a.Logger.Debug("auth payload", "action", action, "payload", print.MaybePrettyJSON(map[string]any{
		"username": username,
		"password": "********",
	}))
}

// FormatValidationErrorToMap flattens ozzo validation errors into
// field -> message.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
