package jwtware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-bearer-auth/middleware/jwtware"
)

type testClaims struct {
	subject string
	admin   bool
}

func (c testClaims) Subject() string { return c.subject }

type ctxKey struct{}

var errBadToken = errors.New("bad token")

func authorizeStub(valid map[string]testClaims) jwtware.AuthorizeFunc {
	return func(ctx context.Context, token string) (jwtware.Claims, error) {
		claims, ok := valid[token]
		if !ok {
			return nil, errBadToken
		}
		return claims, nil
	}
}

func newApp(cfg jwtware.Config, routePath string) *fiber.App {
	app := fiber.New()
	app.Get(routePath, jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims, ok := jwtware.ClaimsFromLocals(c, cfg.ContextKey)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		if v, ok := c.UserContext().Value(ctxKey{}).(string); ok {
			return c.SendString(claims.Subject() + ":" + v)
		}
		return c.SendString(claims.Subject())
	})
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	app := newApp(jwtware.Config{
		Authorize: authorizeStub(map[string]testClaims{"good": {subject: "alice"}}),
	}, "/")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	status, body := do(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusOK, status)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	status, body = do(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Unauthorized")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearergood")
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestJWTWare_TokenLookupSources(t *testing.T) {
	valid := map[string]testClaims{"good": {subject: "alice"}}

	tests := []struct {
		name   string
		lookup string
		route  string
		build  func() *http.Request
	}{
		{
			name:   "query",
			lookup: "query:auth_token",
			route:  "/",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?auth_token=good", nil)
			},
		},
		{
			name:   "cookie",
			lookup: "cookie:jwt",
			route:  "/",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.AddCookie(&http.Cookie{Name: "jwt", Value: "good"})
				return req
			},
		},
		{
			name:   "param",
			lookup: "param:token",
			route:  "/t/:token",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/t/good", nil)
			},
		},
		{
			name:   "fallback to second source",
			lookup: "header:Authorization,query:auth_token",
			route:  "/",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?auth_token=good", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(jwtware.Config{
				Authorize:   authorizeStub(valid),
				TokenLookup: tt.lookup,
			}, tt.route)

			status, body := do(t, app, tt.build())
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "alice", body)
		})
	}
}

func TestJWTWare_RoleCheckerAndErrorHandler(t *testing.T) {
	var handled error
	app := newApp(jwtware.Config{
		Authorize: authorizeStub(map[string]testClaims{
			"admin": {subject: "root", admin: true},
			"user":  {subject: "alice"},
		}),
		RoleChecker: func(c jwtware.Claims) bool {
			tc, ok := c.(testClaims)
			return ok && tc.admin
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			handled = err
			return c.SendStatus(fiber.StatusForbidden)
		},
	}, "/")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin")
	status, body := do(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "root", body)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user")
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusForbidden, status)
	assert.ErrorIs(t, handled, jwtware.ErrAccessDenied)
}

func TestJWTWare_ContextEnricherAndListeners(t *testing.T) {
	var seen []string
	app := newApp(jwtware.Config{
		Authorize:  authorizeStub(map[string]testClaims{"good": {subject: "alice"}}),
		ContextKey: "claims",
		ContextEnricher: func(ctx context.Context, claims jwtware.Claims) context.Context {
			return context.WithValue(ctx, ctxKey{}, "enriched")
		},
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(c *fiber.Ctx, claims jwtware.Claims) error {
				seen = append(seen, claims.Subject())
				return nil
			},
		},
	}, "/")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	status, body := do(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice:enriched", body)
	assert.Equal(t, []string{"alice"}, seen)
}

func TestJWTWare_ListenerErrorRejects(t *testing.T) {
	app := newApp(jwtware.Config{
		Authorize: authorizeStub(map[string]testClaims{"good": {subject: "alice"}}),
		ValidationListeners: []jwtware.ValidationListener{
			func(c *fiber.Ctx, claims jwtware.Claims) error {
				return errors.New("listener says no")
			},
		},
	}, "/")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	status, _ := do(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestJWTWare_Filter(t *testing.T) {
	app := fiber.New()
	app.Get("/", jwtware.New(jwtware.Config{
		Authorize: authorizeStub(nil),
		Filter:    func(c *fiber.Ctx) bool { return c.Query("skip") == "1" },
	}), func(c *fiber.Ctx) error {
		return c.SendString("open")
	})

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/?skip=1", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "open", body)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGetDefaultConfig(t *testing.T) {
	assert.Panics(t, func() { jwtware.GetDefaultConfig() })

	cfg := jwtware.GetDefaultConfig(jwtware.Config{Authorize: authorizeStub(nil)})
	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.NotNil(t, cfg.ErrorHandler)
	assert.NotNil(t, cfg.SuccessHandler)
}

func TestGetExtractors(t *testing.T) {
	assert.Len(t, jwtware.GetExtractors("header:Authorization, query:t ,cookie:c,param:p"), 4)
	assert.Len(t, jwtware.GetExtractors("bogus,header"), 0)
}
