package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-bearer-auth"
)

const testSecret = "0123456789abcdef0123456789abcdef-test-secret"

// MockCredentialStore implements auth.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockCredentialStore) FindByUsername(ctx context.Context, username string) (*auth.User, bool, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Bool(1), args.Error(2)
}

// MockPasswordHasher implements auth.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(plaintext string) ([]byte, error) {
	args := m.Called(plaintext)
	digest, _ := args.Get(0).([]byte)
	return digest, args.Error(1)
}

func (m *MockPasswordHasher) Verify(plaintext string, digest []byte) (bool, error) {
	args := m.Called(plaintext, digest)
	return args.Bool(0), args.Error(1)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestHMACKey(t *testing.T, secret string) auth.SigningKey {
	t.Helper()
	key, err := auth.NewHMACKey([]byte(secret), "HS256")
	require.NoError(t, err)
	return key
}

func newTestTokenService(t *testing.T, ttl time.Duration, opts ...auth.TokenServiceOption) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(newTestHMACKey(t, testSecret), ttl, opts...)
	require.NoError(t, err)
	return ts
}

func newTestHasher(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(4)
	require.NoError(t, err)
	return h
}

type testServiceDeps struct {
	store  auth.CredentialStore
	tokens *auth.TokenService
	clock  *fakeClock
	sink   *recordingSink
}

func newTestService(t *testing.T, deps testServiceDeps, opts ...auth.ServiceOption) *auth.Service {
	t.Helper()
	if deps.store == nil {
		deps.store = auth.NewMemoryStore()
	}
	if deps.tokens == nil {
		deps.tokens = newTestTokenService(t, time.Hour)
	}

	base := []auth.ServiceOption{}
	if deps.clock != nil {
		base = append(base, auth.WithClock(deps.clock.Now))
	}
	if deps.sink != nil {
		base = append(base, auth.WithActivitySink(deps.sink))
	}

	svc, err := auth.NewService(deps.store, newTestHasher(t), deps.tokens, deps.tokens, append(base, opts...)...)
	require.NoError(t, err)
	return svc
}
