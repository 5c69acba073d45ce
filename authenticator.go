package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// dummyPassword is hashed once at construction so unknown usernames cost
// one Verify, the same as a wrong password.
const dummyPassword = "go-bearer-auth:dummy-password"

// Service registers users, exchanges credentials for tokens and authorizes
// token bearers.
type Service struct {
	store     CredentialStore
	hasher    PasswordHasher
	issuer    TokenIssuer
	validator TokenValidator

	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
	pool         *workPool
	poolSize     int

	dummyDigest []byte
	closers     []func()
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the service logger
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now. Tokens are issued and validated against it.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) ServiceOption {
	return func(s *Service) {
		s.activitySink = sink
	}
}

// WithHashConcurrency bounds concurrent Hash and Verify calls. Zero or
// less means GOMAXPROCS.
func WithHashConcurrency(n int) ServiceOption {
	return func(s *Service) {
		s.poolSize = n
	}
}

// NewService wires the service to its collaborators. All four are required.
func NewService(store CredentialStore, hasher PasswordHasher, issuer TokenIssuer, validator TokenValidator, opts ...ServiceOption) (*Service, error) {
	switch {
	case store == nil:
		return nil, errors.New("credential store is required", errors.CategoryValidation)
	case hasher == nil:
		return nil, errors.New("password hasher is required", errors.CategoryValidation)
	case issuer == nil:
		return nil, errors.New("token issuer is required", errors.CategoryValidation)
	case validator == nil:
		return nil, errors.New("token validator is required", errors.CategoryValidation)
	}

	s := &Service{
		store:     store,
		hasher:    hasher,
		issuer:    issuer,
		validator: validator,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.logger = normalizeLogger(s.logger)
	s.activitySink = normalizeActivitySink(s.activitySink)
	if s.now == nil {
		s.now = time.Now
	}
	s.pool = newWorkPool(s.poolSize)

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	s.dummyDigest = dummy

	return s, nil
}

// NewServiceFromConfig builds the hasher, token service and validator chain
// described by cfg around store. Previous signing keys and JWKS URLs are
// accepted for validation only.
func NewServiceFromConfig(cfg Config, store CredentialStore, opts ...ServiceOption) (*Service, error) {
	probe := &Service{}
	for _, opt := range opts {
		if opt != nil {
			opt(probe)
		}
	}
	logger := normalizeLogger(probe.logger)

	hasher, err := NewBcryptHasher(cfg.GetPasswordCost())
	if err != nil {
		return nil, err
	}

	tokens, err := NewTokenServiceFromConfig(cfg, WithTokenLogger(logger))
	if err != nil {
		return nil, err
	}

	previous, err := previousHMACKeys(cfg)
	if err != nil {
		return nil, err
	}

	rotating, err := NewRotatingValidator(tokens, previous...)
	if err != nil {
		return nil, err
	}

	var (
		validator TokenValidator = rotating
		closers   []func()
	)
	if urls := cfg.GetJWKSURLs(); len(urls) > 0 {
		jwks, err := NewJWKSValidator(JWKSConfig{
			URLs:     urls,
			Issuer:   cfg.GetIssuer(),
			Audience: cfg.GetAudience(),
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		validator = NewMultiTokenValidator(rotating, jwks)
		closers = append(closers, jwks.Close)
	}

	base := []ServiceOption{WithHashConcurrency(cfg.GetHashConcurrency())}
	svc, err := NewService(store, hasher, tokens, validator, append(base, opts...)...)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	svc.closers = closers
	return svc, nil
}

// Close releases background work started by NewServiceFromConfig, such as
// JWK Set refreshes. It is safe to call more than once.
func (s *Service) Close() {
	for _, c := range s.closers {
		c()
	}
}

// Register creates a guest account for username. The plaintext is hashed
// before it reaches the store and is never retained.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		s.emit(ctx, ActivityEventRegisterFailure, username, "", ErrInvalidUsername)
		return ErrInvalidUsername
	}

	var (
		digest  []byte
		hashErr error
	)
	if err := s.pool.run(ctx, func() {
		digest, hashErr = s.hasher.Hash(password)
	}); err != nil {
		return err
	}

	if hashErr != nil {
		s.logger.Error("register hashing failed", "username", username, "error", hashErr)
		s.emit(ctx, ActivityEventRegisterFailure, username, "", ErrHashingFailure)
		return hashErr
	}

	user := &User{
		Username:       username,
		PasswordDigest: digest,
		Role:           RoleGuest,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if IsErrorKind(err, ErrDuplicateUsername) {
			s.logger.Info("register rejected duplicate username", "username", username)
			s.emit(ctx, ActivityEventRegisterFailure, username, "", ErrDuplicateUsername)
			return err
		}
		s.logger.Error("register store create failed", "username", username, "error", err)
		s.emit(ctx, ActivityEventRegisterFailure, username, "", ErrStoreUnavailable)
		return wrapAs(err, ErrStoreUnavailable)
	}

	s.emit(ctx, ActivityEventRegisterSuccess, username, user.ID.String(), nil)
	return nil
}

// Login verifies the password for username and issues a token. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Token, error) {
	user, found, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Error("login store lookup failed", "username", username, "error", err)
		s.emit(ctx, ActivityEventLoginFailure, username, "", ErrStoreUnavailable)
		if IsErrorKind(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, wrapAs(err, ErrStoreUnavailable)
	}

	var (
		ok        bool
		verifyErr error
	)
	if err := s.pool.run(ctx, func() {
		var digest []byte
		if found {
			digest = user.PasswordDigest
		} else {
			digest = s.dummyDigest
		}
		ok, verifyErr = s.hasher.Verify(password, digest)
	}); err != nil {
		return nil, err
	}

	if !found {
		s.emit(ctx, ActivityEventLoginFailure, username, "", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if verifyErr != nil {
		s.logger.Error("login digest verification failed", "username", username, "error", verifyErr)
		s.emit(ctx, ActivityEventLoginFailure, username, user.ID.String(), ErrHashingFailure)
		return nil, verifyErr
	}

	if !ok {
		s.emit(ctx, ActivityEventLoginFailure, username, user.ID.String(), ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.Username, user.Role, s.now())
	if err != nil {
		s.logger.Error("login token issue failed", "username", username, "error", err)
		s.emit(ctx, ActivityEventLoginFailure, username, user.ID.String(), err)
		return nil, err
	}

	s.emit(ctx, ActivityEventLoginSuccess, username, user.ID.String(), nil)
	return token, nil
}

// Authorize admits the bearer of tokenText. Every rejection is reported as
// ErrUnauthorized; the specific reason is only logged.
func (s *Service) Authorize(ctx context.Context, tokenText string) (AuthClaims, error) {
	if strings.TrimSpace(tokenText) == "" {
		s.logger.Debug("authorize rejected token", "reason", TextCodeTokenMalformed)
		s.emit(ctx, ActivityEventAuthorizeFailure, "", "", ErrTokenMalformed)
		return nil, ErrUnauthorized
	}

	claims, err := s.validator.Validate(tokenText, s.now())
	if err != nil {
		reason := reasonFor(err)
		s.logger.Debug("authorize rejected token", "reason", reason)
		s.emit(ctx, ActivityEventAuthorizeFailure, "", "", err)
		return nil, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) emit(ctx context.Context, eventType ActivityEventType, username, userID string, cause error) {
	event := ActivityEvent{
		EventType:  eventType,
		Username:   username,
		UserID:     userID,
		Metadata:   map[string]any{},
		OccurredAt: s.now(),
	}
	if cause != nil {
		event.Reason = reasonFor(cause)
	}

	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}

func reasonFor(err error) string {
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode != "" {
		return rich.TextCode
	}
	return err.Error()
}
