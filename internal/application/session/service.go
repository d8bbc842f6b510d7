// Package session logs the user in and out and keeps the session token in
// client storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/domain/shared"
	"github.com/takeout/client/internal/infrastructure/auth"
	"github.com/takeout/client/internal/infrastructure/storage"
	"github.com/takeout/client/internal/infrastructure/telemetry"
)

// Session errors
var (
	ErrNotLoggedIn  = shared.NewDomainError("NOT_LOGGED_IN", "Please log in first")
	ErrLoginFailed  = shared.NewDomainError("LOGIN_FAILED", "Login failed")
	ErrRegistration = shared.NewDomainError("REGISTRATION_REJECTED", "Registration was rejected")
)

// Service manages the session token
type Service struct {
	api       *client.Client
	store     storage.Store
	validate  *validator.Validate
	tokenPath string
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithTokenPath sets the gjson path of the token in login responses
func WithTokenPath(path string) Option {
	return func(s *Service) {
		s.tokenPath = path
	}
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a session service
func NewService(api *client.Client, store storage.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		api:       api,
		store:     store,
		validate:  NewValidator(),
		tokenPath: client.DefaultTokenPath,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates and stores the returned token
func (s *Service) Login(ctx context.Context, creds client.LoginCredentials) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "session.login")
	defer span.End()

	if err := s.validate.Struct(creds); err != nil {
		return "", validationError(err)
	}

	resp, err := s.api.Login(ctx, &creds)
	if err := client.CheckResponse(resp, err); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Login request failed", zap.String("username", creds.Username), zap.Error(err))
		return "", err
	}

	token, err := client.TokenFromLoginResult(resp.Body, s.tokenPath)
	if err != nil {
		s.logger.Warn("Login rejected", zap.String("username", creds.Username), zap.Error(err))
		return "", shared.NewDomainError(ErrLoginFailed.Code, err.Error())
	}

	if err := s.store.Set(ctx, storage.KeyToken, token); err != nil {
		return "", err
	}
	s.logger.Info("Logged in", zap.String("username", creds.Username))
	return token, nil
}

// Register creates an account and returns the backend's message
func (s *Service) Register(ctx context.Context, creds client.LoginCredentials) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "session.register")
	defer span.End()

	if err := s.validate.Struct(creds); err != nil {
		return "", validationError(err)
	}

	resp, err := s.api.Register(ctx, &creds)
	if err := client.CheckResponse(resp, err); err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	if !resp.Data.Success {
		s.logger.Warn("Registration rejected", zap.String("username", creds.Username), zap.String("reason", resp.Data.Message))
		return "", shared.NewDomainError(ErrRegistration.Code, resp.Data.Message)
	}

	s.logger.Info("Registered", zap.String("username", creds.Username))
	var text string
	if err := json.Unmarshal(resp.Data.Data, &text); err == nil && text != "" {
		return text, nil
	}
	return resp.Data.Message, nil
}

// Token returns the stored token, or ErrNotLoggedIn
func (s *Service) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// ValidToken returns the stored token unless it is a JWT that has already
// expired, in which case the token is discarded and ErrSessionExpired is
// returned. Opaque tokens are passed through for the server to judge.
func (s *Service) ValidToken(ctx context.Context) (string, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return "", err
	}
	claims, err := auth.Inspect(token)
	if err != nil {
		return token, nil
	}
	if claims.IsExpired(s.now()) {
		s.logger.Info("Stored session expired", zap.Time("expired_at", claims.ExpiresAtTime()))
		if err := s.Logout(ctx); err != nil {
			s.logger.Warn("Failed to discard expired token", zap.Error(err))
		}
		return "", shared.ErrSessionExpired
	}
	return token, nil
}

// Claims decodes the stored token without verifying it
func (s *Service) Claims(ctx context.Context) (*auth.Claims, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return auth.Inspect(token)
}

// Logout discards the stored token
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, storage.KeyToken)
}

// ExpireOnUnauthorized logs the user out when err says the session expired.
// err is returned unchanged.
func (s *Service) ExpireOnUnauthorized(ctx context.Context, err error) error {
	if errors.Is(err, shared.ErrSessionExpired) {
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			s.logger.Warn("Failed to discard expired token", zap.Error(logoutErr))
		}
	}
	return err
}

// Profile fetches the logged-in user's profile
func (s *Service) Profile(ctx context.Context) (*client.UserDTO, error) {
	token, err := s.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.GetUserInfo(ctx, client.WithBearerToken(token))
	if err := client.CheckResponse(resp, err); err != nil {
		return nil, s.ExpireOnUnauthorized(ctx, err)
	}
	return &resp.Data.Data, nil
}
