package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/mailer"
	"github.com/spec-kit/account-service/internal/repository"
)

// TokenPair bundles a freshly issued access and refresh token. Refresh always
// rotates both.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CleanupScheduler abstracts the delayed job queue used for compensating
// deletion of unverified accounts.
type CleanupScheduler interface {
	ScheduleAfter(ctx context.Context, delay time.Duration, jobID string, payload any) error
}

// AuthService coordinates the registration saga, email verification, login,
// and refresh-token rotation.
type AuthService struct {
	users      repository.UserRepository
	notifier   mailer.Notifier
	sched      CleanupScheduler
	dispatcher events.Dispatcher
	codec      *auth.Codec
	logger     *zap.Logger
	cfg        config.AuthConfig
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Notifier   mailer.Notifier
	Scheduler  CleanupScheduler
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		sched:      deps.Scheduler,
		dispatcher: deps.Dispatcher,
		codec:      auth.NewCodec(cfg.JWTSecret),
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// Register runs the registration saga:
//
//  1. fast-fail uniqueness check,
//  2. issue a registration token,
//  3. mail the activation link (abort before any persistence when the
//     recipient does not exist),
//  4. create the user in inactive state (the insert is the authoritative
//     uniqueness gate for races the check in step 1 cannot close),
//  5. schedule the compensating deletion; when scheduling fails the
//     just-created user is deleted synchronously so no unverifiable account
//     is left behind.
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	if err := s.users.CheckUnique(ctx, username, email); err != nil {
		return err
	}

	regToken, err := s.codec.Encode(auth.TokenRegistration, username, s.cfg.RegistrationTokenTTL)
	if err != nil {
		return fmt.Errorf("issue registration token: %w", err)
	}

	subject, body := mailer.RegistrationMessage(s.cfg.VerifyEmailLinkBase, regToken)
	if err := s.notifier.Send(ctx, subject, body, email); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Active:       false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	payload := CleanupPayload{UserID: user.ID}
	if err := s.sched.ScheduleAfter(ctx, s.cfg.InactiveUserGracePeriod, cleanupJobID(user.ID), payload); err != nil {
		s.logger.Error("cleanup scheduling failed, rolling back user",
			zap.String("user_id", user.ID),
			zap.Error(err))
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("rollback delete failed", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return fmt.Errorf("%w: %v", domain.ErrScheduling, err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		UserID:    user.ID,
		Username:  username,
		Timestamp: time.Now(),
		Payload:   events.UserRegisteredPayload{Email: email},
	})
	return nil
}

// VerifyEmail decodes the emailed registration token and activates the named
// user, returning a fresh token pair. A second click on the same link fails
// with ErrAlreadyActive instead of re-issuing credentials. Expired and
// tampered tokens are indistinguishable here; the account stays inactive and
// the scheduled cleanup will sweep it.
func (s *AuthService) VerifyEmail(ctx context.Context, regToken string) (*TokenPair, error) {
	payload, err := s.codec.Decode(regToken, auth.TokenRegistration)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	userID, err := s.users.Activate(ctx, payload.Subject)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(userID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserActivated,
		UserID:    userID,
		Username:  payload.Subject,
		Timestamp: time.Now(),
	})
	return pair, nil
}

// Authenticate verifies credentials and issues a token pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	userID, err := s.users.VerifyPassword(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.issuePair(userID)
}

// Refresh exchanges a valid refresh token for a new access/refresh pair.
// Rotation always issues both. Expiry is reported distinctly so the caller
// can prompt for a fresh login rather than a generic rejection.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	payload, err := s.codec.Decode(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}
	return s.issuePair(payload.Subject)
}

// Codec exposes the token codec for middleware usage.
func (s *AuthService) Codec() *auth.Codec {
	return s.codec
}

func (s *AuthService) issuePair(userID string) (*TokenPair, error) {
	access, err := s.codec.Encode(auth.TokenAccess, userID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Encode(auth.TokenRefresh, userID, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
