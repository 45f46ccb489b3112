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

// UserService exposes account lookups and the password-change flow.
type UserService struct {
	users      repository.UserRepository
	notifier   mailer.Notifier
	dispatcher events.Dispatcher
	codec      *auth.Codec
	logger     *zap.Logger
	cfg        config.AuthConfig
}

// NewUserService builds the service. The codec must be the same one the auth
// service issues tokens with.
func NewUserService(cfg config.AuthConfig, codec *auth.Codec, users repository.UserRepository, notifier mailer.Notifier, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		notifier:   notifier,
		dispatcher: dispatcher,
		codec:      codec,
		logger:     logger,
		cfg:        cfg,
	}
}

// GetByID looks up an account.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByUsername looks up an account.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// RequestPasswordChange mails the caller a short-lived change-password token.
// The token proves recent possession of the mailbox before the sensitive
// mutation is allowed.
func (s *UserService) RequestPasswordChange(ctx context.Context, userID string) error {
	email, err := s.users.GetEmail(ctx, userID)
	if err != nil {
		return err
	}

	cpToken, err := s.codec.Encode(auth.TokenChangePassword, userID, s.cfg.ChangePasswordTokenTTL)
	if err != nil {
		return fmt.Errorf("issue change-password token: %w", err)
	}

	subject, body := mailer.ChangePasswordMessage(s.cfg.ChangePasswordLinkBase, cpToken)
	return s.notifier.Send(ctx, subject, body, email)
}

// ChangePassword verifies the change-password token, requires its subject to
// be the authenticated caller, and stores the new password hash.
func (s *UserService) ChangePassword(ctx context.Context, callerID, cpToken, newPassword string) error {
	payload, err := s.codec.Decode(cpToken, auth.TokenChangePassword)
	if err != nil {
		return domain.ErrTokenInvalid
	}
	if payload.Subject != callerID {
		return domain.ErrTokenSubjectMismatch
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, callerID, hash); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventPasswordChanged,
			UserID:    callerID,
			Timestamp: time.Now(),
		})
	}
	return nil
}
