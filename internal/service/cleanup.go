package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
)

// CleanupOutcome classifies what a fired cleanup job did.
type CleanupOutcome string

const (
	CleanupDeleted        CleanupOutcome = "deleted"
	CleanupSkippedActive  CleanupOutcome = "skipped_active"
	CleanupSkippedMissing CleanupOutcome = "skipped_missing"
)

// CleanupPayload travels through the scheduler to the cleanup worker.
type CleanupPayload struct {
	UserID string `json:"user_id"`
}

func cleanupJobID(userID string) string {
	return "cleanup-" + userID
}

// CleanupInactiveUser is the handler body for a fired cleanup job. It
// re-reads the user at fire time: a user that activated in the interim, or
// was already deleted, is a no-op. Delivery is at-least-once, so every
// outcome here must be safe to repeat.
func (s *AuthService) CleanupInactiveUser(ctx context.Context, userID string) (CleanupOutcome, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return CleanupSkippedMissing, nil
	}
	if err != nil {
		return "", err
	}
	if user.Active {
		return CleanupSkippedActive, nil
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return "", err
	}

	s.logger.Info("deleted unverified account",
		zap.String("user_id", userID),
		zap.String("username", user.Username))
	s.publish(ctx, events.Event{
		Type:      events.EventUserDeleted,
		UserID:    userID,
		Username:  user.Username,
		Timestamp: time.Now(),
		Payload:   events.UserDeletedPayload{Reason: "cleanup"},
	})
	return CleanupDeleted, nil
}
