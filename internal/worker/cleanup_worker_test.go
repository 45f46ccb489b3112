package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/scheduler"
	"github.com/spec-kit/account-service/internal/service"
)

// stubUserRepo backs the cleanup path only; the remaining repository methods
// are never reached from Handle.
type stubUserRepo struct {
	users     map[string]*domain.User
	deleteErr error
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) GetEmail(context.Context, string) (string, error) {
	return "", domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) Activate(context.Context, string) (string, error) {
	return "", domain.ErrUserNotFound
}

func (r *stubUserRepo) SetPassword(context.Context, string, string) error { return nil }

func (r *stubUserRepo) CheckUnique(context.Context, string, string) error { return nil }

func (r *stubUserRepo) VerifyPassword(context.Context, string, string) (string, error) {
	return "", domain.ErrInvalidCredentials
}

func newCleanupHarness(repo *stubUserRepo) (*CleanupWorker, *observability.Metrics) {
	cfg := config.AuthConfig{
		JWTSecret:               "test-secret",
		RegistrationTokenTTL:    time.Minute,
		AccessTokenTTL:          time.Minute,
		RefreshTokenTTL:         time.Minute,
		ChangePasswordTokenTTL:  time.Minute,
		InactiveUserGracePeriod: time.Hour,
		BcryptCost:              4,
	}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: repo,
		Logger:   zap.NewNop(),
	})
	metrics := observability.NewMetrics()
	return NewCleanupWorker(authService, metrics, zap.NewNop()), metrics
}

func cleanupJob(t *testing.T, userID string) scheduler.Job {
	t.Helper()
	payload, err := json.Marshal(service.CleanupPayload{UserID: userID})
	require.NoError(t, err)
	return scheduler.Job{ID: "cleanup-" + userID, Payload: payload}
}

func TestHandle_DeletesInactiveUser(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Username: "alice", Active: false},
	}}
	worker, metrics := newCleanupHarness(repo)

	require.NoError(t, worker.Handle(context.Background(), cleanupJob(t, "u1")))
	assert.NotContains(t, repo.users, "u1")
	assert.EqualValues(t, 1, metrics.CleanupCount("deleted"))
}

func TestHandle_SkipsActivatedUser(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Username: "alice", Active: true},
	}}
	worker, metrics := newCleanupHarness(repo)

	require.NoError(t, worker.Handle(context.Background(), cleanupJob(t, "u1")))
	assert.Contains(t, repo.users, "u1")
	assert.EqualValues(t, 1, metrics.CleanupCount("skipped_active"))
}

func TestHandle_MissingUserIsNoop(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: map[string]*domain.User{}}
	worker, metrics := newCleanupHarness(repo)

	require.NoError(t, worker.Handle(context.Background(), cleanupJob(t, "gone")))
	assert.EqualValues(t, 1, metrics.CleanupCount("skipped_missing"))
}

func TestHandle_MalformedPayloadIsDropped(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: map[string]*domain.User{}}
	worker, metrics := newCleanupHarness(repo)

	job := scheduler.Job{ID: "cleanup-bad", Payload: json.RawMessage(`{"user_id":`)}
	require.NoError(t, worker.Handle(context.Background(), job))
	assert.EqualValues(t, 0, metrics.CleanupCount("failed"))
}

func TestHandle_TransientErrorRequeues(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{
		users:     map[string]*domain.User{"u1": {ID: "u1", Active: false}},
		deleteErr: assert.AnError,
	}
	worker, metrics := newCleanupHarness(repo)

	err := worker.Handle(context.Background(), cleanupJob(t, "u1"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.EqualValues(t, 1, metrics.CleanupCount("failed"))
}
