package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
)

func registerActiveUser(t *testing.T, env *testEnv, username, email, password string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.auth.Register(ctx, username, email, password))
	userID, err := env.repo.Activate(ctx, username)
	require.NoError(t, err)
	return userID
}

func TestUserService_Lookups(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	userID := registerActiveUser(t, env, "alice", "a@x.com", "secret")

	byID, err := env.users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := env.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, userID, byName.ID)

	_, err = env.users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = env.users.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChangePasswordFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	userID := registerActiveUser(t, env, "alice", "a@x.com", "old-password")

	require.NoError(t, env.users.RequestPasswordChange(ctx, userID))

	mails := env.notifier.sent
	require.NotEmpty(t, mails)
	body := mails[len(mails)-1].Body
	assert.Equal(t, "a@x.com", mails[len(mails)-1].To)

	idx := strings.Index(body, "http://localhost/user/change-password/")
	require.GreaterOrEqual(t, idx, 0)
	cpToken := strings.Fields(body[idx+len("http://localhost/user/change-password/"):])[0]

	require.NoError(t, env.users.ChangePassword(ctx, userID, cpToken, "new-password"))

	_, err := env.auth.Authenticate(ctx, "alice", "old-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = env.auth.Authenticate(ctx, "alice", "new-password")
	assert.NoError(t, err)
}

func TestChangePassword_SubjectMismatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	aliceID := registerActiveUser(t, env, "alice", "a@x.com", "secret")
	bobID := registerActiveUser(t, env, "bob", "b@x.com", "secret")

	cpToken, err := env.auth.Codec().Encode(auth.TokenChangePassword, bobID, time.Minute)
	require.NoError(t, err)

	err = env.users.ChangePassword(ctx, aliceID, cpToken, "new-password")
	assert.ErrorIs(t, err, domain.ErrTokenSubjectMismatch)
}

func TestChangePassword_InvalidToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	userID := registerActiveUser(t, env, "alice", "a@x.com", "secret")

	err := env.users.ChangePassword(ctx, userID, "garbage", "new-password")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	// an access token must not pass as a change-password token
	accessToken, err := env.auth.Codec().Encode(auth.TokenAccess, userID, time.Minute)
	require.NoError(t, err)
	err = env.users.ChangePassword(ctx, userID, accessToken, "new-password")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRequestPasswordChange_UnknownUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	err := env.users.RequestPasswordChange(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Empty(t, env.notifier.sent)
}
