package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
)

// memUserRepo is an in-memory stand-in for the Postgres repository. Its
// Create enforces the uniqueness constraints the way the real store does, so
// it can serve as the authoritative gate in race tests.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int

	createErr error
	deleteErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetEmail(ctx context.Context, id string) (string, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) Activate(_ context.Context, username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			if user.Active {
				return "", domain.ErrAlreadyActive
			}
			user.Active = true
			return user.ID, nil
		}
	}
	return "", domain.ErrUserNotFound
}

func (r *memUserRepo) SetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *memUserRepo) CheckUnique(_ context.Context, username, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return domain.ErrUsernameTaken
		}
	}
	for _, user := range r.users {
		if user.Email == email {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func (r *memUserRepo) VerifyPassword(_ context.Context, username, password string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username && user.Active {
			if auth.ComparePassword(user.PasswordHash, password) != nil {
				return "", domain.ErrInvalidCredentials
			}
			return user.ID, nil
		}
	}
	return "", domain.ErrInvalidCredentials
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type sentMail struct {
	Subject string
	Body    string
	To      string
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (n *fakeNotifier) Send(_ context.Context, subject, body, to string) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{Subject: subject, Body: body, To: to})
	return nil
}

type scheduledJob struct {
	Delay   time.Duration
	JobID   string
	Payload any
}

type fakeScheduler struct {
	mu   sync.Mutex
	err  error
	jobs []scheduledJob
}

func (s *fakeScheduler) ScheduleAfter(_ context.Context, delay time.Duration, jobID string, payload any) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, scheduledJob{Delay: delay, JobID: jobID, Payload: payload})
	return nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:               "test-secret",
		RegistrationTokenTTL:    15 * time.Minute,
		AccessTokenTTL:          time.Hour,
		RefreshTokenTTL:         24 * time.Hour,
		ChangePasswordTokenTTL:  15 * time.Minute,
		InactiveUserGracePeriod: time.Hour,
		BcryptCost:              4,
		VerifyEmailLinkBase:     "http://localhost/auth/verify-email/",
		ChangePasswordLinkBase:  "http://localhost/user/change-password/",
	}
}

type testEnv struct {
	repo     *memUserRepo
	notifier *fakeNotifier
	sched    *fakeScheduler
	auth     *AuthService
	users    *UserService
}

func newTestEnv() *testEnv {
	repo := newMemUserRepo()
	notifier := &fakeNotifier{}
	sched := &fakeScheduler{}
	cfg := testAuthConfig()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	authService := NewAuthService(cfg, AuthDependencies{
		UserRepo:   repo,
		Notifier:   notifier,
		Scheduler:  sched,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := NewUserService(cfg, authService.Codec(), repo, notifier, dispatcher, logger)

	return &testEnv{
		repo:     repo,
		notifier: notifier,
		sched:    sched,
		auth:     authService,
		users:    userService,
	}
}
