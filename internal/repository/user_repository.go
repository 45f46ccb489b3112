package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/domain"
)

// UserRepository defines persistence access for accounts. Query operations
// run in read-only sessions; mutations run in read-write sessions that commit
// atomically and translate constraint violations into domain errors.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetEmail(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, username string) (string, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	CheckUnique(ctx context.Context, username, email string) error
	VerifyPassword(ctx context.Context, username, password string) (string, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`

	var user *domain.User
	err := inReadTx(ctx, r.pool, func(tx pgx.Tx) error {
		var scanErr error
		user, scanErr = scanUser(tx.QueryRow(ctx, query, id))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username=$1`

	var user *domain.User
	err := inReadTx(ctx, r.pool, func(tx pgx.Tx) error {
		var scanErr error
		user, scanErr = scanUser(tx.QueryRow(ctx, query, username))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetEmail(ctx context.Context, id string) (string, error) {
	const query = `SELECT email FROM users WHERE id=$1`

	var email string
	err := inReadTx(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, id).Scan(&email)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// Create inserts the user and fills in its generated id and timestamps.
// UUIDv7 keeps ids globally unique and time-sortable. The insert is the
// authoritative uniqueness gate: a race lost after CheckUnique surfaces here
// as ErrUsernameTaken or ErrEmailTaken.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, email, password_hash, active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	return inWriteTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			id.String(),
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Active,
		).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		user.ID = id.String()
		return nil
	})
}

// Delete removes the user. Deleting a missing user is a no-op so the cleanup
// job can fire more than once safely.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`

	return inWriteTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, id)
		return err
	})
}

// Activate flips the named user to active and returns its id. The second
// activation attempt fails with ErrAlreadyActive; active users never go back.
func (r *userRepository) Activate(ctx context.Context, username string) (string, error) {
	const selectQuery = `SELECT id, active FROM users WHERE username=$1`
	const updateQuery = `UPDATE users SET active=TRUE, updated_at=NOW() WHERE id=$1`

	var id string
	err := inWriteTx(ctx, r.pool, func(tx pgx.Tx) error {
		var active bool
		if err := tx.QueryRow(ctx, selectQuery, username).Scan(&id, &active); err != nil {
			return err
		}
		if active {
			return domain.ErrAlreadyActive
		}
		_, err := tx.Exec(ctx, updateQuery, id)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *userRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`

	return inWriteTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query, passwordHash, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// CheckUnique is the fast-fail uniqueness probe. It cannot close the race
// with a concurrent insert; the unique constraints checked in Create are the
// authoritative gate.
func (r *userRepository) CheckUnique(ctx context.Context, username, email string) error {
	const query = `
        SELECT username=$1, email=$2
        FROM users WHERE username=$1 OR email=$2`

	var usernameTaken, emailTaken bool
	err := inReadTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, username, email)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var sameUsername, sameEmail bool
			if err := rows.Scan(&sameUsername, &sameEmail); err != nil {
				return err
			}
			usernameTaken = usernameTaken || sameUsername
			emailTaken = emailTaken || sameEmail
		}
		return rows.Err()
	})
	if err != nil {
		return err
	}

	if usernameTaken {
		return domain.ErrUsernameTaken
	}
	if emailTaken {
		return domain.ErrEmailTaken
	}
	return nil
}

// VerifyPassword checks credentials against the stored hash and returns the
// user id. Inactive users cannot authenticate. The caller never sees the
// hash, nor whether the username or the password was wrong.
func (r *userRepository) VerifyPassword(ctx context.Context, username, password string) (string, error) {
	const query = `SELECT id, password_hash FROM users WHERE username=$1 AND active`

	var id, passwordHash string
	err := inReadTx(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, username).Scan(&id, &passwordHash)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return id, nil
}
