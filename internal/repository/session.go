package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

// Postgres error codes translated to domain errors.
const (
	pgCodeUniqueViolation   = "23505"
	pgCodeReadOnlyViolation = "25006"
)

// Named constraints from the users migration.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

// inReadTx runs fn inside a read-only transaction. Postgres rejects any write
// issued through it, which surfaces as domain.ErrStoreWriteViolation.
func inReadTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return inTx(ctx, pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

// inWriteTx runs fn inside a read-write transaction, committing on success
// and rolling back on any failure.
func inWriteTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return inTx(ctx, pool, pgx.TxOptions{AccessMode: pgx.ReadWrite}, fn)
}

func inTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

// mapPgError translates driver-level failures into the domain taxonomy:
// unique-constraint violations become the taken errors, writes rejected by a
// read-only transaction become ErrStoreWriteViolation. Anything else passes
// through untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgCodeReadOnlyViolation:
		return domain.ErrStoreWriteViolation
	case pgCodeUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintUsername:
			return domain.ErrUsernameTaken
		case constraintEmail:
			return domain.ErrEmailTaken
		}
	}
	return err
}
