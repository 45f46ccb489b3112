package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/account-service/internal/domain"
)

func TestMapPgError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "username constraint violation",
			err:  &pgconn.PgError{Code: pgCodeUniqueViolation, ConstraintName: constraintUsername},
			want: domain.ErrUsernameTaken,
		},
		{
			name: "email constraint violation",
			err:  &pgconn.PgError{Code: pgCodeUniqueViolation, ConstraintName: constraintEmail},
			want: domain.ErrEmailTaken,
		},
		{
			name: "write in read-only transaction",
			err:  &pgconn.PgError{Code: pgCodeReadOnlyViolation},
			want: domain.ErrStoreWriteViolation,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, mapPgError(tc.err), tc.want)
		})
	}
}

func TestMapPgError_Passthrough(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapPgError(plain))

	unknown := &pgconn.PgError{Code: pgCodeUniqueViolation, ConstraintName: "tickets_pkey"}
	assert.Equal(t, error(unknown), mapPgError(unknown))
}
