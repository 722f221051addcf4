package repository

import (
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-management/library/internal/errs"
)

func TestMapErr(t *testing.T) {
	t.Parallel()
	plain := errors.New("connection refused")
	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantMsg string
	}{
		{
			name:    "unique serial",
			err:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "book_copy_serial_number_live_idx"},
			wantIs:  errs.ErrConflict,
			wantMsg: "serial number already exists: conflict",
		},
		{
			name:    "unique unknown constraint",
			err:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "some_idx"},
			wantIs:  errs.ErrConflict,
			wantMsg: "some_idx already exists: conflict",
		},
		{
			name:   "foreign key",
			err:    errors.Wrap(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "rentals_user_id_fkey"}, "insert"),
			wantIs: errs.ErrConflict,
		},
		{
			name:   "check",
			err:    &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "rentals_due_after_rent"},
			wantIs: errs.ErrInvalidArgument,
		},
		{
			name:   "lock not available",
			err:    &pgconn.PgError{Code: pgerrcode.LockNotAvailable},
			wantIs: errs.ErrConflict,
		},
		{
			name:   "other",
			err:    plain,
			wantIs: plain,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapErr(tt.err)
			require.ErrorIs(t, got, tt.wantIs)
			if tt.wantMsg != "" {
				require.Equal(t, tt.wantMsg, got.Error())
			}
		})
	}
}
