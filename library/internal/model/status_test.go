package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
)

func TestCopyStatus_Transition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		from    model.CopyStatus
		event   model.CopyEvent
		want    model.CopyStatus
		wantErr error
	}{
		{name: "rent available", from: model.CopyAvailable, event: model.EventRent, want: model.CopyRented},
		{name: "rent rented", from: model.CopyRented, event: model.EventRent, wantErr: errs.ErrConflict},
		{name: "rent deleted", from: model.CopyDeleted, event: model.EventRent, wantErr: errs.ErrConflict},
		{name: "return rented", from: model.CopyRented, event: model.EventReturn, want: model.CopyAvailable},
		{name: "return available", from: model.CopyAvailable, event: model.EventReturn, wantErr: errs.ErrConflict},
		{name: "return deleted", from: model.CopyDeleted, event: model.EventReturn, wantErr: errs.ErrConflict},
		{name: "delete available", from: model.CopyAvailable, event: model.EventDelete, want: model.CopyDeleted},
		{name: "delete deleted", from: model.CopyDeleted, event: model.EventDelete, want: model.CopyDeleted},
		{name: "delete rented", from: model.CopyRented, event: model.EventDelete, wantErr: errs.ErrConflict},
		{name: "unknown event", from: model.CopyAvailable, event: model.CopyEvent(42), wantErr: errs.ErrInvalidArgument},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.from.Transition(tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCopyStatus_TransitionMessages(t *testing.T) {
	t.Parallel()
	_, err := model.CopyDeleted.Transition(model.EventReturn)
	require.EqualError(t, err, "copy deleted: conflict")

	_, err = model.CopyAvailable.Transition(model.EventReturn)
	require.EqualError(t, err, "copy is not currently rented: conflict")

	_, err = model.CopyRented.Transition(model.EventRent)
	require.EqualError(t, err, "copy unavailable: conflict")
}

func TestRental_IsOverdue(t *testing.T) {
	t.Parallel()
	rentedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := model.Rental{RentedAt: rentedAt, DueDate: rentedAt.Add(model.LoanPeriod)}

	require.False(t, r.IsOverdue(rentedAt.Add(6*24*time.Hour+23*time.Hour)))
	require.False(t, r.IsOverdue(r.DueDate))
	require.True(t, r.IsOverdue(rentedAt.Add(model.LoanPeriod+time.Second)))

	returned := rentedAt.Add(8 * 24 * time.Hour)
	r.ReturnedAt = &returned
	require.False(t, r.IsOverdue(returned.Add(time.Hour)))
}

func TestParseRole(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    model.Role
		wantErr bool
	}{
		{in: "USER", want: model.RoleUser},
		{in: " admin ", want: model.RoleAdmin},
		{in: "ROLE_ADMIN", want: model.RoleAdmin},
		{in: "role_user", want: model.RoleUser},
		{in: "", wantErr: true},
		{in: "LIBRARIAN", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := model.ParseRole(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestUserPatch_IsEmpty(t *testing.T) {
	t.Parallel()
	blank, name := "  ", "bob"
	require.True(t, model.UserPatch{}.IsEmpty())
	require.True(t, model.UserPatch{Username: &blank, Role: &blank}.IsEmpty())
	require.False(t, model.UserPatch{Username: &name}.IsEmpty())
}
