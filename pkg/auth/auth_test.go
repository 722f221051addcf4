package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		userID  string
		role    string
		want    Identity
		wantErr bool
	}{
		{name: "user", userID: "7", role: "USER", want: Identity{UserID: 7, Role: RoleUser}},
		{name: "spring style admin", userID: " 1 ", role: "role_admin", want: Identity{UserID: 1, Role: RoleAdmin}},
		{name: "missing id", userID: "", role: "USER", wantErr: true},
		{name: "negative id", userID: "-3", role: "USER", wantErr: true},
		{name: "unknown role", userID: "7", role: "GUEST", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseIdentity(tt.userID, tt.role)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAuthContext(t *testing.T) {
	t.Parallel()
	_, err := FromContext(context.Background())
	require.ErrorIs(t, err, ErrNoIdentity)
	require.False(t, IsAdmin(context.Background()))

	ctx := SetAuthContext(context.Background(), Identity{UserID: 1, Role: RoleAdmin})
	id, err := FromContext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), id.UserID)
	require.True(t, IsAdmin(ctx))
}
