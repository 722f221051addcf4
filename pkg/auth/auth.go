package auth

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Identity headers are set by the upstream gateway once the bearer token has
// been verified; this service trusts them as is.
const (
	XUserIDHeader   = "X-User-Id"
	XUserRoleHeader = "X-User-Role"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type ctxKey int

const identityKey ctxKey = iota + 1

type Identity struct {
	UserID int64
	Role   string
}

var ErrNoIdentity = errors.New("no identity in context")

func ParseIdentity(userID, role string) (Identity, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, errors.Errorf("invalid user id %q", userID)
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	role = strings.TrimPrefix(role, "ROLE_")
	if role != RoleUser && role != RoleAdmin {
		return Identity{}, errors.Errorf("invalid user role %q", role)
	}
	return Identity{UserID: id, Role: role}, nil
}

func SetAuthContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

func IsAdmin(ctx context.Context) bool {
	id, err := FromContext(ctx)
	return err == nil && id.Role == RoleAdmin
}
