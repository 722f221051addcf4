package model

import (
	"strings"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts "user", " Admin ", "ROLE_ADMIN" and the like.
func ParseRole(s string) (Role, error) {
	r := strings.ToUpper(strings.TrimSpace(s))
	r = strings.TrimPrefix(r, "ROLE_")
	switch Role(r) {
	case RoleUser, RoleAdmin:
		return Role(r), nil
	}
	return "", errors.Wrapf(errs.ErrInvalidArgument, "role %q, available roles: USER, ADMIN", s)
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Roles        []Role `json:"roles" db:"-"`
}

func (u User) HasRole(r Role) bool {
	for _, role := range u.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// UserPatch carries the optional fields of a partial user update.
type UserPatch struct {
	Username     *string
	PasswordHash *string
	Role         *string
}

func (p UserPatch) IsEmpty() bool {
	return blank(p.Username) && blank(p.PasswordHash) && blank(p.Role)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
