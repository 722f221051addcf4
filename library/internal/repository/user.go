package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
)

var userColumns = []string{"id", "username", "password_hash"}

// liveUser excludes soft deleted accounts; their ids stay referenced by
// rentals and audit entries.
var liveUser = sq.Eq{"deleted_at": nil}

func (r *queries) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, err := selectOne[model.User](ctx, r.db,
		qb.Select(userColumns...).
			From(usersTableName).
			Where(sq.Eq{"id": id}).
			Where(liveUser))
	if err != nil {
		return model.User{}, errors.Wrapf(err, "user %d", id)
	}
	return r.withRoles(ctx, u)
}

func (r *queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := selectOne[model.User](ctx, r.db,
		qb.Select(userColumns...).
			From(usersTableName).
			Where(sq.Eq{"username": username}).
			Where(liveUser))
	if err != nil {
		return model.User{}, errors.Wrapf(err, "user %q", username)
	}
	return r.withRoles(ctx, u)
}

// LockUser locks a live user row; roles are not loaded.
func (r *queries) LockUser(ctx context.Context, id int64, mode LockMode) (model.User, error) {
	u, err := selectOne[model.User](ctx, r.db,
		qb.Select(userColumns...).
			From(usersTableName).
			Where(sq.Eq{"id": id}).
			Where(liveUser).
			Suffix(mode.clause()))
	if err != nil {
		return model.User{}, errors.Wrapf(err, "user %d", id)
	}
	return u, nil
}

func (r *queries) CreateUser(ctx context.Context, username, passwordHash string) (model.User, error) {
	u, err := selectOne[model.User](ctx, r.db,
		qb.Insert(usersTableName).
			Columns("username", "password_hash").
			Values(username, passwordHash).
			Suffix("returning id, username, password_hash"))
	if err != nil {
		return model.User{}, errors.Wrap(err, "create user")
	}
	return u, nil
}

func (r *queries) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	updated, err := selectOne[model.User](ctx, r.db,
		qb.Update(usersTableName).
			Set("username", u.Username).
			Set("password_hash", u.PasswordHash).
			Where(sq.Eq{"id": u.ID}).
			Where(liveUser).
			Suffix("returning id, username, password_hash"))
	if err != nil {
		return model.User{}, errors.Wrapf(err, "user %d", u.ID)
	}
	return r.withRoles(ctx, updated)
}

// SetUserRole replaces the role set of a user with the single given role.
func (r *queries) SetUserRole(ctx context.Context, userID int64, role model.Role) error {
	if _, err := exec(ctx, r.db,
		qb.Delete(userRolesTableName).
			Where(sq.Eq{"user_id": userID})); err != nil {
		return errors.Wrapf(err, "clear roles of user %d", userID)
	}
	n, err := exec(ctx, r.db,
		qb.Insert(userRolesTableName).
			Columns("user_id", "role_id").
			Select(qb.Select().
				Column(sq.Expr("?", userID)).
				Column("id").
				From(rolesTableName).
				Where(sq.Eq{"name": role})))
	if err != nil {
		return errors.Wrapf(err, "grant %s to user %d", role, userID)
	}
	if n == 0 {
		return errors.Wrapf(errs.ErrInvalidArgument, "unknown role %s", role)
	}
	return nil
}

func (r *queries) SoftDeleteUser(ctx context.Context, id int64, at time.Time) error {
	n, err := exec(ctx, r.db,
		qb.Update(usersTableName).
			Set("deleted_at", at).
			Where(sq.Eq{"id": id}).
			Where(liveUser))
	if err != nil {
		return errors.Wrapf(err, "delete user %d", id)
	}
	if n == 0 {
		return errors.Wrapf(errs.ErrNotFound, "user %d", id)
	}
	return nil
}

func (r *queries) withRoles(ctx context.Context, u model.User) (model.User, error) {
	q := fmt.Sprintf(`
select r.name
from %s ur
    join %s r on r.id = ur.role_id
where ur.user_id = $1
order by r.id`, userRolesTableName, rolesTableName)

	rows, err := r.db.Query(ctx, q, u.ID)
	if err != nil {
		return model.User{}, err
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[model.Role])
	if err != nil {
		return model.User{}, errors.Wrapf(err, "roles of user %d", u.ID)
	}
	u.Roles = roles
	return u, nil
}
