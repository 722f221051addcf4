package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
)

// Users manages accounts and their single role. Password hashes arrive
// already hashed; this layer never sees plain passwords.
type Users struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewUsers(repo repository.Repository, log *zap.Logger) *Users {
	return &Users{
		log:  log.Named("users"),
		repo: repo,
	}
}

func (s *Users) Get(ctx context.Context, id int64) (model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Users) ByUsername(ctx context.Context, username string) (model.User, error) {
	return s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
}

func (s *Users) Register(ctx context.Context, username, passwordHash, role string) (model.User, error) {
	username, err := required("username", username)
	if err != nil {
		return model.User{}, err
	}
	if _, err := required("password", passwordHash); err != nil {
		return model.User{}, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return model.User{}, err
	}

	var u model.User
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		if err := usernameFree(ctx, q, username, 0); err != nil {
			return err
		}
		if u, err = q.CreateUser(ctx, username, passwordHash); err != nil {
			return err
		}
		if err := q.SetUserRole(ctx, u.ID, r); err != nil {
			return err
		}
		u.Roles = []model.Role{r}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("user registered", zap.Int64("id", u.ID), zap.String("username", u.Username), zap.String("role", string(r)))
	return u, nil
}

// UpdateFields applies the non-blank fields of the patch. A role change
// replaces the whole role set.
func (s *Users) UpdateFields(ctx context.Context, id int64, patch model.UserPatch) (model.User, error) {
	if patch.IsEmpty() {
		return model.User{}, errors.Wrap(errs.ErrInvalidArgument, "nothing to update")
	}
	var role model.Role
	if patch.Role != nil && strings.TrimSpace(*patch.Role) != "" {
		r, err := model.ParseRole(*patch.Role)
		if err != nil {
			return model.User{}, err
		}
		role = r
	}

	var u model.User
	err := s.repo.InTx(ctx, func(q repository.Queries) error {
		cur, err := q.LockUser(ctx, id, repository.LockUpdate)
		if err != nil {
			return err
		}
		changed := false
		if patch.Username != nil {
			if name := strings.TrimSpace(*patch.Username); name != "" && name != cur.Username {
				if err := usernameFree(ctx, q, name, id); err != nil {
					return err
				}
				cur.Username = name
				changed = true
			}
		}
		if patch.PasswordHash != nil && strings.TrimSpace(*patch.PasswordHash) != "" {
			cur.PasswordHash = *patch.PasswordHash
			changed = true
		}
		if changed {
			if _, err := q.UpdateUser(ctx, cur); err != nil {
				return err
			}
		}
		if role != "" {
			if err := q.SetUserRole(ctx, id, role); err != nil {
				return err
			}
		}
		u, err = q.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("user updated", zap.Int64("id", id))
	return u, nil
}

// Delete soft deletes a user without open rentals. The user row stays
// locked while open rentals are checked so a concurrent Rent waits.
func (s *Users) Delete(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.LockUser(ctx, id, repository.LockUpdate); err != nil {
			return err
		}
		open, err := q.ListRentals(ctx, repository.RentalFilter{UserID: &id, OpenOnly: true})
		if err != nil {
			return err
		}
		if len(open) > 0 {
			ids := make([]int64, 0, len(open))
			for _, r := range open {
				ids = append(ids, r.CopyID)
			}
			return &errs.OpenRentalsError{UserID: id, CopyIDs: ids}
		}
		return q.SoftDeleteUser(ctx, id, time.Now().UTC())
	})
	if err != nil {
		if isBusiness(err) {
			s.log.Warn("delete user rejected", zap.Int64("id", id), zap.Error(err))
		}
		return err
	}
	s.log.Info("user deleted", zap.Int64("id", id))
	return nil
}

func usernameFree(ctx context.Context, q repository.Queries, username string, selfID int64) error {
	other, err := q.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return errors.Wrapf(errs.ErrConflict, "username %q is already taken", username)
	}
	return nil
}
