package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
)

var categoryColumns = []string{"id", "name", "parent_id"}

func (r *queries) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	c, err := selectOne[model.Category](ctx, r.db,
		qb.Select(categoryColumns...).
			From(categoriesTableName).
			Where(sq.Eq{"id": id}))
	if err != nil {
		return model.Category{}, errors.Wrapf(err, "category %d", id)
	}
	return c, nil
}

func (r *queries) CategoryExistsByName(ctx context.Context, name string) (bool, error) {
	return exists(ctx, r.db,
		qb.Select("1").
			From(categoriesTableName).
			Where(sq.Eq{"name": name}))
}

// categoryTreeLockKey names the advisory lock held while the tree is re-parented.
const categoryTreeLockKey int64 = 0x6c6962636174 // "libcat"

// LockCategoryTree serializes re-parenting until the transaction ends, so an
// ancestor chain read afterwards cannot be changed by a concurrent move.
func (r *queries) LockCategoryTree(ctx context.Context) error {
	if _, err := exec(ctx, r.db, sq.Expr("select pg_advisory_xact_lock($1)", categoryTreeLockKey)); err != nil {
		return errors.Wrap(err, "lock category tree")
	}
	return nil
}

// CategoryAncestorIDs returns id followed by every ancestor up to the root.
func (r *queries) CategoryAncestorIDs(ctx context.Context, id int64) ([]int64, error) {
	ids, err := selectScalars[int64](ctx, r.db, sq.Expr(fmt.Sprintf(`
with recursive chain (id, parent_id, depth) as (
    select id, parent_id, 0 from %[1]s where id = $1
    union all
    select c.id, c.parent_id, chain.depth + 1
    from %[1]s c
        join chain on c.id = chain.parent_id
    where chain.depth < 1000
)
select id from chain order by depth`, categoriesTableName), id))
	if err != nil {
		return nil, errors.Wrapf(err, "ancestors of category %d", id)
	}
	if len(ids) == 0 {
		return nil, errors.Wrapf(errs.ErrNotFound, "category %d", id)
	}
	return ids, nil
}

func (r *queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	return selectMany[model.Category](ctx, r.db,
		qb.Select(categoryColumns...).
			From(categoriesTableName).
			OrderBy("id"))
}

func (r *queries) ListSubcategories(ctx context.Context, parentID int64) ([]model.Category, error) {
	return selectMany[model.Category](ctx, r.db,
		qb.Select(categoryColumns...).
			From(categoriesTableName).
			Where(sq.Eq{"parent_id": parentID}).
			OrderBy("id"))
}

func (r *queries) CreateCategory(ctx context.Context, name string, parentID *int64) (model.Category, error) {
	c, err := selectOne[model.Category](ctx, r.db,
		qb.Insert(categoriesTableName).
			Columns("name", "parent_id").
			Values(name, parentID).
			Suffix("returning id, name, parent_id"))
	if err != nil {
		return model.Category{}, errors.Wrap(err, "create category")
	}
	return c, nil
}

func (r *queries) UpdateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	updated, err := selectOne[model.Category](ctx, r.db,
		qb.Update(categoriesTableName).
			Set("name", c.Name).
			Set("parent_id", c.ParentID).
			Where(sq.Eq{"id": c.ID}).
			Suffix("returning id, name, parent_id"))
	if err != nil {
		return model.Category{}, errors.Wrapf(err, "category %d", c.ID)
	}
	return updated, nil
}

func (r *queries) DeleteCategory(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db,
		qb.Delete(categoriesTableName).
			Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrapf(err, "delete category %d", id)
	}
	if n == 0 {
		return errors.Wrapf(errs.ErrNotFound, "category %d", id)
	}
	return nil
}

// CategoryInUse reports whether any title is filed under the category.
func (r *queries) CategoryInUse(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db,
		qb.Select("1").
			From(bookInfoTableName).
			Where(sq.Eq{"category_id": id}))
}
