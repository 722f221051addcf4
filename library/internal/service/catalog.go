package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
)

// Catalog owns categories, book titles and copies. Copy status is only
// touched here by the soft delete; rentals drive every other transition.
type Catalog struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewCatalog(repo repository.Repository, log *zap.Logger) *Catalog {
	return &Catalog{
		log:  log.Named("catalog"),
		repo: repo,
	}
}

func (s *Catalog) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.repo.ListCategories(ctx)
	return orEmpty(cats), err
}

func (s *Catalog) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// Subcategories lists the direct children of an existing category.
func (s *Catalog) Subcategories(ctx context.Context, parentID int64) ([]model.Category, error) {
	if _, err := s.repo.GetCategory(ctx, parentID); err != nil {
		return nil, err
	}
	cats, err := s.repo.ListSubcategories(ctx, parentID)
	return orEmpty(cats), err
}

func (s *Catalog) CreateCategory(ctx context.Context, name string, parentID *int64) (model.Category, error) {
	name, err := required("category name", name)
	if err != nil {
		return model.Category{}, err
	}
	var cat model.Category
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		if parentID != nil {
			if _, err := q.GetCategory(ctx, *parentID); err != nil {
				return errors.Wrap(err, "parent")
			}
		}
		taken, err := q.CategoryExistsByName(ctx, name)
		if err != nil {
			return err
		}
		if taken {
			return errors.Wrapf(errs.ErrConflict, "category %q already exists", name)
		}
		cat, err = q.CreateCategory(ctx, name, parentID)
		return err
	})
	if err != nil {
		return model.Category{}, err
	}
	s.log.Info("category created", zap.Int64("id", cat.ID), zap.String("name", cat.Name))
	return cat, nil
}

// UpdateCategory renames and re-parents a category; a nil parent makes it a root.
func (s *Catalog) UpdateCategory(ctx context.Context, id int64, name string, parentID *int64) (model.Category, error) {
	name, err := required("category name", name)
	if err != nil {
		return model.Category{}, err
	}
	if parentID != nil && *parentID == id {
		return model.Category{}, errors.Wrapf(errs.ErrInvalidArgument, "category %d cannot be its own parent", id)
	}
	var cat model.Category
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return err
		}
		if parentID != nil {
			if err := q.LockCategoryTree(ctx); err != nil {
				return err
			}
			ancestors, err := q.CategoryAncestorIDs(ctx, *parentID)
			if err != nil {
				return errors.Wrap(err, "parent")
			}
			for _, a := range ancestors {
				if a == id {
					return errors.Wrapf(errs.ErrInvalidArgument,
						"category %d is an ancestor of %d, moving would create a cycle", id, *parentID)
				}
			}
		}
		cat, err = q.UpdateCategory(ctx, model.Category{ID: id, Name: name, ParentID: parentID})
		return err
	})
	if err != nil {
		return model.Category{}, err
	}
	s.log.Info("category updated", zap.Int64("id", cat.ID), zap.String("name", cat.Name))
	return cat, nil
}

func (s *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return err
		}
		children, err := q.ListSubcategories(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return errors.Wrapf(errs.ErrConflict, "category %d has %d subcategories", id, len(children))
		}
		inUse, err := q.CategoryInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return errors.Wrapf(errs.ErrConflict, "category %d is referenced by book titles", id)
		}
		return q.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("category deleted", zap.Int64("id", id))
	return nil
}

// AddCatalogEntry creates a title together with its first copy.
func (s *Catalog) AddCatalogEntry(ctx context.Context, title, author string, categoryID, serial int64) (model.CatalogEntry, error) {
	title, err := required("title", title)
	if err != nil {
		return model.CatalogEntry{}, err
	}
	if author, err = required("author", author); err != nil {
		return model.CatalogEntry{}, err
	}
	if err := validID("serial number", serial); err != nil {
		return model.CatalogEntry{}, err
	}

	var entry model.CatalogEntry
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetCategory(ctx, categoryID); err != nil {
			return err
		}
		inUse, err := q.SerialInUse(ctx, serial)
		if err != nil {
			return err
		}
		if inUse {
			return errors.Wrapf(errs.ErrConflict, "serial number %d is already in use", serial)
		}
		if entry.Info, err = q.CreateBookInfo(ctx, title, author, categoryID); err != nil {
			return err
		}
		entry.Copy, err = q.CreateCopy(ctx, entry.Info.ID, serial)
		return err
	})
	if err != nil {
		return model.CatalogEntry{}, err
	}
	s.log.Info("catalog entry added",
		zap.Int64("book_info_id", entry.Info.ID),
		zap.Int64("copy_id", entry.Copy.ID),
		zap.Int64("serial", serial))
	return entry, nil
}

// UpdateBookInfo edits the title behind a copy. expectedBookInfoID guards
// against editing a title the caller did not look at.
func (s *Catalog) UpdateBookInfo(ctx context.Context, copyID int64, title, author string, categoryID, expectedBookInfoID int64) (model.BookInfo, error) {
	title, err := required("title", title)
	if err != nil {
		return model.BookInfo{}, err
	}
	if author, err = required("author", author); err != nil {
		return model.BookInfo{}, err
	}

	var info model.BookInfo
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		c, err := q.GetCopy(ctx, copyID)
		if err != nil {
			return err
		}
		if c.BookInfoID != expectedBookInfoID {
			return errors.Wrapf(errs.ErrInvalidArgument,
				"copy %d belongs to book info %d, not %d", copyID, c.BookInfoID, expectedBookInfoID)
		}
		if _, err := q.GetCategory(ctx, categoryID); err != nil {
			return err
		}
		info, err = q.UpdateBookInfo(ctx, model.BookInfo{
			ID:         c.BookInfoID,
			Title:      title,
			Author:     author,
			CategoryID: categoryID,
		})
		return err
	})
	if err != nil {
		return model.BookInfo{}, err
	}
	s.log.Info("book info updated", zap.Int64("book_info_id", info.ID), zap.String("title", info.Title))
	return info, nil
}

// DeleteCopy soft deletes a copy that is not rented. Deleting twice is a no-op.
func (s *Catalog) DeleteCopy(ctx context.Context, copyID int64) error {
	var prev model.CopyStatus
	err := s.repo.InTx(ctx, func(q repository.Queries) error {
		c, err := q.LockCopy(ctx, copyID)
		if err != nil {
			return err
		}
		prev = c.Status
		next, err := c.Status.Transition(model.EventDelete)
		if err != nil {
			return errors.Wrapf(err, "copy %d", copyID)
		}
		if next == c.Status {
			return nil
		}
		return q.SetCopyStatus(ctx, copyID, next)
	})
	if err != nil {
		return err
	}
	if prev != model.CopyDeleted {
		s.log.Info("copy deleted", zap.Int64("copy_id", copyID))
	}
	return nil
}

func (s *Catalog) GetCopy(ctx context.Context, id int64) (model.BookCopy, error) {
	return s.repo.GetCopy(ctx, id)
}

// ListCopies returns the copies still in circulation.
func (s *Catalog) ListCopies(ctx context.Context) ([]model.BookCopy, error) {
	copies, err := s.repo.ListCopies(ctx)
	return orEmpty(copies), err
}
