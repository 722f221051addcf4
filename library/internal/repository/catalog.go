package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
)

var (
	bookInfoColumns = []string{"id", "title", "author", "category_id"}
	bookCopyColumns = []string{"id", "serial_number", "status", "book_info_id"}
)

func (r *queries) CreateBookInfo(ctx context.Context, title, author string, categoryID int64) (model.BookInfo, error) {
	info, err := selectOne[model.BookInfo](ctx, r.db,
		qb.Insert(bookInfoTableName).
			Columns("title", "author", "category_id").
			Values(title, author, categoryID).
			Suffix("returning id, title, author, category_id"))
	if err != nil {
		return model.BookInfo{}, errors.Wrap(err, "create book info")
	}
	return info, nil
}

func (r *queries) GetBookInfo(ctx context.Context, id int64) (model.BookInfo, error) {
	info, err := selectOne[model.BookInfo](ctx, r.db,
		qb.Select(bookInfoColumns...).
			From(bookInfoTableName).
			Where(sq.Eq{"id": id}))
	if err != nil {
		return model.BookInfo{}, errors.Wrapf(err, "book info %d", id)
	}
	return info, nil
}

func (r *queries) UpdateBookInfo(ctx context.Context, info model.BookInfo) (model.BookInfo, error) {
	updated, err := selectOne[model.BookInfo](ctx, r.db,
		qb.Update(bookInfoTableName).
			Set("title", info.Title).
			Set("author", info.Author).
			Set("category_id", info.CategoryID).
			Where(sq.Eq{"id": info.ID}).
			Suffix("returning id, title, author, category_id"))
	if err != nil {
		return model.BookInfo{}, errors.Wrapf(err, "book info %d", info.ID)
	}
	return updated, nil
}

// SerialInUse only looks at live copies; a deleted copy frees its serial.
func (r *queries) SerialInUse(ctx context.Context, serial int64) (bool, error) {
	return exists(ctx, r.db,
		qb.Select("1").
			From(bookCopyTableName).
			Where(sq.Eq{"serial_number": serial}).
			Where(sq.NotEq{"status": model.CopyDeleted}))
}

func (r *queries) CreateCopy(ctx context.Context, bookInfoID, serial int64) (model.BookCopy, error) {
	c, err := selectOne[model.BookCopy](ctx, r.db,
		qb.Insert(bookCopyTableName).
			Columns("serial_number", "status", "book_info_id").
			Values(serial, model.CopyAvailable, bookInfoID).
			Suffix("returning id, serial_number, status, book_info_id"))
	if err != nil {
		return model.BookCopy{}, errors.Wrap(err, "create copy")
	}
	return c, nil
}

func (r *queries) GetCopy(ctx context.Context, id int64) (model.BookCopy, error) {
	c, err := selectOne[model.BookCopy](ctx, r.db,
		qb.Select(bookCopyColumns...).
			From(bookCopyTableName).
			Where(sq.Eq{"id": id}))
	if err != nil {
		return model.BookCopy{}, errors.Wrapf(err, "copy %d", id)
	}
	return c, nil
}

// LockCopy reads the copy and holds its row lock until the transaction ends.
func (r *queries) LockCopy(ctx context.Context, id int64) (model.BookCopy, error) {
	c, err := selectOne[model.BookCopy](ctx, r.db,
		qb.Select(bookCopyColumns...).
			From(bookCopyTableName).
			Where(sq.Eq{"id": id}).
			Suffix("for update"))
	if err != nil {
		return model.BookCopy{}, errors.Wrapf(err, "copy %d", id)
	}
	return c, nil
}

func (r *queries) ListCopies(ctx context.Context) ([]model.BookCopy, error) {
	return selectMany[model.BookCopy](ctx, r.db,
		qb.Select(bookCopyColumns...).
			From(bookCopyTableName).
			Where(sq.NotEq{"status": model.CopyDeleted}).
			OrderBy("id"))
}

func (r *queries) SetCopyStatus(ctx context.Context, id int64, status model.CopyStatus) error {
	n, err := exec(ctx, r.db,
		qb.Update(bookCopyTableName).
			Set("status", status).
			Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrapf(err, "copy %d", id)
	}
	if n == 0 {
		return errors.Wrapf(errs.ErrNotFound, "copy %d", id)
	}
	return nil
}
