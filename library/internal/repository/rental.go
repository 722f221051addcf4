package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-management/library/internal/model"
)

var rentalColumns = []string{"id", "user_id", "book_copy_id", "rented_at", "due_date", "returned_at"}

const rentalReturning = "returning id, user_id, book_copy_id, rented_at, due_date, returned_at"

func (r *queries) CreateRental(ctx context.Context, rental model.Rental) (model.Rental, error) {
	created, err := selectOne[model.Rental](ctx, r.db,
		qb.Insert(rentalsTableName).
			Columns("user_id", "book_copy_id", "rented_at", "due_date").
			Values(rental.UserID, rental.CopyID, rental.RentedAt, rental.DueDate).
			Suffix(rentalReturning))
	if err != nil {
		return model.Rental{}, errors.Wrapf(err, "rent copy %d", rental.CopyID)
	}
	return created, nil
}

// LockOpenRental returns the open rental of a copy with its row locked.
func (r *queries) LockOpenRental(ctx context.Context, copyID int64) (model.Rental, error) {
	rental, err := selectOne[model.Rental](ctx, r.db,
		qb.Select(rentalColumns...).
			From(rentalsTableName).
			Where(sq.Eq{"book_copy_id": copyID}).
			Where(sq.Eq{"returned_at": nil}).
			Suffix("for update"))
	if err != nil {
		return model.Rental{}, errors.Wrapf(err, "open rental for copy %d", copyID)
	}
	return rental, nil
}

func (r *queries) CloseRental(ctx context.Context, id int64, returnedAt time.Time) (model.Rental, error) {
	rental, err := selectOne[model.Rental](ctx, r.db,
		qb.Update(rentalsTableName).
			Set("returned_at", returnedAt).
			Where(sq.Eq{"id": id}).
			Where(sq.Eq{"returned_at": nil}).
			Suffix(rentalReturning))
	if err != nil {
		return model.Rental{}, errors.Wrapf(err, "close rental %d", id)
	}
	return rental, nil
}

func (r *queries) ListRentals(ctx context.Context, f RentalFilter) ([]model.Rental, error) {
	q := qb.Select(rentalColumns...).
		From(rentalsTableName).
		OrderBy("id")
	if f.UserID != nil {
		q = q.Where(sq.Eq{"user_id": *f.UserID})
	}
	if f.CopyID != nil {
		q = q.Where(sq.Eq{"book_copy_id": *f.CopyID})
	}
	if f.OpenOnly {
		q = q.Where(sq.Eq{"returned_at": nil})
	}
	if f.DueBefore != nil {
		q = q.Where(sq.Lt{"due_date": *f.DueBefore})
	}
	return selectMany[model.Rental](ctx, r.db, q)
}
