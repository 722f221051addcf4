package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -destination=mocks/mock.go -package=mock_repository github.com/Astemirdum/library-management/library/internal/repository Repository

// Queries is the set of statements available both on the pool and inside a
// transaction started by Repository.InTx.
type Queries interface {
	GetCategory(ctx context.Context, id int64) (model.Category, error)
	CategoryExistsByName(ctx context.Context, name string) (bool, error)
	LockCategoryTree(ctx context.Context) error
	CategoryAncestorIDs(ctx context.Context, id int64) ([]int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListSubcategories(ctx context.Context, parentID int64) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string, parentID *int64) (model.Category, error)
	UpdateCategory(ctx context.Context, c model.Category) (model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryInUse(ctx context.Context, id int64) (bool, error)

	CreateBookInfo(ctx context.Context, title, author string, categoryID int64) (model.BookInfo, error)
	GetBookInfo(ctx context.Context, id int64) (model.BookInfo, error)
	UpdateBookInfo(ctx context.Context, info model.BookInfo) (model.BookInfo, error)
	SerialInUse(ctx context.Context, serial int64) (bool, error)
	CreateCopy(ctx context.Context, bookInfoID, serial int64) (model.BookCopy, error)
	GetCopy(ctx context.Context, id int64) (model.BookCopy, error)
	LockCopy(ctx context.Context, id int64) (model.BookCopy, error)
	ListCopies(ctx context.Context) ([]model.BookCopy, error)
	SetCopyStatus(ctx context.Context, id int64, status model.CopyStatus) error

	CreateRental(ctx context.Context, r model.Rental) (model.Rental, error)
	LockOpenRental(ctx context.Context, copyID int64) (model.Rental, error)
	CloseRental(ctx context.Context, id int64, returnedAt time.Time) (model.Rental, error)
	ListRentals(ctx context.Context, f RentalFilter) ([]model.Rental, error)

	AppendAudit(ctx context.Context, e model.AuditLogEntry) (model.AuditLogEntry, error)
	ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditLogEntry, error)

	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	LockUser(ctx context.Context, id int64, mode LockMode) (model.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (model.User, error)
	UpdateUser(ctx context.Context, u model.User) (model.User, error)
	SetUserRole(ctx context.Context, userID int64, role model.Role) error
	SoftDeleteUser(ctx context.Context, id int64, at time.Time) error
}

type Repository interface {
	Queries
	// InTx runs fn in a read committed transaction, committing when fn
	// returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

type RentalFilter struct {
	UserID    *int64
	CopyID    *int64
	OpenOnly  bool
	DueBefore *time.Time
}

type AuditFilter struct {
	UserID *int64
	CopyID *int64
}

type LockMode uint8

const (
	LockShare LockMode = iota + 1
	LockUpdate
)

func (m LockMode) clause() string {
	if m == LockUpdate {
		return "for update"
	}
	return "for share"
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db  DBTX
	log *zap.Logger
}

type repository struct {
	queries
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	if pool == nil {
		return nil, errors.New("nil pool")
	}
	log = log.Named("repo")
	return &repository{
		queries: queries{db: pool, log: log},
		pool:    pool,
	}, nil
}

const (
	categoriesTableName = `categories`
	bookInfoTableName   = `book_info`
	bookCopyTableName   = `book_copy`
	rentalsTableName    = `rentals`
	auditLogTableName   = `audit_log`
	usersTableName      = `users`
	rolesTableName      = `roles`
	userRolesTableName  = `user_roles`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) InTx(ctx context.Context, fn func(q Queries) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.Background())
			panic(p)
		}
		r.rollbackOrCommit(ctx, tx, &err)
	}()

	return fn(&queries{db: tx, log: r.log})
}

func (r *repository) rollbackOrCommit(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(context.Background()); rbErr != nil {
			r.log.Error("tx rollback", zap.Error(rbErr), zap.NamedError("cause", *err))
		}
		return
	}
	if cmErr := tx.Commit(ctx); cmErr != nil {
		*err = mapErr(errors.Wrap(cmErr, "commit"))
	}
}

func selectOne[T any](ctx context.Context, db DBTX, b sq.Sqlizer) (T, error) {
	var zero T
	query, args, err := b.ToSql()
	if err != nil {
		return zero, errors.Wrap(err, "build query")
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return zero, mapErr(err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, errs.ErrNotFound
		}
		return zero, mapErr(err)
	}
	return item, nil
}

func selectMany[T any](ctx context.Context, db DBTX, b sq.Sqlizer) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, mapErr(errors.Wrap(err, "pgx.CollectRows"))
	}
	return items, nil
}

func selectScalars[T any](ctx context.Context, db DBTX, b sq.Sqlizer) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowTo[T])
	if err != nil {
		return nil, mapErr(errors.Wrap(err, "pgx.CollectRows"))
	}
	return items, nil
}

func exists(ctx context.Context, db DBTX, b sq.SelectBuilder) (bool, error) {
	query, args, err := b.Prefix("select exists(").Suffix(")").ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build query")
	}
	var ok bool
	if err := db.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}

func exec(ctx context.Context, db DBTX, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "build query")
	}
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

var uniqueSubjects = map[string]string{
	"categories_name_key":              "category name",
	"book_info_title_key":              "book title",
	"book_copy_serial_number_live_idx": "serial number",
	"users_username_live_idx":          "username",
	"rentals_open_copy_idx":            "open rental for this copy",
}

// mapErr translates constraint and lock failures into domain errors.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		subject, ok := uniqueSubjects[pgErr.ConstraintName]
		if !ok {
			subject = pgErr.ConstraintName
		}
		return errors.Wrapf(errs.ErrConflict, "%s already exists", subject)
	case pgerrcode.ForeignKeyViolation:
		return errors.Wrapf(errs.ErrConflict, "violates reference %s", pgErr.ConstraintName)
	case pgerrcode.CheckViolation:
		return errors.Wrapf(errs.ErrInvalidArgument, "violates check %s", pgErr.ConstraintName)
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return errors.Wrap(errs.ErrConflict, "concurrent update, retry")
	}
	return err
}
