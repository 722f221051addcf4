package handler

import (
	"context"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (model.Category, error)
	Subcategories(ctx context.Context, parentID int64) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string, parentID *int64) (model.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, parentID *int64) (model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	AddCatalogEntry(ctx context.Context, title, author string, categoryID, serial int64) (model.CatalogEntry, error)
	UpdateBookInfo(ctx context.Context, copyID int64, title, author string, categoryID, expectedBookInfoID int64) (model.BookInfo, error)
	DeleteCopy(ctx context.Context, copyID int64) error
	GetCopy(ctx context.Context, id int64) (model.BookCopy, error)
	ListCopies(ctx context.Context) ([]model.BookCopy, error)
}

type RentalService interface {
	Rent(ctx context.Context, actor model.Actor, copyID int64) (model.Rental, error)
	Return(ctx context.Context, copyID int64, actor model.Actor) (model.Rental, error)
	Overdue(ctx context.Context, userID *int64) ([]model.Rental, error)
	ByUser(ctx context.Context, userID int64) ([]model.Rental, error)
	ByCopy(ctx context.Context, copyID int64) ([]model.Rental, error)
	All(ctx context.Context) ([]model.Rental, error)
}

type AuditService interface {
	ByUser(ctx context.Context, userID int64) ([]model.AuditLogEntry, error)
	ByCopy(ctx context.Context, copyID int64) ([]model.AuditLogEntry, error)
	All(ctx context.Context) ([]model.AuditLogEntry, error)
}

type UserService interface {
	Get(ctx context.Context, id int64) (model.User, error)
	ByUsername(ctx context.Context, username string) (model.User, error)
	Register(ctx context.Context, username, passwordHash, role string) (model.User, error)
	UpdateFields(ctx context.Context, id int64, patch model.UserPatch) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

var (
	_ CatalogService = (*service.Catalog)(nil)
	_ RentalService  = (*service.Rental)(nil)
	_ AuditService   = (*service.Audit)(nil)
	_ UserService    = (*service.Users)(nil)
)
