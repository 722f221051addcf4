package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	repo_mocks "github.com/Astemirdum/library-management/library/internal/repository/mocks"
	"github.com/Astemirdum/library-management/library/internal/service"
)

func int64Ptr(v int64) *int64 { return &v }

func newCatalog(t *testing.T, mockBehavior func(r *repo_mocks.MockRepository)) *service.Catalog {
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	repo := repo_mocks.NewMockRepository(c)
	mockBehavior(repo)
	return service.NewCatalog(repo, zap.NewNop())
}

func TestCatalog_CreateCategory(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		catName      string
		parentID     *int64
		mockBehavior func(r *repo_mocks.MockRepository)
		want         model.Category
		wantErr      error
	}{
		{
			name:     "ok. child",
			catName:  " Fiction ",
			parentID: int64Ptr(1),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{ID: 1, Name: "Books"}, nil)
				r.EXPECT().CategoryExistsByName(gomock.Any(), "Fiction").Return(false, nil)
				r.EXPECT().CreateCategory(gomock.Any(), "Fiction", int64Ptr(1)).
					Return(model.Category{ID: 2, Name: "Fiction", ParentID: int64Ptr(1)}, nil)
			},
			want: model.Category{ID: 2, Name: "Fiction", ParentID: int64Ptr(1)},
		},
		{
			name:    "err. duplicate name",
			catName: "Fiction",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().CategoryExistsByName(gomock.Any(), "Fiction").Return(true, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name:     "err. missing parent",
			catName:  "Fiction",
			parentID: int64Ptr(42),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(42)).Return(model.Category{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:         "err. blank name",
			catName:      "  ",
			mockBehavior: func(r *repo_mocks.MockRepository) {},
			wantErr:      errs.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCatalog(t, tt.mockBehavior)
			got, err := svc.CreateCategory(context.Background(), tt.catName, tt.parentID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_UpdateCategory(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		id           int64
		parentID     *int64
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
	}{
		{
			name:     "ok. move under sibling",
			id:       2,
			parentID: int64Ptr(3),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(2)).Return(model.Category{ID: 2, Name: "Old"}, nil)
				r.EXPECT().LockCategoryTree(gomock.Any()).Return(nil)
				r.EXPECT().CategoryAncestorIDs(gomock.Any(), int64(3)).Return([]int64{3, 1}, nil)
				r.EXPECT().UpdateCategory(gomock.Any(), model.Category{ID: 2, Name: "New", ParentID: int64Ptr(3)}).
					Return(model.Category{ID: 2, Name: "New", ParentID: int64Ptr(3)}, nil)
			},
		},
		{
			name: "ok. detach to root",
			id:   2,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(2)).Return(model.Category{ID: 2, Name: "Old", ParentID: int64Ptr(1)}, nil)
				r.EXPECT().UpdateCategory(gomock.Any(), model.Category{ID: 2, Name: "New"}).
					Return(model.Category{ID: 2, Name: "New"}, nil)
			},
		},
		{
			name:         "err. own parent",
			id:           2,
			parentID:     int64Ptr(2),
			mockBehavior: func(r *repo_mocks.MockRepository) {},
			wantErr:      errs.ErrInvalidArgument,
		},
		{
			name:     "err. cycle through descendant",
			id:       1,
			parentID: int64Ptr(3),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{ID: 1, Name: "Root"}, nil)
				r.EXPECT().LockCategoryTree(gomock.Any()).Return(nil)
				r.EXPECT().CategoryAncestorIDs(gomock.Any(), int64(3)).Return([]int64{3, 2, 1}, nil)
			},
			wantErr: errs.ErrInvalidArgument,
		},
		{
			name:     "err. tree lock",
			id:       2,
			parentID: int64Ptr(3),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(2)).Return(model.Category{ID: 2}, nil)
				r.EXPECT().LockCategoryTree(gomock.Any()).Return(errors.Wrap(errs.ErrConflict, "concurrent update, retry"))
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "err. not found",
			id:   9,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(9)).Return(model.Category{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:     "err. parent not found",
			id:       2,
			parentID: int64Ptr(99),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(2)).Return(model.Category{ID: 2}, nil)
				r.EXPECT().LockCategoryTree(gomock.Any()).Return(nil)
				r.EXPECT().CategoryAncestorIDs(gomock.Any(), int64(99)).Return(nil, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCatalog(t, tt.mockBehavior)
			got, err := svc.UpdateCategory(context.Background(), tt.id, "New", tt.parentID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.parentID, got.ParentID)
		})
	}
}

func TestCatalog_DeleteCategory(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
	}{
		{
			name: "ok",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{ID: 1}, nil)
				r.EXPECT().ListSubcategories(gomock.Any(), int64(1)).Return(nil, nil)
				r.EXPECT().CategoryInUse(gomock.Any(), int64(1)).Return(false, nil)
				r.EXPECT().DeleteCategory(gomock.Any(), int64(1)).Return(nil)
			},
		},
		{
			name: "err. has children",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{ID: 1}, nil)
				r.EXPECT().ListSubcategories(gomock.Any(), int64(1)).
					Return([]model.Category{{ID: 2, ParentID: int64Ptr(1)}}, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "err. referenced by titles",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{ID: 1}, nil)
				r.EXPECT().ListSubcategories(gomock.Any(), int64(1)).Return(nil, nil)
				r.EXPECT().CategoryInUse(gomock.Any(), int64(1)).Return(true, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "err. not found",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCatalog(t, tt.mockBehavior)
			err := svc.DeleteCategory(context.Background(), 1)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalog_AddCatalogEntry(t *testing.T) {
	t.Parallel()
	const (
		categoryID int64 = 1
		serial     int64 = 100000
	)
	tests := []struct {
		name         string
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
	}{
		{
			name: "ok",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), categoryID).Return(model.Category{ID: categoryID}, nil)
				r.EXPECT().SerialInUse(gomock.Any(), serial).Return(false, nil)
				r.EXPECT().CreateBookInfo(gomock.Any(), "Dune", "Frank Herbert", categoryID).
					Return(model.BookInfo{ID: 5, Title: "Dune", Author: "Frank Herbert", CategoryID: categoryID}, nil)
				r.EXPECT().CreateCopy(gomock.Any(), int64(5), serial).
					Return(model.BookCopy{ID: 7, SerialNumber: serial, Status: model.CopyAvailable, BookInfoID: 5}, nil)
			},
		},
		{
			name: "err. serial in use",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), categoryID).Return(model.Category{ID: categoryID}, nil)
				r.EXPECT().SerialInUse(gomock.Any(), serial).Return(true, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "err. category not found",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCategory(gomock.Any(), categoryID).Return(model.Category{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCatalog(t, tt.mockBehavior)
			got, err := svc.AddCatalogEntry(context.Background(), "Dune", "Frank Herbert", categoryID, serial)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.CopyAvailable, got.Copy.Status)
			require.Equal(t, got.Info.ID, got.Copy.BookInfoID)
		})
	}
}

func TestCatalog_UpdateBookInfo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		expectedInfo int64
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
	}{
		{
			name:         "ok",
			expectedInfo: 5,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCopy(gomock.Any(), int64(7)).Return(model.BookCopy{ID: 7, BookInfoID: 5}, nil)
				r.EXPECT().GetCategory(gomock.Any(), int64(2)).Return(model.Category{ID: 2}, nil)
				r.EXPECT().UpdateBookInfo(gomock.Any(), model.BookInfo{ID: 5, Title: "Dune Messiah", Author: "Frank Herbert", CategoryID: 2}).
					Return(model.BookInfo{ID: 5, Title: "Dune Messiah", Author: "Frank Herbert", CategoryID: 2}, nil)
			},
		},
		{
			name:         "err. stale book info id",
			expectedInfo: 4,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCopy(gomock.Any(), int64(7)).Return(model.BookCopy{ID: 7, BookInfoID: 5}, nil)
			},
			wantErr: errs.ErrInvalidArgument,
		},
		{
			name:         "err. copy not found",
			expectedInfo: 5,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCopy(gomock.Any(), int64(7)).Return(model.BookCopy{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:         "err. category not found",
			expectedInfo: 5,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().GetCopy(gomock.Any(), int64(7)).Return(model.BookCopy{ID: 7, BookInfoID: 5}, nil)
				r.EXPECT().GetCategory(gomock.Any(), int64(2)).Return(model.Category{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCatalog(t, tt.mockBehavior)
			got, err := svc.UpdateBookInfo(context.Background(), 7, "Dune Messiah", "Frank Herbert", 2, tt.expectedInfo)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Dune Messiah", got.Title)
		})
	}
}

func TestCatalog_DeleteCopy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		mockBehavior func(r *repo_mocks.MockRepository)
		wantErr      error
	}{
		{
			name: "ok",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), int64(7)).Return(model.BookCopy{ID: 7, Status: model.CopyAvailable}, nil)
				r.EXPECT().SetCopyStatus(gomock.Any(), int64(7), model.CopyDeleted).Return(nil)
			},
		},
		{
			name: "ok. already deleted",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), int64(7)).Return(model.BookCopy{ID: 7, Status: model.CopyDeleted}, nil)
			},
		},
		{
			name: "err. rented",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), int64(7)).Return(model.BookCopy{ID: 7, Status: model.CopyRented}, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name: "err. not found",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), int64(7)).Return(model.BookCopy{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCatalog(t, tt.mockBehavior)
			err := svc.DeleteCopy(context.Background(), 7)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalog_Reads(t *testing.T) {
	t.Parallel()
	svc := newCatalog(t, func(r *repo_mocks.MockRepository) {
		r.EXPECT().ListCategories(gomock.Any()).Return(nil, nil)
		r.EXPECT().GetCategory(gomock.Any(), int64(1)).Return(model.Category{ID: 1}, nil)
		r.EXPECT().ListSubcategories(gomock.Any(), int64(1)).Return([]model.Category{{ID: 2, ParentID: int64Ptr(1)}}, nil)
		r.EXPECT().GetCategory(gomock.Any(), int64(9)).Return(model.Category{}, errs.ErrNotFound)
		r.EXPECT().ListCopies(gomock.Any()).Return(nil, nil)
	})
	ctx := context.Background()

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.NotNil(t, cats)

	subs, err := svc.Subcategories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	_, err = svc.Subcategories(ctx, 9)
	require.ErrorIs(t, err, errs.ErrNotFound)

	copies, err := svc.ListCopies(ctx)
	require.NoError(t, err)
	require.Empty(t, copies)
}
