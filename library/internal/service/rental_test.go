package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
	repo_mocks "github.com/Astemirdum/library-management/library/internal/repository/mocks"
	"github.com/Astemirdum/library-management/library/internal/service"
)

var (
	now      = time.Date(2024, 5, 1, 10, 30, 15, 987654321, time.UTC)
	nowTrunc = now.Truncate(time.Second)
	clock    = func() time.Time { return now }
)

// expectTx runs the transaction body against the same mock.
func expectTx(r *repo_mocks.MockRepository) *gomock.Call {
	return r.EXPECT().
		InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(q repository.Queries) error) error {
			return fn(r)
		})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.RentalEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.RentalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func TestRental_Rent(t *testing.T) {
	t.Parallel()
	const (
		copyID int64 = 10
		userID int64 = 1
	)
	actor := model.Actor{ID: userID}
	want := model.Rental{
		ID:       100,
		UserID:   userID,
		CopyID:   copyID,
		RentedAt: nowTrunc,
		DueDate:  nowTrunc.Add(7 * 24 * time.Hour),
	}
	type mockBehavior func(r *repo_mocks.MockRepository)

	tests := []struct {
		name         string
		actor        model.Actor
		mockBehavior mockBehavior
		publishErr   error
		want         model.Rental
		wantErr      error
		wantEvents   int
	}{
		{
			name:  "ok",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				ctx := context.Background()
				gomock.InOrder(
					expectTx(r),
					r.EXPECT().LockCopy(ctx, copyID).
						Return(model.BookCopy{ID: copyID, Status: model.CopyAvailable, SerialNumber: 100000, BookInfoID: 3}, nil),
					r.EXPECT().LockUser(ctx, userID, repository.LockShare).
						Return(model.User{ID: userID, Username: "u"}, nil),
					r.EXPECT().CreateRental(ctx, model.Rental{
						UserID:   userID,
						CopyID:   copyID,
						RentedAt: nowTrunc,
						DueDate:  nowTrunc.Add(model.LoanPeriod),
					}).Return(want, nil),
					r.EXPECT().SetCopyStatus(ctx, copyID, model.CopyRented).Return(nil),
					r.EXPECT().AppendAudit(ctx, model.AuditLogEntry{
						UserID:    userID,
						CopyID:    copyID,
						Action:    model.ActionRented,
						CreatedAt: nowTrunc,
					}).Return(model.AuditLogEntry{ID: 1}, nil),
				)
			},
			want:       want,
			wantEvents: 1,
		},
		{
			name:  "ok. publish failure does not undo the rental",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyAvailable}, nil)
				r.EXPECT().LockUser(gomock.Any(), userID, repository.LockShare).Return(model.User{ID: userID}, nil)
				r.EXPECT().CreateRental(gomock.Any(), gomock.Any()).Return(want, nil)
				r.EXPECT().SetCopyStatus(gomock.Any(), copyID, model.CopyRented).Return(nil)
				r.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(model.AuditLogEntry{ID: 1}, nil)
			},
			publishErr: errors.New("broker down"),
			want:       want,
			wantEvents: 1,
		},
		{
			name:  "err. copy not found",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:  "err. copy already rented",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyRented}, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name:  "err. copy deleted",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyDeleted}, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name:  "err. renter deleted",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyAvailable}, nil)
				r.EXPECT().LockUser(gomock.Any(), userID, repository.LockShare).Return(model.User{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:  "err. lost race on open rental index",
			actor: actor,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyAvailable}, nil)
				r.EXPECT().LockUser(gomock.Any(), userID, repository.LockShare).Return(model.User{ID: userID}, nil)
				r.EXPECT().CreateRental(gomock.Any(), gomock.Any()).
					Return(model.Rental{}, errors.Wrap(errs.ErrConflict, "open rental for this copy already exists"))
			},
			wantErr: errs.ErrConflict,
		},
		{
			name:         "err. invalid actor",
			actor:        model.Actor{},
			mockBehavior: func(r *repo_mocks.MockRepository) {},
			wantErr:      errs.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			pub := &recordingPublisher{err: tt.publishErr}
			svc := service.NewRental(repo, zap.NewNop(), service.WithClock(clock), service.WithPublisher(pub))

			got, err := svc.Rent(context.Background(), tt.actor, copyID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Len(t, pub.events, tt.wantEvents)
			ev := pub.events[0]
			require.Equal(t, model.ActionRented, ev.Action)
			require.Equal(t, copyID, ev.CopyID)
			require.Equal(t, want.ID, ev.RentalID)
			require.NotEmpty(t, ev.EventID)
		})
	}
}

func TestRental_Return(t *testing.T) {
	t.Parallel()
	const (
		copyID  int64 = 10
		ownerID int64 = 1
		otherID int64 = 2
	)
	open := model.Rental{
		ID:       100,
		UserID:   ownerID,
		CopyID:   copyID,
		RentedAt: nowTrunc.Add(-48 * time.Hour),
		DueDate:  nowTrunc.Add(-48 * time.Hour).Add(model.LoanPeriod),
	}
	closed := open
	closed.ReturnedAt = &nowTrunc

	type mockBehavior func(r *repo_mocks.MockRepository, actor model.Actor)
	okFlow := func(r *repo_mocks.MockRepository, actor model.Actor) {
		ctx := context.Background()
		gomock.InOrder(
			expectTx(r),
			r.EXPECT().LockCopy(ctx, copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyRented}, nil),
			r.EXPECT().LockOpenRental(ctx, copyID).Return(open, nil),
			r.EXPECT().CloseRental(ctx, open.ID, nowTrunc).Return(closed, nil),
			r.EXPECT().SetCopyStatus(ctx, copyID, model.CopyAvailable).Return(nil),
			r.EXPECT().AppendAudit(ctx, model.AuditLogEntry{
				UserID:    actor.ID,
				CopyID:    copyID,
				Action:    model.ActionReturned,
				CreatedAt: nowTrunc,
			}).Return(model.AuditLogEntry{ID: 2}, nil),
		)
	}

	tests := []struct {
		name         string
		actor        model.Actor
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name:         "ok. owner",
			actor:        model.Actor{ID: ownerID},
			mockBehavior: okFlow,
		},
		{
			name:         "ok. admin returns for another user",
			actor:        model.Actor{ID: otherID, IsAdmin: true},
			mockBehavior: okFlow,
		},
		{
			name:  "err. not owner",
			actor: model.Actor{ID: otherID},
			mockBehavior: func(r *repo_mocks.MockRepository, _ model.Actor) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyRented}, nil)
				r.EXPECT().LockOpenRental(gomock.Any(), copyID).Return(open, nil)
			},
			wantErr: errs.ErrForbidden,
		},
		{
			name:  "err. copy not found",
			actor: model.Actor{ID: ownerID},
			mockBehavior: func(r *repo_mocks.MockRepository, _ model.Actor) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:  "err. copy deleted",
			actor: model.Actor{ID: ownerID},
			mockBehavior: func(r *repo_mocks.MockRepository, _ model.Actor) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyDeleted}, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name:  "err. already returned",
			actor: model.Actor{ID: ownerID},
			mockBehavior: func(r *repo_mocks.MockRepository, _ model.Actor) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyAvailable}, nil)
			},
			wantErr: errs.ErrConflict,
		},
		{
			name:  "err. rented without open rental",
			actor: model.Actor{ID: ownerID},
			mockBehavior: func(r *repo_mocks.MockRepository, _ model.Actor) {
				expectTx(r)
				r.EXPECT().LockCopy(gomock.Any(), copyID).Return(model.BookCopy{ID: copyID, Status: model.CopyRented}, nil)
				r.EXPECT().LockOpenRental(gomock.Any(), copyID).Return(model.Rental{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrConflict,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo, tt.actor)
			pub := &recordingPublisher{}
			svc := service.NewRental(repo, zap.NewNop(), service.WithClock(clock), service.WithPublisher(pub))

			got, err := svc.Return(context.Background(), copyID, tt.actor)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, closed, got)
			require.False(t, got.IsOpen())
			require.Len(t, pub.events, 1)
			require.Equal(t, model.ActionReturned, pub.events[0].Action)
		})
	}
}

func TestRental_Overdue(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewRental(repo, zap.NewNop(), service.WithClock(clock))

	userID := int64(1)
	overdue := []model.Rental{{ID: 1, UserID: userID, CopyID: 10, DueDate: now.Add(-time.Second)}}
	repo.EXPECT().
		ListRentals(gomock.Any(), repository.RentalFilter{UserID: &userID, OpenOnly: true, DueBefore: &now}).
		Return(overdue, nil)
	repo.EXPECT().
		ListRentals(gomock.Any(), repository.RentalFilter{OpenOnly: true, DueBefore: &now}).
		Return(nil, nil)

	got, err := svc.Overdue(context.Background(), &userID)
	require.NoError(t, err)
	require.Equal(t, overdue, got)

	got, err = svc.Overdue(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRental_Listings(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewRental(repo, zap.NewNop())

	userID, copyID := int64(1), int64(10)
	rentals := []model.Rental{{ID: 1, UserID: userID, CopyID: copyID}}
	repo.EXPECT().ListRentals(gomock.Any(), repository.RentalFilter{UserID: &userID}).Return(rentals, nil)
	repo.EXPECT().ListRentals(gomock.Any(), repository.RentalFilter{CopyID: &copyID}).Return(rentals, nil)
	repo.EXPECT().ListRentals(gomock.Any(), repository.RentalFilter{}).Return(nil, errors.New("db down"))

	got, err := svc.ByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, rentals, got)

	got, err = svc.ByCopy(context.Background(), copyID)
	require.NoError(t, err)
	require.Equal(t, rentals, got)

	_, err = svc.All(context.Background())
	require.EqualError(t, err, "db down")
}
