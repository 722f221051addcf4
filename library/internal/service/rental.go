package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/metrics"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
)

const publishTimeout = 5 * time.Second

// Rental moves copies between AVAILABLE and RENTED. Every transition runs
// in one transaction that also writes the rental row and one audit entry.
type Rental struct {
	log        *zap.Logger
	repo       repository.Repository
	publisher  EventPublisher
	now        Clock
	loanPeriod time.Duration
}

type RentalOption func(*Rental)

func WithClock(c Clock) RentalOption {
	return func(s *Rental) {
		s.now = c
	}
}

func WithLoanPeriod(d time.Duration) RentalOption {
	return func(s *Rental) {
		if d > 0 {
			s.loanPeriod = d
		}
	}
}

func WithPublisher(p EventPublisher) RentalOption {
	return func(s *Rental) {
		s.publisher = p
	}
}

func NewRental(repo repository.Repository, log *zap.Logger, opts ...RentalOption) *Rental {
	s := &Rental{
		log:        log.Named("rental"),
		repo:       repo,
		now:        time.Now,
		loanPeriod: model.LoanPeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Rental) Rent(ctx context.Context, actor model.Actor, copyID int64) (rental model.Rental, err error) {
	defer s.observe("rent", time.Now(), &err)
	if err := validID("user id", actor.ID); err != nil {
		return model.Rental{}, err
	}

	rentedAt := s.now().UTC().Truncate(time.Second)
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		c, err := q.LockCopy(ctx, copyID)
		if err != nil {
			return err
		}
		next, err := c.Status.Transition(model.EventRent)
		if err != nil {
			return errors.Wrapf(err, "copy %d", copyID)
		}
		// blocks a concurrent delete of the renter until commit
		if _, err := q.LockUser(ctx, actor.ID, repository.LockShare); err != nil {
			return err
		}
		rental, err = q.CreateRental(ctx, model.Rental{
			UserID:   actor.ID,
			CopyID:   copyID,
			RentedAt: rentedAt,
			DueDate:  rentedAt.Add(s.loanPeriod),
		})
		if err != nil {
			return err
		}
		if err := q.SetCopyStatus(ctx, copyID, next); err != nil {
			return err
		}
		_, err = appendAudit(ctx, q, actor.ID, copyID, model.ActionRented, rentedAt)
		return err
	})
	if err != nil {
		return model.Rental{}, err
	}

	s.log.Info("copy rented",
		zap.Int64("rental_id", rental.ID),
		zap.Int64("copy_id", copyID),
		zap.Int64("user_id", actor.ID),
		zap.Time("due_date", rental.DueDate))
	s.publish(ctx, model.ActionRented, actor.ID, rental, rentedAt)
	return rental, nil
}

func (s *Rental) Return(ctx context.Context, copyID int64, actor model.Actor) (rental model.Rental, err error) {
	defer s.observe("return", time.Now(), &err)
	if err := validID("user id", actor.ID); err != nil {
		return model.Rental{}, err
	}

	returnedAt := s.now().UTC().Truncate(time.Second)
	err = s.repo.InTx(ctx, func(q repository.Queries) error {
		c, err := q.LockCopy(ctx, copyID)
		if err != nil {
			return err
		}
		next, err := c.Status.Transition(model.EventReturn)
		if err != nil {
			return errors.Wrapf(err, "copy %d", copyID)
		}
		open, err := q.LockOpenRental(ctx, copyID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errors.Wrapf(errs.ErrConflict, "copy %d has no open rental", copyID)
			}
			return err
		}
		if open.UserID != actor.ID && !actor.IsAdmin {
			return errors.Wrapf(errs.ErrForbidden, "copy %d is rented by another user", copyID)
		}
		if returnedAt.Before(open.RentedAt) {
			returnedAt = open.RentedAt
		}
		if rental, err = q.CloseRental(ctx, open.ID, returnedAt); err != nil {
			return err
		}
		if err := q.SetCopyStatus(ctx, copyID, next); err != nil {
			return err
		}
		_, err = appendAudit(ctx, q, actor.ID, copyID, model.ActionReturned, returnedAt)
		return err
	})
	if err != nil {
		return model.Rental{}, err
	}

	s.log.Info("copy returned",
		zap.Int64("rental_id", rental.ID),
		zap.Int64("copy_id", copyID),
		zap.Int64("user_id", actor.ID))
	s.publish(ctx, model.ActionReturned, actor.ID, rental, returnedAt)
	return rental, nil
}

// Overdue lists open rentals whose due date has passed, optionally for one user.
func (s *Rental) Overdue(ctx context.Context, userID *int64) ([]model.Rental, error) {
	now := s.now().UTC()
	return s.list(ctx, repository.RentalFilter{
		UserID:    userID,
		OpenOnly:  true,
		DueBefore: &now,
	})
}

func (s *Rental) ByUser(ctx context.Context, userID int64) ([]model.Rental, error) {
	return s.list(ctx, repository.RentalFilter{UserID: &userID})
}

func (s *Rental) ByCopy(ctx context.Context, copyID int64) ([]model.Rental, error) {
	return s.list(ctx, repository.RentalFilter{CopyID: &copyID})
}

func (s *Rental) All(ctx context.Context) ([]model.Rental, error) {
	return s.list(ctx, repository.RentalFilter{})
}

// SweepOverdue refreshes the overdue gauge every interval until ctx is done.
func (s *Rental) SweepOverdue(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		overdue, err := s.Overdue(ctx, nil)
		switch {
		case err == nil:
			metrics.OverdueRentals.Set(float64(len(overdue)))
			if len(overdue) > 0 {
				s.log.Info("overdue rentals", zap.Int("count", len(overdue)))
			}
		case ctx.Err() == nil:
			s.log.Error("overdue sweep", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Rental) list(ctx context.Context, f repository.RentalFilter) ([]model.Rental, error) {
	rentals, err := s.repo.ListRentals(ctx, f)
	if err != nil {
		return nil, err
	}
	return orEmpty(rentals), nil
}

// publish runs after commit; the audit trail stays the source of truth when
// the broker is unreachable.
func (s *Rental) publish(ctx context.Context, action model.AuditAction, actorID int64, r model.Rental, at time.Time) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := model.RentalEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		UserID:     actorID,
		CopyID:     r.CopyID,
		RentalID:   r.ID,
		OccurredAt: at,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		metrics.EventsPublishErrorsTotal.Inc()
		s.log.Error("publish rental event", zap.String("event_id", ev.EventID), zap.Error(err))
	}
}

func (s *Rental) observe(op string, start time.Time, err *error) {
	res := result(*err)
	metrics.RentalOpsTotal.WithLabelValues(op, res).Inc()
	metrics.RentalOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	switch {
	case *err == nil:
	case isBusiness(*err):
		s.log.Warn(op+" rejected", zap.Error(*err))
	default:
		s.log.Error(op, zap.Error(*err))
	}
}
