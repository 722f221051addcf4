package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
)

type Clock func() time.Time

// EventPublisher receives rental transitions after they have been committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.RentalEvent) error
}

func validID(name string, id int64) error {
	if id <= 0 {
		return errors.Wrapf(errs.ErrInvalidArgument, "%s must be positive, got %d", name, id)
	}
	return nil
}

func required(name, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", errors.Wrapf(errs.ErrInvalidArgument, "%s is required", name)
	}
	return v, nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// result labels an operation outcome for metrics.
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}

func isBusiness(err error) bool {
	return result(err) != "error"
}
