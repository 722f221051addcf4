package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
)

// OpenRentalsError blocks deleting a user who still holds copies.
type OpenRentalsError struct {
	UserID  int64
	CopyIDs []int64
}

func (e *OpenRentalsError) Error() string {
	ids := make([]string, 0, len(e.CopyIDs))
	for _, id := range e.CopyIDs {
		ids = append(ids, fmt.Sprintf("copy[id=%d]", id))
	}
	return fmt.Sprintf("user %d has not returned: %s: %s", e.UserID, strings.Join(ids, ", "), ErrConflict)
}

func (e *OpenRentalsError) Is(target error) bool {
	return target == ErrConflict
}
