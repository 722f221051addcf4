package model

import (
	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/pkg/errors"
)

type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyRented    CopyStatus = "RENTED"
	CopyDeleted   CopyStatus = "DELETED"
)

type CopyEvent uint8

const (
	EventRent CopyEvent = iota + 1
	EventReturn
	EventDelete
)

func (e CopyEvent) String() string {
	switch e {
	case EventRent:
		return "rent"
	case EventReturn:
		return "return"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Transition is the only place copy status changes are decided:
//
//	AVAILABLE --rent--> RENTED --return--> AVAILABLE --delete--> DELETED
//
// Deleting an already deleted copy is a no-op.
func (s CopyStatus) Transition(e CopyEvent) (CopyStatus, error) {
	switch e {
	case EventRent:
		if s == CopyAvailable {
			return CopyRented, nil
		}
		return s, errors.Wrap(errs.ErrConflict, "copy unavailable")
	case EventReturn:
		switch s {
		case CopyRented:
			return CopyAvailable, nil
		case CopyDeleted:
			return s, errors.Wrap(errs.ErrConflict, "copy deleted")
		default:
			return s, errors.Wrap(errs.ErrConflict, "copy is not currently rented")
		}
	case EventDelete:
		switch s {
		case CopyAvailable, CopyDeleted:
			return CopyDeleted, nil
		default:
			return s, errors.Wrap(errs.ErrConflict, "copy is rented and cannot be deleted")
		}
	}
	return s, errors.Wrapf(errs.ErrInvalidArgument, "unknown copy event %d", e)
}
