package service

import (
	"errors"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrOwnListing         = errors.New("cannot start a conversation on your own listing")
	ErrListingInactive    = errors.New("listing is no longer available")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAssistantDisabled  = errors.New("assistant is not configured")
)

// notFound folds repository not-found into the service sentinel.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Clock returns the current time. Timestamps are kept at microsecond
// precision to match DATETIME(6) columns.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}
