package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/database"
	"github.com/iliyamo/gym-management/internal/repository"
)

// storeErr translates repository sentinels into the apperr taxonomy. what
// names the record in not-found messages.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, repository.ErrAlreadyProcessed):
		return apperr.Conflict("already processed")
	case errors.Is(err, repository.ErrAlreadyCheckedIn):
		return apperr.Conflict("already checked in")
	case errors.Is(err, repository.ErrNotCheckedIn):
		return apperr.Conflict("not checked in")
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperr.Conflict("insufficient stock")
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Conflict("email already registered")
	case errors.Is(err, repository.ErrPhoneExists):
		return apperr.Conflict("phone already registered")
	case errors.Is(err, repository.ErrPrimaryAdminExists):
		return apperr.Conflict("primary admin already exists")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict(what + " was modified concurrently")
	case errors.Is(err, repository.ErrQRUnavailable):
		return apperr.Unavailable("qr codes are unavailable", err)
	case database.IsTransient(err):
		return apperr.Unavailable("database unavailable, retry shortly", err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
