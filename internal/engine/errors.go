package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned by stores when a user row does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyLiked is the ledger's unique-constraint signal for a pair.
	ErrAlreadyLiked = errors.New("already liked")
	// ErrStorage wraps any failed read or write the caller may retry.
	ErrStorage = errors.New("storage unavailable")
	// ErrInvariantViolation means the two rows of a pair disagree. It is a bug.
	ErrInvariantViolation = errors.New("like ledger invariant violated")
)

func storageErr(op string, err error) error {
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
