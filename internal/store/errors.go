package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned on unique constraint violations,
// e.g. a taken username or a duplicate membership row.
var ErrAlreadyExists = errors.New("already exists")

const uniqueViolationCode = "23505"

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return ErrAlreadyExists
	}
	return err
}
