package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateReferenceCode signals that a report could not be stored because its
// reference code is already taken. Callers retry with a fresh report id.
var ErrDuplicateReferenceCode = errors.New("reference code already in use")

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// isInvalidText reports a value Postgres could not parse for the column type,
// such as a report id that is not a UUID.
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
