package repository

import (
	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
)

// ErrNotFound is returned when a record does not exist or is not owned by the caller.
var ErrNotFound = domain.ErrNotFound

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
