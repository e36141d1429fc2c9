package repo

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrAdminClaimed is returned by ClaimAdmin when the clinic already has
	// an admin claim or any assigned role.
	ErrAdminClaimed = errors.New("clinic admin already claimed")
)

// PostgreSQL error codes we branch on.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
