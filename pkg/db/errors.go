package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error is a unique
// violation on the given column. The license key generator leans on this
// to re-roll colliding keys instead of pre-checking existence.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation && constraintMatches(pgxErr.ConstraintName, column)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && constraintMatches(pqErr.Constraint, column)
	}

	// sqlite (tests) and drivers that only expose message text. Only the
	// duplicate-key message forms count; "violates foreign key constraint"
	// must not match a column named "key".
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}

// constraintMatches accepts a constraint named exactly after the column as
// well as the postgres default <table>_<column>_key naming. An empty
// constraint name passes; the violation code has already been checked.
func constraintMatches(constraint, column string) bool {
	if column == "" || constraint == "" {
		return true
	}
	return constraint == column || strings.Contains(constraint, "_"+column+"_")
}
