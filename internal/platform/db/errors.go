package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint returns the name of the constraint err violated when err is a
// PostgreSQL integrity error (SQLSTATE class 23).
func Constraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || !strings.HasPrefix(pgErr.Code, "23") {
		return "", false
	}
	return pgErr.ConstraintName, true
}
