// internal/repository/postgres/errors.go
package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"rewardvault/internal/util"
	"rewardvault/pkg/db"
)

// mapErr wraps err with op and translates driver conditions into util sentinels.
func mapErr(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, util.ErrDuplicateEntry)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// expectOneRow turns an UPDATE/DELETE affecting no rows into notFound.
func expectOneRow(res sql.Result, notFound error, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
